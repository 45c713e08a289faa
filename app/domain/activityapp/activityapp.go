// Package activityapp maintains the app layer api for the activity feed.
package activityapp

import (
	"context"
	"net/http"

	"github.com/jcpaschoal/tenantcrm/app/sdk/errs"
	"github.com/jcpaschoal/tenantcrm/app/sdk/mid"
	"github.com/jcpaschoal/tenantcrm/app/sdk/query"
	"github.com/jcpaschoal/tenantcrm/business/domain/activitybus"
	"github.com/jcpaschoal/tenantcrm/business/sdk/page"
	"github.com/jcpaschoal/tenantcrm/business/sdk/web"
)

type app struct {
	activityBus *activitybus.Core
}

func newApp(activityBus *activitybus.Core) *app {
	return &app{
		activityBus: activityBus,
	}
}

// query lists the feed, newest first.
func (a *app) query(ctx context.Context, r *http.Request) web.Encoder {
	qp := parseQueryParams(r)

	pg, err := page.Parse(qp.Page, qp.Limit)
	if err != nil {
		return errs.NewFieldErrors("page", err)
	}

	actor, err := mid.GetActor(ctx)
	if err != nil {
		return errs.New(errs.Unauthenticated, err)
	}

	filter, appErr := parseFilter(qp, actor)
	if appErr != nil {
		return appErr
	}

	acts, err := a.activityBus.Query(ctx, filter, pg)
	if err != nil {
		return errs.Errorf(errs.Internal, "query: %s", err)
	}

	total, err := a.activityBus.Count(ctx, filter)
	if err != nil {
		return errs.Errorf(errs.Internal, "count: %s", err)
	}

	return query.NewResult(toAppActivities(acts), total, pg)
}
