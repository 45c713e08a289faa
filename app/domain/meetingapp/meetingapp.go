// Package meetingapp maintains the app layer api for the meeting domain.
package meetingapp

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/app/sdk/errs"
	"github.com/jcpaschoal/tenantcrm/app/sdk/mid"
	"github.com/jcpaschoal/tenantcrm/app/sdk/query"
	"github.com/jcpaschoal/tenantcrm/app/sdk/response"
	"github.com/jcpaschoal/tenantcrm/business/domain/activitybus"
	"github.com/jcpaschoal/tenantcrm/business/domain/meetingbus"
	"github.com/jcpaschoal/tenantcrm/business/domain/relationbus"
	"github.com/jcpaschoal/tenantcrm/business/sdk/order"
	"github.com/jcpaschoal/tenantcrm/business/sdk/page"
	"github.com/jcpaschoal/tenantcrm/business/sdk/tenancy"
	"github.com/jcpaschoal/tenantcrm/business/sdk/web"
)

const entityType = "meeting"

type app struct {
	meetingBus  *meetingbus.Core
	activityBus *activitybus.Core
}

func newApp(meetingBus *meetingbus.Core, activityBus *activitybus.Core) *app {
	return &app{
		meetingBus:  meetingBus,
		activityBus: activityBus,
	}
}

func (a *app) create(ctx context.Context, r *http.Request) web.Encoder {
	var app NewMeeting
	if err := web.Decode(r, &app); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	actor, err := mid.GetActor(ctx)
	if err != nil {
		return errs.New(errs.Unauthenticated, err)
	}

	var requested uuid.UUID
	if app.TenantID != "" {
		requested = uuid.MustParse(app.TenantID)
	}

	tenantID, err := actor.ResolveTenant(requested)
	if err != nil {
		return tenantError(err)
	}

	nm, err := toBusNewMeeting(app, tenantID, actor.UserID)
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	mtg, err := a.meetingBus.Create(ctx, nm)
	if err != nil {
		return busError(err, "create")
	}

	a.record(ctx, actor, mtg, activitybus.EventCreated)

	return response.Created("Meeting created successfully", toAppMeeting(mtg))
}

func (a *app) update(ctx context.Context, r *http.Request) web.Encoder {
	var app UpdateMeeting
	if err := web.Decode(r, &app); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	um, err := toBusUpdateMeeting(app)
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	actor, mtg, encErr := a.load(ctx, r)
	if encErr != nil {
		return encErr
	}

	mtg, err = a.meetingBus.Update(ctx, mtg, um, actor.UserID)
	if err != nil {
		return busError(err, "update")
	}

	a.record(ctx, actor, mtg, activitybus.EventUpdated)

	return response.OK("Meeting updated successfully", toAppMeeting(mtg))
}

func (a *app) delete(ctx context.Context, r *http.Request) web.Encoder {
	actor, mtg, encErr := a.load(ctx, r)
	if encErr != nil {
		return encErr
	}

	mtg, err := a.meetingBus.Delete(ctx, mtg, actor.UserID)
	if err != nil {
		return busError(err, "delete")
	}

	a.record(ctx, actor, mtg, activitybus.EventDeleted)

	return response.OK("Meeting deleted successfully", nil)
}

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

	orderBy, err := order.Parse(orderByFields, qp.OrderBy, meetingbus.DefaultOrderBy)
	if err != nil {
		return errs.NewFieldErrors("orderBy", err)
	}

	mtgs, err := a.meetingBus.Query(ctx, filter, orderBy, pg)
	if err != nil {
		return errs.Errorf(errs.Internal, "query: %s", err)
	}

	total, err := a.meetingBus.Count(ctx, filter)
	if err != nil {
		return errs.Errorf(errs.Internal, "count: %s", err)
	}

	return query.NewResult(toAppMeetings(mtgs), total, pg)
}

func (a *app) queryByID(ctx context.Context, r *http.Request) web.Encoder {
	_, mtg, encErr := a.load(ctx, r)
	if encErr != nil {
		return encErr
	}

	return response.OK("OK", toAppMeeting(mtg))
}

// load fetches the meeting named in the path and checks the caller may see
// it.
func (a *app) load(ctx context.Context, r *http.Request) (tenancy.Actor, meetingbus.Meeting, *errs.Error) {
	actor, err := mid.GetActor(ctx)
	if err != nil {
		return tenancy.Actor{}, meetingbus.Meeting{}, errs.New(errs.Unauthenticated, err)
	}

	id, err := uuid.Parse(web.Param(r, "meeting_id"))
	if err != nil {
		return tenancy.Actor{}, meetingbus.Meeting{}, errs.NewFieldErrors("meeting_id", err)
	}

	mtg, err := a.meetingBus.QueryByID(ctx, id)
	if err != nil {
		if errors.Is(err, meetingbus.ErrNotFound) {
			return tenancy.Actor{}, meetingbus.Meeting{}, errs.New(errs.NotFound, meetingbus.ErrNotFound)
		}
		return tenancy.Actor{}, meetingbus.Meeting{}, errs.Errorf(errs.Internal, "querybyid: meetingID[%s]: %s", id, err)
	}

	if err := actor.CheckTenant(mtg.TenantID); err != nil {
		return tenancy.Actor{}, meetingbus.Meeting{}, errs.New(errs.PermissionDenied, err)
	}

	return actor, mtg, nil
}

func (a *app) record(ctx context.Context, actor tenancy.Actor, mtg meetingbus.Meeting, event string) {
	a.activityBus.Record(ctx, activitybus.NewActivity{
		Event:      activitybus.EventName(entityType, event),
		EntityType: entityType,
		EntityID:   mtg.ID.String(),
		TenantID:   mtg.TenantID,
		UserID:     actor.UserID,
		Metadata: map[string]any{
			"title":     mtg.Title,
			"meetingId": mtg.MeetingID,
		},
	})
}

// =============================================================================

func busError(err error, op string) *errs.Error {
	switch {
	case errors.Is(err, meetingbus.ErrInvalidWindow):
		return errs.New(errs.InvalidArgument, meetingbus.ErrInvalidWindow)
	case errors.Is(err, relationbus.ErrUnknownKind), errors.Is(err, relationbus.ErrTargetNotFound):
		return errs.New(errs.InvalidArgument, err)
	case errors.Is(err, meetingbus.ErrDuplicateMeetingID):
		return errs.New(errs.AlreadyExists, meetingbus.ErrDuplicateMeetingID)
	}

	return errs.Errorf(errs.Internal, "%s: %s", op, err)
}

func tenantError(err error) *errs.Error {
	if errors.Is(err, tenancy.ErrTenantRequired) {
		return errs.NewFieldErrors("tenantId", err)
	}

	return errs.New(errs.PermissionDenied, err)
}
