// Package tenantapp maintains the app layer api for the tenant domain.
package tenantapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/app/sdk/errs"
	"github.com/jcpaschoal/tenantcrm/app/sdk/mid"
	"github.com/jcpaschoal/tenantcrm/app/sdk/query"
	"github.com/jcpaschoal/tenantcrm/app/sdk/response"
	"github.com/jcpaschoal/tenantcrm/business/domain/activitybus"
	"github.com/jcpaschoal/tenantcrm/business/domain/subscriptionbus"
	"github.com/jcpaschoal/tenantcrm/business/domain/tenantbus"
	"github.com/jcpaschoal/tenantcrm/business/domain/userbus"
	"github.com/jcpaschoal/tenantcrm/business/sdk/order"
	"github.com/jcpaschoal/tenantcrm/business/sdk/page"
	"github.com/jcpaschoal/tenantcrm/business/sdk/tenancy"
	"github.com/jcpaschoal/tenantcrm/business/sdk/web"
	"github.com/jcpaschoal/tenantcrm/business/types/substatus"
	"github.com/jcpaschoal/tenantcrm/foundation/logger"
)

const entityType = "tenant"

type app struct {
	log             *logger.Logger
	tenantBus       *tenantbus.Core
	userBus         *userbus.Core
	subscriptionBus *subscriptionbus.Core
	activityBus     *activitybus.Core
}

func newApp(cfg Config) *app {
	return &app{
		log:             cfg.Log,
		tenantBus:       cfg.TenantBus,
		userBus:         cfg.UserBus,
		subscriptionBus: cfg.SubscriptionBus,
		activityBus:     cfg.ActivityBus,
	}
}

// newWithTx constructs a new app value with the domain apis using a store
// transaction that was created via middleware.
func (a *app) newWithTx(ctx context.Context) (*app, error) {
	tx, err := mid.GetTran(ctx)
	if err != nil {
		return nil, err
	}

	tenantBus, err := a.tenantBus.NewWithTx(tx)
	if err != nil {
		return nil, err
	}

	userBus, err := a.userBus.NewWithTx(tx)
	if err != nil {
		return nil, err
	}

	subscriptionBus, err := a.subscriptionBus.NewWithTx(tx)
	if err != nil {
		return nil, err
	}

	app := app{
		log:             a.log,
		tenantBus:       tenantBus,
		userBus:         userBus,
		subscriptionBus: subscriptionBus,
		activityBus:     a.activityBus,
	}

	return &app, nil
}

// create registers a tenant and starts its trial subscription.
func (a *app) create(ctx context.Context, r *http.Request) web.Encoder {
	var app NewTenant
	if err := web.Decode(r, &app); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	nt, err := toBusNewTenant(app)
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	actor, err := mid.GetActor(ctx)
	if err != nil {
		return errs.New(errs.Unauthenticated, err)
	}

	a, err = a.newWithTx(ctx)
	if err != nil {
		return errs.New(errs.Internal, err)
	}

	t, err := a.tenantBus.Create(ctx, nt)
	if err != nil {
		switch {
		case errors.Is(err, tenantbus.ErrInvalidSlug):
			return errs.NewFieldErrors("slug", tenantbus.ErrInvalidSlug)
		case errors.Is(err, tenantbus.ErrUniqueSlug):
			return errs.New(errs.AlreadyExists, tenantbus.ErrUniqueSlug)
		}
		return errs.Errorf(errs.Internal, "create: %s", err)
	}

	sub, err := a.subscriptionBus.CreateTrial(ctx, t.ID)
	if err != nil {
		return errs.Errorf(errs.Internal, "createtrial: tenantID[%s]: %s", t.ID, err)
	}

	a.record(ctx, actor, t, activitybus.EventCreated, nil)

	resp := toAppTenant(t)
	resp.Subscription = toAppSubscription(sub)

	return response.Created("Tenant created successfully", resp)
}

func (a *app) update(ctx context.Context, r *http.Request) web.Encoder {
	var app UpdateTenant
	if err := web.Decode(r, &app); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	ut, err := toBusUpdateTenant(app)
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	actor, t, appErr := a.load(ctx, r)
	if appErr != nil {
		return appErr
	}

	t, err = a.tenantBus.Update(ctx, t, ut)
	if err != nil {
		return errs.Errorf(errs.Internal, "update: tenantID[%s]: %s", t.ID, err)
	}

	a.record(ctx, actor, t, activitybus.EventUpdated, nil)

	return response.OK("Tenant updated successfully", toAppTenant(t))
}

// suspend blocks the tenant and moves its subscription to suspended when
// the subscription state allows it.
func (a *app) suspend(ctx context.Context, r *http.Request) web.Encoder {
	var app Suspension
	if err := web.Decode(r, &app); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	actor, t, appErr := a.load(ctx, r)
	if appErr != nil {
		return appErr
	}

	a, err := a.newWithTx(ctx)
	if err != nil {
		return errs.New(errs.Internal, err)
	}

	t, err = a.tenantBus.Suspend(ctx, t, app.Reason)
	if err != nil {
		return errs.Errorf(errs.Internal, "suspend: tenantID[%s]: %s", t.ID, err)
	}

	if err := a.moveSubscription(ctx, actor, t.ID, substatus.Suspended, t.SuspensionReason); err != nil {
		return errs.Errorf(errs.Internal, "suspend: tenantID[%s]: %s", t.ID, err)
	}

	a.record(ctx, actor, t, "suspended", map[string]any{"reason": t.SuspensionReason})

	return response.OK("Tenant suspended successfully", toAppTenant(t))
}

// activate lifts a suspension. A suspended subscription becomes active again.
func (a *app) activate(ctx context.Context, r *http.Request) web.Encoder {
	actor, t, appErr := a.load(ctx, r)
	if appErr != nil {
		return appErr
	}

	a, err := a.newWithTx(ctx)
	if err != nil {
		return errs.New(errs.Internal, err)
	}

	t, err = a.tenantBus.Activate(ctx, t)
	if err != nil {
		return errs.Errorf(errs.Internal, "activate: tenantID[%s]: %s", t.ID, err)
	}

	if err := a.moveSubscription(ctx, actor, t.ID, substatus.Active, "tenant activated"); err != nil {
		return errs.Errorf(errs.Internal, "activate: tenantID[%s]: %s", t.ID, err)
	}

	a.record(ctx, actor, t, "activated", nil)

	return response.OK("Tenant activated successfully", toAppTenant(t))
}

// delete removes the users, the subscription and then the tenant inside the
// request transaction.
func (a *app) delete(ctx context.Context, r *http.Request) web.Encoder {
	actor, t, appErr := a.load(ctx, r)
	if appErr != nil {
		return appErr
	}

	a, err := a.newWithTx(ctx)
	if err != nil {
		return errs.New(errs.Internal, err)
	}

	n, err := a.userBus.DeleteByTenant(ctx, t.ID)
	if err != nil {
		return errs.Errorf(errs.Internal, "delete: %s", err)
	}

	if err := a.subscriptionBus.DeleteByTenant(ctx, t.ID); err != nil {
		return errs.Errorf(errs.Internal, "delete: %s", err)
	}

	if err := a.tenantBus.Delete(ctx, t); err != nil {
		return errs.Errorf(errs.Internal, "delete: %s", err)
	}

	a.record(ctx, actor, t, activitybus.EventDeleted, map[string]any{"usersDeleted": n})

	return response.OK("Tenant deleted successfully", nil)
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

	orderBy, err := order.Parse(orderByFields, qp.OrderBy, tenantbus.DefaultOrderBy)
	if err != nil {
		return errs.NewFieldErrors("orderBy", err)
	}

	tenants, err := a.tenantBus.Query(ctx, filter, orderBy, pg)
	if err != nil {
		return errs.Errorf(errs.Internal, "query: %s", err)
	}

	total, err := a.tenantBus.Count(ctx, filter)
	if err != nil {
		return errs.Errorf(errs.Internal, "count: %s", err)
	}

	return query.NewResult(toAppTenants(tenants), total, pg)
}

func (a *app) queryByID(ctx context.Context, r *http.Request) web.Encoder {
	_, t, appErr := a.load(ctx, r)
	if appErr != nil {
		return appErr
	}

	resp := toAppTenant(t)

	sub, err := a.subscriptionBus.QueryByTenant(ctx, t.ID)
	switch {
	case err == nil:
		resp.Subscription = toAppSubscription(sub)
	case !errors.Is(err, subscriptionbus.ErrNotFound):
		return errs.Errorf(errs.Internal, "querybytenant: tenantID[%s]: %s", t.ID, err)
	}

	return response.OK("OK", resp)
}

func (a *app) stats(ctx context.Context, _ *http.Request) web.Encoder {
	actor, err := mid.GetActor(ctx)
	if err != nil {
		return errs.New(errs.Unauthenticated, err)
	}

	if !actor.Privileged() {
		return errs.New(errs.PermissionDenied, tenancy.ErrAccessDenied)
	}

	ts, err := a.tenantBus.Stats(ctx)
	if err != nil {
		return errs.Errorf(errs.Internal, "stats: %s", err)
	}

	ss, err := a.subscriptionBus.Stats(ctx)
	if err != nil {
		return errs.Errorf(errs.Internal, "stats: %s", err)
	}

	return response.OK("OK", toAppOverview(ts, ss))
}

// =============================================================================

func (a *app) load(ctx context.Context, r *http.Request) (tenancy.Actor, tenantbus.Tenant, *errs.Error) {
	actor, err := mid.GetActor(ctx)
	if err != nil {
		return tenancy.Actor{}, tenantbus.Tenant{}, errs.New(errs.Unauthenticated, err)
	}

	id, err := uuid.Parse(web.Param(r, "tenant_id"))
	if err != nil {
		return tenancy.Actor{}, tenantbus.Tenant{}, errs.NewFieldErrors("tenant_id", err)
	}

	if err := actor.CheckTenant(id); err != nil {
		return tenancy.Actor{}, tenantbus.Tenant{}, errs.New(errs.PermissionDenied, err)
	}

	t, err := a.tenantBus.QueryByID(ctx, id)
	if err != nil {
		if errors.Is(err, tenantbus.ErrNotFound) {
			return tenancy.Actor{}, tenantbus.Tenant{}, errs.New(errs.NotFound, tenantbus.ErrNotFound)
		}
		return tenancy.Actor{}, tenantbus.Tenant{}, errs.Errorf(errs.Internal, "querybyid: tenantID[%s]: %s", id, err)
	}

	return actor, t, nil
}

// moveSubscription sets the subscription status of the tenant. A tenant
// without a subscription, or one whose state cannot move there, is left as
// it is.
func (a *app) moveSubscription(ctx context.Context, actor tenancy.Actor, tenantID uuid.UUID, to substatus.Status, reason string) error {
	sub, err := a.subscriptionBus.QueryByTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, subscriptionbus.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("querybytenant: %w", err)
	}

	if to == substatus.Active && sub.Status != substatus.Suspended {
		return nil
	}

	if _, err := a.subscriptionBus.SetStatus(ctx, actor.UserID, sub, to, reason); err != nil {
		if errors.Is(err, subscriptionbus.ErrInvalidTransition) {
			a.log.Info(ctx, "tenant: subscription unchanged", "tenantID", tenantID, "from", sub.Status, "to", to)
			return nil
		}
		return fmt.Errorf("setstatus: %w", err)
	}

	return nil
}

func (a *app) record(ctx context.Context, actor tenancy.Actor, t tenantbus.Tenant, event string, metadata map[string]any) {
	if metadata == nil {
		metadata = make(map[string]any)
	}
	metadata["slug"] = t.Slug

	a.activityBus.Record(ctx, activitybus.NewActivity{
		Event:      activitybus.EventName(entityType, event),
		EntityType: entityType,
		EntityID:   t.ID.String(),
		TenantID:   t.ID,
		UserID:     actor.UserID,
		Metadata:   metadata,
	})
}
