// Package userapp maintains the app layer api for the user domain.
package userapp

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
	"github.com/jcpaschoal/tenantcrm/business/domain/tenantbus"
	"github.com/jcpaschoal/tenantcrm/business/domain/userbus"
	"github.com/jcpaschoal/tenantcrm/business/sdk/order"
	"github.com/jcpaschoal/tenantcrm/business/sdk/page"
	"github.com/jcpaschoal/tenantcrm/business/sdk/tenancy"
	"github.com/jcpaschoal/tenantcrm/business/sdk/web"
)

const entityType = "user"

var (
	errPlatformRole = errors.New("only platform users may assign a platform role")
	errRoleScope    = errors.New("role cannot move between platform and tenant scope")
	errDeleteSelf   = errors.New("you cannot delete your own user")
	errTenantClosed = errors.New("tenant is suspended")
)

type app struct {
	userBus     *userbus.Core
	tenantBus   *tenantbus.Core
	activityBus *activitybus.Core
}

func newApp(cfg Config) *app {
	return &app{
		userBus:     cfg.UserBus,
		tenantBus:   cfg.TenantBus,
		activityBus: cfg.ActivityBus,
	}
}

// newWithTx constructs a new app value with the domain apis using a store
// transaction that was created via middleware.
func (a *app) newWithTx(ctx context.Context) (*app, error) {
	tx, err := mid.GetTran(ctx)
	if err != nil {
		return nil, err
	}

	userBus, err := a.userBus.NewWithTx(tx)
	if err != nil {
		return nil, err
	}

	tenantBus, err := a.tenantBus.NewWithTx(tx)
	if err != nil {
		return nil, err
	}

	app := app{
		userBus:     userBus,
		tenantBus:   tenantBus,
		activityBus: a.activityBus,
	}

	return &app, nil
}

// create adds a user. A tenant user takes one seat of the tenant and the
// seat check and the insert share the request transaction.
func (a *app) create(ctx context.Context, r *http.Request) web.Encoder {
	var app NewUser
	if err := web.Decode(r, &app); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	nu, err := toBusNewUser(app)
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	actor, err := mid.GetActor(ctx)
	if err != nil {
		return errs.New(errs.Unauthenticated, err)
	}

	if nu.Role.IsPlatform() {
		if !actor.Privileged() {
			return errs.New(errs.PermissionDenied, errPlatformRole)
		}
	} else {
		var requested uuid.UUID
		if app.TenantID != "" {
			requested = uuid.MustParse(app.TenantID)
		}

		tenantID, err := actor.ResolveTenant(requested)
		if err != nil {
			return tenantError(err)
		}
		nu.TenantID = tenantID
	}

	a, err = a.newWithTx(ctx)
	if err != nil {
		return errs.New(errs.Internal, err)
	}

	if nu.TenantID != uuid.Nil {
		if appErr := a.takeSeat(ctx, nu.TenantID); appErr != nil {
			return appErr
		}
	}

	usr, err := a.userBus.Create(ctx, nu)
	if err != nil {
		if errors.Is(err, userbus.ErrUniqueEmail) {
			return errs.New(errs.AlreadyExists, userbus.ErrUniqueEmail)
		}
		return errs.Errorf(errs.Internal, "create: email[%s]: %s", nu.Email.Address, err)
	}

	a.record(ctx, actor, usr, activitybus.EventCreated)

	return response.Created("User created successfully", toAppUser(usr))
}

func (a *app) update(ctx context.Context, r *http.Request) web.Encoder {
	var app UpdateUser
	if err := web.Decode(r, &app); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	uu, err := toBusUpdateUser(app)
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	actor, usr, appErr := a.load(ctx, r)
	if appErr != nil {
		return appErr
	}

	if uu.Role != nil && uu.Role.IsPlatform() != usr.Role.IsPlatform() {
		return errs.New(errs.PermissionDenied, errRoleScope)
	}

	usr, err = a.userBus.Update(ctx, usr, uu)
	if err != nil {
		if errors.Is(err, userbus.ErrUniqueEmail) {
			return errs.New(errs.AlreadyExists, userbus.ErrUniqueEmail)
		}
		return errs.Errorf(errs.Internal, "update: userID[%s]: %s", usr.ID, err)
	}

	a.record(ctx, actor, usr, activitybus.EventUpdated)

	return response.OK("User updated successfully", toAppUser(usr))
}

// delete deactivates the user and frees the seat it held.
func (a *app) delete(ctx context.Context, r *http.Request) web.Encoder {
	actor, usr, appErr := a.load(ctx, r)
	if appErr != nil {
		return appErr
	}

	if usr.ID == actor.UserID {
		return errs.New(errs.FailedPrecondition, errDeleteSelf)
	}

	if !usr.Active {
		return response.OK("User deleted successfully", nil)
	}

	a, err := a.newWithTx(ctx)
	if err != nil {
		return errs.New(errs.Internal, err)
	}

	usr, err = a.userBus.Deactivate(ctx, usr)
	if err != nil {
		return errs.Errorf(errs.Internal, "deactivate: userID[%s]: %s", usr.ID, err)
	}

	if usr.TenantID != uuid.Nil {
		if err := a.tenantBus.AddUsers(ctx, usr.TenantID, -1); err != nil {
			return errs.Errorf(errs.Internal, "addusers: tenantID[%s]: %s", usr.TenantID, err)
		}
	}

	a.record(ctx, actor, usr, activitybus.EventDeleted)

	return response.OK("User deleted successfully", nil)
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

	orderBy, err := order.Parse(orderByFields, qp.OrderBy, userbus.DefaultOrderBy)
	if err != nil {
		return errs.NewFieldErrors("orderBy", err)
	}

	usrs, err := a.userBus.Query(ctx, filter, orderBy, pg)
	if err != nil {
		return errs.Errorf(errs.Internal, "query: %s", err)
	}

	total, err := a.userBus.Count(ctx, filter)
	if err != nil {
		return errs.Errorf(errs.Internal, "count: %s", err)
	}

	return query.NewResult(toAppUsers(usrs), total, pg)
}

func (a *app) queryByID(ctx context.Context, r *http.Request) web.Encoder {
	_, usr, appErr := a.load(ctx, r)
	if appErr != nil {
		return appErr
	}

	return response.OK("OK", toAppUser(usr))
}

// =============================================================================

func (a *app) load(ctx context.Context, r *http.Request) (tenancy.Actor, userbus.User, *errs.Error) {
	actor, err := mid.GetActor(ctx)
	if err != nil {
		return tenancy.Actor{}, userbus.User{}, errs.New(errs.Unauthenticated, err)
	}

	id, err := uuid.Parse(web.Param(r, "user_id"))
	if err != nil {
		return tenancy.Actor{}, userbus.User{}, errs.NewFieldErrors("user_id", err)
	}

	usr, err := a.userBus.QueryByID(ctx, id)
	if err != nil {
		if errors.Is(err, userbus.ErrNotFound) {
			return tenancy.Actor{}, userbus.User{}, errs.New(errs.NotFound, userbus.ErrNotFound)
		}
		return tenancy.Actor{}, userbus.User{}, errs.Errorf(errs.Internal, "querybyid: userID[%s]: %s", id, err)
	}

	if err := actor.CheckTenant(usr.TenantID); err != nil {
		return tenancy.Actor{}, userbus.User{}, errs.New(errs.PermissionDenied, err)
	}

	return actor, usr, nil
}

func (a *app) takeSeat(ctx context.Context, tenantID uuid.UUID) *errs.Error {
	t, err := a.tenantBus.QueryByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, tenantbus.ErrNotFound) {
			return errs.NewFieldErrors("tenantId", tenantbus.ErrNotFound)
		}
		return errs.Errorf(errs.Internal, "querybyid: tenantID[%s]: %s", tenantID, err)
	}

	if t.Suspended {
		return errs.New(errs.FailedPrecondition, errTenantClosed)
	}

	if err := a.tenantBus.AddUsers(ctx, tenantID, 1); err != nil {
		if errors.Is(err, tenantbus.ErrUserLimit) {
			return errs.New(errs.FailedPrecondition, tenantbus.ErrUserLimit)
		}
		return errs.Errorf(errs.Internal, "addusers: tenantID[%s]: %s", tenantID, err)
	}

	return nil
}

func tenantError(err error) *errs.Error {
	if errors.Is(err, tenancy.ErrTenantRequired) {
		return errs.NewFieldErrors("tenantId", err)
	}

	return errs.New(errs.PermissionDenied, err)
}

func (a *app) record(ctx context.Context, actor tenancy.Actor, usr userbus.User, event string) {
	a.activityBus.Record(ctx, activitybus.NewActivity{
		Event:      activitybus.EventName(entityType, event),
		EntityType: entityType,
		EntityID:   usr.ID.String(),
		TenantID:   usr.TenantID,
		UserID:     actor.UserID,
		Metadata:   map[string]any{"email": usr.Email.Address, "role": usr.Role.String()},
	})
}
