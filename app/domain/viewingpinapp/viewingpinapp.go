// Package viewingpinapp maintains the app layer api for the viewing PIN and
// the access audit log.
package viewingpinapp

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/jcpaschoal/tenantcrm/app/sdk/errs"
	"github.com/jcpaschoal/tenantcrm/app/sdk/mid"
	"github.com/jcpaschoal/tenantcrm/app/sdk/query"
	"github.com/jcpaschoal/tenantcrm/app/sdk/response"
	"github.com/jcpaschoal/tenantcrm/business/domain/auditbus"
	"github.com/jcpaschoal/tenantcrm/business/domain/pinbus"
	"github.com/jcpaschoal/tenantcrm/business/sdk/page"
	"github.com/jcpaschoal/tenantcrm/business/sdk/web"
	"github.com/jcpaschoal/tenantcrm/business/types/pin"
	"github.com/jcpaschoal/tenantcrm/foundation/logger"
)

type app struct {
	log      *logger.Logger
	pinBus   *pinbus.Core
	auditBus *auditbus.Core
}

func newApp(cfg Config) *app {
	return &app{
		log:      cfg.Log,
		pinBus:   cfg.PinBus,
		auditBus: cfg.AuditBus,
	}
}

func (a *app) status(ctx context.Context, _ *http.Request) web.Encoder {
	actor, err := mid.GetActor(ctx)
	if err != nil {
		return errs.New(errs.Unauthenticated, err)
	}

	st, err := a.pinBus.Status(ctx, actor.UserID)
	if err != nil {
		return pinError(err)
	}

	return response.OK("OK", toAppStatus(st))
}

func (a *app) set(ctx context.Context, r *http.Request) web.Encoder {
	var app PinInput
	if err := web.Decode(r, &app); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	p, appErr := parsePin("pin", app.Pin)
	if appErr != nil {
		return appErr
	}

	actor, err := mid.GetActor(ctx)
	if err != nil {
		return errs.New(errs.Unauthenticated, err)
	}

	if err := a.pinBus.Set(ctx, actor.UserID, p); err != nil {
		return pinError(err)
	}

	return response.OK("Viewing PIN set successfully", nil)
}

// verify checks the PIN. Nothing is stored on success; callers gate each
// sensitive action on its own verify call.
func (a *app) verify(ctx context.Context, r *http.Request) web.Encoder {
	var app PinInput
	if err := web.Decode(r, &app); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	p, appErr := parsePin("pin", app.Pin)
	if appErr != nil {
		return appErr
	}

	actor, err := mid.GetActor(ctx)
	if err != nil {
		return errs.New(errs.Unauthenticated, err)
	}

	if err := a.pinBus.Verify(ctx, actor.UserID, p); err != nil {
		return pinError(err)
	}

	return response.OK("Viewing PIN verified", map[string]bool{"verified": true})
}

func (a *app) change(ctx context.Context, r *http.Request) web.Encoder {
	var app ChangePin
	if err := web.Decode(r, &app); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	next, appErr := parsePin("newPin", app.NewPin)
	if appErr != nil {
		return appErr
	}

	var current *pin.PIN
	if app.CurrentPin != nil {
		p, appErr := parsePin("currentPin", *app.CurrentPin)
		if appErr != nil {
			return appErr
		}
		current = &p
	}

	actor, err := mid.GetActor(ctx)
	if err != nil {
		return errs.New(errs.Unauthenticated, err)
	}

	if err := a.pinBus.Change(ctx, actor.UserID, current, next); err != nil {
		return pinError(err)
	}

	return response.OK("Viewing PIN changed successfully", nil)
}

func (a *app) forgot(ctx context.Context, _ *http.Request) web.Encoder {
	actor, err := mid.GetActor(ctx)
	if err != nil {
		return errs.New(errs.Unauthenticated, err)
	}

	if err := a.pinBus.Forgot(ctx, actor.UserID); err != nil {
		return pinError(err)
	}

	return response.OK("OTP sent to your registered email", nil)
}

func (a *app) reset(ctx context.Context, r *http.Request) web.Encoder {
	var app ResetPin
	if err := web.Decode(r, &app); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	next, appErr := parsePin("newPin", app.NewPin)
	if appErr != nil {
		return appErr
	}

	actor, err := mid.GetActor(ctx)
	if err != nil {
		return errs.New(errs.Unauthenticated, err)
	}

	if err := a.pinBus.Reset(ctx, actor.UserID, app.OTP, next); err != nil {
		return pinError(err)
	}

	return response.OK("Viewing PIN reset successfully", nil)
}

func (a *app) logAccess(ctx context.Context, r *http.Request) web.Encoder {
	var app LogAccess
	if err := web.Decode(r, &app); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	na, err := toBusNewAudit(app)
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	actor, err := mid.GetActor(ctx)
	if err != nil {
		return errs.New(errs.Unauthenticated, err)
	}

	na.TenantID = actor.TenantID
	na.UserID = actor.UserID
	na.IPAddress = clientIP(r)
	na.UserAgent = r.UserAgent()

	aud, err := a.auditBus.Log(ctx, na)
	if err != nil {
		if errors.Is(err, auditbus.ErrMissingResource) {
			return errs.New(errs.InvalidArgument, auditbus.ErrMissingResource)
		}
		return errs.Errorf(errs.Internal, "log: %s", err)
	}

	return response.Created("Access logged", toAppAudit(aud))
}

func (a *app) auditLogs(ctx context.Context, r *http.Request) web.Encoder {
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

	auds, err := a.auditBus.Query(ctx, filter, pg)
	if err != nil {
		return errs.Errorf(errs.Internal, "query: %s", err)
	}

	total, err := a.auditBus.Count(ctx, filter)
	if err != nil {
		return errs.Errorf(errs.Internal, "count: %s", err)
	}

	return query.NewResult(toAppAudits(auds), total, pg)
}

// =============================================================================

// pinError maps the PIN flow errors. A wrong PIN or code is a 401, an
// expired code keeps its own message.
func pinError(err error) *errs.Error {
	switch {
	case errors.Is(err, pinbus.ErrInvalidPin):
		return errs.New(errs.Unauthenticated, pinbus.ErrInvalidPin)
	case errors.Is(err, pinbus.ErrInvalidOTP):
		return errs.New(errs.Unauthenticated, pinbus.ErrInvalidOTP)
	case errors.Is(err, pinbus.ErrOTPExpired):
		return errs.New(errs.FailedPrecondition, pinbus.ErrOTPExpired)
	case errors.Is(err, pinbus.ErrNoOTP):
		return errs.New(errs.FailedPrecondition, pinbus.ErrNoOTP)
	case errors.Is(err, pinbus.ErrPinNotSet):
		return errs.New(errs.FailedPrecondition, pinbus.ErrPinNotSet)
	case errors.Is(err, pinbus.ErrPinAlreadySet):
		return errs.New(errs.FailedPrecondition, pinbus.ErrPinAlreadySet)
	case errors.Is(err, pinbus.ErrCurrentPinRequired):
		return errs.NewFieldErrors("currentPin", pinbus.ErrCurrentPinRequired)
	case errors.Is(err, pinbus.ErrNotFound):
		return errs.New(errs.NotFound, pinbus.ErrNotFound)
	}

	return errs.Errorf(errs.Internal, "viewingpin: %s", err)
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		ip, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(ip)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}
