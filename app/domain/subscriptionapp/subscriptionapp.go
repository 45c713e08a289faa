// Package subscriptionapp maintains the app layer api for plans,
// subscriptions and billing.
package subscriptionapp

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/app/sdk/errs"
	"github.com/jcpaschoal/tenantcrm/app/sdk/mid"
	"github.com/jcpaschoal/tenantcrm/app/sdk/query"
	"github.com/jcpaschoal/tenantcrm/app/sdk/response"
	"github.com/jcpaschoal/tenantcrm/business/domain/activitybus"
	"github.com/jcpaschoal/tenantcrm/business/domain/paymentbus"
	"github.com/jcpaschoal/tenantcrm/business/domain/subscriptionbus"
	"github.com/jcpaschoal/tenantcrm/business/sdk/order"
	"github.com/jcpaschoal/tenantcrm/business/sdk/page"
	"github.com/jcpaschoal/tenantcrm/business/sdk/tenancy"
	"github.com/jcpaschoal/tenantcrm/business/sdk/web"
	"github.com/jcpaschoal/tenantcrm/foundation/logger"
)

const entityType = "subscription"

// SignatureHeader carries the hex HMAC-SHA256 of the webhook body.
const SignatureHeader = "X-Signature"

var (
	errMissingSecret = errors.New("webhook secret is not configured")
	errBadSignature  = errors.New("webhook signature mismatch")
)

type app struct {
	log             *logger.Logger
	subscriptionBus *subscriptionbus.Core
	paymentBus      *paymentbus.Core
	activityBus     *activitybus.Core
	webhookSecret   []byte
}

func newApp(cfg Config) *app {
	return &app{
		log:             cfg.Log,
		subscriptionBus: cfg.SubscriptionBus,
		paymentBus:      cfg.PaymentBus,
		activityBus:     cfg.ActivityBus,
		webhookSecret:   []byte(cfg.WebhookSecret),
	}
}

// newWithTx constructs a new app value with the domain apis using a store
// transaction that was created via middleware.
func (a *app) newWithTx(ctx context.Context) (*app, error) {
	tx, err := mid.GetTran(ctx)
	if err != nil {
		return nil, err
	}

	subscriptionBus, err := a.subscriptionBus.NewWithTx(tx)
	if err != nil {
		return nil, err
	}

	paymentBus, err := a.paymentBus.NewWithTx(tx)
	if err != nil {
		return nil, err
	}

	app := app{
		log:             a.log,
		subscriptionBus: subscriptionBus,
		paymentBus:      paymentBus,
		activityBus:     a.activityBus,
		webhookSecret:   a.webhookSecret,
	}

	return &app, nil
}

func (a *app) plans(ctx context.Context, _ *http.Request) web.Encoder {
	plans, err := a.subscriptionBus.Plans(ctx)
	if err != nil {
		return errs.Errorf(errs.Internal, "plans: %s", err)
	}

	return response.OK("OK", toAppPlans(plans))
}

func (a *app) current(ctx context.Context, r *http.Request) web.Encoder {
	_, tenantID, appErr := resolveTenant(ctx, r.URL.Query().Get("tenantId"))
	if appErr != nil {
		return appErr
	}

	sub, err := a.subscriptionBus.QueryByTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, subscriptionbus.ErrNotFound) {
			return errs.New(errs.NotFound, subscriptionbus.ErrNotFound)
		}
		return errs.Errorf(errs.Internal, "querybytenant: tenantID[%s]: %s", tenantID, err)
	}

	return response.OK("OK", toAppSubscription(sub))
}

// upgrade records a payment for the plan. With demo activation the
// subscription is active on return, otherwise the payment stays pending
// until the gateway calls the webhook.
func (a *app) upgrade(ctx context.Context, r *http.Request) web.Encoder {
	var app Upgrade
	if err := web.Decode(r, &app); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	up, err := toBusUpgrade(app)
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	actor, tenantID, appErr := resolveTenant(ctx, app.TenantID)
	if appErr != nil {
		return appErr
	}

	a, err = a.newWithTx(ctx)
	if err != nil {
		return errs.New(errs.Internal, err)
	}

	res, err := a.subscriptionBus.Upgrade(ctx, actor.UserID, tenantID, up)
	if err != nil {
		return busError(err, "upgrade: tenantID[%s]: %s", tenantID)
	}

	a.record(ctx, actor, res.Subscription, "upgrade_requested", map[string]any{
		"planId":        up.PlanID.String(),
		"billingCycle":  up.BillingCycle.String(),
		"paymentStatus": res.Payment.Status.String(),
	})

	if !a.subscriptionBus.DemoActivation() {
		return response.OK("Payment initiated, awaiting confirmation", toAppUpgradeResult(res))
	}

	return response.OK("Subscription upgraded successfully", toAppUpgradeResult(res))
}

func (a *app) cancel(ctx context.Context, r *http.Request) web.Encoder {
	var app Cancel
	if err := web.Decode(r, &app); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	actor, tenantID, appErr := resolveTenant(ctx, app.TenantID)
	if appErr != nil {
		return appErr
	}

	a, err := a.newWithTx(ctx)
	if err != nil {
		return errs.New(errs.Internal, err)
	}

	sub, err := a.subscriptionBus.QueryByTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, subscriptionbus.ErrNotFound) {
			return errs.New(errs.NotFound, subscriptionbus.ErrNotFound)
		}
		return errs.Errorf(errs.Internal, "querybytenant: tenantID[%s]: %s", tenantID, err)
	}

	sub, err = a.subscriptionBus.Cancel(ctx, actor.UserID, sub, app.Reason)
	if err != nil {
		return busError(err, "cancel: tenantID[%s]: %s", tenantID)
	}

	a.record(ctx, actor, sub, "cancelled", map[string]any{"reason": app.Reason})

	return response.OK("Subscription cancelled successfully", toAppSubscription(sub))
}

func (a *app) queryAll(ctx context.Context, r *http.Request) web.Encoder {
	qp := parseQueryParams(r)

	pg, err := page.Parse(qp.Page, qp.Limit)
	if err != nil {
		return errs.NewFieldErrors("page", err)
	}

	filter, appErr := parseFilter(qp)
	if appErr != nil {
		return appErr
	}

	orderBy, err := order.Parse(orderByFields, qp.OrderBy, subscriptionbus.DefaultOrderBy)
	if err != nil {
		return errs.NewFieldErrors("orderBy", err)
	}

	subs, err := a.subscriptionBus.Query(ctx, filter, orderBy, pg)
	if err != nil {
		return errs.Errorf(errs.Internal, "query: %s", err)
	}

	total, err := a.subscriptionBus.Count(ctx, filter)
	if err != nil {
		return errs.Errorf(errs.Internal, "count: %s", err)
	}

	return query.NewResult(toAppSubscriptions(subs), total, pg)
}

// update is the platform operator override of a tenant subscription.
func (a *app) update(ctx context.Context, r *http.Request) web.Encoder {
	var app UpdateSubscription
	if err := web.Decode(r, &app); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	us, err := toBusUpdateSubscription(app)
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	actor, err := mid.GetActor(ctx)
	if err != nil {
		return errs.New(errs.Unauthenticated, err)
	}

	tenantID, err := uuid.Parse(web.Param(r, "tenant_id"))
	if err != nil {
		return errs.NewFieldErrors("tenant_id", err)
	}

	if err := actor.CheckTenant(tenantID); err != nil {
		return errs.New(errs.PermissionDenied, err)
	}

	sub, err := a.subscriptionBus.QueryByTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, subscriptionbus.ErrNotFound) {
			return errs.New(errs.NotFound, subscriptionbus.ErrNotFound)
		}
		return errs.Errorf(errs.Internal, "querybytenant: tenantID[%s]: %s", tenantID, err)
	}

	sub, err = a.subscriptionBus.Update(ctx, actor.UserID, sub, us)
	if err != nil {
		if errors.Is(err, subscriptionbus.ErrPlanNotFound) {
			return errs.NewFieldErrors("planId", subscriptionbus.ErrPlanNotFound)
		}
		return busError(err, "update: tenantID[%s]: %s", tenantID)
	}

	a.record(ctx, actor, sub, activitybus.EventUpdated, nil)

	return response.OK("Subscription updated successfully", toAppSubscription(sub))
}

func (a *app) payments(ctx context.Context, r *http.Request) web.Encoder {
	values := r.URL.Query()

	pg, err := page.Parse(values.Get("page"), values.Get("limit"))
	if err != nil {
		return errs.NewFieldErrors("page", err)
	}

	_, tenantID, appErr := resolveTenant(ctx, values.Get("tenantId"))
	if appErr != nil {
		return appErr
	}

	filter := paymentbus.QueryFilter{TenantID: &tenantID}

	pays, err := a.paymentBus.Query(ctx, filter, pg)
	if err != nil {
		return errs.Errorf(errs.Internal, "query: %s", err)
	}

	total, err := a.paymentBus.Count(ctx, filter)
	if err != nil {
		return errs.Errorf(errs.Internal, "count: %s", err)
	}

	return query.NewResult(toAppPayments(pays), total, pg)
}

func (a *app) history(ctx context.Context, r *http.Request) web.Encoder {
	_, tenantID, appErr := resolveTenant(ctx, r.URL.Query().Get("tenantId"))
	if appErr != nil {
		return appErr
	}

	sub, err := a.subscriptionBus.QueryByTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, subscriptionbus.ErrNotFound) {
			return errs.New(errs.NotFound, subscriptionbus.ErrNotFound)
		}
		return errs.Errorf(errs.Internal, "querybytenant: tenantID[%s]: %s", tenantID, err)
	}

	trs, err := a.subscriptionBus.History(ctx, sub.ID)
	if err != nil {
		return errs.Errorf(errs.Internal, "history: subscriptionID[%s]: %s", sub.ID, err)
	}

	return response.OK("OK", toAppTransitions(trs))
}

// webhook applies a gateway notification. The raw body must carry a valid
// signature before anything is decoded.
func (a *app) webhook(ctx context.Context, r *http.Request) web.Encoder {
	if len(a.webhookSecret) == 0 {
		return errs.New(errs.FailedPrecondition, errMissingSecret)
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return errs.Errorf(errs.InvalidArgument, "request: unable to read payload: %s", err)
	}

	if !a.validSignature(body, r.Header.Get(SignatureHeader)) {
		return errs.New(errs.Unauthenticated, errBadSignature)
	}

	var evt WebhookEvent
	if err := evt.Decode(body); err != nil {
		return errs.Errorf(errs.InvalidArgument, "request: decode: %s", err)
	}

	if err := evt.Validate(); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	a, err = a.newWithTx(ctx)
	if err != nil {
		return errs.New(errs.Internal, err)
	}

	switch evt.Event {
	case EventPaymentCompleted:
		res, err := a.subscriptionBus.CompletePayment(ctx, evt.OrderID, evt.PaymentID)
		if err != nil {
			return webhookError(err, evt.OrderID)
		}

		a.record(ctx, tenancy.Actor{}, res.Subscription, "payment_completed", map[string]any{
			"orderId":       evt.OrderID,
			"invoiceNumber": res.Payment.InvoiceNumber,
		})

		return response.OK("Payment completed", toAppUpgradeResult(res))

	default:
		pay, err := a.subscriptionBus.FailPayment(ctx, evt.OrderID, evt.Reason)
		if err != nil {
			return webhookError(err, evt.OrderID)
		}

		a.log.Info(ctx, "webhook: payment failed", "orderId", evt.OrderID, "tenantID", pay.TenantID, "reason", evt.Reason)

		return response.OK("Payment failure recorded", toAppPayment(pay))
	}
}

// =============================================================================

func (a *app) validSignature(body []byte, signature string) bool {
	got, err := hex.DecodeString(signature)
	if err != nil || len(got) == 0 {
		return false
	}

	mac := hmac.New(sha256.New, a.webhookSecret)
	mac.Write(body)

	return hmac.Equal(got, mac.Sum(nil))
}

// Sign returns the signature the webhook expects for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// resolveTenant picks the tenant a billing call acts on. Platform callers
// must name one; everyone else acts on their own tenant.
func resolveTenant(ctx context.Context, requested string) (tenancy.Actor, uuid.UUID, *errs.Error) {
	actor, err := mid.GetActor(ctx)
	if err != nil {
		return tenancy.Actor{}, uuid.Nil, errs.New(errs.Unauthenticated, err)
	}

	var id uuid.UUID
	if requested != "" {
		if id, err = uuid.Parse(requested); err != nil {
			return tenancy.Actor{}, uuid.Nil, errs.NewFieldErrors("tenantId", err)
		}
	}

	tenantID, err := actor.ResolveTenant(id)
	if err != nil {
		if errors.Is(err, tenancy.ErrTenantRequired) {
			return tenancy.Actor{}, uuid.Nil, errs.NewFieldErrors("tenantId", err)
		}
		return tenancy.Actor{}, uuid.Nil, errs.New(errs.PermissionDenied, err)
	}

	return actor, tenantID, nil
}

func busError(err error, format string, id uuid.UUID) *errs.Error {
	switch {
	case errors.Is(err, subscriptionbus.ErrPlanUnavailable):
		return errs.New(errs.NotFound, subscriptionbus.ErrPlanUnavailable)
	case errors.Is(err, subscriptionbus.ErrInvalidCycle):
		return errs.NewFieldErrors("billingCycle", subscriptionbus.ErrInvalidCycle)
	case errors.Is(err, subscriptionbus.ErrInvalidTransition):
		return errs.New(errs.FailedPrecondition, subscriptionbus.ErrInvalidTransition)
	}

	return errs.Errorf(errs.Internal, format, id, err)
}

func webhookError(err error, orderID string) *errs.Error {
	switch {
	case errors.Is(err, paymentbus.ErrNotFound):
		return errs.New(errs.NotFound, paymentbus.ErrNotFound)
	case errors.Is(err, paymentbus.ErrFinalized):
		return errs.New(errs.AlreadyExists, paymentbus.ErrFinalized)
	case errors.Is(err, subscriptionbus.ErrInvalidTransition):
		return errs.New(errs.FailedPrecondition, subscriptionbus.ErrInvalidTransition)
	}

	return errs.Errorf(errs.Internal, "webhook: orderID[%s]: %s", orderID, err)
}

func (a *app) record(ctx context.Context, actor tenancy.Actor, sub subscriptionbus.Subscription, event string, metadata map[string]any) {
	if metadata == nil {
		metadata = make(map[string]any)
	}
	metadata["status"] = sub.Status.String()

	a.activityBus.Record(ctx, activitybus.NewActivity{
		Event:      activitybus.EventName(entityType, event),
		EntityType: entityType,
		EntityID:   sub.ID.String(),
		TenantID:   sub.TenantID,
		UserID:     actor.UserID,
		Metadata:   metadata,
	})
}
