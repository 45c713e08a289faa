// Package subscriptionbus provides business access to the subscription of
// a tenant, its plan catalog and its status history.
package subscriptionbus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/business/domain/paymentbus"
	"github.com/jcpaschoal/tenantcrm/business/sdk/order"
	"github.com/jcpaschoal/tenantcrm/business/sdk/page"
	"github.com/jcpaschoal/tenantcrm/business/sdk/sqldb"
	"github.com/jcpaschoal/tenantcrm/business/types/billingcycle"
	"github.com/jcpaschoal/tenantcrm/business/types/substatus"
	"github.com/jcpaschoal/tenantcrm/foundation/logger"
	"github.com/jcpaschoal/tenantcrm/foundation/otel"
)

// Trial defaults applied to a tenant without a paid plan.
const (
	TrialPlanName = "Trial"
	TrialPeriod   = 14 * 24 * time.Hour
	TrialCurrency = "INR"
)

// Set of error variables for CRUD operations.
var (
	ErrNotFound          = errors.New("subscription not found")
	ErrPlanNotFound      = errors.New("plan not found")
	ErrPlanUnavailable   = errors.New("plan not found or inactive")
	ErrInvalidCycle      = errors.New("billing cycle must be monthly or yearly")
	ErrInvalidTransition = errors.New("subscription status change not allowed")
)

// Storer interface declares the behavior this package needs to persist and
// retrieve data.
type Storer interface {
	NewWithTx(tx sqldb.CommitRollbacker) (Storer, error)
	Create(ctx context.Context, sub Subscription) error
	Update(ctx context.Context, sub Subscription) error
	DeleteByTenant(ctx context.Context, tenantID uuid.UUID) error
	Query(ctx context.Context, filter QueryFilter, orderBy order.By, page page.Page) ([]Subscription, error)
	Count(ctx context.Context, filter QueryFilter) (int, error)
	QueryByTenant(ctx context.Context, tenantID uuid.UUID) (Subscription, error)
	CreateTransition(ctx context.Context, tr Transition) error
	QueryTransitions(ctx context.Context, subscriptionID uuid.UUID) ([]Transition, error)
	QueryPlans(ctx context.Context) ([]Plan, error)
	QueryPlanByID(ctx context.Context, planID uuid.UUID) (Plan, error)
	Stats(ctx context.Context) (Stats, error)
}

// Core manages the set of APIs for subscription access.
type Core struct {
	log            *logger.Logger
	storer         Storer
	paymentBus     *paymentbus.Core
	demoActivation bool
}

// NewCore constructs a subscription core API for use. With demoActivation
// an upgrade activates at once on a self-completed payment; without it the
// upgrade waits for a confirmed gateway payment.
func NewCore(log *logger.Logger, paymentBus *paymentbus.Core, storer Storer, demoActivation bool) *Core {
	return &Core{
		log:            log,
		storer:         storer,
		paymentBus:     paymentBus,
		demoActivation: demoActivation,
	}
}

// NewWithTx constructs a new core value that will use the
// specified transaction in any store related calls.
func (c *Core) NewWithTx(tx sqldb.CommitRollbacker) (*Core, error) {
	storer, err := c.storer.NewWithTx(tx)
	if err != nil {
		return nil, err
	}

	paymentBus, err := c.paymentBus.NewWithTx(tx)
	if err != nil {
		return nil, err
	}

	return NewCore(c.log, paymentBus, storer, c.demoActivation), nil
}

// DemoActivation reports whether upgrades activate without a gateway.
func (c *Core) DemoActivation() bool {
	return c.demoActivation
}

// CreateTrial starts the trial subscription of a new tenant.
func (c *Core) CreateTrial(ctx context.Context, tenantID uuid.UUID) (Subscription, error) {
	ctx, span := otel.AddSpan(ctx, "business.subscriptionbus.createtrial")
	defer span.End()

	now := time.Now()
	trialEnd := now.Add(TrialPeriod)

	sub := Subscription{
		ID:           uuid.New(),
		TenantID:     tenantID,
		PlanName:     TrialPlanName,
		Status:       substatus.Trial,
		IsTrial:      true,
		BillingCycle: billingcycle.Monthly,
		Currency:     TrialCurrency,
		StartDate:    now,
		EndDate:      &trialEnd,
		TrialEndsAt:  &trialEnd,
		AutoRenew:    true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := c.storer.Create(ctx, sub); err != nil {
		return Subscription{}, fmt.Errorf("create: %w", err)
	}

	return sub, nil
}

// Upgrade moves the tenant to a paid plan. A payment row is always
// recorded; the subscription only changes once that payment is completed.
func (c *Core) Upgrade(ctx context.Context, actorID uuid.UUID, tenantID uuid.UUID, up Upgrade) (UpgradeResult, error) {
	ctx, span := otel.AddSpan(ctx, "business.subscriptionbus.upgrade")
	defer span.End()

	if up.BillingCycle != billingcycle.Monthly && up.BillingCycle != billingcycle.Yearly {
		return UpgradeResult{}, ErrInvalidCycle
	}

	plan, err := c.storer.QueryPlanByID(ctx, up.PlanID)
	if err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			return UpgradeResult{}, ErrPlanUnavailable
		}
		return UpgradeResult{}, fmt.Errorf("queryplanbyid: planID[%s]: %w", up.PlanID, err)
	}

	if !plan.Active {
		return UpgradeResult{}, ErrPlanUnavailable
	}

	sub, err := c.storer.QueryByTenant(ctx, tenantID)
	switch {
	case errors.Is(err, ErrNotFound):
		if sub, err = c.CreateTrial(ctx, tenantID); err != nil {
			return UpgradeResult{}, err
		}

	case err != nil:
		return UpgradeResult{}, fmt.Errorf("querybytenant: tenantID[%s]: %w", tenantID, err)
	}

	if !sub.Status.CanTransition(substatus.Active) {
		return UpgradeResult{}, ErrInvalidTransition
	}

	gateway := paymentbus.GatewayExternal
	if c.demoActivation {
		gateway = paymentbus.GatewayDemo
	}

	np := paymentbus.NewPayment{
		TenantID:       tenantID,
		SubscriptionID: sub.ID,
		PlanID:         plan.ID,
		Amount:         plan.Price(up.BillingCycle),
		Currency:       plan.Currency,
		BillingCycle:   up.BillingCycle,
		Gateway:        gateway,
		Completed:      c.demoActivation,
	}

	pay, err := c.paymentBus.Create(ctx, np)
	if err != nil {
		return UpgradeResult{}, fmt.Errorf("payment: %w", err)
	}

	if !c.demoActivation {
		return UpgradeResult{Subscription: sub, Payment: pay}, nil
	}

	sub, err = c.applyPayment(ctx, actorID, sub, plan, pay)
	if err != nil {
		return UpgradeResult{}, err
	}

	return UpgradeResult{Subscription: sub, Payment: pay}, nil
}

// CompletePayment settles a pending upgrade payment confirmed by the
// gateway and activates the subscription it was created for.
func (c *Core) CompletePayment(ctx context.Context, gatewayOrderID string, gatewayPaymentID string) (UpgradeResult, error) {
	ctx, span := otel.AddSpan(ctx, "business.subscriptionbus.completepayment")
	defer span.End()

	pay, err := c.paymentBus.QueryByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		return UpgradeResult{}, err
	}

	pay, err = c.paymentBus.Complete(ctx, pay, gatewayPaymentID)
	if err != nil {
		return UpgradeResult{}, err
	}

	plan, err := c.storer.QueryPlanByID(ctx, pay.PlanID)
	if err != nil {
		return UpgradeResult{}, fmt.Errorf("queryplanbyid: planID[%s]: %w", pay.PlanID, err)
	}

	sub, err := c.storer.QueryByTenant(ctx, pay.TenantID)
	if err != nil {
		return UpgradeResult{}, fmt.Errorf("querybytenant: tenantID[%s]: %w", pay.TenantID, err)
	}

	sub, err = c.applyPayment(ctx, uuid.Nil, sub, plan, pay)
	if err != nil {
		return UpgradeResult{}, err
	}

	return UpgradeResult{Subscription: sub, Payment: pay}, nil
}

// FailPayment records a gateway failure. The subscription is left as is.
func (c *Core) FailPayment(ctx context.Context, gatewayOrderID string, reason string) (paymentbus.Payment, error) {
	ctx, span := otel.AddSpan(ctx, "business.subscriptionbus.failpayment")
	defer span.End()

	pay, err := c.paymentBus.QueryByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		return paymentbus.Payment{}, err
	}

	return c.paymentBus.Fail(ctx, pay, reason)
}

// Cancel stops renewal. The end date is kept so access runs until the end
// of the paid period.
func (c *Core) Cancel(ctx context.Context, actorID uuid.UUID, sub Subscription, reason string) (Subscription, error) {
	ctx, span := otel.AddSpan(ctx, "business.subscriptionbus.cancel")
	defer span.End()

	if !sub.Status.CanTransition(substatus.Cancelled) {
		return Subscription{}, ErrInvalidTransition
	}

	now := time.Now()
	from := sub.Status

	sub.Status = substatus.Cancelled
	sub.AutoRenew = false
	sub.CancelledAt = &now
	sub.CancellationReason = reason
	sub.UpdatedAt = now

	if err := c.storer.Update(ctx, sub); err != nil {
		return Subscription{}, fmt.Errorf("update: %w", err)
	}

	if err := c.recordTransition(ctx, sub, from, actorID, reason); err != nil {
		return Subscription{}, err
	}

	return sub, nil
}

// SetStatus moves the subscription to the given status, as done by the
// tenant suspend and activate operations. Setting the current status is a
// no-op.
func (c *Core) SetStatus(ctx context.Context, actorID uuid.UUID, sub Subscription, to substatus.Status, reason string) (Subscription, error) {
	ctx, span := otel.AddSpan(ctx, "business.subscriptionbus.setstatus")
	defer span.End()

	if sub.Status == to {
		return sub, nil
	}

	if !sub.Status.CanTransition(to) {
		return Subscription{}, ErrInvalidTransition
	}

	from := sub.Status
	sub.Status = to
	sub.UpdatedAt = time.Now()

	if err := c.storer.Update(ctx, sub); err != nil {
		return Subscription{}, fmt.Errorf("update: %w", err)
	}

	if err := c.recordTransition(ctx, sub, from, actorID, reason); err != nil {
		return Subscription{}, err
	}

	return sub, nil
}

// Update applies a platform operator change. Only the fields of
// UpdateSubscription can change.
func (c *Core) Update(ctx context.Context, actorID uuid.UUID, sub Subscription, us UpdateSubscription) (Subscription, error) {
	ctx, span := otel.AddSpan(ctx, "business.subscriptionbus.update")
	defer span.End()

	from := sub.Status

	if us.PlanID != nil {
		plan, err := c.storer.QueryPlanByID(ctx, *us.PlanID)
		if err != nil {
			return Subscription{}, fmt.Errorf("queryplanbyid: planID[%s]: %w", *us.PlanID, err)
		}
		sub.PlanID = plan.ID
		sub.PlanName = plan.Name
	}

	if us.Status != nil && *us.Status != sub.Status {
		if !sub.Status.CanTransition(*us.Status) {
			return Subscription{}, ErrInvalidTransition
		}
		sub.Status = *us.Status
	}

	if us.BillingCycle != nil {
		sub.BillingCycle = *us.BillingCycle
	}

	if us.EndDate != nil {
		end := *us.EndDate
		sub.EndDate = &end
	}

	if us.AutoRenew != nil {
		sub.AutoRenew = *us.AutoRenew
	}

	sub.UpdatedAt = time.Now()

	if err := c.storer.Update(ctx, sub); err != nil {
		return Subscription{}, fmt.Errorf("update: %w", err)
	}

	if from != sub.Status {
		if err := c.recordTransition(ctx, sub, from, actorID, "updated by platform"); err != nil {
			return Subscription{}, err
		}
	}

	return sub, nil
}

// DeleteByTenant removes the subscription of a tenant. It is only used by
// the tenant delete cascade.
func (c *Core) DeleteByTenant(ctx context.Context, tenantID uuid.UUID) error {
	ctx, span := otel.AddSpan(ctx, "business.subscriptionbus.deletebytenant")
	defer span.End()

	if err := c.storer.DeleteByTenant(ctx, tenantID); err != nil {
		return fmt.Errorf("deletebytenant: tenantID[%s]: %w", tenantID, err)
	}

	return nil
}

// Query retrieves a list of subscriptions.
func (c *Core) Query(ctx context.Context, filter QueryFilter, orderBy order.By, page page.Page) ([]Subscription, error) {
	ctx, span := otel.AddSpan(ctx, "business.subscriptionbus.query")
	defer span.End()

	subs, err := c.storer.Query(ctx, filter, orderBy, page)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	return subs, nil
}

// Count returns the total number of subscriptions.
func (c *Core) Count(ctx context.Context, filter QueryFilter) (int, error) {
	ctx, span := otel.AddSpan(ctx, "business.subscriptionbus.count")
	defer span.End()

	return c.storer.Count(ctx, filter)
}

// QueryByTenant finds the subscription of the tenant.
func (c *Core) QueryByTenant(ctx context.Context, tenantID uuid.UUID) (Subscription, error) {
	ctx, span := otel.AddSpan(ctx, "business.subscriptionbus.querybytenant")
	defer span.End()

	sub, err := c.storer.QueryByTenant(ctx, tenantID)
	if err != nil {
		return Subscription{}, fmt.Errorf("query: tenantID[%s]: %w", tenantID, err)
	}

	return sub, nil
}

// History returns the status transitions of the subscription, newest first.
func (c *Core) History(ctx context.Context, subscriptionID uuid.UUID) ([]Transition, error) {
	ctx, span := otel.AddSpan(ctx, "business.subscriptionbus.history")
	defer span.End()

	trs, err := c.storer.QueryTransitions(ctx, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("querytransitions: %w", err)
	}

	return trs, nil
}

// Plans returns the active plans in catalog order.
func (c *Core) Plans(ctx context.Context) ([]Plan, error) {
	ctx, span := otel.AddSpan(ctx, "business.subscriptionbus.plans")
	defer span.End()

	plans, err := c.storer.QueryPlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("queryplans: %w", err)
	}

	return plans, nil
}

// Stats counts subscriptions by status and sums everything paid.
func (c *Core) Stats(ctx context.Context) (Stats, error) {
	ctx, span := otel.AddSpan(ctx, "business.subscriptionbus.stats")
	defer span.End()

	st, err := c.storer.Stats(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}

	return st, nil
}

// =============================================================================

func (c *Core) applyPayment(ctx context.Context, actorID uuid.UUID, sub Subscription, plan Plan, pay paymentbus.Payment) (Subscription, error) {
	now := time.Now()
	if pay.PaidAt != nil {
		now = *pay.PaidAt
	}

	end := pay.BillingCycle.PeriodEnd(now)
	from := sub.Status

	sub.PlanID = plan.ID
	sub.PlanName = plan.Name
	sub.Status = substatus.Active
	sub.IsTrial = false
	sub.TrialEndsAt = nil
	sub.BillingCycle = pay.BillingCycle
	sub.Amount = pay.Amount
	sub.Currency = pay.Currency
	sub.StartDate = now
	sub.EndDate = &end
	sub.RenewalDate = &end
	sub.LastPaymentDate = &now
	sub.LastPaymentAmount = pay.Amount
	sub.TotalPaid += pay.Amount
	sub.AutoRenew = true
	sub.CancelledAt = nil
	sub.CancellationReason = ""
	sub.UpdatedAt = now

	if err := c.storer.Update(ctx, sub); err != nil {
		return Subscription{}, fmt.Errorf("update: %w", err)
	}

	reason := fmt.Sprintf("payment %s for plan %s", pay.InvoiceNumber, plan.Name)
	if err := c.recordTransition(ctx, sub, from, actorID, reason); err != nil {
		return Subscription{}, err
	}

	return sub, nil
}

func (c *Core) recordTransition(ctx context.Context, sub Subscription, from substatus.Status, actorID uuid.UUID, reason string) error {
	tr := Transition{
		ID:             uuid.New(),
		SubscriptionID: sub.ID,
		From:           from,
		To:             sub.Status,
		Reason:         reason,
		ActorID:        actorID,
		CreatedAt:      time.Now(),
	}

	if err := c.storer.CreateTransition(ctx, tr); err != nil {
		return fmt.Errorf("createtransition: %w", err)
	}

	return nil
}
