package subscriptionapp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/app/sdk/errs"
	"github.com/jcpaschoal/tenantcrm/business/domain/paymentbus"
	"github.com/jcpaschoal/tenantcrm/business/domain/subscriptionbus"
	"github.com/jcpaschoal/tenantcrm/business/types/billingcycle"
	"github.com/jcpaschoal/tenantcrm/business/types/substatus"
)

// Plan represents one entry of the plan catalog.
type Plan struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description,omitempty"`
	PriceMonthly float64 `json:"priceMonthly"`
	PriceYearly  float64 `json:"priceYearly"`
	Currency     string  `json:"currency"`
	MaxUsers     int     `json:"maxUsers"`
}

func toAppPlans(plans []subscriptionbus.Plan) []Plan {
	app := make([]Plan, len(plans))
	for i, p := range plans {
		app[i] = Plan{
			ID:           p.ID.String(),
			Name:         p.Name,
			Description:  p.Description,
			PriceMonthly: p.PriceMonthly,
			PriceYearly:  p.PriceYearly,
			Currency:     p.Currency,
			MaxUsers:     p.MaxUsers,
		}
	}

	return app
}

// Subscription represents the billing state of a tenant.
type Subscription struct {
	ID                 string  `json:"id"`
	TenantID           string  `json:"tenantId"`
	PlanID             string  `json:"planId,omitempty"`
	PlanName           string  `json:"planName"`
	Status             string  `json:"status"`
	IsTrial            bool    `json:"isTrial"`
	BillingCycle       string  `json:"billingCycle"`
	Amount             float64 `json:"amount"`
	Currency           string  `json:"currency"`
	StartDate          string  `json:"startDate"`
	EndDate            string  `json:"endDate,omitempty"`
	RenewalDate        string  `json:"renewalDate,omitempty"`
	TrialEndsAt        string  `json:"trialEndsAt,omitempty"`
	LastPaymentDate    string  `json:"lastPaymentDate,omitempty"`
	LastPaymentAmount  float64 `json:"lastPaymentAmount"`
	TotalPaid          float64 `json:"totalPaid"`
	AutoRenew          bool    `json:"autoRenew"`
	CancelledAt        string  `json:"cancelledAt,omitempty"`
	CancellationReason string  `json:"cancellationReason,omitempty"`
	CreatedAt          string  `json:"createdAt"`
	UpdatedAt          string  `json:"updatedAt"`
}

func toAppSubscription(bus subscriptionbus.Subscription) Subscription {
	var planID string
	if bus.PlanID != uuid.Nil {
		planID = bus.PlanID.String()
	}

	return Subscription{
		ID:                 bus.ID.String(),
		TenantID:           bus.TenantID.String(),
		PlanID:             planID,
		PlanName:           bus.PlanName,
		Status:             bus.Status.String(),
		IsTrial:            bus.IsTrial,
		BillingCycle:       bus.BillingCycle.String(),
		Amount:             bus.Amount,
		Currency:           bus.Currency,
		StartDate:          bus.StartDate.Format(time.RFC3339),
		EndDate:            formatTime(bus.EndDate),
		RenewalDate:        formatTime(bus.RenewalDate),
		TrialEndsAt:        formatTime(bus.TrialEndsAt),
		LastPaymentDate:    formatTime(bus.LastPaymentDate),
		LastPaymentAmount:  bus.LastPaymentAmount,
		TotalPaid:          bus.TotalPaid,
		AutoRenew:          bus.AutoRenew,
		CancelledAt:        formatTime(bus.CancelledAt),
		CancellationReason: bus.CancellationReason,
		CreatedAt:          bus.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          bus.UpdatedAt.Format(time.RFC3339),
	}
}

func toAppSubscriptions(subs []subscriptionbus.Subscription) []Subscription {
	app := make([]Subscription, len(subs))
	for i, sub := range subs {
		app[i] = toAppSubscription(sub)
	}

	return app
}

// Payment represents one billing transaction.
type Payment struct {
	ID               string  `json:"id"`
	TenantID         string  `json:"tenantId"`
	PlanID           string  `json:"planId"`
	Amount           float64 `json:"amount"`
	Currency         string  `json:"currency"`
	BillingCycle     string  `json:"billingCycle"`
	PeriodStart      string  `json:"periodStart"`
	PeriodEnd        string  `json:"periodEnd"`
	Status           string  `json:"status"`
	Gateway          string  `json:"gateway"`
	GatewayOrderID   string  `json:"gatewayOrderId"`
	GatewayPaymentID string  `json:"gatewayPaymentId,omitempty"`
	InvoiceNumber    string  `json:"invoiceNumber,omitempty"`
	PaidAt           string  `json:"paidAt,omitempty"`
	FailureReason    string  `json:"failureReason,omitempty"`
	CreatedAt        string  `json:"createdAt"`
}

func toAppPayment(bus paymentbus.Payment) Payment {
	return Payment{
		ID:               bus.ID.String(),
		TenantID:         bus.TenantID.String(),
		PlanID:           bus.PlanID.String(),
		Amount:           bus.Amount,
		Currency:         bus.Currency,
		BillingCycle:     bus.BillingCycle.String(),
		PeriodStart:      bus.PeriodStart.Format(time.RFC3339),
		PeriodEnd:        bus.PeriodEnd.Format(time.RFC3339),
		Status:           bus.Status.String(),
		Gateway:          bus.Gateway,
		GatewayOrderID:   bus.GatewayOrderID,
		GatewayPaymentID: bus.GatewayPaymentID,
		InvoiceNumber:    bus.InvoiceNumber,
		PaidAt:           formatTime(bus.PaidAt),
		FailureReason:    bus.FailureReason,
		CreatedAt:        bus.CreatedAt.Format(time.RFC3339),
	}
}

func toAppPayments(pays []paymentbus.Payment) []Payment {
	app := make([]Payment, len(pays))
	for i, p := range pays {
		app[i] = toAppPayment(p)
	}

	return app
}

// Transition represents one recorded status change.
type Transition struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Reason    string `json:"reason,omitempty"`
	ActorID   string `json:"actorId,omitempty"`
	CreatedAt string `json:"createdAt"`
}

func toAppTransitions(trs []subscriptionbus.Transition) []Transition {
	app := make([]Transition, len(trs))
	for i, tr := range trs {
		var actorID string
		if tr.ActorID != uuid.Nil {
			actorID = tr.ActorID.String()
		}

		app[i] = Transition{
			From:      tr.From.String(),
			To:        tr.To.String(),
			Reason:    tr.Reason,
			ActorID:   actorID,
			CreatedAt: tr.CreatedAt.Format(time.RFC3339),
		}
	}

	return app
}

// UpgradeResult is returned by the upgrade and webhook calls.
type UpgradeResult struct {
	Subscription  Subscription `json:"subscription"`
	Payment       Payment      `json:"payment"`
	InvoiceNumber string       `json:"invoiceNumber,omitempty"`
}

func toAppUpgradeResult(bus subscriptionbus.UpgradeResult) UpgradeResult {
	return UpgradeResult{
		Subscription:  toAppSubscription(bus.Subscription),
		Payment:       toAppPayment(bus.Payment),
		InvoiceNumber: bus.Payment.InvoiceNumber,
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

// =============================================================================

// Upgrade defines the data needed to move a tenant to a paid plan.
type Upgrade struct {
	TenantID     string `json:"tenantId" validate:"omitempty,uuid"`
	PlanID       string `json:"planId" validate:"required,uuid"`
	BillingCycle string `json:"billingCycle" validate:"required,oneof=monthly yearly"`
}

// Decode implements the web.Decoder interface.
func (app *Upgrade) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app Upgrade) Validate() error {
	if err := errs.Check(app); err != nil {
		return errs.New(errs.InvalidArgument, fmt.Errorf("validate: %w", err))
	}

	return nil
}

func toBusUpgrade(app Upgrade) (subscriptionbus.Upgrade, error) {
	cycle, err := billingcycle.Parse(app.BillingCycle)
	if err != nil {
		return subscriptionbus.Upgrade{}, errs.NewFieldErrors("billingCycle", err)
	}

	bus := subscriptionbus.Upgrade{
		PlanID:       uuid.MustParse(app.PlanID),
		BillingCycle: cycle,
	}

	return bus, nil
}

// Cancel defines the data needed to cancel a subscription.
type Cancel struct {
	TenantID string `json:"tenantId" validate:"omitempty,uuid"`
	Reason   string `json:"reason"`
}

// Decode implements the web.Decoder interface.
func (app *Cancel) Decode(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app Cancel) Validate() error {
	if err := errs.Check(app); err != nil {
		return errs.New(errs.InvalidArgument, fmt.Errorf("validate: %w", err))
	}

	return nil
}

// UpdateSubscription defines the fields a platform operator may change.
type UpdateSubscription struct {
	PlanID       *string `json:"planId" validate:"omitempty,uuid"`
	Status       *string `json:"status"`
	BillingCycle *string `json:"billingCycle" validate:"omitempty,oneof=monthly yearly"`
	EndDate      *string `json:"endDate"`
	AutoRenew    *bool   `json:"autoRenew"`
}

// Decode implements the web.Decoder interface.
func (app *UpdateSubscription) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app UpdateSubscription) Validate() error {
	if err := errs.Check(app); err != nil {
		return errs.New(errs.InvalidArgument, fmt.Errorf("validate: %w", err))
	}

	return nil
}

func toBusUpdateSubscription(app UpdateSubscription) (subscriptionbus.UpdateSubscription, error) {
	var fieldErrors errs.FieldErrors

	bus := subscriptionbus.UpdateSubscription{
		AutoRenew: app.AutoRenew,
	}

	if app.PlanID != nil {
		id := uuid.MustParse(*app.PlanID)
		bus.PlanID = &id
	}

	if app.Status != nil {
		status, err := substatus.Parse(*app.Status)
		if err != nil {
			fieldErrors.Add("status", err)
		}
		bus.Status = &status
	}

	if app.BillingCycle != nil {
		cycle, err := billingcycle.Parse(*app.BillingCycle)
		if err != nil {
			fieldErrors.Add("billingCycle", err)
		}
		bus.BillingCycle = &cycle
	}

	if app.EndDate != nil {
		end, err := time.Parse(time.RFC3339, *app.EndDate)
		if err != nil {
			fieldErrors.Add("endDate", err)
		}
		bus.EndDate = &end
	}

	if fieldErrors != nil {
		return subscriptionbus.UpdateSubscription{}, fieldErrors
	}

	return bus, nil
}

// Set of gateway events the webhook accepts.
const (
	EventPaymentCompleted = "payment.completed"
	EventPaymentFailed    = "payment.failed"
)

// WebhookEvent is the payload posted by the payment gateway.
type WebhookEvent struct {
	Event     string `json:"event" validate:"required,oneof=payment.completed payment.failed"`
	OrderID   string `json:"orderId" validate:"required"`
	PaymentID string `json:"paymentId" validate:"required_if=Event payment.completed"`
	Reason    string `json:"reason"`
}

// Decode implements the web.Decoder interface.
func (app *WebhookEvent) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app WebhookEvent) Validate() error {
	if err := errs.Check(app); err != nil {
		return errs.New(errs.InvalidArgument, fmt.Errorf("validate: %w", err))
	}

	return nil
}
