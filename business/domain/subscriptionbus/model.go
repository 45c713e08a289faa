package subscriptionbus

import (
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/business/domain/paymentbus"
	"github.com/jcpaschoal/tenantcrm/business/sdk/order"
	"github.com/jcpaschoal/tenantcrm/business/types/billingcycle"
	"github.com/jcpaschoal/tenantcrm/business/types/substatus"
)

// Plan is a catalog entry a tenant can subscribe to.
type Plan struct {
	ID           uuid.UUID
	Name         string
	Description  string
	PriceMonthly float64
	PriceYearly  float64
	Currency     string
	MaxUsers     int
	Active       bool
	SortOrder    int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Price returns the plan price for the billing cycle.
func (p Plan) Price(cycle billingcycle.Cycle) float64 {
	if cycle == billingcycle.Yearly {
		return p.PriceYearly
	}

	return p.PriceMonthly
}

// Subscription is the billing state of one tenant.
type Subscription struct {
	ID                 uuid.UUID
	TenantID           uuid.UUID
	PlanID             uuid.UUID
	PlanName           string
	Status             substatus.Status
	IsTrial            bool
	BillingCycle       billingcycle.Cycle
	Amount             float64
	Currency           string
	StartDate          time.Time
	EndDate            *time.Time
	RenewalDate        *time.Time
	TrialEndsAt        *time.Time
	LastPaymentDate    *time.Time
	LastPaymentAmount  float64
	TotalPaid          float64
	AutoRenew          bool
	CancelledAt        *time.Time
	CancellationReason string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Transition records one status change of a subscription.
type Transition struct {
	ID             uuid.UUID
	SubscriptionID uuid.UUID
	From           substatus.Status
	To             substatus.Status
	Reason         string
	ActorID        uuid.UUID
	CreatedAt      time.Time
}

// Upgrade names the plan and cycle a tenant moves to.
type Upgrade struct {
	PlanID       uuid.UUID
	BillingCycle billingcycle.Cycle
}

// UpgradeResult is the outcome of an upgrade request. With demo activation
// the subscription is already active and the payment completed; otherwise
// the payment is pending until the gateway confirms it.
type UpgradeResult struct {
	Subscription Subscription
	Payment      paymentbus.Payment
}

// UpdateSubscription contains the fields a platform operator may change.
type UpdateSubscription struct {
	PlanID       *uuid.UUID
	Status       *substatus.Status
	BillingCycle *billingcycle.Cycle
	EndDate      *time.Time
	AutoRenew    *bool
}

// Stats summarizes subscriptions across tenants.
type Stats struct {
	ByStatus  map[string]int
	TotalPaid float64
}

// QueryFilter holds the available fields a query can be filtered on.
type QueryFilter struct {
	TenantID *uuid.UUID
	Status   *substatus.Status
	PlanID   *uuid.UUID
}

// DefaultOrderBy represents the default way we sort.
var DefaultOrderBy = order.NewBy(OrderByCreatedAt, order.DESC)

// Set of fields that the results can be ordered by.
const (
	OrderByCreatedAt = "a"
	OrderByEndDate   = "b"
	OrderByStatus    = "c"
	OrderByPlanName  = "d"
)
