package paymentbus

import (
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/business/types/billingcycle"
	"github.com/jcpaschoal/tenantcrm/business/types/paymentstatus"
)

// Payment is one billing transaction of a tenant.
type Payment struct {
	ID               uuid.UUID
	TenantID         uuid.UUID
	SubscriptionID   uuid.UUID
	PlanID           uuid.UUID
	Amount           float64
	Currency         string
	BillingCycle     billingcycle.Cycle
	PeriodStart      time.Time
	PeriodEnd        time.Time
	Status           paymentstatus.Status
	Gateway          string
	GatewayOrderID   string
	GatewayPaymentID string
	InvoiceNumber    string
	PaidAt           *time.Time
	FailureReason    string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewPayment contains information needed to record a payment. A Completed
// payment is settled on creation and receives its invoice number at once.
type NewPayment struct {
	TenantID       uuid.UUID
	SubscriptionID uuid.UUID
	PlanID         uuid.UUID
	Amount         float64
	Currency       string
	BillingCycle   billingcycle.Cycle
	PeriodStart    time.Time
	Gateway        string
	Completed      bool
}

// QueryFilter holds the available fields a query can be filtered on.
type QueryFilter struct {
	TenantID *uuid.UUID
	Status   *paymentstatus.Status
}
