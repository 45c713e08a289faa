package paymentdb

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/business/domain/paymentbus"
	"github.com/jcpaschoal/tenantcrm/business/types/billingcycle"
	"github.com/jcpaschoal/tenantcrm/business/types/paymentstatus"
)

type paymentDB struct {
	ID               uuid.UUID      `db:"payment_id"`
	TenantID         uuid.UUID      `db:"tenant_id"`
	SubscriptionID   uuid.NullUUID  `db:"subscription_id"`
	PlanID           uuid.UUID      `db:"plan_id"`
	Amount           float64        `db:"amount"`
	Currency         string         `db:"currency"`
	BillingCycle     string         `db:"billing_cycle"`
	PeriodStart      time.Time      `db:"period_start"`
	PeriodEnd        time.Time      `db:"period_end"`
	Status           string         `db:"status"`
	Gateway          string         `db:"gateway"`
	GatewayOrderID   string         `db:"gateway_order_id"`
	GatewayPaymentID sql.NullString `db:"gateway_payment_id"`
	InvoiceNumber    sql.NullString `db:"invoice_number"`
	PaidAt           sql.NullTime   `db:"paid_at"`
	FailureReason    sql.NullString `db:"failure_reason"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func toDBPayment(bus paymentbus.Payment) paymentDB {
	var paidAt sql.NullTime
	if bus.PaidAt != nil {
		paidAt = sql.NullTime{Time: bus.PaidAt.UTC(), Valid: true}
	}

	return paymentDB{
		ID:               bus.ID,
		TenantID:         bus.TenantID,
		SubscriptionID:   uuid.NullUUID{UUID: bus.SubscriptionID, Valid: bus.SubscriptionID != uuid.Nil},
		PlanID:           bus.PlanID,
		Amount:           bus.Amount,
		Currency:         bus.Currency,
		BillingCycle:     bus.BillingCycle.String(),
		PeriodStart:      bus.PeriodStart.UTC(),
		PeriodEnd:        bus.PeriodEnd.UTC(),
		Status:           bus.Status.String(),
		Gateway:          bus.Gateway,
		GatewayOrderID:   bus.GatewayOrderID,
		GatewayPaymentID: nullString(bus.GatewayPaymentID),
		InvoiceNumber:    nullString(bus.InvoiceNumber),
		PaidAt:           paidAt,
		FailureReason:    nullString(bus.FailureReason),
		CreatedAt:        bus.CreatedAt.UTC(),
		UpdatedAt:        bus.UpdatedAt.UTC(),
	}
}

func toBusPayment(db paymentDB) (paymentbus.Payment, error) {
	cycle, err := billingcycle.Parse(db.BillingCycle)
	if err != nil {
		return paymentbus.Payment{}, fmt.Errorf("parse billing cycle: %w", err)
	}

	status, err := paymentstatus.Parse(db.Status)
	if err != nil {
		return paymentbus.Payment{}, fmt.Errorf("parse status: %w", err)
	}

	var paidAt *time.Time
	if db.PaidAt.Valid {
		t := db.PaidAt.Time.In(time.Local)
		paidAt = &t
	}

	bus := paymentbus.Payment{
		ID:               db.ID,
		TenantID:         db.TenantID,
		SubscriptionID:   db.SubscriptionID.UUID,
		PlanID:           db.PlanID,
		Amount:           db.Amount,
		Currency:         db.Currency,
		BillingCycle:     cycle,
		PeriodStart:      db.PeriodStart.In(time.Local),
		PeriodEnd:        db.PeriodEnd.In(time.Local),
		Status:           status,
		Gateway:          db.Gateway,
		GatewayOrderID:   db.GatewayOrderID,
		GatewayPaymentID: db.GatewayPaymentID.String,
		InvoiceNumber:    db.InvoiceNumber.String,
		PaidAt:           paidAt,
		FailureReason:    db.FailureReason.String,
		CreatedAt:        db.CreatedAt.In(time.Local),
		UpdatedAt:        db.UpdatedAt.In(time.Local),
	}

	return bus, nil
}

func toBusPayments(dbs []paymentDB) ([]paymentbus.Payment, error) {
	bus := make([]paymentbus.Payment, len(dbs))

	for i, db := range dbs {
		var err error
		bus[i], err = toBusPayment(db)
		if err != nil {
			return nil, err
		}
	}

	return bus, nil
}
