package subscriptiondb

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/business/domain/subscriptionbus"
	"github.com/jcpaschoal/tenantcrm/business/types/billingcycle"
	"github.com/jcpaschoal/tenantcrm/business/types/substatus"
)

type subscriptionDB struct {
	ID                 uuid.UUID       `db:"subscription_id"`
	TenantID           uuid.UUID       `db:"tenant_id"`
	PlanID             uuid.NullUUID   `db:"plan_id"`
	PlanName           string          `db:"plan_name"`
	Status             string          `db:"status"`
	IsTrial            bool            `db:"is_trial"`
	BillingCycle       string          `db:"billing_cycle"`
	Amount             float64         `db:"amount"`
	Currency           string          `db:"currency"`
	StartDate          time.Time       `db:"start_date"`
	EndDate            sql.NullTime    `db:"end_date"`
	RenewalDate        sql.NullTime    `db:"renewal_date"`
	TrialEndsAt        sql.NullTime    `db:"trial_ends_at"`
	LastPaymentDate    sql.NullTime    `db:"last_payment_date"`
	LastPaymentAmount  sql.NullFloat64 `db:"last_payment_amount"`
	TotalPaid          float64         `db:"total_paid"`
	AutoRenew          bool            `db:"auto_renew"`
	CancelledAt        sql.NullTime    `db:"cancelled_at"`
	CancellationReason sql.NullString  `db:"cancellation_reason"`
	CreatedAt          time.Time       `db:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at"`
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.In(time.Local)
	return &v
}

func toDBSubscription(bus subscriptionbus.Subscription) subscriptionDB {
	return subscriptionDB{
		ID:                 bus.ID,
		TenantID:           bus.TenantID,
		PlanID:             uuid.NullUUID{UUID: bus.PlanID, Valid: bus.PlanID != uuid.Nil},
		PlanName:           bus.PlanName,
		Status:             bus.Status.String(),
		IsTrial:            bus.IsTrial,
		BillingCycle:       bus.BillingCycle.String(),
		Amount:             bus.Amount,
		Currency:           bus.Currency,
		StartDate:          bus.StartDate.UTC(),
		EndDate:            nullTime(bus.EndDate),
		RenewalDate:        nullTime(bus.RenewalDate),
		TrialEndsAt:        nullTime(bus.TrialEndsAt),
		LastPaymentDate:    nullTime(bus.LastPaymentDate),
		LastPaymentAmount:  sql.NullFloat64{Float64: bus.LastPaymentAmount, Valid: bus.LastPaymentDate != nil},
		TotalPaid:          bus.TotalPaid,
		AutoRenew:          bus.AutoRenew,
		CancelledAt:        nullTime(bus.CancelledAt),
		CancellationReason: sql.NullString{String: bus.CancellationReason, Valid: bus.CancellationReason != ""},
		CreatedAt:          bus.CreatedAt.UTC(),
		UpdatedAt:          bus.UpdatedAt.UTC(),
	}
}

func toBusSubscription(db subscriptionDB) (subscriptionbus.Subscription, error) {
	status, err := substatus.Parse(db.Status)
	if err != nil {
		return subscriptionbus.Subscription{}, fmt.Errorf("parse status: %w", err)
	}

	cycle, err := billingcycle.Parse(db.BillingCycle)
	if err != nil {
		return subscriptionbus.Subscription{}, fmt.Errorf("parse billing cycle: %w", err)
	}

	bus := subscriptionbus.Subscription{
		ID:                 db.ID,
		TenantID:           db.TenantID,
		PlanID:             db.PlanID.UUID,
		PlanName:           db.PlanName,
		Status:             status,
		IsTrial:            db.IsTrial,
		BillingCycle:       cycle,
		Amount:             db.Amount,
		Currency:           db.Currency,
		StartDate:          db.StartDate.In(time.Local),
		EndDate:            timePtr(db.EndDate),
		RenewalDate:        timePtr(db.RenewalDate),
		TrialEndsAt:        timePtr(db.TrialEndsAt),
		LastPaymentDate:    timePtr(db.LastPaymentDate),
		LastPaymentAmount:  db.LastPaymentAmount.Float64,
		TotalPaid:          db.TotalPaid,
		AutoRenew:          db.AutoRenew,
		CancelledAt:        timePtr(db.CancelledAt),
		CancellationReason: db.CancellationReason.String,
		CreatedAt:          db.CreatedAt.In(time.Local),
		UpdatedAt:          db.UpdatedAt.In(time.Local),
	}

	return bus, nil
}

func toBusSubscriptions(dbs []subscriptionDB) ([]subscriptionbus.Subscription, error) {
	bus := make([]subscriptionbus.Subscription, len(dbs))

	for i, db := range dbs {
		var err error
		bus[i], err = toBusSubscription(db)
		if err != nil {
			return nil, err
		}
	}

	return bus, nil
}

// =============================================================================

type transitionDB struct {
	ID             uuid.UUID      `db:"transition_id"`
	SubscriptionID uuid.UUID      `db:"subscription_id"`
	FromStatus     string         `db:"from_status"`
	ToStatus       string         `db:"to_status"`
	Reason         sql.NullString `db:"reason"`
	ActorID        uuid.NullUUID  `db:"actor_id"`
	CreatedAt      time.Time      `db:"created_at"`
}

func toDBTransition(bus subscriptionbus.Transition) transitionDB {
	return transitionDB{
		ID:             bus.ID,
		SubscriptionID: bus.SubscriptionID,
		FromStatus:     bus.From.String(),
		ToStatus:       bus.To.String(),
		Reason:         sql.NullString{String: bus.Reason, Valid: bus.Reason != ""},
		ActorID:        uuid.NullUUID{UUID: bus.ActorID, Valid: bus.ActorID != uuid.Nil},
		CreatedAt:      bus.CreatedAt.UTC(),
	}
}

func toBusTransition(db transitionDB) (subscriptionbus.Transition, error) {
	from, err := substatus.Parse(db.FromStatus)
	if err != nil {
		return subscriptionbus.Transition{}, fmt.Errorf("parse from status: %w", err)
	}

	to, err := substatus.Parse(db.ToStatus)
	if err != nil {
		return subscriptionbus.Transition{}, fmt.Errorf("parse to status: %w", err)
	}

	tr := subscriptionbus.Transition{
		ID:             db.ID,
		SubscriptionID: db.SubscriptionID,
		From:           from,
		To:             to,
		Reason:         db.Reason.String,
		ActorID:        db.ActorID.UUID,
		CreatedAt:      db.CreatedAt.In(time.Local),
	}

	return tr, nil
}

// =============================================================================

type planDB struct {
	ID           uuid.UUID      `db:"plan_id"`
	Name         string         `db:"name"`
	Description  sql.NullString `db:"description"`
	PriceMonthly float64        `db:"price_monthly"`
	PriceYearly  float64        `db:"price_yearly"`
	Currency     string         `db:"currency"`
	MaxUsers     int            `db:"max_users"`
	Active       bool           `db:"is_active"`
	SortOrder    int            `db:"sort_order"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func toBusPlan(db planDB) subscriptionbus.Plan {
	return subscriptionbus.Plan{
		ID:           db.ID,
		Name:         db.Name,
		Description:  db.Description.String,
		PriceMonthly: db.PriceMonthly,
		PriceYearly:  db.PriceYearly,
		Currency:     db.Currency,
		MaxUsers:     db.MaxUsers,
		Active:       db.Active,
		SortOrder:    db.SortOrder,
		CreatedAt:    db.CreatedAt.In(time.Local),
		UpdatedAt:    db.UpdatedAt.In(time.Local),
	}
}
