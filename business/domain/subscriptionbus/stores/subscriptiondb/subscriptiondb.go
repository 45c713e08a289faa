// Package subscriptiondb contains subscription related CRUD functionality.
package subscriptiondb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/business/domain/subscriptionbus"
	"github.com/jcpaschoal/tenantcrm/business/sdk/order"
	"github.com/jcpaschoal/tenantcrm/business/sdk/page"
	"github.com/jcpaschoal/tenantcrm/business/sdk/sqldb"
	"github.com/jcpaschoal/tenantcrm/foundation/logger"
	"github.com/jmoiron/sqlx"
)

const columns = `subscription_id, tenant_id, plan_id, plan_name, status, is_trial, billing_cycle, amount,
	currency, start_date, end_date, renewal_date, trial_ends_at, last_payment_date, last_payment_amount,
	total_paid, auto_renew, cancelled_at, cancellation_reason, created_at, updated_at`

var orderByFields = map[string]string{
	subscriptionbus.OrderByCreatedAt: "created_at",
	subscriptionbus.OrderByEndDate:   "end_date",
	subscriptionbus.OrderByStatus:    "status",
	subscriptionbus.OrderByPlanName:  "plan_name",
}

// Store manages the set of APIs for subscription database access.
type Store struct {
	log *logger.Logger
	db  sqlx.ExtContext
}

// NewStore constructs the api for data access.
func NewStore(log *logger.Logger, db *sqlx.DB) *Store {
	return &Store{
		log: log,
		db:  db,
	}
}

// NewWithTx constructs a new Store value replacing the sqlx DB
// value with a sqlx DB value that is currently inside a transaction.
func (s *Store) NewWithTx(tx sqldb.CommitRollbacker) (subscriptionbus.Storer, error) {
	ec, err := sqldb.GetExtContext(tx)
	if err != nil {
		return nil, err
	}

	store := Store{
		log: s.log,
		db:  ec,
	}

	return &store, nil
}

// Create inserts a new subscription into the database.
func (s *Store) Create(ctx context.Context, sub subscriptionbus.Subscription) error {
	const q = `
	INSERT INTO subscriptions
		(subscription_id, tenant_id, plan_id, plan_name, status, is_trial, billing_cycle, amount,
		currency, start_date, end_date, renewal_date, trial_ends_at, last_payment_date, last_payment_amount,
		total_paid, auto_renew, cancelled_at, cancellation_reason, created_at, updated_at)
	VALUES
		(:subscription_id, :tenant_id, :plan_id, :plan_name, :status, :is_trial, :billing_cycle, :amount,
		:currency, :start_date, :end_date, :renewal_date, :trial_ends_at, :last_payment_date, :last_payment_amount,
		:total_paid, :auto_renew, :cancelled_at, :cancellation_reason, :created_at, :updated_at)`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, toDBSubscription(sub)); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// Update replaces a subscription row in the database.
func (s *Store) Update(ctx context.Context, sub subscriptionbus.Subscription) error {
	const q = `
	UPDATE
		subscriptions
	SET
		plan_id = :plan_id,
		plan_name = :plan_name,
		status = :status,
		is_trial = :is_trial,
		billing_cycle = :billing_cycle,
		amount = :amount,
		currency = :currency,
		start_date = :start_date,
		end_date = :end_date,
		renewal_date = :renewal_date,
		trial_ends_at = :trial_ends_at,
		last_payment_date = :last_payment_date,
		last_payment_amount = :last_payment_amount,
		total_paid = :total_paid,
		auto_renew = :auto_renew,
		cancelled_at = :cancelled_at,
		cancellation_reason = :cancellation_reason,
		updated_at = :updated_at
	WHERE
		subscription_id = :subscription_id`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, toDBSubscription(sub)); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// DeleteByTenant removes the subscription of a tenant. Its transitions go
// with it through the foreign key cascade.
func (s *Store) DeleteByTenant(ctx context.Context, tenantID uuid.UUID) error {
	data := struct {
		TenantID uuid.UUID `db:"tenant_id"`
	}{
		TenantID: tenantID,
	}

	const q = `
	DELETE FROM
		subscriptions
	WHERE
		tenant_id = :tenant_id`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, data); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// Query retrieves a list of subscriptions from the database.
func (s *Store) Query(ctx context.Context, filter subscriptionbus.QueryFilter, orderBy order.By, page page.Page) ([]subscriptionbus.Subscription, error) {
	data := map[string]any{
		"offset":        page.Offset(),
		"rows_per_page": page.RowsPerPage(),
	}

	const q = `
	SELECT
		` + columns + `
	FROM
		subscriptions`

	buf := bytes.NewBufferString(q)
	applyFilter(filter, data, buf)

	by, exists := orderByFields[orderBy.Field]
	if !exists {
		return nil, fmt.Errorf("field %q does not exist", orderBy.Field)
	}

	buf.WriteString(" ORDER BY " + by + " " + orderBy.Direction)
	buf.WriteString(" OFFSET :offset ROWS FETCH NEXT :rows_per_page ROWS ONLY")

	var dbSubs []subscriptionDB
	if err := sqldb.NamedQuerySlice(ctx, s.log, s.db, buf.String(), data, &dbSubs); err != nil {
		return nil, fmt.Errorf("namedqueryslice: %w", err)
	}

	return toBusSubscriptions(dbSubs)
}

// Count returns the number of subscriptions matching the filter.
func (s *Store) Count(ctx context.Context, filter subscriptionbus.QueryFilter) (int, error) {
	data := map[string]any{}

	buf := bytes.NewBufferString(`SELECT count(1) FROM subscriptions`)
	applyFilter(filter, data, buf)

	var count struct {
		Count int `db:"count"`
	}
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, buf.String(), data, &count); err != nil {
		return 0, fmt.Errorf("db: %w", err)
	}

	return count.Count, nil
}

// QueryByTenant gets the subscription of the tenant.
func (s *Store) QueryByTenant(ctx context.Context, tenantID uuid.UUID) (subscriptionbus.Subscription, error) {
	data := struct {
		TenantID uuid.UUID `db:"tenant_id"`
	}{
		TenantID: tenantID,
	}

	const q = `
	SELECT
		` + columns + `
	FROM
		subscriptions
	WHERE
		tenant_id = :tenant_id`

	var dbSub subscriptionDB
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &dbSub); err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return subscriptionbus.Subscription{}, fmt.Errorf("db: %w", subscriptionbus.ErrNotFound)
		}
		return subscriptionbus.Subscription{}, fmt.Errorf("db: %w", err)
	}

	return toBusSubscription(dbSub)
}

// CreateTransition appends a status change to the history.
func (s *Store) CreateTransition(ctx context.Context, tr subscriptionbus.Transition) error {
	const q = `
	INSERT INTO subscription_transitions
		(transition_id, subscription_id, from_status, to_status, reason, actor_id, created_at)
	VALUES
		(:transition_id, :subscription_id, :from_status, :to_status, :reason, :actor_id, :created_at)`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, toDBTransition(tr)); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// QueryTransitions returns the history of a subscription, newest first.
func (s *Store) QueryTransitions(ctx context.Context, subscriptionID uuid.UUID) ([]subscriptionbus.Transition, error) {
	data := struct {
		ID uuid.UUID `db:"subscription_id"`
	}{
		ID: subscriptionID,
	}

	const q = `
	SELECT
		transition_id, subscription_id, from_status, to_status, reason, actor_id, created_at
	FROM
		subscription_transitions
	WHERE
		subscription_id = :subscription_id
	ORDER BY
		created_at DESC`

	var dbTrs []transitionDB
	if err := sqldb.NamedQuerySlice(ctx, s.log, s.db, q, data, &dbTrs); err != nil {
		return nil, fmt.Errorf("namedqueryslice: %w", err)
	}

	trs := make([]subscriptionbus.Transition, len(dbTrs))
	for i, db := range dbTrs {
		tr, err := toBusTransition(db)
		if err != nil {
			return nil, err
		}
		trs[i] = tr
	}

	return trs, nil
}

// QueryPlans returns the active plans ordered for display.
func (s *Store) QueryPlans(ctx context.Context) ([]subscriptionbus.Plan, error) {
	const q = `
	SELECT
		plan_id, name, description, price_monthly, price_yearly, currency, max_users, is_active,
		sort_order, created_at, updated_at
	FROM
		subscription_plans
	WHERE
		is_active = TRUE
	ORDER BY
		sort_order, price_monthly`

	var dbPlans []planDB
	if err := sqldb.QuerySlice(ctx, s.log, s.db, q, &dbPlans); err != nil {
		return nil, fmt.Errorf("queryslice: %w", err)
	}

	plans := make([]subscriptionbus.Plan, len(dbPlans))
	for i, db := range dbPlans {
		plans[i] = toBusPlan(db)
	}

	return plans, nil
}

// QueryPlanByID gets a plan whether or not it is active.
func (s *Store) QueryPlanByID(ctx context.Context, planID uuid.UUID) (subscriptionbus.Plan, error) {
	data := struct {
		ID uuid.UUID `db:"plan_id"`
	}{
		ID: planID,
	}

	const q = `
	SELECT
		plan_id, name, description, price_monthly, price_yearly, currency, max_users, is_active,
		sort_order, created_at, updated_at
	FROM
		subscription_plans
	WHERE
		plan_id = :plan_id`

	var dbPlan planDB
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &dbPlan); err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return subscriptionbus.Plan{}, fmt.Errorf("db: %w", subscriptionbus.ErrPlanNotFound)
		}
		return subscriptionbus.Plan{}, fmt.Errorf("db: %w", err)
	}

	return toBusPlan(dbPlan), nil
}

// Stats counts subscriptions per status and sums total_paid.
func (s *Store) Stats(ctx context.Context) (subscriptionbus.Stats, error) {
	const q = `
	SELECT
		status,
		count(1) AS count,
		COALESCE(sum(total_paid), 0) AS total_paid
	FROM
		subscriptions
	GROUP BY
		status`

	var rows []struct {
		Status    string  `db:"status"`
		Count     int     `db:"count"`
		TotalPaid float64 `db:"total_paid"`
	}
	if err := sqldb.QuerySlice(ctx, s.log, s.db, q, &rows); err != nil {
		return subscriptionbus.Stats{}, fmt.Errorf("queryslice: %w", err)
	}

	st := subscriptionbus.Stats{
		ByStatus: make(map[string]int, len(rows)),
	}
	for _, r := range rows {
		st.ByStatus[r.Status] = r.Count
		st.TotalPaid += r.TotalPaid
	}

	return st, nil
}

// =============================================================================

func applyFilter(filter subscriptionbus.QueryFilter, data map[string]any, buf *bytes.Buffer) {
	var wc []string

	if filter.TenantID != nil {
		data["tenant_id"] = *filter.TenantID
		wc = append(wc, "tenant_id = :tenant_id")
	}

	if filter.Status != nil {
		data["status"] = filter.Status.String()
		wc = append(wc, "status = :status")
	}

	if filter.PlanID != nil {
		data["plan_id"] = *filter.PlanID
		wc = append(wc, "plan_id = :plan_id")
	}

	if len(wc) > 0 {
		buf.WriteString(" WHERE ")
		buf.WriteString(strings.Join(wc, " AND "))
	}
}
