// Package paymentdb contains payment related CRUD functionality.
package paymentdb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/business/domain/paymentbus"
	"github.com/jcpaschoal/tenantcrm/business/sdk/page"
	"github.com/jcpaschoal/tenantcrm/business/sdk/sqldb"
	"github.com/jcpaschoal/tenantcrm/foundation/logger"
	"github.com/jmoiron/sqlx"
)

const columns = `payment_id, tenant_id, subscription_id, plan_id, amount, currency, billing_cycle,
	period_start, period_end, status, gateway, gateway_order_id, gateway_payment_id, invoice_number,
	paid_at, failure_reason, created_at, updated_at`

// Store manages the set of APIs for payment database access.
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
func (s *Store) NewWithTx(tx sqldb.CommitRollbacker) (paymentbus.Storer, error) {
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

// Create inserts a new payment into the database.
func (s *Store) Create(ctx context.Context, p paymentbus.Payment) error {
	const q = `
	INSERT INTO payments
		(payment_id, tenant_id, subscription_id, plan_id, amount, currency, billing_cycle,
		period_start, period_end, status, gateway, gateway_order_id, gateway_payment_id, invoice_number,
		paid_at, failure_reason, created_at, updated_at)
	VALUES
		(:payment_id, :tenant_id, :subscription_id, :plan_id, :amount, :currency, :billing_cycle,
		:period_start, :period_end, :status, :gateway, :gateway_order_id, :gateway_payment_id, :invoice_number,
		:paid_at, :failure_reason, :created_at, :updated_at)`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, toDBPayment(p)); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// Update writes the settlement fields of a payment.
func (s *Store) Update(ctx context.Context, p paymentbus.Payment) error {
	const q = `
	UPDATE
		payments
	SET
		status = :status,
		gateway_payment_id = :gateway_payment_id,
		invoice_number = :invoice_number,
		paid_at = :paid_at,
		failure_reason = :failure_reason,
		updated_at = :updated_at
	WHERE
		payment_id = :payment_id`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, toDBPayment(p)); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// NextInvoiceSequence atomically increments and returns the invoice counter
// of the month. Two callers never receive the same value.
func (s *Store) NextInvoiceSequence(ctx context.Context, yearMonth string) (int64, error) {
	data := struct {
		YearMonth string `db:"year_month"`
	}{
		YearMonth: yearMonth,
	}

	const q = `
	INSERT INTO invoice_sequences
		(year_month, last_value)
	VALUES
		(:year_month, 1)
	ON CONFLICT (year_month) DO UPDATE SET
		last_value = invoice_sequences.last_value + 1
	RETURNING
		last_value`

	var seq struct {
		LastValue int64 `db:"last_value"`
	}
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &seq); err != nil {
		return 0, fmt.Errorf("db: %w", err)
	}

	return seq.LastValue, nil
}

// Query retrieves a page of payments, newest first.
func (s *Store) Query(ctx context.Context, filter paymentbus.QueryFilter, page page.Page) ([]paymentbus.Payment, error) {
	data := map[string]any{
		"offset":        page.Offset(),
		"rows_per_page": page.RowsPerPage(),
	}

	const q = `
	SELECT
		` + columns + `
	FROM
		payments`

	buf := bytes.NewBufferString(q)
	applyFilter(filter, data, buf)
	buf.WriteString(" ORDER BY created_at DESC OFFSET :offset ROWS FETCH NEXT :rows_per_page ROWS ONLY")

	var dbPays []paymentDB
	if err := sqldb.NamedQuerySlice(ctx, s.log, s.db, buf.String(), data, &dbPays); err != nil {
		return nil, fmt.Errorf("namedqueryslice: %w", err)
	}

	return toBusPayments(dbPays)
}

// Count returns the number of payments matching the filter.
func (s *Store) Count(ctx context.Context, filter paymentbus.QueryFilter) (int, error) {
	data := map[string]any{}

	buf := bytes.NewBufferString(`SELECT count(1) FROM payments`)
	applyFilter(filter, data, buf)

	var count struct {
		Count int `db:"count"`
	}
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, buf.String(), data, &count); err != nil {
		return 0, fmt.Errorf("db: %w", err)
	}

	return count.Count, nil
}

// QueryByID gets the specified payment from the database.
func (s *Store) QueryByID(ctx context.Context, paymentID uuid.UUID) (paymentbus.Payment, error) {
	data := struct {
		ID uuid.UUID `db:"payment_id"`
	}{
		ID: paymentID,
	}

	const q = `
	SELECT
		` + columns + `
	FROM
		payments
	WHERE
		payment_id = :payment_id`

	return s.queryOne(ctx, q, data)
}

// QueryByGatewayOrderID gets the payment created for the gateway order.
func (s *Store) QueryByGatewayOrderID(ctx context.Context, orderID string) (paymentbus.Payment, error) {
	data := struct {
		OrderID string `db:"gateway_order_id"`
	}{
		OrderID: orderID,
	}

	const q = `
	SELECT
		` + columns + `
	FROM
		payments
	WHERE
		gateway_order_id = :gateway_order_id`

	return s.queryOne(ctx, q, data)
}

func (s *Store) queryOne(ctx context.Context, q string, data any) (paymentbus.Payment, error) {
	var dbPay paymentDB
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &dbPay); err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return paymentbus.Payment{}, fmt.Errorf("db: %w", paymentbus.ErrNotFound)
		}
		return paymentbus.Payment{}, fmt.Errorf("db: %w", err)
	}

	return toBusPayment(dbPay)
}

func applyFilter(filter paymentbus.QueryFilter, data map[string]any, buf *bytes.Buffer) {
	var wc []string

	if filter.TenantID != nil {
		data["tenant_id"] = *filter.TenantID
		wc = append(wc, "tenant_id = :tenant_id")
	}

	if filter.Status != nil {
		data["status"] = filter.Status.String()
		wc = append(wc, "status = :status")
	}

	if len(wc) > 0 {
		buf.WriteString(" WHERE ")
		buf.WriteString(strings.Join(wc, " AND "))
	}
}
