// Package paymentbus provides business access to payment domain.
package paymentbus

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/business/sdk/page"
	"github.com/jcpaschoal/tenantcrm/business/sdk/sqldb"
	"github.com/jcpaschoal/tenantcrm/business/types/paymentstatus"
	"github.com/jcpaschoal/tenantcrm/foundation/otel"
)

// Set of gateways a payment can come from.
const (
	GatewayDemo     = "demo"
	GatewayExternal = "external"
)

// Set of error variables for CRUD operations.
var (
	ErrNotFound  = errors.New("payment not found")
	ErrFinalized = errors.New("payment is already finalized")
)

// Storer interface declares the behavior this package needs to persist and
// retrieve data.
type Storer interface {
	NewWithTx(tx sqldb.CommitRollbacker) (Storer, error)
	Create(ctx context.Context, p Payment) error
	Update(ctx context.Context, p Payment) error
	NextInvoiceSequence(ctx context.Context, yearMonth string) (int64, error)
	Query(ctx context.Context, filter QueryFilter, page page.Page) ([]Payment, error)
	Count(ctx context.Context, filter QueryFilter) (int, error)
	QueryByID(ctx context.Context, paymentID uuid.UUID) (Payment, error)
	QueryByGatewayOrderID(ctx context.Context, orderID string) (Payment, error)
}

// Core manages the set of APIs for payment access.
type Core struct {
	storer Storer
}

// NewCore constructs a payment core API for use.
func NewCore(storer Storer) *Core {
	return &Core{
		storer: storer,
	}
}

// NewWithTx constructs a new core value that will use the
// specified transaction in any store related calls.
func (c *Core) NewWithTx(tx sqldb.CommitRollbacker) (*Core, error) {
	storer, err := c.storer.NewWithTx(tx)
	if err != nil {
		return nil, err
	}

	return NewCore(storer), nil
}

// Create records a new payment. A pending payment only carries a gateway
// order id; a completed one is settled and invoiced immediately.
func (c *Core) Create(ctx context.Context, np NewPayment) (Payment, error) {
	ctx, span := otel.AddSpan(ctx, "business.paymentbus.create")
	defer span.End()

	orderID, err := newReference("order_")
	if err != nil {
		return Payment{}, fmt.Errorf("order reference: %w", err)
	}

	now := time.Now()

	start := np.PeriodStart
	if start.IsZero() {
		start = now
	}

	p := Payment{
		ID:             uuid.New(),
		TenantID:       np.TenantID,
		SubscriptionID: np.SubscriptionID,
		PlanID:         np.PlanID,
		Amount:         np.Amount,
		Currency:       np.Currency,
		BillingCycle:   np.BillingCycle,
		PeriodStart:    start,
		PeriodEnd:      np.BillingCycle.PeriodEnd(start),
		Status:         paymentstatus.Pending,
		Gateway:        np.Gateway,
		GatewayOrderID: orderID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if np.Completed {
		payID, err := newReference("pay_")
		if err != nil {
			return Payment{}, fmt.Errorf("payment reference: %w", err)
		}

		if err := c.settle(ctx, &p, payID, now); err != nil {
			return Payment{}, err
		}
	}

	if err := c.storer.Create(ctx, p); err != nil {
		return Payment{}, fmt.Errorf("create: %w", err)
	}

	return p, nil
}

// Complete settles a pending payment reported paid by the gateway.
func (c *Core) Complete(ctx context.Context, p Payment, gatewayPaymentID string) (Payment, error) {
	ctx, span := otel.AddSpan(ctx, "business.paymentbus.complete")
	defer span.End()

	if !isOpen(p.Status) {
		return Payment{}, ErrFinalized
	}

	now := time.Now()
	if err := c.settle(ctx, &p, gatewayPaymentID, now); err != nil {
		return Payment{}, err
	}

	if err := c.storer.Update(ctx, p); err != nil {
		return Payment{}, fmt.Errorf("update: %w", err)
	}

	return p, nil
}

// Fail marks a pending payment as failed. No invoice number is allocated.
func (c *Core) Fail(ctx context.Context, p Payment, reason string) (Payment, error) {
	ctx, span := otel.AddSpan(ctx, "business.paymentbus.fail")
	defer span.End()

	if !isOpen(p.Status) {
		return Payment{}, ErrFinalized
	}

	p.Status = paymentstatus.Failed
	p.FailureReason = reason
	p.UpdatedAt = time.Now()

	if err := c.storer.Update(ctx, p); err != nil {
		return Payment{}, fmt.Errorf("update: %w", err)
	}

	return p, nil
}

// Query retrieves a list of payments, newest first.
func (c *Core) Query(ctx context.Context, filter QueryFilter, page page.Page) ([]Payment, error) {
	ctx, span := otel.AddSpan(ctx, "business.paymentbus.query")
	defer span.End()

	payments, err := c.storer.Query(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	return payments, nil
}

// Count returns the total number of payments.
func (c *Core) Count(ctx context.Context, filter QueryFilter) (int, error) {
	ctx, span := otel.AddSpan(ctx, "business.paymentbus.count")
	defer span.End()

	return c.storer.Count(ctx, filter)
}

// QueryByID finds the payment by the specified ID.
func (c *Core) QueryByID(ctx context.Context, paymentID uuid.UUID) (Payment, error) {
	ctx, span := otel.AddSpan(ctx, "business.paymentbus.querybyid")
	defer span.End()

	p, err := c.storer.QueryByID(ctx, paymentID)
	if err != nil {
		return Payment{}, fmt.Errorf("query: paymentID[%s]: %w", paymentID, err)
	}

	return p, nil
}

// QueryByGatewayOrderID finds the payment the gateway order belongs to.
func (c *Core) QueryByGatewayOrderID(ctx context.Context, orderID string) (Payment, error) {
	ctx, span := otel.AddSpan(ctx, "business.paymentbus.querybygatewayorderid")
	defer span.End()

	p, err := c.storer.QueryByGatewayOrderID(ctx, orderID)
	if err != nil {
		return Payment{}, fmt.Errorf("query: orderID[%s]: %w", orderID, err)
	}

	return p, nil
}

// =============================================================================

// FormatInvoice renders an invoice number for the month of t.
func FormatInvoice(t time.Time, seq int64) string {
	return fmt.Sprintf("INV-%s-%06d", t.UTC().Format("200601"), seq)
}

func (c *Core) settle(ctx context.Context, p *Payment, gatewayPaymentID string, now time.Time) error {
	seq, err := c.storer.NextInvoiceSequence(ctx, now.UTC().Format("200601"))
	if err != nil {
		return fmt.Errorf("invoice sequence: %w", err)
	}

	p.Status = paymentstatus.Completed
	p.GatewayPaymentID = gatewayPaymentID
	p.InvoiceNumber = FormatInvoice(now, seq)
	p.PaidAt = &now
	p.UpdatedAt = now

	return nil
}

func isOpen(s paymentstatus.Status) bool {
	return s == paymentstatus.Pending || s == paymentstatus.Processing
}

func newReference(prefix string) (string, error) {
	b := make([]byte, 10)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return prefix + hex.EncodeToString(b), nil
}
