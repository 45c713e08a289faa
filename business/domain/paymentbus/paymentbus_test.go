package paymentbus_test

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/business/domain/paymentbus"
	"github.com/jcpaschoal/tenantcrm/business/sdk/page"
	"github.com/jcpaschoal/tenantcrm/business/sdk/sqldb"
	"github.com/jcpaschoal/tenantcrm/business/types/billingcycle"
	"github.com/jcpaschoal/tenantcrm/business/types/paymentstatus"
)

type memStore struct {
	mu       sync.Mutex
	payments map[uuid.UUID]paymentbus.Payment
	seqs     map[string]int64
}

func newMemStore() *memStore {
	return &memStore{
		payments: make(map[uuid.UUID]paymentbus.Payment),
		seqs:     make(map[string]int64),
	}
}

func (s *memStore) NewWithTx(sqldb.CommitRollbacker) (paymentbus.Storer, error) { return s, nil }

func (s *memStore) Create(_ context.Context, p paymentbus.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments[p.ID] = p
	return nil
}

func (s *memStore) Update(_ context.Context, p paymentbus.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments[p.ID] = p
	return nil
}

func (s *memStore) NextInvoiceSequence(_ context.Context, yearMonth string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seqs[yearMonth]++
	return s.seqs[yearMonth], nil
}

func (s *memStore) Query(_ context.Context, filter paymentbus.QueryFilter, _ page.Page) ([]paymentbus.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []paymentbus.Payment
	for _, p := range s.payments {
		if filter.TenantID != nil && p.TenantID != *filter.TenantID {
			continue
		}
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *memStore) Count(ctx context.Context, filter paymentbus.QueryFilter) (int, error) {
	ps, err := s.Query(ctx, filter, page.MustParse("1", "100"))
	return len(ps), err
}

func (s *memStore) QueryByID(_ context.Context, id uuid.UUID) (paymentbus.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok {
		return paymentbus.Payment{}, paymentbus.ErrNotFound
	}
	return p, nil
}

func (s *memStore) QueryByGatewayOrderID(_ context.Context, orderID string) (paymentbus.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payments {
		if p.GatewayOrderID == orderID {
			return p, nil
		}
	}
	return paymentbus.Payment{}, paymentbus.ErrNotFound
}

// =============================================================================

var invoiceRegEx = regexp.MustCompile(`^INV-\d{6}-\d{6}$`)

func newPayment(tenantID uuid.UUID, completed bool) paymentbus.NewPayment {
	return paymentbus.NewPayment{
		TenantID:     tenantID,
		PlanID:       uuid.New(),
		Amount:       999,
		Currency:     "INR",
		BillingCycle: billingcycle.Monthly,
		Gateway:      paymentbus.GatewayDemo,
		Completed:    completed,
	}
}

func TestInvoiceNumbersIncrease(t *testing.T) {
	ctx := context.Background()
	core := paymentbus.NewCore(newMemStore())
	tenantID := uuid.New()

	p1, err := core.Create(ctx, newPayment(tenantID, true))
	if err != nil {
		t.Fatalf("create first: %s", err)
	}

	p2, err := core.Create(ctx, newPayment(tenantID, true))
	if err != nil {
		t.Fatalf("create second: %s", err)
	}

	for _, p := range []paymentbus.Payment{p1, p2} {
		if !invoiceRegEx.MatchString(p.InvoiceNumber) {
			t.Errorf("invoice %q does not match format", p.InvoiceNumber)
		}
		if p.Status != paymentstatus.Completed || p.PaidAt == nil {
			t.Errorf("payment not settled: %+v", p)
		}
	}

	// Same month prefix, zero padded sequence: lexical order is numeric order.
	if !(p1.InvoiceNumber < p2.InvoiceNumber) {
		t.Errorf("invoices not increasing: %q then %q", p1.InvoiceNumber, p2.InvoiceNumber)
	}

	if p1.GatewayOrderID == p2.GatewayOrderID {
		t.Error("gateway order ids collide")
	}
}

func TestPendingThenComplete(t *testing.T) {
	ctx := context.Background()
	core := paymentbus.NewCore(newMemStore())

	p, err := core.Create(ctx, newPayment(uuid.New(), false))
	if err != nil {
		t.Fatalf("create: %s", err)
	}

	if p.Status != paymentstatus.Pending || p.InvoiceNumber != "" {
		t.Fatalf("pending payment must not be invoiced: %+v", p)
	}

	if got := p.PeriodEnd.Sub(p.PeriodStart); got < 28*24*time.Hour || got > 31*24*time.Hour {
		t.Errorf("monthly period: got %s", got)
	}

	found, err := core.QueryByGatewayOrderID(ctx, p.GatewayOrderID)
	if err != nil {
		t.Fatalf("query by order: %s", err)
	}

	done, err := core.Complete(ctx, found, "pay_123")
	if err != nil {
		t.Fatalf("complete: %s", err)
	}

	if !invoiceRegEx.MatchString(done.InvoiceNumber) || done.GatewayPaymentID != "pay_123" {
		t.Errorf("complete: got %+v", done)
	}

	if _, err := core.Complete(ctx, done, "pay_456"); !errors.Is(err, paymentbus.ErrFinalized) {
		t.Errorf("second complete: got %v", err)
	}

	if _, err := core.Fail(ctx, done, "late"); !errors.Is(err, paymentbus.ErrFinalized) {
		t.Errorf("fail after complete: got %v", err)
	}
}

func TestFailAllocatesNoInvoice(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	core := paymentbus.NewCore(store)

	p, err := core.Create(ctx, newPayment(uuid.New(), false))
	if err != nil {
		t.Fatalf("create: %s", err)
	}

	failed, err := core.Fail(ctx, p, "card declined")
	if err != nil {
		t.Fatalf("fail: %s", err)
	}

	if failed.Status != paymentstatus.Failed || failed.InvoiceNumber != "" || failed.FailureReason != "card declined" {
		t.Errorf("fail: got %+v", failed)
	}

	if len(store.seqs) != 0 {
		t.Errorf("invoice counter touched: %v", store.seqs)
	}
}

func TestFormatInvoice(t *testing.T) {
	got := paymentbus.FormatInvoice(time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC), 42)
	if got != "INV-202603-000042" {
		t.Errorf("got %q", got)
	}
}
