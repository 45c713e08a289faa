package subscriptionbus_test

import (
	"context"
	"errors"
	"io"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/business/domain/paymentbus"
	"github.com/jcpaschoal/tenantcrm/business/domain/subscriptionbus"
	"github.com/jcpaschoal/tenantcrm/business/sdk/order"
	"github.com/jcpaschoal/tenantcrm/business/sdk/page"
	"github.com/jcpaschoal/tenantcrm/business/sdk/sqldb"
	"github.com/jcpaschoal/tenantcrm/business/types/billingcycle"
	"github.com/jcpaschoal/tenantcrm/business/types/paymentstatus"
	"github.com/jcpaschoal/tenantcrm/business/types/substatus"
	"github.com/jcpaschoal/tenantcrm/foundation/logger"
)

type subStore struct {
	mu          sync.Mutex
	subs        map[uuid.UUID]subscriptionbus.Subscription
	transitions []subscriptionbus.Transition
	plans       map[uuid.UUID]subscriptionbus.Plan
}

func (s *subStore) NewWithTx(sqldb.CommitRollbacker) (subscriptionbus.Storer, error) { return s, nil }

func (s *subStore) Create(_ context.Context, sub subscriptionbus.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[sub.TenantID] = sub
	return nil
}

func (s *subStore) Update(_ context.Context, sub subscriptionbus.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[sub.TenantID] = sub
	return nil
}

func (s *subStore) DeleteByTenant(_ context.Context, tenantID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, tenantID)
	return nil
}

func (s *subStore) Query(_ context.Context, _ subscriptionbus.QueryFilter, _ order.By, _ page.Page) ([]subscriptionbus.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []subscriptionbus.Subscription
	for _, sub := range s.subs {
		out = append(out, sub)
	}
	return out, nil
}

func (s *subStore) Count(_ context.Context, _ subscriptionbus.QueryFilter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs), nil
}

func (s *subStore) QueryByTenant(_ context.Context, tenantID uuid.UUID) (subscriptionbus.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[tenantID]
	if !ok {
		return subscriptionbus.Subscription{}, subscriptionbus.ErrNotFound
	}
	return sub, nil
}

func (s *subStore) CreateTransition(_ context.Context, tr subscriptionbus.Transition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transitions = append(s.transitions, tr)
	return nil
}

func (s *subStore) QueryTransitions(_ context.Context, subscriptionID uuid.UUID) ([]subscriptionbus.Transition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []subscriptionbus.Transition
	for i := len(s.transitions) - 1; i >= 0; i-- {
		if s.transitions[i].SubscriptionID == subscriptionID {
			out = append(out, s.transitions[i])
		}
	}
	return out, nil
}

func (s *subStore) QueryPlans(_ context.Context) ([]subscriptionbus.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []subscriptionbus.Plan
	for _, p := range s.plans {
		if p.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *subStore) QueryPlanByID(_ context.Context, planID uuid.UUID) (subscriptionbus.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plans[planID]
	if !ok {
		return subscriptionbus.Plan{}, subscriptionbus.ErrPlanNotFound
	}
	return p, nil
}

func (s *subStore) Stats(_ context.Context) (subscriptionbus.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := subscriptionbus.Stats{ByStatus: make(map[string]int)}
	for _, sub := range s.subs {
		st.ByStatus[sub.Status.String()]++
		st.TotalPaid += sub.TotalPaid
	}
	return st, nil
}

type payStore struct {
	mu       sync.Mutex
	payments map[uuid.UUID]paymentbus.Payment
	seq      int64
}

func (s *payStore) NewWithTx(sqldb.CommitRollbacker) (paymentbus.Storer, error) { return s, nil }

func (s *payStore) Create(_ context.Context, p paymentbus.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments[p.ID] = p
	return nil
}

func (s *payStore) Update(ctx context.Context, p paymentbus.Payment) error {
	return s.Create(ctx, p)
}

func (s *payStore) NextInvoiceSequence(_ context.Context, _ string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq, nil
}

func (s *payStore) Query(_ context.Context, filter paymentbus.QueryFilter, _ page.Page) ([]paymentbus.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []paymentbus.Payment
	for _, p := range s.payments {
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *payStore) Count(ctx context.Context, filter paymentbus.QueryFilter) (int, error) {
	ps, err := s.Query(ctx, filter, page.MustParse("1", "100"))
	return len(ps), err
}

func (s *payStore) QueryByID(_ context.Context, id uuid.UUID) (paymentbus.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok {
		return paymentbus.Payment{}, paymentbus.ErrNotFound
	}
	return p, nil
}

func (s *payStore) QueryByGatewayOrderID(_ context.Context, orderID string) (paymentbus.Payment, error) {
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

type fixture struct {
	core     *subscriptionbus.Core
	subs     *subStore
	pays     *payStore
	payBus   *paymentbus.Core
	plan     subscriptionbus.Plan
	retired  subscriptionbus.Plan
	tenantID uuid.UUID
}

func newFixture(t *testing.T, demo bool) fixture {
	t.Helper()

	plan := subscriptionbus.Plan{ID: uuid.New(), Name: "Professional", PriceMonthly: 999, PriceYearly: 9990, Currency: "INR", Active: true}
	retired := subscriptionbus.Plan{ID: uuid.New(), Name: "Legacy", PriceMonthly: 99, PriceYearly: 990, Currency: "INR"}

	subs := &subStore{
		subs:  make(map[uuid.UUID]subscriptionbus.Subscription),
		plans: map[uuid.UUID]subscriptionbus.Plan{plan.ID: plan, retired.ID: retired},
	}
	pays := &payStore{payments: make(map[uuid.UUID]paymentbus.Payment)}
	payBus := paymentbus.NewCore(pays)

	log := logger.New(io.Discard, logger.LevelError, "TEST", nil)

	f := fixture{
		core:     subscriptionbus.NewCore(log, payBus, subs, demo),
		subs:     subs,
		pays:     pays,
		payBus:   payBus,
		plan:     plan,
		retired:  retired,
		tenantID: uuid.New(),
	}

	if _, err := f.core.CreateTrial(context.Background(), f.tenantID); err != nil {
		t.Fatalf("create trial: %s", err)
	}

	return f
}

func completedPayments(t *testing.T, f fixture) []paymentbus.Payment {
	t.Helper()
	completed := paymentstatus.Completed
	ps, err := f.payBus.Query(context.Background(), paymentbus.QueryFilter{Status: &completed}, page.MustParse("1", "100"))
	if err != nil {
		t.Fatalf("query payments: %s", err)
	}
	return ps
}

func TestUpgradeDemoActivation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	before, err := f.core.QueryByTenant(ctx, f.tenantID)
	if err != nil {
		t.Fatalf("query: %s", err)
	}

	res, err := f.core.Upgrade(ctx, uuid.New(), f.tenantID, subscriptionbus.Upgrade{PlanID: f.plan.ID, BillingCycle: billingcycle.Monthly})
	if err != nil {
		t.Fatalf("upgrade: %s", err)
	}

	sub := res.Subscription

	if sub.Amount != 999 {
		t.Errorf("amount: got %v", sub.Amount)
	}
	if sub.Status != substatus.Active || sub.IsTrial {
		t.Errorf("status: got %s trial=%t", sub.Status, sub.IsTrial)
	}
	if sub.EndDate == nil || !sub.EndDate.Equal(sub.StartDate.AddDate(0, 1, 0)) {
		t.Errorf("end date: start %s end %v", sub.StartDate, sub.EndDate)
	}
	if got := sub.TotalPaid - before.TotalPaid; got != 999 {
		t.Errorf("total paid delta: got %v", got)
	}
	if sub.PlanName != f.plan.Name {
		t.Errorf("plan name: got %q", sub.PlanName)
	}

	ps := completedPayments(t, f)
	if len(ps) != 1 {
		t.Fatalf("completed payments: got %d", len(ps))
	}
	if !invoiceRegEx.MatchString(ps[0].InvoiceNumber) {
		t.Errorf("invoice: got %q", ps[0].InvoiceNumber)
	}
	if res.Payment.InvoiceNumber != ps[0].InvoiceNumber {
		t.Errorf("returned invoice %q, stored %q", res.Payment.InvoiceNumber, ps[0].InvoiceNumber)
	}

	history, err := f.core.History(ctx, sub.ID)
	if err != nil {
		t.Fatalf("history: %s", err)
	}
	if len(history) != 1 || history[0].From != substatus.Trial || history[0].To != substatus.Active {
		t.Errorf("history: got %+v", history)
	}

	// A second upgrade accumulates the total.
	res, err = f.core.Upgrade(ctx, uuid.New(), f.tenantID, subscriptionbus.Upgrade{PlanID: f.plan.ID, BillingCycle: billingcycle.Yearly})
	if err != nil {
		t.Fatalf("second upgrade: %s", err)
	}
	if res.Subscription.TotalPaid != 999+9990 {
		t.Errorf("cumulative total: got %v", res.Subscription.TotalPaid)
	}
	if !res.Subscription.EndDate.Equal(res.Subscription.StartDate.AddDate(1, 0, 0)) {
		t.Errorf("yearly end date: %v", res.Subscription.EndDate)
	}
}

func TestUpgradeRejects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	tests := []struct {
		name string
		up   subscriptionbus.Upgrade
		want error
	}{
		{"zero cycle", subscriptionbus.Upgrade{PlanID: f.plan.ID}, subscriptionbus.ErrInvalidCycle},
		{"missing plan", subscriptionbus.Upgrade{PlanID: uuid.New(), BillingCycle: billingcycle.Monthly}, subscriptionbus.ErrPlanUnavailable},
		{"inactive plan", subscriptionbus.Upgrade{PlanID: f.retired.ID, BillingCycle: billingcycle.Monthly}, subscriptionbus.ErrPlanUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.core.Upgrade(ctx, uuid.New(), f.tenantID, tt.up); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}

	if n := len(completedPayments(t, f)); n != 0 {
		t.Errorf("rejected upgrades created %d payments", n)
	}
}

func TestUpgradeAwaitsGateway(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	res, err := f.core.Upgrade(ctx, uuid.New(), f.tenantID, subscriptionbus.Upgrade{PlanID: f.plan.ID, BillingCycle: billingcycle.Monthly})
	if err != nil {
		t.Fatalf("upgrade: %s", err)
	}

	if res.Payment.Status != paymentstatus.Pending || res.Payment.InvoiceNumber != "" {
		t.Fatalf("payment must be pending: %+v", res.Payment)
	}
	if res.Subscription.Status != substatus.Trial {
		t.Fatalf("subscription activated without payment: %s", res.Subscription.Status)
	}

	done, err := f.core.CompletePayment(ctx, res.Payment.GatewayOrderID, "pay_abc")
	if err != nil {
		t.Fatalf("complete: %s", err)
	}

	if done.Subscription.Status != substatus.Active || done.Subscription.TotalPaid != 999 {
		t.Errorf("after complete: %+v", done.Subscription)
	}
	if !invoiceRegEx.MatchString(done.Payment.InvoiceNumber) {
		t.Errorf("invoice: got %q", done.Payment.InvoiceNumber)
	}

	if _, err := f.core.CompletePayment(ctx, res.Payment.GatewayOrderID, "pay_abc"); !errors.Is(err, paymentbus.ErrFinalized) {
		t.Errorf("replayed webhook: got %v", err)
	}
}

func TestCancelKeepsEndDate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	res, err := f.core.Upgrade(ctx, uuid.New(), f.tenantID, subscriptionbus.Upgrade{PlanID: f.plan.ID, BillingCycle: billingcycle.Monthly})
	if err != nil {
		t.Fatalf("upgrade: %s", err)
	}

	sub, err := f.core.Cancel(ctx, uuid.New(), res.Subscription, "too expensive")
	if err != nil {
		t.Fatalf("cancel: %s", err)
	}

	if sub.Status != substatus.Cancelled || sub.AutoRenew || sub.CancelledAt == nil || sub.CancellationReason != "too expensive" {
		t.Errorf("cancel: got %+v", sub)
	}
	if !sub.EndDate.Equal(*res.Subscription.EndDate) {
		t.Errorf("end date moved: %v -> %v", res.Subscription.EndDate, sub.EndDate)
	}

	if _, err := f.core.Cancel(ctx, uuid.New(), sub, ""); !errors.Is(err, subscriptionbus.ErrInvalidTransition) {
		t.Errorf("second cancel: got %v", err)
	}
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	sub, err := f.core.QueryByTenant(ctx, f.tenantID)
	if err != nil {
		t.Fatalf("query: %s", err)
	}

	sub, err = f.core.SetStatus(ctx, uuid.New(), sub, substatus.Suspended, "abuse")
	if err != nil {
		t.Fatalf("suspend: %s", err)
	}

	if _, err := f.core.SetStatus(ctx, uuid.New(), sub, substatus.Expired, ""); !errors.Is(err, subscriptionbus.ErrInvalidTransition) {
		t.Errorf("suspended -> expired: got %v", err)
	}

	sub, err = f.core.SetStatus(ctx, uuid.New(), sub, substatus.Active, "resolved")
	if err != nil {
		t.Fatalf("activate: %s", err)
	}

	history, err := f.core.History(ctx, sub.ID)
	if err != nil {
		t.Fatalf("history: %s", err)
	}
	if len(history) != 2 || history[0].To != substatus.Active || history[1].To != substatus.Suspended {
		t.Errorf("history: got %+v", history)
	}
}

func TestUpdateAllowList(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	sub, err := f.core.QueryByTenant(ctx, f.tenantID)
	if err != nil {
		t.Fatalf("query: %s", err)
	}

	end := time.Now().Add(90 * 24 * time.Hour)
	renew := false
	got, err := f.core.Update(ctx, uuid.New(), sub, subscriptionbus.UpdateSubscription{
		PlanID:    &f.plan.ID,
		EndDate:   &end,
		AutoRenew: &renew,
	})
	if err != nil {
		t.Fatalf("update: %s", err)
	}

	if got.PlanName != f.plan.Name || got.AutoRenew || !got.EndDate.Equal(end) {
		t.Errorf("update: got %+v", got)
	}
	if got.TotalPaid != sub.TotalPaid || got.Amount != sub.Amount || got.Status != sub.Status {
		t.Errorf("fields outside the allow list changed: %+v", got)
	}
}
