package apitest

import (
	"context"
	"net/mail"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/business/domain/auditbus"
	"github.com/jcpaschoal/tenantcrm/business/domain/paymentbus"
	"github.com/jcpaschoal/tenantcrm/business/domain/pinbus"
	"github.com/jcpaschoal/tenantcrm/business/domain/subscriptionbus"
	"github.com/jcpaschoal/tenantcrm/business/domain/tenantbus"
	"github.com/jcpaschoal/tenantcrm/business/domain/userbus"
	"github.com/jcpaschoal/tenantcrm/business/sdk/order"
	"github.com/jcpaschoal/tenantcrm/business/sdk/page"
	"github.com/jcpaschoal/tenantcrm/business/sdk/sqldb"
)

// Beginner hands out fake transactions and counts how they ended.
type Beginner struct {
	mu        sync.Mutex
	Commits   int
	Rollbacks int
}

// Begin implements sqldb.Beginner.
func (b *Beginner) Begin() (sqldb.CommitRollbacker, error) {
	return &tx{b: b}, nil
}

type tx struct {
	b        *Beginner
	done     bool
	onCommit []func()
}

func (t *tx) Commit() error {
	t.b.mu.Lock()
	t.done = true
	t.b.Commits++
	fns := t.onCommit
	t.onCommit = nil
	t.b.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	return nil
}

// OnCommit registers fn to run after Commit.
func (t *tx) OnCommit(fn func()) {
	t.b.mu.Lock()
	defer t.b.mu.Unlock()
	t.onCommit = append(t.onCommit, fn)
}

func (t *tx) Rollback() error {
	t.b.mu.Lock()
	defer t.b.mu.Unlock()
	if t.done {
		return nil
	}
	t.done = true
	t.b.Rollbacks++
	return nil
}

// =============================================================================

// TenantStore keeps tenants in memory.
type TenantStore struct {
	mu      sync.Mutex
	tenants map[uuid.UUID]tenantbus.Tenant
}

// NewTenantStore constructs an empty store.
func NewTenantStore() *TenantStore {
	return &TenantStore{tenants: make(map[uuid.UUID]tenantbus.Tenant)}
}

func (s *TenantStore) NewWithTx(sqldb.CommitRollbacker) (tenantbus.Storer, error) { return s, nil }

func (s *TenantStore) Create(_ context.Context, t tenantbus.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.tenants {
		if e.Slug == t.Slug {
			return tenantbus.ErrUniqueSlug
		}
	}
	s.tenants[t.ID] = t
	return nil
}

func (s *TenantStore) Update(_ context.Context, t tenantbus.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenants[t.ID] = t
	return nil
}

func (s *TenantStore) Delete(_ context.Context, t tenantbus.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tenants, t.ID)
	return nil
}

func (s *TenantStore) Query(_ context.Context, filter tenantbus.QueryFilter, _ order.By, _ page.Page) ([]tenantbus.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []tenantbus.Tenant
	for _, t := range s.tenants {
		if filter.ID != nil && t.ID != *filter.ID {
			continue
		}
		if filter.Suspended != nil && t.Suspended != *filter.Suspended {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *TenantStore) Count(ctx context.Context, filter tenantbus.QueryFilter) (int, error) {
	ts, err := s.Query(ctx, filter, tenantbus.DefaultOrderBy, page.MustParse("1", "100"))
	return len(ts), err
}

func (s *TenantStore) QueryByID(_ context.Context, id uuid.UUID) (tenantbus.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tenants[id]
	if !ok {
		return tenantbus.Tenant{}, tenantbus.ErrNotFound
	}
	return t, nil
}

func (s *TenantStore) QueryBySlug(_ context.Context, slug string) (tenantbus.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tenants {
		if t.Slug == slug {
			return t, nil
		}
	}
	return tenantbus.Tenant{}, tenantbus.ErrNotFound
}

func (s *TenantStore) AdjustUserCount(_ context.Context, id uuid.UUID, delta int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tenants[id]
	if !ok {
		return false, nil
	}
	if delta > 0 && t.UserCount+delta > t.MaxUsers {
		return false, nil
	}
	t.UserCount = max(t.UserCount+delta, 0)
	s.tenants[id] = t
	return true, nil
}

func (s *TenantStore) Stats(_ context.Context) (tenantbus.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var st tenantbus.Stats
	for _, t := range s.tenants {
		st.Total++
		if t.Active {
			st.Active++
		}
		if t.Suspended {
			st.Suspended++
		}
	}
	return st, nil
}

// =============================================================================

// UserStore keeps users in memory.
type UserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]userbus.User
}

// NewUserStore constructs an empty store.
func NewUserStore() *UserStore {
	return &UserStore{users: make(map[uuid.UUID]userbus.User)}
}

func (s *UserStore) NewWithTx(sqldb.CommitRollbacker) (userbus.Storer, error) { return s, nil }

func (s *UserStore) Create(_ context.Context, usr userbus.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email.Address == usr.Email.Address {
			return userbus.ErrUniqueEmail
		}
	}
	s.users[usr.ID] = usr
	return nil
}

func (s *UserStore) Update(_ context.Context, usr userbus.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[usr.ID] = usr
	return nil
}

func (s *UserStore) DeleteByTenant(_ context.Context, tenantID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	for id, u := range s.users {
		if u.TenantID == tenantID {
			delete(s.users, id)
			n++
		}
	}
	return n, nil
}

func (s *UserStore) Query(_ context.Context, filter userbus.QueryFilter, _ order.By, _ page.Page) ([]userbus.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []userbus.User
	for _, u := range s.users {
		if filter.TenantID != nil && u.TenantID != *filter.TenantID {
			continue
		}
		if filter.Active != nil && u.Active != *filter.Active {
			continue
		}
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func (s *UserStore) Count(ctx context.Context, filter userbus.QueryFilter) (int, error) {
	users, err := s.Query(ctx, filter, userbus.DefaultOrderBy, page.MustParse("1", "100"))
	return len(users), err
}

func (s *UserStore) QueryByID(_ context.Context, userID uuid.UUID) (userbus.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return userbus.User{}, userbus.ErrNotFound
	}
	return u, nil
}

func (s *UserStore) QueryByEmail(_ context.Context, email mail.Address) (userbus.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email.Address == email.Address {
			return u, nil
		}
	}
	return userbus.User{}, userbus.ErrNotFound
}

// =============================================================================

// SubscriptionStore keeps subscriptions, transitions and plans in memory.
type SubscriptionStore struct {
	mu          sync.Mutex
	subs        map[uuid.UUID]subscriptionbus.Subscription
	transitions []subscriptionbus.Transition
	plans       map[uuid.UUID]subscriptionbus.Plan
}

// NewSubscriptionStore constructs a store offering the plans.
func NewSubscriptionStore(plans ...subscriptionbus.Plan) *SubscriptionStore {
	s := SubscriptionStore{
		subs:  make(map[uuid.UUID]subscriptionbus.Subscription),
		plans: make(map[uuid.UUID]subscriptionbus.Plan),
	}
	for _, p := range plans {
		s.plans[p.ID] = p
	}
	return &s
}

func (s *SubscriptionStore) NewWithTx(sqldb.CommitRollbacker) (subscriptionbus.Storer, error) {
	return s, nil
}

func (s *SubscriptionStore) Create(_ context.Context, sub subscriptionbus.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[sub.TenantID] = sub
	return nil
}

func (s *SubscriptionStore) Update(ctx context.Context, sub subscriptionbus.Subscription) error {
	return s.Create(ctx, sub)
}

func (s *SubscriptionStore) DeleteByTenant(_ context.Context, tenantID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, tenantID)
	return nil
}

func (s *SubscriptionStore) Query(_ context.Context, filter subscriptionbus.QueryFilter, _ order.By, _ page.Page) ([]subscriptionbus.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []subscriptionbus.Subscription
	for _, sub := range s.subs {
		if filter.TenantID != nil && sub.TenantID != *filter.TenantID {
			continue
		}
		if filter.Status != nil && sub.Status != *filter.Status {
			continue
		}
		if filter.PlanID != nil && sub.PlanID != *filter.PlanID {
			continue
		}
		out = append(out, sub)
	}
	return out, nil
}

func (s *SubscriptionStore) Count(ctx context.Context, filter subscriptionbus.QueryFilter) (int, error) {
	subs, err := s.Query(ctx, filter, subscriptionbus.DefaultOrderBy, page.MustParse("1", "100"))
	return len(subs), err
}

func (s *SubscriptionStore) QueryByTenant(_ context.Context, tenantID uuid.UUID) (subscriptionbus.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[tenantID]
	if !ok {
		return subscriptionbus.Subscription{}, subscriptionbus.ErrNotFound
	}
	return sub, nil
}

func (s *SubscriptionStore) CreateTransition(_ context.Context, tr subscriptionbus.Transition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transitions = append(s.transitions, tr)
	return nil
}

func (s *SubscriptionStore) QueryTransitions(_ context.Context, subscriptionID uuid.UUID) ([]subscriptionbus.Transition, error) {
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

func (s *SubscriptionStore) QueryPlans(_ context.Context) ([]subscriptionbus.Plan, error) {
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

func (s *SubscriptionStore) QueryPlanByID(_ context.Context, planID uuid.UUID) (subscriptionbus.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plans[planID]
	if !ok {
		return subscriptionbus.Plan{}, subscriptionbus.ErrPlanNotFound
	}
	return p, nil
}

func (s *SubscriptionStore) Stats(_ context.Context) (subscriptionbus.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := subscriptionbus.Stats{ByStatus: make(map[string]int)}
	for _, sub := range s.subs {
		st.ByStatus[sub.Status.String()]++
		st.TotalPaid += sub.TotalPaid
	}
	return st, nil
}

// =============================================================================

// PaymentStore keeps payments and the invoice counter in memory.
type PaymentStore struct {
	mu       sync.Mutex
	payments map[uuid.UUID]paymentbus.Payment
	seq      map[string]int64
}

// NewPaymentStore constructs an empty store.
func NewPaymentStore() *PaymentStore {
	return &PaymentStore{
		payments: make(map[uuid.UUID]paymentbus.Payment),
		seq:      make(map[string]int64),
	}
}

func (s *PaymentStore) NewWithTx(sqldb.CommitRollbacker) (paymentbus.Storer, error) { return s, nil }

func (s *PaymentStore) Create(_ context.Context, p paymentbus.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments[p.ID] = p
	return nil
}

func (s *PaymentStore) Update(ctx context.Context, p paymentbus.Payment) error {
	return s.Create(ctx, p)
}

func (s *PaymentStore) NextInvoiceSequence(_ context.Context, yearMonth string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq[yearMonth]++
	return s.seq[yearMonth], nil
}

func (s *PaymentStore) Query(_ context.Context, filter paymentbus.QueryFilter, _ page.Page) ([]paymentbus.Payment, error) {
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

func (s *PaymentStore) Count(ctx context.Context, filter paymentbus.QueryFilter) (int, error) {
	ps, err := s.Query(ctx, filter, page.MustParse("1", "100"))
	return len(ps), err
}

func (s *PaymentStore) QueryByID(_ context.Context, id uuid.UUID) (paymentbus.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok {
		return paymentbus.Payment{}, paymentbus.ErrNotFound
	}
	return p, nil
}

func (s *PaymentStore) QueryByGatewayOrderID(_ context.Context, orderID string) (paymentbus.Payment, error) {
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

// PinStore keeps viewing PIN state in memory.
type PinStore struct {
	mu     sync.Mutex
	states map[uuid.UUID]pinbus.State
}

// NewPinStore constructs a store holding a blank PIN state for each user.
func NewPinStore(users ...User) *PinStore {
	s := PinStore{states: make(map[uuid.UUID]pinbus.State)}
	for _, usr := range users {
		s.states[usr.ID] = pinbus.State{UserID: usr.ID, Email: mail.Address{Address: usr.ID.String() + "@example.com"}}
	}
	return &s
}

func (s *PinStore) QueryByID(_ context.Context, userID uuid.UUID) (pinbus.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[userID]
	if !ok {
		return pinbus.State{}, pinbus.ErrNotFound
	}
	return st, nil
}

func (s *PinStore) SetPin(_ context.Context, userID uuid.UUID, hash []byte, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.states[userID]
	st.PinHash = hash
	st.PinSet = true
	s.states[userID] = st
	return nil
}

func (s *PinStore) SetOTP(_ context.Context, userID uuid.UUID, otpHash string, expiresAt time.Time, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.states[userID]
	st.OTPHash = otpHash
	st.OTPExpiresAt = expiresAt
	s.states[userID] = st
	return nil
}

func (s *PinStore) ResetPin(_ context.Context, userID uuid.UUID, hash []byte, otpHash string, _ time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.states[userID]
	if st.OTPHash != otpHash {
		return false, nil
	}
	st.PinHash = hash
	st.PinSet = true
	st.OTPHash = ""
	st.OTPExpiresAt = time.Time{}
	s.states[userID] = st
	return true, nil
}

// Expire moves the OTP expiry of the user into the past.
func (s *PinStore) Expire(userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.states[userID]
	st.OTPExpiresAt = time.Now().Add(-time.Second)
	s.states[userID] = st
}

// Mailer records the last message sent.
type Mailer struct {
	mu      sync.Mutex
	To      string
	Subject string
	Body    string
}

func (m *Mailer) Send(_ context.Context, to string, subject string, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.To, m.Subject, m.Body = to, subject, body
	return nil
}

var otpInBody = regexp.MustCompile(`\b[0-9]{6}\b`)

// OTP returns the 6 digit code found in the last message.
func (m *Mailer) OTP() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return otpInBody.FindString(m.Body)
}

// AuditStore keeps access audits in memory.
type AuditStore struct {
	mu   sync.Mutex
	auds []auditbus.Audit
}

// NewAuditStore constructs an empty store.
func NewAuditStore() *AuditStore {
	return &AuditStore{}
}

func (s *AuditStore) Create(_ context.Context, aud auditbus.Audit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auds = append(s.auds, aud)
	return nil
}

func (s *AuditStore) Query(_ context.Context, filter auditbus.QueryFilter, pg page.Page) ([]auditbus.Audit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []auditbus.Audit
	for _, aud := range s.auds {
		if filter.TenantID != nil && aud.TenantID != *filter.TenantID {
			continue
		}
		if filter.UserID != nil && aud.UserID != *filter.UserID {
			continue
		}
		if filter.ResourceType != nil && aud.ResourceType != *filter.ResourceType {
			continue
		}
		out = append(out, aud)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	start := min(pg.Offset(), len(out))
	end := min(start+pg.RowsPerPage(), len(out))

	return out[start:end], nil
}

func (s *AuditStore) Count(ctx context.Context, filter auditbus.QueryFilter) (int, error) {
	auds, err := s.Query(ctx, filter, page.MustParse("1", "100"))
	return len(auds), err
}
