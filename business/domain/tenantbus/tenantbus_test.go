package tenantbus_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/business/domain/tenantbus"
	"github.com/jcpaschoal/tenantcrm/business/sdk/order"
	"github.com/jcpaschoal/tenantcrm/business/sdk/page"
	"github.com/jcpaschoal/tenantcrm/business/sdk/sqldb"
	"github.com/jcpaschoal/tenantcrm/business/types/name"
	"github.com/jcpaschoal/tenantcrm/foundation/logger"
)

type memStore struct {
	mu      sync.Mutex
	tenants map[uuid.UUID]tenantbus.Tenant
}

func newMemStore() *memStore {
	return &memStore{tenants: make(map[uuid.UUID]tenantbus.Tenant)}
}

func (s *memStore) NewWithTx(sqldb.CommitRollbacker) (tenantbus.Storer, error) { return s, nil }

func (s *memStore) Create(_ context.Context, t tenantbus.Tenant) error {
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

func (s *memStore) Update(_ context.Context, t tenantbus.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenants[t.ID] = t
	return nil
}

func (s *memStore) Delete(_ context.Context, t tenantbus.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tenants, t.ID)
	return nil
}

func (s *memStore) Query(_ context.Context, _ tenantbus.QueryFilter, _ order.By, _ page.Page) ([]tenantbus.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]tenantbus.Tenant, 0, len(s.tenants))
	for _, t := range s.tenants {
		out = append(out, t)
	}
	return out, nil
}

func (s *memStore) Count(ctx context.Context, filter tenantbus.QueryFilter) (int, error) {
	ts, err := s.Query(ctx, filter, tenantbus.DefaultOrderBy, page.MustParse("1", "10"))
	return len(ts), err
}

func (s *memStore) QueryByID(_ context.Context, id uuid.UUID) (tenantbus.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tenants[id]
	if !ok {
		return tenantbus.Tenant{}, tenantbus.ErrNotFound
	}
	return t, nil
}

func (s *memStore) QueryBySlug(_ context.Context, slug string) (tenantbus.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tenants {
		if t.Slug == slug {
			return t, nil
		}
	}
	return tenantbus.Tenant{}, tenantbus.ErrNotFound
}

func (s *memStore) AdjustUserCount(_ context.Context, id uuid.UUID, delta int) (bool, error) {
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

func (s *memStore) Stats(_ context.Context) (tenantbus.Stats, error) {
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

func newCore(store tenantbus.Storer) *tenantbus.Core {
	return tenantbus.NewCore(logger.New(io.Discard, logger.LevelError, "TEST", nil), store)
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	core := newCore(newMemStore())

	ten, err := core.Create(ctx, tenantbus.NewTenant{Name: name.MustParse("Acme Corp"), Slug: " Acme-Corp "})
	if err != nil {
		t.Fatalf("create: %s", err)
	}

	if ten.Slug != "acme-corp" {
		t.Errorf("slug: got %q", ten.Slug)
	}
	if !ten.Active || ten.Suspended {
		t.Errorf("new tenant must be active: %+v", ten)
	}
	if ten.MaxUsers != tenantbus.DefaultMaxUsers {
		t.Errorf("max users: got %d", ten.MaxUsers)
	}

	if _, err := core.Create(ctx, tenantbus.NewTenant{Name: name.MustParse("Acme Two"), Slug: "acme-corp"}); !errors.Is(err, tenantbus.ErrUniqueSlug) {
		t.Errorf("duplicate slug: got %v", err)
	}

	if _, err := core.Create(ctx, tenantbus.NewTenant{Name: name.MustParse("Bad Slug"), Slug: "bad slug!"}); !errors.Is(err, tenantbus.ErrInvalidSlug) {
		t.Errorf("invalid slug: got %v", err)
	}
}

func TestUpdateKeepsLifecycle(t *testing.T) {
	ctx := context.Background()
	core := newCore(newMemStore())

	ten, err := core.Create(ctx, tenantbus.NewTenant{Name: name.MustParse("Acme Corp"), Slug: "acme"})
	if err != nil {
		t.Fatalf("create: %s", err)
	}

	newName := name.MustParse("Acme Holdings")
	industry := "Retail"
	got, err := core.Update(ctx, ten, tenantbus.UpdateTenant{Name: &newName, Industry: &industry})
	if err != nil {
		t.Fatalf("update: %s", err)
	}

	want := ten
	want.Name = newName
	want.Industry = industry
	want.UpdatedAt = got.UpdatedAt

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("update mismatch (-want +got):\n%s", diff)
	}
}

func TestSuspendActivate(t *testing.T) {
	ctx := context.Background()
	core := newCore(newMemStore())

	ten, err := core.Create(ctx, tenantbus.NewTenant{Name: name.MustParse("Acme Corp"), Slug: "acme"})
	if err != nil {
		t.Fatalf("create: %s", err)
	}

	ten, err = core.Suspend(ctx, ten, "unpaid invoice")
	if err != nil {
		t.Fatalf("suspend: %s", err)
	}
	if !ten.Suspended || ten.Active || ten.SuspensionReason != "unpaid invoice" {
		t.Errorf("suspend: got %+v", ten)
	}

	st, err := core.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %s", err)
	}
	if diff := cmp.Diff(tenantbus.Stats{Total: 1, Suspended: 1}, st); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}

	ten, err = core.Activate(ctx, ten)
	if err != nil {
		t.Fatalf("activate: %s", err)
	}
	if ten.Suspended || !ten.Active || ten.SuspensionReason != "" {
		t.Errorf("activate: got %+v", ten)
	}
}

func TestAddUsersLimit(t *testing.T) {
	ctx := context.Background()
	core := newCore(newMemStore())

	ten, err := core.Create(ctx, tenantbus.NewTenant{Name: name.MustParse("Acme Corp"), Slug: "acme", MaxUsers: 2})
	if err != nil {
		t.Fatalf("create: %s", err)
	}

	for range 2 {
		if err := core.AddUsers(ctx, ten.ID, 1); err != nil {
			t.Fatalf("add user: %s", err)
		}
	}

	if err := core.AddUsers(ctx, ten.ID, 1); !errors.Is(err, tenantbus.ErrUserLimit) {
		t.Fatalf("over limit: got %v", err)
	}

	if err := core.AddUsers(ctx, ten.ID, -1); err != nil {
		t.Fatalf("remove user: %s", err)
	}

	got, err := core.QueryByID(ctx, ten.ID)
	if err != nil {
		t.Fatalf("query: %s", err)
	}
	if got.UserCount != 1 {
		t.Errorf("user count: got %d", got.UserCount)
	}
}
