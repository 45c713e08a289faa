package noteapp_test

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/app/domain/noteapp"
	"github.com/jcpaschoal/tenantcrm/app/sdk/apitest"
	"github.com/jcpaschoal/tenantcrm/business/domain/notebus"
	"github.com/jcpaschoal/tenantcrm/business/domain/relationbus"
	"github.com/jcpaschoal/tenantcrm/business/sdk/order"
	"github.com/jcpaschoal/tenantcrm/business/sdk/page"
	"github.com/jcpaschoal/tenantcrm/business/sdk/sqldb"
	"github.com/jcpaschoal/tenantcrm/business/types/relation"
	"github.com/jcpaschoal/tenantcrm/business/types/role"
)

type memStore struct {
	mu    sync.Mutex
	notes map[uuid.UUID]notebus.Note
}

func (s *memStore) NewWithTx(sqldb.CommitRollbacker) (notebus.Storer, error) { return s, nil }

func (s *memStore) Create(_ context.Context, note notebus.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes[note.ID] = note
	return nil
}

func (s *memStore) Update(ctx context.Context, note notebus.Note) error {
	return s.Create(ctx, note)
}

func (s *memStore) Query(_ context.Context, filter notebus.QueryFilter, _ order.By, _ page.Page) ([]notebus.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []notebus.Note
	for _, n := range s.notes {
		if filter.TenantID != nil && n.TenantID != *filter.TenantID {
			continue
		}
		if filter.Active != nil && n.Active != *filter.Active {
			continue
		}
		if filter.OwnerID != nil && n.OwnerID != *filter.OwnerID {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (s *memStore) Count(ctx context.Context, filter notebus.QueryFilter) (int, error) {
	notes, err := s.Query(ctx, filter, notebus.DefaultOrderBy, page.MustParse("1", "100"))
	return len(notes), err
}

func (s *memStore) QueryByID(_ context.Context, id uuid.UUID) (notebus.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[id]
	if !ok {
		return notebus.Note{}, notebus.ErrNotFound
	}
	return n, nil
}

type accounts map[uuid.UUID]uuid.UUID

func (a accounts) Exists(_ context.Context, tenantID uuid.UUID, id uuid.UUID) (bool, error) {
	return a[id] == tenantID, nil
}

func TestNotes(t *testing.T) {
	at := apitest.New(t)

	tenantA := uuid.New()
	tenantB := uuid.New()
	account := uuid.New()

	relBus := relationbus.NewCore(map[relation.Kind]relationbus.Lookup{
		relation.Account: accounts{account: tenantA},
	})

	noteapp.Routes(at.App, noteapp.Config{
		Auth:        at.Auth,
		NoteBus:     notebus.NewCore(at.Log, relBus, &memStore{notes: make(map[uuid.UUID]notebus.Note)}),
		ActivityBus: at.ActivityBus(),
	})

	manager := at.NewUser(t, role.Manager, tenantA)
	outsider := at.NewUser(t, role.TenantAdmin, tenantB)

	body := map[string]any{
		"title":       "Call notes",
		"content":     "Asked for a discount",
		"relatedTo":   "Account",
		"relatedToId": account.String(),
	}

	resp := at.Do(t, http.MethodPost, "/v1/notes", manager.Token, body)
	if resp.Status != http.StatusCreated {
		t.Fatalf("create: got %d: %s", resp.Status, resp.Message)
	}

	var note noteapp.Note
	resp.Decode(t, &note)

	if note.OwnerID != manager.ID.String() || note.TenantID != tenantA.String() {
		t.Errorf("create: got owner %s tenant %s", note.OwnerID, note.TenantID)
	}
	if note.RelatedTo != "Account" || note.RelatedToID != account.String() {
		t.Errorf("relation: got %s/%s", note.RelatedTo, note.RelatedToID)
	}

	resp = at.Do(t, http.MethodPost, "/v1/notes", outsider.Token, body)
	if resp.Status != http.StatusBadRequest {
		t.Errorf("relation in other tenant: got %d want %d", resp.Status, http.StatusBadRequest)
	}

	resp = at.Do(t, http.MethodGet, "/v1/notes/"+note.ID, outsider.Token, nil)
	if resp.Status != http.StatusForbidden {
		t.Errorf("cross tenant get: got %d want %d", resp.Status, http.StatusForbidden)
	}

	resp = at.Do(t, http.MethodGet, "/v1/notes?ownerId="+manager.ID.String(), manager.Token, nil)
	var pg apitest.Page[noteapp.Note]
	resp.Decode(t, &pg)
	if pg.Pagination.Total != 1 {
		t.Errorf("list by owner: got %d want 1", pg.Pagination.Total)
	}

	resp = at.Do(t, http.MethodGet, "/v1/notes?ownerId=nope", manager.Token, nil)
	if _, exists := resp.Fields["ownerId"]; resp.Status != http.StatusBadRequest || !exists {
		t.Errorf("bad filter: got %d %v", resp.Status, resp.Fields)
	}

	resp = at.Do(t, http.MethodPut, "/v1/notes/"+note.ID, manager.Token, map[string]any{"content": "Agreed on 10%"})
	if resp.Status != http.StatusOK {
		t.Fatalf("update: got %d: %s", resp.Status, resp.Message)
	}
	var upd noteapp.Note
	resp.Decode(t, &upd)
	if upd.Content != "Agreed on 10%" || upd.Title != note.Title {
		t.Errorf("update: got %+v", upd)
	}

	resp = at.Do(t, http.MethodDelete, "/v1/notes/"+note.ID, manager.Token, nil)
	if resp.Status != http.StatusOK {
		t.Fatalf("delete: got %d: %s", resp.Status, resp.Message)
	}

	resp = at.Do(t, http.MethodGet, "/v1/notes", manager.Token, nil)
	resp.Decode(t, &pg)
	if pg.Pagination.Total != 0 || len(pg.Items) != 0 {
		t.Errorf("list after delete: got %+v", pg)
	}

	want := []string{"note.created", "note.updated", "note.deleted"}
	if diff := cmp.Diff(want, at.Activities.Events()); diff != "" {
		t.Errorf("activities mismatch (-want +got):\n%s", diff)
	}
}
