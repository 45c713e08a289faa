package meetingapp_test

import (
	"context"
	"net/http"
	"regexp"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/app/domain/meetingapp"
	"github.com/jcpaschoal/tenantcrm/app/sdk/apitest"
	"github.com/jcpaschoal/tenantcrm/business/domain/meetingbus"
	"github.com/jcpaschoal/tenantcrm/business/domain/relationbus"
	"github.com/jcpaschoal/tenantcrm/business/sdk/order"
	"github.com/jcpaschoal/tenantcrm/business/sdk/page"
	"github.com/jcpaschoal/tenantcrm/business/sdk/sqldb"
	"github.com/jcpaschoal/tenantcrm/business/types/relation"
	"github.com/jcpaschoal/tenantcrm/business/types/role"
)

type memStore struct {
	mu       sync.Mutex
	meetings map[uuid.UUID]meetingbus.Meeting
}

func (s *memStore) NewWithTx(sqldb.CommitRollbacker) (meetingbus.Storer, error) { return s, nil }

func (s *memStore) Create(_ context.Context, mtg meetingbus.Meeting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meetings[mtg.ID] = mtg
	return nil
}

func (s *memStore) Update(_ context.Context, mtg meetingbus.Meeting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meetings[mtg.ID] = mtg
	return nil
}

func (s *memStore) Query(_ context.Context, filter meetingbus.QueryFilter, _ order.By, _ page.Page) ([]meetingbus.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []meetingbus.Meeting
	for _, m := range s.meetings {
		if filter.TenantID != nil && m.TenantID != *filter.TenantID {
			continue
		}
		if filter.Active != nil && m.Active != *filter.Active {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *memStore) Count(ctx context.Context, filter meetingbus.QueryFilter) (int, error) {
	mtgs, err := s.Query(ctx, filter, meetingbus.DefaultOrderBy, page.MustParse("1", "100"))
	return len(mtgs), err
}

func (s *memStore) QueryByID(_ context.Context, id uuid.UUID) (meetingbus.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meetings[id]
	if !ok {
		return meetingbus.Meeting{}, meetingbus.ErrNotFound
	}
	return m, nil
}

type leads map[[2]uuid.UUID]bool

func (l leads) Exists(_ context.Context, tenantID uuid.UUID, id uuid.UUID) (bool, error) {
	return l[[2]uuid.UUID{tenantID, id}], nil
}

type fixture struct {
	at      *apitest.Test
	tenantA uuid.UUID
	tenantB uuid.UUID
	lead    uuid.UUID
	userA   apitest.User
	userB   apitest.User
	owner   apitest.User
}

func newFixture(t *testing.T) fixture {
	at := apitest.New(t)

	tenantA := uuid.New()
	tenantB := uuid.New()
	lead := uuid.New()

	relBus := relationbus.NewCore(map[relation.Kind]relationbus.Lookup{
		relation.Lead: leads{{tenantA, lead}: true},
	})

	store := &memStore{meetings: make(map[uuid.UUID]meetingbus.Meeting)}

	meetingapp.Routes(at.App, meetingapp.Config{
		Log:         at.Log,
		Auth:        at.Auth,
		MeetingBus:  meetingbus.NewCore(at.Log, relBus, store, "https://meet.example.com/"),
		ActivityBus: at.ActivityBus(),
	})

	return fixture{
		at:      at,
		tenantA: tenantA,
		tenantB: tenantB,
		lead:    lead,
		userA:   at.NewUser(t, role.User, tenantA),
		userB:   at.NewUser(t, role.User, tenantB),
		owner:   at.NewUser(t, role.SaaSOwner, uuid.Nil),
	}
}

func newMeetingBody(extra map[string]any) map[string]any {
	body := map[string]any{
		"title":    "Quarterly review",
		"location": "Room 4",
		"from":     "2026-05-04T10:00:00Z",
		"to":       "2026-05-04T11:00:00Z",
	}
	for k, v := range extra {
		body[k] = v
	}
	return body
}

var meetingIDRegEx = regexp.MustCompile(`^crm-\d+-[a-z0-9]{9}$`)

func TestCreateMeeting(t *testing.T) {
	f := newFixture(t)

	body := newMeetingBody(map[string]any{
		"relatedTo":   "Lead",
		"relatedToId": f.lead.String(),
		"tenantId":    f.tenantB.String(),
	})

	resp := f.at.Do(t, http.MethodPost, "/v1/meetings", f.userA.Token, body)
	if resp.Status != http.StatusCreated {
		t.Fatalf("status: got %d want %d: %s", resp.Status, http.StatusCreated, resp.Message)
	}

	var got meetingapp.Meeting
	resp.Decode(t, &got)

	if !meetingIDRegEx.MatchString(got.MeetingID) {
		t.Errorf("meeting id: got %q", got.MeetingID)
	}
	if got.MeetingLink != "https://meet.example.com/"+got.MeetingID {
		t.Errorf("meeting link: got %q", got.MeetingLink)
	}
	if got.TenantID != f.tenantA.String() {
		t.Errorf("tenant: got %s want caller's tenant %s", got.TenantID, f.tenantA)
	}
	if got.OwnerID != f.userA.ID.String() || got.CreatedBy != f.userA.ID.String() {
		t.Errorf("owner/createdBy: got %s/%s want %s", got.OwnerID, got.CreatedBy, f.userA.ID)
	}
	if got.Status != "Scheduled" {
		t.Errorf("status: got %q", got.Status)
	}

	if diff := cmp.Diff([]string{"meeting.created"}, f.at.Activities.Events()); diff != "" {
		t.Errorf("activities mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateMeetingRejects(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		token  string
		body   map[string]any
		status int
		field  string
	}{
		{
			name:   "unauthenticated",
			token:  "",
			body:   newMeetingBody(nil),
			status: http.StatusUnauthorized,
		},
		{
			name:   "missing title",
			token:  f.userA.Token,
			body:   newMeetingBody(map[string]any{"title": ""}),
			status: http.StatusBadRequest,
			field:  "title",
		},
		{
			name:   "ends before start",
			token:  f.userA.Token,
			body:   newMeetingBody(map[string]any{"to": "2026-05-04T09:00:00Z"}),
			status: http.StatusBadRequest,
		},
		{
			name:   "half a relation",
			token:  f.userA.Token,
			body:   newMeetingBody(map[string]any{"relatedTo": "Lead"}),
			status: http.StatusBadRequest,
			field:  "relatedTo",
		},
		{
			name:   "lead of another tenant",
			token:  f.userB.Token,
			body:   newMeetingBody(map[string]any{"relatedTo": "Lead", "relatedToId": f.lead.String()}),
			status: http.StatusBadRequest,
		},
		{
			name:   "platform role without tenant",
			token:  f.owner.Token,
			body:   newMeetingBody(nil),
			status: http.StatusBadRequest,
			field:  "tenantId",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.at.Do(t, http.MethodPost, "/v1/meetings", tt.token, tt.body)
			if resp.Status != tt.status {
				t.Fatalf("status: got %d want %d: %s", resp.Status, tt.status, resp.Message)
			}
			if resp.Success {
				t.Errorf("success flag set on failure")
			}
			if tt.field != "" {
				if _, exists := resp.Fields[tt.field]; !exists {
					t.Errorf("fields: got %v want %q", resp.Fields, tt.field)
				}
			}
		})
	}

	if n := len(f.at.Activities.Events()); n != 0 {
		t.Errorf("activities: got %d want 0", n)
	}
}

func TestMeetingTenantScoping(t *testing.T) {
	f := newFixture(t)

	resp := f.at.Do(t, http.MethodPost, "/v1/meetings", f.userA.Token, newMeetingBody(nil))
	if resp.Status != http.StatusCreated {
		t.Fatalf("create A: got %d: %s", resp.Status, resp.Message)
	}
	var mtgA meetingapp.Meeting
	resp.Decode(t, &mtgA)

	resp = f.at.Do(t, http.MethodPost, "/v1/meetings", f.owner.Token, newMeetingBody(map[string]any{"tenantId": f.tenantB.String()}))
	if resp.Status != http.StatusCreated {
		t.Fatalf("create B: got %d: %s", resp.Status, resp.Message)
	}

	resp = f.at.Do(t, http.MethodGet, "/v1/meetings", f.userA.Token, nil)
	if resp.Status != http.StatusOK {
		t.Fatalf("list: got %d: %s", resp.Status, resp.Message)
	}
	var pg apitest.Page[meetingapp.Meeting]
	resp.Decode(t, &pg)

	if pg.Pagination.Total != 1 || len(pg.Items) != 1 || pg.Items[0].ID != mtgA.ID {
		t.Errorf("tenant A list: got %+v", pg)
	}
	if pg.Pagination.Page != 1 || pg.Pagination.Limit != 10 || pg.Pagination.Pages != 1 {
		t.Errorf("pagination: got %+v", pg.Pagination)
	}

	resp = f.at.Do(t, http.MethodGet, "/v1/meetings", f.owner.Token, nil)
	resp.Decode(t, &pg)
	if pg.Pagination.Total != 2 {
		t.Errorf("platform list: got %d want 2", pg.Pagination.Total)
	}

	resp = f.at.Do(t, http.MethodGet, "/v1/meetings/"+mtgA.ID, f.userB.Token, nil)
	if resp.Status != http.StatusForbidden {
		t.Errorf("cross tenant get: got %d want %d", resp.Status, http.StatusForbidden)
	}

	resp = f.at.Do(t, http.MethodPut, "/v1/meetings/"+mtgA.ID, f.userB.Token, map[string]any{"title": "mine now"})
	if resp.Status != http.StatusForbidden {
		t.Errorf("cross tenant update: got %d want %d", resp.Status, http.StatusForbidden)
	}
}

func TestUpdateAndDeleteMeeting(t *testing.T) {
	f := newFixture(t)

	resp := f.at.Do(t, http.MethodPost, "/v1/meetings", f.userA.Token, newMeetingBody(nil))
	var mtg meetingapp.Meeting
	resp.Decode(t, &mtg)

	upd := map[string]any{
		"title":     "Renamed",
		"status":    "Completed",
		"meetingId": "crm-1-aaaaaaaaa",
		"tenantId":  f.tenantB.String(),
	}

	resp = f.at.Do(t, http.MethodPut, "/v1/meetings/"+mtg.ID, f.userA.Token, upd)
	if resp.Status != http.StatusOK {
		t.Fatalf("update: got %d: %s", resp.Status, resp.Message)
	}

	var got meetingapp.Meeting
	resp.Decode(t, &got)

	want := mtg
	want.Title = "Renamed"
	want.Status = "Completed"
	want.LastModifiedBy = f.userA.ID.String()

	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(meetingapp.Meeting{}, "UpdatedAt")); diff != "" {
		t.Errorf("update mismatch (-want +got):\n%s", diff)
	}

	resp = f.at.Do(t, http.MethodDelete, "/v1/meetings/"+mtg.ID, f.userA.Token, nil)
	if resp.Status != http.StatusOK || !resp.Success {
		t.Fatalf("delete: got %d: %s", resp.Status, resp.Message)
	}

	resp = f.at.Do(t, http.MethodGet, "/v1/meetings/"+mtg.ID, f.userA.Token, nil)
	if resp.Status != http.StatusNotFound {
		t.Errorf("get deleted: got %d want %d", resp.Status, http.StatusNotFound)
	}

	wantEvents := []string{"meeting.created", "meeting.updated", "meeting.deleted"}
	if diff := cmp.Diff(wantEvents, f.at.Activities.Events()); diff != "" {
		t.Errorf("activities mismatch (-want +got):\n%s", diff)
	}
}

