package meetingbus_test

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/business/domain/meetingbus"
	"github.com/jcpaschoal/tenantcrm/business/domain/relationbus"
	"github.com/jcpaschoal/tenantcrm/business/sdk/order"
	"github.com/jcpaschoal/tenantcrm/business/sdk/page"
	"github.com/jcpaschoal/tenantcrm/business/sdk/sqldb"
	"github.com/jcpaschoal/tenantcrm/business/types/locationtype"
	"github.com/jcpaschoal/tenantcrm/business/types/meetingstatus"
	"github.com/jcpaschoal/tenantcrm/business/types/relation"
	"github.com/jcpaschoal/tenantcrm/foundation/logger"
)

type memStore struct {
	mu       sync.Mutex
	meetings map[uuid.UUID]meetingbus.Meeting
}

func newMemStore() *memStore {
	return &memStore{meetings: make(map[uuid.UUID]meetingbus.Meeting)}
}

func (s *memStore) NewWithTx(sqldb.CommitRollbacker) (meetingbus.Storer, error) { return s, nil }

func (s *memStore) Create(_ context.Context, mtg meetingbus.Meeting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.meetings {
		if e.MeetingID == mtg.MeetingID {
			return meetingbus.ErrDuplicateMeetingID
		}
	}
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

type setLookup map[[2]uuid.UUID]bool

func (s setLookup) Exists(_ context.Context, tenantID uuid.UUID, id uuid.UUID) (bool, error) {
	return s[[2]uuid.UUID{tenantID, id}], nil
}

type fixture struct {
	core   *meetingbus.Core
	store  *memStore
	tenant uuid.UUID
	lead   uuid.UUID
	user   uuid.UUID
}

func newFixture() fixture {
	tenant := uuid.New()
	lead := uuid.New()

	relBus := relationbus.NewCore(map[relation.Kind]relationbus.Lookup{
		relation.Lead: setLookup{{tenant, lead}: true},
	})

	log := logger.New(io.Discard, logger.LevelError, "TEST", nil)
	store := newMemStore()

	return fixture{
		core:   meetingbus.NewCore(log, relBus, store, "https://meet.example.com/"),
		store:  store,
		tenant: tenant,
		lead:   lead,
		user:   uuid.New(),
	}
}

func (f fixture) newMeeting() meetingbus.NewMeeting {
	from := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	return meetingbus.NewMeeting{
		TenantID:  f.tenant,
		Title:     "Quarterly review",
		Location:  "Room 4",
		From:      from,
		To:        from.Add(time.Hour),
		RelatedTo: relation.Ref{Kind: relation.Lead, ID: f.lead},
		CreatedBy: f.user,
	}
}

var meetingIDRegEx = regexp.MustCompile(`^crm-\d+-[a-z0-9]{9}$`)

func TestNewMeetingID(t *testing.T) {
	now := time.UnixMilli(1767225600000)

	seen := make(map[string]bool)
	for range 500 {
		id, err := meetingbus.NewMeetingID(now)
		if err != nil {
			t.Fatalf("NewMeetingID: %s", err)
		}

		if !meetingIDRegEx.MatchString(id) {
			t.Fatalf("id %q does not match %s", id, meetingIDRegEx)
		}

		if !strings.HasPrefix(id, "crm-1767225600000-") {
			t.Fatalf("id %q does not carry the timestamp", id)
		}

		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	mtg, err := f.core.Create(ctx, f.newMeeting())
	if err != nil {
		t.Fatalf("Create: %s", err)
	}

	if !meetingIDRegEx.MatchString(mtg.MeetingID) {
		t.Errorf("meeting id %q", mtg.MeetingID)
	}

	if want := "https://meet.example.com/" + mtg.MeetingID; mtg.MeetingLink != want {
		t.Errorf("link: got %q, want %q", mtg.MeetingLink, want)
	}

	if !mtg.Status.Equal(meetingstatus.Scheduled) {
		t.Errorf("status: got %s", mtg.Status)
	}

	if !mtg.LocationType.Equal(locationtype.Online) {
		t.Errorf("location type: got %s", mtg.LocationType)
	}

	if mtg.OwnerID != f.user || mtg.LastModifiedBy != f.user {
		t.Errorf("owner %s / modified by %s, want %s", mtg.OwnerID, mtg.LastModifiedBy, f.user)
	}

	got, err := f.core.QueryByID(ctx, mtg.ID)
	if err != nil {
		t.Fatalf("QueryByID: %s", err)
	}

	if diff := cmp.Diff(mtg, got); diff != "" {
		t.Errorf("stored meeting mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateRejects(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	tests := []struct {
		name string
		edit func(nm *meetingbus.NewMeeting)
		want error
	}{
		{
			name: "end before start",
			edit: func(nm *meetingbus.NewMeeting) { nm.To = nm.From.Add(-time.Minute) },
			want: meetingbus.ErrInvalidWindow,
		},
		{
			name: "unbound kind",
			edit: func(nm *meetingbus.NewMeeting) { nm.RelatedTo.Kind = relation.Deal },
			want: relationbus.ErrUnknownKind,
		},
		{
			name: "lead from another tenant",
			edit: func(nm *meetingbus.NewMeeting) { nm.TenantID = uuid.New() },
			want: relationbus.ErrTargetNotFound,
		},
		{
			name: "missing lead",
			edit: func(nm *meetingbus.NewMeeting) { nm.RelatedTo.ID = uuid.New() },
			want: relationbus.ErrTargetNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nm := f.newMeeting()
			tt.edit(&nm)

			if _, err := f.core.Create(ctx, nm); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}

	if n := len(f.store.meetings); n != 0 {
		t.Errorf("rejected creates stored %d meetings", n)
	}
}

func TestUpdateAllowList(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	mtg, err := f.core.Create(ctx, f.newMeeting())
	if err != nil {
		t.Fatalf("Create: %s", err)
	}

	editor := uuid.New()
	title := "Renamed"
	status := meetingstatus.Rescheduled

	got, err := f.core.Update(ctx, mtg, meetingbus.UpdateMeeting{
		Title:  &title,
		Status: &status,
	}, editor)
	if err != nil {
		t.Fatalf("Update: %s", err)
	}

	want := mtg
	want.Title = title
	want.Status = status
	want.LastModifiedBy = editor
	want.UpdatedAt = got.UpdatedAt

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("update mismatch (-want +got):\n%s", diff)
	}

	to := mtg.From.Add(-time.Hour)
	if _, err := f.core.Update(ctx, got, meetingbus.UpdateMeeting{To: &to}, editor); !errors.Is(err, meetingbus.ErrInvalidWindow) {
		t.Errorf("window: got %v", err)
	}

	bad := relation.Ref{Kind: relation.Lead, ID: uuid.New()}
	if _, err := f.core.Update(ctx, got, meetingbus.UpdateMeeting{RelatedTo: &bad}, editor); !errors.Is(err, relationbus.ErrTargetNotFound) {
		t.Errorf("relation: got %v", err)
	}
}

func TestDeleteIsSoft(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	mtg, err := f.core.Create(ctx, f.newMeeting())
	if err != nil {
		t.Fatalf("Create: %s", err)
	}

	if _, err := f.core.Delete(ctx, mtg, f.user); err != nil {
		t.Fatalf("Delete: %s", err)
	}

	if _, err := f.core.QueryByID(ctx, mtg.ID); !errors.Is(err, meetingbus.ErrNotFound) {
		t.Errorf("QueryByID after delete: got %v", err)
	}

	row, ok := f.store.meetings[mtg.ID]
	if !ok {
		t.Fatal("row was removed")
	}

	if row.Active {
		t.Error("row still active")
	}

	active := true
	n, err := f.core.Count(ctx, meetingbus.QueryFilter{TenantID: &f.tenant, Active: &active})
	if err != nil {
		t.Fatalf("Count: %s", err)
	}

	if n != 0 {
		t.Errorf("active count: got %d", n)
	}
}
