package activitybus_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/business/domain/activitybus"
	"github.com/jcpaschoal/tenantcrm/business/sdk/page"
	"github.com/jcpaschoal/tenantcrm/foundation/logger"
)

type failingStore struct{}

func (failingStore) Create(context.Context, activitybus.Activity) error {
	return errors.New("mongo unavailable")
}
func (failingStore) Query(context.Context, activitybus.QueryFilter, page.Page) ([]activitybus.Activity, error) {
	return nil, nil
}
func (failingStore) Count(context.Context, activitybus.QueryFilter) (int, error) { return 0, nil }

type recordingStore struct {
	acts []activitybus.Activity
}

func (s *recordingStore) Create(_ context.Context, act activitybus.Activity) error {
	s.acts = append(s.acts, act)
	return nil
}
func (s *recordingStore) Query(context.Context, activitybus.QueryFilter, page.Page) ([]activitybus.Activity, error) {
	return s.acts, nil
}
func (s *recordingStore) Count(context.Context, activitybus.QueryFilter) (int, error) {
	return len(s.acts), nil
}

func TestRecordSwallowsFailure(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, logger.LevelInfo, "TEST", nil)

	core := activitybus.NewCore(log, failingStore{})

	core.Record(context.Background(), activitybus.NewActivity{
		Event:      activitybus.EventName("meeting", activitybus.EventCreated),
		EntityType: "meeting",
		EntityID:   uuid.NewString(),
	})

	if !strings.Contains(buf.String(), "mongo unavailable") {
		t.Errorf("expected failure to be logged, got %q", buf.String())
	}
}

func TestRecordStoresActivity(t *testing.T) {
	store := &recordingStore{}
	core := activitybus.NewCore(logger.New(&bytes.Buffer{}, logger.LevelInfo, "TEST", nil), store)

	tenant := uuid.New()
	core.Record(context.Background(), activitybus.NewActivity{
		Event:      "note.deleted",
		EntityType: "note",
		EntityID:   "n-1",
		TenantID:   tenant,
		Metadata:   map[string]any{"title": "Kickoff"},
	})

	if len(store.acts) != 1 {
		t.Fatalf("stored: got %d want 1", len(store.acts))
	}

	act := store.acts[0]
	if act.ID == uuid.Nil || act.CreatedAt.IsZero() {
		t.Errorf("id and timestamp must be set: %+v", act)
	}
	if act.TenantID != tenant || act.Event != "note.deleted" {
		t.Errorf("unexpected activity: %+v", act)
	}
}
