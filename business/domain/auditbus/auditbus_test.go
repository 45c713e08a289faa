package auditbus_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/business/domain/auditbus"
	"github.com/jcpaschoal/tenantcrm/business/sdk/page"
	"github.com/jcpaschoal/tenantcrm/business/types/auditaction"
)

type memStore struct {
	rows []auditbus.Audit
}

func (s *memStore) Create(_ context.Context, aud auditbus.Audit) error {
	s.rows = append(s.rows, aud)
	return nil
}

func (s *memStore) Query(_ context.Context, filter auditbus.QueryFilter, _ page.Page) ([]auditbus.Audit, error) {
	var out []auditbus.Audit
	for i := len(s.rows) - 1; i >= 0; i-- {
		if filter.TenantID != nil && s.rows[i].TenantID != *filter.TenantID {
			continue
		}
		out = append(out, s.rows[i])
	}
	return out, nil
}

func (s *memStore) Count(ctx context.Context, filter auditbus.QueryFilter) (int, error) {
	rows, _ := s.Query(ctx, filter, page.MustParse("1", "10"))
	return len(rows), nil
}

func TestLogDefaultsToViewed(t *testing.T) {
	core := auditbus.NewCore(&memStore{})

	aud, err := core.Log(context.Background(), auditbus.NewAudit{
		TenantID:     uuid.New(),
		UserID:       uuid.New(),
		ResourceType: "Contact",
		ResourceID:   "c-42",
	})
	if err != nil {
		t.Fatalf("log: %s", err)
	}

	if !aud.Action.Equal(auditaction.Viewed) {
		t.Errorf("action: got %s want viewed", aud.Action)
	}
}

func TestLogRequiresResource(t *testing.T) {
	core := auditbus.NewCore(&memStore{})

	tests := []auditbus.NewAudit{
		{ResourceID: "c-42"},
		{ResourceType: "Contact"},
		{ResourceType: "  ", ResourceID: "c-42"},
	}

	for _, na := range tests {
		if _, err := core.Log(context.Background(), na); !errors.Is(err, auditbus.ErrMissingResource) {
			t.Errorf("%+v: got %v", na, err)
		}
	}
}

func TestQueryIsTenantScoped(t *testing.T) {
	ctx := context.Background()
	core := auditbus.NewCore(&memStore{})

	mine := uuid.New()
	theirs := uuid.New()

	for _, tenant := range []uuid.UUID{mine, theirs, mine} {
		if _, err := core.Log(ctx, auditbus.NewAudit{TenantID: tenant, ResourceType: "Deal", ResourceID: "d-1", Action: auditaction.Exported}); err != nil {
			t.Fatalf("log: %s", err)
		}
	}

	rows, err := core.Query(ctx, auditbus.QueryFilter{TenantID: &mine}, page.MustParse("1", "10"))
	if err != nil {
		t.Fatalf("query: %s", err)
	}

	if len(rows) != 2 {
		t.Fatalf("rows: got %d want 2", len(rows))
	}
	for _, r := range rows {
		if r.TenantID != mine {
			t.Errorf("leaked row from tenant %s", r.TenantID)
		}
	}
}
