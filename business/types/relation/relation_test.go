package relation_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/business/types/relation"
)

func TestParse(t *testing.T) {
	id := uuid.New()

	ref, err := relation.Parse("Deal", id.String())
	if err != nil {
		t.Fatalf("parse: %s", err)
	}
	if !ref.Kind.Equal(relation.Deal) || ref.ID != id {
		t.Errorf("got %s", ref)
	}

	empty, err := relation.Parse("", "")
	if err != nil || !empty.IsZero() {
		t.Errorf("empty: got %v, %v", empty, err)
	}

	if _, err := relation.Parse("Invoice", id.String()); !errors.Is(err, relation.ErrUnknownKind) {
		t.Errorf("unknown kind: got %v", err)
	}

	if _, err := relation.Parse("Lead", ""); err == nil {
		t.Error("expected error for kind without id")
	}

	if _, err := relation.Parse("Lead", "not-a-uuid"); err == nil {
		t.Error("expected error for bad id")
	}
}
