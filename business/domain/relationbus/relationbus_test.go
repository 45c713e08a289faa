package relationbus_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/business/domain/relationbus"
	"github.com/jcpaschoal/tenantcrm/business/types/relation"
)

type setLookup map[[2]uuid.UUID]bool

func (s setLookup) Exists(_ context.Context, tenantID uuid.UUID, id uuid.UUID) (bool, error) {
	return s[[2]uuid.UUID{tenantID, id}], nil
}

func TestValidate(t *testing.T) {
	ctx := context.Background()

	tenant := uuid.New()
	otherTenant := uuid.New()
	lead := uuid.New()

	core := relationbus.NewCore(map[relation.Kind]relationbus.Lookup{
		relation.Lead: setLookup{{tenant, lead}: true},
	})

	if err := core.Validate(ctx, tenant, relation.Ref{}); err != nil {
		t.Errorf("zero ref: %s", err)
	}

	if err := core.Validate(ctx, tenant, relation.Ref{Kind: relation.Lead, ID: lead}); err != nil {
		t.Errorf("existing lead: %s", err)
	}

	err := core.Validate(ctx, otherTenant, relation.Ref{Kind: relation.Lead, ID: lead})
	if !errors.Is(err, relationbus.ErrTargetNotFound) {
		t.Errorf("lead in other tenant: got %v", err)
	}

	err = core.Validate(ctx, tenant, relation.Ref{Kind: relation.Deal, ID: lead})
	if !errors.Is(err, relationbus.ErrUnknownKind) {
		t.Errorf("unbound kind: got %v", err)
	}

	err = core.Validate(ctx, tenant, relation.Ref{Kind: relation.Lead, ID: uuid.New()})
	if !errors.Is(err, relationbus.ErrTargetNotFound) {
		t.Errorf("missing lead: got %v", err)
	}
}
