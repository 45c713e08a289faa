// Package relationbus validates polymorphic references from meetings and
// notes to the lead, account, contact, opportunity and deal tables.
package relationbus

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/business/types/relation"
	"github.com/jcpaschoal/tenantcrm/foundation/otel"
)

// Set of error variables for relation validation.
var (
	ErrUnknownKind    = errors.New("relation kind is not supported")
	ErrTargetNotFound = errors.New("related record not found")
)

// Lookup answers whether an active record of one kind exists in a tenant.
type Lookup interface {
	Exists(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (bool, error)
}

// Core manages the lookup table for related records.
type Core struct {
	lookups map[relation.Kind]Lookup
}

// NewCore constructs a core bound to one Lookup per kind.
func NewCore(lookups map[relation.Kind]Lookup) *Core {
	return &Core{
		lookups: lookups,
	}
}

// Validate checks the reference names a supported kind and a record of that
// kind owned by the tenant. A zero reference is valid.
func (c *Core) Validate(ctx context.Context, tenantID uuid.UUID, ref relation.Ref) error {
	if ref.IsZero() {
		return nil
	}

	ctx, span := otel.AddSpan(ctx, "business.relationbus.validate")
	defer span.End()

	lookup, exists := c.lookups[ref.Kind]
	if !exists {
		return fmt.Errorf("validate: kind[%s]: %w", ref.Kind, ErrUnknownKind)
	}

	found, err := lookup.Exists(ctx, tenantID, ref.ID)
	if err != nil {
		return fmt.Errorf("validate: %s: %w", ref, err)
	}

	if !found {
		return fmt.Errorf("validate: %s: %w", ref, ErrTargetNotFound)
	}

	return nil
}
