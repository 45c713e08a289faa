// Package tenancy holds the single rule deciding which tenant's rows a
// caller may see or change.
package tenancy

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/business/types/role"
)

// Set of errors returned by the scoping checks.
var (
	ErrAccessDenied   = errors.New("access denied")
	ErrTenantRequired = errors.New("tenant is required")
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID   uuid.UUID
	TenantID uuid.UUID
	Role     role.Role
}

// Privileged reports whether the actor operates across all tenants.
func (a Actor) Privileged() bool {
	return a.Role.IsPlatform()
}

// ScopeFilter returns the tenant every query must be restricted to, or nil
// when the actor may see all tenants.
func (a Actor) ScopeFilter() *uuid.UUID {
	if a.Privileged() {
		return nil
	}

	id := a.TenantID
	return &id
}

// CheckTenant returns ErrAccessDenied when a row owned by tenantID is not
// visible to the actor.
func (a Actor) CheckTenant(tenantID uuid.UUID) error {
	if a.Privileged() {
		return nil
	}

	if a.TenantID == uuid.Nil || a.TenantID != tenantID {
		return ErrAccessDenied
	}

	return nil
}

// ResolveTenant picks the owning tenant for a new row. Privileged actors
// must name one; everyone else is forced to their own tenant.
func (a Actor) ResolveTenant(requested uuid.UUID) (uuid.UUID, error) {
	if a.Privileged() {
		if requested == uuid.Nil {
			return uuid.Nil, ErrTenantRequired
		}
		return requested, nil
	}

	if a.TenantID == uuid.Nil {
		return uuid.Nil, ErrAccessDenied
	}

	return a.TenantID, nil
}

// QueryTenant resolves the tenant a privileged actor asked to read, or the
// actor's own tenant otherwise. A nil result means all tenants.
func (a Actor) QueryTenant(requested *uuid.UUID) *uuid.UUID {
	if a.Privileged() {
		return requested
	}

	return a.ScopeFilter()
}
