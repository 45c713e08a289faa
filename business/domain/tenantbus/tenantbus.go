// Package tenantbus provides business access to tenant domain.
package tenantbus

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/business/sdk/order"
	"github.com/jcpaschoal/tenantcrm/business/sdk/page"
	"github.com/jcpaschoal/tenantcrm/business/sdk/sqldb"
	"github.com/jcpaschoal/tenantcrm/foundation/logger"
	"github.com/jcpaschoal/tenantcrm/foundation/otel"
)

// DefaultMaxUsers is the user limit of a tenant created without one.
const DefaultMaxUsers = 5

// DefaultSuspensionReason is recorded when a suspension names no reason.
const DefaultSuspensionReason = "Suspended by platform administrator"

// Set of error variables for CRUD operations.
var (
	ErrNotFound    = errors.New("tenant not found")
	ErrUniqueSlug  = errors.New("slug is not unique")
	ErrInvalidSlug = errors.New("slug must be lowercase letters, digits and hyphens")
	ErrUserLimit   = errors.New("tenant user limit reached")
)

var slugRegEx = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Storer defines the behavior required by the tenantbus to interact with the database.
type Storer interface {
	NewWithTx(tx sqldb.CommitRollbacker) (Storer, error)
	Create(ctx context.Context, t Tenant) error
	Update(ctx context.Context, t Tenant) error
	Delete(ctx context.Context, t Tenant) error
	Query(ctx context.Context, filter QueryFilter, orderBy order.By, page page.Page) ([]Tenant, error)
	Count(ctx context.Context, filter QueryFilter) (int, error)
	QueryByID(ctx context.Context, tenantID uuid.UUID) (Tenant, error)
	QueryBySlug(ctx context.Context, slug string) (Tenant, error)
	AdjustUserCount(ctx context.Context, tenantID uuid.UUID, delta int) (bool, error)
	Stats(ctx context.Context) (Stats, error)
}

// Core manages the set of APIs for tenant access.
type Core struct {
	storer Storer
	log    *logger.Logger
}

// NewCore constructs a core for tenant api access.
func NewCore(log *logger.Logger, storer Storer) *Core {
	return &Core{
		storer: storer,
		log:    log,
	}
}

// NewWithTx constructs a new Core value replacing the Storer
// value with a Storer value that is currently inside a transaction.
func (c *Core) NewWithTx(tx sqldb.CommitRollbacker) (*Core, error) {
	storer, err := c.storer.NewWithTx(tx)
	if err != nil {
		return nil, fmt.Errorf("newWithTx: %w", err)
	}

	return NewCore(c.log, storer), nil
}

// Create adds a new tenant to the system.
func (c *Core) Create(ctx context.Context, nt NewTenant) (Tenant, error) {
	ctx, span := otel.AddSpan(ctx, "business.tenantbus.create")
	defer span.End()

	slug := strings.ToLower(strings.TrimSpace(nt.Slug))
	if !slugRegEx.MatchString(slug) {
		return Tenant{}, ErrInvalidSlug
	}

	maxUsers := nt.MaxUsers
	if maxUsers <= 0 {
		maxUsers = DefaultMaxUsers
	}

	now := time.Now()

	t := Tenant{
		ID:        uuid.New(),
		Name:      nt.Name,
		Slug:      slug,
		Email:     nt.Email,
		Phone:     nt.Phone,
		Address:   nt.Address,
		Industry:  nt.Industry,
		Website:   nt.Website,
		Active:    true,
		MaxUsers:  maxUsers,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := c.storer.Create(ctx, t); err != nil {
		return Tenant{}, fmt.Errorf("create: %w", err)
	}

	return t, nil
}

// Update modifies the profile of a tenant. Only the fields of UpdateTenant
// can change.
func (c *Core) Update(ctx context.Context, t Tenant, ut UpdateTenant) (Tenant, error) {
	ctx, span := otel.AddSpan(ctx, "business.tenantbus.update")
	defer span.End()

	if ut.Name != nil {
		t.Name = *ut.Name
	}

	if ut.Email != nil {
		t.Email = ut.Email
	}

	if ut.Phone != nil {
		t.Phone = *ut.Phone
	}

	if ut.Address != nil {
		t.Address = *ut.Address
	}

	if ut.Industry != nil {
		t.Industry = *ut.Industry
	}

	if ut.Website != nil {
		t.Website = *ut.Website
	}

	if ut.MaxUsers != nil && *ut.MaxUsers > 0 {
		t.MaxUsers = *ut.MaxUsers
	}

	t.UpdatedAt = time.Now()

	if err := c.storer.Update(ctx, t); err != nil {
		return Tenant{}, fmt.Errorf("update: %w", err)
	}

	return t, nil
}

// Suspend blocks the tenant and records why.
func (c *Core) Suspend(ctx context.Context, t Tenant, reason string) (Tenant, error) {
	ctx, span := otel.AddSpan(ctx, "business.tenantbus.suspend")
	defer span.End()

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultSuspensionReason
	}

	t.Suspended = true
	t.Active = false
	t.SuspensionReason = reason
	t.UpdatedAt = time.Now()

	if err := c.storer.Update(ctx, t); err != nil {
		return Tenant{}, fmt.Errorf("update: %w", err)
	}

	return t, nil
}

// Activate lifts a suspension and clears its reason.
func (c *Core) Activate(ctx context.Context, t Tenant) (Tenant, error) {
	ctx, span := otel.AddSpan(ctx, "business.tenantbus.activate")
	defer span.End()

	t.Suspended = false
	t.Active = true
	t.SuspensionReason = ""
	t.UpdatedAt = time.Now()

	if err := c.storer.Update(ctx, t); err != nil {
		return Tenant{}, fmt.Errorf("update: %w", err)
	}

	return t, nil
}

// Delete physically removes the tenant row. Users and the subscription must
// be removed first, inside the same transaction.
func (c *Core) Delete(ctx context.Context, t Tenant) error {
	ctx, span := otel.AddSpan(ctx, "business.tenantbus.delete")
	defer span.End()

	if err := c.storer.Delete(ctx, t); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	return nil
}

// AddUsers moves the user counter of the tenant by delta. A positive delta
// that would exceed the tenant's user limit fails with ErrUserLimit.
func (c *Core) AddUsers(ctx context.Context, tenantID uuid.UUID, delta int) error {
	ctx, span := otel.AddSpan(ctx, "business.tenantbus.addusers")
	defer span.End()

	ok, err := c.storer.AdjustUserCount(ctx, tenantID, delta)
	if err != nil {
		return fmt.Errorf("adjustusercount: tenantID[%s]: %w", tenantID, err)
	}

	if !ok {
		return ErrUserLimit
	}

	return nil
}

// Query retrieves a list of existing tenants.
func (c *Core) Query(ctx context.Context, filter QueryFilter, orderBy order.By, page page.Page) ([]Tenant, error) {
	ctx, span := otel.AddSpan(ctx, "business.tenantbus.query")
	defer span.End()

	tenants, err := c.storer.Query(ctx, filter, orderBy, page)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	return tenants, nil
}

// Count returns the total number of tenants.
func (c *Core) Count(ctx context.Context, filter QueryFilter) (int, error) {
	ctx, span := otel.AddSpan(ctx, "business.tenantbus.count")
	defer span.End()

	return c.storer.Count(ctx, filter)
}

// QueryByID finds the tenant by the specified ID.
func (c *Core) QueryByID(ctx context.Context, tenantID uuid.UUID) (Tenant, error) {
	ctx, span := otel.AddSpan(ctx, "business.tenantbus.queryByID")
	defer span.End()

	tenant, err := c.storer.QueryByID(ctx, tenantID)
	if err != nil {
		return Tenant{}, fmt.Errorf("query: tenantID[%s]: %w", tenantID, err)
	}

	return tenant, nil
}

// QueryBySlug finds the tenant by its slug.
func (c *Core) QueryBySlug(ctx context.Context, slug string) (Tenant, error) {
	ctx, span := otel.AddSpan(ctx, "business.tenantbus.queryBySlug")
	defer span.End()

	tenant, err := c.storer.QueryBySlug(ctx, slug)
	if err != nil {
		return Tenant{}, fmt.Errorf("query by slug[%s]: %w", slug, err)
	}

	return tenant, nil
}

// Stats counts tenants by lifecycle state.
func (c *Core) Stats(ctx context.Context) (Stats, error) {
	ctx, span := otel.AddSpan(ctx, "business.tenantbus.stats")
	defer span.End()

	st, err := c.storer.Stats(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}

	return st, nil
}
