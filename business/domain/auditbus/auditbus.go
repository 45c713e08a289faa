// Package auditbus provides the access audit log for records opened behind
// the viewing PIN.
package auditbus

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/business/sdk/page"
	"github.com/jcpaschoal/tenantcrm/business/types/auditaction"
	"github.com/jcpaschoal/tenantcrm/foundation/otel"
)

// ErrMissingResource is returned when the resource type or id is empty.
var ErrMissingResource = errors.New("resourceType and resourceId are required")

// Storer interface declares the behavior this package needs to persist and
// retrieve data.
type Storer interface {
	Create(ctx context.Context, aud Audit) error
	Query(ctx context.Context, filter QueryFilter, page page.Page) ([]Audit, error)
	Count(ctx context.Context, filter QueryFilter) (int, error)
}

// Core manages the set of APIs for audit access.
type Core struct {
	storer Storer
}

// NewCore constructs an audit core API for use.
func NewCore(storer Storer) *Core {
	return &Core{
		storer: storer,
	}
}

// Log appends one audit row.
func (c *Core) Log(ctx context.Context, na NewAudit) (Audit, error) {
	ctx, span := otel.AddSpan(ctx, "business.auditbus.log")
	defer span.End()

	if strings.TrimSpace(na.ResourceType) == "" || strings.TrimSpace(na.ResourceID) == "" {
		return Audit{}, ErrMissingResource
	}

	action := na.Action
	if action.String() == "" {
		action = auditaction.Viewed
	}

	aud := Audit{
		ID:           uuid.New(),
		TenantID:     na.TenantID,
		UserID:       na.UserID,
		ResourceType: na.ResourceType,
		ResourceID:   na.ResourceID,
		ResourceName: na.ResourceName,
		Action:       action,
		IPAddress:    na.IPAddress,
		UserAgent:    na.UserAgent,
		CreatedAt:    time.Now(),
	}

	if err := c.storer.Create(ctx, aud); err != nil {
		return Audit{}, fmt.Errorf("create: %w", err)
	}

	return aud, nil
}

// Query retrieves audit rows, newest first.
func (c *Core) Query(ctx context.Context, filter QueryFilter, page page.Page) ([]Audit, error) {
	ctx, span := otel.AddSpan(ctx, "business.auditbus.query")
	defer span.End()

	auds, err := c.storer.Query(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	return auds, nil
}

// Count returns the number of audit rows matching the filter.
func (c *Core) Count(ctx context.Context, filter QueryFilter) (int, error) {
	ctx, span := otel.AddSpan(ctx, "business.auditbus.count")
	defer span.End()

	return c.storer.Count(ctx, filter)
}
