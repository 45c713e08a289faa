// Package activitybus records the activity feed written after every
// successful mutation.
package activitybus

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/business/sdk/page"
	"github.com/jcpaschoal/tenantcrm/foundation/logger"
	"github.com/jcpaschoal/tenantcrm/foundation/otel"
)

// Storer interface declares the behavior this package needs to persist and
// retrieve data.
type Storer interface {
	Create(ctx context.Context, act Activity) error
	Query(ctx context.Context, filter QueryFilter, page page.Page) ([]Activity, error)
	Count(ctx context.Context, filter QueryFilter) (int, error)
}

// Core manages the set of APIs for activity access.
type Core struct {
	log    *logger.Logger
	storer Storer
}

// NewCore constructs an activity core API for use.
func NewCore(log *logger.Logger, storer Storer) *Core {
	return &Core{
		log:    log,
		storer: storer,
	}
}

// Record writes the activity and waits for the write. A failure is logged
// and never returned so the caller's mutation is unaffected.
func (c *Core) Record(ctx context.Context, na NewActivity) {
	ctx, span := otel.AddSpan(ctx, "business.activitybus.record")
	defer span.End()

	act := Activity{
		ID:         uuid.New(),
		Event:      na.Event,
		EntityType: na.EntityType,
		EntityID:   na.EntityID,
		TenantID:   na.TenantID,
		UserID:     na.UserID,
		Metadata:   na.Metadata,
		CreatedAt:  time.Now(),
	}

	if err := c.storer.Create(ctx, act); err != nil {
		c.log.Error(ctx, "activity: record", "event", act.Event, "entityType", act.EntityType, "entityID", act.EntityID, "ERROR", err)
	}
}

// Query retrieves the newest activities first.
func (c *Core) Query(ctx context.Context, filter QueryFilter, page page.Page) ([]Activity, error) {
	ctx, span := otel.AddSpan(ctx, "business.activitybus.query")
	defer span.End()

	acts, err := c.storer.Query(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	return acts, nil
}

// Count returns the number of activities matching the filter.
func (c *Core) Count(ctx context.Context, filter QueryFilter) (int, error) {
	ctx, span := otel.AddSpan(ctx, "business.activitybus.count")
	defer span.End()

	return c.storer.Count(ctx, filter)
}
