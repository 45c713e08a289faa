package activitybus

import (
	"time"

	"github.com/google/uuid"
)

// Activity is one entry of the activity feed.
type Activity struct {
	ID         uuid.UUID
	Event      string
	EntityType string
	EntityID   string
	TenantID   uuid.UUID
	UserID     uuid.UUID
	Metadata   map[string]any
	CreatedAt  time.Time
}

// NewActivity describes a mutation to record.
type NewActivity struct {
	Event      string
	EntityType string
	EntityID   string
	TenantID   uuid.UUID
	UserID     uuid.UUID
	Metadata   map[string]any
}

// QueryFilter holds the available fields a query can be filtered on.
type QueryFilter struct {
	TenantID   *uuid.UUID
	EntityType *string
	EntityID   *string
	UserID     *uuid.UUID
}

// Set of event names recorded by the CRUD handlers.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// EventName joins an entity type and an event, ie "meeting.created".
func EventName(entityType string, event string) string {
	return entityType + "." + event
}
