package activityapp

import (
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/business/domain/activitybus"
)

// Activity is one entry of the activity feed.
type Activity struct {
	ID         string         `json:"id"`
	Event      string         `json:"event"`
	EntityType string         `json:"entityType"`
	EntityID   string         `json:"entityId"`
	TenantID   string         `json:"tenantId,omitempty"`
	UserID     string         `json:"userId,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  string         `json:"createdAt"`
}

func toAppActivity(bus activitybus.Activity) Activity {
	act := Activity{
		ID:         bus.ID.String(),
		Event:      bus.Event,
		EntityType: bus.EntityType,
		EntityID:   bus.EntityID,
		Metadata:   bus.Metadata,
		CreatedAt:  bus.CreatedAt.Format(time.RFC3339),
	}

	if bus.TenantID != uuid.Nil {
		act.TenantID = bus.TenantID.String()
	}

	if bus.UserID != uuid.Nil {
		act.UserID = bus.UserID.String()
	}

	return act
}

func toAppActivities(acts []activitybus.Activity) []Activity {
	app := make([]Activity, len(acts))
	for i, act := range acts {
		app[i] = toAppActivity(act)
	}

	return app
}
