package auditbus

import (
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/business/types/auditaction"
)

// Audit is one append-only record of a user touching a protected record.
type Audit struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	UserID       uuid.UUID
	ResourceType string
	ResourceID   string
	ResourceName string
	Action       auditaction.Action
	IPAddress    string
	UserAgent    string
	CreatedAt    time.Time
}

// NewAudit contains the information needed to log an access. A zero
// Action means viewed.
type NewAudit struct {
	TenantID     uuid.UUID
	UserID       uuid.UUID
	ResourceType string
	ResourceID   string
	ResourceName string
	Action       auditaction.Action
	IPAddress    string
	UserAgent    string
}

// QueryFilter holds the available fields a query can be filtered on.
type QueryFilter struct {
	TenantID     *uuid.UUID
	UserID       *uuid.UUID
	ResourceType *string
	StartDate    *time.Time
	EndDate      *time.Time
}
