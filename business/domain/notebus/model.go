package notebus

import (
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/business/sdk/order"
	"github.com/jcpaschoal/tenantcrm/business/types/relation"
)

// Note represents a free text note attached to a CRM record.
type Note struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	Title          string
	Content        string
	RelatedTo      relation.Ref
	OwnerID        uuid.UUID
	CreatedBy      uuid.UUID
	LastModifiedBy uuid.UUID
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewNote contains information needed to create a new note.
type NewNote struct {
	TenantID  uuid.UUID
	Title     string
	Content   string
	RelatedTo relation.Ref
	OwnerID   uuid.UUID
	CreatedBy uuid.UUID
}

// UpdateNote contains the fields an update may change.
type UpdateNote struct {
	Title     *string
	Content   *string
	RelatedTo *relation.Ref
}

// QueryFilter holds the available fields a query can be filtered on.
type QueryFilter struct {
	ID            *uuid.UUID
	TenantID      *uuid.UUID
	Search        *string
	RelatedToKind *relation.Kind
	RelatedToID   *uuid.UUID
	OwnerID       *uuid.UUID
	Active        *bool
}

// DefaultOrderBy represents the default way we sort.
var DefaultOrderBy = order.NewBy(OrderByCreatedAt, order.DESC)

// Set of fields that the results can be ordered by.
const (
	OrderByCreatedAt = "a"
	OrderByTitle     = "b"
	OrderByUpdatedAt = "c"
)
