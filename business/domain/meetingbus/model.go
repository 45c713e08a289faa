package meetingbus

import (
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/business/sdk/order"
	"github.com/jcpaschoal/tenantcrm/business/types/locationtype"
	"github.com/jcpaschoal/tenantcrm/business/types/meetingstatus"
	"github.com/jcpaschoal/tenantcrm/business/types/relation"
)

// Meeting represents a calendar meeting owned by a tenant.
type Meeting struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	MeetingID      string
	MeetingLink    string
	Title          string
	Description    string
	Location       string
	LocationType   locationtype.LocationType
	From           time.Time
	To             time.Time
	HostID         uuid.UUID
	OwnerID        uuid.UUID
	CreatedBy      uuid.UUID
	LastModifiedBy uuid.UUID
	RelatedTo      relation.Ref
	Participants   []uuid.UUID
	Status         meetingstatus.Status
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewMeeting contains information needed to create a new meeting.
type NewMeeting struct {
	TenantID     uuid.UUID
	Title        string
	Description  string
	Location     string
	LocationType locationtype.LocationType
	From         time.Time
	To           time.Time
	HostID       uuid.UUID
	OwnerID      uuid.UUID
	RelatedTo    relation.Ref
	Participants []uuid.UUID
	Status       meetingstatus.Status
	CreatedBy    uuid.UUID
}

// UpdateMeeting contains the fields an update may change. Anything else on
// a meeting is fixed after creation.
type UpdateMeeting struct {
	Title        *string
	Description  *string
	Location     *string
	LocationType *locationtype.LocationType
	From         *time.Time
	To           *time.Time
	HostID       *uuid.UUID
	RelatedTo    *relation.Ref
	Participants []uuid.UUID
	Status       *meetingstatus.Status
}

// QueryFilter holds the available fields a query can be filtered on.
type QueryFilter struct {
	ID            *uuid.UUID
	TenantID      *uuid.UUID
	Search        *string
	Status        *meetingstatus.Status
	RelatedToKind *relation.Kind
	RelatedToID   *uuid.UUID
	HostID        *uuid.UUID
	StartFrom     *time.Time
	EndFrom       *time.Time
	Active        *bool
}

// DefaultOrderBy represents the default way we sort.
var DefaultOrderBy = order.NewBy(OrderByFrom, order.DESC)

// Set of fields that the results can be ordered by.
const (
	OrderByFrom      = "a"
	OrderByTitle     = "b"
	OrderByStatus    = "c"
	OrderByCreatedAt = "d"
)
