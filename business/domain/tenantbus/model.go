package tenantbus

import (
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/business/sdk/order"
	"github.com/jcpaschoal/tenantcrm/business/types/name"
	"github.com/jcpaschoal/tenantcrm/business/types/phone"
)

// Tenant represents a client organization in the system.
type Tenant struct {
	ID               uuid.UUID
	Name             name.Name
	Slug             string
	Email            *mail.Address
	Phone            phone.Phone
	Address          string
	Industry         string
	Website          string
	Active           bool
	Suspended        bool
	SuspensionReason string
	MaxUsers         int
	UserCount        int
	StorageUsedMB    int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewTenant contains information needed to create a new tenant.
type NewTenant struct {
	Name     name.Name
	Slug     string
	Email    *mail.Address
	Phone    phone.Phone
	Address  string
	Industry string
	Website  string
	MaxUsers int
}

// UpdateTenant contains the fields a tenant profile update may change. The
// slug, lifecycle flags and usage counters are not part of it.
type UpdateTenant struct {
	Name     *name.Name
	Email    *mail.Address
	Phone    *phone.Phone
	Address  *string
	Industry *string
	Website  *string
	MaxUsers *int
}

// Stats summarizes the tenant population.
type Stats struct {
	Total     int
	Active    int
	Suspended int
}

// QueryFilter holds the available fields a query can be filtered on.
type QueryFilter struct {
	ID        *uuid.UUID
	Search    *string
	Active    *bool
	Suspended *bool
}

// DefaultOrderBy represents the default way we sort.
var DefaultOrderBy = order.NewBy(OrderByCreatedAt, order.DESC)

// Set of fields that the results can be ordered by.
const (
	OrderByID        = "a"
	OrderByName      = "b"
	OrderBySlug      = "c"
	OrderByCreatedAt = "d"
)
