package tenantapp

import (
	"encoding/json"
	"fmt"
	"net/mail"
	"time"

	"github.com/jcpaschoal/tenantcrm/app/sdk/errs"
	"github.com/jcpaschoal/tenantcrm/business/domain/subscriptionbus"
	"github.com/jcpaschoal/tenantcrm/business/domain/tenantbus"
	"github.com/jcpaschoal/tenantcrm/business/types/name"
	"github.com/jcpaschoal/tenantcrm/business/types/phone"
)

// Subscription is the summary of the tenant's subscription embedded in the
// tenant document.
type Subscription struct {
	ID           string  `json:"id"`
	PlanName     string  `json:"planName"`
	Status       string  `json:"status"`
	IsTrial      bool    `json:"isTrial"`
	BillingCycle string  `json:"billingCycle"`
	Amount       float64 `json:"amount"`
	EndDate      string  `json:"endDate,omitempty"`
	TotalPaid    float64 `json:"totalPaid"`
}

// Tenant represents information about an individual tenant.
type Tenant struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	Slug             string        `json:"slug"`
	Email            string        `json:"email,omitempty"`
	Phone            string        `json:"phone,omitempty"`
	Address          string        `json:"address,omitempty"`
	Industry         string        `json:"industry,omitempty"`
	Website          string        `json:"website,omitempty"`
	IsActive         bool          `json:"isActive"`
	IsSuspended      bool          `json:"isSuspended"`
	SuspensionReason string        `json:"suspensionReason,omitempty"`
	MaxUsers         int           `json:"maxUsers"`
	UserCount        int           `json:"userCount"`
	StorageUsedMB    int64         `json:"storageUsedMB"`
	Subscription     *Subscription `json:"subscription,omitempty"`
	CreatedAt        string        `json:"createdAt"`
	UpdatedAt        string        `json:"updatedAt"`
}

func toAppTenant(bus tenantbus.Tenant) Tenant {
	var email string
	if bus.Email != nil {
		email = bus.Email.Address
	}

	return Tenant{
		ID:               bus.ID.String(),
		Name:             bus.Name.String(),
		Slug:             bus.Slug,
		Email:            email,
		Phone:            bus.Phone.String(),
		Address:          bus.Address,
		Industry:         bus.Industry,
		Website:          bus.Website,
		IsActive:         bus.Active,
		IsSuspended:      bus.Suspended,
		SuspensionReason: bus.SuspensionReason,
		MaxUsers:         bus.MaxUsers,
		UserCount:        bus.UserCount,
		StorageUsedMB:    bus.StorageUsedMB,
		CreatedAt:        bus.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        bus.UpdatedAt.Format(time.RFC3339),
	}
}

func toAppTenants(tenants []tenantbus.Tenant) []Tenant {
	app := make([]Tenant, len(tenants))
	for i, t := range tenants {
		app[i] = toAppTenant(t)
	}

	return app
}

func toAppSubscription(sub subscriptionbus.Subscription) *Subscription {
	var endDate string
	if sub.EndDate != nil {
		endDate = sub.EndDate.Format(time.RFC3339)
	}

	return &Subscription{
		ID:           sub.ID.String(),
		PlanName:     sub.PlanName,
		Status:       sub.Status.String(),
		IsTrial:      sub.IsTrial,
		BillingCycle: sub.BillingCycle.String(),
		Amount:       sub.Amount,
		EndDate:      endDate,
		TotalPaid:    sub.TotalPaid,
	}
}

// =============================================================================

// NewTenant defines the data needed to add a new tenant.
type NewTenant struct {
	Name     string `json:"name" validate:"required"`
	Slug     string `json:"slug" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Industry string `json:"industry"`
	Website  string `json:"website" validate:"omitempty,url"`
	MaxUsers int    `json:"maxUsers" validate:"gte=0"`
}

// Decode implements the web.Decoder interface.
func (app *NewTenant) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app NewTenant) Validate() error {
	if err := errs.Check(app); err != nil {
		return errs.New(errs.InvalidArgument, fmt.Errorf("validate: %w", err))
	}

	return nil
}

func toBusNewTenant(app NewTenant) (tenantbus.NewTenant, error) {
	var fieldErrors errs.FieldErrors

	nme, err := name.Parse(app.Name)
	if err != nil {
		fieldErrors.Add("name", err)
	}

	var email *mail.Address
	if app.Email != "" {
		addr, err := mail.ParseAddress(app.Email)
		if err != nil {
			fieldErrors.Add("email", err)
		}
		email = addr
	}

	ph, err := phone.Parse(app.Phone)
	if err != nil {
		fieldErrors.Add("phone", err)
	}

	if fieldErrors != nil {
		return tenantbus.NewTenant{}, fieldErrors
	}

	bus := tenantbus.NewTenant{
		Name:     nme,
		Slug:     app.Slug,
		Email:    email,
		Phone:    ph,
		Address:  app.Address,
		Industry: app.Industry,
		Website:  app.Website,
		MaxUsers: app.MaxUsers,
	}

	return bus, nil
}

// =============================================================================

// UpdateTenant defines the profile fields a tenant update may change. The
// slug, lifecycle flags and usage counters are ignored when sent.
type UpdateTenant struct {
	Name     *string `json:"name"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
	Industry *string `json:"industry"`
	Website  *string `json:"website" validate:"omitempty,url"`
	MaxUsers *int    `json:"maxUsers" validate:"omitempty,gt=0"`
}

// Decode implements the web.Decoder interface.
func (app *UpdateTenant) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app UpdateTenant) Validate() error {
	if err := errs.Check(app); err != nil {
		return errs.New(errs.InvalidArgument, fmt.Errorf("validate: %w", err))
	}

	return nil
}

func toBusUpdateTenant(app UpdateTenant) (tenantbus.UpdateTenant, error) {
	var fieldErrors errs.FieldErrors

	bus := tenantbus.UpdateTenant{
		Address:  app.Address,
		Industry: app.Industry,
		Website:  app.Website,
		MaxUsers: app.MaxUsers,
	}

	if app.Name != nil {
		nme, err := name.Parse(*app.Name)
		if err != nil {
			fieldErrors.Add("name", err)
		}
		bus.Name = &nme
	}

	if app.Email != nil {
		addr, err := mail.ParseAddress(*app.Email)
		if err != nil {
			fieldErrors.Add("email", err)
		}
		bus.Email = addr
	}

	if app.Phone != nil {
		ph, err := phone.Parse(*app.Phone)
		if err != nil {
			fieldErrors.Add("phone", err)
		}
		bus.Phone = &ph
	}

	if fieldErrors != nil {
		return tenantbus.UpdateTenant{}, fieldErrors
	}

	return bus, nil
}

// =============================================================================

// Suspension carries the optional reason of a suspension.
type Suspension struct {
	Reason string `json:"reason"`
}

// Decode implements the web.Decoder interface.
func (app *Suspension) Decode(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, app)
}

// =============================================================================

// TenantCounts holds the tenant part of the overview.
type TenantCounts struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Suspended int `json:"suspended"`
}

// SubscriptionCounts holds the subscription part of the overview.
type SubscriptionCounts struct {
	ByStatus  map[string]int `json:"byStatus"`
	TotalPaid float64        `json:"totalPaid"`
}

// Overview is the platform wide tenant statistics.
type Overview struct {
	Tenants       TenantCounts       `json:"tenants"`
	Subscriptions SubscriptionCounts `json:"subscriptions"`
}

func toAppOverview(ts tenantbus.Stats, ss subscriptionbus.Stats) Overview {
	byStatus := ss.ByStatus
	if byStatus == nil {
		byStatus = make(map[string]int)
	}

	return Overview{
		Tenants: TenantCounts{
			Total:     ts.Total,
			Active:    ts.Active,
			Suspended: ts.Suspended,
		},
		Subscriptions: SubscriptionCounts{
			ByStatus:  byStatus,
			TotalPaid: ss.TotalPaid,
		},
	}
}
