package userapp

import (
	"encoding/json"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/app/sdk/errs"
	"github.com/jcpaschoal/tenantcrm/business/domain/userbus"
	"github.com/jcpaschoal/tenantcrm/business/types/name"
	"github.com/jcpaschoal/tenantcrm/business/types/password"
	"github.com/jcpaschoal/tenantcrm/business/types/role"
)

// User represents information about an individual user.
type User struct {
	ID        string `json:"id"`
	TenantID  string `json:"tenantId,omitempty"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	IsActive  bool   `json:"isActive"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func toAppUser(bus userbus.User) User {
	var tenantID string
	if bus.TenantID != uuid.Nil {
		tenantID = bus.TenantID.String()
	}

	return User{
		ID:        bus.ID.String(),
		TenantID:  tenantID,
		Name:      bus.Name.String(),
		Email:     bus.Email.Address,
		Role:      bus.Role.String(),
		IsActive:  bus.Active,
		CreatedAt: bus.CreatedAt.Format(time.RFC3339),
		UpdatedAt: bus.UpdatedAt.Format(time.RFC3339),
	}
}

func toAppUsers(users []userbus.User) []User {
	app := make([]User, len(users))
	for i, usr := range users {
		app[i] = toAppUser(usr)
	}

	return app
}

// =============================================================================

// NewUser defines the data needed to add a new user.
type NewUser struct {
	TenantID        string `json:"tenantId" validate:"omitempty,uuid"`
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Role            string `json:"role" validate:"required"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"passwordConfirm" validate:"eqfield=Password"`
}

// Decode implements the web.Decoder interface.
func (app *NewUser) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app NewUser) Validate() error {
	if err := errs.Check(app); err != nil {
		return errs.New(errs.InvalidArgument, fmt.Errorf("validate: %w", err))
	}

	return nil
}

// toBusNewUser leaves TenantID for the handler to resolve.
func toBusNewUser(app NewUser) (userbus.NewUser, error) {
	var fieldErrors errs.FieldErrors

	r, err := role.Parse(app.Role)
	if err != nil {
		fieldErrors.Add("role", err)
	}

	addr, err := mail.ParseAddress(app.Email)
	if err != nil {
		fieldErrors.Add("email", err)
	}

	nme, err := name.Parse(app.Name)
	if err != nil {
		fieldErrors.Add("name", err)
	}

	pass, err := password.Parse(app.Password)
	if err != nil {
		fieldErrors.Add("password", err)
	}

	if fieldErrors != nil {
		return userbus.NewUser{}, fieldErrors
	}

	bus := userbus.NewUser{
		Name:     nme,
		Email:    *addr,
		Role:     r,
		Password: pass,
	}

	return bus, nil
}

// UpdateUser defines the data needed to update a user. Activation is not
// part of it; removing a user goes through delete so seat counts stay right.
type UpdateUser struct {
	Name            *string `json:"name"`
	Email           *string `json:"email" validate:"omitempty,email"`
	Role            *string `json:"role"`
	Password        *string `json:"password"`
	PasswordConfirm *string `json:"passwordConfirm" validate:"omitempty,eqfield=Password"`
}

// Decode implements the web.Decoder interface.
func (app *UpdateUser) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app UpdateUser) Validate() error {
	if err := errs.Check(app); err != nil {
		return errs.New(errs.InvalidArgument, fmt.Errorf("validate: %w", err))
	}

	return nil
}

func toBusUpdateUser(app UpdateUser) (userbus.UpdateUser, error) {
	var fieldErrors errs.FieldErrors
	var bus userbus.UpdateUser

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
		} else {
			bus.Email = addr
		}
	}

	if app.Role != nil {
		r, err := role.Parse(*app.Role)
		if err != nil {
			fieldErrors.Add("role", err)
		}
		bus.Role = &r
	}

	if app.Password != nil {
		pass, err := password.Parse(*app.Password)
		if err != nil {
			fieldErrors.Add("password", err)
		}
		bus.Password = &pass
	}

	if fieldErrors != nil {
		return userbus.UpdateUser{}, fieldErrors
	}

	return bus, nil
}
