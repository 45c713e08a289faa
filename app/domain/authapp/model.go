package authapp

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/app/sdk/errs"
	"github.com/jcpaschoal/tenantcrm/business/domain/userbus"
)

// Token is returned by a successful login.
type Token struct {
	Token     string  `json:"token"`
	ExpiresAt string  `json:"expiresAt"`
	User      Profile `json:"user"`
}

// Profile describes the logged in user.
type Profile struct {
	ID       string `json:"id"`
	TenantID string `json:"tenantId,omitempty"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func toAppProfile(usr userbus.User) Profile {
	var tenantID string
	if usr.TenantID != uuid.Nil {
		tenantID = usr.TenantID.String()
	}

	return Profile{
		ID:       usr.ID.String(),
		TenantID: tenantID,
		Name:     usr.Name.String(),
		Email:    usr.Email.Address,
		Role:     usr.Role.String(),
	}
}

// Login carries the credentials.
type Login struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Decode implements the web.Decoder interface.
func (app *Login) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app Login) Validate() error {
	if err := errs.Check(app); err != nil {
		return errs.New(errs.InvalidArgument, fmt.Errorf("validate: %w", err))
	}

	return nil
}
