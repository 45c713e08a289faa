package viewingpinapp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/app/sdk/errs"
	"github.com/jcpaschoal/tenantcrm/business/domain/auditbus"
	"github.com/jcpaschoal/tenantcrm/business/domain/pinbus"
	"github.com/jcpaschoal/tenantcrm/business/types/auditaction"
	"github.com/jcpaschoal/tenantcrm/business/types/pin"
)

// Status reports the PIN state of the caller.
type Status struct {
	IsSet      bool `json:"isSet"`
	OTPPending bool `json:"otpPending"`
}

func toAppStatus(bus pinbus.Status) Status {
	return Status{
		IsSet:      bus.IsSet,
		OTPPending: bus.OTPPending,
	}
}

// Audit represents one access audit row.
type Audit struct {
	ID           string `json:"id"`
	TenantID     string `json:"tenantId,omitempty"`
	UserID       string `json:"userId"`
	ResourceType string `json:"resourceType"`
	ResourceID   string `json:"resourceId"`
	ResourceName string `json:"resourceName,omitempty"`
	Action       string `json:"action"`
	IPAddress    string `json:"ipAddress,omitempty"`
	UserAgent    string `json:"userAgent,omitempty"`
	CreatedAt    string `json:"createdAt"`
}

func toAppAudit(bus auditbus.Audit) Audit {
	var tenantID string
	if bus.TenantID != uuid.Nil {
		tenantID = bus.TenantID.String()
	}

	return Audit{
		ID:           bus.ID.String(),
		TenantID:     tenantID,
		UserID:       bus.UserID.String(),
		ResourceType: bus.ResourceType,
		ResourceID:   bus.ResourceID,
		ResourceName: bus.ResourceName,
		Action:       bus.Action.String(),
		IPAddress:    bus.IPAddress,
		UserAgent:    bus.UserAgent,
		CreatedAt:    bus.CreatedAt.Format(time.RFC3339),
	}
}

func toAppAudits(auds []auditbus.Audit) []Audit {
	app := make([]Audit, len(auds))
	for i, aud := range auds {
		app[i] = toAppAudit(aud)
	}

	return app
}

// =============================================================================

// PinInput carries a single PIN, used by set and verify.
type PinInput struct {
	Pin string `json:"pin" validate:"required"`
}

// Decode implements the web.Decoder interface.
func (app *PinInput) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app PinInput) Validate() error {
	if err := errs.Check(app); err != nil {
		return errs.New(errs.InvalidArgument, fmt.Errorf("validate: %w", err))
	}

	return nil
}

// ChangePin replaces the PIN. CurrentPin is required once a PIN is set.
type ChangePin struct {
	CurrentPin *string `json:"currentPin"`
	NewPin     string  `json:"newPin" validate:"required"`
}

// Decode implements the web.Decoder interface.
func (app *ChangePin) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app ChangePin) Validate() error {
	if err := errs.Check(app); err != nil {
		return errs.New(errs.InvalidArgument, fmt.Errorf("validate: %w", err))
	}

	return nil
}

// ResetPin consumes an emailed OTP and stores a new PIN.
type ResetPin struct {
	OTP    string `json:"otp" validate:"required"`
	NewPin string `json:"newPin" validate:"required"`
}

// Decode implements the web.Decoder interface.
func (app *ResetPin) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app ResetPin) Validate() error {
	if err := errs.Check(app); err != nil {
		return errs.New(errs.InvalidArgument, fmt.Errorf("validate: %w", err))
	}

	return nil
}

// LogAccess records that the caller opened a protected record.
type LogAccess struct {
	ResourceType string `json:"resourceType" validate:"required"`
	ResourceID   string `json:"resourceId" validate:"required"`
	ResourceName string `json:"resourceName"`
	Action       string `json:"action" validate:"omitempty,oneof=viewed edited deleted exported"`
}

// Decode implements the web.Decoder interface.
func (app *LogAccess) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app LogAccess) Validate() error {
	if err := errs.Check(app); err != nil {
		return errs.New(errs.InvalidArgument, fmt.Errorf("validate: %w", err))
	}

	return nil
}

func toBusNewAudit(app LogAccess) (auditbus.NewAudit, error) {
	bus := auditbus.NewAudit{
		ResourceType: app.ResourceType,
		ResourceID:   app.ResourceID,
		ResourceName: app.ResourceName,
	}

	if app.Action != "" {
		action, err := auditaction.Parse(app.Action)
		if err != nil {
			return auditbus.NewAudit{}, errs.NewFieldErrors("action", err)
		}
		bus.Action = action
	}

	return bus, nil
}

func parsePin(field string, value string) (pin.PIN, *errs.Error) {
	p, err := pin.Parse(value)
	if err != nil {
		return pin.PIN{}, errs.NewFieldErrors(field, err)
	}

	return p, nil
}
