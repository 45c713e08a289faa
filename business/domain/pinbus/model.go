package pinbus

import (
	"net/mail"
	"time"

	"github.com/google/uuid"
)

// State is the viewing PIN state stored on a user.
type State struct {
	UserID       uuid.UUID
	Email        mail.Address
	PinHash      []byte
	PinSet       bool
	OTPHash      string
	OTPExpiresAt time.Time
}

// Status is the client visible summary of a user's PIN state.
type Status struct {
	IsSet      bool
	OTPPending bool
}
