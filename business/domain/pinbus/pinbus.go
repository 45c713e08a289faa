// Package pinbus implements the per-user viewing PIN that gates sensitive
// records, with email OTP recovery.
package pinbus

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/business/types/pin"
	"github.com/jcpaschoal/tenantcrm/foundation/otel"
	"golang.org/x/crypto/bcrypt"
)

// OTPTTL is how long a reset code stays valid.
const OTPTTL = 10 * time.Minute

// OTPSubject is the subject line of the reset email.
const OTPSubject = "Reset Your Viewing PIN - OTP"

// Set of error variables for the PIN flow.
var (
	ErrNotFound           = errors.New("user not found")
	ErrPinNotSet          = errors.New("viewing PIN is not set")
	ErrPinAlreadySet      = errors.New("viewing PIN is already set, use change instead")
	ErrInvalidPin         = errors.New("invalid PIN")
	ErrCurrentPinRequired = errors.New("current PIN is required")
	ErrNoOTP              = errors.New("no OTP requested, request a new one")
	ErrOTPExpired         = errors.New("OTP has expired, request a new one")
	ErrInvalidOTP         = errors.New("invalid OTP")
)

// Storer interface declares the behavior this package needs to persist and
// retrieve data. Each write is a single row update.
type Storer interface {
	QueryByID(ctx context.Context, userID uuid.UUID) (State, error)
	SetPin(ctx context.Context, userID uuid.UUID, hash []byte, now time.Time) error
	SetOTP(ctx context.Context, userID uuid.UUID, otpHash string, expiresAt time.Time, now time.Time) error
	ResetPin(ctx context.Context, userID uuid.UUID, hash []byte, otpHash string, now time.Time) (bool, error)
}

// Mailer delivers the OTP email.
type Mailer interface {
	Send(ctx context.Context, to string, subject string, body string) error
}

// Core manages the set of APIs for viewing PIN access.
type Core struct {
	storer Storer
	mailer Mailer
}

// NewCore constructs a PIN core API for use.
func NewCore(storer Storer, mailer Mailer) *Core {
	return &Core{
		storer: storer,
		mailer: mailer,
	}
}

// Status reports whether a PIN is set and whether an unexpired OTP exists.
func (c *Core) Status(ctx context.Context, userID uuid.UUID) (Status, error) {
	ctx, span := otel.AddSpan(ctx, "business.pinbus.status")
	defer span.End()

	st, err := c.storer.QueryByID(ctx, userID)
	if err != nil {
		return Status{}, fmt.Errorf("query: userID[%s]: %w", userID, err)
	}

	status := Status{
		IsSet:      st.PinSet,
		OTPPending: st.OTPHash != "" && time.Now().Before(st.OTPExpiresAt),
	}

	return status, nil
}

// Set stores the first PIN for a user.
func (c *Core) Set(ctx context.Context, userID uuid.UUID, p pin.PIN) error {
	ctx, span := otel.AddSpan(ctx, "business.pinbus.set")
	defer span.End()

	st, err := c.storer.QueryByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("query: userID[%s]: %w", userID, err)
	}

	if st.PinSet {
		return ErrPinAlreadySet
	}

	return c.store(ctx, userID, p)
}

// Verify compares the PIN with the stored hash. It changes no state.
func (c *Core) Verify(ctx context.Context, userID uuid.UUID, p pin.PIN) error {
	ctx, span := otel.AddSpan(ctx, "business.pinbus.verify")
	defer span.End()

	st, err := c.storer.QueryByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("query: userID[%s]: %w", userID, err)
	}

	if !st.PinSet {
		return ErrPinNotSet
	}

	if err := bcrypt.CompareHashAndPassword(st.PinHash, []byte(p.String())); err != nil {
		return ErrInvalidPin
	}

	return nil
}

// Change replaces the PIN. When a PIN is already set the current one must
// be supplied and match.
func (c *Core) Change(ctx context.Context, userID uuid.UUID, current *pin.PIN, next pin.PIN) error {
	ctx, span := otel.AddSpan(ctx, "business.pinbus.change")
	defer span.End()

	st, err := c.storer.QueryByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("query: userID[%s]: %w", userID, err)
	}

	if st.PinSet {
		if current == nil {
			return ErrCurrentPinRequired
		}

		if err := bcrypt.CompareHashAndPassword(st.PinHash, []byte(current.String())); err != nil {
			return ErrInvalidPin
		}
	}

	return c.store(ctx, userID, next)
}

// Forgot issues a 6 digit OTP, stores its hash with a 10 minute expiry and
// emails the code to the user.
func (c *Core) Forgot(ctx context.Context, userID uuid.UUID) error {
	ctx, span := otel.AddSpan(ctx, "business.pinbus.forgot")
	defer span.End()

	st, err := c.storer.QueryByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("query: userID[%s]: %w", userID, err)
	}

	otp, err := pin.GenerateOTP()
	if err != nil {
		return fmt.Errorf("generateotp: %w", err)
	}

	now := time.Now()

	if err := c.storer.SetOTP(ctx, userID, otp.Hash(), now.Add(OTPTTL), now); err != nil {
		return fmt.Errorf("setotp: %w", err)
	}

	body := fmt.Sprintf("Your viewing PIN reset code is %s.\n\nThis code is valid for 10 minutes. If you did not request a reset, you can ignore this email.", otp)

	if err := c.mailer.Send(ctx, st.Email.Address, OTPSubject, body); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	return nil
}

// Reset consumes an unexpired OTP and stores the new PIN. An OTP can be
// used exactly once.
func (c *Core) Reset(ctx context.Context, userID uuid.UUID, code string, next pin.PIN) error {
	ctx, span := otel.AddSpan(ctx, "business.pinbus.reset")
	defer span.End()

	st, err := c.storer.QueryByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("query: userID[%s]: %w", userID, err)
	}

	if st.OTPHash == "" {
		return ErrNoOTP
	}

	if !time.Now().Before(st.OTPExpiresAt) {
		return ErrOTPExpired
	}

	otp, err := pin.ParseOTP(code)
	if err != nil {
		return ErrInvalidOTP
	}

	hash := otp.Hash()
	if subtle.ConstantTimeCompare([]byte(hash), []byte(st.OTPHash)) != 1 {
		return ErrInvalidOTP
	}

	pinHash, err := bcrypt.GenerateFromPassword([]byte(next.String()), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("generatefrompassword: %w", err)
	}

	consumed, err := c.storer.ResetPin(ctx, userID, pinHash, hash, time.Now())
	if err != nil {
		return fmt.Errorf("resetpin: %w", err)
	}

	// Another request used the same code first.
	if !consumed {
		return ErrNoOTP
	}

	return nil
}

func (c *Core) store(ctx context.Context, userID uuid.UUID, p pin.PIN) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(p.String()), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("generatefrompassword: %w", err)
	}

	if err := c.storer.SetPin(ctx, userID, hash, time.Now()); err != nil {
		return fmt.Errorf("setpin: %w", err)
	}

	return nil
}
