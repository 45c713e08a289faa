// Package pin represents a viewing PIN and the one-time codes used to
// reset it.
package pin

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"regexp"
)

// ErrInvalidFormat is returned when a PIN is not exactly 4 digits.
var ErrInvalidFormat = errors.New("PIN must be exactly 4 digits")

// ErrInvalidOTPFormat is returned when an OTP is not exactly 6 digits.
var ErrInvalidOTPFormat = errors.New("OTP must be exactly 6 digits")

var (
	pinRegEx = regexp.MustCompile(`^[0-9]{4}$`)
	otpRegEx = regexp.MustCompile(`^[0-9]{6}$`)
)

// PIN is a 4 digit viewing PIN in plain text.
type PIN struct {
	value string
}

// String returns the PIN digits.
func (p PIN) String() string {
	return p.value
}

// Equal provides support for the go-cmp package and testing.
func (p PIN) Equal(p2 PIN) bool {
	return p.value == p2.value
}

// MarshalText masks the value for logging.
func (p PIN) MarshalText() ([]byte, error) {
	return []byte("****"), nil
}

// Parse validates the value is exactly 4 digits.
func Parse(value string) (PIN, error) {
	if !pinRegEx.MatchString(value) {
		return PIN{}, ErrInvalidFormat
	}

	return PIN{value}, nil
}

// MustParse is Parse that panics on error.
func MustParse(value string) PIN {
	p, err := Parse(value)
	if err != nil {
		panic(err)
	}

	return p
}

// =============================================================================

// OTP is a 6 digit one-time code.
type OTP struct {
	value string
}

// String returns the OTP digits.
func (o OTP) String() string {
	return o.value
}

// Hash returns the hex encoded SHA-256 of the code.
func (o OTP) Hash() string {
	sum := sha256.Sum256([]byte(o.value))
	return hex.EncodeToString(sum[:])
}

// ParseOTP validates the value is exactly 6 digits.
func ParseOTP(value string) (OTP, error) {
	if !otpRegEx.MatchString(value) {
		return OTP{}, ErrInvalidOTPFormat
	}

	return OTP{value}, nil
}

// GenerateOTP returns a uniformly random 6 digit code.
func GenerateOTP() (OTP, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return OTP{}, fmt.Errorf("rand: %w", err)
	}

	return OTP{fmt.Sprintf("%06d", n.Int64())}, nil
}
