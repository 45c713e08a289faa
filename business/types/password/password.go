// Package password represents a plain text password before hashing.
package password

import (
	"errors"
	"unicode/utf8"
)

// ErrTooShort is returned for passwords under the minimum length.
var ErrTooShort = errors.New("password must be at least 8 characters")

// Password holds a plain text password. It never marshals its value.
type Password struct {
	value string
}

// String returns the raw password for hashing.
func (p Password) String() string {
	return p.value
}

// Equal provides support for the go-cmp package and testing.
func (p Password) Equal(p2 Password) bool {
	return p.value == p2.value
}

// MarshalText masks the value for logging.
func (p Password) MarshalText() ([]byte, error) {
	return []byte("[MASKED]"), nil
}

// Parse checks the password meets the minimum length.
func Parse(value string) (Password, error) {
	if utf8.RuneCountInString(value) < 8 {
		return Password{}, ErrTooShort
	}

	return Password{value}, nil
}

// MustParse is Parse that panics on error.
func MustParse(value string) Password {
	p, err := Parse(value)
	if err != nil {
		panic(err)
	}

	return p
}
