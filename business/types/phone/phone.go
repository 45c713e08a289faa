// Package phone represents an optional contact phone number.
package phone

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"
)

// Accepts an optional leading +, digits, spaces, dots, hyphens and
// parentheses.
var phoneRegEx = regexp.MustCompile(`^\+?[0-9\s().-]{3,25}$`)

// Phone is a phone number that may be absent.
type Phone struct {
	value string
}

// String returns the number or an empty string when absent.
func (p Phone) String() string {
	return p.value
}

// Valid reports whether a number is present.
func (p Phone) Valid() bool {
	return p.value != ""
}

// Equal provides support for the go-cmp package and testing.
func (p Phone) Equal(p2 Phone) bool {
	return p.value == p2.value
}

// MarshalText provides support for logging and any marshal needs.
func (p Phone) MarshalText() ([]byte, error) {
	return []byte(p.value), nil
}

// SQL converts the phone to a nullable column value.
func (p Phone) SQL() sql.NullString {
	return sql.NullString{String: p.value, Valid: p.Valid()}
}

// Parse trims the value; an empty value yields an absent phone.
func Parse(value string) (Phone, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Phone{}, nil
	}

	if !phoneRegEx.MatchString(value) {
		return Phone{}, fmt.Errorf("invalid phone %q", value)
	}

	return Phone{value}, nil
}

// MustParse is Parse that panics on error.
func MustParse(value string) Phone {
	p, err := Parse(value)
	if err != nil {
		panic(err)
	}

	return p
}
