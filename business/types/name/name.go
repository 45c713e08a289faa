// Package name represents a display name in the system.
package name

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Name represents a person, organization or record title.
type Name struct {
	value string
}

// String returns the value of the name.
func (n Name) String() string {
	return n.value
}

// Equal provides support for the go-cmp package and testing.
func (n Name) Equal(n2 Name) bool {
	return n.value == n2.value
}

// MarshalText provides support for logging and any marshal needs.
func (n Name) MarshalText() ([]byte, error) {
	return []byte(n.value), nil
}

// =============================================================================

// Parse trims the value and checks it holds between 2 and 200 characters
// with no control characters.
func Parse(value string) (Name, error) {
	value = strings.TrimSpace(value)

	count := utf8.RuneCountInString(value)
	if count < 2 || count > 200 {
		return Name{}, fmt.Errorf("invalid name %q: must be 2-200 characters", value)
	}

	if strings.ContainsAny(value, "\x00\r\n\t") {
		return Name{}, fmt.Errorf("invalid name %q: control characters", value)
	}

	return Name{value}, nil
}

// MustParse parses the string value and returns a name if the value
// complies with the rules for names. If an error occurs the function panics.
func MustParse(value string) Name {
	name, err := Parse(value)
	if err != nil {
		panic(err)
	}

	return name
}
