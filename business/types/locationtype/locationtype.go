// Package locationtype represents where a meeting takes place.
package locationtype

import "fmt"

// The set of values that can be used.
var (
	InPerson = newLocationType("in_person")
	Online   = newLocationType("online")
	Phone    = newLocationType("phone")
)

// =============================================================================

var values = make(map[string]LocationType)

// LocationType is one value of the set.
type LocationType struct {
	value string
}

func newLocationType(v string) LocationType {
	s := LocationType{v}
	values[v] = s
	return s
}

// String returns the stored value.
func (s LocationType) String() string {
	return s.value
}

// Equal provides support for the go-cmp package and testing.
func (s LocationType) Equal(s2 LocationType) bool {
	return s.value == s2.value
}

// MarshalText provides support for logging and any marshal needs.
func (s LocationType) MarshalText() ([]byte, error) {
	return []byte(s.value), nil
}

// =============================================================================

// Parse parses the string value and returns the matching value if one exists.
func Parse(value string) (LocationType, error) {
	s, exists := values[value]
	if !exists {
		return LocationType{}, fmt.Errorf("invalid locationtype %q", value)
	}

	return s, nil
}

// MustParse is Parse that panics on error.
func MustParse(value string) LocationType {
	s, err := Parse(value)
	if err != nil {
		panic(err)
	}

	return s
}
