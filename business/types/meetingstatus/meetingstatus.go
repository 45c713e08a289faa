// Package meetingstatus represents the lifecycle state of a meeting.
package meetingstatus

import "fmt"

// The set of values that can be used.
var (
	Scheduled   = newStatus("Scheduled")
	Completed   = newStatus("Completed")
	Cancelled   = newStatus("Cancelled")
	Rescheduled = newStatus("Rescheduled")
)

// =============================================================================

var values = make(map[string]Status)

// Status is one value of the set.
type Status struct {
	value string
}

func newStatus(v string) Status {
	s := Status{v}
	values[v] = s
	return s
}

// String returns the stored value.
func (s Status) String() string {
	return s.value
}

// Equal provides support for the go-cmp package and testing.
func (s Status) Equal(s2 Status) bool {
	return s.value == s2.value
}

// MarshalText provides support for logging and any marshal needs.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.value), nil
}

// =============================================================================

// Parse parses the string value and returns the matching value if one exists.
func Parse(value string) (Status, error) {
	s, exists := values[value]
	if !exists {
		return Status{}, fmt.Errorf("invalid meetingstatus %q", value)
	}

	return s, nil
}

// MustParse is Parse that panics on error.
func MustParse(value string) Status {
	s, err := Parse(value)
	if err != nil {
		panic(err)
	}

	return s
}
