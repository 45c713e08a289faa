// Package substatus represents the states of a tenant subscription and the
// transitions allowed between them.
package substatus

import "fmt"

// The set of statuses that can be used.
var (
	Trial     = newStatus("trial")
	Active    = newStatus("active")
	Suspended = newStatus("suspended")
	Cancelled = newStatus("cancelled")
	Expired   = newStatus("expired")
)

var transitions = map[Status][]Status{
	Trial:     {Active, Cancelled, Suspended, Expired},
	Active:    {Active, Cancelled, Suspended, Expired},
	Suspended: {Active, Cancelled},
	Cancelled: {Active},
	Expired:   {Active},
}

// =============================================================================

var statuses = make(map[string]Status)

// Status is a subscription state.
type Status struct {
	value string
}

func newStatus(v string) Status {
	s := Status{v}
	statuses[v] = s
	return s
}

// String returns the name of the status.
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

// CanTransition reports whether moving from s to to is allowed.
func (s Status) CanTransition(to Status) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}

	return false
}

// =============================================================================

// Parse parses the string value and returns a status if one exists.
func Parse(value string) (Status, error) {
	s, exists := statuses[value]
	if !exists {
		return Status{}, fmt.Errorf("invalid subscription status %q", value)
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

// All returns every status.
func All() []Status {
	return []Status{Trial, Active, Suspended, Cancelled, Expired}
}
