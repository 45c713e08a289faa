// Package auditaction represents what a user did with a protected record.
package auditaction

import "fmt"

// The set of values that can be used.
var (
	Viewed   = newAction("viewed")
	Edited   = newAction("edited")
	Deleted  = newAction("deleted")
	Exported = newAction("exported")
)

// =============================================================================

var values = make(map[string]Action)

// Action is one value of the set.
type Action struct {
	value string
}

func newAction(v string) Action {
	s := Action{v}
	values[v] = s
	return s
}

// String returns the stored value.
func (s Action) String() string {
	return s.value
}

// Equal provides support for the go-cmp package and testing.
func (s Action) Equal(s2 Action) bool {
	return s.value == s2.value
}

// MarshalText provides support for logging and any marshal needs.
func (s Action) MarshalText() ([]byte, error) {
	return []byte(s.value), nil
}

// =============================================================================

// Parse parses the string value and returns the matching value if one exists.
func Parse(value string) (Action, error) {
	s, exists := values[value]
	if !exists {
		return Action{}, fmt.Errorf("invalid auditaction %q", value)
	}

	return s, nil
}

// MustParse is Parse that panics on error.
func MustParse(value string) Action {
	s, err := Parse(value)
	if err != nil {
		panic(err)
	}

	return s
}
