// Package billingcycle represents how often a subscription is billed.
package billingcycle

import (
	"fmt"
	"time"
)

// The set of billing cycles that can be used.
var (
	Monthly = newCycle("monthly")
	Yearly  = newCycle("yearly")
)

// =============================================================================

var cycles = make(map[string]Cycle)

// Cycle is a billing period length.
type Cycle struct {
	value string
}

func newCycle(v string) Cycle {
	c := Cycle{v}
	cycles[v] = c
	return c
}

// String returns the name of the cycle.
func (c Cycle) String() string {
	return c.value
}

// Equal provides support for the go-cmp package and testing.
func (c Cycle) Equal(c2 Cycle) bool {
	return c.value == c2.value
}

// MarshalText provides support for logging and any marshal needs.
func (c Cycle) MarshalText() ([]byte, error) {
	return []byte(c.value), nil
}

// PeriodEnd returns the end of a billing period starting at start.
func (c Cycle) PeriodEnd(start time.Time) time.Time {
	if c == Yearly {
		return start.AddDate(1, 0, 0)
	}

	return start.AddDate(0, 1, 0)
}

// =============================================================================

// Parse parses the string value and returns a cycle if one exists.
func Parse(value string) (Cycle, error) {
	c, exists := cycles[value]
	if !exists {
		return Cycle{}, fmt.Errorf("invalid billing cycle %q: must be monthly or yearly", value)
	}

	return c, nil
}

// MustParse is Parse that panics on error.
func MustParse(value string) Cycle {
	c, err := Parse(value)
	if err != nil {
		panic(err)
	}

	return c
}
