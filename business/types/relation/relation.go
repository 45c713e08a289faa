// Package relation represents a typed reference from a record to a lead,
// account, contact, opportunity or deal.
package relation

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// The set of kinds a record may be related to.
var (
	Lead        = newKind("Lead")
	Account     = newKind("Account")
	Contact     = newKind("Contact")
	Opportunity = newKind("Opportunity")
	Deal        = newKind("Deal")
)

// ErrUnknownKind is returned when parsing a kind that does not exist.
var ErrUnknownKind = errors.New("unknown relation kind")

// =============================================================================

var kinds = make(map[string]Kind)

// Kind names the type of the related record.
type Kind struct {
	value string
}

func newKind(kind string) Kind {
	k := Kind{kind}
	kinds[kind] = k
	return k
}

// String returns the name of the kind.
func (k Kind) String() string {
	return k.value
}

// Equal provides support for the go-cmp package and testing.
func (k Kind) Equal(k2 Kind) bool {
	return k.value == k2.value
}

// MarshalText provides support for logging and any marshal needs.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.value), nil
}

// ParseKind parses the string value and returns a kind if one exists.
func ParseKind(value string) (Kind, error) {
	k, exists := kinds[value]
	if !exists {
		return Kind{}, fmt.Errorf("%w %q", ErrUnknownKind, value)
	}

	return k, nil
}

// Kinds returns every known kind.
func Kinds() []Kind {
	return []Kind{Lead, Account, Contact, Opportunity, Deal}
}

// =============================================================================

// Ref is the tagged union of a kind and the id of a record of that kind.
// The zero Ref means the record is not related to anything.
type Ref struct {
	Kind Kind
	ID   uuid.UUID
}

// IsZero reports whether the reference is empty.
func (r Ref) IsZero() bool {
	return r.Kind == Kind{} && r.ID == uuid.Nil
}

// String renders the reference as kind:id.
func (r Ref) String() string {
	if r.IsZero() {
		return ""
	}

	return r.Kind.value + ":" + r.ID.String()
}

// Parse builds a reference from its two request fields. Both must be set
// together or both left empty.
func Parse(kind string, id string) (Ref, error) {
	switch {
	case kind == "" && id == "":
		return Ref{}, nil
	case kind == "" || id == "":
		return Ref{}, errors.New("relatedTo and relatedToId must be provided together")
	}

	k, err := ParseKind(kind)
	if err != nil {
		return Ref{}, err
	}

	uid, err := uuid.Parse(id)
	if err != nil {
		return Ref{}, fmt.Errorf("relatedToId: %w", err)
	}

	return Ref{Kind: k, ID: uid}, nil
}
