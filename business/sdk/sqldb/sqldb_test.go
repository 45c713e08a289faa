package sqldb

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapError(t *testing.T) {
	err := mapError(&pgconn.PgError{Code: uniqueViolation, ConstraintName: "meetings_meeting_id_key"})

	var dup ErrDBDuplicatedEntry
	if !errors.As(err, &dup) {
		t.Fatalf("expected duplicated entry, got %v", err)
	}
	if dup.Column != "meetings_meeting_id_key" {
		t.Errorf("column: got %q", dup.Column)
	}

	if err := mapError(&pgconn.PgError{Code: undefinedTable}); !errors.Is(err, ErrUndefinedTable) {
		t.Errorf("expected undefined table, got %v", err)
	}

	other := errors.New("boom")
	if err := mapError(other); err != other {
		t.Errorf("expected passthrough, got %v", err)
	}
}

func TestILike(t *testing.T) {
	tests := map[string]string{
		"board":   "%board%",
		"50%":     `%50\%%`,
		"a_b":     `%a\_b%`,
		"":        "%%",
		"Zoom Rm": "%Zoom Rm%",
	}

	for in, want := range tests {
		if got := ILike(in); got != want {
			t.Errorf("ILike(%q): got %q want %q", in, got, want)
		}
	}
}
