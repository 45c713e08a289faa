package page_test

import (
	"testing"

	"github.com/jcpaschoal/tenantcrm/business/sdk/page"
)

func TestParseDefaults(t *testing.T) {
	pg, err := page.Parse("", "")
	if err != nil {
		t.Fatalf("parse: %s", err)
	}

	if pg.Number() != 1 || pg.RowsPerPage() != 10 {
		t.Errorf("got %s, want page 1 rows 10", pg)
	}
}

func TestParseBounds(t *testing.T) {
	tests := []struct {
		name  string
		page  string
		rows  string
		valid bool
	}{
		{"ok", "2", "25", true},
		{"max", "1", "100", true},
		{"zero page", "0", "10", false},
		{"negative rows", "1", "-1", false},
		{"too many rows", "1", "101", false},
		{"not a number", "x", "10", false},
		{"last page", "1000000", "100", true},
		{"page past cap", "1000001", "10", false},
		{"page near max int", "9223372036854775807", "100", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := page.Parse(tt.page, tt.rows)
			if (err == nil) != tt.valid {
				t.Errorf("valid: got %t want %t (err %v)", err == nil, tt.valid, err)
			}
		})
	}
}

func TestPages(t *testing.T) {
	pg := page.MustParse("3", "10")

	if got := pg.Offset(); got != 20 {
		t.Errorf("offset: got %d want 20", got)
	}

	last := page.MustParse("1000000", "100")
	if got := last.Offset(); got != 99_999_900 {
		t.Errorf("offset at cap: got %d want 99999900", got)
	}

	tests := map[int]int{0: 0, 1: 1, 10: 1, 11: 2, 95: 10}
	for total, want := range tests {
		if got := pg.Pages(total); got != want {
			t.Errorf("pages(%d): got %d want %d", total, got, want)
		}
	}
}
