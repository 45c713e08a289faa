package migrate

import (
	"strings"
	"testing"
)

func TestParseEmbedded(t *testing.T) {
	migs, err := Parse(migrateDoc)
	if err != nil {
		t.Fatalf("parse: %s", err)
	}

	if len(migs) == 0 {
		t.Fatal("expected migrations")
	}

	for i, m := range migs {
		if m.Description == "" {
			t.Errorf("version %s: missing description", m.Version)
		}
		if strings.TrimSpace(m.Script) == "" {
			t.Errorf("version %s: empty script", m.Version)
		}
		if i > 0 && m.Version <= migs[i-1].Version {
			t.Errorf("version %s is not after %s", m.Version, migs[i-1].Version)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := map[string]string{
		"stray statement": "CREATE TABLE x ();\n-- Version: 1.0\n",
		"duplicate":       "-- Version: 1.0\n-- Description: a\nSELECT 1;\n-- Version: 1.0\n-- Description: b\nSELECT 2;\n",
		"orphan desc":     "-- Description: nothing\n",
	}

	for name, doc := range tests {
		if _, err := Parse(doc); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
