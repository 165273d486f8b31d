package learn

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmaine-gray/invoice-extractor/internal/textproc"
)

func writePatternFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "patterns.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadPatternsMergesOverDefaults(t *testing.T) {
	path := writePatternFile(t, `fields:
  - name: invoice_number
    label: '(?i)rechnung\s*:?\s*([A-Z0-9-]+)?'
    value: '^[A-Z0-9-]{5,}'
  - name: gct_number
    label: '(?i)gct\s*#?\s*([0-9-]+)?'
    value: '^[0-9-]{5,}'
`)

	patterns, err := LoadPatterns(path)
	if err != nil {
		t.Fatal(err)
	}

	defaults := DefaultPatterns()
	if len(patterns) != len(defaults)+1 {
		t.Fatalf("got %d patterns, want %d", len(patterns), len(defaults)+1)
	}

	// invoice_number keeps its slot but carries the override.
	if patterns[0].Field != "invoice_number" {
		t.Errorf("first pattern is %q", patterns[0].Field)
	}
	if !patterns[0].Label.MatchString("Rechnung: RE-129") {
		t.Error("override label not in effect")
	}
	if patterns[0].Label.MatchString("Invoice Number: 0000085") {
		t.Error("default label survived the override")
	}

	// New field appends after the defaults.
	last := patterns[len(patterns)-1]
	if last.Field != "gct_number" {
		t.Errorf("last pattern is %q", last.Field)
	}
}

func TestLoadPatternsBadRegex(t *testing.T) {
	path := writePatternFile(t, `fields:
  - name: invoice_number
    label: '(['
    value: 'x'
`)
	if _, err := LoadPatterns(path); err == nil {
		t.Fatal("expected error for invalid regex")
	}
}

func TestLoadPatternsMissingFile(t *testing.T) {
	if _, err := LoadPatterns(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadPatternsBadYAML(t *testing.T) {
	path := writePatternFile(t, "fields: [unclosed")
	if _, err := LoadPatterns(path); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}

func TestLearnWithCustomPatterns(t *testing.T) {
	path := writePatternFile(t, `fields:
  - name: invoice_number
    label: '(?i)rechnung\s*(?:nr\.?)?\s*:?\s*([A-Z0-9-]+)?'
    value: '^[A-Z0-9-]{5,}'
`)
	patterns, err := LoadPatterns(path)
	if err != nil {
		t.Fatal(err)
	}

	store := newMemStore()
	l := NewLearner(patterns, store, nil)
	tpl := l.Learn(context.Background(), textproc.SplitLines("Rechnung Nr:\nRE-2024-129"), "")

	pos, ok := tpl.FieldPositions["invoice_number"]
	if !ok {
		t.Fatal("custom label did not locate the field")
	}
	if pos.Line != 1 || pos.Offset != 0 {
		t.Errorf("position = %+v", pos)
	}
}
