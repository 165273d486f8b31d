package learn

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// FieldPattern pairs a field name with the label regex that anchors it and
// the value regex used to look ahead when the label line carries no inline
// value. Label group 1, when present and matched, is the inline value.
type FieldPattern struct {
	Field string
	Label *regexp.Regexp
	Value *regexp.Regexp
}

// DefaultPatterns is the ordered, first-match-wins pattern table the learner
// scans with. Order matters: earlier entries claim their field first.
func DefaultPatterns() []FieldPattern {
	return []FieldPattern{
		{
			Field: "invoice_number",
			Label: regexp.MustCompile(`(?i)invoice\s*(?:number|no\.?|#)\s*:?\s*([A-Z0-9-]+)?`),
			Value: regexp.MustCompile(`^[A-Z0-9-]{5,}`),
		},
		{
			Field: "issue_date",
			Label: regexp.MustCompile(`(?i)(?:invoice\s*date|date\s*of\s*issue|issue\s*date|date)\s*:?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})?`),
			Value: regexp.MustCompile(`\d{1,2}[/-]\d{1,2}[/-]\d{2,4}`),
		},
		{
			Field: "due_date",
			Label: regexp.MustCompile(`(?i)(?:due\s*date|payment\s*due)\s*:?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})?`),
			Value: regexp.MustCompile(`\d{1,2}[/-]\d{1,2}[/-]\d{2,4}`),
		},
		{
			Field: "amount_due",
			Label: regexp.MustCompile(`(?i)(?:amount\s*due|balance\s*due|total\s*due|total)\s*(?:\([A-Z]{3}\))?\s*:?\s*([$£€]\s*\d{1,3}(?:,\d{3})*\.\d{2})?`),
			Value: regexp.MustCompile(`[$£€]\s*\d{1,3}(?:,\d{3})*\.\d{2}`),
		},
	}
}

type patternFile struct {
	Fields []struct {
		Name  string `yaml:"name"`
		Label string `yaml:"label"`
		Value string `yaml:"value"`
	} `yaml:"fields"`
}

// LoadPatterns reads a YAML pattern library and merges it over the defaults:
// entries with a known field name replace the default, new names append in
// file order. The orchestration layer never changes when the table grows.
func LoadPatterns(path string) ([]FieldPattern, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pattern file: %w", err)
	}
	var pf patternFile
	if err := yaml.Unmarshal(b, &pf); err != nil {
		return nil, fmt.Errorf("parse pattern file: %w", err)
	}

	patterns := DefaultPatterns()
	for _, f := range pf.Fields {
		label, err := regexp.Compile(f.Label)
		if err != nil {
			return nil, fmt.Errorf("field %q label: %w", f.Name, err)
		}
		value, err := regexp.Compile(f.Value)
		if err != nil {
			return nil, fmt.Errorf("field %q value: %w", f.Name, err)
		}
		entry := FieldPattern{Field: f.Name, Label: label, Value: value}
		replaced := false
		for i := range patterns {
			if patterns[i].Field == f.Name {
				patterns[i] = entry
				replaced = true
				break
			}
		}
		if !replaced {
			patterns = append(patterns, entry)
		}
	}
	return patterns, nil
}
