package ai

import (
	"encoding/json"
	"strconv"
	"strings"
)

// money-ish fields models sometimes return as formatted strings
var moneyFields = []string{"amount_due", "subtotal", "tax"}

// SanitizeOptionalFields removes or normalizes optional fields that don't
// meet the stricter schema, so the overall document can still validate.
// Only optionals are touched; a missing required field still fails.
func SanitizeOptionalFields(doc []byte) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, nil, err
	}

	var dropped []string

	for _, k := range moneyFields {
		v, ok := m[k]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case nil:
			delete(m, k)
			dropped = append(dropped, k)
		case string:
			s := strings.TrimSpace(strings.NewReplacer("$", "", "£", "", "€", "", ",", "").Replace(t))
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				m[k] = f
			} else {
				delete(m, k)
				dropped = append(dropped, k)
			}
		}
	}

	// currency: uppercase, drop anything that isn't a 3-letter code
	if v, ok := m["currency"].(string); ok {
		s := strings.ToUpper(strings.TrimSpace(v))
		if len(s) == 3 {
			m["currency"] = s
		} else {
			delete(m, "currency")
			dropped = append(dropped, "currency")
		}
	}

	// dates: drop optionals that aren't ISO
	for _, k := range []string{"issue_date", "due_date"} {
		if v, ok := m[k].(string); ok {
			if len(v) != 10 || v[4] != '-' || v[7] != '-' {
				delete(m, k)
				dropped = append(dropped, k)
			}
		}
	}

	// null optionals of any other type
	for k, v := range m {
		if v == nil {
			delete(m, k)
			dropped = append(dropped, k)
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, err
	}
	return out, dropped, nil
}
