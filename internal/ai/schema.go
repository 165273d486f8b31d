package ai

// BuildInvoiceJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. We pass it to the model as a structured output constraint and
// also use it locally to validate the response before trusting it.
func BuildInvoiceJSONSchema() map[string]any {
	amount := map[string]any{"type": "number"}
	isoDate := map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`}

	item := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"description": map[string]any{"type": "string"},
			"unit_price":  amount,
			"quantity":    map[string]any{"type": "integer", "minimum": 0},
			"amount":      amount,
		},
		"required": []string{"description", "amount"},
	}

	party := func(withExtras bool) map[string]any {
		props := map[string]any{
			"name":  map[string]any{"type": "string"},
			"email": map[string]any{"type": "string"},
		}
		if withExtras {
			props["address"] = map[string]any{"type": "string"}
			props["phone"] = map[string]any{"type": "string"}
		}
		return map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"properties":           props,
		}
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"invoice_number": map[string]any{"type": "string"},
			"po_number":      map[string]any{"type": "string"},
			"issue_date":     isoDate,
			"due_date":       isoDate,
			"amount_due":     amount,
			"subtotal":       amount,
			"tax":            amount,
			"vendor":         party(true),
			"customer":       party(false),
			"items":          map[string]any{"type": "array", "items": item},
			"currency":       map[string]any{"type": "string", "minLength": 3, "maxLength": 3},
		},
		"required": []string{"invoice_number"},
	}
}
