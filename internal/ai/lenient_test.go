package ai

import (
	"encoding/json"
	"testing"
)

func sanitize(t *testing.T, doc string) (map[string]any, []string) {
	t.Helper()
	out, dropped, err := SanitizeOptionalFields([]byte(doc))
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(out, &m); err != nil {
		t.Fatalf("unmarshal sanitized doc: %v", err)
	}
	return m, dropped
}

func TestSanitizeMoneyStrings(t *testing.T) {
	m, dropped := sanitize(t, `{"invoice_number":"0000085","amount_due":"$40,250.00","subtotal":"1,000.00","tax":"£12.50"}`)

	if got := m["amount_due"]; got != 40250.00 {
		t.Errorf("amount_due = %v", got)
	}
	if got := m["subtotal"]; got != 1000.00 {
		t.Errorf("subtotal = %v", got)
	}
	if got := m["tax"]; got != 12.50 {
		t.Errorf("tax = %v", got)
	}
	if len(dropped) != 0 {
		t.Errorf("dropped = %v, want none", dropped)
	}
}

func TestSanitizeDropsUnparseableMoney(t *testing.T) {
	m, dropped := sanitize(t, `{"invoice_number":"0000085","amount_due":"forty thousand"}`)
	if _, ok := m["amount_due"]; ok {
		t.Error("unparseable amount kept")
	}
	if len(dropped) != 1 || dropped[0] != "amount_due" {
		t.Errorf("dropped = %v", dropped)
	}
}

func TestSanitizeCurrency(t *testing.T) {
	m, _ := sanitize(t, `{"invoice_number":"0000085","currency":"usd"}`)
	if m["currency"] != "USD" {
		t.Errorf("currency = %v", m["currency"])
	}

	m, dropped := sanitize(t, `{"invoice_number":"0000085","currency":"US Dollars"}`)
	if _, ok := m["currency"]; ok {
		t.Error("non-ISO currency kept")
	}
	if len(dropped) != 1 {
		t.Errorf("dropped = %v", dropped)
	}
}

func TestSanitizeDates(t *testing.T) {
	m, dropped := sanitize(t, `{"invoice_number":"0000085","issue_date":"2024-03-15","due_date":"04/14/2024"}`)
	if m["issue_date"] != "2024-03-15" {
		t.Errorf("issue_date = %v", m["issue_date"])
	}
	if _, ok := m["due_date"]; ok {
		t.Error("non-ISO date kept")
	}
	if len(dropped) != 1 || dropped[0] != "due_date" {
		t.Errorf("dropped = %v", dropped)
	}
}

func TestSanitizeDropsNulls(t *testing.T) {
	m, dropped := sanitize(t, `{"invoice_number":"0000085","amount_due":null,"po_number":null}`)
	if _, ok := m["amount_due"]; ok {
		t.Error("null amount kept")
	}
	if _, ok := m["po_number"]; ok {
		t.Error("null optional kept")
	}
	if len(dropped) != 2 {
		t.Errorf("dropped = %v", dropped)
	}
	if m["invoice_number"] != "0000085" {
		t.Error("required field disturbed")
	}
}

func TestSanitizeRejectsInvalidJSON(t *testing.T) {
	if _, _, err := SanitizeOptionalFields([]byte("not json")); err == nil {
		t.Fatal("expected error")
	}
}

func TestSchemaValidation(t *testing.T) {
	schema := BuildInvoiceJSONSchema()

	valid := []byte(`{
		"invoice_number": "0000085",
		"issue_date": "2024-03-15",
		"amount_due": 40250.00,
		"vendor": {"name": "ACME Corp Inc", "phone": "876-555-1234"},
		"customer": {"name": "East Repair"},
		"items": [{"description": "Labor", "unit_price": 50, "quantity": 1, "amount": 50}],
		"currency": "USD"
	}`)
	if err := ValidateJSONAgainstSchema(schema, valid); err != nil {
		t.Errorf("valid document rejected: %v", err)
	}

	cases := map[string]string{
		"missing required":    `{"amount_due": 40250.00}`,
		"string amount":       `{"invoice_number":"0000085","amount_due":"$40,250.00"}`,
		"non-ISO date":        `{"invoice_number":"0000085","issue_date":"03/15/2024"}`,
		"unknown property":    `{"invoice_number":"0000085","grand_total":1}`,
		"item missing amount": `{"invoice_number":"0000085","items":[{"description":"Labor"}]}`,
	}
	for name, doc := range cases {
		if err := ValidateJSONAgainstSchema(schema, []byte(doc)); err == nil {
			t.Errorf("%s: document accepted", name)
		}
	}
}

func TestSanitizeThenValidate(t *testing.T) {
	schema := BuildInvoiceJSONSchema()
	doc := []byte(`{"invoice_number":"0000085","amount_due":"$40,250.00","currency":"usd","due_date":null}`)

	if err := ValidateJSONAgainstSchema(schema, doc); err == nil {
		t.Fatal("raw document should fail validation")
	}
	cleaned, dropped, err := SanitizeOptionalFields(doc)
	if err != nil {
		t.Fatal(err)
	}
	if err := ValidateJSONAgainstSchema(schema, cleaned); err != nil {
		t.Errorf("sanitized document rejected: %v (dropped %v)", err, dropped)
	}
}
