package score

import (
	"testing"

	"github.com/jmaine-gray/invoice-extractor/internal/entity"
)

func f64(v float64) *float64 { return &v }

func TestConfidenceEmpty(t *testing.T) {
	if got := Confidence(entity.InvoiceFields{}); got != 0 {
		t.Errorf("Confidence(empty) = %v, want 0", got)
	}
}

func TestConfidenceFull(t *testing.T) {
	f := entity.InvoiceFields{
		InvoiceNumber: "0000085",
		PONumber:      "PO-441",
		IssueDate:     "2024-03-15",
		DueDate:       "2024-04-14",
		AmountDue:     f64(40250),
		Subtotal:      f64(40000),
		Tax:           f64(250),
		Vendor:        entity.Vendor{Name: "ACME Corp Inc"},
		Customer:      entity.Customer{Name: "East Repair"},
		Items:         []entity.LineItem{{Description: "Widget", Amount: 10}},
		Currency:      "USD",
	}
	if got := Confidence(f); got != 1 {
		t.Errorf("Confidence(full) = %v, want 1", got)
	}
}

func TestConfidenceRounding(t *testing.T) {
	// 4 of 11 fields filled: 0.3636... rounds to 0.36.
	f := entity.InvoiceFields{
		InvoiceNumber: "0000085",
		IssueDate:     "2024-03-15",
		AmountDue:     f64(40250),
		Currency:      "USD",
	}
	if got := Confidence(f); got != 0.36 {
		t.Errorf("Confidence = %v, want 0.36", got)
	}
}

func TestNestedObjectCountsOnAnySubfield(t *testing.T) {
	base := Confidence(entity.InvoiceFields{})
	withEmail := Confidence(entity.InvoiceFields{Vendor: entity.Vendor{Email: "billing@acme.test"}})
	if withEmail <= base {
		t.Error("vendor with only an email should count as filled")
	}
	withCust := Confidence(entity.InvoiceFields{Customer: entity.Customer{Email: "ap@client.test"}})
	if withCust <= base {
		t.Error("customer with only an email should count as filled")
	}
}

func TestEmptyItemsNotFilled(t *testing.T) {
	a := Confidence(entity.InvoiceFields{Items: []entity.LineItem{}})
	b := Confidence(entity.InvoiceFields{Items: []entity.LineItem{{Description: "x"}}})
	if a != 0 {
		t.Errorf("empty items counted as filled: %v", a)
	}
	if b == 0 {
		t.Error("non-empty items not counted")
	}
}

func TestApplyThreshold(t *testing.T) {
	// 6 of 11 = 0.55, below the 0.60 gate.
	low := &entity.ExtractionResult{InvoiceFields: entity.InvoiceFields{
		InvoiceNumber: "0000085",
		IssueDate:     "2024-03-15",
		DueDate:       "2024-04-14",
		AmountDue:     f64(40250),
		Vendor:        entity.Vendor{Name: "ACME"},
		Currency:      "USD",
	}}
	Apply(low)
	if low.ConfidenceScore != 0.55 {
		t.Errorf("score = %v, want 0.55", low.ConfidenceScore)
	}
	if !low.FallbackNeeded {
		t.Error("0.55 should require fallback")
	}
	if low.Completeness != "55.0%" {
		t.Errorf("completeness = %q, want 55.0%%", low.Completeness)
	}

	// One more field: 7 of 11 = 0.64, above the gate.
	high := &entity.ExtractionResult{InvoiceFields: low.InvoiceFields}
	high.Items = []entity.LineItem{{Description: "Widget", Amount: 10}}
	Apply(high)
	if high.ConfidenceScore != 0.64 {
		t.Errorf("score = %v, want 0.64", high.ConfidenceScore)
	}
	if high.FallbackNeeded {
		t.Error("0.64 should not require fallback")
	}
}
