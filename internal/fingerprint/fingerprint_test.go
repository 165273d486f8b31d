package fingerprint

import (
	"testing"

	"github.com/jmaine-gray/invoice-extractor/internal/textproc"
)

func TestStructureStableAcrossValueChanges(t *testing.T) {
	// Same layout, different invoice number and amounts of equal length.
	a := textproc.SplitLines("ACME Corp Inc\nInvoice Number\n0000085\nAmount Due\n$40,250.00")
	b := textproc.SplitLines("ACME Corp Inc\nInvoice Number\n0000086\nAmount Due\n$17,930.55")

	if Structure(a) != Structure(b) {
		t.Errorf("structure hash changed between documents that differ only in values")
	}
}

func TestStructureSensitiveToLineCount(t *testing.T) {
	a := textproc.SplitLines("ACME Corp Inc\nInvoice Number\n0000085")
	b := textproc.SplitLines("ACME Corp Inc\nInvoice Number\n0000085\nAmount Due")

	if Structure(a) == Structure(b) {
		t.Errorf("structure hash did not change when a line was added")
	}
}

func TestStructureSensitiveToLineLength(t *testing.T) {
	a := textproc.SplitLines("Invoice Number\n0000085")
	b := textproc.SplitLines("Invoice Number\n000000085")

	if Structure(a) == Structure(b) {
		t.Errorf("structure hash did not change when a line length changed")
	}
}

func TestStructureSensitiveToCurrencyFlag(t *testing.T) {
	// Same length, one has a currency symbol.
	a := textproc.SplitLines("40,250.00x")
	b := textproc.SplitLines("$40,250.00")

	if Structure(a) == Structure(b) {
		t.Errorf("structure hash did not reflect currency presence")
	}
}

func TestStructureEmptyInput(t *testing.T) {
	if Structure(nil) == "" {
		t.Fatal("expected a hash for empty input")
	}
	if Structure(nil) != Structure([]textproc.Line{}) {
		t.Error("nil and empty slices should hash identically")
	}
}

func TestTemplateIDDeterministic(t *testing.T) {
	h := Structure(textproc.SplitLines("ACME Corp Inc\nInvoice Number\n0000085"))

	id1 := TemplateID("ACME Corp Inc", h)
	id2 := TemplateID("ACME Corp Inc", h)
	if id1 != id2 {
		t.Error("template id not deterministic")
	}
	if id1 == TemplateID("Other Vendor Ltd", h) {
		t.Error("template id should vary with vendor name")
	}
	if len(id1) != 32 {
		t.Errorf("expected 32 hex chars, got %d", len(id1))
	}
}
