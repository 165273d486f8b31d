package extract

import (
	"testing"

	"github.com/jmaine-gray/invoice-extractor/internal/textproc"
)

const heuristicSample = `East End Auto Limited
12 Half Way Tree Road
Kingston
Tel: 876-555-1234
billing@eastendauto.com
Tax Invoice
INV-2024-0042
Invoice Date: 03/15/2024
Due Date: 04/14/2024
Bill To: HGALTD
Amount Due
$40,250.00
All amounts in JMD`

func TestHeuristicExtractSample(t *testing.T) {
	h := NewHeuristicExtractor(0, nil)
	fields := h.Extract(textproc.SplitLines(heuristicSample))

	if fields.InvoiceNumber != "INV-2024-0042" {
		t.Errorf("invoice_number = %q", fields.InvoiceNumber)
	}
	if fields.IssueDate != "2024-03-15" {
		t.Errorf("issue_date = %q", fields.IssueDate)
	}
	if fields.DueDate != "2024-04-14" {
		t.Errorf("due_date = %q", fields.DueDate)
	}
	if fields.AmountDue == nil || *fields.AmountDue != 40250.00 {
		t.Errorf("amount_due = %v, want 40250.00", fields.AmountDue)
	}
	if fields.Customer.Name != "HGALTD" {
		t.Errorf("customer = %q", fields.Customer.Name)
	}
	if fields.Currency != "JMD" {
		t.Errorf("currency = %q", fields.Currency)
	}
}

func TestHeuristicVendorInfo(t *testing.T) {
	h := NewHeuristicExtractor(0, nil)
	fields := h.Extract(textproc.SplitLines(heuristicSample))

	v := fields.Vendor
	if v.Name != "East End Auto Limited" {
		t.Errorf("vendor name = %q", v.Name)
	}
	if v.Address != "12 Half Way Tree Road Kingston" {
		t.Errorf("vendor address = %q", v.Address)
	}
	if v.Phone != "876-555-1234" {
		t.Errorf("vendor phone = %q", v.Phone)
	}
	if v.Email != "billing@eastendauto.com" {
		t.Errorf("vendor email = %q", v.Email)
	}
}

func TestHeuristicInvoiceNumberBelowLabel(t *testing.T) {
	h := NewHeuristicExtractor(0, nil)
	fields := h.Extract(textproc.SplitLines("Invoice Number\n0000085\nAmount Due\n$40,250.00"))
	if fields.InvoiceNumber != "0000085" {
		t.Errorf("invoice_number = %q, want 0000085", fields.InvoiceNumber)
	}
}

func TestHeuristicAmountBelowLabel(t *testing.T) {
	h := NewHeuristicExtractor(0, nil)
	fields := h.Extract(textproc.SplitLines("Amount Due\n$40,250.00"))
	if fields.AmountDue == nil || *fields.AmountDue != 40250.00 {
		t.Errorf("amount_due = %v, want 40250.00", fields.AmountDue)
	}
}

func TestHeuristicVendorScanWindow(t *testing.T) {
	// The org-suffix scan is bounded: a vendor-looking line past the window
	// is ignored.
	h := NewHeuristicExtractor(2, nil)
	fields := h.Extract(textproc.SplitLines("INVOICE\nStatement\nLate Vendor Inc\nmore text"))
	if fields.Vendor.Name != "" {
		t.Errorf("vendor name = %q, want empty outside scan window", fields.Vendor.Name)
	}
}

func TestHeuristicItems(t *testing.T) {
	items := heuristicItems(textproc.SplitLines(`Front brake pads
$40.00
Qty
2
Labor
$50.00`))

	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	first := items[0]
	if first.Description != "Front brake pads" || first.UnitPrice != 40 || first.Quantity != 2 || first.Amount != 80 {
		t.Errorf("item = %+v", first)
	}
	second := items[1]
	if second.Description != "Labor" || second.Quantity != 1 || second.Amount != 50 {
		t.Errorf("item = %+v", second)
	}
}

func TestHeuristicEmptyDocument(t *testing.T) {
	h := NewHeuristicExtractor(0, nil)
	fields := h.Extract(nil)
	if fields.InvoiceNumber != "" || fields.AmountDue != nil || len(fields.Items) != 0 {
		t.Errorf("empty document produced values: %+v", fields)
	}
}
