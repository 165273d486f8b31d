// Package score computes the completeness ratio over an extraction result.
package score

import (
	"fmt"
	"math"

	"github.com/jmaine-gray/invoice-extractor/constants"
	"github.com/jmaine-gray/invoice-extractor/internal/entity"
)

// Confidence is the filled-over-total field ratio rounded to two decimals.
// A nested object counts as filled when any of its sub-fields is filled; a
// list counts when non-empty. Metadata fields are not part of the schema.
func Confidence(f entity.InvoiceFields) float64 {
	filled := 0
	for _, name := range constants.ExpectedFields {
		if fieldFilled(f, name) {
			filled++
		}
	}
	ratio := float64(filled) / float64(len(constants.ExpectedFields))
	return math.Round(ratio*100) / 100
}

// Apply stamps an extraction result with its score, completeness string and
// fallback flag. FallbackNeeded is true iff the score is below the fixed
// policy threshold.
func Apply(r *entity.ExtractionResult) {
	r.ConfidenceScore = Confidence(r.InvoiceFields)
	r.Completeness = fmt.Sprintf("%.1f%%", r.ConfidenceScore*100)
	r.FallbackNeeded = r.ConfidenceScore < constants.MinConfidence
}

func fieldFilled(f entity.InvoiceFields, name string) bool {
	switch name {
	case constants.FieldInvoiceNumber:
		return f.InvoiceNumber != ""
	case constants.FieldPONumber:
		return f.PONumber != ""
	case constants.FieldIssueDate:
		return f.IssueDate != ""
	case constants.FieldDueDate:
		return f.DueDate != ""
	case constants.FieldAmountDue:
		return f.AmountDue != nil
	case constants.FieldSubtotal:
		return f.Subtotal != nil
	case constants.FieldTax:
		return f.Tax != nil
	case constants.FieldVendor:
		return f.Vendor.Name != "" || f.Vendor.Address != "" || f.Vendor.Email != "" || f.Vendor.Phone != ""
	case constants.FieldCustomer:
		return f.Customer.Name != "" || f.Customer.Email != ""
	case constants.FieldItems:
		return len(f.Items) > 0
	case constants.FieldCurrency:
		return f.Currency != ""
	}
	return false
}
