package constants

// Field names for the expected invoice schema. These exact strings are used
// as keys in template field positions and as columns in exports.
const (
	FieldInvoiceNumber = "invoice_number"
	FieldPONumber      = "po_number"
	FieldIssueDate     = "issue_date"
	FieldDueDate       = "due_date"
	FieldAmountDue     = "amount_due"
	FieldSubtotal      = "subtotal"
	FieldTax           = "tax"
	FieldVendor        = "vendor"
	FieldCustomer      = "customer"
	FieldItems         = "items"
	FieldCurrency      = "currency"
)

// ExpectedFields is the full schema the confidence scorer measures against.
var ExpectedFields = []string{
	FieldInvoiceNumber,
	FieldPONumber,
	FieldIssueDate,
	FieldDueDate,
	FieldAmountDue,
	FieldSubtotal,
	FieldTax,
	FieldVendor,
	FieldCustomer,
	FieldItems,
	FieldCurrency,
}

// MinConfidence is the fixed policy threshold below which the pipeline
// escalates to the next tier and _fallback_needed is set.
const MinConfidence = 0.60

// DefaultCurrency is assumed when no currency code is found in the document.
const DefaultCurrency = "USD"
