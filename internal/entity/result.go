package entity

// Vendor holds the issuing party's details.
type Vendor struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// Customer holds the billed party's details.
type Customer struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// LineItem is one row of the invoice's items table.
type LineItem struct {
	Description string  `json:"description"`
	UnitPrice   float64 `json:"unit_price"`
	Quantity    int     `json:"quantity"`
	Amount      float64 `json:"amount"`
}

// InvoiceFields is the normalized field mapping every extraction tier
// produces. Dates are ISO calendar dates (YYYY-MM-DD); amounts are decimals
// with symbols and thousands separators already stripped.
type InvoiceFields struct {
	InvoiceNumber string     `json:"invoice_number,omitempty"`
	PONumber      string     `json:"po_number,omitempty"`
	IssueDate     string     `json:"issue_date,omitempty"`
	DueDate       string     `json:"due_date,omitempty"`
	AmountDue     *float64   `json:"amount_due,omitempty"`
	Subtotal      *float64   `json:"subtotal,omitempty"`
	Tax           *float64   `json:"tax,omitempty"`
	Vendor        Vendor     `json:"vendor"`
	Customer      Customer   `json:"customer"`
	Items         []LineItem `json:"items"`
	Currency      string     `json:"currency,omitempty"`
}

// ExtractionResult is the output record for one request: the field mapping
// plus scoring and provenance metadata. It is request-scoped and never
// persisted.
type ExtractionResult struct {
	InvoiceFields

	Completeness       string  `json:"_completeness"`
	ConfidenceScore    float64 `json:"_confidence_score"`
	FallbackNeeded     bool    `json:"_fallback_needed"`
	TemplateID         string  `json:"_template_id,omitempty"`
	Provenance         string  `json:"_provenance,omitempty"`
	ParserFallbackUsed bool    `json:"_parser_fallback_used,omitempty"`
	Error              string  `json:"_error,omitempty"`
}
