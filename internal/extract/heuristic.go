package extract

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/jmaine-gray/invoice-extractor/internal/entity"
	"github.com/jmaine-gray/invoice-extractor/internal/parse"
	"github.com/jmaine-gray/invoice-extractor/internal/textproc"
)

// Label synonym lists per field, checked in order against lowercased lines.
var fieldLabels = []struct {
	field    string
	keywords []string
}{
	{"invoice_number", []string{"invoice number", "inv no", "tax invoice", "invoice #", "invoice no"}},
	// due_date sits above issue_date: the bare "date" synonym would
	// otherwise claim "Due Date" lines.
	{"due_date", []string{"due date", "payment due"}},
	{"issue_date", []string{"invoice date", "issue date", "date of issue", "date"}},
	{"amount_due", []string{"balance due", "amount due", "total due", "amount payable"}},
	{"subtotal", []string{"subtotal"}},
	{"tax", []string{"tax", "vat", "gct"}},
	{"po_number", []string{"po number", "purchase order", "order number"}},
	{"vendor_phone", []string{"tel", "telephone", "phone"}},
	{"vendor_email", []string{"email"}},
	{"vendor_fax", []string{"fax"}},
	{"customer", []string{"bill to", "ship to"}},
}

var (
	reLongDigits  = regexp.MustCompile(`\d{7,}`)
	reOrgSuffix   = regexp.MustCompile(`(?i)\b(limited|llc|inc|corp|company)\b`)
	reStreet      = regexp.MustCompile(`(?i)\d{1,5}\s+.+(street|ave|road|rd|lane|blvd|drive|st)\b`)
	reLocality    = regexp.MustCompile(`(?i)\b(kingston|jamaica)\b`)
	rePhoneLabel  = regexp.MustCompile(`(?i)(?:tel|phone|ph)\s*:?\s*([\d\-() ]{7,})`)
	reEmail       = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	reUpperToken  = regexp.MustCompile(`[A-Z0-9]{5,}`)
	reCodeish     = regexp.MustCompile(`[A-Z0-9-]{4,}`)
	reBareInteger = regexp.MustCompile(`^\d+$`)
	reDigitsOnly  = regexp.MustCompile(`^\d{5,}$`)
	reAlphaNum    = regexp.MustCompile(`^[A-Z]{2,}\d{3,}$`)
)

// value lookahead windows below a label line
const (
	codeLookahead     = 3
	currencyLookahead = 2
)

type labeledLine struct {
	label string
	text  string
}

// HeuristicExtractor is the template-free tier: keyword labels plus bounded
// proximity search. It never consults or mutates the template store.
type HeuristicExtractor struct {
	vendorScanMax int
	logger        *slog.Logger
}

func NewHeuristicExtractor(vendorScanMax int, logger *slog.Logger) *HeuristicExtractor {
	if vendorScanMax <= 0 {
		vendorScanMax = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HeuristicExtractor{vendorScanMax: vendorScanMax, logger: logger}
}

func (h *HeuristicExtractor) Extract(lines []textproc.Line) entity.InvoiceFields {
	labeled := classifyLines(lines)

	fields := entity.InvoiceFields{
		InvoiceNumber: extractInvoiceNumber(labeled),
		PONumber:      extractCodeNear(labeled, "po_number"),
		IssueDate:     extractDate(labeled, "issue_date"),
		DueDate:       extractDate(labeled, "due_date"),
		AmountDue:     extractCurrencyNear(labeled, "amount_due", codeLookahead),
		Subtotal:      extractCurrencyNear(labeled, "subtotal", currencyLookahead),
		Tax:           extractCurrencyNear(labeled, "tax", currencyLookahead),
		Vendor:        h.vendorInfo(lines, labeled),
		Customer:      entity.Customer{Name: extractTrailingToken(labeled, "customer")},
		Items:         heuristicItems(lines),
	}
	if code, ok := findCurrencyCode(lines); ok {
		fields.Currency = code
	}
	return fields
}

// classifyLines tags each line with the first field whose label synonyms it
// contains. Lines with a long digit run and no vendor tag are assumed to be
// phone numbers.
func classifyLines(lines []textproc.Line) []labeledLine {
	out := make([]labeledLine, 0, len(lines))
	for _, ln := range lines {
		lower := strings.ToLower(ln.Text)
		label := "unknown"
	match:
		for _, fl := range fieldLabels {
			for _, kw := range fl.keywords {
				if strings.Contains(lower, kw) {
					label = fl.field
					break match
				}
			}
		}
		if !strings.HasPrefix(label, "vendor") && reLongDigits.MatchString(ln.Text) {
			label = "vendor_phone"
		}
		out = append(out, labeledLine{label: label, text: ln.Text})
	}
	return out
}

// extractInvoiceNumber looks below invoice-number labels first and then falls
// back to a document-wide scan for anything code-shaped.
func extractInvoiceNumber(lines []labeledLine) string {
	for i, ln := range lines {
		if ln.label != "invoice_number" {
			continue
		}
		for off := 1; off <= codeLookahead && i+off < len(lines); off++ {
			candidate := strings.TrimSpace(lines[i+off].text)
			if reDigitsOnly.MatchString(candidate) || reAlphaNum.MatchString(candidate) {
				return candidate
			}
		}
	}
	for _, ln := range lines {
		if parse.IsInvoiceCode(ln.text) {
			return strings.TrimSpace(ln.text)
		}
	}
	return ""
}

func extractCodeNear(lines []labeledLine, label string) string {
	for i, ln := range lines {
		if ln.label != label {
			continue
		}
		for off := 1; off <= codeLookahead && i+off < len(lines); off++ {
			if m := reUpperToken.FindString(lines[i+off].text); m != "" {
				return m
			}
		}
	}
	return ""
}

func extractDate(lines []labeledLine, label string) string {
	for _, ln := range lines {
		if ln.label == label {
			if v, ok := parse.Date(ln.text); ok {
				return v
			}
		}
	}
	// labeled line carried no parseable date; take the first date anywhere
	for i, ln := range lines {
		if ln.label == label {
			for off := 1; off <= codeLookahead && i+off < len(lines); off++ {
				if v, ok := parse.Date(lines[i+off].text); ok {
					return v
				}
			}
		}
	}
	return ""
}

func extractCurrencyNear(lines []labeledLine, label string, window int) *float64 {
	for i, ln := range lines {
		if ln.label != label {
			continue
		}
		if v, ok := parse.Currency(ln.text); ok {
			return &v
		}
		for off := 1; off <= window && i+off < len(lines); off++ {
			if v, ok := parse.Currency(lines[i+off].text); ok {
				return &v
			}
		}
	}
	return nil
}

// extractTrailingToken returns the last code-shaped token of a labeled line,
// or the whole line when none stands out.
func extractTrailingToken(lines []labeledLine, label string) string {
	for _, ln := range lines {
		if ln.label != label {
			continue
		}
		parts := strings.Fields(ln.text)
		for i := len(parts) - 1; i >= 0; i-- {
			if reCodeish.MatchString(parts[i]) {
				return parts[i]
			}
		}
		return ln.text
	}
	return ""
}

func (h *HeuristicExtractor) vendorInfo(lines []textproc.Line, labeled []labeledLine) entity.Vendor {
	var v entity.Vendor
	for i, ln := range lines {
		if i >= h.vendorScanMax {
			break
		}
		if reOrgSuffix.MatchString(ln.Text) {
			v.Name = ln.Text
			break
		}
	}

	var addressLines []string
	for _, ln := range lines {
		if reStreet.MatchString(ln.Text) || reLocality.MatchString(ln.Text) {
			addressLines = append(addressLines, ln.Text)
		}
	}
	v.Address = strings.Join(addressLines, " ")

	for _, ln := range lines {
		if m := rePhoneLabel.FindStringSubmatch(ln.Text); m != nil {
			v.Phone = strings.TrimSpace(m[1])
			break
		}
	}
	if v.Phone == "" {
		for _, ln := range labeled {
			if ln.label == "vendor_phone" {
				if m := reLongDigits.FindString(ln.text); m != "" {
					v.Phone = m
					break
				}
			}
		}
	}

	for _, ln := range lines {
		if m := reEmail.FindString(ln.Text); m != "" {
			v.Email = m
			break
		}
	}
	return v
}

// heuristicItems recovers line items without a learned layout: every line
// carrying a currency amount becomes an item, with the preceding line as its
// description and a bare integer two lines below as its quantity.
func heuristicItems(lines []textproc.Line) []entity.LineItem {
	var items []entity.LineItem
	for i, ln := range lines {
		amount, ok := parse.Currency(ln.Text)
		if !ok || !strings.ContainsAny(ln.Text, "$£€") {
			continue
		}
		item := entity.LineItem{UnitPrice: amount, Quantity: 1, Amount: amount}
		if i > 0 {
			item.Description = lines[i-1].Text
		}
		if i+2 < len(lines) && reBareInteger.MatchString(lines[i+2].Text) {
			if qty, err := strconv.Atoi(lines[i+2].Text); err == nil {
				item.Quantity = qty
				item.Amount = amount * float64(qty)
			}
		}
		items = append(items, item)
	}
	return items
}

func findCurrencyCode(lines []textproc.Line) (string, bool) {
	for _, ln := range lines {
		if code, ok := parse.CurrencyCode(ln.Text); ok {
			return code, true
		}
	}
	return "", false
}
