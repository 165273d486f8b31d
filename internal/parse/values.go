// Package parse holds the field-specific value parsers shared by the guided
// and heuristic extraction tiers. Every parser is total: a value that does
// not match its field's shape yields ("", false) rather than an error, so a
// stale template coordinate degrades to an absent field.
package parse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	reInvoiceCode  = regexp.MustCompile(`[A-Z]{2,}\d{3,}|\d{5,}|[A-Z0-9]+-[A-Z0-9-]+`)
	reCodeLine     = regexp.MustCompile(`^[A-Z0-9\-]{5,}$`)
	reDate         = regexp.MustCompile(`\d{1,2}[/-]\d{1,2}[/-]\d{2,4}|\d{4}-\d{2}-\d{2}`)
	reAmount       = regexp.MustCompile(`[\d,]+\.\d{2}`)
	rePhoneDashed  = regexp.MustCompile(`^\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}$`)
	rePhoneRaw     = regexp.MustCompile(`^\d{10}$`)
	reCurrencyCode = regexp.MustCompile(`\b(USD|JMD|EUR|GBP|CAD|AUD)\b`)
)

// Date layouts accepted from recognized text, most specific first.
// Two-digit years resolve per time.Parse ("06" maps into 20xx for 00-68).
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"01/02/06",
	"01-02-2006",
	"01-02-06",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
}

// InvoiceCode pulls the first invoice-number-like token out of text.
func InvoiceCode(text string) (string, bool) {
	m := reInvoiceCode.FindString(text)
	if m == "" {
		return "", false
	}
	return m, true
}

// IsInvoiceCode reports whether a whole line looks like a standalone invoice
// code: uppercase alphanumeric with dashes, length >= 5, and not a date,
// currency amount, or phone number.
func IsInvoiceCode(text string) bool {
	text = strings.TrimSpace(text)
	if len(text) < 5 {
		return false
	}
	if reDate.MatchString(text) {
		return false
	}
	if strings.ContainsAny(text, "$£€") {
		return false
	}
	if rePhoneDashed.MatchString(text) || rePhoneRaw.MatchString(text) {
		return false
	}
	return reCodeLine.MatchString(text)
}

// Date finds the first date-like substring and normalizes it to YYYY-MM-DD.
func Date(text string) (string, bool) {
	m := reDate.FindString(text)
	if m == "" {
		// fall back to trying the full text against the verbose layouts
		m = strings.TrimSpace(text)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, m); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

// Currency finds the first decimal amount in text, stripping symbols and
// thousands separators, and returns it as a float.
func Currency(text string) (float64, bool) {
	m := reAmount.FindString(text)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// CurrencyCode finds the first ISO-style 3-letter currency token.
func CurrencyCode(text string) (string, bool) {
	m := reCurrencyCode.FindString(text)
	if m == "" {
		return "", false
	}
	return m, true
}

// HasAmount reports whether the text contains a currency amount.
func HasAmount(text string) bool {
	return reAmount.MatchString(text)
}
