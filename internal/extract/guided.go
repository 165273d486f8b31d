// Package extract holds the two local extraction tiers: template-guided
// extraction driven by learned coordinates, and the template-free heuristic
// fallback.
package extract

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/jmaine-gray/invoice-extractor/constants"
	"github.com/jmaine-gray/invoice-extractor/internal/entity"
	"github.com/jmaine-gray/invoice-extractor/internal/parse"
	"github.com/jmaine-gray/invoice-extractor/internal/repository"
	"github.com/jmaine-gray/invoice-extractor/internal/textproc"
)

var (
	reItemSection = regexp.MustCompile(`(?i)\b(?:description|item|service)\b`)
	reColumnSplit = regexp.MustCompile(`\s{2,}`)
)

type GuidedExtractor struct {
	store  repository.TemplateRepository
	logger *slog.Logger
}

func NewGuidedExtractor(store repository.TemplateRepository, logger *slog.Logger) *GuidedExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &GuidedExtractor{store: store, logger: logger}
}

// Extract re-reads each recorded (line, offset) coordinate through the
// field's value parser. A coordinate that no longer yields a valid value is
// reported as an absent field, not an error. On completion the template's
// usage count is bumped best-effort; a store failure only logs.
func (g *GuidedExtractor) Extract(ctx context.Context, lines []textproc.Line, t *entity.Template) entity.InvoiceFields {
	var fields entity.InvoiceFields

	for name, pos := range t.FieldPositions {
		text, ok := sliceAt(lines, pos)
		if !ok {
			continue
		}
		switch name {
		case constants.FieldInvoiceNumber:
			if v, ok := parse.InvoiceCode(text); ok {
				fields.InvoiceNumber = v
			}
		case constants.FieldIssueDate:
			if v, ok := parse.Date(text); ok {
				fields.IssueDate = v
			}
		case constants.FieldDueDate:
			if v, ok := parse.Date(text); ok {
				fields.DueDate = v
			}
		case constants.FieldAmountDue:
			if v, ok := parse.Currency(text); ok {
				fields.AmountDue = &v
			}
		}
	}

	fields.Items = extractItems(lines, t.ItemPattern)

	if err := g.store.BumpUsage(ctx, t.TemplateID); err != nil {
		g.logger.Warn("guided.usage_bump_failed", "template_id", t.TemplateID, "err", err)
	}
	return fields
}

func sliceAt(lines []textproc.Line, pos entity.FieldPosition) (string, bool) {
	if pos.Line < 0 || pos.Line >= len(lines) {
		return "", false
	}
	text := lines[pos.Line].Text
	if pos.Offset < 0 || pos.Offset >= len(text) {
		return "", false
	}
	return text[pos.Offset:], true
}

// extractItems maps currency-bearing lines after an item-section keyword
// onto the template's column layout. Lines splitting into fewer columns than
// the wide layout degrade to description + single amount with quantity 1.
func extractItems(lines []textproc.Line, pattern entity.ItemPattern) []entity.LineItem {
	if len(pattern.Columns) == 0 {
		return nil
	}
	wide := len(pattern.Columns) == len(constants.ItemColumnsWide)

	var items []entity.LineItem
	inSection := false
	for _, ln := range lines {
		if reItemSection.MatchString(ln.Text) {
			inSection = true
			continue
		}
		if !inSection || !parse.HasAmount(ln.Text) {
			continue
		}
		parts := splitColumns(ln.Text)
		switch {
		case wide && len(parts) >= 4:
			rate, _ := parse.Currency(parts[1])
			amount, _ := parse.Currency(parts[3])
			items = append(items, entity.LineItem{
				Description: parts[0],
				UnitPrice:   rate,
				Quantity:    atoiOr(parts[2], 1),
				Amount:      amount,
			})
		case len(parts) >= 2:
			amount, _ := parse.Currency(parts[len(parts)-1])
			items = append(items, entity.LineItem{
				Description: parts[0],
				UnitPrice:   amount,
				Quantity:    1,
				Amount:      amount,
			})
		}
	}
	return items
}

func splitColumns(text string) []string {
	var parts []string
	for _, p := range reColumnSplit.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func atoiOr(s string, fallback int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return n
	}
	return fallback
}
