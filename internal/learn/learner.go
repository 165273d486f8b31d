// Package learn discovers extraction recipes for document shapes the store
// has never seen. It never fails on malformed input: fields it cannot locate
// are simply absent from the learned template.
package learn

import (
	"context"
	"log/slog"
	"regexp"
	"time"

	"github.com/jmaine-gray/invoice-extractor/constants"
	"github.com/jmaine-gray/invoice-extractor/internal/entity"
	"github.com/jmaine-gray/invoice-extractor/internal/fingerprint"
	"github.com/jmaine-gray/invoice-extractor/internal/repository"
	"github.com/jmaine-gray/invoice-extractor/internal/textproc"
)

var (
	reSectionKeyword = regexp.MustCompile(`(?i)description|item|service|qty|quantity|rate|amount`)
	reCurrencyLine   = regexp.MustCompile(`[$£€]\d+\.?\d*`)
	reTrailingCount  = regexp.MustCompile(`\d+`)
)

// lookahead window for a label line whose value sits on a following line.
const valueLookahead = 3

type Learner struct {
	patterns []FieldPattern
	store    repository.TemplateRepository
	logger   *slog.Logger
}

func NewLearner(patterns []FieldPattern, store repository.TemplateRepository, logger *slog.Logger) *Learner {
	if logger == nil {
		logger = slog.Default()
	}
	if patterns == nil {
		patterns = DefaultPatterns()
	}
	return &Learner{patterns: patterns, store: store, logger: logger}
}

// Learn scans the document for field labels and the item-table layout and
// persists the resulting template. First match wins per field: later lines
// matching an already-located field are ignored. The template is returned
// even when persisting fails; a store outage must not abort the pipeline.
func (l *Learner) Learn(ctx context.Context, lines []textproc.Line, vendorName string) *entity.Template {
	now := time.Now().UTC()
	t := &entity.Template{
		VendorName:     vendorName,
		StructureHash:  fingerprint.Structure(lines),
		FieldPositions: l.locateFields(lines),
		ItemPattern:    inferItemPattern(lines),
		CreatedAt:      now,
		LastUsed:       now,
		UsageCount:     1,
	}
	t.TemplateID = fingerprint.TemplateID(vendorName, t.StructureHash)

	if err := l.store.Upsert(ctx, t); err != nil {
		l.logger.Warn("learner.upsert_failed", "template_id", t.TemplateID, "err", err)
	}
	l.logger.Info("learner.template_learned",
		"template_id", t.TemplateID,
		"vendor", vendorName,
		"fields", len(t.FieldPositions),
		"item_columns", len(t.ItemPattern.Columns),
	)
	return t
}

func (l *Learner) locateFields(lines []textproc.Line) map[string]entity.FieldPosition {
	positions := make(map[string]entity.FieldPosition)
	for _, ln := range lines {
		for _, p := range l.patterns {
			if _, done := positions[p.Field]; done {
				continue
			}
			m := p.Label.FindStringSubmatchIndex(ln.Text)
			if m == nil {
				continue
			}
			// Inline value on the label line itself.
			if len(m) >= 4 && m[2] >= 0 && m[3] > m[2] {
				positions[p.Field] = entity.FieldPosition{Line: ln.Index, Offset: m[2]}
				continue
			}
			// Label-only line: the value sits on one of the next few lines.
			if line, offset, ok := lookahead(lines, ln.Index, p.Value); ok {
				positions[p.Field] = entity.FieldPosition{Line: line, Offset: offset}
			}
		}
	}
	return positions
}

func lookahead(lines []textproc.Line, from int, value *regexp.Regexp) (int, int, bool) {
	for off := 1; off <= valueLookahead && from+off < len(lines); off++ {
		if loc := value.FindStringIndex(lines[from+off].Text); loc != nil {
			return from + off, loc[0], true
		}
	}
	return 0, 0, false
}

// inferItemPattern splits the document into candidate item blocks bounded by
// section keywords, collecting the currency-bearing lines between them, and
// classifies the first non-trivial block's shape. Blocks matching neither
// layout yield an empty column list, which means item extraction falls back
// to heuristics.
func inferItemPattern(lines []textproc.Line) entity.ItemPattern {
	var blocks [][]string
	var current []string
	for _, ln := range lines {
		switch {
		case reSectionKeyword.MatchString(ln.Text):
			if len(current) > 0 {
				blocks = append(blocks, current)
				current = nil
			}
		case reCurrencyLine.MatchString(ln.Text):
			current = append(current, ln.Text)
		}
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}

	pattern := entity.ItemPattern{}
	if len(blocks) == 0 {
		return pattern
	}
	first := blocks[0]
	switch {
	case len(first) >= 3 && reTrailingCount.MatchString(first[len(first)-1]):
		pattern.HasHeader = true
		pattern.Columns = constants.ItemColumnsWide
	case len(first) >= 2:
		pattern.Columns = constants.ItemColumnsNarrow
	}
	return pattern
}
