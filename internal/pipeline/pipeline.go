// Package pipeline sequences the extraction tiers for one request:
// fingerprint & template lookup, guided extraction (learning first when no
// template matches), confidence scoring, heuristic merge, and finally AI
// escalation. Each request runs the state machine once, front to back; no
// state is revisited and nothing but the template store is shared between
// requests.
package pipeline

import (
	"context"
	"log/slog"
	"regexp"
	"time"

	"github.com/jmaine-gray/invoice-extractor/constants"
	"github.com/jmaine-gray/invoice-extractor/internal/ai"
	"github.com/jmaine-gray/invoice-extractor/internal/common"
	"github.com/jmaine-gray/invoice-extractor/internal/entity"
	"github.com/jmaine-gray/invoice-extractor/internal/extract"
	"github.com/jmaine-gray/invoice-extractor/internal/fingerprint"
	"github.com/jmaine-gray/invoice-extractor/internal/learn"
	"github.com/jmaine-gray/invoice-extractor/internal/parse"
	"github.com/jmaine-gray/invoice-extractor/internal/repository"
	"github.com/jmaine-gray/invoice-extractor/internal/score"
	"github.com/jmaine-gray/invoice-extractor/internal/textproc"
)

var reOrgSuffix = regexp.MustCompile(`(?i)\b(limited|llc|inc|corp|company)\b`)

// Config holds thresholds and behavior flags for one pipeline instance.
type Config struct {
	MinConfidence float64 // default 0.60
	VendorScanMax int     // default 5
}

type Pipeline struct {
	Logger    *slog.Logger
	Cfg       Config
	Store     repository.TemplateRepository
	Learner   *learn.Learner
	Guided    *extract.GuidedExtractor
	Heuristic *extract.HeuristicExtractor
	AI        ai.FieldExtractor // nil when no AI collaborator is configured
}

func New(
	logger *slog.Logger,
	cfg Config,
	store repository.TemplateRepository,
	learner *learn.Learner,
	guided *extract.GuidedExtractor,
	heuristic *extract.HeuristicExtractor,
	aix ai.FieldExtractor,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = constants.MinConfidence
	}
	if cfg.VendorScanMax <= 0 {
		cfg.VendorScanMax = 5
	}
	return &Pipeline{
		Logger:    logger,
		Cfg:       cfg,
		Store:     store,
		Learner:   learner,
		Guided:    guided,
		Heuristic: heuristic,
		AI:        aix,
	}
}

// Parse runs the full cascade over one document's recognized text and
// returns the scored, provenance-tagged result. It never returns an error:
// unusable input yields an empty result with score 0 and the fallback flag
// set, and every downstream failure degrades to the next tier.
func (p *Pipeline) Parse(ctx context.Context, text, sourceFilename string) *entity.ExtractionResult {
	rid := common.RequestIDFromContext(ctx)
	start := time.Now()

	lines := textproc.SplitLines(text)
	if len(lines) == 0 {
		p.Logger.Warn("pipeline.empty_input", "req_id", rid, "source", sourceFilename)
		res := &entity.ExtractionResult{
			Provenance: string(constants.ProvenanceLowConfidence),
			Error:      "empty input",
		}
		score.Apply(res)
		return res
	}

	// Step 1: fingerprint & lookup. A cheap vendor guess keys the vendor
	// side of the match and seeds the learner.
	hash := fingerprint.Structure(lines)
	vendor := p.guessVendorName(lines)
	tmpl, err := p.Store.Find(ctx, hash, vendor)
	if err != nil {
		// Store outage is recoverable: proceed as if no template exists.
		p.Logger.Warn("pipeline.store_lookup_failed", "req_id", rid, "err", err)
		tmpl = nil
	}

	// Step 2: guided extraction, learning a fresh template first when the
	// lookup came up empty.
	if tmpl == nil {
		tmpl = p.Learner.Learn(ctx, lines, vendor)
		p.Logger.Info("pipeline.template_learned", "req_id", rid, "template_id", tmpl.TemplateID)
	} else {
		p.Logger.Info("pipeline.template_matched",
			"req_id", rid, "template_id", tmpl.TemplateID, "usage_count", tmpl.UsageCount)
	}

	res := &entity.ExtractionResult{
		InvoiceFields: p.Guided.Extract(ctx, lines, tmpl),
		TemplateID:    tmpl.TemplateID,
		Provenance:    string(constants.ProvenanceTemplate),
	}
	p.fillCommonFields(res, lines, vendor)

	// Step 3: score the guided tier.
	score.Apply(res)
	p.Logger.Info("pipeline.guided.scored", "req_id", rid, "score", res.ConfidenceScore)
	if res.ConfidenceScore >= p.Cfg.MinConfidence {
		return p.finalize(res, rid, start)
	}

	// Step 4: heuristic merge. Additive only: heuristic values land where
	// the guided tier left a field unfilled, so the score never drops.
	heuristicFields := p.Heuristic.Extract(lines)
	res.InvoiceFields = merge(res.InvoiceFields, heuristicFields)
	res.Provenance = string(constants.ProvenanceTemplateHeuristic)
	res.ParserFallbackUsed = true
	score.Apply(res)
	p.Logger.Info("pipeline.heuristic.scored", "req_id", rid, "score", res.ConfidenceScore)
	if res.ConfidenceScore >= p.Cfg.MinConfidence {
		return p.finalize(res, rid, start)
	}

	// Step 5: AI escalation, full replace on success. Failure or absence
	// finalizes the best local result tagged low-confidence.
	if p.AI != nil {
		aiFields, _, err := p.AI.ExtractFields(ctx, ai.ExtractRequest{
			RawText:         text,
			SourceFilename:  sourceFilename,
			DefaultCurrency: res.Currency,
		})
		if err == nil {
			res.InvoiceFields = aiFields
			res.Provenance = string(constants.ProvenanceAI)
			score.Apply(res)
			return p.finalize(res, rid, start)
		}
		p.Logger.Warn("pipeline.ai_failed", "req_id", rid, "err", err)
	}

	res.Provenance = string(constants.ProvenanceLowConfidence)
	score.Apply(res)
	return p.finalize(res, rid, start)
}

func (p *Pipeline) finalize(res *entity.ExtractionResult, rid string, start time.Time) *entity.ExtractionResult {
	p.Logger.Info("pipeline.done",
		"req_id", rid,
		"provenance", res.Provenance,
		"score", res.ConfidenceScore,
		"fallback_needed", res.FallbackNeeded,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res
}

// guessVendorName scans the first few lines for an organization suffix.
func (p *Pipeline) guessVendorName(lines []textproc.Line) string {
	for i, ln := range lines {
		if i >= p.Cfg.VendorScanMax {
			break
		}
		if reOrgSuffix.MatchString(ln.Text) {
			return ln.Text
		}
	}
	return ""
}

// fillCommonFields adds the cheap document-level fields the guided tier does
// not learn positions for: vendor identity and the currency code.
func (p *Pipeline) fillCommonFields(res *entity.ExtractionResult, lines []textproc.Line, vendor string) {
	if res.Vendor.Name == "" {
		res.Vendor.Name = vendor
	}
	if res.Currency == "" {
		for _, ln := range lines {
			if code, ok := parse.CurrencyCode(ln.Text); ok {
				res.Currency = code
				break
			}
		}
	}
}

// merge lays fallback values under base: base wins wherever it is filled.
func merge(base, fallback entity.InvoiceFields) entity.InvoiceFields {
	out := base
	if out.InvoiceNumber == "" {
		out.InvoiceNumber = fallback.InvoiceNumber
	}
	if out.PONumber == "" {
		out.PONumber = fallback.PONumber
	}
	if out.IssueDate == "" {
		out.IssueDate = fallback.IssueDate
	}
	if out.DueDate == "" {
		out.DueDate = fallback.DueDate
	}
	if out.AmountDue == nil {
		out.AmountDue = fallback.AmountDue
	}
	if out.Subtotal == nil {
		out.Subtotal = fallback.Subtotal
	}
	if out.Tax == nil {
		out.Tax = fallback.Tax
	}
	if out.Vendor.Name == "" {
		out.Vendor.Name = fallback.Vendor.Name
	}
	if out.Vendor.Address == "" {
		out.Vendor.Address = fallback.Vendor.Address
	}
	if out.Vendor.Email == "" {
		out.Vendor.Email = fallback.Vendor.Email
	}
	if out.Vendor.Phone == "" {
		out.Vendor.Phone = fallback.Vendor.Phone
	}
	if out.Customer.Name == "" {
		out.Customer.Name = fallback.Customer.Name
	}
	if out.Customer.Email == "" {
		out.Customer.Email = fallback.Customer.Email
	}
	if len(out.Items) == 0 {
		out.Items = fallback.Items
	}
	if out.Currency == "" {
		out.Currency = fallback.Currency
	}
	return out
}
