package ai

import (
	"context"

	"github.com/jmaine-gray/invoice-extractor/internal/entity"
)

// ExtractRequest carries the full raw document text to the AI collaborator.
type ExtractRequest struct {
	RawText         string
	SourceFilename  string
	DefaultCurrency string
}

// FieldExtractor is the escalation interface the pipeline depends on. It
// must be safe to call multiple times with identical input; implementations
// own their timeout and retry budget.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, req ExtractRequest) (entity.InvoiceFields, []byte /*rawJSON*/, error)
}
