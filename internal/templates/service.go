// Package templates is the human-in-the-loop administration surface: learned
// templates can be inspected and, when the learner got a document shape
// wrong, corrected in place. Corrections are effective on the next matching
// request because every lookup reads the store.
package templates

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/jmaine-gray/invoice-extractor/internal/common"
	"github.com/jmaine-gray/invoice-extractor/internal/entity"
	"github.com/jmaine-gray/invoice-extractor/internal/repository"
)

// Service handles template administration business logic.
type Service struct {
	store  repository.TemplateRepository
	logger *slog.Logger
}

func NewService(store repository.TemplateRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// ListTemplates returns every learned template, most recently used first.
func (s *Service) ListTemplates(ctx context.Context) ([]*entity.Template, error) {
	ts, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "list templates: %v", err)
	}
	s.logger.Info("templates listed", "count", len(ts))
	return ts, nil
}

// GetTemplate returns one template by id.
func (s *Service) GetTemplate(ctx context.Context, templateID string) (*entity.Template, error) {
	if templateID == "" {
		return nil, status.Error(codes.InvalidArgument, "template id is required")
	}
	t, err := s.store.GetByID(ctx, templateID)
	if errors.Is(err, common.ErrNotFound) {
		return nil, status.Error(codes.NotFound, "template not found")
	}
	if err != nil {
		return nil, status.Errorf(codes.Internal, "get template: %v", err)
	}
	return t, nil
}

// CorrectionRequest overwrites a mis-learned template's coordinates. A nil
// ItemPattern keeps the stored one.
type CorrectionRequest struct {
	TemplateID     string
	FieldPositions map[string]entity.FieldPosition
	ItemPattern    *entity.ItemPattern
}

// CorrectTemplate replaces field positions (and optionally the item pattern)
// for an existing template, preserving its identity and usage history.
func (s *Service) CorrectTemplate(ctx context.Context, req CorrectionRequest) (*entity.Template, error) {
	if req.TemplateID == "" {
		return nil, status.Error(codes.InvalidArgument, "template id is required")
	}
	if len(req.FieldPositions) == 0 {
		return nil, status.Error(codes.InvalidArgument, "field positions are required")
	}

	t, err := s.store.GetByID(ctx, req.TemplateID)
	if errors.Is(err, common.ErrNotFound) {
		return nil, status.Error(codes.NotFound, "template not found")
	}
	if err != nil {
		return nil, status.Errorf(codes.Internal, "load template: %v", err)
	}

	t.FieldPositions = req.FieldPositions
	if req.ItemPattern != nil {
		t.ItemPattern = *req.ItemPattern
	}
	t.LastUsed = time.Now().UTC()

	if err := s.store.Upsert(ctx, t); err != nil {
		return nil, status.Errorf(codes.Internal, "save template: %v", err)
	}

	s.logger.Info("template corrected",
		"template_id", t.TemplateID, "fields", len(t.FieldPositions))
	return t, nil
}
