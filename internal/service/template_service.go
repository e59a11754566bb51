package service

import (
	"context"
	"fmt"
	"formdesk/internal/model"
	"formdesk/internal/repository"

	"go.uber.org/zap"
)

// TemplateService serves the read-only template catalog
type TemplateService struct {
	repo   repository.TemplateRepo
	logger *zap.Logger
}

// NewTemplateService creates a new template service
func NewTemplateService(repo repository.TemplateRepo, logger *zap.Logger) *TemplateService {
	return &TemplateService{
		repo:   repo,
		logger: logger,
	}
}

// List returns the summary of every template
func (s *TemplateService) List(ctx context.Context) ([]model.TemplateSummary, error) {
	templates, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	out := make([]model.TemplateSummary, 0, len(templates))
	for _, t := range templates {
		out = append(out, t.Summary())
	}
	return out, nil
}

// Get returns one template or ErrTemplateNotFound
func (s *TemplateService) Get(ctx context.Context, id string) (*model.Template, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	if t == nil {
		return nil, ErrTemplateNotFound
	}
	return t, nil
}

// Seed upserts every template
func (s *TemplateService) Seed(ctx context.Context, templates []model.Template) error {
	for i := range templates {
		if err := s.repo.Upsert(ctx, &templates[i]); err != nil {
			return fmt.Errorf("failed to seed template %s: %w", templates[i].ID, err)
		}
		s.logger.Debug("template seeded", zap.String("id", templates[i].ID))
	}
	return nil
}

// EnsureDefaults seeds templates only when the catalog is empty.
// It reports whether anything was written.
func (s *TemplateService) EnsureDefaults(ctx context.Context, templates []model.Template) (bool, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to count templates: %w", err)
	}
	if n > 0 {
		return false, nil
	}
	if err := s.Seed(ctx, templates); err != nil {
		return false, err
	}
	s.logger.Info("template catalog seeded", zap.Int("count", len(templates)))
	return true, nil
}
