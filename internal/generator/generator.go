// Package generator turns execution plans into content by dispatching to a
// writer per category and a completion backend per provider.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"SelfEarnBot/internal/domain"
	"SelfEarnBot/internal/ports"
)

// Writer builds prompts for one content category and shapes the raw answer.
type Writer interface {
	Prompt(params domain.GenerationParams) (prompt string, maxTokens int)
	Shape(text string, params domain.GenerationParams) Draft
}

// Draft is a shaped answer with its heuristic quality.
type Draft struct {
	Body     string
	Quality  float64
	Metadata map[string]string
}

// Service implements ports.Generator over registered writers and backends.
type Service struct {
	writers  map[domain.Category]Writer
	backends map[string]ports.CompletionBackend
	assessor ports.QualityAssessor
	logger   *slog.Logger
	now      func() time.Time
}

var _ ports.Generator = (*Service)(nil)

// NewService creates a generator with the built-in writers for article,
// seo_content and code.
func NewService(backends map[string]ports.CompletionBackend, assessor ports.QualityAssessor, logger *slog.Logger) *Service {
	s := &Service{
		writers:  map[domain.Category]Writer{},
		backends: map[string]ports.CompletionBackend{},
		assessor: assessor,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
	s.RegisterWriter(domain.CategoryArticle, ArticleWriter{})
	s.RegisterWriter(domain.CategorySEO, ArticleWriter{})
	s.RegisterWriter(domain.CategoryCode, CodeWriter{})
	for name, b := range backends {
		s.RegisterBackend(name, b)
	}
	return s
}

// RegisterWriter installs or replaces the writer for a category.
func (s *Service) RegisterWriter(category domain.Category, w Writer) {
	s.writers[category] = w
}

// RegisterBackend installs or replaces the backend for a provider.
func (s *Service) RegisterBackend(provider string, b ports.CompletionBackend) {
	s.backends[strings.ToLower(provider)] = b
}

// Generate runs the plan's writer against the plan's backend.
func (s *Service) Generate(ctx context.Context, plan domain.ExecutionPlan) (domain.GeneratedContent, error) {
	fail := func(err error) (domain.GeneratedContent, error) {
		return domain.GeneratedContent{}, &domain.GenerationError{Provider: plan.Provider, Category: plan.Category, Err: err}
	}

	backend, ok := s.backends[strings.ToLower(plan.Provider)]
	if !ok {
		return fail(fmt.Errorf("%w: %q", domain.ErrNoBackend, plan.Provider))
	}
	writer, ok := s.writers[plan.Category]
	if !ok {
		return fail(fmt.Errorf("no writer for category %q", plan.Category))
	}

	prompt, maxTokens := writer.Prompt(plan.Params)
	completion, err := backend.Complete(ctx, prompt, maxTokens)
	if err != nil {
		return fail(err)
	}

	draft := writer.Shape(completion.Text, plan.Params)
	if strings.TrimSpace(draft.Body) == "" {
		return fail(errors.New("backend returned empty content"))
	}

	quality := draft.Quality
	if s.assessor != nil {
		assessed, err := s.assessor.Assess(ctx, plan.Category, plan.Params.Title, draft.Body)
		if err != nil {
			s.warn("quality assessor failed, keeping heuristic score", "category", plan.Category, "error", err)
		} else {
			quality = clamp(assessed)
		}
	}

	meta := map[string]string{"ai_provider": plan.Provider, "model": completion.Model}
	for k, v := range draft.Metadata {
		meta[k] = v
	}

	return domain.GeneratedContent{
		ID:           uuid.NewString(),
		Category:     plan.Category,
		Title:        plan.Params.Title,
		Body:         draft.Body,
		Provider:     plan.Provider,
		TokensUsed:   completion.TokensUsed,
		Cost:         completion.Cost,
		QualityScore: quality,
		Metadata:     meta,
		CreatedAt:    s.now(),
	}, nil
}

func (s *Service) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
