package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"SelfEarnBot/internal/config"
	"SelfEarnBot/internal/domain"
	"SelfEarnBot/internal/ports"
	"SelfEarnBot/internal/scanner"
)

// StrategySource implements OpportunitySource via registered scanner strategies.
type StrategySource struct {
	registry *scanner.Registry
	sources  []config.SourceConfig
	logger   *slog.Logger
}

var _ ports.OpportunitySource = (*StrategySource)(nil)

// NewStrategySource wires scanner registry with config-defined sources.
func NewStrategySource(reg *scanner.Registry, sources []config.SourceConfig, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		sources:  sources,
		logger:   log,
	}
}

// Discover scans every configured source concurrently and fans the results
// in, in configuration order. A failing source is logged as a
// *domain.DiscoveryError and contributes nothing.
func (s *StrategySource) Discover(ctx context.Context) ([]domain.Opportunity, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	s.debug("discover", "sources", len(s.sources))

	perSource := make([][]domain.Opportunity, len(s.sources))
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failures []error
	)
	for i, src := range s.sources {
		wg.Add(1)
		go func(i int, src config.SourceConfig) {
			defer wg.Done()
			results, err := s.scanSource(ctx, src)
			if err != nil {
				derr := &domain.DiscoveryError{Source: src.Name, Err: err}
				s.warn("source skipped", "source", src.Name, "scanner", src.Scanner, "error", derr)
				mu.Lock()
				failures = append(failures, derr)
				mu.Unlock()
				return
			}
			perSource[i] = results
		}(i, src)
	}
	wg.Wait()

	var aggregated []domain.Opportunity
	for _, results := range perSource {
		aggregated = append(aggregated, results...)
	}

	if err := ctx.Err(); err != nil && len(aggregated) == 0 {
		return nil, err
	}
	if len(failures) > 0 && len(failures) == len(s.sources) {
		s.warn("every source failed", "error", errors.Join(failures...))
	}

	s.debug("discovery done", "total_opportunities", len(aggregated), "failed_sources", len(failures))
	return aggregated, nil
}

func (s *StrategySource) scanSource(ctx context.Context, src config.SourceConfig) (results []domain.Opportunity, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scanner panicked: %v", r)
		}
	}()

	strategy, err := s.registry.Resolve(src.Scanner)
	if err != nil {
		return nil, err
	}

	req := scanner.Request{
		SourceName: src.Name,
		URLs:       src.URLs,
		Options:    src.Options,
	}

	results, err = strategy.Scan(ctx, req)
	if err != nil {
		return nil, err
	}
	for i := range results {
		if results[i].Source == "" {
			results[i].Source = src.Name
		}
	}
	s.debug("source produced opportunities", "source", src.Name, "count", len(results))
	return results, nil
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *StrategySource) warn(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
