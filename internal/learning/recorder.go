// Package learning records outcomes and turns the outcome log into
// selection recommendations.
package learning

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"SelfEarnBot/internal/domain"
	"SelfEarnBot/internal/ports"
)

const (
	defaultAttempts = 3
	defaultBackoff  = 100 * time.Millisecond
)

// Recorder appends outcome records durably and mirrors them to an optional sink.
type Recorder struct {
	store    ports.Store
	sink     ports.OutcomeSink
	logger   *slog.Logger
	attempts int
	backoff  time.Duration
	now      func() time.Time
}

// RecorderOption tweaks a Recorder.
type RecorderOption func(*Recorder)

// WithSink mirrors every durable record to sink.
func WithSink(sink ports.OutcomeSink) RecorderOption {
	return func(r *Recorder) { r.sink = sink }
}

// WithRetry sets how many times an append is tried and the first backoff.
func WithRetry(attempts int, backoff time.Duration) RecorderOption {
	return func(r *Recorder) {
		if attempts > 0 {
			r.attempts = attempts
		}
		r.backoff = backoff
	}
}

// NewRecorder builds a recorder over the store.
func NewRecorder(store ports.Store, logger *slog.Logger, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		store:    store,
		logger:   logger,
		attempts: defaultAttempts,
		backoff:  defaultBackoff,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record stamps the record, derives its insight tags and appends it. The
// append is retried; exhausting the attempts yields a *domain.PersistenceError.
func (r *Recorder) Record(ctx context.Context, rec domain.OutcomeRecord) (domain.OutcomeRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = r.now()
	}
	if len(rec.Insights) == 0 {
		rec.Insights = Insights(rec)
	}

	var lastErr error
	backoff := r.backoff
	for attempt := 1; attempt <= r.attempts; attempt++ {
		lastErr = r.store.AppendOutcome(ctx, rec)
		if lastErr == nil {
			break
		}
		r.warn("append outcome failed", "attempt", attempt, "outcome", rec.ID, "error", lastErr)
		if attempt == r.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return rec, &domain.PersistenceError{Op: "append outcome", Err: ctx.Err()}
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	if lastErr != nil {
		return rec, &domain.PersistenceError{
			Op:  "append outcome",
			Err: fmt.Errorf("after %d attempts: %w", r.attempts, lastErr),
		}
	}

	if r.logger != nil {
		r.logger.Info("outcome recorded",
			"opportunity", rec.OpportunityID,
			"category", rec.Features.Category,
			"success", rec.Success,
			"profit", rec.Profit)
	}

	if r.sink != nil {
		if err := r.sink.PublishOutcome(ctx, rec); err != nil {
			r.warn("mirror outcome failed", "outcome", rec.ID, "error", err)
		}
	}
	return rec, nil
}

// History loads recorded outcomes matching filter.
func (r *Recorder) History(ctx context.Context, filter domain.OutcomeFilter) ([]domain.OutcomeRecord, error) {
	records, err := r.store.ListOutcomes(ctx, filter)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "list outcomes", Err: err}
	}
	return records, nil
}

func (r *Recorder) warn(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}
}

// Insights derives human-readable tags from an outcome.
func Insights(rec domain.OutcomeRecord) []string {
	f := rec.Features
	var tags []string

	if rec.Success && rec.Profit > 10 {
		tags = append(tags, fmt.Sprintf("high-profit %s from %s", f.Category, f.Source))
	}
	if !rec.Success {
		tags = append(tags, fmt.Sprintf("failed %s", f.Category))
	}
	if f.ContentQuality < 0.6 && !rec.Success {
		tags = append(tags, "low content quality")
	}
	if f.OpportunityScore < 0.7 && rec.Profit < 5 {
		tags = append(tags, "low score, low profit")
	}

	if len(tags) == 0 {
		return []string{"normal outcome"}
	}
	return tags
}
