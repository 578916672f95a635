package learning

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SelfEarnBot/internal/domain"
)

type fakeStore struct {
	mu       sync.Mutex
	failures int
	calls    int
	records  []domain.OutcomeRecord
}

func (s *fakeStore) SaveOpportunities(context.Context, []domain.Opportunity) error { return nil }
func (s *fakeStore) SaveContent(context.Context, domain.GeneratedContent) error    { return nil }
func (s *fakeStore) SaveBudget(context.Context, float64, time.Time) error          { return nil }
func (s *fakeStore) LatestBudget(context.Context) (float64, error)                 { return 0, domain.ErrNotFound }
func (s *fakeStore) Ping(context.Context) error                                    { return nil }
func (s *fakeStore) Close() error                                                  { return nil }

func (s *fakeStore) AppendOutcome(_ context.Context, rec domain.OutcomeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failures > 0 {
		s.failures--
		return errors.New("disk full")
	}
	s.records = append(s.records, rec)
	return nil
}

func (s *fakeStore) ListOutcomes(context.Context, domain.OutcomeFilter) ([]domain.OutcomeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.OutcomeRecord(nil), s.records...), nil
}

type fakeSink struct {
	err  error
	seen []string
}

func (s *fakeSink) PublishOutcome(_ context.Context, rec domain.OutcomeRecord) error {
	s.seen = append(s.seen, rec.ID)
	return s.err
}

func outcome(cat domain.Category, provider string, score float64, success bool, profit float64) domain.OutcomeRecord {
	return domain.OutcomeRecord{
		Features: domain.OutcomeFeatures{
			Category:         cat,
			Provider:         provider,
			OpportunityScore: score,
			ContentQuality:   0.8,
		},
		Success: success,
		Profit:  profit,
	}
}

func TestRecorderStampsAndAppends(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	sink := &fakeSink{}
	rec := NewRecorder(store, nil, WithSink(sink), WithRetry(3, 0))

	got, err := rec.Record(context.Background(), outcome(domain.CategoryArticle, "mistral", 0.8, true, 14))
	require.NoError(t, err)

	assert.NotEmpty(t, got.ID)
	assert.False(t, got.CreatedAt.IsZero())
	assert.Contains(t, got.Insights, "high-profit article from ")
	require.Len(t, store.records, 1)
	assert.Equal(t, []string{got.ID}, sink.seen)
}

func TestRecorderRetriesThenSucceeds(t *testing.T) {
	t.Parallel()

	store := &fakeStore{failures: 2}
	rec := NewRecorder(store, nil, WithRetry(3, time.Millisecond))

	_, err := rec.Record(context.Background(), outcome(domain.CategoryCode, "openai", 0.7, false, -0.02))
	require.NoError(t, err)
	assert.Equal(t, 3, store.calls)
	assert.Len(t, store.records, 1)
}

func TestRecorderReturnsPersistenceError(t *testing.T) {
	t.Parallel()

	store := &fakeStore{failures: 10}
	sink := &fakeSink{}
	rec := NewRecorder(store, nil, WithSink(sink), WithRetry(3, 0))

	_, err := rec.Record(context.Background(), outcome(domain.CategoryArticle, "mistral", 0.8, true, 1))
	require.Error(t, err)

	var pe *domain.PersistenceError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 3, store.calls)
	assert.Empty(t, sink.seen, "nothing is mirrored before the record is durable")
}

func TestRecorderIgnoresSinkFailure(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	rec := NewRecorder(store, nil, WithSink(&fakeSink{err: errors.New("broker down")}), WithRetry(1, 0))

	_, err := rec.Record(context.Background(), outcome(domain.CategoryArticle, "mistral", 0.8, true, 1))
	require.NoError(t, err)
	assert.Len(t, store.records, 1)
}

func TestInsights(t *testing.T) {
	t.Parallel()

	failed := outcome(domain.CategoryImage, "", 0.5, false, -0.3)
	failed.Features.ContentQuality = 0.4
	assert.Equal(t, []string{"failed image", "low content quality", "low score, low profit"}, Insights(failed))

	plain := outcome(domain.CategoryArticle, "mistral", 0.9, true, 6)
	assert.Equal(t, []string{"normal outcome"}, Insights(plain))
}

func TestAggregateAndSummarize(t *testing.T) {
	t.Parallel()

	history := []domain.OutcomeRecord{
		outcome(domain.CategoryArticle, "mistral", 0.8, true, 10),
		outcome(domain.CategoryArticle, "mistral", 0.8, false, -1),
		outcome(domain.CategoryCode, "openai", 0.7, true, 20),
	}
	stats := Aggregate(history)

	require.Contains(t, stats, domain.CategoryArticle)
	assert.Equal(t, 2, stats[domain.CategoryArticle].Count)
	assert.InDelta(t, 0.5, stats[domain.CategoryArticle].SuccessRate, 1e-9)
	assert.InDelta(t, 4.5, stats[domain.CategoryArticle].AvgProfit, 1e-9)
	assert.InDelta(t, 1.0, stats[domain.CategoryCode].SuccessRate, 1e-9)

	totals := Summarize(history)
	assert.Equal(t, 3, totals.Operations)
	assert.InDelta(t, 29, totals.Profit, 1e-9)
	assert.InDelta(t, 2.0/3.0, totals.SuccessRate, 1e-9)
}

func TestRecommendMinScore(t *testing.T) {
	t.Parallel()

	opt := NewOptimizer(0.7)

	t.Run("empty history keeps default", func(t *testing.T) {
		assert.Equal(t, 0.7, opt.RecommendMinScore(nil))
	})

	t.Run("mean of successes minus margin", func(t *testing.T) {
		history := []domain.OutcomeRecord{
			outcome(domain.CategoryArticle, "mistral", 0.9, true, 5),
			outcome(domain.CategoryArticle, "mistral", 0.8, true, 5),
			outcome(domain.CategoryArticle, "mistral", 0.2, false, -1),
		}
		assert.InDelta(t, 0.75, opt.RecommendMinScore(history), 1e-9)
	})

	t.Run("floored", func(t *testing.T) {
		history := []domain.OutcomeRecord{outcome(domain.CategoryArticle, "mistral", 0.4, true, 5)}
		assert.Equal(t, 0.5, opt.RecommendMinScore(history))
	})
}

func TestAnalyzeByCategory(t *testing.T) {
	t.Parallel()

	var history []domain.OutcomeRecord
	for i := 0; i < 4; i++ {
		history = append(history, outcome(domain.CategorySEO, "mistral", 0.8, true, 3))
		history = append(history, outcome(domain.CategoryImage, "mistral", 0.5, false, -0.2))
	}
	history = append(history, outcome(domain.CategoryArticle, "mistral", 0.8, true, 3))
	history = append(history, outcome(domain.CategoryArticle, "mistral", 0.8, false, 0))

	a := NewOptimizer(0.7).AnalyzeByCategory(history)
	assert.Equal(t, []domain.Category{domain.CategorySEO}, a.Focus)
	assert.Equal(t, []domain.Category{domain.CategoryImage}, a.Avoid)
	assert.Len(t, a.Stats, 3)
}

func TestRecommendProviderPerCategory(t *testing.T) {
	t.Parallel()

	var history []domain.OutcomeRecord
	for i := 0; i < 3; i++ {
		history = append(history, outcome(domain.CategoryCode, "openai", 0.8, true, 12))
		history = append(history, outcome(domain.CategoryCode, "mistral", 0.8, true, 8))
	}
	history = append(history, outcome(domain.CategoryArticle, "openai", 0.8, true, 50))
	history = append(history, outcome(domain.CategoryArticle, "openai", 0.8, true, 50))

	got := NewOptimizer(0.7).RecommendProviderPerCategory(history)
	require.Contains(t, got, domain.CategoryCode)
	assert.Equal(t, "openai", got[domain.CategoryCode].Provider)
	assert.Equal(t, 3, got[domain.CategoryCode].Samples)
	assert.NotContains(t, got, domain.CategoryArticle, "two samples are not enough")
}

func TestPreferredCategoryAndSuggestions(t *testing.T) {
	t.Parallel()

	opt := NewOptimizer(0.7)
	assert.Equal(t, domain.Category(""), opt.PreferredCategory(nil))
	assert.Equal(t, []string{"need more data for reliable optimization (< 10 operations)"}, opt.SuggestImprovements(nil))

	now := time.Now()
	var history []domain.OutcomeRecord
	for i := 0; i < 6; i++ {
		r := outcome(domain.CategoryImage, "mistral", 0.5, false, -0.1)
		r.CreatedAt = now.Add(time.Duration(i) * time.Minute)
		history = append(history, r)
	}
	for i := 0; i < 5; i++ {
		history = append(history, outcome(domain.CategorySEO, "mistral", 0.9, true, 4))
	}

	assert.Equal(t, domain.CategorySEO, opt.PreferredCategory(history))
	assert.Equal(t, []string{
		"consider avoiding image, high failure rate",
		"focus more on seo_content, 100% success rate",
	}, opt.SuggestImprovements(history))

	recs := opt.Optimize(history)
	assert.Equal(t, domain.CategorySEO, recs.PreferredCategory)
	assert.Equal(t, "mistral", recs.ProviderPreferences()[domain.CategoryImage])
}
