package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SelfEarnBot/internal/domain"
	"SelfEarnBot/internal/infrastructure/storage"
	"SelfEarnBot/internal/learning"
)

type fixedBudget float64

func (b fixedBudget) Get() float64 { return float64(b) }

type fixedCycles struct{}

func (fixedCycles) Count() int        { return 4 }
func (fixedCycles) MinScore() float64 { return 0.65 }

func (fixedCycles) LastRecommendations() (learning.Recommendations, bool) {
	return learning.Recommendations{
		MinScore:          0.65,
		PreferredCategory: domain.CategoryCode,
		Focus:             []domain.Category{domain.CategoryCode},
	}, true
}

type downStore struct {
	*storage.MemoryStore
}

func (downStore) Ping(context.Context) error { return errors.New("connection refused") }

func (downStore) ListOutcomes(context.Context, domain.OutcomeFilter) ([]domain.OutcomeRecord, error) {
	return nil, errors.New("connection refused")
}

func seededStore(t *testing.T) *storage.MemoryStore {
	t.Helper()
	store := storage.NewMemoryStore()
	base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	for i, row := range []struct {
		cat     domain.Category
		revenue float64
		success bool
	}{
		{domain.CategoryArticle, 20, true},
		{domain.CategoryArticle, 0, false},
		{domain.CategoryCode, 40, true},
	} {
		rec := domain.NewOutcomeRecord(domain.OutcomeFeatures{
			Category:         row.cat,
			Provider:         "mistral",
			OpportunityScore: 0.8,
			ActualRevenue:    row.revenue,
			ActualCost:       0.1,
		}, row.success)
		rec.ID = string(rune('a' + i))
		rec.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, store.AppendOutcome(context.Background(), rec))
	}
	return store
}

func newServer(t *testing.T) *Server {
	t.Helper()
	return New(seededStore(t), fixedBudget(31.5), fixedCycles{}, learning.NewOptimizer(0.7), nil)
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	t.Parallel()

	rec := get(t, newServer(t).Router(), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)

	down := New(downStore{storage.NewMemoryStore()}, fixedBudget(0), nil, learning.NewOptimizer(0.7), nil)
	rec = get(t, down.Router(), "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestStatus(t *testing.T) {
	t.Parallel()

	zone := time.FixedZone("MSK", 3*60*60)
	s := New(seededStore(t), fixedBudget(31.5), fixedCycles{}, learning.NewOptimizer(0.7), nil,
		WithLocation(zone), WithScanners([]string{"rss", "demo", "market"}))

	rec := get(t, s.Router(), "/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var body statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "MSK", body.Timezone)
	_, offset := body.Time.Zone()
	assert.Equal(t, 3*60*60, offset)
	assert.Equal(t, []string{"demo", "market", "rss"}, body.Scanners)
	assert.Equal(t, 4, body.Cycles)
	require.NotNil(t, body.Applied)
	assert.Equal(t, "code", body.Applied.PreferredCategory)
	assert.Equal(t, []domain.Category{domain.CategoryCode}, body.Applied.Focus)
}

func TestStatusWithoutOrchestrator(t *testing.T) {
	t.Parallel()

	s := New(storage.NewMemoryStore(), fixedBudget(0), nil, learning.NewOptimizer(0.7), nil)
	rec := get(t, s.Router(), "/status")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"timezone":"UTC"`)
	assert.Contains(t, rec.Body.String(), `"scanners":[]`)
	assert.NotContains(t, rec.Body.String(), "applied_recommendations")
}

func TestBudget(t *testing.T) {
	t.Parallel()

	rec := get(t, newServer(t).Router(), "/budget")
	require.Equal(t, http.StatusOK, rec.Code)

	var body budgetResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 31.5, body.Balance)
	assert.Equal(t, 4, body.Cycles)
	assert.Equal(t, 0.65, body.MinScore)
}

func TestStats(t *testing.T) {
	t.Parallel()

	rec := get(t, newServer(t).Router(), "/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var body statsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Operations)
	assert.Equal(t, 2, body.Successes)
	assert.InDelta(t, 59.7, body.Profit, 1e-9)
	require.Len(t, body.Categories, 2)
	assert.Equal(t, "article", body.Categories[0].Category)
	assert.InDelta(t, 0.5, body.Categories[0].SuccessRate, 1e-9)
}

func TestStatsFilters(t *testing.T) {
	t.Parallel()

	h := newServer(t).Router()

	rec := get(t, h, "/stats?category=code")
	require.Equal(t, http.StatusOK, rec.Code)
	var body statsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Operations)

	rec = get(t, h, "/stats?since=yesterday")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatsStoreFailure(t *testing.T) {
	t.Parallel()

	s := New(downStore{storage.NewMemoryStore()}, fixedBudget(0), nil, learning.NewOptimizer(0.7), nil)
	rec := get(t, s.Router(), "/stats")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRecommendations(t *testing.T) {
	t.Parallel()

	rec := get(t, newServer(t).Router(), "/recommendations")
	require.Equal(t, http.StatusOK, rec.Code)

	var body recommendationsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.InDelta(t, 0.7, body.MinScore, 1e-9)
	assert.Equal(t, "code", body.PreferredCategory)
	assert.Contains(t, body.Suggestions, "need more data for reliable optimization (< 10 operations)")
	assert.Empty(t, body.Providers, "fewer than three samples per category")
}

func TestReport(t *testing.T) {
	t.Parallel()

	rec := get(t, newServer(t).Router(), "/report")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, rec.Body.String(), "Budget: $31.50")
}
