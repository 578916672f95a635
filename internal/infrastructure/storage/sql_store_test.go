package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SelfEarnBot/internal/domain"
)

func sampleOutcome(id string, cat domain.Category, at time.Time) domain.OutcomeRecord {
	return domain.OutcomeRecord{
		ID:            id,
		CycleID:       "cycle-1",
		OpportunityID: "opp-" + id,
		ContentID:     "content-" + id,
		PublishID:     "pub-" + id,
		Status:        domain.StatusPublished,
		Features: domain.OutcomeFeatures{
			Category:         cat,
			Source:           "rss_demo",
			OpportunityScore: 0.81,
			ContentQuality:   0.9,
			Provider:         "mistral",
			EstimatedRevenue: 25,
			ActualRevenue:    22.5,
			ActualCost:       0.05,
		},
		Success:   true,
		Profit:    22.45,
		Insights:  []string{"high-profit article from rss_demo"},
		CreatedAt: at,
	}
}

func TestPostgresAppendOutcome(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := New(db, DriverPostgres)
	at := time.UnixMilli(1_700_000_000_000).UTC()
	rec := sampleOutcome("o1", domain.CategoryArticle, at)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO outcomes (id,cycle_id,opportunity_id")).
		WithArgs("o1", "cycle-1", "opp-o1", "content-o1", "pub-o1", "published",
			"article", "rss_demo", 0.81, 0.9, "mistral", 25.0, 22.5, 0.05, true, 22.45,
			`["high-profit article from rss_demo"]`, int64(1_700_000_000_000)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, store.AppendOutcome(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceholdersFollowDriver(t *testing.T) {
	cases := []struct {
		driver string
		query  string
	}{
		{DriverPostgres, "INSERT INTO budget_snapshots (recorded_at,balance) VALUES ($1,$2)"},
		{DriverSQLite, "INSERT INTO budget_snapshots (recorded_at,balance) VALUES (?,?)"},
	}

	for _, tc := range cases {
		t.Run(tc.driver, func(t *testing.T) {
			db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
			require.NoError(t, err)
			defer db.Close()

			at := time.UnixMilli(1_700_000_000_000)
			mock.ExpectExec(tc.query).
				WithArgs(int64(1_700_000_000_000), 12.5).
				WillReturnResult(sqlmock.NewResult(1, 1))

			require.NoError(t, New(db, tc.driver).SaveBudget(context.Background(), 12.5, at))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresListOutcomesFilters(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := New(db, DriverPostgres)
	rows := sqlmock.NewRows(outcomeColumns).
		AddRow("o1", "c1", "opp", "content", "pub", "published", "code", "rss", 0.7, 0.8, "openai",
			40.0, 40.0, 0.2, true, 39.8, `["normal outcome"]`, int64(1_700_000_000_000))

	mock.ExpectQuery(regexp.QuoteMeta("FROM outcomes WHERE category = $1 ORDER BY created_at ASC, id ASC LIMIT 5")).
		WithArgs("code").
		WillReturnRows(rows)

	got, err := store.ListOutcomes(context.Background(), domain.OutcomeFilter{Category: domain.CategoryCode, Limit: 5})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.CategoryCode, got[0].Features.Category)
	assert.Equal(t, "openai", got[0].Features.Provider)
	assert.True(t, got[0].Success)
	assert.Equal(t, []string{"normal outcome"}, got[0].Insights)
	assert.Equal(t, time.UnixMilli(1_700_000_000_000).UTC(), got[0].CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLatestBudgetEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT balance FROM budget_snapshots ORDER BY recorded_at DESC LIMIT 1")).
		WillReturnRows(sqlmock.NewRows([]string{"balance"}))

	_, err = New(db, DriverPostgres).LatestBudget(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAppendOutcomeSurfacesErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO outcomes").WillReturnError(errors.New("connection reset"))

	err = New(db, DriverPostgres).AppendOutcome(context.Background(), sampleOutcome("o1", domain.CategoryArticle, time.Now()))
	assert.ErrorContains(t, err, "connection reset")
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, DriverSQLite, ":memory:")
	require.NoError(t, err)
	defer store.Close()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	opp := domain.Opportunity{
		ID:               "opp-1",
		Source:           "rss_demo",
		Title:            "Need article",
		Category:         domain.CategoryArticle,
		EstimatedRevenue: 25,
		Requirements:     domain.Requirements{WordCount: 1000, Keywords: []string{"AI"}},
		CreatedAt:        base,
	}
	require.NoError(t, store.SaveOpportunities(ctx, []domain.Opportunity{opp}))
	require.NoError(t, store.SaveOpportunities(ctx, []domain.Opportunity{opp}), "duplicate ids are ignored")

	require.NoError(t, store.SaveContent(ctx, domain.GeneratedContent{
		ID: "content-1", OpportunityID: "opp-1", Category: domain.CategoryArticle,
		Title: "Need article", Body: "text", Provider: "mistral", TokensUsed: 900,
		Cost: 0.0002, QualityScore: 0.9, Status: domain.StatusPublished,
		Metadata: map[string]string{"model": "mistral-tiny"}, CreatedAt: base,
	}))

	require.NoError(t, store.AppendOutcome(ctx, sampleOutcome("a", domain.CategoryArticle, base)))
	require.NoError(t, store.AppendOutcome(ctx, sampleOutcome("b", domain.CategoryCode, base.Add(time.Hour))))
	failed := sampleOutcome("c", domain.CategoryArticle, base.Add(2*time.Hour))
	failed.Success = false
	failed.Insights = nil
	require.NoError(t, store.AppendOutcome(ctx, failed))

	all, err := store.ListOutcomes(ctx, domain.OutcomeFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{all[0].ID, all[1].ID, all[2].ID})
	assert.Equal(t, sampleOutcome("a", domain.CategoryArticle, base), all[0])
	assert.False(t, all[2].Success)

	articles, err := store.ListOutcomes(ctx, domain.OutcomeFilter{Category: domain.CategoryArticle})
	require.NoError(t, err)
	assert.Len(t, articles, 2)

	window, err := store.ListOutcomes(ctx, domain.OutcomeFilter{Since: base.Add(30 * time.Minute), Until: base.Add(2 * time.Hour)})
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, "b", window[0].ID)

	_, err = store.LatestBudget(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, store.SaveBudget(ctx, 10, base))
	require.NoError(t, store.SaveBudget(ctx, 12.5, base.Add(time.Minute)))
	balance, err := store.LatestBudget(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12.5, balance)

	assert.NoError(t, store.Ping(ctx))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "dsn")
	assert.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveOpportunities(ctx, []domain.Opportunity{{ID: "x"}, {ID: "x"}}))
	assert.Equal(t, 1, store.Opportunities())

	require.NoError(t, store.AppendOutcome(ctx, sampleOutcome("late", domain.CategoryCode, base.Add(time.Hour))))
	require.NoError(t, store.AppendOutcome(ctx, sampleOutcome("early", domain.CategoryArticle, base)))

	got, err := store.ListOutcomes(ctx, domain.OutcomeFilter{})
	require.NoError(t, err)
	assert.Equal(t, "early", got[0].ID)

	got, err = store.ListOutcomes(ctx, domain.OutcomeFilter{Category: domain.CategoryCode, Limit: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "late", got[0].ID)

	_, err = store.LatestBudget(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, store.SaveBudget(ctx, 3, base))
	balance, err := store.LatestBudget(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3.0, balance)
}
