package scoring

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"SelfEarnBot/internal/domain"
)

func testEngine() *Engine {
	return NewEngine(map[domain.Category]CostRange{
		domain.CategoryArticle: {Min: 0.01, Max: 0.10},
		domain.CategoryCode:    {Min: 0.02, Max: 0.20},
		domain.CategorySEO:     {Min: 0.01, Max: 0.08},
	})
}

func TestScoreDemoArticle(t *testing.T) {
	t.Parallel()

	opp := domain.Opportunity{
		Source:           "rss_demo",
		Category:         domain.CategoryArticle,
		EstimatedRevenue: 25,
		Requirements:     domain.Requirements{WordCount: 1000},
	}

	e := testEngine()
	assert.InDelta(t, 0.055, e.EstimateCost(opp), 1e-9)

	score := e.Score(opp)
	assert.Greater(t, score, 0.5)
	assert.InDelta(t, 0.81, score, 1e-9)
}

func TestEstimateCostLongForm(t *testing.T) {
	t.Parallel()

	e := testEngine()
	short := domain.Opportunity{Category: domain.CategoryCode, Requirements: domain.Requirements{WordCount: 1000}}
	long := domain.Opportunity{Category: domain.CategoryCode, Requirements: domain.Requirements{WordCount: 1001}}

	assert.InDelta(t, 0.11, e.EstimateCost(short), 1e-9)
	assert.InDelta(t, 0.165, e.EstimateCost(long), 1e-9)
}

func TestUnknownCategoryAndSourceUseDefaults(t *testing.T) {
	t.Parallel()

	e := testEngine()
	opp := domain.Opportunity{Source: "carrier-pigeon", Category: "poetry"}

	assert.Equal(t, CostRange{Min: 0.01, Max: 0.10}, e.CostRange(opp.Category))
	// zero revenue: only feasibility and reliability contribute
	assert.InDelta(t, 0.5*0.2+0.5*0.1, e.Score(opp), 1e-9)
}

func TestZeroRevenueHasNoMarginFactor(t *testing.T) {
	t.Parallel()

	e := testEngine()
	opp := domain.Opportunity{Source: "rss", Category: domain.CategoryArticle}
	assert.InDelta(t, 0.9*0.2+0.6*0.1, e.Score(opp), 1e-9)
}

func TestScoreAlwaysInUnitRange(t *testing.T) {
	t.Parallel()

	e := testEngine()
	rng := rand.New(rand.NewSource(7))
	categories := []domain.Category{domain.CategoryArticle, domain.CategoryCode, domain.CategorySEO, domain.CategoryImage, "other"}
	sources := []string{"rss", "rss_demo", "freelance_demo", "content_market_demo", "unknown"}

	for i := 0; i < 2000; i++ {
		opp := domain.Opportunity{
			Source:           sources[rng.Intn(len(sources))],
			Category:         categories[rng.Intn(len(categories))],
			EstimatedRevenue: rng.Float64() * 500,
			Requirements:     domain.Requirements{WordCount: rng.Intn(3000)},
		}
		if i%10 == 0 {
			opp.EstimatedRevenue = rng.Float64() * 0.05
		}
		s := e.Score(opp)
		if s < 0 || s > 1 {
			t.Fatalf("score out of range: %v for %+v", s, opp)
		}
	}
}
