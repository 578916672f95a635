// Package scoring rates opportunities on a [0,1] scale.
package scoring

import (
	"math"

	"SelfEarnBot/internal/domain"
)

const (
	weightMargin      = 0.4
	weightRevenue     = 0.3
	weightFeasibility = 0.2
	weightReliability = 0.1

	marginCeiling = 0.9
	revenueCap    = 50.0

	defaultFeasibility = 0.5
	defaultReliability = 0.5

	defaultCostMin = 0.01
	defaultCostMax = 0.10
	longFormWords  = 1000
	longFormFactor = 1.5
	defaultWordCnt = 800
)

var feasibility = map[domain.Category]float64{
	domain.CategoryArticle: 0.9,
	domain.CategorySEO:     0.95,
	domain.CategoryCode:    0.7,
	domain.CategoryImage:   0.3,
}

var reliability = map[string]float64{
	"rss":                 0.6,
	"rss_demo":            0.8,
	"freelance_demo":      0.9,
	"content_market_demo": 0.85,
}

// CostRange is the configured AI generation cost range for a category.
type CostRange struct {
	Min float64
	Max float64
}

// Engine scores opportunities. It holds only read-only tables, so Score and
// EstimateCost are pure.
type Engine struct {
	costs map[domain.Category]CostRange
}

// NewEngine builds an engine over per-category cost ranges. Categories absent
// from the table fall back to a 0.01..0.10 range.
func NewEngine(costs map[domain.Category]CostRange) *Engine {
	table := make(map[domain.Category]CostRange, len(costs))
	for k, v := range costs {
		table[k] = v
	}
	return &Engine{costs: table}
}

// CostRange returns the configured range for the category or the default.
func (e *Engine) CostRange(category domain.Category) CostRange {
	if r, ok := e.costs[category]; ok {
		return r
	}
	return CostRange{Min: defaultCostMin, Max: defaultCostMax}
}

// EstimateCost is the midpoint of the category's cost range, raised 1.5x for
// long-form requests.
func (e *Engine) EstimateCost(opp domain.Opportunity) float64 {
	r := e.CostRange(opp.Category)
	cost := (r.Min + r.Max) / 2

	words := opp.Requirements.WordCount
	if words == 0 {
		words = defaultWordCnt
	}
	if words > longFormWords {
		cost *= longFormFactor
	}
	return round(cost, 4)
}

// Score combines margin, revenue potential, category feasibility and source
// reliability with fixed weights. Unknown categories and sources get 0.5.
func (e *Engine) Score(opp domain.Opportunity) float64 {
	revenue := math.Max(opp.EstimatedRevenue, 0)
	score := 0.0

	if revenue > 0 {
		margin := (revenue - e.EstimateCost(opp)) / revenue
		score += clamp(margin/marginCeiling) * weightMargin
	}

	score += math.Min(revenue/revenueCap, 1) * weightRevenue
	score += Feasibility(opp.Category) * weightFeasibility
	score += Reliability(opp.Source) * weightReliability

	return clamp(round(score, 3))
}

// Rate scores and costs an opportunity in one pass.
func (e *Engine) Rate(opp domain.Opportunity) domain.ScoredOpportunity {
	return domain.ScoredOpportunity{
		Opportunity:   opp,
		Score:         e.Score(opp),
		EstimatedCost: e.EstimateCost(opp),
	}
}

// Feasibility looks up how well a category can be fulfilled.
func Feasibility(category domain.Category) float64 {
	if v, ok := feasibility[category]; ok {
		return v
	}
	return defaultFeasibility
}

// Reliability looks up how trustworthy a discovery source is.
func Reliability(source string) float64 {
	if v, ok := reliability[source]; ok {
		return v
	}
	return defaultReliability
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
