package learning

import (
	"fmt"
	"math"
	"sort"

	"SelfEarnBot/internal/domain"
)

const (
	focusRate       = 0.7
	avoidRate       = 0.3
	minScoreFloor   = 0.5
	minScoreMargin  = 0.1
	minProviderRuns = 3
)

// Optimizer analyzes the outcome log. Every method is read-only and accepts
// an empty history.
type Optimizer struct {
	defaultMinScore float64
}

// NewOptimizer uses defaultMinScore when no successful outcome exists yet.
func NewOptimizer(defaultMinScore float64) *Optimizer {
	return &Optimizer{defaultMinScore: defaultMinScore}
}

// CategoryAnalysis is the per-category breakdown with focus and avoid lists.
type CategoryAnalysis struct {
	Stats map[domain.Category]CategoryStats
	Focus []domain.Category
	Avoid []domain.Category
}

// ProviderRecommendation is the most profitable backend seen for a category.
type ProviderRecommendation struct {
	Provider  string
	AvgProfit float64
	Samples   int
}

// Recommendations bundles everything the cycle may feed back into selection.
type Recommendations struct {
	MinScore          float64
	PreferredCategory domain.Category
	Focus             []domain.Category
	Avoid             []domain.Category
	Providers         map[domain.Category]ProviderRecommendation
	Suggestions       []string
}

// AnalyzeByCategory folds the log and marks categories above 0.7 success as
// focus and below 0.3 as avoid.
func (o *Optimizer) AnalyzeByCategory(history []domain.OutcomeRecord) CategoryAnalysis {
	stats := Aggregate(history)
	out := CategoryAnalysis{Stats: stats}
	for _, cat := range sortedCategories(stats) {
		s := stats[cat]
		switch {
		case s.SuccessRate > focusRate:
			out.Focus = append(out.Focus, cat)
		case s.SuccessRate < avoidRate:
			out.Avoid = append(out.Avoid, cat)
		}
	}
	return out
}

// RecommendMinScore is the mean score of successful outcomes minus 0.1,
// never below 0.5.
func (o *Optimizer) RecommendMinScore(history []domain.OutcomeRecord) float64 {
	var sum float64
	var n int
	for _, rec := range history {
		if rec.Success {
			sum += rec.Features.OpportunityScore
			n++
		}
	}
	if n == 0 {
		return o.defaultMinScore
	}
	return math.Max(sum/float64(n)-minScoreMargin, minScoreFloor)
}

// RecommendProviderPerCategory picks, per category, the backend with the
// highest mean profit among pairs with at least three samples.
func (o *Optimizer) RecommendProviderPerCategory(history []domain.OutcomeRecord) map[domain.Category]ProviderRecommendation {
	type key struct {
		category domain.Category
		provider string
	}
	type acc struct {
		count  int
		profit float64
	}

	pairs := map[key]acc{}
	var order []key
	for _, rec := range history {
		if rec.Features.Provider == "" {
			continue
		}
		k := key{rec.Features.Category, rec.Features.Provider}
		a, seen := pairs[k]
		if !seen {
			order = append(order, k)
		}
		a.count++
		a.profit += rec.Profit
		pairs[k] = a
	}

	out := map[domain.Category]ProviderRecommendation{}
	for _, k := range order {
		a := pairs[k]
		if a.count < minProviderRuns {
			continue
		}
		avg := a.profit / float64(a.count)
		if cur, ok := out[k.category]; !ok || avg > cur.AvgProfit {
			out[k.category] = ProviderRecommendation{Provider: k.provider, AvgProfit: avg, Samples: a.count}
		}
	}
	return out
}

// PreferredCategory is the most profitable category with better than even
// success, or "" when none qualifies.
func (o *Optimizer) PreferredCategory(history []domain.OutcomeRecord) domain.Category {
	stats := Aggregate(history)
	var best domain.Category
	bestProfit := 0.0
	for _, cat := range sortedCategories(stats) {
		s := stats[cat]
		if s.AvgProfit > bestProfit && s.SuccessRate > 0.5 {
			best = cat
			bestProfit = s.AvgProfit
		}
	}
	return best
}

// SuggestImprovements lists human-readable tuning hints.
func (o *Optimizer) SuggestImprovements(history []domain.OutcomeRecord) []string {
	var suggestions []string

	failures := recentFailures(history, 10)
	if len(failures) > 5 {
		counts := map[domain.Category]int{}
		for _, f := range failures {
			counts[f.Features.Category]++
		}
		var worst domain.Category
		for _, cat := range sortedKeys(counts) {
			if counts[cat] > counts[worst] {
				worst = cat
			}
		}
		suggestions = append(suggestions, fmt.Sprintf("consider avoiding %s, high failure rate", worst))
	}

	stats := Aggregate(history)
	total := 0
	for _, cat := range sortedCategories(stats) {
		s := stats[cat]
		total += s.Count
		if s.SuccessRate > 0.8 && s.Count > 3 {
			suggestions = append(suggestions, fmt.Sprintf("focus more on %s, %.0f%% success rate", cat, s.SuccessRate*100))
		}
	}
	if total < 10 {
		suggestions = append(suggestions, "need more data for reliable optimization (< 10 operations)")
	}
	return suggestions
}

// Optimize runs every analysis over the same history.
func (o *Optimizer) Optimize(history []domain.OutcomeRecord) Recommendations {
	analysis := o.AnalyzeByCategory(history)
	return Recommendations{
		MinScore:          o.RecommendMinScore(history),
		PreferredCategory: o.PreferredCategory(history),
		Focus:             analysis.Focus,
		Avoid:             analysis.Avoid,
		Providers:         o.RecommendProviderPerCategory(history),
		Suggestions:       o.SuggestImprovements(history),
	}
}

// ProviderPreferences flattens recommendations into a strategy table update.
func (r Recommendations) ProviderPreferences() map[domain.Category]string {
	out := make(map[domain.Category]string, len(r.Providers))
	for cat, rec := range r.Providers {
		out[cat] = rec.Provider
	}
	return out
}

func recentFailures(history []domain.OutcomeRecord, limit int) []domain.OutcomeRecord {
	var failures []domain.OutcomeRecord
	for _, rec := range history {
		if !rec.Success {
			failures = append(failures, rec)
		}
	}
	sort.SliceStable(failures, func(i, j int) bool {
		return failures[i].CreatedAt.After(failures[j].CreatedAt)
	})
	if len(failures) > limit {
		failures = failures[:limit]
	}
	return failures
}

func sortedCategories(stats map[domain.Category]CategoryStats) []domain.Category {
	out := make([]domain.Category, 0, len(stats))
	for cat := range stats {
		out = append(out, cat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sortedKeys(m map[domain.Category]int) []domain.Category {
	out := make([]domain.Category, 0, len(m))
	for cat := range m {
		out = append(out, cat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
