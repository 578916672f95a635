package learning

import "SelfEarnBot/internal/domain"

// CategoryStats is recomputed from the outcome log on demand and never stored.
type CategoryStats struct {
	Count       int
	Successes   int
	TotalProfit float64
	SuccessRate float64
	AvgProfit   float64
}

// Aggregate folds the outcome log into per-category counts.
func Aggregate(history []domain.OutcomeRecord) map[domain.Category]CategoryStats {
	stats := map[domain.Category]CategoryStats{}
	for _, rec := range history {
		cat := rec.Features.Category
		if cat == "" {
			cat = "unknown"
		}
		s := stats[cat]
		s.Count++
		if rec.Success {
			s.Successes++
		}
		s.TotalProfit += rec.Profit
		stats[cat] = s
	}
	for cat, s := range stats {
		if s.Count > 0 {
			s.SuccessRate = float64(s.Successes) / float64(s.Count)
			s.AvgProfit = s.TotalProfit / float64(s.Count)
		}
		stats[cat] = s
	}
	return stats
}

// Totals sums profit and counts over the whole log.
type Totals struct {
	Operations  int
	Successes   int
	Revenue     float64
	Cost        float64
	Profit      float64
	AvgProfit   float64
	SuccessRate float64
}

// Summarize computes lifetime totals from the outcome log.
func Summarize(history []domain.OutcomeRecord) Totals {
	var t Totals
	for _, rec := range history {
		t.Operations++
		if rec.Success {
			t.Successes++
		}
		t.Revenue += rec.Features.ActualRevenue
		t.Cost += rec.Features.ActualCost
		t.Profit += rec.Profit
	}
	if t.Operations > 0 {
		t.AvgProfit = t.Profit / float64(t.Operations)
		t.SuccessRate = float64(t.Successes) / float64(t.Operations)
	}
	return t
}
