// Package selector admits scored opportunities under a budget.
package selector

import (
	"log/slog"
	"sort"

	"SelfEarnBot/internal/domain"
)

// Rater scores and costs one opportunity.
type Rater interface {
	Rate(opp domain.Opportunity) domain.ScoredOpportunity
}

// Selector ranks, filters and greedily admits opportunities.
type Selector struct {
	rater  Rater
	logger *slog.Logger
}

// New wires a selector around a rater.
func New(rater Rater, logger *slog.Logger) *Selector {
	return &Selector{rater: rater, logger: logger}
}

// Selection is the outcome of one budgeted admission pass.
type Selection struct {
	Admitted  []domain.ScoredOpportunity
	Remaining float64
}

// Rank scores every opportunity and orders them by score, highest first.
// Ties keep input order.
func (s *Selector) Rank(opps []domain.Opportunity) []domain.ScoredOpportunity {
	ranked := make([]domain.ScoredOpportunity, 0, len(opps))
	for _, opp := range opps {
		ranked = append(ranked, s.rater.Rate(opp))
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	s.debug("ranked opportunities", "count", len(ranked))
	return ranked
}

// Filter keeps candidates whose score reaches minScore, preserving order.
func (s *Selector) Filter(ranked []domain.ScoredOpportunity, minScore float64) []domain.ScoredOpportunity {
	filtered := make([]domain.ScoredOpportunity, 0, len(ranked))
	for _, c := range ranked {
		if c.Score >= minScore {
			filtered = append(filtered, c)
		}
	}
	s.debug("filtered opportunities", "count", len(filtered), "min_score", minScore)
	return filtered
}

// SelectWithinBudget walks the candidates once. A candidate is admitted when
// fewer than maxCount are admitted and its cost fits the remaining budget;
// otherwise it is skipped and the walk continues, since a cheaper candidate
// further down may still fit.
func (s *Selector) SelectWithinBudget(candidates []domain.ScoredOpportunity, budget float64, maxCount int) Selection {
	sel := Selection{Remaining: budget}
	for _, c := range candidates {
		if len(sel.Admitted) >= maxCount {
			s.debug("skip candidate", "opportunity", c.Opportunity.ID, "reason", "max per cycle")
			continue
		}
		if c.EstimatedCost > sel.Remaining {
			s.debug("skip candidate", "opportunity", c.Opportunity.ID, "reason", "insufficient budget",
				"cost", c.EstimatedCost, "remaining", sel.Remaining)
			continue
		}
		sel.Admitted = append(sel.Admitted, c)
		sel.Remaining -= c.EstimatedCost
	}
	return sel
}

// Select runs rank, filter and budgeted admission in sequence.
func (s *Selector) Select(opps []domain.Opportunity, minScore, budget float64, maxCount int) Selection {
	return s.SelectWithinBudget(s.Filter(s.Rank(opps), minScore), budget, maxCount)
}

func (s *Selector) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
