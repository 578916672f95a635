// Package strategy maps a content category to an execution plan.
package strategy

import (
	"sync"

	"SelfEarnBot/internal/domain"
	"SelfEarnBot/internal/scoring"
)

// Provider and outlet identifiers used by the built-in plans.
const (
	ProviderOpenAI  = "openai"
	ProviderMistral = "mistral"

	OutletPlatform  = "platform"
	OutletFreelance = "freelance"

	minBudgetForCodeOpenAI = 0.02
)

// CostRanger exposes the configured AI cost range per category.
type CostRanger interface {
	CostRange(category domain.Category) scoring.CostRange
}

// Table resolves execution plans. Provider preferences learned by the
// optimizer can be installed between cycles.
type Table struct {
	costs CostRanger

	mu        sync.RWMutex
	preferred map[domain.Category]string
}

// NewTable builds a table using costs to judge what the budget can afford.
func NewTable(costs CostRanger) *Table {
	return &Table{costs: costs, preferred: map[domain.Category]string{}}
}

// Plan derives the plan for an opportunity given the budget remaining at the
// point in the batch where it is processed.
func (t *Table) Plan(opp domain.Opportunity, remaining float64) domain.ExecutionPlan {
	plan := basePlan(opp)
	plan.Provider = t.ChooseProvider(plan.Category, remaining)
	plan.Params.Provider = plan.Provider
	return plan
}

// ChooseProvider picks the generation backend the remaining budget affords.
// Below the category's maximum AI cost only the cheap backend is used.
func (t *Table) ChooseProvider(category domain.Category, remaining float64) string {
	typical := t.costs.CostRange(category).Max
	if remaining < typical {
		return ProviderMistral
	}

	t.mu.RLock()
	pref, ok := t.preferred[category]
	t.mu.RUnlock()
	if ok && pref != "" {
		return pref
	}

	if category == domain.CategoryCode && remaining >= minBudgetForCodeOpenAI {
		return ProviderOpenAI
	}
	return ProviderMistral
}

// SetPreferredProviders replaces the learned provider preferences.
func (t *Table) SetPreferredProviders(prefs map[domain.Category]string) {
	next := make(map[domain.Category]string, len(prefs))
	for k, v := range prefs {
		next[k] = v
	}
	t.mu.Lock()
	t.preferred = next
	t.mu.Unlock()
}

// PreferredProviders returns a copy of the installed preferences.
func (t *Table) PreferredProviders() map[domain.Category]string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[domain.Category]string, len(t.preferred))
	for k, v := range t.preferred {
		out[k] = v
	}
	return out
}

func basePlan(opp domain.Opportunity) domain.ExecutionPlan {
	req := opp.Requirements
	switch opp.Category {
	case domain.CategoryArticle:
		return domain.ExecutionPlan{
			Category: domain.CategoryArticle,
			Params: domain.GenerationParams{
				Title:     opp.Title,
				WordCount: orDefault(req.WordCount, 800),
				Tone:      "professional",
				Keywords:  req.Keywords,
			},
			Outlet:     OutletPlatform,
			Confidence: 0.85,
		}
	case domain.CategoryCode:
		lang := req.Language
		if lang == "" {
			lang = "python"
		}
		return domain.ExecutionPlan{
			Category: domain.CategoryCode,
			Params: domain.GenerationParams{
				Title:       opp.Title,
				Description: opp.Title,
				Language:    lang,
				Keywords:    req.Keywords,
			},
			Outlet:     OutletFreelance,
			Confidence: 0.75,
		}
	case domain.CategorySEO:
		return domain.ExecutionPlan{
			Category: domain.CategorySEO,
			Params: domain.GenerationParams{
				Title:     opp.Title,
				WordCount: orDefault(req.WordCount, 300),
				Tone:      "persuasive",
				Keywords:  req.Keywords,
			},
			Outlet:     OutletFreelance,
			Confidence: 0.90,
		}
	default:
		return domain.ExecutionPlan{
			Category: domain.CategoryArticle,
			Params: domain.GenerationParams{
				Title:     opp.Title,
				WordCount: 500,
				Tone:      "professional",
				Keywords:  req.Keywords,
			},
			Outlet:     OutletPlatform,
			Confidence: 0.6,
		}
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
