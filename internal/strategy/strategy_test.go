package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"SelfEarnBot/internal/domain"
	"SelfEarnBot/internal/scoring"
)

func newTable() *Table {
	return NewTable(scoring.NewEngine(map[domain.Category]scoring.CostRange{
		domain.CategoryArticle: {Min: 0.01, Max: 0.10},
		domain.CategoryCode:    {Min: 0.02, Max: 0.20},
	}))
}

func TestPlanPerCategory(t *testing.T) {
	t.Parallel()

	tbl := newTable()
	tests := []struct {
		name     string
		opp      domain.Opportunity
		category domain.Category
		outlet   string
		words    int
	}{
		{"article", domain.Opportunity{Category: domain.CategoryArticle}, domain.CategoryArticle, OutletPlatform, 800},
		{"seo", domain.Opportunity{Category: domain.CategorySEO, Requirements: domain.Requirements{WordCount: 250}}, domain.CategorySEO, OutletFreelance, 250},
		{"code", domain.Opportunity{Category: domain.CategoryCode, Title: "csv tool"}, domain.CategoryCode, OutletFreelance, 0},
		{"unknown", domain.Opportunity{Category: "podcast"}, domain.CategoryArticle, OutletPlatform, 500},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			plan := tbl.Plan(tt.opp, 10)
			assert.Equal(t, tt.category, plan.Category)
			assert.Equal(t, tt.outlet, plan.Outlet)
			assert.Equal(t, tt.words, plan.Params.WordCount)
			assert.Equal(t, plan.Provider, plan.Params.Provider)
		})
	}
}

func TestCodePlanDefaultsLanguage(t *testing.T) {
	t.Parallel()

	plan := newTable().Plan(domain.Opportunity{Category: domain.CategoryCode, Title: "scraper"}, 10)
	assert.Equal(t, "python", plan.Params.Language)
	assert.Equal(t, "scraper", plan.Params.Description)
}

func TestChooseProviderIsBudgetAware(t *testing.T) {
	t.Parallel()

	tbl := newTable()
	assert.Equal(t, ProviderOpenAI, tbl.ChooseProvider(domain.CategoryCode, 1))
	assert.Equal(t, ProviderMistral, tbl.ChooseProvider(domain.CategoryCode, 0.19), "below the category cost ceiling")
	assert.Equal(t, ProviderMistral, tbl.ChooseProvider(domain.CategoryArticle, 5))
}

func TestPreferredProviderWinsWhenAffordable(t *testing.T) {
	t.Parallel()

	tbl := newTable()
	tbl.SetPreferredProviders(map[domain.Category]string{domain.CategoryArticle: ProviderOpenAI})

	assert.Equal(t, ProviderOpenAI, tbl.ChooseProvider(domain.CategoryArticle, 1))
	assert.Equal(t, ProviderMistral, tbl.ChooseProvider(domain.CategoryArticle, 0.05))
	assert.Equal(t, map[domain.Category]string{domain.CategoryArticle: ProviderOpenAI}, tbl.PreferredProviders())
}
