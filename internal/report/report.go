// Package report summarizes the outcome log for operators.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"SelfEarnBot/internal/domain"
	"SelfEarnBot/internal/finance"
	"SelfEarnBot/internal/learning"
)

const defaultTopLimit = 3

// CategoryProfit is one row of the top-categories table.
type CategoryProfit struct {
	Category    domain.Category
	Count       int
	AvgProfit   float64
	SuccessRate float64
}

// Report is a point-in-time performance snapshot.
type Report struct {
	GeneratedAt     time.Time
	Budget          float64
	Totals          learning.Totals
	ROI             float64
	AvgQuality      float64
	TopCategories   []CategoryProfit
	Recommendations learning.Recommendations
}

// Build derives a report from the full outcome history.
func Build(history []domain.OutcomeRecord, budget float64, recs learning.Recommendations, now time.Time) Report {
	totals := learning.Summarize(history)

	var quality float64
	var rated int
	for _, rec := range history {
		if rec.ContentID == "" {
			continue
		}
		quality += rec.Features.ContentQuality
		rated++
	}
	if rated > 0 {
		quality /= float64(rated)
	}

	return Report{
		GeneratedAt:     now,
		Budget:          budget,
		Totals:          totals,
		ROI:             finance.ROI(totals.Cost, totals.Revenue),
		AvgQuality:      quality,
		TopCategories:   TopCategories(history, defaultTopLimit),
		Recommendations: recs,
	}
}

// TopCategories ranks categories by average profit per operation.
func TopCategories(history []domain.OutcomeRecord, limit int) []CategoryProfit {
	stats := learning.Aggregate(history)
	rows := make([]CategoryProfit, 0, len(stats))
	for cat, s := range stats {
		rows = append(rows, CategoryProfit{
			Category:    cat,
			Count:       s.Count,
			AvgProfit:   s.AvgProfit,
			SuccessRate: s.SuccessRate,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].AvgProfit != rows[j].AvgProfit {
			return rows[i].AvgProfit > rows[j].AvgProfit
		}
		return rows[i].Category < rows[j].Category
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

// Text renders the report without styling, suitable for chat messages.
func Text(r Report) string {
	var sb strings.Builder
	t := r.Totals

	fmt.Fprintf(&sb, "Performance report %s\n", r.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&sb, "Budget: $%.2f\n\n", r.Budget)

	sb.WriteString("Operations\n")
	fmt.Fprintf(&sb, "  total: %d, successful: %d (%.1f%%)\n", t.Operations, t.Successes, t.SuccessRate*100)
	fmt.Fprintf(&sb, "  average quality: %.2f\n\n", r.AvgQuality)

	sb.WriteString("Financials\n")
	fmt.Fprintf(&sb, "  revenue: $%.2f, cost: $%.2f, profit: $%.2f\n", t.Revenue, t.Cost, t.Profit)
	fmt.Fprintf(&sb, "  avg profit/op: $%.2f\n", t.AvgProfit)
	if t.Cost > 0 {
		fmt.Fprintf(&sb, "  ROI: %.1f%%\n", r.ROI*100)
	} else {
		sb.WriteString("  ROI: n/a\n")
	}

	if len(r.TopCategories) > 0 {
		sb.WriteString("\nTop categories\n")
		for i, c := range r.TopCategories {
			fmt.Fprintf(&sb, "  %d. %s: $%.2f avg over %d ops, %.0f%% success\n",
				i+1, c.Category, c.AvgProfit, c.Count, c.SuccessRate*100)
		}
	}

	rec := r.Recommendations
	sb.WriteString("\nOptimization\n")
	fmt.Fprintf(&sb, "  recommended min score: %.2f\n", rec.MinScore)
	if rec.PreferredCategory != "" {
		fmt.Fprintf(&sb, "  preferred category: %s\n", rec.PreferredCategory)
	}
	for _, cat := range sortedProviderKeys(rec.Providers) {
		p := rec.Providers[cat]
		fmt.Fprintf(&sb, "  %s -> %s ($%.2f avg, %d samples)\n", cat, p.Provider, p.AvgProfit, p.Samples)
	}
	for _, s := range rec.Suggestions {
		fmt.Fprintf(&sb, "  - %s\n", s)
	}

	return strings.TrimRight(sb.String(), "\n")
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
	profitStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#3FB950"))
	lossStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

// Render draws the report as bordered terminal panels.
func Render(r Report) string {
	t := r.Totals

	profit := profitStyle
	if t.Profit < 0 {
		profit = lossStyle
	}

	roi := "n/a"
	if t.Cost > 0 {
		roi = fmt.Sprintf("%.1f%%", r.ROI*100)
	}

	summary := boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Summary"),
		fmt.Sprintf("Budget       $%.2f", r.Budget),
		fmt.Sprintf("Operations   %d (%d ok, %.1f%%)", t.Operations, t.Successes, t.SuccessRate*100),
		fmt.Sprintf("Revenue      $%.2f", t.Revenue),
		fmt.Sprintf("Cost         $%.2f", t.Cost),
		"Profit       "+profit.Render(fmt.Sprintf("$%.2f", t.Profit)),
		fmt.Sprintf("Avg/op       $%.2f", t.AvgProfit),
		fmt.Sprintf("ROI          %s", roi),
		fmt.Sprintf("Avg quality  %.2f", r.AvgQuality),
	))

	catLines := []string{titleStyle.Render("Top categories")}
	if len(r.TopCategories) == 0 {
		catLines = append(catLines, mutedStyle.Render("no outcomes yet"))
	}
	for i, c := range r.TopCategories {
		catLines = append(catLines, fmt.Sprintf("%d. %-12s $%7.2f  %3.0f%%  n=%d",
			i+1, c.Category, c.AvgProfit, c.SuccessRate*100, c.Count))
	}
	categories := boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, catLines...))

	rec := r.Recommendations
	optLines := []string{
		titleStyle.Render("Optimization"),
		fmt.Sprintf("Min score    %.2f", rec.MinScore),
	}
	if rec.PreferredCategory != "" {
		optLines = append(optLines, fmt.Sprintf("Preferred    %s", rec.PreferredCategory))
	}
	for _, cat := range sortedProviderKeys(rec.Providers) {
		optLines = append(optLines, fmt.Sprintf("%-12s %s", cat, rec.Providers[cat].Provider))
	}
	for _, s := range rec.Suggestions {
		optLines = append(optLines, mutedStyle.Render("• "+s))
	}
	optimization := boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, optLines...))

	header := titleStyle.Render("SelfEarnBot report") + " " +
		mutedStyle.Render(r.GeneratedAt.Format(time.RFC3339))

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		lipgloss.JoinHorizontal(lipgloss.Top, summary, categories),
		optimization,
	)
}

func sortedProviderKeys(m map[domain.Category]learning.ProviderRecommendation) []domain.Category {
	keys := make([]domain.Category, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
