package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"SelfEarnBot/internal/domain"
	"SelfEarnBot/internal/finance"
	"SelfEarnBot/internal/learning"
	"SelfEarnBot/internal/ports"
	"SelfEarnBot/internal/selector"
	"SelfEarnBot/internal/strategy"
)

// CycleSettings are the selection, publishing and learning knobs.
type CycleSettings struct {
	MinScore        float64
	MaxPerCycle     int
	AutoPublish     bool
	RequireApproval bool
	LearningEnabled bool
	OptimizeEvery   int
	// Location is the zone cycle timestamps are reported in. Nil means UTC.
	Location *time.Location
}

// CycleDeps wires all driven adapters into the cycle orchestrator.
type CycleDeps struct {
	Source     ports.OpportunitySource
	Store      ports.Store
	Selector   *selector.Selector
	Strategy   *strategy.Table
	Ledger     *finance.Ledger
	Reinvestor *finance.Reinvestor
	Generator  ports.Generator
	Publisher  ports.Publisher
	Recorder   *learning.Recorder
	Optimizer  *learning.Optimizer
	Notifier   ports.Notifier
	Archiver   ports.ReportArchiver
	Logger     *slog.Logger
	Settings   CycleSettings
}

// Cycle drives discovery, selection, per-item processing and reinvestment.
// Cycles never overlap: the ledger has a single owner while one runs.
type Cycle struct {
	source     ports.OpportunitySource
	store      ports.Store
	selector   *selector.Selector
	strategy   *strategy.Table
	ledger     *finance.Ledger
	reinvestor *finance.Reinvestor
	generator  ports.Generator
	publisher  ports.Publisher
	recorder   *learning.Recorder
	optimizer  *learning.Optimizer
	notifier   ports.Notifier
	archiver   ports.ReportArchiver
	logger     *slog.Logger
	settings   CycleSettings
	now        func() time.Time

	run sync.Mutex

	mu       sync.RWMutex
	count    int
	minScore float64
	lastRecs *learning.Recommendations
}

// NewCycle constructs the orchestrator.
func NewCycle(deps CycleDeps) *Cycle {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Cycle{
		source:     deps.Source,
		store:      deps.Store,
		selector:   deps.Selector,
		strategy:   deps.Strategy,
		ledger:     deps.Ledger,
		reinvestor: deps.Reinvestor,
		generator:  deps.Generator,
		publisher:  deps.Publisher,
		recorder:   deps.Recorder,
		optimizer:  deps.Optimizer,
		notifier:   deps.Notifier,
		archiver:   deps.Archiver,
		logger:     logger,
		settings:   deps.Settings,
		now:        clockIn(deps.Settings.Location),
		minScore:   deps.Settings.MinScore,
	}
}

func clockIn(loc *time.Location) func() time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return func() time.Time { return time.Now().In(loc) }
}

// MinScore is the threshold currently applied, including optimizer updates.
func (c *Cycle) MinScore() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.minScore
}

// Count is the number of cycles started.
func (c *Cycle) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.count
}

// LastRecommendations returns the most recently applied optimizer output.
func (c *Cycle) LastRecommendations() (learning.Recommendations, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.lastRecs == nil {
		return learning.Recommendations{}, false
	}
	return *c.lastRecs, true
}

type itemResult struct {
	status    domain.OpportunityStatus
	generated bool
	revenue   float64
	cost      float64
	title     string
}

// Run executes one cycle. A stop signal on ctx is honoured between
// opportunities only. A *domain.PersistenceError aborts the cycle; the
// in-memory ledger keeps every mutation already applied and a snapshot of
// it is attempted.
func (c *Cycle) Run(ctx context.Context) (domain.CycleSummary, error) {
	c.run.Lock()
	defer c.run.Unlock()

	c.mu.Lock()
	c.count++
	number := c.count
	minScore := c.minScore
	c.mu.Unlock()

	summary := domain.CycleSummary{
		CycleID:   uuid.NewString(),
		Number:    number,
		StartedAt: c.now(),
	}
	log := c.logger.With("cycle", number)
	log.Info("cycle started", "budget", c.ledger.Get(), "min_score", minScore)

	opps, err := c.source.Discover(ctx)
	if err != nil {
		return c.finish(ctx, summary, fmt.Errorf("discover: %w", err))
	}
	summary.Found = len(opps)

	if len(opps) > 0 && c.store != nil {
		if err := c.store.SaveOpportunities(ctx, opps); err != nil {
			summary.Aborted = true
			return c.finish(ctx, summary, &domain.PersistenceError{Op: "save opportunities", Err: err})
		}
	}
	if len(opps) == 0 {
		log.Info("no opportunities found")
		return c.finish(ctx, summary, nil)
	}

	selection := c.selector.Select(opps, minScore, c.ledger.Get(), c.settings.MaxPerCycle)
	summary.Selected = len(selection.Admitted)
	if summary.Selected == 0 {
		log.Info("no opportunities selected", "found", summary.Found)
	}

	policy := PublishPolicy{
		MinScore:        minScore,
		AutoPublish:     c.settings.AutoPublish,
		RequireApproval: c.settings.RequireApproval,
	}

	var pending []string
	for _, scored := range selection.Admitted {
		if ctx.Err() != nil {
			summary.Cancelled = true
			log.Info("stop requested, leaving remaining opportunities", "processed", summary.Attempted, "selected", summary.Selected)
			break
		}

		// An opportunity is never abandoned half way.
		res, err := c.process(context.WithoutCancel(ctx), summary.CycleID, scored, policy)
		summary.Attempted++
		summary.Cost += res.cost
		summary.Revenue += res.revenue
		if res.generated {
			summary.Generated++
		}
		switch res.status {
		case domain.StatusPublished:
			summary.Published++
		case domain.StatusPendingApproval:
			summary.Pending++
			pending = append(pending, res.title)
		case domain.StatusSkipped:
			summary.Skipped++
		default:
			summary.Failed++
		}

		if err != nil {
			summary.Aborted = true
			summary.Profit = summary.Revenue - summary.Cost
			return c.finish(ctx, summary, err)
		}
	}

	summary.Profit = summary.Revenue - summary.Cost
	reinvested, err := c.reinvestor.Execute(summary.Profit)
	if err != nil {
		log.Warn("reinvestment failed", "profit", summary.Profit, "error", err)
	}
	summary.Reinvested = reinvested

	c.maybeOptimize(ctx, number, log)

	if len(pending) > 0 {
		c.notify(ctx, "Awaiting approval:\n- "+strings.Join(pending, "\n- "))
	}
	return c.finish(ctx, summary, nil)
}

func (c *Cycle) process(ctx context.Context, cycleID string, scored domain.ScoredOpportunity, policy PublishPolicy) (itemResult, error) {
	opp := scored.Opportunity
	log := c.logger.With("opportunity", opp.ID, "category", opp.Category, "source", opp.Source)
	res := itemResult{title: opp.Title, status: domain.StatusSelected}

	plan := c.strategy.Plan(opp, c.ledger.Get())
	features := domain.OutcomeFeatures{
		Category:         opp.Category,
		Source:           opp.Source,
		OpportunityScore: scored.Score,
		Provider:         plan.Provider,
		EstimatedRevenue: opp.EstimatedRevenue,
	}

	content, err := c.generator.Generate(ctx, plan)
	if err != nil {
		log.Warn("generation failed", "provider", plan.Provider, "error", err)
		res.status = domain.StatusGenerationFail
		return res, c.record(ctx, cycleID, opp.ID, "", "", res.status, features, false)
	}
	res.generated = true

	// Generation cost is sunk whatever happens next.
	if err := c.ledger.Debit(content.Cost); err != nil {
		log.Warn("generation reported an invalid cost", "cost", content.Cost, "error", err)
	} else {
		res.cost = content.Cost
	}
	features.ActualCost = res.cost
	features.ContentQuality = content.QualityScore
	content.OpportunityID = opp.ID

	var (
		publishID string
		success   bool
	)
	decision := Decide(content.QualityScore, scored.Score, policy)
	switch decision {
	case DecisionPendingApproval:
		res.status = domain.StatusPendingApproval
	case DecisionSkip:
		res.status = domain.StatusSkipped
	case DecisionPublish:
		result, err := c.publisher.Publish(ctx, plan.Outlet, content, opp)
		if err != nil {
			log.Warn("publish failed", "outlet", plan.Outlet, "error", err)
			res.status = domain.StatusPublishFailed
			break
		}
		publishID = result.ID
		success = result.Status.Successful()
		res.status = statusFromPublish(result.Status)
		if result.EstimatedRevenue > 0 {
			if err := c.ledger.Credit(result.EstimatedRevenue); err != nil {
				log.Warn("credit revenue failed", "revenue", result.EstimatedRevenue, "error", err)
			} else {
				res.revenue = result.EstimatedRevenue
			}
		}
	}
	features.ActualRevenue = res.revenue
	if !res.status.Terminal() {
		log.Warn("decision left opportunity open", "decision", decision.String(), "status", res.status)
		res.status = domain.StatusSkipped
	}

	log.Info("opportunity processed",
		"decision", decision.String(),
		"status", res.status,
		"quality", content.QualityScore,
		"cost", res.cost,
		"revenue", res.revenue)

	content.Status = res.status
	if c.store != nil {
		if err := c.store.SaveContent(ctx, content); err != nil {
			log.Warn("save content failed", "content", content.ID, "error", err)
		}
	}

	return res, c.record(ctx, cycleID, opp.ID, content.ID, publishID, res.status, features, success)
}

func (c *Cycle) record(ctx context.Context, cycleID, oppID, contentID, publishID string, status domain.OpportunityStatus, features domain.OutcomeFeatures, success bool) error {
	rec := domain.NewOutcomeRecord(features, success)
	rec.CycleID = cycleID
	rec.OpportunityID = oppID
	rec.ContentID = contentID
	rec.PublishID = publishID
	rec.Status = status

	if _, err := c.recorder.Record(ctx, rec); err != nil {
		var pe *domain.PersistenceError
		if errors.As(err, &pe) {
			return err
		}
		return &domain.PersistenceError{Op: "record outcome", Err: err}
	}
	return nil
}

func statusFromPublish(s domain.PublishStatus) domain.OpportunityStatus {
	switch s {
	case domain.PublishRejected:
		return domain.StatusRejected
	case domain.PublishFailed:
		return domain.StatusPublishFailed
	default:
		return domain.StatusPublished
	}
}

func (c *Cycle) maybeOptimize(ctx context.Context, number int, log *slog.Logger) {
	every := c.settings.OptimizeEvery
	if !c.settings.LearningEnabled || c.optimizer == nil || every <= 0 || number%every != 0 {
		return
	}

	history, err := c.recorder.History(ctx, domain.OutcomeFilter{})
	if err != nil {
		log.Warn("load outcome history failed, keeping current strategy", "error", err)
		return
	}

	recs := c.optimizer.Optimize(history)
	c.strategy.SetPreferredProviders(recs.ProviderPreferences())

	c.mu.Lock()
	previous := c.minScore
	c.minScore = recs.MinScore
	c.lastRecs = &recs
	c.mu.Unlock()

	totals := learning.Summarize(history)
	suggestion := c.reinvestor.SuggestPercentage(totals.Profit, totals.Operations)

	log.Info("strategy optimized",
		"history", len(history),
		"min_score_before", previous,
		"min_score", recs.MinScore,
		"preferred_category", recs.PreferredCategory,
		"providers", recs.ProviderPreferences(),
		"focus", recs.Focus,
		"avoid", recs.Avoid,
		"reinvest_suggestion", suggestion.RecommendedPercentage)
	for _, s := range recs.Suggestions {
		log.Info("optimization suggestion", "suggestion", s)
	}
}

func (c *Cycle) finish(ctx context.Context, summary domain.CycleSummary, runErr error) (domain.CycleSummary, error) {
	// Reporting still happens after a stop signal or an aborted cycle.
	ctx = context.WithoutCancel(ctx)

	summary.FinishedAt = c.now()
	summary.Budget = c.ledger.Get()

	if c.store != nil {
		if err := c.store.SaveBudget(ctx, summary.Budget, summary.FinishedAt); err != nil {
			c.logger.Warn("budget snapshot failed", "budget", summary.Budget, "error", err)
		}
	}

	attrs := []any{
		"cycle", summary.Number,
		"found", summary.Found,
		"selected", summary.Selected,
		"attempted", summary.Attempted,
		"generated", summary.Generated,
		"published", summary.Published,
		"pending", summary.Pending,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"revenue", summary.Revenue,
		"cost", summary.Cost,
		"profit", summary.Profit,
		"reinvested", summary.Reinvested,
		"budget", summary.Budget,
		"duration", summary.FinishedAt.Sub(summary.StartedAt),
	}
	if runErr != nil {
		c.logger.Error("cycle aborted", append(attrs, "error", runErr)...)
	} else {
		c.logger.Info("cycle finished", attrs...)
	}

	if c.archiver != nil {
		if err := c.archiver.ArchiveCycle(ctx, summary); err != nil {
			c.logger.Warn("archive cycle summary failed", "cycle", summary.Number, "error", err)
		}
	}
	c.notify(ctx, FormatSummary(summary))

	return summary, runErr
}

func (c *Cycle) notify(ctx context.Context, message string) {
	if c.notifier == nil || message == "" {
		return
	}
	if err := c.notifier.Notify(ctx, message); err != nil {
		c.logger.Warn("notify failed", "error", err)
	}
}

// FormatSummary renders a cycle summary as a short chat message.
func FormatSummary(s domain.CycleSummary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Cycle #%d", s.Number)
	switch {
	case s.Aborted:
		sb.WriteString(" (aborted)")
	case s.Cancelled:
		sb.WriteString(" (stopped early)")
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Found %d, selected %d, attempted %d\n", s.Found, s.Selected, s.Attempted)
	fmt.Fprintf(&sb, "Generated %d, published %d, pending %d, skipped %d, failed %d\n",
		s.Generated, s.Published, s.Pending, s.Skipped, s.Failed)
	fmt.Fprintf(&sb, "Revenue $%.2f, cost $%.4f, profit $%.2f\n", s.Revenue, s.Cost, s.Profit)
	fmt.Fprintf(&sb, "Reinvested $%.2f, budget $%.2f", s.Reinvested, s.Budget)
	return sb.String()
}
