package ports

import (
	"context"
	"time"

	"SelfEarnBot/internal/domain"
)

// OpportunitySource pulls fresh opportunities from every configured source.
// A failing source contributes nothing; it never fails the whole discovery.
type OpportunitySource interface {
	Discover(ctx context.Context) ([]domain.Opportunity, error)
}

// Generator produces content for one execution plan. Failures are returned
// as *domain.GenerationError and carry no partial content.
type Generator interface {
	Generate(ctx context.Context, plan domain.ExecutionPlan) (domain.GeneratedContent, error)
}

// Publisher submits generated content to the outlet named in the plan.
type Publisher interface {
	Publish(ctx context.Context, outlet string, content domain.GeneratedContent, opp domain.Opportunity) (domain.PublishResult, error)
}

// Store is the append-only persistence contract of the core.
type Store interface {
	SaveOpportunities(ctx context.Context, opps []domain.Opportunity) error
	SaveContent(ctx context.Context, content domain.GeneratedContent) error
	AppendOutcome(ctx context.Context, rec domain.OutcomeRecord) error
	ListOutcomes(ctx context.Context, filter domain.OutcomeFilter) ([]domain.OutcomeRecord, error)
	SaveBudget(ctx context.Context, balance float64, at time.Time) error
	LatestBudget(ctx context.Context) (float64, error)
	Ping(ctx context.Context) error
	Close() error
}

// OutcomeSink mirrors durable outcome records to downstream consumers.
type OutcomeSink interface {
	PublishOutcome(ctx context.Context, rec domain.OutcomeRecord) error
}

// QualityAssessor rates generated content in [0,1].
type QualityAssessor interface {
	Assess(ctx context.Context, category domain.Category, title, body string) (float64, error)
}

// CompletionBackend is a text-generation API.
type CompletionBackend interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (Completion, error)
}

// Completion is the raw backend answer with its metered cost.
type Completion struct {
	Text       string
	Model      string
	TokensUsed int
	Cost       float64
}

// Notifier streams cycle reports to Telegram or other channels.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// ReportArchiver stores cycle summaries outside the primary store.
type ReportArchiver interface {
	ArchiveCycle(ctx context.Context, summary domain.CycleSummary) error
}

// Scheduler controls when cycles execute.
type Scheduler interface {
	Start(ctx context.Context, job func(context.Context, time.Time)) error
	Stop(ctx context.Context) error
}
