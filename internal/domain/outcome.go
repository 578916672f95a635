package domain

import "time"

// OutcomeFeatures is the snapshot of inputs that led to an outcome.
type OutcomeFeatures struct {
	Category         Category
	Source           string
	OpportunityScore float64
	ContentQuality   float64
	Provider         string
	EstimatedRevenue float64
	ActualRevenue    float64
	ActualCost       float64
}

// OutcomeRecord is the append-only log entry for one processed opportunity.
type OutcomeRecord struct {
	ID            string
	CycleID       string
	OpportunityID string
	ContentID     string
	PublishID     string
	Status        OpportunityStatus
	Features      OutcomeFeatures
	Success       bool
	Profit        float64
	Insights      []string
	CreatedAt     time.Time
}

// NewOutcomeRecord fixes profit as actual revenue minus actual cost. Profit is
// never recomputed after creation.
func NewOutcomeRecord(features OutcomeFeatures, success bool) OutcomeRecord {
	return OutcomeRecord{
		Features: features,
		Success:  success,
		Profit:   features.ActualRevenue - features.ActualCost,
	}
}

// OutcomeFilter narrows history queries.
type OutcomeFilter struct {
	Since    time.Time
	Until    time.Time
	Category Category
	Limit    int
}

// CycleSummary is reported after every cycle regardless of individual errors.
type CycleSummary struct {
	CycleID    string
	Number     int
	StartedAt  time.Time
	FinishedAt time.Time
	Found      int
	Selected   int
	Attempted  int
	Generated  int
	Published  int
	Pending    int
	Skipped    int
	Failed     int
	Revenue    float64
	Cost       float64
	Profit     float64
	Reinvested float64
	Budget     float64
	Aborted    bool
	Cancelled  bool
}
