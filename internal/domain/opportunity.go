package domain

import "time"

// Category enumerates the kinds of content an opportunity asks for.
type Category string

const (
	CategoryArticle Category = "article"
	CategoryCode    Category = "code"
	CategorySEO     Category = "seo_content"
	CategoryImage   Category = "image"
)

// OpportunityStatus tracks the lifecycle of a discovered opportunity.
type OpportunityStatus string

const (
	StatusDiscovered      OpportunityStatus = "discovered"
	StatusSelected        OpportunityStatus = "selected"
	StatusGenerationFail  OpportunityStatus = "generation_failed"
	StatusPendingApproval OpportunityStatus = "pending_approval"
	StatusSkipped         OpportunityStatus = "skipped"
	StatusPublished       OpportunityStatus = "published"
	StatusPublishFailed   OpportunityStatus = "publish_failed"
	StatusRejected        OpportunityStatus = "rejected"
)

// Terminal reports whether the status closes the opportunity lifecycle.
func (s OpportunityStatus) Terminal() bool {
	switch s {
	case StatusGenerationFail, StatusPendingApproval, StatusSkipped,
		StatusPublished, StatusPublishFailed, StatusRejected:
		return true
	default:
		return false
	}
}

// Requirements is the category-specific bag attached to an opportunity.
type Requirements struct {
	WordCount int      `json:"word_count,omitempty"`
	Language  string   `json:"language,omitempty"`
	Platform  string   `json:"platform,omitempty"`
	Format    string   `json:"format,omitempty"`
	Keywords  []string `json:"keywords,omitempty"`
	Quantity  int      `json:"quantity,omitempty"`
}

// Opportunity is a discovered unit of potential paid work.
type Opportunity struct {
	ID               string
	Source           string
	SourceURL        string
	Title            string
	Description      string
	Category         Category
	EstimatedRevenue float64
	Requirements     Requirements
	Status           OpportunityStatus
	CreatedAt        time.Time
}

// ScoredOpportunity carries the computed score and cost estimate next to the
// opportunity; neither is stored on discovery.
type ScoredOpportunity struct {
	Opportunity   Opportunity
	Score         float64
	EstimatedCost float64
}
