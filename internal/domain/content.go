package domain

import "time"

// GeneratedContent is the result of one generation call.
type GeneratedContent struct {
	ID            string
	OpportunityID string
	Category      Category
	Title         string
	Body          string
	Provider      string
	TokensUsed    int
	Cost          float64
	QualityScore  float64
	Status        OpportunityStatus
	Metadata      map[string]string
	CreatedAt     time.Time
}

// PublishStatus is what an outlet reports after a submission.
type PublishStatus string

const (
	PublishPublished PublishStatus = "published"
	PublishSubmitted PublishStatus = "submitted"
	PublishRejected  PublishStatus = "rejected"
	PublishFailed    PublishStatus = "failed"
	PublishAccepted  PublishStatus = "accepted"
	PublishEarning   PublishStatus = "earning"
)

// Successful reports whether the status counts as a realized success.
func (s PublishStatus) Successful() bool {
	switch s {
	case PublishAccepted, PublishEarning, PublishPublished:
		return true
	default:
		return false
	}
}

// PublishResult is returned by an outlet.
type PublishResult struct {
	ID               string
	Status           PublishStatus
	PlatformURL      string
	EstimatedRevenue float64
	Message          string
}
