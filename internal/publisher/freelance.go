package publisher

import (
	"context"
	"fmt"

	"SelfEarnBot/internal/domain"
)

// Freelance submits deliverables to a freelance marketplace. A submission is
// not yet paid work, so it never counts as a realized success.
type Freelance struct {
	dice        *Dice
	successRate float64
}

// NewFreelance simulates a marketplace that takes 70% of valid submissions.
func NewFreelance(dice *Dice) *Freelance {
	return &Freelance{dice: dice, successRate: 0.7}
}

// Publish rejects invalid content and otherwise submits it to the platform
// named in the opportunity requirements.
func (f *Freelance) Publish(ctx context.Context, content domain.GeneratedContent, opp domain.Opportunity) (domain.PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.PublishResult{}, err
	}
	if !validContent(content) {
		return rejected(), nil
	}
	if f.dice.Float64() >= f.successRate {
		return domain.PublishResult{Status: domain.PublishFailed, Message: "submission failed"}, nil
	}

	platform := opp.Requirements.Platform
	if platform == "" {
		platform = "freelance"
	}
	id := 1000 + f.dice.IntN(9000)
	return domain.PublishResult{
		ID:               fmt.Sprintf("%s-%d", platform, id),
		Status:           domain.PublishSubmitted,
		PlatformURL:      fmt.Sprintf("https://%s.example.com/submission/%d", platform, id),
		EstimatedRevenue: opp.EstimatedRevenue,
		Message:          "submitted to " + platform,
	}, nil
}
