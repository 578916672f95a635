package publisher

import (
	"context"
	"fmt"
	"math"

	"SelfEarnBot/internal/domain"
)

var platformBases = map[string]string{
	"medium":   "https://medium.com/@selfbot",
	"devto":    "https://dev.to/selfbot",
	"hashnode": "https://hashnode.com/@selfbot",
}

// Platform publishes articles to blogging platforms. Revenue scales with
// content quality.
type Platform struct {
	dice        *Dice
	successRate float64
}

// NewPlatform simulates a platform that accepts 80% of valid submissions.
func NewPlatform(dice *Dice) *Platform {
	return &Platform{dice: dice, successRate: 0.8}
}

// Publish rejects invalid content and otherwise posts it, estimating revenue
// from the opportunity and content quality.
func (p *Platform) Publish(ctx context.Context, content domain.GeneratedContent, opp domain.Opportunity) (domain.PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.PublishResult{}, err
	}
	if !validContent(content) {
		return rejected(), nil
	}

	name := opp.Requirements.Platform
	if name == "" {
		name = "medium"
	}
	if p.dice.Float64() >= p.successRate {
		return domain.PublishResult{Status: domain.PublishFailed, Message: "publication failed"}, nil
	}

	base, ok := platformBases[name]
	if !ok {
		base = "https://example.com"
	}
	id := 10000 + p.dice.IntN(90000)
	return domain.PublishResult{
		ID:               fmt.Sprintf("%s-%d", name, id),
		Status:           domain.PublishPublished,
		PlatformURL:      fmt.Sprintf("%s/article/%d", base, id),
		EstimatedRevenue: math.Round(opp.EstimatedRevenue*content.QualityScore*100) / 100,
		Message:          "published to " + name,
	}, nil
}
