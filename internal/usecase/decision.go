package usecase

// PublishDecision is the gate between generation and publishing.
type PublishDecision int

const (
	DecisionSkip PublishDecision = iota
	DecisionPendingApproval
	DecisionPublish
)

func (d PublishDecision) String() string {
	switch d {
	case DecisionPublish:
		return "publish"
	case DecisionPendingApproval:
		return "pending_approval"
	default:
		return "skip"
	}
}

// PublishPolicy holds the publishing switches and the active score threshold.
type PublishPolicy struct {
	MinScore        float64
	AutoPublish     bool
	RequireApproval bool
}

const (
	minPublishQuality  = 0.5
	autoPublishQuality = 0.7
)

// Decide applies the gates in order: quality floor, score floor, manual
// approval, then auto-publish on quality >= 0.7.
func Decide(quality, score float64, p PublishPolicy) PublishDecision {
	switch {
	case quality < minPublishQuality:
		return DecisionSkip
	case score < p.MinScore:
		return DecisionSkip
	case p.RequireApproval:
		return DecisionPendingApproval
	case p.AutoPublish && quality >= autoPublishQuality:
		return DecisionPublish
	default:
		return DecisionSkip
	}
}

// ShouldPublish reports whether content goes out immediately.
func ShouldPublish(quality, score float64, p PublishPolicy) bool {
	return Decide(quality, score, p) == DecisionPublish
}
