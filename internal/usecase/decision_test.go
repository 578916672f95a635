package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	t.Parallel()

	auto := PublishPolicy{MinScore: 0.5, AutoPublish: true}
	manual := PublishPolicy{MinScore: 0.5, AutoPublish: true, RequireApproval: true}
	off := PublishPolicy{MinScore: 0.5}

	cases := []struct {
		name    string
		quality float64
		score   float64
		policy  PublishPolicy
		want    PublishDecision
	}{
		{"low quality never publishes", 0.4, 0.9, auto, DecisionSkip},
		{"low quality beats approval", 0.4, 0.9, manual, DecisionSkip},
		{"score under threshold", 0.9, 0.45, auto, DecisionSkip},
		{"approval required", 0.9, 0.8, manual, DecisionPendingApproval},
		{"approval with mediocre quality", 0.6, 0.8, manual, DecisionPendingApproval},
		{"auto publish", 0.7, 0.8, auto, DecisionPublish},
		{"auto publish needs 0.7", 0.69, 0.8, auto, DecisionSkip},
		{"auto publish disabled", 0.95, 0.8, off, DecisionSkip},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, Decide(tc.quality, tc.score, tc.policy))
			assert.Equal(t, tc.want == DecisionPublish, ShouldPublish(tc.quality, tc.score, tc.policy))
		})
	}
}

func TestPublishDecisionString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "publish", DecisionPublish.String())
	assert.Equal(t, "pending_approval", DecisionPendingApproval.String())
	assert.Equal(t, "skip", DecisionSkip.String())
}
