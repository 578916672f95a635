package app

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SelfEarnBot/internal/config"
	"SelfEarnBot/internal/logging"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	t.Setenv("SELFBOT_CONFIG", "")
	t.Setenv("SELFBOT_DATABASE_DRIVER", "memory")
	t.Setenv("SELFBOT_AUTO_PUBLISH", "true")
	t.Setenv("SELFBOT_REQUIRE_APPROVAL", "false")
	t.Setenv("SELFBOT_MIN_OPPORTUNITY_SCORE", "0.5")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("MISTRAL_API_KEY", "")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("SELFBOT_HTTP_ADDR", "")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestRunOnceOfflineDemo(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sources = []config.SourceConfig{{Name: "demo", Scanner: "demo", Options: map[string]string{"mode": "all"}}}

	var logs bytes.Buffer
	application, err := New(context.Background(), cfg, logging.NewWithWriter(&logs, "info"))
	require.NoError(t, err)
	defer application.Close()

	summary, err := application.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 10, summary.Found)
	assert.Equal(t, cfg.Selection.MaxPerCycle, summary.Selected)
	assert.Equal(t, summary.Selected, summary.Attempted)
	assert.Equal(t, summary.Attempted, summary.Published+summary.Pending+summary.Skipped+summary.Failed)
	assert.Contains(t, logs.String(), "cycle finished")
	assert.Contains(t, logs.String(), "Cycle #1")

	rep, err := application.Report(context.Background())
	require.NoError(t, err)
	assert.Equal(t, summary.Attempted, rep.Totals.Operations)
	assert.InDelta(t, summary.Budget, rep.Budget, 1e-9)
}

func TestRunStopsAfterMaxCycles(t *testing.T) {
	cfg := testConfig(t)
	cfg.Scheduler.Interval = 10 * time.Millisecond
	cfg.Scheduler.MaxCycles = 2

	var logs bytes.Buffer
	application, err := New(context.Background(), cfg, logging.NewWithWriter(&logs, "info"))
	require.NoError(t, err)
	defer application.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, application.Run(ctx))
	assert.Equal(t, 2, application.cycle.Count())
	assert.Contains(t, logs.String(), "cycle limit reached")
}

func TestReportUsesConfiguredTimezone(t *testing.T) {
	t.Setenv("SELFBOT_TIMEZONE", "Asia/Tokyo")
	cfg := testConfig(t)

	application, err := New(context.Background(), cfg, logging.NewWithWriter(&bytes.Buffer{}, "info"))
	require.NoError(t, err)
	defer application.Close()

	rep, err := application.Report(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Asia/Tokyo", rep.GeneratedAt.Location().String())
}
