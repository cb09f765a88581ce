package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/learning-agent/internal/database"
	"github.com/yourusername/learning-agent/internal/models"
)

func TestNewRepositoriesRequiresDB(t *testing.T) {
	repos, err := NewRepositories(nil)
	assert.Error(t, err)
	assert.Nil(t, repos)
}

// TestLearningRunRoundTrip exercises insert, lookup, listing and pruning against a live database
func TestLearningRunRoundTrip(t *testing.T) {
	db := database.SetupTestDB(t)
	defer database.TeardownTestDB(t, db)

	repos, err := NewRepositories(db)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Microsecond)
	resp := &models.LearnResponse{
		Status:      "success",
		ReportID:    "report-new",
		GeneratedAt: now,
		LearningResult: models.LearningResult{
			State:      models.LearningStateActive,
			Mode:       models.LearningModeGlobal,
			Confidence: 0.72,
			Deltas:     models.NewPolicyDelta(),
			Reasoning:  []string{"Adjusting agent weights based on recent performance."},
		},
	}
	fresh, err := models.NewLearningRun(resp, 30)
	require.NoError(t, err)
	require.NoError(t, repos.LearningRun.Insert(ctx, fresh))

	resp.ReportID = "report-old"
	resp.GeneratedAt = now.Add(-40 * 24 * time.Hour)
	stale, err := models.NewLearningRun(resp, 25)
	require.NoError(t, err)
	require.NoError(t, repos.LearningRun.Insert(ctx, stale))

	got, err := repos.LearningRun.GetByReportID(ctx, "report-new")
	require.NoError(t, err)
	assert.Equal(t, models.LearningModeGlobal, got.Mode)
	assert.Equal(t, 30, got.TradeCount)
	assert.Equal(t, fresh.Reasoning, got.Reasoning)

	recent, err := repos.LearningRun.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "report-new", recent[0].ReportID)

	removed, err := repos.LearningRun.DeleteOlderThan(ctx, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = repos.LearningRun.GetByReportID(ctx, "report-old")
	assert.ErrorIs(t, err, models.ErrReportNotFound)
}
