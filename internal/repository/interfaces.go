package repository

import (
	"context"
	"time"

	"github.com/yourusername/learning-agent/internal/models"
)

// LearningRunRepository defines persistence for the learning-run audit trail
type LearningRunRepository interface {
	Insert(ctx context.Context, run *models.LearningRun) error
	GetByReportID(ctx context.Context, reportID string) (*models.LearningRun, error)
	ListRecent(ctx context.Context, limit int) ([]*models.LearningRun, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
