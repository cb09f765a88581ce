package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/yourusername/learning-agent/internal/database"
	"github.com/yourusername/learning-agent/internal/models"
)

const learningRunColumns = `id, report_id, symbol, mode, state, confidence, trade_count, regime, deltas, reasoning, created_at`

// PostgresLearningRunRepository implements LearningRunRepository for PostgreSQL
type PostgresLearningRunRepository struct {
	db *database.DB
}

// NewPostgresLearningRunRepository creates a new learning run repository
func NewPostgresLearningRunRepository(db *database.DB) LearningRunRepository {
	return &PostgresLearningRunRepository{db: db}
}

// Insert stores one learning run
func (r *PostgresLearningRunRepository) Insert(ctx context.Context, run *models.LearningRun) error {
	query := `
		INSERT INTO learning_runs (` + learningRunColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`

	_, err := r.db.Exec(ctx, query,
		run.ID, run.ReportID, run.Symbol, string(run.Mode), string(run.State), run.Confidence,
		run.TradeCount, run.Regime, run.Deltas, run.Reasoning, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert learning run: %w", err)
	}
	return nil
}

// GetByReportID retrieves the run recorded for a report
func (r *PostgresLearningRunRepository) GetByReportID(ctx context.Context, reportID string) (*models.LearningRun, error) {
	query := `SELECT ` + learningRunColumns + ` FROM learning_runs WHERE report_id = $1`

	run, err := scanLearningRun(r.db.QueryRow(ctx, query, reportID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRecent returns the newest runs first
func (r *PostgresLearningRunRepository) ListRecent(ctx context.Context, limit int) ([]*models.LearningRun, error) {
	query := `SELECT ` + learningRunColumns + ` FROM learning_runs ORDER BY created_at DESC LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query learning runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.LearningRun
	for rows.Next() {
		run, err := scanLearningRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// DeleteOlderThan prunes runs created before cutoff
func (r *PostgresLearningRunRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM learning_runs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune learning runs: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanLearningRun(row pgx.Row) (*models.LearningRun, error) {
	var (
		run         models.LearningRun
		mode, state string
	)
	if err := row.Scan(
		&run.ID, &run.ReportID, &run.Symbol, &mode, &state, &run.Confidence,
		&run.TradeCount, &run.Regime, &run.Deltas, &run.Reasoning, &run.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan learning run: %w", err)
	}
	run.Mode = models.LearningMode(mode)
	run.State = models.LearningState(state)
	return &run, nil
}
