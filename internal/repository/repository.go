// Package repository provides Postgres-backed persistence.
package repository

import (
	"fmt"

	"github.com/yourusername/learning-agent/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	LearningRun LearningRunRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		LearningRun: NewPostgresLearningRunRepository(db),
	}, nil
}
