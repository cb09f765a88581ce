package database

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/yourusername/learning-agent/internal/config"
)

// TestDatabaseEnv names the variable that enables database integration tests
const TestDatabaseEnv = "LEARNING_AGENT_TEST_DATABASE_HOST"

// SetupTestDB connects to the integration database or skips the test when none is configured
func SetupTestDB(t *testing.T) *DB {
	t.Helper()

	host := os.Getenv(TestDatabaseEnv)
	if host == "" {
		t.Skipf("Integration test - set %s to run", TestDatabaseEnv)
	}

	port := 5432
	if p, err := strconv.Atoi(os.Getenv("LEARNING_AGENT_TEST_DATABASE_PORT")); err == nil {
		port = p
	}

	cfg := &config.DatabaseConfig{
		Enabled:        true,
		Host:           host,
		Port:           port,
		Name:           envOr("LEARNING_AGENT_TEST_DATABASE_NAME", "learning_agent_test"),
		User:           envOr("LEARNING_AGENT_TEST_DATABASE_USER", "postgres"),
		Password:       os.Getenv("LEARNING_AGENT_TEST_DATABASE_PASSWORD"),
		SSLMode:        "disable",
		MaxConnections: 4,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := NewDB(ctx, cfg)
	if err != nil {
		t.Fatalf("failed to create test database connection: %v", err)
	}
	if err := EnsureSchema(ctx, db); err != nil {
		db.Close()
		t.Fatalf("failed to prepare test schema: %v", err)
	}

	return db
}

// TeardownTestDB removes test rows and closes the pool
func TeardownTestDB(t *testing.T, db *DB) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := db.Exec(ctx, "DELETE FROM learning_runs"); err != nil {
		t.Logf("warning: failed to clean test database: %v", err)
	}
	db.Close()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
