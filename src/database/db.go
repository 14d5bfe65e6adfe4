package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Attique-dash/cjs-backend/src/logging"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Database holds the PostgreSQL connection pool
type Database struct {
	pool *pgxpool.Pool
}

// New creates a new database connection and initializes the schema
func New(ctx context.Context, databaseURL string) (*Database, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	db := &Database{pool: pool}

	if err := db.initializeSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// NewFromPool wraps an existing pool without re-running schema init
func NewFromPool(pool *pgxpool.Pool) *Database {
	return &Database{pool: pool}
}

// Close closes the database connection pool
func (db *Database) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// GetPool returns the connection pool
func (db *Database) GetPool() *pgxpool.Pool {
	return db.pool
}

// initializeSchema reads and executes schema.sql
func (db *Database) initializeSchema(ctx context.Context) error {
	schemaPath := "schema.sql"

	content, err := os.ReadFile(schemaPath)
	if err != nil {
		content, err = os.ReadFile(filepath.Join(".", schemaPath))
		if err != nil {
			return fmt.Errorf("failed to read schema.sql: %w", err)
		}
	}

	if _, err = db.pool.Exec(ctx, string(content)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := db.runMigrations(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	schemaLogger := logging.NewLogger("database")
	schemaLogger.Info().Msg("schema initialized")
	return nil
}

// runMigrations applies additive migrations for columns introduced
// after the initial schema shipped
func (db *Database) runMigrations(ctx context.Context) error {
	logger := logging.NewLogger("database")

	// Migration 1: per-key rate limit policy columns
	_, err := db.pool.Exec(ctx, `
		ALTER TABLE api_keys
		ADD COLUMN IF NOT EXISTS rate_per_minute INTEGER,
		ADD COLUMN IF NOT EXISTS rate_per_hour INTEGER,
		ADD COLUMN IF NOT EXISTS rate_per_day INTEGER;
	`)
	if err != nil {
		return fmt.Errorf("failed to add rate limit columns: %w", err)
	}

	// Migration 2: backfill is_active for rows created before the
	// activate/deactivate toggles existed
	result, err := db.pool.Exec(ctx, `
		UPDATE api_keys SET is_active = COALESCE(is_active, true) WHERE is_active IS NULL
	`)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to backfill is_active")
	} else if result.RowsAffected() > 0 {
		logger.Info().Int64("rows", result.RowsAffected()).Msg("backfilled is_active")
	}

	return nil
}

// Health checks if the database is reachable
func (db *Database) Health(ctx context.Context) error {
	if db == nil || db.pool == nil {
		return fmt.Errorf("database connection not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return db.pool.Ping(ctx)
}
