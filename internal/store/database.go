// Package store persists fetched rating snapshots to Postgres so historical
// captures survive beyond the TTL cache. The archive is optional: the
// service runs without it, and only the snapshot CLI writes to it.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// Database represents the archive database connection
type Database struct {
	conn *sql.DB
	dsn  string
}

// NewDatabase creates a new archive database connection
func NewDatabase(dsn string) (*Database, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{
		conn: db,
		dsn:  dsn,
	}, nil
}

// Close closes the database connection
func (db *Database) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// DB returns the underlying *sql.DB for queries
func (db *Database) DB() *sql.DB {
	return db.conn
}

// EnsureSchema creates the archive tables if they do not exist yet.
func (db *Database) EnsureSchema() error {
	log.Println("Ensuring archive schema...")

	statements := []string{
		`CREATE TABLE IF NOT EXISTS team_rating_snapshots (
			id          BIGSERIAL PRIMARY KEY,
			season      VARCHAR(16) NOT NULL,
			captured_at TIMESTAMPTZ NOT NULL,
			team_name   VARCHAR(64) NOT NULL,
			off_rating  DOUBLE PRECISION,
			def_rating  DOUBLE PRECISION,
			net_rating  DOUBLE PRECISION
		)`,
		`CREATE INDEX IF NOT EXISTS idx_team_snapshots_season
			ON team_rating_snapshots (season, captured_at)`,
		`CREATE TABLE IF NOT EXISTS player_rating_snapshots (
			id           BIGSERIAL PRIMARY KEY,
			season       VARCHAR(16) NOT NULL,
			captured_at  TIMESTAMPTZ NOT NULL,
			player_name  VARCHAR(128) NOT NULL,
			team_id      VARCHAR(8),
			off_rating   DOUBLE PRECISION,
			def_rating   DOUBLE PRECISION,
			net_rating   DOUBLE PRECISION,
			games_played INT NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_player_snapshots_season
			ON player_rating_snapshots (season, captured_at)`,
	}

	for _, stmt := range statements {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("failed to ensure archive schema: %w", err)
		}
	}

	log.Println("✓ Archive schema ready")
	return nil
}

// HealthCheck performs a health check on the database
func (db *Database) HealthCheck() error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	return db.conn.PingContext(ctx)
}
