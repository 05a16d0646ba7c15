package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fuku8/nba-rating-visualizer/internal/store"
	"github.com/fuku8/nba-rating-visualizer/internal/table"
)

// SnapshotRepository archives normalized rating tables per capture time.
type SnapshotRepository struct {
	db *store.Database
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(db *store.Database) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// SaveTeamRatings archives one capture of the team table. All rows of a
// capture commit atomically.
func (r *SnapshotRepository) SaveTeamRatings(ctx context.Context, season string, capturedAt time.Time, rows []table.TeamRating) error {
	tx, err := r.db.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning archive transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO team_rating_snapshots
			(season, captured_at, team_name, off_rating, def_rating, net_rating)
		VALUES ($1, $2, $3, $4, $5, $6)
	`)
	if err != nil {
		return fmt.Errorf("preparing team snapshot insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		_, err := stmt.ExecContext(ctx, season, capturedAt, row.TeamName,
			nullFloat(row.OffRating), nullFloat(row.DefRating), nullFloat(row.NetRating))
		if err != nil {
			return fmt.Errorf("archiving team %q: %w", row.TeamName, err)
		}
	}

	return tx.Commit()
}

// SavePlayerRatings archives one capture of the player table.
func (r *SnapshotRepository) SavePlayerRatings(ctx context.Context, season string, capturedAt time.Time, rows []table.PlayerRating) error {
	tx, err := r.db.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning archive transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO player_rating_snapshots
			(season, captured_at, player_name, team_id, off_rating, def_rating, net_rating, games_played)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`)
	if err != nil {
		return fmt.Errorf("preparing player snapshot insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		_, err := stmt.ExecContext(ctx, season, capturedAt, row.PlayerName, nullString(row.TeamID),
			nullFloat(row.OffRating), nullFloat(row.DefRating), nullFloat(row.NetRating), row.GamesPlayed)
		if err != nil {
			return fmt.Errorf("archiving player %q: %w", row.PlayerName, err)
		}
	}

	return tx.Commit()
}

// LatestCapture returns the most recent capture time archived for a season.
func (r *SnapshotRepository) LatestCapture(ctx context.Context, season string) (time.Time, error) {
	query := `
		SELECT MAX(captured_at) FROM team_rating_snapshots WHERE season = $1
	`

	var capturedAt sql.NullTime
	if err := r.db.DB().QueryRowContext(ctx, query, season).Scan(&capturedAt); err != nil {
		return time.Time{}, fmt.Errorf("querying latest capture: %w", err)
	}
	if !capturedAt.Valid {
		return time.Time{}, sql.ErrNoRows
	}
	return capturedAt.Time, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
