package snapshot

import (
	"context"
	"testing"
	"time"

	"github.com/fuku8/nba-rating-visualizer/internal/normalize"
	"github.com/fuku8/nba-rating-visualizer/internal/table"
)

func f64(v float64) *float64 { return &v }

func TestWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	teams := &table.TeamTable{
		Columns: table.TeamColumns(),
		Rows: []table.TeamRating{
			{TeamName: "Boston Celtics", OffRating: f64(122.2), DefRating: f64(110.6), NetRating: f64(11.6)},
			{TeamName: "Utah Jazz", OffRating: nil, DefRating: f64(118.1), NetRating: nil},
		},
	}
	players := &table.PlayerTable{
		Columns: table.PlayerColumns(),
		Rows: []table.PlayerRating{
			{PlayerName: "Nikola Jokić", TeamID: "DEN", OffRating: f64(11.3), DefRating: f64(3.9), NetRating: f64(15.2), GamesPlayed: 70},
		},
	}

	updatedAt := time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC)
	if err := Write(dir, teams, players, updatedAt); err != nil {
		t.Fatalf("Write: %v", err)
	}

	src := NewSource(dir)
	if src.Provider() != normalize.Snapshot {
		t.Errorf("Provider() = %q", src.Provider())
	}

	rawTeams, err := src.TeamRatings(context.Background(), "2025-26")
	if err != nil {
		t.Fatalf("TeamRatings: %v", err)
	}
	gotTeams := normalize.Teams(rawTeams, src.Provider())
	if len(gotTeams.Rows) != 2 {
		t.Fatalf("len(team rows) = %d, want 2", len(gotTeams.Rows))
	}
	if gotTeams.Rows[0].TeamName != "Boston Celtics" || *gotTeams.Rows[0].OffRating != 122.2 {
		t.Errorf("team row 0 = %+v", gotTeams.Rows[0])
	}
	if gotTeams.Rows[1].OffRating != nil {
		t.Errorf("missing metric should survive the round trip as missing, got %v", *gotTeams.Rows[1].OffRating)
	}

	rawPlayers, err := src.PlayerRatings(context.Background(), "2025-26")
	if err != nil {
		t.Fatalf("PlayerRatings: %v", err)
	}
	gotPlayers := normalize.Players(rawPlayers, src.Provider())
	if len(gotPlayers.Rows) != 1 {
		t.Fatalf("len(player rows) = %d, want 1", len(gotPlayers.Rows))
	}
	if gotPlayers.Rows[0].TeamID != "DEN" || gotPlayers.Rows[0].GamesPlayed != 70 {
		t.Errorf("player row = %+v", gotPlayers.Rows[0])
	}

	last, err := src.LastUpdated()
	if err != nil {
		t.Fatalf("LastUpdated: %v", err)
	}
	if last != "2026-01-15 09:30:00" {
		t.Errorf("LastUpdated = %q", last)
	}
}

func TestMissingSnapshotIsFetchFailure(t *testing.T) {
	src := NewSource(t.TempDir())

	if _, err := src.TeamRatings(context.Background(), "2025-26"); err == nil {
		t.Error("expected error for missing team snapshot")
	}
	if _, err := src.LastUpdated(); err == nil {
		t.Error("expected error for missing last-updated record")
	}
}
