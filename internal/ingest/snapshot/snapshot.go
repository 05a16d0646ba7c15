// Package snapshot reads and writes the pre-fetched CSV snapshot files used
// when operating offline: team_ratings.csv, player_ratings.csv, and a
// human-readable last_updated.txt record. The files carry canonical column
// headers, so their normalization mapping is the identity.
package snapshot

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fuku8/nba-rating-visualizer/internal/normalize"
	"github.com/fuku8/nba-rating-visualizer/internal/table"
)

const (
	TeamRatingsFile   = "team_ratings.csv"
	PlayerRatingsFile = "player_ratings.csv"
	LastUpdatedFile   = "last_updated.txt"

	// TimestampLayout is the human-readable format of last_updated.txt.
	TimestampLayout = "2006-01-02 15:04:05"
)

// Source serves raw tables from a snapshot directory.
type Source struct {
	dir string
}

// NewSource returns a source over the given snapshot directory.
func NewSource(dir string) *Source {
	return &Source{dir: dir}
}

// Provider identifies the column mapping for tables this source produces.
func (s *Source) Provider() normalize.Provider {
	return normalize.Snapshot
}

// TeamRatings reads the team snapshot. The season argument is accepted for
// interface parity with the live fetcher; a snapshot holds one season.
func (s *Source) TeamRatings(ctx context.Context, season string) (*table.Raw, error) {
	return readCSV(filepath.Join(s.dir, TeamRatingsFile))
}

// PlayerRatings reads the player snapshot.
func (s *Source) PlayerRatings(ctx context.Context, season string) (*table.Raw, error) {
	return readCSV(filepath.Join(s.dir, PlayerRatingsFile))
}

// LastUpdated returns the snapshot's recorded refresh time.
func (s *Source) LastUpdated() (string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, LastUpdatedFile))
	if err != nil {
		return "", fmt.Errorf("reading last-updated record: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func readCSV(path string) (*table.Raw, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing snapshot %s: %w", filepath.Base(path), err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("snapshot %s has no header row", filepath.Base(path))
	}

	columns := records[0]
	raw := &table.Raw{Columns: columns, Rows: make([]map[string]string, 0, len(records)-1)}
	for _, record := range records[1:] {
		row := make(map[string]string, len(columns))
		for i, col := range columns {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		raw.Rows = append(raw.Rows, row)
	}
	return raw, nil
}

// Write persists normalized tables as a snapshot directory, replacing any
// prior snapshot, and records the refresh time.
func Write(dir string, teams *table.TeamTable, players *table.PlayerTable, updatedAt time.Time) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating snapshot dir: %w", err)
	}

	if err := writeTeamCSV(filepath.Join(dir, TeamRatingsFile), teams); err != nil {
		return err
	}
	if err := writePlayerCSV(filepath.Join(dir, PlayerRatingsFile), players); err != nil {
		return err
	}

	stamp := updatedAt.Format(TimestampLayout) + "\n"
	if err := os.WriteFile(filepath.Join(dir, LastUpdatedFile), []byte(stamp), 0o644); err != nil {
		return fmt.Errorf("writing last-updated record: %w", err)
	}
	return nil
}

func writeTeamCSV(path string, teams *table.TeamTable) error {
	records := [][]string{table.TeamColumns()}
	for _, row := range teams.Rows {
		records = append(records, []string{
			row.TeamName,
			formatMetric(row.OffRating),
			formatMetric(row.DefRating),
			formatMetric(row.NetRating),
		})
	}
	return writeCSV(path, records)
}

func writePlayerCSV(path string, players *table.PlayerTable) error {
	records := [][]string{table.PlayerColumns()}
	for _, row := range players.Rows {
		records = append(records, []string{
			row.PlayerName,
			row.TeamID,
			formatMetric(row.OffRating),
			formatMetric(row.DefRating),
			formatMetric(row.NetRating),
			strconv.Itoa(row.GamesPlayed),
		})
	}
	return writeCSV(path, records)
}

func writeCSV(path string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating snapshot %s: %w", filepath.Base(path), err)
	}

	writer := csv.NewWriter(f)
	if err := writer.WriteAll(records); err != nil {
		f.Close()
		return fmt.Errorf("writing snapshot %s: %w", filepath.Base(path), err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing snapshot %s: %w", filepath.Base(path), err)
	}
	return nil
}

func formatMetric(val *float64) string {
	if val == nil {
		return ""
	}
	return strconv.FormatFloat(*val, 'f', -1, 64)
}
