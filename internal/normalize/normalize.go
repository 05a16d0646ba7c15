// Package normalize maps provider-shaped raw tables onto the canonical
// schema: one declarative column mapping per (provider, kind), numeric
// coercion that turns unparseable values into missing rather than failing
// the row, and row-level filtering of junk the providers embed in their
// tables (league-average sentinel rows, repeated header rows).
package normalize

import (
	"strconv"
	"strings"

	"github.com/fuku8/nba-rating-visualizer/internal/table"
)

// leagueAverageSentinel is the aggregate row Basketball Reference appends to
// its team table. It is not a team and is always dropped.
const leagueAverageSentinel = "League Average"

// Teams normalizes a raw team table. Rows without a team name and the
// league-average sentinel row are dropped; unparseable metric cells become
// missing values. The result is always a validly shaped table, even when
// zero columns survive the mapping.
func Teams(raw *table.Raw, provider Provider) *table.TeamTable {
	mapping := teamColumnMappings[provider]
	if raw == nil || mapping == nil {
		return table.EmptyTeamTable("")
	}

	columns := presentColumns(raw.Columns, mapping, table.TeamColumns())
	if !contains(columns, table.ColTeamName) {
		return table.EmptyTeamTable("")
	}

	rows := make([]table.TeamRating, 0, len(raw.Rows))
	for _, rawRow := range raw.Rows {
		row := mapRow(rawRow, mapping)

		name := cleanName(row[table.ColTeamName])
		if name == "" || name == leagueAverageSentinel {
			continue
		}

		rows = append(rows, table.TeamRating{
			TeamName:  name,
			OffRating: parseMetric(row[table.ColOffRating]),
			DefRating: parseMetric(row[table.ColDefRating]),
			NetRating: parseMetric(row[table.ColNetRating]),
		})
	}

	return &table.TeamTable{Columns: columns, Rows: rows}
}

// Players normalizes a raw player table. Rows without a player name and the
// repeated header rows Basketball Reference injects mid-table are dropped.
// An unparseable games-played cell normalizes to zero, which the manager's
// minimum-games filter then excludes.
func Players(raw *table.Raw, provider Provider) *table.PlayerTable {
	mapping := playerColumnMappings[provider]
	if raw == nil || mapping == nil {
		return table.EmptyPlayerTable("")
	}

	columns := presentColumns(raw.Columns, mapping, table.PlayerColumns())
	if !contains(columns, table.ColPlayerName) {
		return table.EmptyPlayerTable("")
	}

	rows := make([]table.PlayerRating, 0, len(raw.Rows))
	for _, rawRow := range raw.Rows {
		row := mapRow(rawRow, mapping)

		name := cleanName(row[table.ColPlayerName])
		if name == "" || name == "Player" {
			continue
		}

		rows = append(rows, table.PlayerRating{
			PlayerName:  name,
			TeamID:      strings.TrimSpace(row[table.ColTeamID]),
			OffRating:   parseMetric(row[table.ColOffRating]),
			DefRating:   parseMetric(row[table.ColDefRating]),
			NetRating:   parseMetric(row[table.ColNetRating]),
			GamesPlayed: parseGames(row[table.ColGames]),
		})
	}

	return &table.PlayerTable{Columns: columns, Rows: rows}
}

// mapRow renames a raw row's columns onto canonical names, discarding
// columns with no mapping.
func mapRow(rawRow map[string]string, mapping map[string]string) map[string]string {
	row := make(map[string]string, len(rawRow))
	for col, val := range rawRow {
		if canonical, ok := mapping[col]; ok {
			row[canonical] = val
		}
	}
	return row
}

// presentColumns selects the canonical columns the raw table actually
// carries, in canonical display order.
func presentColumns(rawColumns []string, mapping map[string]string, order []string) []string {
	present := make(map[string]bool, len(rawColumns))
	for _, col := range rawColumns {
		if canonical, ok := mapping[col]; ok {
			present[canonical] = true
		}
	}

	columns := make([]string, 0, len(order))
	for _, canonical := range order {
		if present[canonical] {
			columns = append(columns, canonical)
		}
	}
	return columns
}

// parseMetric coerces a cell to a float. Unparseable or empty cells become
// missing (nil), never an error.
func parseMetric(val string) *float64 {
	val = strings.TrimSpace(val)
	if val == "" {
		return nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return nil
	}
	return &f
}

func parseGames(val string) int {
	n, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// cleanName trims whitespace and the asterisk Basketball Reference appends
// to hall-of-fame player names.
func cleanName(val string) string {
	return strings.TrimSuffix(strings.TrimSpace(val), "*")
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
