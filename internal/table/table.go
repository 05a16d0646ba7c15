package table

// Canonical column names used uniformly regardless of upstream source.
const (
	ColTeamName   = "TEAM_NAME"
	ColPlayerName = "PLAYER_NAME"
	ColTeamID     = "TEAM_ID"
	ColOffRating  = "OFF_RATING"
	ColDefRating  = "DEF_RATING"
	ColNetRating  = "NET_RATING"
	ColGames      = "GP"
)

// TeamColumns returns the canonical column set for team ratings, in display order.
func TeamColumns() []string {
	return []string{ColTeamName, ColOffRating, ColDefRating, ColNetRating}
}

// PlayerColumns returns the canonical column set for player ratings, in display order.
func PlayerColumns() []string {
	return []string{ColPlayerName, ColTeamID, ColOffRating, ColDefRating, ColNetRating, ColGames}
}

// Raw is a provider-shaped table as extracted from an upstream page or file:
// column headers in source order and one string cell per header per row.
// Normalization maps it onto the canonical shape.
type Raw struct {
	Columns []string
	Rows    []map[string]string
}

// TeamRating is one row of the canonical team table. The three metric fields
// are possession-normalized efficiency ratings as published by the provider;
// a nil metric means the upstream value was missing or unparseable.
type TeamRating struct {
	TeamName  string   `json:"TEAM_NAME"`
	OffRating *float64 `json:"OFF_RATING,omitempty"`
	DefRating *float64 `json:"DEF_RATING,omitempty"`
	NetRating *float64 `json:"NET_RATING,omitempty"`
}

// PlayerRating is one row of the canonical player table. The metric fields
// hold whatever advanced metric the provider publishes for players (win
// shares for Basketball Reference); see the normalize package for the
// per-provider mapping.
type PlayerRating struct {
	PlayerName  string   `json:"PLAYER_NAME"`
	TeamID      string   `json:"TEAM_ID,omitempty"`
	OffRating   *float64 `json:"OFF_RATING,omitempty"`
	DefRating   *float64 `json:"DEF_RATING,omitempty"`
	NetRating   *float64 `json:"NET_RATING,omitempty"`
	GamesPlayed int      `json:"GP"`
}

// TeamTable is the canonical team ratings table. A table is always validly
// shaped: zero rows is the empty result, never a nil table. Notice carries a
// user-visible diagnostic when an expected failure produced an empty result.
type TeamTable struct {
	Columns []string     `json:"columns"`
	Rows    []TeamRating `json:"rows"`
	Notice  string       `json:"notice,omitempty"`
}

// PlayerTable is the canonical player ratings table.
type PlayerTable struct {
	Columns []string       `json:"columns"`
	Rows    []PlayerRating `json:"rows"`
	Notice  string         `json:"notice,omitempty"`
}

// EmptyTeamTable returns a zero-row team table, optionally carrying a notice.
func EmptyTeamTable(notice string) *TeamTable {
	return &TeamTable{Columns: TeamColumns(), Rows: []TeamRating{}, Notice: notice}
}

// EmptyPlayerTable returns a zero-row player table, optionally carrying a notice.
func EmptyPlayerTable(notice string) *PlayerTable {
	return &PlayerTable{Columns: PlayerColumns(), Rows: []PlayerRating{}, Notice: notice}
}
