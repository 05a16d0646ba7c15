package normalize

import (
	"reflect"
	"testing"

	"github.com/fuku8/nba-rating-visualizer/internal/table"
)

func rawTeams(columns []string, cells ...map[string]string) *table.Raw {
	return &table.Raw{Columns: columns, Rows: cells}
}

func TestTeamsRenamesProviderColumns(t *testing.T) {
	raw := rawTeams(
		[]string{"Rk", "Team", "ORtg", "DRtg", "NRtg"},
		map[string]string{"Rk": "1", "Team": "Boston Celtics", "ORtg": "122.2", "DRtg": "110.6", "NRtg": "11.6"},
	)

	got := Teams(raw, BasketballReference)

	wantColumns := []string{"TEAM_NAME", "OFF_RATING", "DEF_RATING", "NET_RATING"}
	if !reflect.DeepEqual(got.Columns, wantColumns) {
		t.Errorf("Columns = %v, want %v", got.Columns, wantColumns)
	}
	if len(got.Rows) != 1 {
		t.Fatalf("len(Rows) = %d, want 1", len(got.Rows))
	}
	row := got.Rows[0]
	if row.TeamName != "Boston Celtics" {
		t.Errorf("TeamName = %q", row.TeamName)
	}
	if row.OffRating == nil || *row.OffRating != 122.2 {
		t.Errorf("OffRating = %v, want 122.2", row.OffRating)
	}
	if row.NetRating == nil || *row.NetRating != 11.6 {
		t.Errorf("NetRating = %v, want 11.6", row.NetRating)
	}
}

func TestTeamsDropsLeagueAverageSentinel(t *testing.T) {
	raw := rawTeams(
		[]string{"Team", "ORtg"},
		map[string]string{"Team": "Denver Nuggets", "ORtg": "118.0"},
		map[string]string{"Team": "League Average", "ORtg": "114.5"},
		map[string]string{"Team": "", "ORtg": "100.0"},
	)

	got := Teams(raw, BasketballReference)
	if len(got.Rows) != 1 || got.Rows[0].TeamName != "Denver Nuggets" {
		t.Errorf("Rows = %+v, want only Denver Nuggets", got.Rows)
	}
}

func TestTeamsUnparseableMetricBecomesMissing(t *testing.T) {
	raw := rawTeams(
		[]string{"Team", "ORtg", "DRtg"},
		map[string]string{"Team": "Miami Heat", "ORtg": "n/a", "DRtg": "112.3"},
	)

	got := Teams(raw, BasketballReference)
	if len(got.Rows) != 1 {
		t.Fatalf("len(Rows) = %d, want 1 (row kept despite bad cell)", len(got.Rows))
	}
	if got.Rows[0].OffRating != nil {
		t.Errorf("OffRating = %v, want missing", *got.Rows[0].OffRating)
	}
	if got.Rows[0].DefRating == nil || *got.Rows[0].DefRating != 112.3 {
		t.Errorf("DefRating = %v, want 112.3", got.Rows[0].DefRating)
	}
}

func TestTeamsZeroSurvivingColumnsStillValidTable(t *testing.T) {
	raw := rawTeams(
		[]string{"Wins", "Losses"},
		map[string]string{"Wins": "50", "Losses": "32"},
	)

	got := Teams(raw, BasketballReference)
	if got == nil {
		t.Fatal("normalizer returned nil table")
	}
	if got.Columns == nil || got.Rows == nil {
		t.Error("empty table must still be validly shaped")
	}
	if len(got.Rows) != 0 {
		t.Errorf("len(Rows) = %d, want 0", len(got.Rows))
	}
}

func TestTeamsIdempotent(t *testing.T) {
	canonical := rawTeams(
		[]string{"TEAM_NAME", "OFF_RATING", "DEF_RATING", "NET_RATING"},
		map[string]string{"TEAM_NAME": "Phoenix Suns", "OFF_RATING": "115.1", "DEF_RATING": "113.9", "NET_RATING": "1.2"},
	)

	first := Teams(canonical, Snapshot)
	second := Teams(canonical, BasketballReference)

	if !reflect.DeepEqual(first.Columns, second.Columns) {
		t.Errorf("columns differ across providers for canonical input: %v vs %v", first.Columns, second.Columns)
	}
	if !reflect.DeepEqual(first.Rows, second.Rows) {
		t.Errorf("rows differ across providers for canonical input")
	}
	if len(first.Rows) != 1 || first.Rows[0].TeamName != "Phoenix Suns" {
		t.Errorf("canonical input altered by normalization: %+v", first.Rows)
	}
}

func TestPlayersRenamesAndCoerces(t *testing.T) {
	raw := &table.Raw{
		Columns: []string{"Rk", "Player", "Team", "G", "OWS", "DWS", "WS"},
		Rows: []map[string]string{
			{"Rk": "1", "Player": "Nikola Jokić", "Team": "DEN", "G": "70", "OWS": "11.3", "DWS": "3.9", "WS": "15.2"},
			{"Rk": "", "Player": "Player", "Team": "Team", "G": "G", "OWS": "OWS", "DWS": "DWS", "WS": "WS"},
			{"Rk": "2", "Player": "", "Team": "LAL", "G": "12", "OWS": "0.5", "DWS": "0.2", "WS": "0.7"},
		},
	}

	got := Players(raw, BasketballReference)
	if len(got.Rows) != 1 {
		t.Fatalf("len(Rows) = %d, want 1 (header echo and nameless rows dropped)", len(got.Rows))
	}
	row := got.Rows[0]
	if row.PlayerName != "Nikola Jokić" || row.TeamID != "DEN" || row.GamesPlayed != 70 {
		t.Errorf("row = %+v", row)
	}
	if row.NetRating == nil || *row.NetRating != 15.2 {
		t.Errorf("NetRating = %v, want 15.2", row.NetRating)
	}
}

func TestPlayersLegacyTeamHeader(t *testing.T) {
	raw := &table.Raw{
		Columns: []string{"Player", "Tm", "G"},
		Rows: []map[string]string{
			{"Player": "Stephen Curry", "Tm": "GSW", "G": "64"},
		},
	}

	got := Players(raw, BasketballReference)
	if len(got.Rows) != 1 || got.Rows[0].TeamID != "GSW" {
		t.Errorf("Rows = %+v, want TeamID GSW via legacy Tm header", got.Rows)
	}
}

func TestPlayersStarSuffixStripped(t *testing.T) {
	raw := &table.Raw{
		Columns: []string{"Player", "G"},
		Rows: []map[string]string{
			{"Player": "LeBron James*", "G": "55"},
		},
	}

	got := Players(raw, BasketballReference)
	if len(got.Rows) != 1 || got.Rows[0].PlayerName != "LeBron James" {
		t.Errorf("Rows = %+v", got.Rows)
	}
}

func TestPlayersUnparseableGamesExcludedByFilterSemantics(t *testing.T) {
	raw := &table.Raw{
		Columns: []string{"Player", "G"},
		Rows: []map[string]string{
			{"Player": "Jalen Green", "G": "not-a-number"},
		},
	}

	got := Players(raw, BasketballReference)
	if len(got.Rows) != 1 || got.Rows[0].GamesPlayed != 0 {
		t.Errorf("Rows = %+v, want GamesPlayed 0", got.Rows)
	}
}

func TestUnknownProviderYieldsEmptyTable(t *testing.T) {
	raw := rawTeams([]string{"Team"}, map[string]string{"Team": "Chicago Bulls"})

	got := Teams(raw, Provider("espn"))
	if got == nil || len(got.Rows) != 0 {
		t.Errorf("unknown provider: got %+v, want validly shaped empty table", got)
	}
}
