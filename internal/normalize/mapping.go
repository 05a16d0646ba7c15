package normalize

import "github.com/fuku8/nba-rating-visualizer/internal/table"

// Provider tags the upstream source a raw table came from. Each provider has
// exactly one declarative column mapping per kind; a new source means a new
// mapping entry here, never a second normalization path.
type Provider string

const (
	// BasketballReference is the live scrape source. Team metrics are
	// per-100-possession ratings (ORtg/DRtg/NRtg). Player metrics are win
	// shares (OWS/DWS/WS): cumulative contribution, not per-possession
	// ratings, even though they land in the same canonical columns.
	BasketballReference Provider = "basketball-reference"

	// Snapshot is the pre-fetched CSV source. Its files already carry
	// canonical headers, so its mapping is the identity.
	Snapshot Provider = "snapshot"
)

// teamColumnMappings renames provider team columns to canonical names.
var teamColumnMappings = map[Provider]map[string]string{
	BasketballReference: {
		"Team": table.ColTeamName,
		"ORtg": table.ColOffRating,
		"DRtg": table.ColDefRating,
		"NRtg": table.ColNetRating,
	},
	Snapshot: {},
}

// playerColumnMappings renames provider player columns to canonical names.
var playerColumnMappings = map[Provider]map[string]string{
	BasketballReference: {
		"Player": table.ColPlayerName,
		"Team":   table.ColTeamID,
		"Tm":     table.ColTeamID, // pre-2024 header for the team column
		"OWS":    table.ColOffRating,
		"DWS":    table.ColDefRating,
		"WS":     table.ColNetRating,
		"G":      table.ColGames,
	},
	Snapshot: {},
}

func init() {
	// Canonical names always map to themselves, which makes normalization
	// idempotent for every provider.
	for _, mapping := range teamColumnMappings {
		for _, canonical := range table.TeamColumns() {
			mapping[canonical] = canonical
		}
	}
	for _, mapping := range playerColumnMappings {
		for _, canonical := range table.PlayerColumns() {
			mapping[canonical] = canonical
		}
	}
}
