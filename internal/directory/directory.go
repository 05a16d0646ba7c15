// Package directory provides the static NBA team directory: full display
// name to the stable abbreviation used as TEAM_ID in player tables.
package directory

import "sort"

// NBA team abbreviation mappings
var teamAbbreviations = map[string]string{
	"Atlanta Hawks":          "ATL",
	"Boston Celtics":         "BOS",
	"Brooklyn Nets":          "BRK",
	"Charlotte Hornets":      "CHO",
	"Chicago Bulls":          "CHI",
	"Cleveland Cavaliers":    "CLE",
	"Dallas Mavericks":       "DAL",
	"Denver Nuggets":         "DEN",
	"Detroit Pistons":        "DET",
	"Golden State Warriors":  "GSW",
	"Houston Rockets":        "HOU",
	"Indiana Pacers":         "IND",
	"Los Angeles Clippers":   "LAC",
	"Los Angeles Lakers":     "LAL",
	"Memphis Grizzlies":      "MEM",
	"Miami Heat":             "MIA",
	"Milwaukee Bucks":        "MIL",
	"Minnesota Timberwolves": "MIN",
	"New Orleans Pelicans":   "NOP",
	"New York Knicks":        "NYK",
	"Oklahoma City Thunder":  "OKC",
	"Orlando Magic":          "ORL",
	"Philadelphia 76ers":     "PHI",
	"Phoenix Suns":           "PHO",
	"Portland Trail Blazers": "POR",
	"Sacramento Kings":       "SAC",
	"San Antonio Spurs":      "SAS",
	"Toronto Raptors":        "TOR",
	"Utah Jazz":              "UTA",
	"Washington Wizards":     "WAS",
}

// Directory maps team display names to stable identifiers. Loaded once and
// immutable for the process lifetime.
type Directory struct {
	byName map[string]string
	byID   map[string]string
}

// New builds the directory from the static team table.
func New() *Directory {
	byName := make(map[string]string, len(teamAbbreviations))
	byID := make(map[string]string, len(teamAbbreviations))
	for name, abbr := range teamAbbreviations {
		byName[name] = abbr
		byID[abbr] = name
	}
	return &Directory{byName: byName, byID: byID}
}

// Abbreviation returns the stable identifier for a full team name.
// The lookup is an exact match on the display name.
func (d *Directory) Abbreviation(fullName string) (string, bool) {
	abbr, ok := d.byName[fullName]
	return abbr, ok
}

// Name returns the full team name for an identifier.
func (d *Directory) Name(abbr string) (string, bool) {
	name, ok := d.byID[abbr]
	return name, ok
}

// Names returns all team display names, sorted.
func (d *Directory) Names() []string {
	names := make([]string, 0, len(d.byName))
	for name := range d.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
