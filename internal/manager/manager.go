// Package manager composes the cache store, the upstream source, and the
// normalizer behind the query operations the presentation layer calls.
//
// Every public operation returns a validly shaped table. Expected failure
// modes (exhausted fetch retries, unknown team, no search matches) produce
// an empty table carrying a user-visible notice, never an error; the only
// error a query returns is a cache write failure, which would otherwise be
// silent data loss.
package manager

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/fuku8/nba-rating-visualizer/internal/cache"
	"github.com/fuku8/nba-rating-visualizer/internal/directory"
	"github.com/fuku8/nba-rating-visualizer/internal/normalize"
	"github.com/fuku8/nba-rating-visualizer/internal/table"
)

// Logical operation names, used both as cache key prefixes and as the kind
// tag on refresh notifications.
const (
	KindTeamRatings   = "team_ratings"
	KindPlayerRatings = "player_ratings"
)

const (
	// DefaultTTL bounds how long a cached table is served before refresh.
	DefaultTTL = time.Hour

	// DefaultMinGames filters out players with too few appearances.
	DefaultMinGames = 20
)

// Source provides raw tabular data for one season per kind. Implemented by
// the live Basketball Reference client and the CSV snapshot source.
type Source interface {
	Provider() normalize.Provider
	TeamRatings(ctx context.Context, season string) (*table.Raw, error)
	PlayerRatings(ctx context.Context, season string) (*table.Raw, error)
}

// timestampedSource is implemented by sources that carry their own refresh
// record, like the CSV snapshot.
type timestampedSource interface {
	LastUpdated() (string, error)
}

// Notifier receives an event whenever a fetch refreshed a cache entry.
type Notifier interface {
	DataRefreshed(kind, season string, rows int)
}

// Config carries manager construction parameters. Season is immutable after
// construction.
type Config struct {
	Season   string
	TTL      time.Duration // defaults to DefaultTTL
	MinGames int           // defaults to DefaultMinGames
	Notifier Notifier      // optional
}

// Manager is the data-layer facade. It is request-driven and synchronous:
// one query runs to completion before the next begins.
type Manager struct {
	season   string
	ttl      time.Duration
	minGames int
	source   Source
	store    cache.Store
	teams    *directory.Directory
	notifier Notifier
}

// New creates a manager over a source, a cache store, and the team
// directory.
func New(cfg Config, src Source, store cache.Store, teams *directory.Directory) *Manager {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.MinGames <= 0 {
		cfg.MinGames = DefaultMinGames
	}
	return &Manager{
		season:   cfg.Season,
		ttl:      cfg.TTL,
		minGames: cfg.MinGames,
		source:   src,
		store:    store,
		teams:    teams,
		notifier: cfg.Notifier,
	}
}

// Season returns the season this manager serves.
func (m *Manager) Season() string { return m.season }

// TeamRatings returns the canonical team ratings table, from cache when
// fresh, otherwise fetched, normalized, and re-cached.
func (m *Manager) TeamRatings(ctx context.Context) (*table.TeamTable, error) {
	key := cache.Key(KindTeamRatings, m.season)

	if entry, ok := m.store.Get(ctx, key); ok && entry.Fresh(m.ttl) {
		var cached table.TeamTable
		if err := json.Unmarshal(entry.Payload, &cached); err == nil {
			return &cached, nil
		}
		log.Printf("[manager] undecodable team payload for %q, refetching", key)
	}

	raw, err := m.source.TeamRatings(ctx, m.season)
	if err != nil {
		log.Printf("[manager] team ratings fetch failed: %v", err)
		return table.EmptyTeamTable("team ratings are temporarily unavailable: " + err.Error()), nil
	}

	tbl := normalize.Teams(raw, m.source.Provider())
	if err := m.cachePut(ctx, key, tbl); err != nil {
		return tbl, fmt.Errorf("caching team ratings: %w", err)
	}
	m.notifyRefreshed(KindTeamRatings, len(tbl.Rows))

	return tbl, nil
}

// PlayerRatings returns the canonical player ratings table filtered to
// players with at least minGames appearances (the configured default when
// minGames <= 0), optionally restricted to one team by display name. An
// unknown team name yields an empty table with a warning notice, not an
// error.
func (m *Manager) PlayerRatings(ctx context.Context, teamName string, minGames int) (*table.PlayerTable, error) {
	if minGames <= 0 {
		minGames = m.minGames
	}

	tbl, err := m.playerTable(ctx, minGames)
	if err != nil {
		return tbl, err
	}
	if teamName == "" {
		return tbl, nil
	}

	teamID, ok := m.teams.Abbreviation(teamName)
	if !ok {
		log.Printf("[manager] team %q not found in directory", teamName)
		return table.EmptyPlayerTable(fmt.Sprintf("team %q was not found", teamName)), nil
	}

	filtered := &table.PlayerTable{Columns: tbl.Columns, Rows: []table.PlayerRating{}, Notice: tbl.Notice}
	for _, row := range tbl.Rows {
		if row.TeamID == teamID {
			filtered.Rows = append(filtered.Rows, row)
		}
	}
	return filtered, nil
}

// SearchPlayers returns the union of case-insensitive substring matches of
// each non-blank fragment against player names, with exact-duplicate rows
// removed. Zero valid fragments yields an empty table. The search runs over
// the full player table (minimum one game played).
func (m *Manager) SearchPlayers(ctx context.Context, fragments []string) (*table.PlayerTable, error) {
	all, err := m.playerTable(ctx, 1)
	if err != nil {
		return all, err
	}

	result := &table.PlayerTable{Columns: all.Columns, Rows: []table.PlayerRating{}, Notice: all.Notice}
	seen := make(map[string]bool)

	for _, fragment := range fragments {
		fragment = strings.ToLower(strings.TrimSpace(fragment))
		if fragment == "" {
			continue
		}
		for _, row := range all.Rows {
			if !strings.Contains(strings.ToLower(row.PlayerName), fragment) {
				continue
			}
			key := playerRowKey(row)
			if seen[key] {
				continue
			}
			seen[key] = true
			result.Rows = append(result.Rows, row)
		}
	}

	return result, nil
}

// LastUpdated reports when the served data was last refreshed, as a
// human-readable timestamp. Snapshot sources carry their own record; live
// sources report the cache entry's creation time. Never errors: unknown
// states report "unknown".
func (m *Manager) LastUpdated(ctx context.Context) string {
	if src, ok := m.source.(timestampedSource); ok {
		stamp, err := src.LastUpdated()
		if err != nil {
			log.Printf("[manager] reading last-updated record failed: %v", err)
			return "unknown"
		}
		return stamp
	}

	if entry, ok := m.store.Get(ctx, cache.Key(KindTeamRatings, m.season)); ok {
		return entry.CreatedAt.Format("2006-01-02 15:04:05")
	}
	return "unknown"
}

// SweepCache deletes every cache record older than the manager's TTL.
func (m *Manager) SweepCache(ctx context.Context) (int, error) {
	return m.store.Sweep(ctx, m.ttl)
}

// playerTable serves the player table for a minimum-games threshold,
// cache-or-fetch. The threshold is part of the cache key, so each
// threshold caches independently.
func (m *Manager) playerTable(ctx context.Context, minGames int) (*table.PlayerTable, error) {
	key := cache.Key(KindPlayerRatings, m.season, strconv.Itoa(minGames))

	if entry, ok := m.store.Get(ctx, key); ok && entry.Fresh(m.ttl) {
		var cached table.PlayerTable
		if err := json.Unmarshal(entry.Payload, &cached); err == nil {
			return &cached, nil
		}
		log.Printf("[manager] undecodable player payload for %q, refetching", key)
	}

	raw, err := m.source.PlayerRatings(ctx, m.season)
	if err != nil {
		log.Printf("[manager] player ratings fetch failed: %v", err)
		return table.EmptyPlayerTable("player ratings are temporarily unavailable: " + err.Error()), nil
	}

	tbl := normalize.Players(raw, m.source.Provider())

	filtered := &table.PlayerTable{Columns: tbl.Columns, Rows: []table.PlayerRating{}}
	for _, row := range tbl.Rows {
		if row.GamesPlayed >= minGames {
			filtered.Rows = append(filtered.Rows, row)
		}
	}

	if err := m.cachePut(ctx, key, filtered); err != nil {
		return filtered, fmt.Errorf("caching player ratings: %w", err)
	}
	m.notifyRefreshed(KindPlayerRatings, len(filtered.Rows))

	return filtered, nil
}

func (m *Manager) cachePut(ctx context.Context, key string, tbl interface{}) error {
	payload, err := json.Marshal(tbl)
	if err != nil {
		return fmt.Errorf("encoding table: %w", err)
	}
	return m.store.Put(ctx, key, payload)
}

func (m *Manager) notifyRefreshed(kind string, rows int) {
	if m.notifier != nil {
		m.notifier.DataRefreshed(kind, m.season, rows)
	}
}

// playerRowKey builds a value-equality key for duplicate removal. Pointer
// fields are compared by value, so two fetches of the same row dedupe.
func playerRowKey(row table.PlayerRating) string {
	metric := func(v *float64) string {
		if v == nil {
			return ""
		}
		return strconv.FormatFloat(*v, 'f', -1, 64)
	}
	return strings.Join([]string{
		row.PlayerName,
		row.TeamID,
		metric(row.OffRating),
		metric(row.DefRating),
		metric(row.NetRating),
		strconv.Itoa(row.GamesPlayed),
	}, "\x1f")
}
