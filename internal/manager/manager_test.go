package manager

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fuku8/nba-rating-visualizer/internal/cache"
	"github.com/fuku8/nba-rating-visualizer/internal/directory"
	"github.com/fuku8/nba-rating-visualizer/internal/normalize"
	"github.com/fuku8/nba-rating-visualizer/internal/table"
)

// fakeSource serves canned raw tables and counts fetches.
type fakeSource struct {
	teamFetches   int
	playerFetches int
	fail          bool
}

func (s *fakeSource) Provider() normalize.Provider { return normalize.Snapshot }

func (s *fakeSource) TeamRatings(ctx context.Context, season string) (*table.Raw, error) {
	s.teamFetches++
	if s.fail {
		return nil, errors.New("upstream unavailable")
	}
	return &table.Raw{
		Columns: table.TeamColumns(),
		Rows: []map[string]string{
			{"TEAM_NAME": "Boston Celtics", "OFF_RATING": "122.2", "DEF_RATING": "110.6", "NET_RATING": "11.6"},
			{"TEAM_NAME": "Denver Nuggets", "OFF_RATING": "117.8", "DEF_RATING": "112.3", "NET_RATING": "5.5"},
		},
	}, nil
}

func (s *fakeSource) PlayerRatings(ctx context.Context, season string) (*table.Raw, error) {
	s.playerFetches++
	if s.fail {
		return nil, errors.New("upstream unavailable")
	}
	return &table.Raw{
		Columns: table.PlayerColumns(),
		Rows: []map[string]string{
			{"PLAYER_NAME": "James", "TEAM_ID": "LAL", "NET_RATING": "9.1", "GP": "55"},
			{"PLAYER_NAME": "Jameson", "TEAM_ID": "BOS", "NET_RATING": "1.2", "GP": "12"},
			{"PLAYER_NAME": "Jokić", "TEAM_ID": "DEN", "NET_RATING": "15.2", "GP": "70"},
		},
	}, nil
}

// fakeStore is an in-memory cache store whose entry timestamps tests can
// age artificially.
type fakeStore struct {
	entries  map[string]cache.Entry
	failPut  bool
	putCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: make(map[string]cache.Entry)}
}

func (s *fakeStore) Get(ctx context.Context, key string) (cache.Entry, bool) {
	e, ok := s.entries[key]
	return e, ok
}

func (s *fakeStore) Put(ctx context.Context, key string, payload []byte) error {
	s.putCalls++
	if s.failPut {
		return errors.New("disk full")
	}
	s.entries[key] = cache.Entry{Key: key, CreatedAt: time.Now(), Payload: payload}
	return nil
}

func (s *fakeStore) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(s.entries, k)
	}
	return nil
}

func (s *fakeStore) Sweep(ctx context.Context, ttl time.Duration) (int, error) {
	removed := 0
	for k, e := range s.entries {
		if !e.Fresh(ttl) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed, nil
}

func (s *fakeStore) Close() error { return nil }

func (s *fakeStore) age(key string, by time.Duration) {
	e := s.entries[key]
	e.CreatedAt = e.CreatedAt.Add(-by)
	s.entries[key] = e
}

func newTestManager(src Source, store cache.Store) *Manager {
	return New(Config{Season: "2025-26"}, src, store, directory.New())
}

func TestTeamRatingsCachesWithinTTL(t *testing.T) {
	src := &fakeSource{}
	m := newTestManager(src, newFakeStore())
	ctx := context.Background()

	first, err := m.TeamRatings(ctx)
	if err != nil {
		t.Fatalf("TeamRatings: %v", err)
	}
	second, err := m.TeamRatings(ctx)
	if err != nil {
		t.Fatalf("TeamRatings: %v", err)
	}

	if src.teamFetches != 1 {
		t.Errorf("teamFetches = %d, want 1 (second call is a cache hit)", src.teamFetches)
	}
	if len(first.Rows) != 2 || len(second.Rows) != 2 {
		t.Errorf("row counts = %d, %d, want 2, 2", len(first.Rows), len(second.Rows))
	}
}

func TestTeamRatingsExpiredEntryRefetches(t *testing.T) {
	src := &fakeSource{}
	store := newFakeStore()
	m := newTestManager(src, store)
	ctx := context.Background()

	if _, err := m.TeamRatings(ctx); err != nil {
		t.Fatal(err)
	}

	key := cache.Key(KindTeamRatings, "2025-26")
	store.age(key, 2*time.Hour)
	before := store.entries[key].CreatedAt

	if _, err := m.TeamRatings(ctx); err != nil {
		t.Fatal(err)
	}

	if src.teamFetches != 2 {
		t.Errorf("teamFetches = %d, want 2 (expired entry triggers exactly one re-fetch)", src.teamFetches)
	}
	if !store.entries[key].CreatedAt.After(before) {
		t.Error("cache timestamp was not refreshed")
	}
}

func TestTeamRatingsFetchFailureReturnsEmptyTable(t *testing.T) {
	m := newTestManager(&fakeSource{fail: true}, newFakeStore())

	tbl, err := m.TeamRatings(context.Background())
	if err != nil {
		t.Fatalf("expected no error for expected failure mode, got %v", err)
	}
	if tbl == nil || len(tbl.Rows) != 0 {
		t.Fatalf("tbl = %+v, want validly shaped empty table", tbl)
	}
	if tbl.Notice == "" {
		t.Error("empty result must carry a diagnostic notice")
	}
}

func TestTeamRatingsCacheWriteFailurePropagates(t *testing.T) {
	store := newFakeStore()
	store.failPut = true
	m := newTestManager(&fakeSource{}, store)

	if _, err := m.TeamRatings(context.Background()); err == nil {
		t.Fatal("expected storage write error to propagate")
	}
}

func TestPlayerRatingsMinGamesFilter(t *testing.T) {
	m := newTestManager(&fakeSource{}, newFakeStore())

	tbl, err := m.PlayerRatings(context.Background(), "", 20)
	if err != nil {
		t.Fatalf("PlayerRatings: %v", err)
	}

	if len(tbl.Rows) != 2 {
		t.Fatalf("len(Rows) = %d, want 2", len(tbl.Rows))
	}
	for _, row := range tbl.Rows {
		if row.GamesPlayed < 20 {
			t.Errorf("row %q has GP %d < 20", row.PlayerName, row.GamesPlayed)
		}
	}
}

func TestPlayerRatingsTeamFilter(t *testing.T) {
	m := newTestManager(&fakeSource{}, newFakeStore())

	tbl, err := m.PlayerRatings(context.Background(), "Denver Nuggets", 1)
	if err != nil {
		t.Fatalf("PlayerRatings: %v", err)
	}
	if len(tbl.Rows) != 1 || tbl.Rows[0].PlayerName != "Jokić" {
		t.Errorf("Rows = %+v, want only Jokić", tbl.Rows)
	}
}

func TestPlayerRatingsUnknownTeam(t *testing.T) {
	src := &fakeSource{}
	m := newTestManager(src, newFakeStore())

	tbl, err := m.PlayerRatings(context.Background(), "Nonexistent Team", 1)
	if err != nil {
		t.Fatalf("unknown team must not be an error, got %v", err)
	}
	if len(tbl.Rows) != 0 {
		t.Errorf("len(Rows) = %d, want 0", len(tbl.Rows))
	}
	if tbl.Notice == "" {
		t.Error("unknown team should carry a warning notice")
	}
}

func TestPlayerRatingsCachedPerThreshold(t *testing.T) {
	src := &fakeSource{}
	m := newTestManager(src, newFakeStore())
	ctx := context.Background()

	if _, err := m.PlayerRatings(ctx, "", 20); err != nil {
		t.Fatal(err)
	}
	if _, err := m.PlayerRatings(ctx, "", 20); err != nil {
		t.Fatal(err)
	}
	if src.playerFetches != 1 {
		t.Errorf("playerFetches = %d, want 1", src.playerFetches)
	}

	// A different threshold is a different logical key.
	if _, err := m.PlayerRatings(ctx, "", 5); err != nil {
		t.Fatal(err)
	}
	if src.playerFetches != 2 {
		t.Errorf("playerFetches = %d, want 2", src.playerFetches)
	}
}

func TestSearchPlayersUnionAndDedupe(t *testing.T) {
	m := newTestManager(&fakeSource{}, newFakeStore())
	ctx := context.Background()

	tbl, err := m.SearchPlayers(ctx, []string{"JAM"})
	if err != nil {
		t.Fatalf("SearchPlayers: %v", err)
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("len(Rows) = %d, want 2 (James and Jameson, case-insensitively)", len(tbl.Rows))
	}

	// The same fragment twice never duplicates a row.
	tbl, err = m.SearchPlayers(ctx, []string{"jam", "jam", "jameson"})
	if err != nil {
		t.Fatal(err)
	}
	if len(tbl.Rows) != 2 {
		t.Errorf("len(Rows) = %d, want 2 after dedupe", len(tbl.Rows))
	}
	for _, row := range tbl.Rows {
		if !strings.Contains(strings.ToLower(row.PlayerName), "jam") {
			t.Errorf("unexpected row %q", row.PlayerName)
		}
	}
}

func TestSearchPlayersBlankFragments(t *testing.T) {
	m := newTestManager(&fakeSource{}, newFakeStore())
	ctx := context.Background()

	for _, fragments := range [][]string{{}, {"", ""}, {"  "}} {
		tbl, err := m.SearchPlayers(ctx, fragments)
		if err != nil {
			t.Fatalf("SearchPlayers(%q): %v", fragments, err)
		}
		if len(tbl.Rows) != 0 {
			t.Errorf("SearchPlayers(%q) returned %d rows, want 0", fragments, len(tbl.Rows))
		}
	}
}

func TestSearchPlayersIncludesLowGamesPlayers(t *testing.T) {
	m := newTestManager(&fakeSource{}, newFakeStore())

	// Search runs over the min-one-game table, so the 12-game player is
	// findable even though the default ratings view filters him out.
	tbl, err := m.SearchPlayers(context.Background(), []string{"jameson"})
	if err != nil {
		t.Fatal(err)
	}
	if len(tbl.Rows) != 1 || tbl.Rows[0].GamesPlayed != 12 {
		t.Errorf("Rows = %+v", tbl.Rows)
	}
}

type recordingNotifier struct {
	events []string
}

func (n *recordingNotifier) DataRefreshed(kind, season string, rows int) {
	n.events = append(n.events, kind)
}

func TestNotifierFiresOnRefreshOnly(t *testing.T) {
	notifier := &recordingNotifier{}
	m := New(Config{Season: "2025-26", Notifier: notifier}, &fakeSource{}, newFakeStore(), directory.New())
	ctx := context.Background()

	if _, err := m.TeamRatings(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := m.TeamRatings(ctx); err != nil {
		t.Fatal(err)
	}

	if len(notifier.events) != 1 || notifier.events[0] != KindTeamRatings {
		t.Errorf("events = %v, want one team_ratings refresh", notifier.events)
	}
}

func TestLastUpdatedFromCacheEntry(t *testing.T) {
	m := newTestManager(&fakeSource{}, newFakeStore())
	ctx := context.Background()

	if got := m.LastUpdated(ctx); got != "unknown" {
		t.Errorf("LastUpdated before any fetch = %q, want unknown", got)
	}

	if _, err := m.TeamRatings(ctx); err != nil {
		t.Fatal(err)
	}
	if got := m.LastUpdated(ctx); got == "unknown" {
		t.Error("LastUpdated after fetch should report the cache timestamp")
	}
}

// timestampedFake layers a snapshot-style refresh record over fakeSource.
type timestampedFake struct {
	fakeSource
	stamp string
}

func (s *timestampedFake) LastUpdated() (string, error) { return s.stamp, nil }

func TestLastUpdatedPrefersSourceRecord(t *testing.T) {
	src := &timestampedFake{stamp: "2026-01-15 09:30:00"}
	m := newTestManager(src, newFakeStore())

	if got := m.LastUpdated(context.Background()); got != "2026-01-15 09:30:00" {
		t.Errorf("LastUpdated = %q", got)
	}
}
