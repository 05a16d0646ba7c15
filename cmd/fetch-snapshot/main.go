// fetch-snapshot scrapes the season's team and player advanced stats,
// normalizes them, and writes the CSV snapshot files the offline source
// serves. With an archive DSN it also records the capture in Postgres.
//
// Run it periodically and commit the output so deployments without network
// access to the stats provider still serve recent data.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/fuku8/nba-rating-visualizer/internal/ingest/bref"
	"github.com/fuku8/nba-rating-visualizer/internal/ingest/snapshot"
	"github.com/fuku8/nba-rating-visualizer/internal/normalize"
	"github.com/fuku8/nba-rating-visualizer/internal/store"
	"github.com/fuku8/nba-rating-visualizer/internal/store/repository"
	"github.com/fuku8/nba-rating-visualizer/internal/table"
)

func main() {
	var (
		season     = flag.String("season", "2025-26", "season to fetch, e.g. 2025-26")
		outDir     = flag.String("out", "data", "snapshot output directory")
		archiveDSN = flag.String("archive-dsn", os.Getenv("ARCHIVE_DSN"), "optional Postgres DSN for the snapshot archive")
		rendered   = flag.Bool("rendered", false, "enable headless-browser fallback for missing tables")
		pause      = flag.Duration("pause", 5*time.Second, "polite pause between the team and player page fetches")
	)
	flag.Parse()

	ctx := context.Background()

	var opts []bref.Option
	if *rendered {
		r, err := bref.NewRendered()
		if err != nil {
			log.Fatalf("Failed to start rendered fetcher: %v", err)
		}
		opts = append(opts, bref.WithRenderedFallback(r))
	}
	client := bref.NewClient("", opts...)
	defer client.Close()

	log.Printf("Fetching team ratings for %s...", *season)
	teams := fetchTeams(ctx, client, *season)
	log.Printf("✓ %d teams", len(teams.Rows))

	log.Printf("Waiting %v before the player page...", *pause)
	time.Sleep(*pause)

	log.Printf("Fetching player ratings for %s...", *season)
	players := fetchPlayers(ctx, client, *season)
	log.Printf("✓ %d players", len(players.Rows))

	capturedAt := time.Now()
	if err := snapshot.Write(*outDir, teams, players, capturedAt); err != nil {
		log.Fatalf("Failed to write snapshot: %v", err)
	}
	log.Printf("✓ Snapshot written to %s", *outDir)

	if *archiveDSN != "" {
		archive(ctx, *archiveDSN, *season, capturedAt, teams, players)
	}
}

func fetchTeams(ctx context.Context, client *bref.Client, season string) *table.TeamTable {
	raw, err := client.TeamRatings(ctx, season)
	if err != nil {
		log.Fatalf("Failed to fetch team ratings: %v", err)
	}
	return normalize.Teams(raw, client.Provider())
}

func fetchPlayers(ctx context.Context, client *bref.Client, season string) *table.PlayerTable {
	raw, err := client.PlayerRatings(ctx, season)
	if err != nil {
		log.Fatalf("Failed to fetch player ratings: %v", err)
	}
	return normalize.Players(raw, client.Provider())
}

// archive records the capture in Postgres. Archive failures are warnings:
// the snapshot files on disk are the primary output.
func archive(ctx context.Context, dsn, season string, capturedAt time.Time, teams *table.TeamTable, players *table.PlayerTable) {
	db, err := store.NewDatabase(dsn)
	if err != nil {
		log.Printf("⚠️  Archive unavailable: %v (snapshot files were still written)", err)
		return
	}
	defer db.Close()

	if err := db.EnsureSchema(); err != nil {
		log.Printf("⚠️  Archive schema error: %v", err)
		return
	}

	repo := repository.NewSnapshotRepository(db)
	if err := repo.SaveTeamRatings(ctx, season, capturedAt, teams.Rows); err != nil {
		log.Printf("⚠️  Failed to archive team ratings: %v", err)
		return
	}
	if err := repo.SavePlayerRatings(ctx, season, capturedAt, players.Rows); err != nil {
		log.Printf("⚠️  Failed to archive player ratings: %v", err)
		return
	}

	log.Printf("✓ Capture archived (%s)", capturedAt.Format(snapshot.TimestampLayout))
}
