package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fuku8/nba-rating-visualizer/internal/api/rest"
	"github.com/fuku8/nba-rating-visualizer/internal/api/websocket"
	"github.com/fuku8/nba-rating-visualizer/internal/cache"
	"github.com/fuku8/nba-rating-visualizer/internal/directory"
	"github.com/fuku8/nba-rating-visualizer/internal/ingest/bref"
	"github.com/fuku8/nba-rating-visualizer/internal/ingest/snapshot"
	"github.com/fuku8/nba-rating-visualizer/internal/manager"
)

const (
	serviceName    = "nba-rating-visualizer"
	serviceVersion = "1.0.0"
)

func main() {
	log.Printf("Starting %s v%s - NBA Ratings Data Service", serviceName, serviceVersion)

	// Load configuration from environment
	config := loadConfig()

	// Initialize the cache store
	store, err := buildCacheStore(config)
	if err != nil {
		log.Fatalf("Failed to initialize cache store: %v", err)
	}
	defer store.Close()

	log.Printf("✓ Cache store ready (%s)", config.CacheBackend)

	// Initialize the data source
	source, cleanup, err := buildSource(config)
	if err != nil {
		log.Fatalf("Failed to initialize data source: %v", err)
	}
	defer cleanup()

	log.Printf("✓ Data source ready (%s)", config.DataSource)

	// Initialize WebSocket server for refresh notifications
	wsServer := websocket.NewServer()
	go func() {
		if err := wsServer.Start(config.WSPort); err != nil {
			log.Printf("WebSocket server error: %v", err)
		}
	}()

	log.Printf("✓ WebSocket server listening on :%s", config.WSPort)

	// Initialize the data manager
	mgr := manager.New(manager.Config{
		Season:   config.Season,
		TTL:      config.CacheTTL,
		Notifier: wsServer,
	}, source, store, directory.New())

	// Initialize REST API server
	restServer := rest.NewServer(config.RESTPort, mgr)
	go func() {
		log.Printf("Starting REST API server on port %s", config.RESTPort)
		if err := restServer.Start(); err != nil {
			log.Printf("REST server error: %v", err)
		}
	}()

	log.Printf("✓ REST API server listening on :%s", config.RESTPort)
	log.Printf("✓ %s v%s started successfully", serviceName, serviceVersion)
	log.Printf("  Season: %s", config.Season)
	log.Printf("  REST API: http://0.0.0.0:%s", config.RESTPort)
	log.Printf("  WebSocket: ws://0.0.0.0:%s/ws/refresh", config.WSPort)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := restServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("REST API server shutdown error: %v", err)
	}
	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("WebSocket server shutdown error: %v", err)
	}

	log.Printf("%s stopped", serviceName)
}

// Config carries the process configuration.
type Config struct {
	Season       string
	DataSource   string // "bref" or "snapshot"
	SnapshotDir  string
	CacheBackend string // "file" or "redis"
	CacheDir     string
	RedisURL     string
	CacheTTL     time.Duration
	RESTPort     string
	WSPort       string
	Rendered     bool
}

func loadConfig() Config {
	ttlSeconds, err := strconv.Atoi(getEnv("CACHE_TTL_SECONDS", "3600"))
	if err != nil || ttlSeconds <= 0 {
		ttlSeconds = 3600
	}

	return Config{
		Season:       getEnv("SEASON", "2025-26"),
		DataSource:   getEnv("DATA_SOURCE", "bref"),
		SnapshotDir:  getEnv("SNAPSHOT_DIR", "data"),
		CacheBackend: getEnv("CACHE_BACKEND", "file"),
		CacheDir:     getEnv("CACHE_DIR", ".cache"),
		RedisURL:     getEnv("REDIS_URL", "redis://localhost:6379"),
		CacheTTL:     time.Duration(ttlSeconds) * time.Second,
		RESTPort:     getEnv("REST_PORT", "8080"),
		WSPort:       getEnv("WS_PORT", "8081"),
		Rendered:     getEnv("BREF_RENDERED_FALLBACK", "false") == "true",
	}
}

// buildCacheStore selects the cache backend. Redis connections are retried
// because the service often races its Redis container at startup.
func buildCacheStore(config Config) (cache.Store, error) {
	if config.CacheBackend != "redis" {
		return cache.NewFileStore(config.CacheDir)
	}

	const maxRetries = 10
	retryDelay := 2 * time.Second

	var store *cache.RedisStore
	var err error
	for i := 0; i < maxRetries; i++ {
		store, err = cache.NewRedisStore(config.RedisURL)
		if err == nil {
			return store, nil
		}
		if i < maxRetries-1 {
			log.Printf("Redis connection attempt %d/%d failed: %v (retrying in %v)", i+1, maxRetries, err, retryDelay)
			time.Sleep(retryDelay)
		}
	}
	return nil, err
}

// buildSource selects the upstream data source.
func buildSource(config Config) (manager.Source, func(), error) {
	if config.DataSource == "snapshot" {
		return snapshot.NewSource(config.SnapshotDir), func() {}, nil
	}

	var opts []bref.Option
	if config.Rendered {
		rendered, err := bref.NewRendered()
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, bref.WithRenderedFallback(rendered))
	}

	client := bref.NewClient("", opts...)
	return client, client.Close, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
