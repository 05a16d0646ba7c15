package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fuku8/nba-rating-visualizer/internal/manager"
	"github.com/gorilla/mux"
)

// Server represents the REST API server
type Server struct {
	port    string
	server  *http.Server
	handler *Handler
}

// NewServer creates a new REST API server over the data manager.
func NewServer(port string, mgr *manager.Manager) *Server {
	handler := NewHandler(mgr)

	router := mux.NewRouter()

	// Apply middleware
	router.Use(RecoveryMiddleware)
	router.Use(LoggingMiddleware)
	router.Use(CORSMiddleware)

	// Health check
	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()

	// Teams
	api.HandleFunc("/teams/ratings", handler.GetTeamRatings).Methods("GET")
	api.HandleFunc("/teams", handler.GetTeams).Methods("GET")

	// Players
	api.HandleFunc("/players/ratings", handler.GetPlayerRatings).Methods("GET")
	api.HandleFunc("/players/search", handler.SearchPlayers).Methods("GET")

	// Metadata and housekeeping
	api.HandleFunc("/meta/last-updated", handler.GetLastUpdated).Methods("GET")
	api.HandleFunc("/cache/sweep", handler.SweepCache).Methods("POST")

	return &Server{
		port:    port,
		handler: handler,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%s", port),
			Handler: router,
		},
	}
}

// Start starts the REST API server
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
