package rest

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/fuku8/nba-rating-visualizer/internal/directory"
	"github.com/fuku8/nba-rating-visualizer/internal/manager"
)

// Handler contains dependencies for HTTP handlers
type Handler struct {
	manager *manager.Manager
	teams   *directory.Directory
}

// NewHandler creates a new handler
func NewHandler(mgr *manager.Manager) *Handler {
	return &Handler{
		manager: mgr,
		teams:   directory.New(),
	}
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "nba-rating-visualizer",
		"season":  h.manager.Season(),
	})
}

// GetTeamRatings returns the canonical team ratings table.
func (h *Handler) GetTeamRatings(w http.ResponseWriter, r *http.Request) {
	tbl, err := h.manager.TeamRatings(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to cache team ratings", err)
		return
	}

	respondJSON(w, http.StatusOK, tbl)
}

// GetPlayerRatings returns player ratings, optionally filtered by team
// display name and a minimum games-played threshold.
func (h *Handler) GetPlayerRatings(w http.ResponseWriter, r *http.Request) {
	teamName := r.URL.Query().Get("team")

	minGames := 0 // manager default
	if minStr := r.URL.Query().Get("min_games"); minStr != "" {
		m, err := strconv.Atoi(minStr)
		if err != nil || m < 0 {
			respondError(w, http.StatusBadRequest, "Invalid min_games (use a non-negative integer)", err)
			return
		}
		minGames = m
	}

	tbl, err := h.manager.PlayerRatings(r.Context(), teamName, minGames)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to cache player ratings", err)
		return
	}

	respondJSON(w, http.StatusOK, tbl)
}

// SearchPlayers returns the union of matches for the repeatable "name"
// query parameter.
func (h *Handler) SearchPlayers(w http.ResponseWriter, r *http.Request) {
	fragments := r.URL.Query()["name"]

	tbl, err := h.manager.SearchPlayers(r.Context(), fragments)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to search players", err)
		return
	}

	respondJSON(w, http.StatusOK, tbl)
}

// GetTeams lists the team directory for lookup UIs.
func (h *Handler) GetTeams(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"teams": h.teams.Names(),
	})
}

// GetLastUpdated reports when the served data was last refreshed.
func (h *Handler) GetLastUpdated(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"last_updated": h.manager.LastUpdated(r.Context()),
	})
}

// SweepCache deletes expired cache records.
func (h *Handler) SweepCache(w http.ResponseWriter, r *http.Request) {
	removed, err := h.manager.SweepCache(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to sweep cache", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Expired cache records removed",
		"removed": removed,
	})
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}

	if err != nil {
		response["details"] = err.Error()
	}

	json.NewEncoder(w).Encode(response)
}
