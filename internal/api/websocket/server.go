// Package websocket pushes data-refresh notifications to connected
// dashboard clients. Events originate from request-driven cache refreshes
// in the data manager; there is no background polling here.
package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
}

// RefreshEvent tells clients a ratings table was refreshed and is worth
// re-querying.
type RefreshEvent struct {
	Type   string    `json:"type"`
	Kind   string    `json:"kind"`
	Season string    `json:"season"`
	Rows   int       `json:"rows"`
	At     time.Time `json:"at"`
}

// Server represents the WebSocket server
type Server struct {
	port   string
	server *http.Server
	hub    *Hub
	cancel context.CancelFunc
}

// NewServer creates a new WebSocket server
func NewServer() *Server {
	return &Server{
		hub: NewHub(),
	}
}

// Start starts the WebSocket server
func (s *Server) Start(port string) error {
	s.port = port

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.hub.Run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/refresh", s.handleRefresh)
	mux.HandleFunc("/ws/health", s.handleHealth)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: mux,
	}

	log.Printf("[ws] server listening on :%s", port)
	return s.server.ListenAndServe()
}

// handleRefresh handles WebSocket connections for refresh notifications
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] failed to upgrade connection: %v", err)
		return
	}

	client := &Client{
		hub:  s.hub,
		conn: conn,
		send: make(chan []byte, 256),
	}

	s.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// handleHealth returns WebSocket server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status": "healthy", "clients": %d}`, s.hub.ClientCount())
}

// DataRefreshed broadcasts a refresh event to all connected clients. It
// implements the data manager's notifier contract.
func (s *Server) DataRefreshed(kind, season string, rows int) {
	event := RefreshEvent{
		Type:   "data_refreshed",
		Kind:   kind,
		Season: season,
		Rows:   rows,
		At:     time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("[ws] failed to encode refresh event: %v", err)
		return
	}
	s.hub.Broadcast(payload)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
