package web

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"rfsouza/textfix/config"
	"rfsouza/textfix/storage"
)

//go:embed static/*
var staticFiles embed.FS

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Local dashboard only
	},
}

// Server serves the local settings and history dashboard.
type Server struct {
	store *config.Store
	db    *storage.DB
	port  int
	hub   *Hub

	mu         sync.RWMutex
	lastStatus StatusMessage
}

// NewServer creates a new dashboard server
func NewServer(store *config.Store, db *storage.DB, port int) *Server {
	hub := NewHub()
	go hub.Run()

	return &Server{
		store: store,
		db:    db,
		port:  port,
		hub:   hub,
		lastStatus: StatusMessage{
			Status: "idle",
		},
	}
}

// Handler returns the HTTP handler for the dashboard.
func (s *Server) Handler() (http.Handler, error) {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/settings", s.handleSettings)
	mux.HandleFunc("/api/history", s.handleHistory)
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/ws", s.handleWebSocket)

	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return nil, fmt.Errorf("failed to load static files: %w", err)
	}
	mux.Handle("/", http.FileServer(http.FS(staticFS)))

	return mux, nil
}

// Start starts the web server (blocking).
func (s *Server) Start() error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	slog.Info("Starting dashboard", "url", fmt.Sprintf("http://localhost:%d", s.port))

	return http.ListenAndServe(addr, handler)
}

// CorrectionStatus implements the agent's status sink: pushes the live
// correction state to all connected dashboard clients.
func (s *Server) CorrectionStatus(id, status string) {
	msg := StatusMessage{ID: id, Status: status}

	s.mu.Lock()
	s.lastStatus = msg
	s.mu.Unlock()

	s.hub.BroadcastMessage(Message{
		Type: MessageTypeStatus,
		Data: msg,
	})
}

// CorrectionSaved pushes a freshly saved history row to all clients.
func (s *Server) CorrectionSaved(c *storage.Correction) {
	s.hub.BroadcastMessage(Message{
		Type: MessageTypeCorrection,
		Data: CorrectionMessage{
			ID:        c.ID,
			Language:  c.Language,
			Provider:  c.Provider,
			Changed:   c.Changed,
			Success:   c.Success,
			ErrorKind: c.ErrorKind,
			LatencyMs: c.LatencyMs,
			Timestamp: c.Timestamp.Format("2006-01-02T15:04:05Z"),
		},
	})
}

// handleWebSocket upgrades the connection and registers it with the hub
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade WebSocket connection", "error", err)
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
