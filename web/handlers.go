package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"rfsouza/textfix/config"
)

// handleSettings handles GET and PUT requests for the app settings
func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleGetSettings(w, r)
	case http.MethodPut:
		s.handlePutSettings(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// settingsView is the sanitized settings shape: the API key is reported
// as present/absent, never echoed back.
type settingsView struct {
	Hotkey            string `json:"hotkey"`
	Provider          string `json:"provider"`
	Model             string `json:"model"`
	Language          string `json:"language"`
	AutoPaste         bool   `json:"autoPaste"`
	ShowNotifications bool   `json:"showNotifications"`
	TimeoutSeconds    int    `json:"timeoutSeconds"`
	MaxRetries        int    `json:"maxRetries"`
	HasAPIKey         bool   `json:"hasApiKey"`
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	cfg := s.store.Get()

	view := settingsView{
		Hotkey:            cfg.Hotkey.Combo,
		Provider:          cfg.Correction.Provider,
		Model:             cfg.Correction.Model,
		Language:          string(cfg.Correction.Language),
		AutoPaste:         cfg.Correction.AutoPaste,
		ShowNotifications: cfg.Correction.ShowNotifications,
		TimeoutSeconds:    cfg.Correction.TimeoutSeconds,
		MaxRetries:        cfg.Correction.MaxRetries,
		HasAPIKey:         cfg.Correction.APIKey != "",
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(view)
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Hotkey            *string `json:"hotkey"`
		Provider          *string `json:"provider"`
		Model             *string `json:"model"`
		Language          *string `json:"language"`
		AutoPaste         *bool   `json:"autoPaste"`
		ShowNotifications *bool   `json:"showNotifications"`
		TimeoutSeconds    *int    `json:"timeoutSeconds"`
		MaxRetries        *int    `json:"maxRetries"`
		APIKey            *string `json:"apiKey"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	cfg := s.store.Get()

	if req.Hotkey != nil {
		cfg.Hotkey.Combo = *req.Hotkey
	}
	if req.Provider != nil {
		cfg.Correction.Provider = *req.Provider
	}
	if req.Model != nil {
		cfg.Correction.Model = *req.Model
	}
	if req.Language != nil {
		cfg.Correction.Language = config.Language(*req.Language)
	}
	if req.AutoPaste != nil {
		cfg.Correction.AutoPaste = *req.AutoPaste
	}
	if req.ShowNotifications != nil {
		cfg.Correction.ShowNotifications = *req.ShowNotifications
	}
	if req.TimeoutSeconds != nil {
		cfg.Correction.TimeoutSeconds = *req.TimeoutSeconds
	}
	if req.MaxRetries != nil {
		cfg.Correction.MaxRetries = *req.MaxRetries
	}
	if req.APIKey != nil && *req.APIKey != "" {
		cfg.Correction.APIKey = *req.APIKey
	}

	if err := cfg.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := cfg.Save(); err != nil {
		slog.Error("Failed to save settings", "error", err)
		http.Error(w, "Failed to save settings", http.StatusInternalServerError)
		return
	}

	// Saving also rewrites the file the watcher observes; Set makes the
	// change effective immediately rather than after the debounce.
	s.store.Set(&cfg)

	w.WriteHeader(http.StatusNoContent)
}

// handleHistory returns the most recent correction records
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	corrections, err := s.db.GetCorrections(limit, offset)
	if err != nil {
		slog.Error("Failed to query history", "error", err)
		http.Error(w, "Failed to query history", http.StatusInternalServerError)
		return
	}

	total, err := s.db.GetCorrectionCount()
	if err != nil {
		slog.Error("Failed to count history", "error", err)
		http.Error(w, "Failed to query history", http.StatusInternalServerError)
		return
	}

	resp := struct {
		Total       int              `json:"total"`
		Corrections []correctionView `json:"corrections"`
	}{
		Total:       total,
		Corrections: make([]correctionView, 0, len(corrections)),
	}
	for _, c := range corrections {
		resp.Corrections = append(resp.Corrections, correctionView{
			ID:        c.ID,
			Timestamp: c.Timestamp.Format("2006-01-02T15:04:05Z"),
			Language:  c.Language,
			Provider:  c.Provider,
			Model:     c.Model,
			Attempts:  c.Attempts,
			Changed:   c.Changed,
			LatencyMs: c.LatencyMs,
			Success:   c.Success,
			ErrorKind: c.ErrorKind,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

type correctionView struct {
	ID        int64  `json:"id"`
	Timestamp string `json:"timestamp"`
	Language  string `json:"language"`
	Provider  string `json:"provider"`
	Model     string `json:"model"`
	Attempts  int    `json:"attempts"`
	Changed   bool   `json:"changed"`
	LatencyMs int64  `json:"latencyMs"`
	Success   bool   `json:"success"`
	ErrorKind string `json:"errorKind,omitempty"`
}

// handleStats returns overall, daily and error-kind statistics
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	days := 30
	if v := r.URL.Query().Get("days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 365 {
			days = n
		}
	}

	overall, err := s.db.GetOverallStats()
	if err != nil {
		slog.Error("Failed to query overall stats", "error", err)
		http.Error(w, "Failed to query stats", http.StatusInternalServerError)
		return
	}

	daily, err := s.db.GetDailyStats(days)
	if err != nil {
		slog.Error("Failed to query daily stats", "error", err)
		http.Error(w, "Failed to query stats", http.StatusInternalServerError)
		return
	}

	errorKinds, err := s.db.GetErrorKindStats(days)
	if err != nil {
		slog.Error("Failed to query error stats", "error", err)
		http.Error(w, "Failed to query stats", http.StatusInternalServerError)
		return
	}

	resp := struct {
		Overall    any `json:"overall"`
		Daily      any `json:"daily"`
		ErrorKinds any `json:"errorKinds"`
	}{
		Overall:    overall,
		Daily:      daily,
		ErrorKinds: errorKinds,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// handleStatus returns the last known pipeline status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.RLock()
	status := s.lastStatus
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}
