package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yoonlab/speakwise/internal/service"
	"github.com/yoonlab/speakwise/pkg/core/logging"
)

// AnalyzeRequest represents a transcript submission
type AnalyzeRequest struct {
	SessionID          string   `json:"session_id,omitempty"`
	Text               string   `json:"text"`
	GenerateAIFeedback bool     `json:"generate_ai_feedback,omitempty"`
	StartTime          *float64 `json:"start_time,omitempty"`
	EndTime            *float64 `json:"end_time,omitempty"`
}

// AnalyzeResponse represents an analysis result
type AnalyzeResponse struct {
	Success  bool              `json:"success"`
	Analysis *service.Snapshot `json:"analysis"`
}

// ResetRequest represents a session reset request
type ResetRequest struct {
	SessionID string `json:"session_id,omitempty"`
}

// ResetResponse represents a session reset response
type ResetResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// FillerWordsResponse lists the configured filler vocabulary
type FillerWordsResponse struct {
	Success bool     `json:"success"`
	Words   []string `json:"words"`
}

// HistoryResponse represents archived snapshots of one session
type HistoryResponse struct {
	Success   bool                `json:"success"`
	SessionID string              `json:"session_id"`
	History   []*service.Snapshot `json:"history"`
	Total     int                 `json:"total"`
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// Handler handles HTTP requests for the analysis API
type Handler struct {
	svc       *service.Service
	logger    *logging.Logger
	startTime time.Time
	version   string
}

// NewHandler creates a new API handler
func NewHandler(version string, svc *service.Service) *Handler {
	return &Handler{
		svc:       svc,
		logger:    logging.New("api-handler"),
		startTime: time.Now(),
		version:   version,
	}
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Add CORS headers
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	// Route requests
	path := strings.TrimPrefix(r.URL.Path, "/api")
	path = strings.TrimPrefix(path, "/")

	switch {
	case path == "" || path == "/":
		h.handleRoot(w, r)
	case path == "analyze" || path == "analyze/":
		h.handleAnalyze(w, r)
	case path == "reset-session" || path == "reset-session/":
		h.handleResetSession(w, r)
	case path == "filler-words" || path == "filler-words/":
		h.handleFillerWords(w, r)
	case strings.HasPrefix(path, "session-history/"):
		h.handleSessionHistory(w, r, strings.TrimPrefix(path, "session-history/"))
	default:
		h.writeError(w, http.StatusNotFound, "not_found", "Endpoint not found", "")
	}
}

// handleRoot handles the root endpoint
func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":    "SpeakWise API",
		"version": h.version,
		"uptime":  time.Since(h.startTime).String(),
		"endpoints": []string{
			"POST /api/analyze",
			"POST /api/reset-session",
			"GET  /api/filler-words",
			"GET  /api/session-history/{session_id}",
			"WS   /api/live",
		},
	}
	h.writeJSON(w, http.StatusOK, info)
}

// handleAnalyze handles transcript analysis requests
func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Use POST", "")
		return
	}

	var req AnalyzeRequest
	if err := h.readJSON(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON", err.Error())
		return
	}

	snap, err := h.svc.Analyze(r.Context(), service.AnalyzeRequest{
		SessionID:    req.SessionID,
		Text:         req.Text,
		WantFeedback: req.GenerateAIFeedback,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
	})
	if err != nil {
		if errors.Is(err, service.ErrEmptyText) {
			h.writeError(w, http.StatusBadRequest, "invalid_request", "Text required", "")
			return
		}
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Analysis failed", err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, AnalyzeResponse{
		Success:  true,
		Analysis: snap,
	})
}

// handleResetSession handles session reset requests
func (h *Handler) handleResetSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Use POST", "")
		return
	}

	// Session id may arrive as a query parameter or in the body.
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		var req ResetRequest
		if err := h.readJSON(r, &req); err == nil {
			sessionID = req.SessionID
		}
	}
	if sessionID == "" {
		sessionID = service.DefaultSessionID
	}

	h.svc.Reset(sessionID)

	h.writeJSON(w, http.StatusOK, ResetResponse{
		Success: true,
		Message: "Session '" + sessionID + "' has been reset",
	})
}

// handleFillerWords handles vocabulary listing requests
func (h *Handler) handleFillerWords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Use GET", "")
		return
	}

	h.writeJSON(w, http.StatusOK, FillerWordsResponse{
		Success: true,
		Words:   h.svc.FillerWords(),
	})
}

// handleSessionHistory handles history listing for one session
func (h *Handler) handleSessionHistory(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Use GET", "")
		return
	}

	sessionID = strings.TrimSuffix(sessionID, "/")
	if sessionID == "" {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Session id required", "")
		return
	}

	history, err := h.svc.History(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, service.ErrNoHistory) {
			h.writeError(w, http.StatusNotFound, "not_found", "No history for session '"+sessionID+"'", "")
			return
		}
		h.writeError(w, http.StatusInternalServerError, "internal_error", "History lookup failed", err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, HistoryResponse{
		Success:   true,
		SessionID: sessionID,
		History:   history,
		Total:     len(history),
	})
}

// Helper methods

func (h *Handler) readJSON(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, message, details string) {
	resp := ErrorResponse{
		Success: false,
		Error:   message,
		Code:    code,
		Details: details,
	}
	h.writeJSON(w, status, resp)
}
