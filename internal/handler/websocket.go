package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yoonlab/speakwise/internal/service"
	"github.com/yoonlab/speakwise/pkg/core/logging"
)

// WebSocket upgrader with permissive settings for local development
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// WebSocketHandler handles WebSocket connections for live transcript
// analysis during a practice session
type WebSocketHandler struct {
	svc    *service.Service
	logger *logging.Logger
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(svc *service.Service) *WebSocketHandler {
	return &WebSocketHandler{
		svc:    svc,
		logger: logging.New("live-websocket"),
	}
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string          `json:"type"`    // "chunk", "reset", "ping"
	Payload json.RawMessage `json:"payload"` // Message-specific payload
}

// WSChunkPayload represents a transcript chunk payload
type WSChunkPayload struct {
	SessionID string   `json:"session_id,omitempty"`
	Text      string   `json:"text"`
	StartTime *float64 `json:"start_time,omitempty"`
	EndTime   *float64 `json:"end_time,omitempty"`
}

// WSResetPayload represents a reset payload
type WSResetPayload struct {
	SessionID string `json:"session_id,omitempty"`
}

// WSResponse represents a WebSocket response
type WSResponse struct {
	Type    string      `json:"type"` // "analysis", "reset", "pong", "error"
	Payload interface{} `json:"payload"`
}

// WSErrorPayload represents an error payload
type WSErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ServeHTTP handles WebSocket upgrade and connections
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", "error", err)
		return
	}
	h.handleConnection(conn)
}

// handleConnection handles a single WebSocket connection. Messages on
// one connection are processed in order so that chunk submissions
// accumulate deterministically.
func (h *WebSocketHandler) handleConnection(conn *websocket.Conn) {
	defer conn.Close()

	h.logger.Info("WebSocket connection established", "remote", conn.RemoteAddr().String())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set read deadline for ping/pong
	conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Error("WebSocket read error", "error", err)
			} else {
				h.logger.Info("WebSocket connection closed")
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(120 * time.Second))

		switch msg.Type {
		case "ping":
			h.sendResponse(conn, WSResponse{Type: "pong", Payload: nil})

		case "chunk":
			var payload WSChunkPayload
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				h.sendError(conn, "invalid_payload", "Invalid chunk payload")
				continue
			}
			h.handleChunk(ctx, conn, payload)

		case "reset":
			var payload WSResetPayload
			if len(msg.Payload) > 0 {
				if err := json.Unmarshal(msg.Payload, &payload); err != nil {
					h.sendError(conn, "invalid_payload", "Invalid reset payload")
					continue
				}
			}
			h.svc.Reset(payload.SessionID)
			h.sendResponse(conn, WSResponse{Type: "reset", Payload: map[string]bool{"success": true}})

		default:
			h.sendError(conn, "unknown_type", "Unknown message type: "+msg.Type)
		}
	}
}

// handleChunk runs one transcript chunk through the analysis service.
// AI feedback is never generated on the live path; clients request it
// over the REST endpoint when the session ends.
func (h *WebSocketHandler) handleChunk(ctx context.Context, conn *websocket.Conn, payload WSChunkPayload) {
	snap, err := h.svc.Analyze(ctx, service.AnalyzeRequest{
		SessionID: payload.SessionID,
		Text:      payload.Text,
		StartTime: payload.StartTime,
		EndTime:   payload.EndTime,
	})
	if err != nil {
		h.sendError(conn, "invalid_request", "Analysis failed: "+err.Error())
		return
	}

	h.sendResponse(conn, WSResponse{Type: "analysis", Payload: snap})
}

// sendResponse sends a response message via WebSocket
func (h *WebSocketHandler) sendResponse(conn *websocket.Conn, resp WSResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		h.logger.Error("WebSocket send error", "error", err)
	}
}

// sendError sends an error response via WebSocket
func (h *WebSocketHandler) sendError(conn *websocket.Conn, code, message string) {
	h.sendResponse(conn, WSResponse{
		Type: "error",
		Payload: WSErrorPayload{
			Code:    code,
			Message: message,
		},
	})
}
