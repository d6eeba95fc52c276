package handler

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yoonlab/speakwise/internal/analyzer"
	"github.com/yoonlab/speakwise/internal/service"
	"github.com/yoonlab/speakwise/internal/session"
)

func dialTestSocket(t *testing.T) *websocket.Conn {
	t.Helper()

	sessions := session.NewStore(analyzer.DefaultVocabulary(), 0)
	t.Cleanup(sessions.Close)

	svc := service.New(service.Config{
		Sessions:        sessions,
		Vocabulary:      analyzer.DefaultVocabulary(),
		Mode:            analyzer.ModeWords,
		Thresholds:      analyzer.DefaultThresholds(),
		Archive:         &memoryArchive{},
		FeedbackTimeout: time.Second,
	})

	srv := httptest.NewServer(NewWebSocketHandler(svc))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendMessage(t *testing.T, conn *websocket.Conn, msgType string, payload interface{}) WSResponse {
	t.Helper()

	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteJSON(WSMessage{Type: msgType, Payload: raw}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var resp WSResponse
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return resp
}

func TestWebSocketPing(t *testing.T) {
	conn := dialTestSocket(t)

	resp := sendMessage(t, conn, "ping", nil)
	if resp.Type != "pong" {
		t.Errorf("expected pong, got %s", resp.Type)
	}
}

func TestWebSocketChunkAnalysis(t *testing.T) {
	conn := dialTestSocket(t)

	resp := sendMessage(t, conn, "chunk", WSChunkPayload{
		SessionID: "live",
		Text:      "음 안녕 하세요",
		StartTime: ptr(0),
		EndTime:   ptr(30),
	})
	if resp.Type != "analysis" {
		t.Fatalf("expected analysis, got %s: %+v", resp.Type, resp.Payload)
	}

	raw, _ := json.Marshal(resp.Payload)
	var snap service.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		t.Fatalf("invalid analysis payload: %v", err)
	}
	if snap.WordCount != 3 {
		t.Errorf("expected word_count 3, got %d", snap.WordCount)
	}
	if snap.TotalFillers != 1 {
		t.Errorf("expected total_fillers 1, got %d", snap.TotalFillers)
	}
}

func TestWebSocketChunksAccumulate(t *testing.T) {
	conn := dialTestSocket(t)

	sendMessage(t, conn, "chunk", WSChunkPayload{SessionID: "live", Text: "음 안녕 하세요"})
	resp := sendMessage(t, conn, "chunk", WSChunkPayload{SessionID: "live", Text: "어 반갑 습니다"})

	raw, _ := json.Marshal(resp.Payload)
	var snap service.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		t.Fatal(err)
	}
	if snap.WordCount != 6 {
		t.Errorf("expected accumulated word_count 6, got %d", snap.WordCount)
	}
}

func TestWebSocketReset(t *testing.T) {
	conn := dialTestSocket(t)

	sendMessage(t, conn, "chunk", WSChunkPayload{SessionID: "live", Text: "안녕 하세요"})

	resp := sendMessage(t, conn, "reset", WSResetPayload{SessionID: "live"})
	if resp.Type != "reset" {
		t.Fatalf("expected reset ack, got %s", resp.Type)
	}

	after := sendMessage(t, conn, "chunk", WSChunkPayload{SessionID: "live", Text: "다시"})
	raw, _ := json.Marshal(after.Payload)
	var snap service.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		t.Fatal(err)
	}
	if snap.WordCount != 1 {
		t.Errorf("expected fresh session after reset, got %d", snap.WordCount)
	}
}

func TestWebSocketEmptyChunkRejected(t *testing.T) {
	conn := dialTestSocket(t)

	resp := sendMessage(t, conn, "chunk", WSChunkPayload{SessionID: "live", Text: "   "})
	if resp.Type != "error" {
		t.Errorf("expected error, got %s", resp.Type)
	}
}

func TestWebSocketUnknownType(t *testing.T) {
	conn := dialTestSocket(t)

	resp := sendMessage(t, conn, "bogus", nil)
	if resp.Type != "error" {
		t.Errorf("expected error, got %s", resp.Type)
	}
}
