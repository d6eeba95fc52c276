package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestStore(t *testing.T) *SQLiteSnapshotStore {
	t.Helper()
	s, err := NewSQLiteSnapshotStore(SQLiteSnapshotConfig{
		Path: filepath.Join(t.TempDir(), "snapshots.db"),
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInsertAndFind(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := &Record{
		ID:        uuid.NewString(),
		SessionID: "alpha",
		CreatedAt: time.Now().Add(-time.Minute),
		Payload:   []byte(`{"word_count":6}`),
	}
	second := &Record{
		ID:        uuid.NewString(),
		SessionID: "alpha",
		Payload:   []byte(`{"word_count":12}`),
	}

	if err := s.Insert(ctx, first); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := s.Insert(ctx, second); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	records, err := s.FindBySessionID(ctx, "alpha")
	if err != nil {
		t.Fatalf("FindBySessionID failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	// Oldest first.
	if records[0].ID != first.ID {
		t.Errorf("expected oldest record first, got %s", records[0].ID)
	}
	if string(records[1].Payload) != `{"word_count":12}` {
		t.Errorf("unexpected payload: %s", records[1].Payload)
	}
}

func TestFindUnknownSession(t *testing.T) {
	s := newTestStore(t)

	records, err := s.FindBySessionID(context.Background(), "never-seen")
	if err != nil {
		t.Fatalf("FindBySessionID failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
}

func TestInsertRequiresID(t *testing.T) {
	s := newTestStore(t)

	err := s.Insert(context.Background(), &Record{SessionID: "alpha", Payload: []byte(`{}`)})
	if err == nil {
		t.Error("expected error for record without ID")
	}
}

func TestStatistics(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, sessionID := range []string{"alpha", "alpha", "beta"} {
		rec := &Record{ID: uuid.NewString(), SessionID: sessionID, Payload: []byte(`{}`)}
		if err := s.Insert(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := s.Statistics(ctx)
	if err != nil {
		t.Fatalf("Statistics failed: %v", err)
	}
	if stats["snapshots"] != 3 {
		t.Errorf("expected 3 snapshots, got %v", stats["snapshots"])
	}
	if stats["sessions"] != 2 {
		t.Errorf("expected 2 sessions, got %v", stats["sessions"])
	}
}
