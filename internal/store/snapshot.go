package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Record is an archived analysis snapshot. Payload holds the snapshot
// JSON exactly as it was returned to the client; ID is an opaque string
// identifier assigned by the caller before insert.
type Record struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
	Payload   []byte    `json:"payload"`
}

// SnapshotStore defines the interface for snapshot persistence
type SnapshotStore interface {
	Insert(ctx context.Context, rec *Record) error
	FindBySessionID(ctx context.Context, sessionID string) ([]*Record, error)
	Close() error
	Statistics(ctx context.Context) (map[string]interface{}, error)
}

// SQLiteSnapshotStore implements SnapshotStore using SQLite
type SQLiteSnapshotStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// SQLiteSnapshotConfig holds configuration for the SQLite store
type SQLiteSnapshotConfig struct {
	Path string
}

// DefaultSnapshotConfig returns default configuration
func DefaultSnapshotConfig() SQLiteSnapshotConfig {
	return SQLiteSnapshotConfig{
		Path: "./data/snapshots.db",
	}
}

// NewSQLiteSnapshotStore creates a new SQLite-based snapshot store
func NewSQLiteSnapshotStore(cfg SQLiteSnapshotConfig) (*SQLiteSnapshotStore, error) {
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteSnapshotStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the necessary tables
func (s *SQLiteSnapshotStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		payload TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_session
		ON snapshots(session_id, created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Insert stores a snapshot record
func (s *SQLiteSnapshotStore) Insert(ctx context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		return fmt.Errorf("record ID is required")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, session_id, created_at, payload) VALUES (?, ?, ?, ?)`,
		rec.ID, rec.SessionID, rec.CreatedAt, string(rec.Payload),
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return nil
}

// FindBySessionID returns all snapshots for a session, oldest first.
// An unknown session yields an empty slice, not an error.
func (s *SQLiteSnapshotStore) FindBySessionID(ctx context.Context, sessionID string) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, created_at, payload FROM snapshots
		 WHERE session_id = ? ORDER BY created_at ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec := &Record{}
		var payload string
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.CreatedAt, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		rec.Payload = []byte(payload)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Statistics returns store statistics
func (s *SQLiteSnapshotStore) Statistics(ctx context.Context) (map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]interface{})

	var snapshotCount, sessionCount int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots`).Scan(&snapshotCount); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT session_id) FROM snapshots`).Scan(&sessionCount); err != nil {
		return nil, err
	}

	stats["snapshots"] = snapshotCount
	stats["sessions"] = sessionCount
	return stats, nil
}

// Ping verifies the database connection, used by health checks.
func (s *SQLiteSnapshotStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database
func (s *SQLiteSnapshotStore) Close() error {
	return s.db.Close()
}
