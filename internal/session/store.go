package session

import (
	"sync"
	"time"

	"github.com/yoonlab/speakwise/internal/analyzer"
	"github.com/yoonlab/speakwise/pkg/core/logging"
)

// Session holds the analyzer state for one client-identified conversation.
// Counts, tally and text accumulate across submissions to the same key;
// a reset discards the session entirely.
//
// Callers must hold the session lock across the whole read-modify-write
// of an update. Concurrent submissions to the same key are serialized by
// that lock; submissions to different keys never contend.
type Session struct {
	mu sync.Mutex

	Key           string
	WordCount     int
	SyllableCount int
	FullText      string
	Tally         analyzer.Tally
	StartedAt     time.Time
	EndedAt       time.Time
	LastRate      float64

	lastSeen time.Time
}

// Lock acquires the per-session update lock.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the per-session update lock.
func (s *Session) Unlock() { s.mu.Unlock() }

// Store is the process-wide session map. Sessions live in memory only;
// it is short-lived coordination state, not the system of record.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	vocab    *analyzer.Vocabulary
	logger   *logging.Logger

	ttl    time.Duration
	stopCh chan struct{}
	once   sync.Once
}

// NewStore creates a session store. Every new session starts with a tally
// zeroed for all vocabulary entries. A positive ttl starts a janitor that
// evicts sessions idle longer than ttl; ttl 0 disables eviction.
func NewStore(vocab *analyzer.Vocabulary, ttl time.Duration) *Store {
	s := &Store{
		sessions: make(map[string]*Session),
		vocab:    vocab,
		logger:   logging.New("session-store"),
		ttl:      ttl,
		stopCh:   make(chan struct{}),
	}

	if ttl > 0 {
		go s.janitor()
	}

	return s
}

// GetOrCreate returns the session for key, creating a fresh zero-state
// session the first time the key is seen.
func (s *Store) GetOrCreate(key string) *Session {
	now := time.Now()

	s.mu.RLock()
	sess, ok := s.sessions[key]
	s.mu.RUnlock()
	if ok {
		s.touch(sess, now)
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Re-check under the write lock.
	if sess, ok := s.sessions[key]; ok {
		sess.lastSeen = now
		return sess
	}

	sess = &Session{
		Key:      key,
		Tally:    analyzer.NewTally(s.vocab),
		lastSeen: now,
	}
	s.sessions[key] = sess
	s.logger.Debug("Session created", "session_id", key)
	return sess
}

// Get returns the session for key, or nil when unknown.
func (s *Store) Get(key string) *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[key]
}

// Reset removes the session for key. Removing an unknown key is a no-op.
func (s *Store) Reset(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[key]; ok {
		delete(s.sessions, key)
		s.logger.Debug("Session reset", "session_id", key)
	}
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close stops the janitor. Safe to call more than once.
func (s *Store) Close() {
	s.once.Do(func() { close(s.stopCh) })
}

func (s *Store) touch(sess *Session, now time.Time) {
	s.mu.Lock()
	sess.lastSeen = now
	s.mu.Unlock()
}

func (s *Store) janitor() {
	interval := s.ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.evictIdle(time.Now()); n > 0 {
				s.logger.Info("Evicted idle sessions", "count", n)
			}
		case <-s.stopCh:
			return
		}
	}
}

// evictIdle removes sessions whose last activity is older than the TTL
// and returns how many were removed.
func (s *Store) evictIdle(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for key, sess := range s.sessions {
		if now.Sub(sess.lastSeen) > s.ttl {
			delete(s.sessions, key)
			evicted++
		}
	}
	return evicted
}
