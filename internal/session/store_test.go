package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/yoonlab/speakwise/internal/analyzer"
)

func newTestStore(t *testing.T, ttl time.Duration) *Store {
	t.Helper()
	s := NewStore(analyzer.DefaultVocabulary(), ttl)
	t.Cleanup(s.Close)
	return s
}

func TestGetOrCreate(t *testing.T) {
	store := newTestStore(t, 0)

	sess := store.GetOrCreate("alpha")
	if sess == nil {
		t.Fatal("expected session")
	}
	if sess.Key != "alpha" {
		t.Errorf("expected key 'alpha', got %q", sess.Key)
	}
	if sess.WordCount != 0 || sess.FullText != "" {
		t.Error("expected zero-state session")
	}
	if sess.Tally.Total() != 0 {
		t.Error("expected zeroed tally")
	}
	if sess.Tally.Get("음") != 0 {
		t.Error("expected vocabulary entries to be tracked from creation")
	}

	// Second lookup returns the same reference.
	if store.GetOrCreate("alpha") != sess {
		t.Error("expected the existing session reference")
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 session, got %d", store.Len())
	}
}

func TestReset(t *testing.T) {
	store := newTestStore(t, 0)

	store.GetOrCreate("alpha")
	store.Reset("alpha")
	if store.Len() != 0 {
		t.Errorf("expected 0 sessions after reset, got %d", store.Len())
	}

	// Resetting an unknown key is a no-op, not an error.
	store.Reset("never-seen")
	store.Reset("alpha")

	// A new session after reset starts from zero.
	sess := store.GetOrCreate("alpha")
	if sess.WordCount != 0 {
		t.Error("expected fresh session after reset")
	}
}

func TestGetUnknown(t *testing.T) {
	store := newTestStore(t, 0)
	if store.Get("missing") != nil {
		t.Error("expected nil for unknown key")
	}
}

func TestEvictIdle(t *testing.T) {
	store := newTestStore(t, time.Minute)

	old := store.GetOrCreate("old")
	store.GetOrCreate("fresh")

	// Age one session past the TTL.
	store.mu.Lock()
	old.lastSeen = time.Now().Add(-2 * time.Minute)
	store.mu.Unlock()

	if n := store.evictIdle(time.Now()); n != 1 {
		t.Errorf("expected 1 eviction, got %d", n)
	}
	if store.Get("old") != nil {
		t.Error("expected idle session to be evicted")
	}
	if store.Get("fresh") == nil {
		t.Error("expected fresh session to survive")
	}
}

func TestActivityDefersEviction(t *testing.T) {
	store := newTestStore(t, time.Minute)

	sess := store.GetOrCreate("busy")
	store.mu.Lock()
	sess.lastSeen = time.Now().Add(-2 * time.Minute)
	store.mu.Unlock()

	// A lookup counts as activity and refreshes the idle clock.
	store.GetOrCreate("busy")

	if n := store.evictIdle(time.Now()); n != 0 {
		t.Errorf("expected no evictions after activity, got %d", n)
	}
}

func TestConcurrentGetOrCreate(t *testing.T) {
	store := newTestStore(t, 0)

	var wg sync.WaitGroup
	results := make([]*Session, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = store.GetOrCreate("shared")
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(results); i++ {
		if results[i] != results[0] {
			t.Fatal("concurrent GetOrCreate returned different sessions for one key")
		}
	}
	if store.Len() != 1 {
		t.Errorf("expected exactly 1 session, got %d", store.Len())
	}
}

func TestConcurrentDistinctKeys(t *testing.T) {
	store := newTestStore(t, 0)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sess := store.GetOrCreate(fmt.Sprintf("key-%d", i))
			sess.Lock()
			sess.WordCount++
			sess.Unlock()
		}(i)
	}
	wg.Wait()

	if store.Len() != 16 {
		t.Errorf("expected 16 sessions, got %d", store.Len())
	}
}
