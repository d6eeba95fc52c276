package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/yoonlab/speakwise/internal/analyzer"
	"github.com/yoonlab/speakwise/internal/service"
	"github.com/yoonlab/speakwise/internal/session"
	"github.com/yoonlab/speakwise/internal/store"
	"github.com/yoonlab/speakwise/pkg/core/health"
	"github.com/yoonlab/speakwise/pkg/core/logging"
)

type fakePinger struct{ err error }

func (p *fakePinger) Ping(ctx context.Context) error { return p.err }

type nullArchive struct{}

func (nullArchive) Insert(ctx context.Context, rec *store.Record) error { return nil }
func (nullArchive) FindBySessionID(ctx context.Context, sessionID string) ([]*store.Record, error) {
	return nil, nil
}

func newTestServer(t *testing.T, archive Pinger, feedbackConfigured bool) *Server {
	t.Helper()

	sessions := session.NewStore(analyzer.DefaultVocabulary(), 0)
	t.Cleanup(sessions.Close)

	svc := service.New(service.Config{
		Sessions:   sessions,
		Vocabulary: analyzer.DefaultVocabulary(),
		Mode:       analyzer.ModeWords,
		Thresholds: analyzer.DefaultThresholds(),
		Archive:    nullArchive{},
	})

	srv, err := New(DefaultConfig(), svc, archive, feedbackConfigured)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return srv
}

func TestHealthReportHealthy(t *testing.T) {
	srv := newTestServer(t, &fakePinger{}, true)

	report := srv.HealthRegistry().Run(context.Background())
	if report.Status != health.StatusHealthy {
		t.Errorf("expected healthy, got %s: %+v", report.Status, report.Checks)
	}
	if len(report.Checks) != 4 {
		t.Errorf("expected 4 checks, got %d", len(report.Checks))
	}
}

func TestHealthReportDegradedWithoutFeedback(t *testing.T) {
	srv := newTestServer(t, &fakePinger{}, false)

	report := srv.HealthRegistry().Run(context.Background())
	if report.Status != health.StatusDegraded {
		t.Errorf("expected degraded, got %s", report.Status)
	}
}

func TestHealthReportUnhealthyArchive(t *testing.T) {
	srv := newTestServer(t, &fakePinger{err: errors.New("connection refused")}, true)

	report := srv.HealthRegistry().Run(context.Background())
	if report.Status != health.StatusUnhealthy {
		t.Errorf("expected unhealthy, got %s", report.Status)
	}
}

func TestHealthChecksSkipNilArchive(t *testing.T) {
	srv := newTestServer(t, nil, true)

	report := srv.HealthRegistry().Run(context.Background())
	for _, check := range report.Checks {
		if check.Name == "archive" {
			t.Error("archive check must not be registered without a store")
		}
	}
}

func TestAddress(t *testing.T) {
	srv := newTestServer(t, nil, false)

	if srv.Address() != "0.0.0.0:8080" {
		t.Errorf("unexpected address: %s", srv.Address())
	}
}

func TestLoggingMiddlewareCapturesStatus(t *testing.T) {
	logger := logging.New("test")

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/analyze", nil)

	start := time.Now()
	loggingMiddleware(logger, inner).ServeHTTP(rec, req)
	if time.Since(start) > time.Second {
		t.Error("middleware must not block")
	}
	if rec.Code != http.StatusTeapot {
		t.Errorf("expected status passthrough, got %d", rec.Code)
	}
}
