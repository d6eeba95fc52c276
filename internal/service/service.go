package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yoonlab/speakwise/internal/analyzer"
	"github.com/yoonlab/speakwise/internal/feedback"
	"github.com/yoonlab/speakwise/internal/session"
	"github.com/yoonlab/speakwise/internal/store"
	"github.com/yoonlab/speakwise/pkg/core/logging"
)

// DefaultSessionID is used when a client does not supply a session key.
const DefaultSessionID = "default"

// Feedback is only requested for submissions with at least this many
// accumulated words; shorter sessions get a fixed message instead.
const minFeedbackWords = 10

const (
	msgFeedbackTooShort    = "AI 피드백을 생성하기에는 발화 내용이 너무 짧습니다. 조금 더 말씀해주세요."
	msgFeedbackFailed      = "AI 피드백을 생성하는 중 오류가 발생했습니다."
	msgFeedbackUnavailable = "AI 피드백 기능이 설정되어 있지 않습니다."
)

// Validation and lookup errors surfaced to the transport layer.
var (
	ErrEmptyText = errors.New("empty text after trimming")
	ErrNoHistory = errors.New("no analysis history for session")
)

// Archive persists snapshots. Persistence failure must never fail an
// analyze request.
type Archive interface {
	Insert(ctx context.Context, rec *store.Record) error
	FindBySessionID(ctx context.Context, sessionID string) ([]*store.Record, error)
}

// ObjectArchive uploads snapshot JSON to an external object store.
type ObjectArchive interface {
	PutSnapshot(ctx context.Context, sessionID, id string, data []byte) (string, error)
}

// AnalyzeRequest is one transcript submission.
type AnalyzeRequest struct {
	SessionID    string
	Text         string
	WantFeedback bool
	// Optional client-supplied timing hints, Unix seconds. Nil means
	// "use the server clock".
	StartTime *float64
	EndTime   *float64
}

// Snapshot is the computed result of one analyze call.
type Snapshot struct {
	ID             string         `json:"id"`
	SessionID      string         `json:"session_id"`
	FullText       string         `json:"full_text"`
	WordCount      int            `json:"word_count"`
	SyllableCount  int            `json:"syllable_count"`
	Rate           float64        `json:"rate"`
	RateMode       string         `json:"rate_mode"`
	RateBucket     string         `json:"rate_bucket"`
	RateFeedback   string         `json:"rate_feedback"`
	FillerWords    map[string]int `json:"filler_words"`
	TotalFillers   int            `json:"total_fillers"`
	SpeechDuration float64        `json:"speech_duration"`
	LastUpdated    time.Time      `json:"last_updated"`
	AIFeedback     string         `json:"ai_feedback,omitempty"`
	ArchiveURL     string         `json:"archive_url,omitempty"`
}

// Config wires the analysis service.
type Config struct {
	Sessions        *session.Store
	Vocabulary      *analyzer.Vocabulary
	Mode            analyzer.Mode
	Thresholds      analyzer.Thresholds
	Provider        feedback.Provider // nil when no API key is configured
	Archive         Archive
	Objects         ObjectArchive // nil when the capability is absent
	FeedbackTimeout time.Duration
}

// Service implements the per-request analysis protocol over the session
// store, the metrics engine and the external collaborators.
type Service struct {
	sessions        *session.Store
	vocab           *analyzer.Vocabulary
	mode            analyzer.Mode
	thresholds      analyzer.Thresholds
	provider        feedback.Provider
	archive         Archive
	objects         ObjectArchive
	feedbackTimeout time.Duration
	logger          *logging.Logger
}

// New creates the analysis service.
func New(cfg Config) *Service {
	if cfg.FeedbackTimeout == 0 {
		cfg.FeedbackTimeout = 30 * time.Second
	}
	return &Service{
		sessions:        cfg.Sessions,
		vocab:           cfg.Vocabulary,
		mode:            cfg.Mode,
		thresholds:      cfg.Thresholds,
		provider:        cfg.Provider,
		archive:         cfg.Archive,
		objects:         cfg.Objects,
		feedbackTimeout: cfg.FeedbackTimeout,
		logger:          logging.New("analysis-service"),
	}
}

// Analyze runs one submission through the session update protocol and
// returns the resulting snapshot. Collaborator faults degrade the
// snapshot but never fail the request; only empty input is rejected.
func (s *Service) Analyze(ctx context.Context, req AnalyzeRequest) (*Snapshot, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, ErrEmptyText
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = DefaultSessionID
	}

	sess := s.sessions.GetOrCreate(sessionID)

	now := time.Now()
	tokens := analyzer.Tokenize(text)

	sess.Lock()

	if sess.StartedAt.IsZero() {
		if req.StartTime != nil {
			sess.StartedAt = timeFromUnixSeconds(*req.StartTime)
		} else {
			sess.StartedAt = now
		}
	}
	if req.EndTime != nil {
		sess.EndedAt = timeFromUnixSeconds(*req.EndTime)
	} else {
		sess.EndedAt = now
	}

	// Counts, tally and text accumulate across submissions.
	sess.WordCount += len(tokens)
	sess.SyllableCount += analyzer.CountSyllables(text)
	if sess.FullText == "" {
		sess.FullText = text
	} else {
		sess.FullText += " " + text
	}
	sess.Tally.Count(tokens, s.vocab)

	elapsed := analyzer.ClampElapsed(sess.EndedAt.Sub(sess.StartedAt).Seconds())

	units := sess.WordCount
	if s.mode == analyzer.ModeSyllables {
		units = sess.SyllableCount
	}
	rate := analyzer.ComputeRate(units, elapsed)
	bucket, rateFeedback := analyzer.ClassifyRate(rate, s.thresholds)
	sess.LastRate = rate

	snap := &Snapshot{
		ID:             uuid.NewString(),
		SessionID:      sessionID,
		FullText:       sess.FullText,
		WordCount:      sess.WordCount,
		SyllableCount:  sess.SyllableCount,
		Rate:           round2(rate),
		RateMode:       string(s.mode),
		RateBucket:     string(bucket),
		RateFeedback:   rateFeedback,
		FillerWords:    sess.Tally.Used(),
		TotalFillers:   sess.Tally.Total(),
		SpeechDuration: round2(elapsed),
		LastUpdated:    now,
	}

	sess.Unlock()

	if req.WantFeedback {
		snap.AIFeedback = s.generateFeedback(ctx, snap)
	}

	s.persist(ctx, snap)

	return snap, nil
}

// generateFeedback invokes the feedback provider with a bounded context.
// Every failure path yields a fixed message rather than an error.
func (s *Service) generateFeedback(ctx context.Context, snap *Snapshot) string {
	if snap.WordCount < minFeedbackWords {
		return msgFeedbackTooShort
	}
	if s.provider == nil {
		s.logger.Warn("Feedback requested but no provider configured", "session_id", snap.SessionID)
		return msgFeedbackUnavailable
	}

	fctx, cancel := context.WithTimeout(ctx, s.feedbackTimeout)
	defer cancel()

	text, err := s.provider.GenerateFeedback(fctx, &feedback.Analysis{
		FullText:       snap.FullText,
		Rate:           snap.Rate,
		RateMode:       snap.RateMode,
		RateFeedback:   snap.RateFeedback,
		FillerWords:    snap.FillerWords,
		TotalFillers:   snap.TotalFillers,
		SpeechDuration: snap.SpeechDuration,
	})
	if err != nil {
		s.logger.Error("Feedback generation failed",
			"session_id", snap.SessionID,
			"provider", s.provider.Name(),
			"error", err,
		)
		return msgFeedbackFailed
	}
	return text
}

// persist uploads and archives the snapshot. Both collaborators fail
// soft: the snapshot is returned to the client either way.
func (s *Service) persist(ctx context.Context, snap *Snapshot) {
	if s.objects != nil {
		data, err := json.MarshalIndent(snap, "", "  ")
		if err == nil {
			url, uerr := s.objects.PutSnapshot(ctx, snap.SessionID, snap.ID, data)
			if uerr != nil {
				s.logger.Warn("Object store upload failed", "session_id", snap.SessionID, "error", uerr)
			} else {
				snap.ArchiveURL = url
			}
		}
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		s.logger.Error("Failed to marshal snapshot", "error", err)
		return
	}

	rec := &store.Record{
		ID:        snap.ID,
		SessionID: snap.SessionID,
		CreatedAt: snap.LastUpdated,
		Payload:   payload,
	}
	if err := s.archive.Insert(ctx, rec); err != nil {
		s.logger.Error("Snapshot archive failed, returning unpersisted snapshot",
			"session_id", snap.SessionID,
			"error", err,
		)
	}
}

// Reset discards the in-memory session state for a key. Unknown keys are
// a no-op; the operation is idempotent.
func (s *Service) Reset(sessionID string) {
	if sessionID == "" {
		sessionID = DefaultSessionID
	}
	s.sessions.Reset(sessionID)
}

// History returns all archived snapshots for a session, oldest first.
// Returns ErrNoHistory when the session was never persisted.
func (s *Service) History(ctx context.Context, sessionID string) ([]*Snapshot, error) {
	records, err := s.archive.FindBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("history query failed: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNoHistory
	}

	snaps := make([]*Snapshot, 0, len(records))
	for _, rec := range records {
		var snap Snapshot
		if err := json.Unmarshal(rec.Payload, &snap); err != nil {
			s.logger.Warn("Skipping malformed archived snapshot", "id", rec.ID, "error", err)
			continue
		}
		snaps = append(snaps, &snap)
	}
	return snaps, nil
}

// FillerWords returns the configured vocabulary in definition order.
func (s *Service) FillerWords() []string {
	return s.vocab.Words()
}

// SessionCount reports live in-memory sessions, used by health checks.
func (s *Service) SessionCount() int {
	return s.sessions.Len()
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func timeFromUnixSeconds(sec float64) time.Time {
	return time.Unix(0, int64(sec*float64(time.Second)))
}
