package monitor

import (
	"time"

	"github.com/yoonlab/speakwise/internal/service"
)

// Message types for tea.Cmd async operations

// historyLoadedMsg is sent when session history has been fetched
type historyLoadedMsg struct {
	snapshots []*service.Snapshot
	notFound  bool
	err       error
}

// healthLoadedMsg is sent when the health report has been fetched
type healthLoadedMsg struct {
	status string
	err    error
}

// tickMsg drives the periodic refresh
type tickMsg time.Time
