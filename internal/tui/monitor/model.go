package monitor

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/yoonlab/speakwise/internal/service"
)

// Model is the Bubbletea model for the session monitor. It polls the
// SpeakWise API and renders the latest metrics of one session.
type Model struct {
	// State
	width   int
	height  int
	loading bool
	paused  bool
	err     error

	// Components
	spinner spinner.Model

	// Data
	snapshots    []*service.Snapshot
	serverStatus string
	lastFetch    time.Time
	notFound     bool

	// Configuration
	apiBase   string
	sessionID string
	client    *http.Client
}

// Config holds monitor configuration
type Config struct {
	APIBase   string
	SessionID string
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		APIBase:   "http://localhost:8080",
		SessionID: service.DefaultSessionID,
	}
}

// New creates a new monitor model
func New(cfg Config) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorPrimary)

	return Model{
		spinner:      sp,
		loading:      true,
		serverStatus: "unknown",
		apiBase:      strings.TrimSuffix(cfg.APIBase, "/"),
		sessionID:    cfg.SessionID,
		client:       &http.Client{Timeout: 5 * time.Second},
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.loadHistory,
		m.loadHealth,
		tea.EnterAltScreen,
		tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
			return tickMsg(t)
		}),
	)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			m.loading = true
			return m, tea.Batch(m.loadHistory, m.loadHealth)
		case "p", " ":
			m.paused = !m.paused
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case spinner.TickMsg:
		if m.loading {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case historyLoadedMsg:
		m.loading = false
		m.lastFetch = time.Now()
		m.notFound = msg.notFound
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
			m.snapshots = msg.snapshots
		}

	case healthLoadedMsg:
		if msg.err != nil {
			m.serverStatus = "unreachable"
		} else {
			m.serverStatus = msg.status
		}

	case tickMsg:
		if !m.paused {
			cmds = append(cmds, m.loadHistory, m.loadHealth)
		}
		cmds = append(cmds, tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
			return tickMsg(t)
		}))
	}

	return m, tea.Batch(cmds...)
}

// View renders the model
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("SpeakWise Session Monitor"))
	b.WriteString("\n")

	status := statusOKStyle.Render("● " + m.serverStatus)
	if m.serverStatus != "healthy" {
		status = statusErrorStyle.Render("● " + m.serverStatus)
	}
	b.WriteString(fmt.Sprintf("%s  %s  %s\n\n",
		labelStyle.Render("server:"), status,
		labelStyle.Render("session: ")+valueStyle.Render(m.sessionID),
	))

	switch {
	case m.loading && len(m.snapshots) == 0:
		b.WriteString(m.spinner.View() + " loading...\n")
	case m.err != nil:
		b.WriteString(statusErrorStyle.Render("error: "+m.err.Error()) + "\n")
	case m.notFound:
		b.WriteString(labelStyle.Render("No analysis history yet for this session.") + "\n")
	case len(m.snapshots) > 0:
		b.WriteString(m.renderLatest(m.snapshots[len(m.snapshots)-1]))
	}

	help := "q quit · r refresh · p pause"
	if m.paused {
		help = "q quit · r refresh · p resume (paused)"
	}
	b.WriteString(helpStyle.Render(help))

	return b.String()
}

// renderLatest renders the most recent snapshot plus history context
func (m Model) renderLatest(snap *service.Snapshot) string {
	rateStyle := idealStyle
	switch snap.RateBucket {
	case "slow":
		rateStyle = slowStyle
	case "fast":
		rateStyle = fastStyle
	}

	unit := "WPM"
	if snap.RateMode == "syllables" {
		unit = "SPM"
	}

	var rows []string
	rows = append(rows,
		labelStyle.Render("rate        ")+rateStyle.Render(fmt.Sprintf("%.1f %s (%s)", snap.Rate, unit, snap.RateBucket)),
		labelStyle.Render("words       ")+valueStyle.Render(fmt.Sprintf("%d", snap.WordCount)),
		labelStyle.Render("syllables   ")+valueStyle.Render(fmt.Sprintf("%d", snap.SyllableCount)),
		labelStyle.Render("duration    ")+valueStyle.Render(fmt.Sprintf("%.1fs", snap.SpeechDuration)),
		labelStyle.Render("fillers     ")+valueStyle.Render(fmt.Sprintf("%d  %s", snap.TotalFillers, formatFillers(snap.FillerWords))),
		labelStyle.Render("snapshots   ")+valueStyle.Render(fmt.Sprintf("%d", len(m.snapshots))),
	)
	if snap.RateFeedback != "" {
		rows = append(rows, "", valueStyle.Render(snap.RateFeedback))
	}
	if snap.AIFeedback != "" {
		rows = append(rows, "", labelStyle.Render(snap.AIFeedback))
	}

	return boxStyle.Render(strings.Join(rows, "\n")) + "\n"
}

// formatFillers renders the non-zero filler counts, most frequent first
func formatFillers(counts map[string]int) string {
	if len(counts) == 0 {
		return "-"
	}

	type pair struct {
		word  string
		count int
	}
	pairs := make([]pair, 0, len(counts))
	for w, c := range counts {
		pairs = append(pairs, pair{w, c})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].count != pairs[j].count {
			return pairs[i].count > pairs[j].count
		}
		return pairs[i].word < pairs[j].word
	})

	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = fmt.Sprintf("%s×%d", p.word, p.count)
	}
	return strings.Join(parts, " ")
}

// loadHistory fetches the session history from the API
func (m Model) loadHistory() tea.Msg {
	resp, err := m.client.Get(m.apiBase + "/api/session-history/" + m.sessionID)
	if err != nil {
		return historyLoadedMsg{err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return historyLoadedMsg{notFound: true}
	}
	if resp.StatusCode != http.StatusOK {
		return historyLoadedMsg{err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	var payload struct {
		History []*service.Snapshot `json:"history"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return historyLoadedMsg{err: err}
	}
	return historyLoadedMsg{snapshots: payload.History}
}

// loadHealth fetches the aggregated health status
func (m Model) loadHealth() tea.Msg {
	resp, err := m.client.Get(m.apiBase + "/healthz")
	if err != nil {
		return healthLoadedMsg{err: err}
	}
	defer resp.Body.Close()

	var payload struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return healthLoadedMsg{err: err}
	}
	return healthLoadedMsg{status: payload.Status}
}
