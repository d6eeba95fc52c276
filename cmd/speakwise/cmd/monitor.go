package cmd

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/yoonlab/speakwise/internal/service"
	"github.com/yoonlab/speakwise/internal/tui/monitor"
)

var (
	monitorAPIBase   string
	monitorSessionID string
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live terminal dashboard for a practice session",
	Long: `Starts an interactive terminal dashboard that polls the SpeakWise
API and shows the current metrics of one practice session:

  - Speaking rate with classification
  - Word and syllable counts
  - Filler word tally
  - Latest coaching feedback

Keys:
  r           Refresh
  p / Space   Pause/Resume polling
  q / Ctrl+C  Quit`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)

	monitorCmd.Flags().StringVar(&monitorAPIBase, "api", "http://localhost:8080",
		"Base URL of the SpeakWise API")
	monitorCmd.Flags().StringVar(&monitorSessionID, "session", service.DefaultSessionID,
		"Session id to monitor")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	model := monitor.New(monitor.Config{
		APIBase:   monitorAPIBase,
		SessionID: monitorSessionID,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
