package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "speakwise",
	Short: "SpeakWise - Korean speech coaching analytics",
	Long: `SpeakWise analyzes Korean speech transcripts for presentation
coaching: speaking rate, filler word usage and AI-generated feedback.

Commands:
  serve    - Start the analysis API server
  monitor  - Live terminal dashboard for a practice session
  version  - Print version information`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ./configs/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
}
