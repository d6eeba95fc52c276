package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/yoonlab/speakwise/internal/analyzer"
	"github.com/yoonlab/speakwise/internal/feedback"
	"github.com/yoonlab/speakwise/internal/objstore"
	"github.com/yoonlab/speakwise/internal/server"
	"github.com/yoonlab/speakwise/internal/service"
	"github.com/yoonlab/speakwise/internal/session"
	"github.com/yoonlab/speakwise/internal/store"
	"github.com/yoonlab/speakwise/pkg/core/config"
	"github.com/yoonlab/speakwise/pkg/core/logging"
	"github.com/yoonlab/speakwise/pkg/core/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the analysis API server",
	Long: `Starts the SpeakWise HTTP server.

Endpoints:
  POST /api/analyze                      - Analyze a transcript submission
  POST /api/reset-session                - Reset a practice session
  GET  /api/filler-words                 - List the filler vocabulary
  GET  /api/session-history/{session_id} - Archived analysis snapshots
  WS   /api/live                         - Live transcript analysis
  GET  /healthz                          - Health report

Configuration is read from --config, SPEAKWISE_CONFIG or the default
locations; environment variables override file values.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if verbose {
		cfg.General.LogLevel = "debug"
	}
	logging.Configure(cfg.General.LogLevel, cfg.General.LogFormat)
	logger := logging.New("speakwise")
	logger.Info("Starting SpeakWise", "version", version.Version, "environment", cfg.General.Environment)

	// Filler vocabulary
	vocab := analyzer.DefaultVocabulary()
	if cfg.Metrics.VocabularyFile != "" {
		vocab, err = analyzer.LoadVocabulary(cfg.Metrics.VocabularyFile)
		if err != nil {
			return fmt.Errorf("failed to load vocabulary: %w", err)
		}
		logger.Info("Loaded filler vocabulary", "file", cfg.Metrics.VocabularyFile, "words", vocab.Len())
	}

	// In-memory session store with idle eviction
	sessions := session.NewStore(vocab, cfg.Session.TTL.Duration)
	defer sessions.Close()

	// Snapshot archive
	archive, err := store.NewSQLiteSnapshotStore(store.SQLiteSnapshotConfig{Path: cfg.Store.Path})
	if err != nil {
		return fmt.Errorf("failed to open snapshot store: %w", err)
	}
	defer archive.Close()
	logger.Info("Snapshot store ready", "path", cfg.Store.Path)

	// AI feedback provider, optional
	var provider feedback.Provider
	if cfg.Feedback.APIKey != "" {
		gemini, err := feedback.NewGeminiProvider(feedback.GeminiConfig{
			APIKey:  cfg.Feedback.APIKey,
			BaseURL: cfg.Feedback.BaseURL,
			Model:   cfg.Feedback.Model,
			Timeout: cfg.Feedback.Timeout.Duration,
		})
		if err != nil {
			return fmt.Errorf("failed to create feedback provider: %w", err)
		}
		provider = gemini
		logger.Info("Feedback provider configured", "provider", gemini.Name(), "model", cfg.Feedback.Model)
	} else {
		logger.Warn("No GOOGLE_API_KEY set, AI feedback disabled")
	}

	// Object store archive, optional
	objects, err := objstore.New(cfg.ObjectStore)
	if err != nil {
		return fmt.Errorf("failed to create object store client: %w", err)
	}
	if objects != nil {
		logger.Info("Object store archive enabled", "endpoint", cfg.ObjectStore.Endpoint, "bucket", cfg.ObjectStore.Bucket)
	}

	svcCfg := service.Config{
		Sessions:   sessions,
		Vocabulary: vocab,
		Mode:       analyzer.ParseMode(cfg.Metrics.Mode),
		Thresholds: analyzer.Thresholds{
			Slow:  cfg.Metrics.SlowThreshold,
			Ideal: cfg.Metrics.IdealRate,
			Fast:  cfg.Metrics.FastThreshold,
		},
		Provider:        provider,
		Archive:         archive,
		FeedbackTimeout: cfg.Feedback.Timeout.Duration,
	}
	if objects != nil {
		svcCfg.Objects = objects
	}
	svc := service.New(svcCfg)

	srv, err := server.New(server.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
		Version:      version.Version,
	}, svc, archive, provider != nil)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	if err := srv.StartAsync(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	logger.Info("SpeakWise started", "address", srv.Address(), "mode", cfg.Metrics.Mode)

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("Shutdown signal received, stopping server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Stop(ctx); err != nil {
		logger.Error("Error during shutdown", "error", err)
	}

	logger.Info("SpeakWise stopped")
	return nil
}

func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.Load(cfgFile)
	}
	return config.LoadFromEnv()
}
