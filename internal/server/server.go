package server

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/yoonlab/speakwise/internal/handler"
	"github.com/yoonlab/speakwise/internal/service"
	"github.com/yoonlab/speakwise/pkg/core/health"
	"github.com/yoonlab/speakwise/pkg/core/logging"
)

// Pinger verifies a backing store connection, used by health checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the SpeakWise HTTP server
type Server struct {
	httpServer *http.Server
	handler    *handler.Handler
	svc        *service.Service
	health     *health.Registry
	logger     *logging.Logger
	config     Config
}

// Config holds server configuration
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Version      string
}

// DefaultConfig returns default server configuration
func DefaultConfig() Config {
	return Config{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		Version:      "1.0.0",
	}
}

// New creates a new SpeakWise server. archive may be nil when no
// persistent store is configured; feedbackConfigured reflects whether an
// AI feedback provider is wired.
func New(cfg Config, svc *service.Service, archive Pinger, feedbackConfigured bool) (*Server, error) {
	logger := logging.New("http-server")

	h := handler.NewHandler(cfg.Version, svc)
	wsHandler := handler.NewWebSocketHandler(svc)

	healthRegistry := health.NewRegistry("speakwise", cfg.Version)
	healthRegistry.RegisterFunc("http", func(ctx context.Context) health.CheckResult {
		return health.CheckResult{
			Status:  health.StatusHealthy,
			Message: "HTTP server is running",
		}
	})
	healthRegistry.RegisterFunc("sessions", func(ctx context.Context) health.CheckResult {
		return health.CheckResult{
			Status:  health.StatusHealthy,
			Message: fmt.Sprintf("%d live sessions", svc.SessionCount()),
		}
	})
	if archive != nil {
		healthRegistry.RegisterFunc("archive", func(ctx context.Context) health.CheckResult {
			if err := archive.Ping(ctx); err != nil {
				return health.CheckResult{
					Status:  health.StatusUnhealthy,
					Message: "Snapshot store unreachable: " + err.Error(),
				}
			}
			return health.CheckResult{
				Status:  health.StatusHealthy,
				Message: "Snapshot store reachable",
			}
		})
	}
	healthRegistry.RegisterFunc("feedback", func(ctx context.Context) health.CheckResult {
		if !feedbackConfigured {
			return health.CheckResult{
				Status:  health.StatusDegraded,
				Message: "No AI feedback provider configured",
			}
		}
		return health.CheckResult{
			Status:  health.StatusHealthy,
			Message: "Feedback provider configured",
		}
	})

	mux := http.NewServeMux()

	// WebSocket route
	mux.Handle("/api/live", wsHandler)

	// Health route
	mux.Handle("/healthz", healthRegistry.Handler())

	// API routes
	mux.Handle("/", h)
	mux.Handle("/api/", h)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      loggingMiddleware(logger, mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Server{
		httpServer: httpServer,
		handler:    h,
		svc:        svc,
		health:     healthRegistry,
		logger:     logger,
		config:     cfg,
	}, nil
}

// loggingMiddleware adds request logging
func loggingMiddleware(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap response writer to capture status code
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		logger.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapper.statusCode,
			"duration", time.Since(start),
		)
	})
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWrapper) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack implements http.Hijacker so WebSocket upgrades work behind the
// logging middleware.
func (w *responseWrapper) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hijacker.Hijack()
}

// Start starts the server
func (s *Server) Start() error {
	s.logger.Info("Starting SpeakWise API",
		"host", s.config.Host,
		"port", s.config.Port,
	)
	return s.httpServer.ListenAndServe()
}

// StartAsync starts the server asynchronously
func (s *Server) StartAsync() error {
	s.logger.Info("Starting SpeakWise API (async)",
		"host", s.config.Host,
		"port", s.config.Port,
	)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", "error", err)
		}
	}()

	return nil
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping SpeakWise API")
	return s.httpServer.Shutdown(ctx)
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// HealthRegistry returns the health check registry
func (s *Server) HealthRegistry() *health.Registry {
	return s.health
}
