package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// Status represents the health status of a component
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

// CheckResult represents the result of a single health check
type CheckResult struct {
	Name     string        `json:"name"`
	Status   Status        `json:"status"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration_ns,omitempty"`
}

// CheckFunc runs a single health check
type CheckFunc func(ctx context.Context) CheckResult

// Report is the aggregated result of all registered checks
type Report struct {
	Service string        `json:"service"`
	Version string        `json:"version"`
	Status  Status        `json:"status"`
	Uptime  string        `json:"uptime"`
	Checks  []CheckResult `json:"checks"`
}

// Registry manages named health checks for a service
type Registry struct {
	mu      sync.RWMutex
	checks  map[string]CheckFunc
	order   []string
	service string
	version string
	startAt time.Time
}

// NewRegistry creates a new health check registry
func NewRegistry(service, version string) *Registry {
	return &Registry{
		checks:  make(map[string]CheckFunc),
		service: service,
		version: version,
		startAt: time.Now(),
	}
}

// RegisterFunc adds a named check to the registry
func (r *Registry) RegisterFunc(name string, fn CheckFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.checks[name]; !exists {
		r.order = append(r.order, name)
	}
	r.checks[name] = fn
}

// Run executes all registered checks and aggregates the result. The
// overall status is unhealthy if any check is unhealthy, degraded if any
// check is degraded, healthy otherwise.
func (r *Registry) Run(ctx context.Context) Report {
	r.mu.RLock()
	names := append([]string(nil), r.order...)
	checks := make(map[string]CheckFunc, len(r.checks))
	for k, v := range r.checks {
		checks[k] = v
	}
	r.mu.RUnlock()

	report := Report{
		Service: r.service,
		Version: r.version,
		Status:  StatusHealthy,
		Uptime:  time.Since(r.startAt).Round(time.Second).String(),
	}

	for _, name := range names {
		start := time.Now()
		result := checks[name](ctx)
		result.Name = name
		result.Duration = time.Since(start)
		report.Checks = append(report.Checks, result)

		switch result.Status {
		case StatusUnhealthy:
			report.Status = StatusUnhealthy
		case StatusDegraded:
			if report.Status == StatusHealthy {
				report.Status = StatusDegraded
			}
		}
	}

	return report
}

// Handler returns an HTTP handler serving the aggregated report as JSON.
// Unhealthy reports are served with status 503.
func (r *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 5*time.Second)
		defer cancel()

		report := r.Run(ctx)

		status := http.StatusOK
		if report.Status == StatusUnhealthy {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(report)
	})
}
