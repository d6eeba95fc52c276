package feedback

import (
	"context"
)

// Analysis carries the metrics a provider turns into coaching feedback.
type Analysis struct {
	FullText       string
	Rate           float64
	RateMode       string
	RateFeedback   string
	FillerWords    map[string]int
	TotalFillers   int
	SpeechDuration float64
}

// Provider generates natural-language coaching feedback for an analysis
// result. Providers are slow, remote and untrusted; callers bound them
// with a context deadline and must treat failure as a degraded result,
// never as a request failure.
type Provider interface {
	Name() string
	GenerateFeedback(ctx context.Context, a *Analysis) (string, error)
}
