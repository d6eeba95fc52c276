package version

import "fmt"

// Set via -ldflags at build time.
var (
	Version   = "1.0.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns a human-readable version string.
func Info() string {
	return fmt.Sprintf("speakwise %s (commit %s, built %s)", Version, GitCommit, BuildDate)
}
