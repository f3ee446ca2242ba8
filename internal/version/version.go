// Package version holds the tracker's build identity, injected with
// -ldflags "-X blob-tracker/internal/version.Version=...".
package version

import "fmt"

var (
	Version   = "0.3.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String formats the version for startup logs, e.g. "v0.3.0 (abc123, 2026-10-15)".
func String() string {
	return fmt.Sprintf("v%s (%s, %s)", Version, GitCommit, BuildTime)
}
