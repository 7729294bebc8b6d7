// Package version holds build-time version information for semdiff.
package version

import (
	"fmt"
	"runtime"
)

// Set with -ldflags "-X semdiff/internal/version.Version=1.0.0 -X semdiff/internal/version.Commit=$(git rev-parse HEAD)".
var (
	Version   = "0.4.0"
	Commit    = "unknown"
	BuildDate = "unknown"
)

const shortCommit = 7

// Info is the version followed by the abbreviated commit when one is known.
func Info() string {
	if Commit == "unknown" || len(Commit) <= shortCommit {
		return Version
	}
	return fmt.Sprintf("%s (%s)", Version, Commit[:shortCommit])
}

// Full is the multi-line output of the version command.
func Full() string {
	return fmt.Sprintf("semdiff version %s\nCommit: %s\nBuilt: %s\nGo: %s",
		Version, Commit, BuildDate, runtime.Version())
}
