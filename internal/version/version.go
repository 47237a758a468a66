// Package version carries build metadata injected through -ldflags.
package version

import "fmt"

var (
	// Version is the current application version.
	Version = "v0.1.0-dev"

	// Commit is the git short hash of the build.
	Commit = "unknown"

	// Date is the build timestamp.
	Date = "unknown"
)

// String renders the build line printed by the version command.
func String() string {
	return fmt.Sprintf("callvault %s (commit %s, built %s)", Version, Commit, Date)
}
