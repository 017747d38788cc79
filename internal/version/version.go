// Package version holds build metadata, set with -ldflags at release time:
//
//	go build -ldflags "-X github.com/itsmostafa/wikichunk/internal/version.Version=v1.2.0"
package version

import "fmt"

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// String formats the version with its commit and build date.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}
