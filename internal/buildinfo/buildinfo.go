// Package buildinfo holds version information injected at build time via ldflags:
//
//	-X github.com/watchfire-io/logtray/internal/buildinfo.Version=v0.3.0
package buildinfo

import "fmt"

var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildDate  = "unknown"
)

// String returns a one-line version string.
func String() string {
	return fmt.Sprintf("logtray %s (%s, %s)", Version, CommitHash, BuildDate)
}
