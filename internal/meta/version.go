// Package meta holds the build information of uptrack.
package meta

import (
	"fmt"
)

var (
	// Version is the semantic version of uptrack, injected by ldflags.
	Version = "HEAD"

	// Commit is the git commit hash, injected by ldflags.
	Commit = "UNKNOWN"
)

// UserAgent is the User-Agent header of HTTP probes.
func UserAgent() string {
	return fmt.Sprintf("uptrack/%s health check", Version)
}

// String returns the version and the commit like "1.2.3 (abcdef)".
func String() string {
	return fmt.Sprintf("%s (%s)", Version, Commit)
}
