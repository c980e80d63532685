// Package buildinfo provides build-time information (version, commit, build time).
// These variables are injected at build time via -ldflags.
package buildinfo

import "fmt"

var (
	// Version is the release tag (e.g. "v1.2.0" or "dev").
	// Set via: -ldflags "-X github.com/terrpan/vmrunner/internal/buildinfo.Version=<value>"
	Version = "dev"

	// Commit is the git commit hash.
	// Set via: -ldflags "-X github.com/terrpan/vmrunner/internal/buildinfo.Commit=<value>"
	Commit = "unknown"

	// BuildTime is the build timestamp (RFC 3339).
	// Set via: -ldflags "-X github.com/terrpan/vmrunner/internal/buildinfo.BuildTime=<value>"
	BuildTime = "unknown"
)

// String formats the build info on one line.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildTime)
}
