// Package buildinfo holds version information stamped in at link time:
//
//	go build -ldflags "-X github.com/lockgraph/lockgraph/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/lockgraph/lockgraph/pkg/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	    -X github.com/lockgraph/lockgraph/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)" \
//	    ./cmd/lockgraph
package buildinfo

import (
	"fmt"
	"runtime/debug"
)

var (
	// Version is the release tag, "dev" for local builds.
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// String returns the formatted build information.
func String() string {
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s", Version, resolvedCommit(), Date)
}

// Template returns the version template string for cobra.
func Template() string {
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\n", Version, resolvedCommit(), Date)
}

// UserAgent identifies lockgraph in outgoing HTTP requests.
func UserAgent() string {
	return "lockgraph/" + Version
}

// resolvedCommit falls back to the VCS revision embedded by the go tool
// when no commit was stamped in.
func resolvedCommit() string {
	if Commit != "none" {
		return Commit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && len(s.Value) >= 7 {
				return s.Value[:7]
			}
		}
	}
	return Commit
}
