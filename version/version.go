// Package version holds build-time version information.
// Values are injected via -ldflags at build time.
package version

import "runtime"

var (
	// GitRelease is the release tag or branch name.
	GitRelease = "dev"

	// GitCommit is the git commit hash.
	GitCommit = "unknown"

	// GitCommitDate is the date of the commit.
	GitCommitDate = "unknown"

	// GoInfo is the Go version used to build.
	GoInfo = runtime.Version()
)
