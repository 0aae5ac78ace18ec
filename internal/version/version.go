package version

import "fmt"

var (
	// Version is the semantic version of the build, overridden via ldflags.
	Version = "0.1.0"
	// Commit is the short git SHA of the build (or "none").
	Commit = "none"
	// BuildTime is the UTC build timestamp.
	BuildTime = "unknown"
)

// product names the tooling towards the release host.
const product = "release-packager"

// Short returns the bare semantic version.
func Short() string {
	return Version
}

// Full returns version, commit and build time on one line.
func Full() string {
	return fmt.Sprintf("version: %s, commit: %s, built at: %s", Version, Commit, BuildTime)
}

// UserAgent is sent with every request to the release host.
func UserAgent() string {
	return product + "/" + Version
}
