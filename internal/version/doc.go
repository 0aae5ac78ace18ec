// Package version exposes build metadata injected through ldflags.
//
// The same values identify the tooling to the release host (UserAgent) and
// are printed by the `version` subcommand of every binary.
package version
