// Package version exposes build metadata (semantic version, commit, build
// time) injected via ldflags, and a reusable cobra `version` subcommand.
package version
