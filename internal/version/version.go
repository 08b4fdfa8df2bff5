package version

import "fmt"

// Defaults apply to builds made without ldflags, e.g. `go run` during
// development.
var (
	// Version is the semantic version of the binary.
	Version = "1.0.0"
	// Commit is the short git SHA the binary was built from.
	Commit = "none"
	// BuildTime is the UTC timestamp of the build.
	BuildTime = "unknown"
)

// Short returns just the semantic version, suitable for User-Agent strings.
func Short() string {
	return Version
}

// Full renders the version together with commit and build time.
func Full() string {
	return fmt.Sprintf("version: %s, commit: %s, built at: %s", Version, Commit, BuildTime)
}
