package version

import "fmt"

var (
	// Version is the semantic version of the toolchain build.
	Version = "0.1.0"
	// Commit is the short git SHA embedded at build time (or "none").
	Commit = "none"
	// BuildTime is the UTC build timestamp embedded at build time.
	BuildTime = "unknown"
)

// Short returns only the semantic version string.
func Short() string {
	return Version
}

// Full renders the version line printed by the version subcommand of the given binary.
func Full(binary string) string {
	if binary == "" {
		return fmt.Sprintf("version: %s, commit: %s, built at: %s", Version, Commit, BuildTime)
	}

	return fmt.Sprintf("%s version: %s, commit: %s, built at: %s", binary, Version, Commit, BuildTime)
}
