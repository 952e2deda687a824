// Package version exposes build metadata for the packager and setup binaries.
//
// Version, Commit and BuildTime are injected through -ldflags; local builds
// fall back to placeholders.
package version
