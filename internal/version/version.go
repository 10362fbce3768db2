// Package version holds the application version, overridable at build time.
package version

// Version is set via -ldflags "-X campwatch/internal/version.Version=x.y.z" during release builds.
var Version = "1.0.0"
