// Package version holds build metadata injected at link time via
// -ldflags "-X github.com/louis030195/bigbrother/internal/version.Version=...".
package version

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)
