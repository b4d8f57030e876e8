// Package version holds build metadata. Override with
// -ldflags "-X github.com/kailas-cloud/ilpcoach/internal/version.Version=v1.2.3".
package version

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String renders the build metadata as "version (commit, date)".
func String() string {
	return Version + " (" + Commit + ", " + Date + ")"
}
