package buildinfo

import "fmt"

// Set via -ldflags at build time:
//
//	-X 'github.com/m3rciful/rosterbot/core/buildinfo.Version=v0.3.0'
//	-X 'github.com/m3rciful/rosterbot/core/buildinfo.Commit=abcdef0'
//	-X 'github.com/m3rciful/rosterbot/core/buildinfo.Date=2026-10-01T12:00:00Z'
var (
	// Version reports the semantic version or tag of the build.
	Version = "dev"
	// Commit reports the source control commit used for the build.
	Commit = "local"
	// Date reports the build timestamp in RFC3339 format.
	Date = ""
)

// String renders a one-line version banner.
func String() string {
	if Date == "" {
		return fmt.Sprintf("%s (%s)", Version, Commit)
	}
	return fmt.Sprintf("%s (%s, built %s)", Version, Commit, Date)
}
