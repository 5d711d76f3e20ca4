package version

import "fmt"

// These variables are injected at build time via -ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// String returns a human-readable version string.
func String() string {
	return fmt.Sprintf("appforge %s (%s, %s)", Version, Commit, BuildDate)
}

// UserAgent identifies appforge in outbound metadata such as SVG badges.
func UserAgent() string {
	return "appforge/" + Version
}
