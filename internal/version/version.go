// Package version holds the hookguard build version.
package version

// Overridden at build time:
//
//	go build -ldflags "-X hookguard/internal/version.Version=0.5.0 -X hookguard/internal/version.Commit=$(git rev-parse HEAD)"
var (
	Version   = "0.4.0"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// EngineID identifies the analysis engine in machine-readable reports.
// Reports from different engine ids are not comparable.
const EngineID = "hookguard-ast/1"

// Info returns the version with a short commit suffix when known.
func Info() string {
	if Commit != "unknown" && len(Commit) > 7 {
		return Version + " (" + Commit[:7] + ")"
	}
	return Version
}

// Full returns the multi-line version block printed by `hookguard --version`.
func Full() string {
	return "hookguard " + Info() + "\n" +
		"engine: " + EngineID + "\n" +
		"commit: " + Commit + "\n" +
		"built: " + BuildDate
}
