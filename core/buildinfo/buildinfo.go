package buildinfo

// Set via -ldflags at build time, for example:
//
//	-X 'github.com/m3rciful/dictbot/core/buildinfo.Version=v0.3.0'
//	-X 'github.com/m3rciful/dictbot/core/buildinfo.Commit=abcdef0'
//	-X 'github.com/m3rciful/dictbot/core/buildinfo.Date=2026-10-01T12:00:00Z'
var (
	// Version is the release tag, "dev" for local builds.
	Version = "dev"
	// Commit is the source revision the binary was built from.
	Commit = "local"
	// Date is the RFC3339 build timestamp.
	Date = ""
)

// String renders the build info on one line for `dictbot version`.
func String() string {
	s := Version + " (" + Commit
	if Date != "" {
		s += ", " + Date
	}
	return s + ")"
}
