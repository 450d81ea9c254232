package build

// Populated at link time via -ldflags, e.g.
// -X github.com/novelpack/novelpack/internal/build.Version=1.0.0
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

// FullVersion returns the version string with commit hash appended.
// Format: "Version+Commit" (e.g., "1.0.0+abc123")
func FullVersion() string {
	return Version + "+" + Commit
}

// Stamp returns the full version plus the build timestamp, for the
// --version output.
func Stamp() string {
	return FullVersion() + " (built " + BuildTime + ")"
}
