package version

// Version is the tkdocs release. Set at build time:
// go build -ldflags "-X github.com/sygic-travel/tkdocs/internal/version.Version=v1.0.0".
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the version line printed by `tkdocs --version`.
func String() string {
	return "tkdocs " + Version + " (commit " + GitCommit + ", built " + BuildTime + ")"
}
