package build

import "fmt"

// Set at link time, e.g.
// -ldflags "-X github.com/rohmanhakim/test-redirection/internal/build.Version=1.2.0"
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

// Info renders the line printed by --version.
func Info(program string) string {
	return fmt.Sprintf("%s %s (built %s)", program, FullVersion(), BuildTime)
}
