package version

// These variables are set via ldflags during build
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// GetFullVersion returns the version with commit and build date
func GetFullVersion() string {
	if Version == "dev" {
		return "dev (" + GitCommit + ")"
	}
	return Version + " (" + GitCommit + ", built " + BuildDate + ")"
}
