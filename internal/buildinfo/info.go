// Package buildinfo holds release metadata shown by "finhouse --version".
package buildinfo

// Set with -ldflags "-X github.com/SamuelPereira26/Finhouse/internal/buildinfo.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)
