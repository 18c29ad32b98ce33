// Package version provides build and version information for asrsmcp.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Name is the program name shown in version output.
const Name = "asrsmcp"

// Version is set via ldflags at build time, or defaults to dev:
//
//	-X github.com/Aman-CERP/asrsmcp/pkg/version.Version=$(VERSION)
var Version = "dev"

// Build information set via ldflags at build time.
var (
	// Commit is the git commit hash. When unset, the VCS revision embedded
	// by the Go toolchain is used.
	Commit = "unknown"

	// Date is the build date in RFC3339 format.
	Date = "unknown"

	// GoVersion is the Go version used to build the binary.
	GoVersion = runtime.Version()
)

// BuildInfo is structured version information for JSON output.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// String returns a formatted version string with all build info.
func String() string {
	info := GetInfo()
	return fmt.Sprintf("%s %s (commit: %s, built: %s, go: %s)",
		Name, info.Version, info.Commit, info.Date, info.GoVersion)
}

// Short returns just the version string.
func Short() string {
	return Version
}

// GetInfo returns structured version information.
func GetInfo() BuildInfo {
	commit, date := Commit, Date
	if commit == "unknown" || date == "unknown" {
		vcsCommit, vcsDate := vcsInfo()
		if commit == "unknown" && vcsCommit != "" {
			commit = vcsCommit
		}
		if date == "unknown" && vcsDate != "" {
			date = vcsDate
		}
	}

	return BuildInfo{
		Version:   Version,
		Commit:    commit,
		Date:      date,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// vcsInfo reads the revision and commit time stamped into the binary.
func vcsInfo() (revision, when string) {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "", ""
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
			if len(revision) > 12 {
				revision = revision[:12]
			}
		case "vcs.time":
			when = s.Value
		}
	}
	return revision, when
}
