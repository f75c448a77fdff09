// Package version holds the build version of the taskopt command.
package version

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Build information, set at compile time via -ldflags
var (
	// Version is the semantic version of the module
	Version = "0.1.0"

	// GitCommit is the commit the binary was built from
	GitCommit = "unknown"

	// BuildDate is the date the binary was built
	BuildDate = "unknown"
)

// Info is the full build description.
type Info struct {
	Version   string          `json:"version" yaml:"version"`
	GitCommit string          `json:"gitCommit" yaml:"git_commit"`
	BuildDate string          `json:"buildDate" yaml:"build_date"`
	GoVersion string          `json:"goVersion" yaml:"go_version"`
	Platform  string          `json:"platform" yaml:"platform"`
	SemVer    *semver.Version `json:"-" yaml:"-"`
}

// GetInfo returns the build description, failing when Version is not a
// semantic version.
func GetInfo() (*Info, error) {
	sv, err := semver.NewVersion(Version)
	if err != nil {
		return nil, fmt.Errorf("invalid semantic version '%s': %w", Version, err)
	}

	return &Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
		SemVer:    sv,
	}, nil
}

// String returns a one-line version description.
func String() string {
	info, err := GetInfo()
	if err != nil {
		return fmt.Sprintf("taskopt v%s (invalid version)", Version)
	}

	parts := []string{"taskopt v" + info.Version}
	if info.GitCommit != "unknown" && info.GitCommit != "" {
		short := info.GitCommit
		if len(short) > 7 {
			short = short[:7]
		}
		parts = append(parts, "commit "+short)
	}
	if info.BuildDate != "unknown" && info.BuildDate != "" {
		parts = append(parts, "built "+info.BuildDate)
	}
	return strings.Join(parts, ", ")
}

// Detailed returns a multi-line description for bug reports.
func Detailed() string {
	info, err := GetInfo()
	if err != nil {
		return fmt.Sprintf("taskopt v%s (error: %v)", Version, err)
	}

	lines := []string{
		"taskopt v" + info.Version,
		"Git Commit: " + info.GitCommit,
		"Build Date: " + info.BuildDate,
	}
	if meta := info.SemVer.Metadata(); meta != "" {
		lines = append(lines, "Build Metadata: "+meta)
	}
	lines = append(lines, "Go Version: "+info.GoVersion, "Platform: "+info.Platform)
	return strings.Join(lines, "\n")
}

// IsPrerelease reports whether Version carries a prerelease suffix.
func IsPrerelease() bool {
	sv, err := semver.NewVersion(Version)
	if err != nil {
		return false
	}
	return sv.Prerelease() != ""
}

// Satisfies reports whether Version matches a constraint such as ">= 0.1".
// It backs "version --require".
func Satisfies(constraint string) (bool, error) {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, fmt.Errorf("invalid version constraint '%s': %w", constraint, err)
	}
	sv, err := semver.NewVersion(Version)
	if err != nil {
		return false, fmt.Errorf("invalid semantic version '%s': %w", Version, err)
	}
	return c.Check(sv), nil
}

// SetBuildInfo overrides the build information (used for testing).
func SetBuildInfo(version, gitCommit, buildDate string) {
	Version = version
	GitCommit = gitCommit
	BuildDate = buildDate
}
