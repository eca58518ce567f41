// Package semver parses the project version string that drives a release:
// branch names, commit messages, tag names and artifact checks all derive
// from it.
package semver

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// versionPattern accepts MAJOR.MINOR.PATCH with an optional pre-release
// suffix (e.g. "3.4.1", "2.0.0-rc1").
var versionPattern = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)(?:-([0-9A-Za-z.-]+))?$`)

// Version is a parsed semantic version. It is resolved once at the start of
// a release and never mutated.
type Version struct {
	Raw        string
	Major      int
	Minor      int
	Patch      int
	PreRelease string
}

// Parse validates and parses a version string. Surrounding whitespace is
// trimmed first since version commands usually emit a trailing newline.
func Parse(raw string) (Version, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Version{}, fmt.Errorf("version string is empty")
	}

	m := versionPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return Version{}, fmt.Errorf("invalid version %q: expected MAJOR.MINOR.PATCH", trimmed)
	}

	major, err := strconv.Atoi(m[1])
	if err != nil {
		return Version{}, fmt.Errorf("invalid major component in %q: %w", trimmed, err)
	}
	minor, err := strconv.Atoi(m[2])
	if err != nil {
		return Version{}, fmt.Errorf("invalid minor component in %q: %w", trimmed, err)
	}
	patch, err := strconv.Atoi(m[3])
	if err != nil {
		return Version{}, fmt.Errorf("invalid patch component in %q: %w", trimmed, err)
	}

	return Version{
		Raw:        trimmed,
		Major:      major,
		Minor:      minor,
		Patch:      patch,
		PreRelease: m[4],
	}, nil
}

// String returns the normalized version string.
func (v Version) String() string {
	return v.Raw
}

// MajorBranch returns the long-lived branch that tracks this major version
// line: the leading version component followed by ".x" (version 3.4.1 lives
// on branch "3.x").
func (v Version) MajorBranch() string {
	return fmt.Sprintf("%d.x", v.Major)
}

// Tag returns the annotated tag name for this version with the given prefix
// (usually "v", so 2.0.0 becomes "v2.0.0").
func (v Version) Tag(prefix string) string {
	return prefix + v.Raw
}

// IsPreRelease reports whether the version carries a pre-release suffix.
func (v Version) IsPreRelease() bool {
	return v.PreRelease != ""
}
