package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// VersionPattern is a semver constraint on the interpreter version, such as
// 3.12.x, 3.12.4 or ">= 3.10, < 3.13".
type VersionPattern struct {
	raw         string
	constraints *semver.Constraints
}

// versionInOutput finds the first dotted version in tool output such as "Python 3.12.4".
var versionInOutput = regexp.MustCompile(`\d+(\.\d+)+`)

// ParseVersionPattern parses patterns like 3, 3.x, 3.12.x and 3.12.4.
// A bare version with missing components matches any value for them.
func ParseVersionPattern(s string) (VersionPattern, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return VersionPattern{}, fmt.Errorf("empty pattern: %w", errBadVersionPattern)
	}

	constraints, err := semver.NewConstraint(s)
	if err != nil {
		return VersionPattern{}, fmt.Errorf("%q: %w: %w", s, errBadVersionPattern, err)
	}

	return VersionPattern{raw: s, constraints: constraints}, nil
}

// Match reports whether version satisfies the pattern.
func (p VersionPattern) Match(version string) bool {
	if p.constraints == nil {
		return false
	}

	v, err := semver.NewVersion(strings.TrimSpace(version))
	if err != nil {
		return false
	}

	return p.constraints.Check(v)
}

// String returns the pattern as written.
func (p VersionPattern) String() string {
	return p.raw
}

// ExtractVersion pulls the first dotted version out of tool output.
func ExtractVersion(output string) (string, bool) {
	match := versionInOutput.FindString(output)

	return match, match != ""
}
