package toolchain

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// ErrManifestMissing means the dependency manifest does not exist.
	ErrManifestMissing = errors.New("dependency manifest not found")
	// ErrInvalidRequirement means a manifest line cannot name a package.
	ErrInvalidRequirement = errors.New("invalid requirement")
)

// requirementName matches a PEP 508 distribution name at the start of a line.
var requirementName = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9._-]*[A-Za-z0-9]|[A-Za-z0-9])`)

// Requirement is one dependency from the manifest.
type Requirement struct {
	// Name is the distribution name.
	Name string
	// Spec is everything after the name: extras, version constraints, markers.
	Spec string
	// Line is the 1-based manifest line.
	Line int
}

// ReadManifest parses the manifest file at path.
func ReadManifest(path string) ([]Requirement, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrManifestMissing)
		}

		return nil, fmt.Errorf("read manifest: %w", err)
	}

	return ParseManifest(contents)
}

// ParseManifest parses requirements.txt content. Blank lines, comments and
// pip option lines are skipped; every other line must start with a package name.
func ParseManifest(contents []byte) ([]Requirement, error) {
	var (
		requirements []Requirement
		scanner      = bufio.NewScanner(bytes.NewReader(contents))
		lineNumber   int
	)

	for scanner.Scan() {
		lineNumber++

		line := stripComment(scanner.Text())
		if line == "" || strings.HasPrefix(line, "-") {
			continue
		}

		name := requirementName.FindString(line)
		if name == "" {
			return nil, fmt.Errorf("line %d %q: %w", lineNumber, line, ErrInvalidRequirement)
		}

		spec := strings.TrimSpace(line[len(name):])
		if spec != "" && !strings.ContainsAny(spec[:1], "[=<>!~;@ ") {
			return nil, fmt.Errorf("line %d %q: %w", lineNumber, line, ErrInvalidRequirement)
		}

		requirements = append(requirements, Requirement{
			Name: name,
			Spec: spec,
			Line: lineNumber,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan manifest: %w", err)
	}

	return requirements, nil
}

// stripComment drops a trailing "# ..." comment and surrounding space.
func stripComment(line string) string {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "#") {
		return ""
	}

	if i := strings.Index(line, " #"); i >= 0 {
		line = line[:i]
	}

	return strings.TrimSpace(line)
}
