package distribution

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/oshokin/release-packager/internal/logger"
	"github.com/oshokin/release-packager/internal/workspace"
)

var (
	// ErrMissingFile means an auxiliary file is absent from the workspace.
	ErrMissingFile = errors.New("auxiliary file missing")
	// ErrUnexpectedContents means the distribution directory holds other files than expected.
	ErrUnexpectedContents = errors.New("unexpected distribution contents")
	// ErrNameTaken means something already sits where the distribution must be placed.
	ErrNameTaken = errors.New("distribution path already exists")
)

// Distribution is the assembled folder ready to be archived.
type Distribution struct {
	// Dir is the absolute distribution directory; its base name equals Name.
	Dir string
	// Name is the configured distribution name.
	Name string
	// Executable is the base name of the built executable.
	Executable string
	// Files are the auxiliary files, in configured order.
	Files []string
}

// Entries returns every file name inside the distribution, sorted.
func (d *Distribution) Entries() []string {
	entries := append([]string{d.Executable}, d.Files...)
	slices.Sort(entries)

	return entries
}

// Assemble copies files from workspaceDir next to the executable in outputDir
// and renames outputDir to <workspaceDir>/<name>. Every file is checked before
// anything is copied, so a missing one leaves the output directory untouched.
func Assemble(ctx context.Context, workspaceDir, outputDir, executable, name string, files []string) (*Distribution, error) {
	for _, file := range files {
		info, err := os.Stat(filepath.Join(workspaceDir, file))
		if err != nil || !info.Mode().IsRegular() {
			return nil, fmt.Errorf("%s: %w", file, ErrMissingFile)
		}
	}

	if _, err := os.Stat(filepath.Join(outputDir, executable)); err != nil {
		return nil, fmt.Errorf("executable %s: %w", executable, err)
	}

	for _, file := range files {
		if err := workspace.CopyFile(filepath.Join(workspaceDir, file), filepath.Join(outputDir, file)); err != nil {
			return nil, fmt.Errorf("copy %s: %w", file, err)
		}
	}

	dir := filepath.Join(workspaceDir, name)
	if filepath.Clean(dir) != filepath.Clean(outputDir) {
		if _, err := os.Lstat(dir); err == nil {
			return nil, fmt.Errorf("%s: %w", dir, ErrNameTaken)
		}

		if err := os.Rename(outputDir, dir); err != nil {
			return nil, fmt.Errorf("rename output directory: %w", err)
		}
	}

	dist := &Distribution{
		Dir:        dir,
		Name:       name,
		Executable: executable,
		Files:      slices.Clone(files),
	}

	if err := Verify(dist); err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Distribution assembled", "dir", dir, "entries", dist.Entries())

	return dist, nil
}

// Verify checks that the distribution directory holds exactly the expected
// regular files and nothing else.
func Verify(dist *Distribution) error {
	dirEntries, err := os.ReadDir(dist.Dir)
	if err != nil {
		return fmt.Errorf("read distribution: %w", err)
	}

	got := make([]string, 0, len(dirEntries))

	for _, entry := range dirEntries {
		if !entry.Type().IsRegular() {
			return fmt.Errorf("%s is not a regular file: %w", entry.Name(), ErrUnexpectedContents)
		}

		got = append(got, entry.Name())
	}

	slices.Sort(got)

	if want := dist.Entries(); !slices.Equal(got, want) {
		return fmt.Errorf("want %v, got %v: %w", want, got, ErrUnexpectedContents)
	}

	return nil
}
