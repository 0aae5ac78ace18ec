// Package toolchaintest provides a scripted toolchain.Runner that imitates the
// interpreter, pip and the packaging tool without running them.
package toolchaintest

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/oshokin/release-packager/internal/toolchain"
)

var (
	// ErrUnresolvable is returned by the fake pip for packages listed in Unresolvable.
	ErrUnresolvable = errors.New("no matching distribution found")

	errExitStatus = errors.New("exit status 1")
)

// Call is one recorded command.
type Call struct {
	Dir  string
	Name string
	Args []string
}

// Runner imitates a Python toolchain.
type Runner struct {
	// Version is reported by --version.
	Version string
	// Unresolvable package names make pip install -r fail.
	Unresolvable []string
	// BuildFails makes the packaging tool exit with an error.
	BuildFails bool
	// Missing makes every command fail as if the interpreter were not installed.
	Missing bool

	mu    sync.Mutex
	calls []Call
}

// NewRunner returns a fake interpreter reporting version.
func NewRunner(version string) *Runner {
	return &Runner{Version: version}
}

// Calls returns the recorded commands.
func (r *Runner) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.calls)
}

// Ran reports whether any recorded command contains every given argument.
func (r *Runner) Ran(args ...string) bool {
	for _, call := range r.Calls() {
		if containsAll(call.Args, args) {
			return true
		}
	}

	return false
}

// Run implements toolchain.Runner.
func (r *Runner) Run(_ context.Context, dir, name string, args ...string) ([]byte, error) {
	r.mu.Lock()
	r.calls = append(r.calls, Call{Dir: dir, Name: name, Args: slices.Clone(args)})
	r.mu.Unlock()

	if r.Missing {
		return nil, fail(name, args, "", exec.ErrNotFound)
	}

	switch {
	case slices.Equal(args, []string{"--version"}):
		return []byte("Python " + r.Version + "\n"), nil
	case containsAll(args, []string{"-m", "venv"}):
		return nil, os.MkdirAll(filepath.Join(dir, args[len(args)-1], "bin"), 0o755)
	case containsAll(args, []string{"-m", "pip", "install", "-r"}):
		return r.installManifest(dir, name, args)
	case containsAll(args, []string{"-m", "pip", "install"}):
		return []byte("Successfully installed\n"), nil
	case containsAll(args, []string{"--onefile"}):
		return r.build(dir, name, args)
	default:
		return nil, nil
	}
}

func (r *Runner) installManifest(dir, name string, args []string) ([]byte, error) {
	requirements, err := toolchain.ReadManifest(filepath.Join(dir, args[len(args)-1]))
	if err != nil {
		return nil, err
	}

	for _, requirement := range requirements {
		if slices.Contains(r.Unresolvable, requirement.Name) {
			return nil, fail(name, args, requirement.Name, ErrUnresolvable)
		}
	}

	return []byte("Successfully installed\n"), nil
}

func (r *Runner) build(dir, name string, args []string) ([]byte, error) {
	if r.BuildFails {
		return nil, fail(name, args, "SyntaxError: invalid syntax", errExitStatus)
	}

	distPath := valueAfter(args, "--distpath")
	exeName := valueAfter(args, "--name")

	if !filepath.IsAbs(distPath) {
		distPath = filepath.Join(dir, distPath)
	}

	if err := os.MkdirAll(distPath, 0o755); err != nil {
		return nil, err
	}

	contents := []byte("#!/bin/sh\necho " + exeName + "\n")
	if err := os.WriteFile(filepath.Join(distPath, exeName), contents, 0o755); err != nil {
		return nil, err
	}

	return []byte("Building EXE completed successfully.\n"), nil
}

func fail(name string, args []string, output string, cause error) error {
	return &toolchain.CommandError{
		Command: strings.Join(append([]string{name}, args...), " "),
		Output:  output,
		Err:     cause,
	}
}

func valueAfter(args []string, flag string) string {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}

	return ""
}

func containsAll(haystack, needles []string) bool {
	for _, needle := range needles {
		if !slices.Contains(haystack, needle) {
			return false
		}
	}

	return true
}
