package toolchain

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/oshokin/release-packager/internal/config"
	"github.com/oshokin/release-packager/internal/logger"
)

var (
	// ErrRuntimeUnavailable means the interpreter could not be run.
	ErrRuntimeUnavailable = errors.New("runtime unavailable")
	// ErrRuntimeVersion means the interpreter does not match the pinned version.
	ErrRuntimeVersion = errors.New("runtime version mismatch")
	// ErrEntryPointMissing means the program to package does not exist.
	ErrEntryPointMissing = errors.New("entry point not found")
	// ErrNoExecutable means the packaging tool produced nothing.
	ErrNoExecutable = errors.New("packaging tool produced no executable")
	// ErrTooManyOutputs means the output directory holds more than one file.
	ErrTooManyOutputs = errors.New("packaging tool produced more than one file")
)

// venvDir is the virtual environment created inside the workspace.
const venvDir = ".venv"

// Runtime is a provisioned interpreter.
type Runtime struct {
	// Python is the interpreter used for every later command.
	Python string
	// Version is the version reported by the base interpreter.
	Version string
}

// Toolchain provisions the runtime, installs dependencies and builds the executable.
type Toolchain struct {
	runner  Runner
	runtime config.RuntimeConfig
	build   config.BuildConfig
}

// New returns a toolchain driven by runner.
func New(runner Runner, rt config.RuntimeConfig, build config.BuildConfig) *Toolchain {
	return &Toolchain{
		runner:  runner,
		runtime: rt,
		build:   build,
	}
}

// ProvisionRuntime checks the interpreter version and prepares an isolated environment in dir.
func (t *Toolchain) ProvisionRuntime(ctx context.Context, dir string) (*Runtime, error) {
	pattern, err := config.ParseVersionPattern(t.runtime.Version)
	if err != nil {
		return nil, err
	}

	output, err := t.run(ctx, dir, t.runtime.Interpreter, "--version")
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", t.runtime.Interpreter, ErrRuntimeUnavailable, err)
	}

	version, ok := config.ExtractVersion(string(output))
	if !ok || !pattern.Match(version) {
		return nil, fmt.Errorf("want %s, got %q: %w", pattern, version, ErrRuntimeVersion)
	}

	logger.InfoKV(ctx, "Runtime found", "interpreter", t.runtime.Interpreter, "version", version)

	rt := &Runtime{
		Python:  t.runtime.Interpreter,
		Version: version,
	}

	if t.runtime.SkipVenv {
		return rt, nil
	}

	if _, err = t.run(ctx, dir, t.runtime.Interpreter, "-m", "venv", venvDir); err != nil {
		return nil, fmt.Errorf("create virtual environment: %w", err)
	}

	rt.Python = venvPython(dir)

	return rt, nil
}

// InstallDependencies installs the packaging tool and everything the manifest lists.
func (t *Toolchain) InstallDependencies(ctx context.Context, rt *Runtime, dir string) error {
	manifestPath := filepath.Join(dir, t.build.Manifest)

	requirements, err := ReadManifest(manifestPath)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Installing dependencies",
		"tool", t.build.Tool, "manifest", t.build.Manifest, "requirements", len(requirements))

	if _, err = t.pip(ctx, rt, dir, t.build.Tool); err != nil {
		return fmt.Errorf("install %s: %w", t.build.Tool, err)
	}

	if len(requirements) == 0 {
		return nil
	}

	if _, err = t.pip(ctx, rt, dir, "-r", t.build.Manifest); err != nil {
		return fmt.Errorf("install %s: %w", t.build.Manifest, err)
	}

	return nil
}

// BuildExecutable packages the entry point into one standalone executable and returns its path.
// The output directory is recreated so every run overwrites the previous executable.
func (t *Toolchain) BuildExecutable(ctx context.Context, rt *Runtime, dir string) (string, error) {
	entryPoint := filepath.Join(dir, t.build.EntryPoint)
	if _, err := os.Stat(entryPoint); err != nil {
		return "", fmt.Errorf("%s: %w", t.build.EntryPoint, ErrEntryPointMissing)
	}

	outputDir := filepath.Join(dir, t.build.OutputDir)
	if err := os.RemoveAll(outputDir); err != nil {
		return "", fmt.Errorf("clean output directory: %w", err)
	}

	workDir := filepath.Join(dir, "build")

	args := []string{
		"-m", t.build.ToolModule,
		"--onefile",
		"--noconfirm",
		"--clean",
		"--distpath", outputDir,
		"--workpath", workDir,
		"--specpath", workDir,
		"--name", t.build.Executable,
	}
	args = append(args, t.build.ExtraArgs...)
	args = append(args, t.build.EntryPoint)

	if _, err := t.run(ctx, dir, rt.Python, args...); err != nil {
		return "", fmt.Errorf("run %s: %w", t.build.Tool, err)
	}

	return singleFile(outputDir)
}

// pip runs pip install with args using the runtime interpreter.
func (t *Toolchain) pip(ctx context.Context, rt *Runtime, dir string, args ...string) ([]byte, error) {
	return t.run(ctx, dir, rt.Python, append([]string{"-m", "pip", "install", "--disable-pip-version-check"}, args...)...)
}

// run executes one command bounded by the build timeout.
func (t *Toolchain) run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	if t.build.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, t.build.Timeout)
		defer cancel()
	}

	logger.DebugKV(ctx, "Running command", "dir", dir, "command", name, "args", args)

	return t.runner.Run(ctx, dir, name, args...)
}

// singleFile returns the only regular file in dir.
func singleFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNoExecutable
		}

		return "", fmt.Errorf("read output directory: %w", err)
	}

	var found []string

	for _, entry := range entries {
		if entry.Type().IsRegular() {
			found = append(found, entry.Name())
		}
	}

	switch len(found) {
	case 0:
		return "", ErrNoExecutable
	case 1:
		return filepath.Join(dir, found[0]), nil
	default:
		return "", fmt.Errorf("%v: %w", found, ErrTooManyOutputs)
	}
}

// venvPython is the interpreter path inside the workspace venv.
func venvPython(dir string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(dir, venvDir, "Scripts", "python.exe")
	}

	return filepath.Join(dir, venvDir, "bin", "python")
}
