package toolchain_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/release-packager/internal/config"
	"github.com/oshokin/release-packager/internal/toolchain"
	"github.com/oshokin/release-packager/internal/toolchain/toolchaintest"
)

func newToolchain(runner toolchain.Runner, skipVenv bool) *toolchain.Toolchain {
	cfg := config.Default()
	cfg.Runtime.SkipVenv = skipVenv
	cfg.Build.Timeout = time.Minute

	return toolchain.New(runner, cfg.Runtime, cfg.Build)
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
}

// TestProvisionRuntime_CreatesVenv checks version matching and venv creation.
func TestProvisionRuntime_CreatesVenv(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	runner := toolchaintest.NewRunner("3.12.4")

	rt, err := newToolchain(runner, false).ProvisionRuntime(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, "3.12.4", rt.Version)
	require.Contains(t, rt.Python, filepath.Join(dir, ".venv"))
	require.True(t, runner.Ran("-m", "venv", ".venv"))
}

// TestProvisionRuntime_Failures covers a missing interpreter and a wrong version.
func TestProvisionRuntime_Failures(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	missing := toolchaintest.NewRunner("3.12.4")
	missing.Missing = true

	_, err := newToolchain(missing, true).ProvisionRuntime(context.Background(), dir)
	require.ErrorIs(t, err, toolchain.ErrRuntimeUnavailable)

	_, err = newToolchain(toolchaintest.NewRunner("3.11.9"), true).ProvisionRuntime(context.Background(), dir)
	require.ErrorIs(t, err, toolchain.ErrRuntimeVersion)
}

// TestInstallDependencies installs the tool and the manifest, and fails on unresolvable packages.
func TestInstallDependencies(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "requirements.txt"), "requests>=2.31\nPySide6==6.7.0 # gui\n")

	runner := toolchaintest.NewRunner("3.12.1")
	tc := newToolchain(runner, true)
	rt := &toolchain.Runtime{Python: "python3", Version: "3.12.1"}

	require.NoError(t, tc.InstallDependencies(context.Background(), rt, dir))
	require.True(t, runner.Ran("pip", "install", "pyinstaller"))
	require.True(t, runner.Ran("pip", "install", "-r", "requirements.txt"))

	runner.Unresolvable = []string{"PySide6"}

	err := tc.InstallDependencies(context.Background(), rt, dir)
	require.ErrorIs(t, err, toolchaintest.ErrUnresolvable)
}

// TestInstallDependencies_MissingManifest fails before running pip.
func TestInstallDependencies_MissingManifest(t *testing.T) {
	t.Parallel()

	runner := toolchaintest.NewRunner("3.12.1")
	rt := &toolchain.Runtime{Python: "python3"}

	err := newToolchain(runner, true).InstallDependencies(context.Background(), rt, t.TempDir())
	require.ErrorIs(t, err, toolchain.ErrManifestMissing)
	require.Empty(t, runner.Calls())
}

// TestBuildExecutable returns the single produced file and rejects a missing entry point.
func TestBuildExecutable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	runner := toolchaintest.NewRunner("3.12.1")
	tc := newToolchain(runner, true)
	rt := &toolchain.Runtime{Python: "python3"}

	_, err := tc.BuildExecutable(context.Background(), rt, dir)
	require.ErrorIs(t, err, toolchain.ErrEntryPointMissing)

	writeFile(t, filepath.Join(dir, "main.py"), "print('hi')\n")

	exe, err := tc.BuildExecutable(context.Background(), rt, dir)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "dist", "main"), exe)
	require.True(t, runner.Ran("-m", "PyInstaller", "--onefile", "main.py"))

	runner.BuildFails = true

	_, err = tc.BuildExecutable(context.Background(), rt, dir)

	var cmdErr *toolchain.CommandError
	require.ErrorAs(t, err, &cmdErr)
	require.Contains(t, cmdErr.Output, "SyntaxError")
	require.NoDirExists(t, filepath.Join(dir, "dist"))
}

// TestParseManifest covers comments, options and invalid lines.
func TestParseManifest(t *testing.T) {
	t.Parallel()

	requirements, err := toolchain.ParseManifest([]byte(`
# pinned for the updater
requests>=2.31
urllib3[socks] ; python_version >= "3.8"
--index-url https://pypi.org/simple
certifi  # trust store
`))
	require.NoError(t, err)
	require.Len(t, requirements, 3)
	require.Equal(t, "requests", requirements[0].Name)
	require.Equal(t, ">=2.31", requirements[0].Spec)
	require.Equal(t, "urllib3", requirements[1].Name)
	require.Equal(t, "certifi", requirements[2].Name)
	require.Equal(t, 6, requirements[2].Line)

	_, err = toolchain.ParseManifest([]byte("requests\n!!broken\n"))
	require.ErrorIs(t, err, toolchain.ErrInvalidRequirement)

	_, err = toolchain.ParseManifest([]byte("two words\n"))
	require.ErrorIs(t, err, toolchain.ErrInvalidRequirement)
}

// TestExecRunner_ReportsFailure runs a real failing command through the exec runner.
func TestExecRunner_ReportsFailure(t *testing.T) {
	t.Parallel()

	_, err := toolchain.NewExecRunner().Run(context.Background(), t.TempDir(), "definitely-not-a-real-binary")

	var cmdErr *toolchain.CommandError
	require.ErrorAs(t, err, &cmdErr)
	require.Contains(t, cmdErr.Command, "definitely-not-a-real-binary")
}
