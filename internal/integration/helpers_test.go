package integration

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/release-packager/internal/api/github/githubtest"
	"github.com/oshokin/release-packager/internal/config"
	"github.com/oshokin/release-packager/internal/service/packager"
	"github.com/oshokin/release-packager/internal/service/server"
	"github.com/oshokin/release-packager/internal/toolchain/toolchaintest"
)

// project is a packaged repository with its configuration file and fake release host.
type project struct {
	dir        string
	configPath string
	cfg        *config.Config
	host       *githubtest.Server
	runner     *toolchaintest.Runner
}

// newProject writes a repository and a configuration pointing at a fake release host.
func newProject(t *testing.T, serverAddress string) *project {
	t.Helper()

	dir := t.TempDir()
	source := filepath.Join(dir, "game-updater")
	require.NoError(t, os.MkdirAll(source, 0o755))

	files := map[string]string{
		"main.py":          "print('update')\n",
		"requirements.txt": "requests>=2.31\n",
		"config.json":      `{"repositories": ["game/launcher"]}`,
		"LICENSE":          "MIT\n",
		"README.md":        "# Game Updater\n",
		"package.json":     `{"name": "game-updater", "version": "2.0.1"}`,
	}
	for name, contents := range files {
		require.NoError(t, os.WriteFile(filepath.Join(source, name), []byte(contents), 0o600))
	}

	host := githubtest.NewServer(t, "game", "updater")

	cfg := config.Default()
	cfg.Source.Path = source
	cfg.Source.LockFile = filepath.Join(dir, "release-packager.lock")
	cfg.Release.APIURL = host.URL
	cfg.Release.UploadURL = host.UploadURL()
	cfg.Release.Repository = host.Repository()
	cfg.Release.Timeout = 5 * time.Second
	cfg.Artifact.Directory = filepath.Join(dir, "artifacts")
	cfg.History.File = filepath.Join(dir, "history.yaml")
	cfg.Server.Address = serverAddress
	cfg.Server.Timeout = 30 * time.Second

	configPath := filepath.Join(dir, config.DefaultConfigFilename)
	require.NoError(t, config.Save(configPath, cfg))

	return &project{
		dir:        dir,
		configPath: configPath,
		cfg:        cfg,
		host:       host,
		runner:     toolchaintest.NewRunner("3.12.4"),
	}
}

// reservePort returns a free localhost address.
func reservePort(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	_ = l.Close()

	return addr
}

// startServer runs release-server for p in the background.
// Returns a stop function to gracefully shutdown the server.
func startServer(t *testing.T, p *project) (stop func()) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)

		options := &server.Options{
			ConfigPath: p.configPath,
			Pipeline:   []packager.Option{packager.WithRunner(p.runner)},
		}

		_ = server.Run(ctx, options) //nolint:errcheck // Startup failures surface as dial errors.
	}()

	require.Eventually(t, func() bool {
		conn, err := net.DialTimeout("tcp", p.cfg.Server.Address, 50*time.Millisecond)
		if err != nil {
			return false
		}

		_ = conn.Close()

		return true
	}, 5*time.Second, 20*time.Millisecond)

	return func() {
		cancel()
		<-done
	}
}
