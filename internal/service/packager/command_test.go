package packager

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/release-packager/internal/config"
)

// TestInit writes a loadable configuration and refuses to overwrite it.
func TestInit(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), config.DefaultConfigFilename)
	opts := &InitOptions{ConfigPath: path, Repository: "game/updater", Source: "../updater"}

	require.NoError(t, Init(context.Background(), opts))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "game/updater", cfg.Release.Repository)
	require.Equal(t, "../updater", cfg.Source.Path)
	require.Equal(t, "GameUpdater", cfg.Distribution.Name)

	require.ErrorIs(t, Init(context.Background(), opts), errConfigExists)

	opts.Force = true
	require.NoError(t, Init(context.Background(), opts))
}
