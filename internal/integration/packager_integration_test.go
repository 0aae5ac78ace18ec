package integration

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/release-packager/internal/api/github"
	"github.com/oshokin/release-packager/internal/archive"
	"github.com/oshokin/release-packager/internal/domain/pipeline"
	"github.com/oshokin/release-packager/internal/repository/history"
	"github.com/oshokin/release-packager/internal/service/packager"
)

// TestPackager_RunFromConfigFile runs the CLI entry point against a saved configuration.
func TestPackager_RunFromConfigFile(t *testing.T) {
	t.Parallel()

	p := newProject(t, reservePort(t))
	output := filepath.Join(p.dir, "out", "GameUpdater.zip")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	options := &packager.Options{
		ConfigPath: p.configPath,
		Output:     output,
		Trigger:    &pipeline.Trigger{Event: pipeline.EventManual},
		Pipeline:   []packager.Option{packager.WithRunner(p.runner)},
	}

	require.NoError(t, packager.Run(ctx, options))
	require.NoError(t, archive.VerifyLayout(output, "GameUpdater",
		[]string{"main", "config.json", "LICENSE", "README.md", "package.json"}))

	releases := p.host.Releases()
	require.Len(t, releases, 1)
	require.Equal(t, "v1.0.0", releases[0].TagName)

	runs, err := history.NewFileRepository(p.cfg.History.File, 0).List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, pipeline.StatusSucceeded, runs[0].Status)

	// A second run hits the existing tag and reports the failure.
	err = packager.Run(ctx, options)
	require.ErrorIs(t, err, github.ErrReleaseExists)
}
