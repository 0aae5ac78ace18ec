package integration

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/oshokin/release-packager/internal/api/github"
	"github.com/oshokin/release-packager/internal/domain/pipeline"
	"github.com/oshokin/release-packager/internal/service/common"
	"github.com/oshokin/release-packager/internal/service/fetcher"
)

// TestRelease_TriggerAndFetch triggers a run over gRPC, then installs the published release.
func TestRelease_TriggerAndFetch(t *testing.T) {
	t.Parallel()

	p := newProject(t, reservePort(t))

	stop := startServer(t, p)
	defer stop()

	ctx := context.Background()

	c, err := common.Dial(ctx, p.cfg.Server.Address, common.WithCallTimeout(30*time.Second))
	require.NoError(t, err)

	defer func() {
		_ = c.Close()
	}()

	_, err = c.LastRun(ctx)
	require.Equal(t, codes.NotFound, status.Code(err))

	run, err := c.Trigger(ctx, &pipeline.Trigger{
		Event:      pipeline.EventPullRequest,
		BaseBranch: "master",
		HeadRef:    "feature/zip",
		Actor:      &pipeline.Actor{Hostname: "ci-runner", Username: "octocat"},
	})
	require.NoError(t, err)
	require.Equal(t, pipeline.StatusSucceeded, run.Status, run.Error)
	require.Equal(t, "2.0.1", run.Version)
	require.Equal(t, "octocat", run.Trigger.Actor.Username)
	require.Len(t, run.Steps, len(pipeline.Steps()))

	last, err := c.LastRun(ctx)
	require.NoError(t, err)
	require.Equal(t, run.ID, last.ID)

	client, err := github.NewClient(ctx, p.cfg.Release)
	require.NoError(t, err)

	result, err := fetcher.New(client, p.cfg.Release.AssetName).Fetch(ctx, fetcher.LatestTag, t.TempDir())
	require.NoError(t, err)
	require.Equal(t, "2.0.1", result.Version)
	require.FileExists(t, filepath.Join(result.Dir, "main"))

	// The fixed tag is taken now, so a second run fails at release creation.
	run, err = c.Trigger(ctx, &pipeline.Trigger{Event: pipeline.EventManual})
	require.NoError(t, err)
	require.Equal(t, pipeline.StatusFailed, run.Status)
	require.Equal(t, pipeline.StepCreateRelease, run.FailedStep)
	require.Equal(t, pipeline.CategoryRemote, run.Category)
}

// TestRelease_IgnoredTrigger rejects an event that does not match the rule without running.
func TestRelease_IgnoredTrigger(t *testing.T) {
	t.Parallel()

	p := newProject(t, reservePort(t))

	stop := startServer(t, p)
	defer stop()

	c, err := common.Dial(context.Background(), p.cfg.Server.Address, common.WithCallTimeout(5*time.Second))
	require.NoError(t, err)

	defer func() {
		_ = c.Close()
	}()

	_, err = c.Trigger(context.Background(), &pipeline.Trigger{Event: "push", BaseBranch: "master"})
	require.Equal(t, codes.FailedPrecondition, status.Code(err))
	require.Empty(t, p.runner.Calls())
	require.Empty(t, p.host.Releases())
}
