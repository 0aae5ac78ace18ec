package render_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/release-packager/internal/domain/pipeline"
	"github.com/oshokin/release-packager/internal/domain/release"
	"github.com/oshokin/release-packager/internal/render"
)

// TestReleases lists tag, title and asset names.
func TestReleases(t *testing.T) {
	t.Parallel()

	out := render.Releases([]*release.Release{{
		TagName:   "v1.0.0",
		Name:      "Game Updater",
		CreatedAt: time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC),
		Assets:    []release.Asset{{Name: "GameUpdater.zip"}},
	}})

	require.Contains(t, out, "Tag")
	require.Contains(t, out, "v1.0.0")
	require.Contains(t, out, "Game Updater")
	require.Contains(t, out, "GameUpdater.zip")
}

// TestRunSummary shows the failed step, its category and the step table.
func TestRunSummary(t *testing.T) {
	t.Parallel()

	run := pipeline.NewRun(&pipeline.Trigger{
		Event:      pipeline.EventPullRequest,
		BaseBranch: "master",
		Actor:      &pipeline.Actor{Username: "octocat"},
	})
	run.Record(pipeline.StepCheckout, time.Now().Add(-time.Second), nil)
	run.Finish(pipeline.NewStepError(pipeline.StepProvisionRuntime, errors.New("python3 not found")))

	out := render.RunSummary(run)
	require.Contains(t, out, run.ID)
	require.Contains(t, out, "failed")
	require.Contains(t, out, "provision-runtime")
	require.Contains(t, out, "environment")
	require.Contains(t, out, "python3 not found")
	require.Contains(t, out, "pull_request into master by octocat")
	require.Contains(t, out, "checkout")
}

// TestHistory shortens run ids.
func TestHistory(t *testing.T) {
	t.Parallel()

	run := &pipeline.Run{ID: "0123456789abcdef", Status: pipeline.StatusSucceeded, StartedAt: time.Now()}

	out := render.History([]*pipeline.Run{run})
	require.Contains(t, out, "01234567")
	require.NotContains(t, out, "0123456789abcdef")
	require.Contains(t, out, "succeeded")
}
