package server

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	api "github.com/oshokin/release-packager/internal/api/grpc/trigger"
	"github.com/oshokin/release-packager/internal/domain/pipeline"
	"github.com/oshokin/release-packager/internal/repository/history"
	"github.com/oshokin/release-packager/internal/workspace"
)

// blockingExecutor finishes a run once release is closed.
type blockingExecutor struct {
	// started is signaled when Execute begins.
	started chan struct{}
	// release unblocks Execute.
	release chan struct{}
	// err is returned with the run.
	err error
}

// Execute waits for release and returns a finished run.
func (b *blockingExecutor) Execute(ctx context.Context, trigger *pipeline.Trigger) (*pipeline.Run, error) {
	if b.started != nil {
		close(b.started)
	}

	if b.release != nil {
		<-b.release
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	run := pipeline.NewRun(trigger)
	run.Finish(b.err)

	return run, b.err
}

// lockedExecutor reports the workspace lock as held.
type lockedExecutor struct{}

// Execute fails as if another process held the lock.
func (lockedExecutor) Execute(context.Context, *pipeline.Trigger) (*pipeline.Run, error) {
	return nil, fmt.Errorf("release-packager.lock held by pid 42: %w", workspace.ErrLocked)
}

// TestService_RejectsConcurrentRuns allows a single run at a time.
func TestService_RejectsConcurrentRuns(t *testing.T) {
	t.Parallel()

	exec := &blockingExecutor{started: make(chan struct{}), release: make(chan struct{})}
	s := newService(exec, nil)

	done := make(chan error, 1)

	go func() {
		_, err := s.Trigger(context.Background(), nil)
		done <- err
	}()

	<-exec.started

	_, err := s.Trigger(context.Background(), nil)
	require.ErrorIs(t, err, api.ErrRunInProgress)

	close(exec.release)
	require.NoError(t, <-done)

	last, err := s.LastRun(context.Background())
	require.NoError(t, err)
	require.Equal(t, pipeline.StatusSucceeded, last.Status)
}

// TestService_RunSurvivesCallerCancellation keeps executing after the caller goes away.
func TestService_RunSurvivesCallerCancellation(t *testing.T) {
	t.Parallel()

	exec := &blockingExecutor{release: make(chan struct{})}
	s := newService(exec, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	close(exec.release)

	run, err := s.Trigger(ctx, nil)
	require.NoError(t, err)
	require.NotNil(t, run)
}

// TestService_FailedRunIsRemembered returns the failed run with its error.
func TestService_FailedRunIsRemembered(t *testing.T) {
	t.Parallel()

	stepErr := pipeline.NewStepError(pipeline.StepUploadAsset, errors.New("upload rejected"))
	s := newService(&blockingExecutor{err: stepErr}, nil)

	run, err := s.Trigger(context.Background(), &pipeline.Trigger{Event: pipeline.EventPullRequest})
	require.ErrorIs(t, err, stepErr)
	require.Equal(t, pipeline.StepUploadAsset, run.FailedStep)

	last, err := s.LastRun(context.Background())
	require.NoError(t, err)
	require.Equal(t, run.ID, last.ID)
	require.NotSame(t, run, last)
}

// TestService_LockedWorkspace maps a held lock to ErrRunInProgress.
func TestService_LockedWorkspace(t *testing.T) {
	t.Parallel()

	_, err := newService(lockedExecutor{}, nil).Trigger(context.Background(), nil)
	require.ErrorIs(t, err, api.ErrRunInProgress)
	require.ErrorIs(t, err, workspace.ErrLocked)
}

// TestService_LastRunFromHistory falls back to stored runs.
func TestService_LastRunFromHistory(t *testing.T) {
	t.Parallel()

	repo := history.NewFileRepository(filepath.Join(t.TempDir(), "history.yaml"), 10)
	s := newService(new(blockingExecutor), repo)

	_, err := s.LastRun(context.Background())
	require.ErrorIs(t, err, api.ErrNoRuns)

	older := pipeline.NewRun(nil)
	older.StartedAt = time.Now().Add(-time.Hour).UTC()
	older.Finish(nil)

	newer := pipeline.NewRun(nil)
	newer.Finish(nil)

	require.NoError(t, repo.Save(context.Background(), older))
	require.NoError(t, repo.Save(context.Background(), newer))

	last, err := s.LastRun(context.Background())
	require.NoError(t, err)
	require.Equal(t, newer.ID, last.ID)
}

// TestResolveListenAddress covers override, port extraction and errors.
func TestResolveListenAddress(t *testing.T) {
	t.Parallel()

	address, err := resolveListenAddress("127.0.0.1:50061", "")
	require.NoError(t, err)
	require.Equal(t, ":50061", address)

	address, err = resolveListenAddress("127.0.0.1:50061", "0.0.0.0:9090")
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:9090", address)

	_, err = resolveListenAddress("", "")
	require.ErrorIs(t, err, ErrNoServerAddress)

	_, err = resolveListenAddress("no-port", "")
	require.Error(t, err)
}
