package server

import (
	"context"
	"errors"
	"fmt"
	"sync"

	api "github.com/oshokin/release-packager/internal/api/grpc/trigger"
	"github.com/oshokin/release-packager/internal/domain/pipeline"
	"github.com/oshokin/release-packager/internal/logger"
	"github.com/oshokin/release-packager/internal/repository/history"
	"github.com/oshokin/release-packager/internal/workspace"
)

// executor runs the pipeline once.
type executor interface {
	Execute(ctx context.Context, trigger *pipeline.Trigger) (*pipeline.Run, error)
}

// service serializes pipeline runs and remembers the most recent one.
// It is unexported to keep the transport decoupled from the implementation.
type service struct {
	// executor performs the runs.
	executor executor
	// history answers LastRun before any run happened in this process.
	history history.Repository
	// running is held for the duration of a run.
	running sync.Mutex
	// last is the most recent run started by this process.
	last *pipeline.Run
	// mu protects last.
	mu sync.RWMutex
}

// newService creates a service over exec, reading older runs from repo.
func newService(exec executor, repo history.Repository) *service {
	return &service{
		executor: exec,
		history:  repo,
	}
}

// Trigger runs the pipeline unless a run is already in progress. The run
// outlives the caller's deadline so a dropped client cannot leave a release
// half published.
func (s *service) Trigger(ctx context.Context, trigger *pipeline.Trigger) (*pipeline.Run, error) {
	if !s.running.TryLock() {
		return nil, api.ErrRunInProgress
	}

	defer s.running.Unlock()

	logger.InfoKV(ctx, "Run requested", "event", eventOf(trigger), "actor", actorOf(trigger))

	run, err := s.executor.Execute(context.WithoutCancel(ctx), trigger)
	if errors.Is(err, workspace.ErrLocked) {
		return nil, fmt.Errorf("%w: %w", api.ErrRunInProgress, err)
	}

	if run != nil {
		s.mu.Lock()
		s.last = run.Clone()
		s.mu.Unlock()
	}

	return run, err
}

// LastRun returns the latest run of this process, falling back to history.
func (s *service) LastRun(ctx context.Context) (*pipeline.Run, error) {
	s.mu.RLock()
	last := s.last.Clone()
	s.mu.RUnlock()

	if last != nil {
		return last, nil
	}

	if s.history == nil {
		return nil, api.ErrNoRuns
	}

	runs, err := s.history.List(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}

	if len(runs) == 0 {
		return nil, api.ErrNoRuns
	}

	return runs[0], nil
}

func eventOf(trigger *pipeline.Trigger) string {
	if trigger == nil {
		return "manual"
	}

	return trigger.Event
}

func actorOf(trigger *pipeline.Trigger) string {
	if trigger == nil {
		return (*pipeline.Actor)(nil).String()
	}

	return trigger.Actor.String()
}
