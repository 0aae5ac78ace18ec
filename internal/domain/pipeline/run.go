package pipeline

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a run.
type Status string

// Run states.
const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// StepResult records how long one step took and whether it passed.
type StepResult struct {
	Step       Step          `yaml:"step"`
	Status     Status        `yaml:"status"`
	Duration   time.Duration `yaml:"duration"`
	StartedAt  time.Time     `yaml:"started_at"`
	FinishedAt time.Time     `yaml:"finished_at"`
}

// Run is the record of one pipeline execution.
type Run struct {
	// ID is a random run identifier.
	ID string `yaml:"id"`
	// Trigger is nil for manual runs.
	Trigger *Trigger `yaml:"trigger,omitempty"`
	// Status is the current or final state.
	Status Status `yaml:"status"`
	// FailedStep is set when Status is failed.
	FailedStep Step `yaml:"failed_step,omitempty"`
	// Category classifies the failure.
	Category Category `yaml:"category,omitempty"`
	// Error is the failure message.
	Error string `yaml:"error,omitempty"`
	// StartedAt and FinishedAt bound the run in UTC.
	StartedAt  time.Time `yaml:"started_at"`
	FinishedAt time.Time `yaml:"finished_at,omitempty"`
	// Steps holds one result per executed step.
	Steps []StepResult `yaml:"steps,omitempty"`
	// Version is the packaged application version.
	Version string `yaml:"version,omitempty"`
	// ArchivePath is where the archive was written inside the workspace.
	ArchivePath string `yaml:"archive_path,omitempty"`
	// ArtifactKey is the storage key of the published build artifact.
	ArtifactKey string `yaml:"artifact_key,omitempty"`
	// ReleaseURL is the web page of the created release.
	ReleaseURL string `yaml:"release_url,omitempty"`
	// AssetURL is the download URL of the uploaded archive.
	AssetURL string `yaml:"asset_url,omitempty"`
}

// NewRun starts a run record for trigger.
func NewRun(trigger *Trigger) *Run {
	return &Run{
		ID:        uuid.NewString(),
		Trigger:   trigger,
		Status:    StatusRunning,
		StartedAt: time.Now().UTC(),
	}
}

// Record appends a step result.
func (r *Run) Record(step Step, startedAt time.Time, err error) {
	finishedAt := time.Now().UTC()
	status := StatusSucceeded

	if err != nil {
		status = StatusFailed
	}

	r.Steps = append(r.Steps, StepResult{
		Step:       step,
		Status:     status,
		Duration:   finishedAt.Sub(startedAt),
		StartedAt:  startedAt.UTC(),
		FinishedAt: finishedAt,
	})
}

// Finish closes the run, deriving failure details from err.
func (r *Run) Finish(err error) {
	r.FinishedAt = time.Now().UTC()

	if err == nil {
		r.Status = StatusSucceeded
		return
	}

	r.Status = StatusFailed
	r.Error = err.Error()
	r.Category = CategoryOf(err)

	if step, ok := FailedStep(err); ok {
		r.FailedStep = step
	}
}

// Duration is the wall time of a finished run.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}

	return r.FinishedAt.Sub(r.StartedAt)
}

// Clone returns a copy safe to hand out to other goroutines.
func (r *Run) Clone() *Run {
	if r == nil {
		return nil
	}

	cloned := *r
	cloned.Steps = append([]StepResult(nil), r.Steps...)

	if r.Trigger != nil {
		trigger := *r.Trigger
		if r.Trigger.Actor != nil {
			actor := *r.Trigger.Actor
			trigger.Actor = &actor
		}

		cloned.Trigger = &trigger
	}

	return &cloned
}
