package pipeline

import (
	"errors"
	"fmt"
)

// Category groups step failures by cause.
type Category string

// Failure categories.
const (
	CategoryEnvironment Category = "environment"
	CategoryDependency  Category = "dependency"
	CategoryCompilation Category = "compilation"
	CategoryAssembly    Category = "assembly"
	CategoryArtifact    Category = "artifact"
	CategoryRemote      Category = "remote"
	CategoryUnknown     Category = "unknown"
)

// StepError reports the step a run stopped at and why.
type StepError struct {
	// Step is the stage that failed.
	Step Step
	// Category classifies the failure.
	Category Category
	// Err is the underlying cause.
	Err error
}

// NewStepError wraps err for step, using the step's own category.
func NewStepError(step Step, err error) *StepError {
	return &StepError{
		Step:     step,
		Category: step.Category(),
		Err:      err,
	}
}

func (e *StepError) Error() string {
	if e == nil {
		return ""
	}

	return fmt.Sprintf("step %s failed (%s): %v", e.Step, e.Category, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// CategoryOf returns the category of the first StepError in err's chain.
func CategoryOf(err error) Category {
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		return stepErr.Category
	}

	return CategoryUnknown
}

// FailedStep returns the step of the first StepError in err's chain.
func FailedStep(err error) (Step, bool) {
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		return stepErr.Step, true
	}

	return "", false
}
