// Package release implements the release pipeline: an ordered list of named,
// independently testable steps executed by a small driver. The driver is
// fail-fast; the only deviation is a per-step tolerance predicate that can
// classify a specific failure as non-fatal (used for the documentation commit
// when there is nothing to commit).
package release

import (
	"context"
	"fmt"
	"time"
)

// Step status constants.
const (
	StepPassed    = "passed"
	StepFailed    = "failed"
	StepTolerated = "tolerated"
)

// Step is a single named unit of the release sequence.
type Step struct {
	// Name identifies the step in logs, the journal and metrics.
	Name string

	// Run performs the step's side effects.
	Run func(ctx context.Context) error

	// Tolerate, when non-nil, classifies an error as non-fatal. A tolerated
	// failure is logged as informational and the pipeline continues.
	Tolerate func(err error) bool
}

// StepResult is the recorded outcome of one executed step.
type StepResult struct {
	Err      error
	Name     string
	Status   string
	Detail   string
	Duration time.Duration
}

// ToolError reports an external tool that exited non-zero. The CLI
// propagates the tool's exit code as its own.
type ToolError struct {
	Tool     string
	ExitCode int
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s failed with exit code %d", e.Tool, e.ExitCode)
}
