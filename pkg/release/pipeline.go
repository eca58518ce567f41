package release

import (
	"context"
	"fmt"
	"time"

	"relkit/pkg/logx"
)

// Observer receives each step outcome as it happens. Used to feed the
// journal and metrics without coupling the driver to either.
type Observer func(position int, result StepResult)

// Pipeline executes steps strictly in order. Any failure aborts the
// remainder immediately unless the failing step's Tolerate predicate
// accepts the error. There are no retries and no rollback: a failure
// midway leaves earlier side effects in place.
type Pipeline struct {
	logger   *logx.Logger
	observer Observer
	steps    []Step
}

// NewPipeline creates a pipeline over the given steps. observer may be nil.
func NewPipeline(steps []Step, observer Observer) *Pipeline {
	return &Pipeline{
		logger:   logx.NewLogger("pipeline"),
		observer: observer,
		steps:    steps,
	}
}

// Steps returns the ordered step names (for plan output).
func (p *Pipeline) Steps() []string {
	names := make([]string, 0, len(p.steps))
	for i := range p.steps {
		names = append(names, p.steps[i].Name)
	}
	return names
}

// Run executes the pipeline. It returns the results of all executed steps
// and the error that aborted the run, if any. Steps after a fatal failure
// are never executed.
func (p *Pipeline) Run(ctx context.Context) ([]StepResult, error) {
	results := make([]StepResult, 0, len(p.steps))

	for i := range p.steps {
		step := &p.steps[i]
		p.logger.Info("Step %d/%d: %s", i+1, len(p.steps), step.Name)

		start := time.Now()
		err := step.Run(ctx)
		duration := time.Since(start)

		result := StepResult{
			Name:     step.Name,
			Duration: duration,
			Err:      err,
		}

		switch {
		case err == nil:
			result.Status = StepPassed
			p.logger.Info("Step %s passed (%.1fs)", step.Name, duration.Seconds())

		case step.Tolerate != nil && step.Tolerate(err):
			result.Status = StepTolerated
			result.Detail = err.Error()
			p.logger.Info("Step %s skipped: %s", step.Name, err.Error())

		default:
			result.Status = StepFailed
			result.Detail = err.Error()
			p.logger.Error("Step %s failed: %s", step.Name, err.Error())
		}

		results = append(results, result)
		if p.observer != nil {
			p.observer(i, result)
		}

		if result.Status == StepFailed {
			return results, fmt.Errorf("step %s: %w", step.Name, err)
		}
	}

	return results, nil
}
