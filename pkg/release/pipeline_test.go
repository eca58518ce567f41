package release

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipeline_RunsInOrder(t *testing.T) {
	var order []string
	mkStep := func(name string) Step {
		return Step{Name: name, Run: func(context.Context) error {
			order = append(order, name)
			return nil
		}}
	}

	p := NewPipeline([]Step{mkStep("one"), mkStep("two"), mkStep("three")}, nil)
	results, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"one", "two", "three"}, order)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.Equal(t, StepPassed, r.Status)
	}
}

func TestPipeline_FailFast(t *testing.T) {
	boom := errors.New("tests failed")
	var ranLater bool

	steps := []Step{
		{Name: "tests", Run: func(context.Context) error { return boom }},
		{Name: "tag", Run: func(context.Context) error {
			ranLater = true
			return nil
		}},
	}

	p := NewPipeline(steps, nil)
	results, err := p.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	// No step after the failure executes.
	assert.False(t, ranLater)
	require.Len(t, results, 1)
	assert.Equal(t, StepFailed, results[0].Status)
}

func TestPipeline_ToleratedFailureContinues(t *testing.T) {
	tolerable := errors.New("nothing to commit")
	var pushed bool

	steps := []Step{
		{
			Name:     "docs-commit",
			Run:      func(context.Context) error { return tolerable },
			Tolerate: func(err error) bool { return errors.Is(err, tolerable) },
		},
		{Name: "docs-push", Run: func(context.Context) error {
			pushed = true
			return nil
		}},
	}

	p := NewPipeline(steps, nil)
	results, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, pushed)
	require.Len(t, results, 2)
	assert.Equal(t, StepTolerated, results[0].Status)
	assert.Equal(t, "nothing to commit", results[0].Detail)
	assert.Equal(t, StepPassed, results[1].Status)
}

func TestPipeline_ToleranceDoesNotSwallowOtherErrors(t *testing.T) {
	tolerable := errors.New("nothing to commit")
	fatal := errors.New("disk full")

	steps := []Step{
		{
			Name:     "docs-commit",
			Run:      func(context.Context) error { return fatal },
			Tolerate: func(err error) bool { return errors.Is(err, tolerable) },
		},
		{Name: "docs-push", Run: func(context.Context) error {
			t.Fatal("must not run after fatal failure")
			return nil
		}},
	}

	p := NewPipeline(steps, nil)
	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, fatal)
}

func TestPipeline_ObserverSeesEveryResult(t *testing.T) {
	var seen []string
	observer := func(position int, result StepResult) {
		seen = append(seen, result.Name+":"+result.Status)
	}

	boom := errors.New("exit status 2")
	steps := []Step{
		{Name: "tests", Run: func(context.Context) error { return nil }},
		{Name: "dist-build", Run: func(context.Context) error { return boom }},
	}

	p := NewPipeline(steps, observer)
	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{"tests:passed", "dist-build:failed"}, seen)
}

func TestPipeline_Steps(t *testing.T) {
	p := NewPipeline([]Step{{Name: "a"}, {Name: "b"}}, nil)
	assert.Equal(t, []string{"a", "b"}, p.Steps())
}
