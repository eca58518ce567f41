// Package exec provides command execution for release pipeline steps.
// External tools (test runners, documentation builders, packaging and upload
// tools) are invoked through the Executor interface so pipeline logic can be
// tested without spawning processes.
package exec

import (
	"context"
	"io"
	"time"
)

// Executor defines the interface for executing external commands.
type Executor interface {
	// Run executes a command with the given options and returns the result.
	Run(ctx context.Context, cmd []string, opts *Opts) (Result, error)

	// Name returns the executor name for logging/debugging.
	Name() string
}

// Opts contains options for command execution.
type Opts struct {
	// Env contains additional environment variables (KEY=VALUE format),
	// appended to the current process environment.
	Env []string

	// Timeout is the maximum duration for command execution. Zero means no
	// timeout beyond the parent context.
	Timeout time.Duration

	// WorkDir is the working directory for the command.
	WorkDir string

	// Stream, when set, receives combined stdout/stderr as the command runs.
	// Release steps use this so operators see tool output live.
	Stream io.Writer
}

// Result contains the result of command execution.
type Result struct {
	// Stdout contains the captured standard output.
	Stdout string

	// Stderr contains the captured standard error output.
	Stderr string

	// Duration is how long the command took to execute.
	Duration time.Duration

	// ExitCode is the exit code of the command. -1 means the command could
	// not be started.
	ExitCode int
}

// DefaultOpts returns default execution options.
func DefaultOpts() Opts {
	return Opts{
		Timeout: 30 * time.Minute,
	}
}
