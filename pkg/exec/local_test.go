package exec

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalExec_Name(t *testing.T) {
	assert.Equal(t, "local", NewLocalExec().Name())
}

func TestLocalExec_Run_Success(t *testing.T) {
	e := NewLocalExec()

	opts := DefaultOpts()
	result, err := e.Run(context.Background(), []string{"echo", "hello world"}, &opts)
	require.NoError(t, err)

	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, "hello world", strings.TrimSpace(result.Stdout))
	assert.Positive(t, result.Duration)
}

func TestLocalExec_Run_NonZeroExit(t *testing.T) {
	e := NewLocalExec()

	opts := DefaultOpts()
	result, err := e.Run(context.Background(), []string{"false"}, &opts)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ExitCode)
}

func TestLocalExec_Run_EmptyCommand(t *testing.T) {
	e := NewLocalExec()

	opts := DefaultOpts()
	_, err := e.Run(context.Background(), nil, &opts)
	require.Error(t, err)
}

func TestLocalExec_Run_MissingWorkDir(t *testing.T) {
	e := NewLocalExec()

	opts := DefaultOpts()
	opts.WorkDir = "/nonexistent/path/for/relkit/tests"
	_, err := e.Run(context.Background(), []string{"true"}, &opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "working directory does not exist")
}

func TestLocalExec_Run_StreamsOutput(t *testing.T) {
	e := NewLocalExec()

	var stream bytes.Buffer
	opts := DefaultOpts()
	opts.Stream = &stream

	result, err := e.Run(context.Background(), []string{"echo", "streamed"}, &opts)
	require.NoError(t, err)
	assert.Equal(t, "streamed", strings.TrimSpace(stream.String()))
	assert.Equal(t, "streamed", strings.TrimSpace(result.Stdout))
}

func TestLocalExec_Run_Env(t *testing.T) {
	e := NewLocalExec()

	opts := DefaultOpts()
	opts.Env = []string{"RELKIT_TEST_VALUE=release"}

	result, err := e.Run(context.Background(), []string{"sh", "-c", "echo $RELKIT_TEST_VALUE"}, &opts)
	require.NoError(t, err)
	assert.Equal(t, "release", strings.TrimSpace(result.Stdout))
}

func TestLocalExec_Run_Timeout(t *testing.T) {
	e := NewLocalExec()

	opts := DefaultOpts()
	opts.Timeout = 50 * time.Millisecond

	result, err := e.Run(context.Background(), []string{"sleep", "5"}, &opts)
	if err == nil {
		// Some platforms report the kill via exit code instead.
		assert.NotEqual(t, 0, result.ExitCode)
		return
	}
	assert.Equal(t, -1, result.ExitCode)
}
