package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTextfile(t *testing.T) {
	recorder := NewRecorder("pyinfra")
	recorder.ObserveStep("tests", "passed", 3*time.Second)
	recorder.ObserveStep("docs-commit", "tolerated", 120*time.Millisecond)
	recorder.SetOutcome("2.0.0", "succeeded")

	path := filepath.Join(t.TempDir(), "metrics", "relkit.prom")
	require.NoError(t, recorder.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "relkit_step_duration_seconds")
	assert.Contains(t, content, `step="tests"`)
	assert.Contains(t, content, `status="passed"`)
	assert.Contains(t, content, `project="pyinfra"`)
	assert.Contains(t, content, "relkit_release_info")
	assert.Contains(t, content, `version="2.0.0"`)
	assert.Contains(t, content, "relkit_last_run_timestamp_seconds")
}

func TestWriteTextfile_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relkit.prom")

	first := NewRecorder("pyinfra")
	first.SetOutcome("1.9.0", "failed")
	require.NoError(t, first.WriteTextfile(path))

	second := NewRecorder("pyinfra")
	second.SetOutcome("2.0.0", "succeeded")
	require.NoError(t, second.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `version="2.0.0"`)
	assert.NotContains(t, string(data), `version="1.9.0"`)
}
