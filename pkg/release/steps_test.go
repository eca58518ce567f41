package release

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relkit/pkg/config"
	"relkit/pkg/exec"
	"relkit/pkg/gitx"
	"relkit/pkg/semver"
)

// scriptedExec records every command and lets tests script exit codes and
// side effects per command prefix.
type scriptedExec struct {
	commands  [][]string
	exitCodes map[string]int
	onRun     func(cmd []string)
}

func newScriptedExec() *scriptedExec {
	return &scriptedExec{exitCodes: make(map[string]int)}
}

func (s *scriptedExec) Name() string { return "scripted" }

func (s *scriptedExec) Run(_ context.Context, cmd []string, _ *exec.Opts) (exec.Result, error) {
	s.commands = append(s.commands, cmd)
	if s.onRun != nil {
		s.onRun(cmd)
	}
	return exec.Result{ExitCode: s.exitCodes[cmd[0]]}, nil
}

func (s *scriptedExec) commandLines() []string {
	lines := make([]string, 0, len(s.commands))
	for _, cmd := range s.commands {
		lines = append(lines, strings.Join(cmd, " "))
	}
	return lines
}

// recordingGit records git invocations and can fail scripted subcommands.
type recordingGit struct {
	calls [][]string
	fail  map[string]error
}

func newRecordingGit() *recordingGit {
	return &recordingGit{fail: make(map[string]error)}
}

func (g *recordingGit) Run(_ context.Context, _ string, args ...string) ([]byte, error) {
	g.calls = append(g.calls, args)
	if err, ok := g.fail[args[0]]; ok {
		return []byte(err.Error()), err
	}
	return nil, nil
}

func (g *recordingGit) commandLines() []string {
	lines := make([]string, 0, len(g.calls))
	for _, call := range g.calls {
		lines = append(lines, strings.Join(call, " "))
	}
	return lines
}

func releaseConfig() *config.Config {
	cfg := config.Default()
	cfg.Project.Name = "pyinfra"
	cfg.Version.Source = config.VersionSourceValue
	cfg.Version.Value = "2.0.0"
	cfg.Test.Command = []string{"pytest"}
	cfg.Docs.BuildCommand = []string{"sphinx-build", "docs", "docs/build"}
	cfg.Dist.BuildCommand = []string{"python", "setup.py", "sdist", "bdist_wheel"}
	cfg.Dist.UploadCommand = []string{"twine", "upload"}
	return cfg
}

func testEnv(t *testing.T, cfg *config.Config, executor *scriptedExec, git *recordingGit) *Env {
	t.Helper()
	v, err := semver.Parse(cfg.Version.Value)
	require.NoError(t, err)

	return &Env{
		Cfg:     cfg,
		Repo:    gitx.NewRepo(git, t.TempDir()),
		Exec:    executor,
		Version: v,
		Out:     io.Discard,
	}
}

// writeArtifacts makes the scripted executor drop distribution files when
// the build command runs, the way setup.py would.
func writeArtifacts(t *testing.T, env *Env, names ...string) {
	t.Helper()
	executor := env.Exec.(*scriptedExec)
	prev := executor.onRun
	executor.onRun = func(cmd []string) {
		if prev != nil {
			prev(cmd)
		}
		if cmd[0] != "python" {
			return
		}
		distDir := filepath.Join(env.Repo.Dir(), env.Cfg.Dist.Dir)
		require.NoError(t, os.MkdirAll(distDir, 0755))
		for _, name := range names {
			require.NoError(t, os.WriteFile(filepath.Join(distDir, name), []byte("artifact"), 0644))
		}
	}
}

func TestBuildSteps_Order(t *testing.T) {
	env := testEnv(t, releaseConfig(), newScriptedExec(), newRecordingGit())

	names := NewPipeline(BuildSteps(env), nil).Steps()
	assert.Equal(t, []string{
		StepTests,
		StepDocsBuild,
		StepDocsCommit,
		StepDocsPush,
		StepMajorBranch,
		StepTag,
		StepDistBuild,
		StepUpload,
	}, names)
}

func TestBuildSteps_NoDocsConfigured(t *testing.T) {
	cfg := releaseConfig()
	cfg.Docs.BuildCommand = nil
	env := testEnv(t, cfg, newScriptedExec(), newRecordingGit())

	names := NewPipeline(BuildSteps(env), nil).Steps()
	assert.Equal(t, []string{
		StepTests,
		StepMajorBranch,
		StepTag,
		StepDistBuild,
		StepUpload,
	}, names)
}

func TestBuildSteps_SkipUpload(t *testing.T) {
	env := testEnv(t, releaseConfig(), newScriptedExec(), newRecordingGit())
	env.SkipUpload = true

	names := NewPipeline(BuildSteps(env), nil).Steps()
	assert.NotContains(t, names, StepUpload)
}

func TestRun_TestFailureStopsEverything(t *testing.T) {
	executor := newScriptedExec()
	executor.exitCodes["pytest"] = 2
	git := newRecordingGit()
	env := testEnv(t, releaseConfig(), executor, git)

	_, err := NewPipeline(BuildSteps(env), nil).Run(context.Background())
	require.Error(t, err)

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "pytest", toolErr.Tool)
	assert.Equal(t, 2, toolErr.ExitCode)

	// Only the test command ran; no git or upload commands were invoked.
	assert.Equal(t, []string{"pytest"}, executor.commandLines())
	assert.Empty(t, git.calls)
}

func TestRun_EmptyDocsCommitIsTolerated(t *testing.T) {
	executor := newScriptedExec()
	git := newRecordingGit()
	output := "nothing to commit, working tree clean"
	git.fail["commit"] = fmt.Errorf("exit status 1: %s", output)

	env := testEnv(t, releaseConfig(), executor, git)
	writeArtifacts(t, env, "pyinfra-2.0.0.tar.gz", "pyinfra-2.0.0-py3-none-any.whl")

	results, err := NewPipeline(BuildSteps(env), nil).Run(context.Background())
	require.NoError(t, err)

	byName := make(map[string]StepResult)
	for _, r := range results {
		byName[r.Name] = r
	}
	assert.Equal(t, StepTolerated, byName[StepDocsCommit].Status)
	// The branch update still happened after the tolerated commit.
	assert.Equal(t, StepPassed, byName[StepMajorBranch].Status)
	assert.Contains(t, git.commandLines(), "fetch . main:2.x")
}

func TestRun_EndToEnd(t *testing.T) {
	executor := newScriptedExec()
	git := newRecordingGit()
	env := testEnv(t, releaseConfig(), executor, git)
	writeArtifacts(t, env, "pyinfra-2.0.0.tar.gz", "pyinfra-2.0.0-py3-none-any.whl")

	results, err := NewPipeline(BuildSteps(env), nil).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 8)

	gitLines := git.commandLines()
	assert.Equal(t, []string{
		"add -- docs",
		"commit -m Documentation update for v2.0.0.",
		"push origin main",
		"fetch . main:2.x",
		"push origin 2.x",
		"tag -a v2.0.0 -m v2.0.0",
		"push origin v2.0.0",
	}, gitLines)

	execLines := executor.commandLines()
	require.Len(t, execLines, 4)
	assert.Equal(t, "pytest", execLines[0])
	assert.Equal(t, "sphinx-build docs docs/build", execLines[1])
	assert.Equal(t, "python setup.py sdist bdist_wheel", execLines[2])
	// Upload receives both artifacts, sorted.
	assert.Contains(t, execLines[3], "twine upload")
	assert.Contains(t, execLines[3], "pyinfra-2.0.0-py3-none-any.whl")
	assert.Contains(t, execLines[3], "pyinfra-2.0.0.tar.gz")
}

func TestRun_ArtifactsMustCarryVersion(t *testing.T) {
	executor := newScriptedExec()
	git := newRecordingGit()
	env := testEnv(t, releaseConfig(), executor, git)
	writeArtifacts(t, env, "pyinfra-1.9.9.tar.gz")

	_, err := NewPipeline(BuildSteps(env), nil).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not carry version 2.0.0")
}

func TestRun_NoArtifactsProduced(t *testing.T) {
	executor := newScriptedExec()
	git := newRecordingGit()
	env := testEnv(t, releaseConfig(), executor, git)

	_, err := NewPipeline(BuildSteps(env), nil).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no artifacts produced")
}

func TestRun_NonFastForwardAborts(t *testing.T) {
	executor := newScriptedExec()
	git := newRecordingGit()
	git.fail["fetch"] = errors.New("! [rejected] main -> 2.x (non-fast-forward)")

	env := testEnv(t, releaseConfig(), executor, git)

	_, err := NewPipeline(BuildSteps(env), nil).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, gitx.ErrNotFastForward)

	// Tagging never happened.
	for _, line := range git.commandLines() {
		assert.NotContains(t, line, "tag")
	}
}

func TestRun_UploadEnvPassedThrough(t *testing.T) {
	executor := newScriptedExec()
	var uploadOpts *exec.Opts
	git := newRecordingGit()
	env := testEnv(t, releaseConfig(), executor, git)
	env.UploadEnv = []string{"TWINE_PASSWORD=pypi-token"}
	writeArtifacts(t, env, "pyinfra-2.0.0.tar.gz")

	// Capture the opts handed to the upload command.
	base := env.Exec
	env.Exec = execFunc(func(ctx context.Context, cmd []string, opts *exec.Opts) (exec.Result, error) {
		if cmd[0] == "twine" {
			uploadOpts = opts
		}
		return base.Run(ctx, cmd, opts)
	})

	_, err := NewPipeline(BuildSteps(env), nil).Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, uploadOpts)
	assert.Equal(t, []string{"TWINE_PASSWORD=pypi-token"}, uploadOpts.Env)
}

// execFunc adapts a function to the exec.Executor interface.
type execFunc func(ctx context.Context, cmd []string, opts *exec.Opts) (exec.Result, error)

func (f execFunc) Run(ctx context.Context, cmd []string, opts *exec.Opts) (exec.Result, error) {
	return f(ctx, cmd, opts)
}

func (f execFunc) Name() string { return "func" }
