package release

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"relkit/pkg/config"
	"relkit/pkg/exec"
	"relkit/pkg/gitx"
	"relkit/pkg/semver"
	"relkit/pkg/utils"
)

// Step name constants, in execution order.
const (
	StepTests       = "tests"
	StepDocsBuild   = "docs-build"
	StepDocsCommit  = "docs-commit"
	StepDocsPush    = "docs-push"
	StepMajorBranch = "major-branch"
	StepTag         = "tag"
	StepDistBuild   = "dist-build"
	StepUpload      = "upload"
)

// Env carries everything the standard steps need.
type Env struct {
	Cfg     *config.Config
	Repo    *gitx.Repo
	Exec    exec.Executor
	Version semver.Version

	// Out receives live output from external tools.
	Out io.Writer

	// UploadEnv holds extra KEY=VALUE pairs (decrypted upload credentials)
	// for the upload command's environment.
	UploadEnv []string

	// SkipUpload drops the upload step from the sequence.
	SkipUpload bool
}

// BuildSteps assembles the standard release sequence for env. The step
// order is fixed: tests, docs build, docs commit/push, major-branch
// fast-forward/push, tag/push, distribution build, upload. Documentation
// steps are present only when a docs build is configured.
func BuildSteps(env *Env) []Step {
	steps := []Step{
		{Name: StepTests, Run: env.runTests},
	}

	if env.Cfg.HasDocs() {
		steps = append(steps,
			Step{Name: StepDocsBuild, Run: env.runDocsBuild},
			Step{
				Name: StepDocsCommit,
				Run:  env.runDocsCommit,
				// The one tolerated failure: committing already-current docs.
				Tolerate: func(err error) bool {
					return errors.Is(err, gitx.ErrNothingToCommit)
				},
			},
			Step{Name: StepDocsPush, Run: env.runDocsPush},
		)
	}

	steps = append(steps,
		Step{Name: StepMajorBranch, Run: env.runMajorBranch},
		Step{Name: StepTag, Run: env.runTag},
		Step{Name: StepDistBuild, Run: env.runDistBuild},
	)

	if !env.SkipUpload {
		steps = append(steps, Step{Name: StepUpload, Run: env.runUpload})
	}

	return steps
}

// runCommand executes an external tool, streaming its output, and converts
// a non-zero exit into a ToolError so the CLI can propagate the code.
func (env *Env) runCommand(ctx context.Context, cmd []string, extraEnv []string) error {
	opts := exec.DefaultOpts()
	opts.WorkDir = env.Repo.Dir()
	opts.Stream = env.Out
	opts.Env = extraEnv

	result, err := env.Exec.Run(ctx, cmd, &opts)
	if err != nil {
		return err
	}
	if result.ExitCode != 0 {
		return &ToolError{Tool: cmd[0], ExitCode: result.ExitCode}
	}
	return nil
}

func (env *Env) runTests(ctx context.Context) error {
	opts := exec.DefaultOpts()
	opts.WorkDir = env.Repo.Dir()
	opts.Stream = env.Out
	opts.Timeout = env.Cfg.TestTimeout()

	result, err := env.Exec.Run(ctx, env.Cfg.Test.Command, &opts)
	if err != nil {
		return err
	}
	if result.ExitCode != 0 {
		return &ToolError{Tool: env.Cfg.Test.Command[0], ExitCode: result.ExitCode}
	}
	return nil
}

func (env *Env) runDocsBuild(ctx context.Context) error {
	return env.runCommand(ctx, env.Cfg.Docs.BuildCommand, nil)
}

func (env *Env) runDocsCommit(ctx context.Context) error {
	if err := env.Repo.Add(ctx, env.Cfg.Docs.CommitPaths...); err != nil {
		return err
	}
	return env.Repo.Commit(ctx, env.Cfg.DocsCommitMessage(env.Version.String()))
}

func (env *Env) runDocsPush(ctx context.Context) error {
	return env.Repo.Push(ctx, env.Cfg.Git.Remote, env.Cfg.Git.MainBranch)
}

func (env *Env) runMajorBranch(ctx context.Context) error {
	branch := env.Version.MajorBranch()
	if err := env.Repo.FastForward(ctx, branch, env.Cfg.Git.MainBranch); err != nil {
		return err
	}
	return env.Repo.Push(ctx, env.Cfg.Git.Remote, branch)
}

func (env *Env) runTag(ctx context.Context) error {
	tag := env.Version.Tag(env.Cfg.Git.TagPrefix)
	if err := env.Repo.TagAnnotated(ctx, tag, tag); err != nil {
		return err
	}
	return env.Repo.Push(ctx, env.Cfg.Git.Remote, tag)
}

func (env *Env) runDistBuild(ctx context.Context) error {
	distDir := env.distDir()
	if err := utils.EnsureDir(distDir); err != nil {
		return err
	}
	if err := utils.CleanDirContents(distDir); err != nil {
		return fmt.Errorf("failed to clean %s: %w", distDir, err)
	}

	if err := env.runCommand(ctx, env.Cfg.Dist.BuildCommand, nil); err != nil {
		return err
	}

	artifacts, err := utils.ListFiles(distDir)
	if err != nil {
		return fmt.Errorf("failed to list artifacts: %w", err)
	}
	if len(artifacts) == 0 {
		return fmt.Errorf("no artifacts produced in %s", distDir)
	}
	for _, name := range artifacts {
		if !strings.Contains(name, env.Version.String()) {
			return fmt.Errorf("artifact %s does not carry version %s", name, env.Version)
		}
	}
	return nil
}

func (env *Env) runUpload(ctx context.Context) error {
	distDir := env.distDir()
	artifacts, err := utils.ListFiles(distDir)
	if err != nil {
		return fmt.Errorf("failed to list artifacts: %w", err)
	}
	if len(artifacts) == 0 {
		return fmt.Errorf("nothing to upload in %s", distDir)
	}

	cmd := make([]string, 0, len(env.Cfg.Dist.UploadCommand)+len(artifacts))
	cmd = append(cmd, env.Cfg.Dist.UploadCommand...)
	for _, name := range artifacts {
		cmd = append(cmd, filepath.Join(distDir, name))
	}

	return env.runCommand(ctx, cmd, env.UploadEnv)
}

func (env *Env) distDir() string {
	if filepath.IsAbs(env.Cfg.Dist.Dir) {
		return env.Cfg.Dist.Dir
	}
	return filepath.Join(env.Repo.Dir(), env.Cfg.Dist.Dir)
}
