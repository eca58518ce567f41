package preflight

import (
	"context"
	"fmt"
	"os/exec"
)

func defaultLookPath(file string) (string, error) {
	return exec.LookPath(file) //nolint:wrapcheck // thin PATH lookup adapter
}

func (r *Runner) checkGitBinary() CheckResult {
	if _, err := r.lookPath("git"); err != nil {
		return CheckResult{
			Check:   CheckGitBinary,
			Passed:  false,
			Message: "git binary not found on PATH",
			Error:   err,
		}
	}
	return CheckResult{Check: CheckGitBinary, Passed: true, Message: "git binary available"}
}

func (r *Runner) checkWorkTree(ctx context.Context) CheckResult {
	if !r.repo.IsWorkTree(ctx) {
		return CheckResult{
			Check:   CheckWorkTree,
			Passed:  false,
			Message: fmt.Sprintf("%s is not inside a git working tree", r.repo.Dir()),
		}
	}
	return CheckResult{Check: CheckWorkTree, Passed: true, Message: "inside a git working tree"}
}

func (r *Runner) checkBranch(ctx context.Context) CheckResult {
	branch, err := r.repo.CurrentBranch(ctx)
	if err != nil {
		return CheckResult{
			Check:   CheckBranch,
			Passed:  false,
			Message: "could not determine current branch",
			Error:   err,
		}
	}
	if branch != r.cfg.Git.MainBranch {
		return CheckResult{
			Check:  CheckBranch,
			Passed: false,
			Message: fmt.Sprintf("on branch %q, releases run from %q",
				branch, r.cfg.Git.MainBranch),
		}
	}
	return CheckResult{
		Check:   CheckBranch,
		Passed:  true,
		Message: fmt.Sprintf("on release branch %q", branch),
	}
}

func (r *Runner) checkCleanTree(ctx context.Context) CheckResult {
	clean, err := r.repo.IsClean(ctx)
	if err != nil {
		return CheckResult{
			Check:   CheckCleanTree,
			Passed:  false,
			Message: "could not check working tree status",
			Error:   err,
		}
	}
	if !clean {
		return CheckResult{
			Check:   CheckCleanTree,
			Passed:  false,
			Message: "working tree has uncommitted changes",
		}
	}
	return CheckResult{Check: CheckCleanTree, Passed: true, Message: "working tree is clean"}
}

func (r *Runner) checkRemote(ctx context.Context) CheckResult {
	if !r.repo.HasRemote(ctx, r.cfg.Git.Remote) {
		return CheckResult{
			Check:   CheckRemote,
			Passed:  false,
			Message: fmt.Sprintf("remote %q is not configured", r.cfg.Git.Remote),
		}
	}
	return CheckResult{
		Check:   CheckRemote,
		Passed:  true,
		Message: fmt.Sprintf("remote %q configured", r.cfg.Git.Remote),
	}
}

func (r *Runner) checkUploadTool() CheckResult {
	if len(r.cfg.Dist.UploadCommand) == 0 {
		return CheckResult{
			Check:   CheckUploadTool,
			Passed:  false,
			Message: "no upload command configured",
		}
	}
	tool := r.cfg.Dist.UploadCommand[0]
	if _, err := r.lookPath(tool); err != nil {
		return CheckResult{
			Check:   CheckUploadTool,
			Passed:  false,
			Message: fmt.Sprintf("upload tool %q not found on PATH", tool),
			Error:   err,
		}
	}
	return CheckResult{
		Check:   CheckUploadTool,
		Passed:  true,
		Message: fmt.Sprintf("upload tool %q available", tool),
	}
}
