// Package preflight validates repository state before a release starts.
// The release workflow it replaces simply trusted the operator to run it on
// a clean checkout of the main branch; these checks make that explicit, with
// the branch and clean-tree checks toggleable in config.
package preflight

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"relkit/pkg/config"
	"relkit/pkg/gitx"
)

// Check identifies a single preflight check.
type Check string

// Check constants for release preconditions.
const (
	CheckGitBinary  Check = "git-binary"
	CheckWorkTree   Check = "work-tree"
	CheckBranch     Check = "branch"
	CheckCleanTree  Check = "clean-tree"
	CheckRemote     Check = "remote"
	CheckUploadTool Check = "upload-tool"
)

// CheckResult represents the outcome of a single preflight check.
type CheckResult struct {
	Error   error
	Message string
	Check   Check
	Passed  bool
}

// Results contains all preflight check results.
type Results struct {
	Summary string
	Checks  []CheckResult
	Passed  bool
}

// LookPathFunc resolves a binary on PATH; injectable for tests.
type LookPathFunc func(file string) (string, error)

// Runner executes preflight checks against a repository.
type Runner struct {
	repo     *gitx.Repo
	cfg      *config.Config
	lookPath LookPathFunc
}

// NewRunner creates a preflight runner. lookPath may be nil to use the
// default PATH lookup.
func NewRunner(repo *gitx.Repo, cfg *config.Config, lookPath LookPathFunc) *Runner {
	if lookPath == nil {
		lookPath = defaultLookPath
	}
	return &Runner{repo: repo, cfg: cfg, lookPath: lookPath}
}

// RequiredChecks determines which checks apply under the configuration.
func (r *Runner) RequiredChecks() []Check {
	checks := []Check{CheckGitBinary, CheckWorkTree}
	if r.cfg.Checks.RequireBranch {
		checks = append(checks, CheckBranch)
	}
	if r.cfg.Checks.RequireCleanTree {
		checks = append(checks, CheckCleanTree)
	}
	checks = append(checks, CheckRemote, CheckUploadTool)
	return checks
}

// Run executes all required checks and aggregates the results.
func (r *Runner) Run(ctx context.Context) *Results {
	required := r.RequiredChecks()

	results := &Results{
		Checks: make([]CheckResult, 0, len(required)),
		Passed: true,
	}

	failed := 0
	for _, check := range required {
		result := r.runCheck(ctx, check)
		results.Checks = append(results.Checks, result)
		if !result.Passed {
			results.Passed = false
			failed++
		}
	}

	if results.Passed {
		results.Summary = fmt.Sprintf("All %d preflight checks passed", len(results.Checks))
	} else {
		results.Summary = fmt.Sprintf("%d of %d preflight checks failed", failed, len(results.Checks))
	}

	return results
}

// Validate runs preflight checks and returns an error if any fail.
// Use this for simple pass/fail validation before the pipeline starts.
func (r *Runner) Validate(ctx context.Context) error {
	results := r.Run(ctx)
	if results.Passed {
		return nil
	}

	var failedChecks []string
	for i := range results.Checks {
		if !results.Checks[i].Passed {
			failedChecks = append(failedChecks, FormatCheckError(results.Checks[i]))
		}
	}
	return errors.New(strings.Join(failedChecks, "\n"))
}

func (r *Runner) runCheck(ctx context.Context, check Check) CheckResult {
	switch check {
	case CheckGitBinary:
		return r.checkGitBinary()
	case CheckWorkTree:
		return r.checkWorkTree(ctx)
	case CheckBranch:
		return r.checkBranch(ctx)
	case CheckCleanTree:
		return r.checkCleanTree(ctx)
	case CheckRemote:
		return r.checkRemote(ctx)
	case CheckUploadTool:
		return r.checkUploadTool()
	default:
		return CheckResult{
			Check:   check,
			Passed:  false,
			Message: "Unknown check",
			Error:   fmt.Errorf("unknown check: %s", check),
		}
	}
}
