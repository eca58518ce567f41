package gitx

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors classified from git output. The release pipeline treats
// ErrNothingToCommit as the single tolerated failure.
var (
	// ErrNothingToCommit indicates a commit was attempted with no staged
	// changes.
	ErrNothingToCommit = errors.New("nothing to commit")

	// ErrNotFastForward indicates a branch update that would require a merge
	// commit or history rewrite.
	ErrNotFastForward = errors.New("not a fast-forward")
)

// Repo exposes release-relevant operations on a single repository.
type Repo struct {
	runner GitRunner
	dir    string
}

// NewRepo creates a Repo rooted at dir using the given runner.
func NewRepo(runner GitRunner, dir string) *Repo {
	return &Repo{runner: runner, dir: dir}
}

// Dir returns the repository root the Repo operates in.
func (r *Repo) Dir() string {
	return r.dir
}

// IsWorkTree reports whether dir is inside a git working tree.
func (r *Repo) IsWorkTree(ctx context.Context) bool {
	out, err := r.runner.Run(ctx, r.dir, "rev-parse", "--is-inside-work-tree")
	return err == nil && strings.TrimSpace(string(out)) == "true"
}

// CurrentBranch returns the checked-out branch name.
func (r *Repo) CurrentBranch(ctx context.Context) (string, error) {
	out, err := r.runner.Run(ctx, r.dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to resolve current branch: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// HeadSHA returns the commit SHA of HEAD.
func (r *Repo) HeadSHA(ctx context.Context) (string, error) {
	out, err := r.runner.Run(ctx, r.dir, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// IsClean reports whether the working tree has no uncommitted changes.
func (r *Repo) IsClean(ctx context.Context) (bool, error) {
	out, err := r.runner.Run(ctx, r.dir, "status", "--porcelain")
	if err != nil {
		return false, fmt.Errorf("failed to check working tree status: %w", err)
	}
	return strings.TrimSpace(string(out)) == "", nil
}

// HasRemote reports whether the named remote is configured.
func (r *Repo) HasRemote(ctx context.Context, remote string) bool {
	_, err := r.runner.Run(ctx, r.dir, "remote", "get-url", remote)
	return err == nil
}

// Add stages the given paths.
func (r *Repo) Add(ctx context.Context, paths ...string) error {
	args := append([]string{"add", "--"}, paths...)
	if _, err := r.runner.Run(ctx, r.dir, args...); err != nil {
		return fmt.Errorf("failed to stage %s: %w", strings.Join(paths, " "), err)
	}
	return nil
}

// Commit records staged changes with the given message. Returns
// ErrNothingToCommit when there are no staged changes.
func (r *Repo) Commit(ctx context.Context, message string) error {
	out, err := r.runner.Run(ctx, r.dir, "commit", "-m", message)
	if err != nil {
		if isNothingToCommit(string(out)) || isNothingToCommit(err.Error()) {
			return ErrNothingToCommit
		}
		return fmt.Errorf("commit failed: %w", err)
	}
	return nil
}

// Push pushes a ref to the remote.
func (r *Repo) Push(ctx context.Context, remote, ref string) error {
	if _, err := r.runner.Run(ctx, r.dir, "push", remote, ref); err != nil {
		return fmt.Errorf("failed to push %s to %s: %w", ref, remote, err)
	}
	return nil
}

// FastForward updates branch to the commit at from without checking it out.
// The refspec has no force marker, so git refuses non-fast-forward updates;
// those are classified as ErrNotFastForward.
func (r *Repo) FastForward(ctx context.Context, branch, from string) error {
	out, err := r.runner.Run(ctx, r.dir, "fetch", ".", fmt.Sprintf("%s:%s", from, branch))
	if err != nil {
		if isNotFastForward(string(out)) || isNotFastForward(err.Error()) {
			return fmt.Errorf("cannot update %s from %s: %w", branch, from, ErrNotFastForward)
		}
		return fmt.Errorf("failed to fast-forward %s from %s: %w", branch, from, err)
	}
	return nil
}

// TagAnnotated creates an annotated tag at HEAD.
func (r *Repo) TagAnnotated(ctx context.Context, name, message string) error {
	if _, err := r.runner.Run(ctx, r.dir, "tag", "-a", name, "-m", message); err != nil {
		return fmt.Errorf("failed to create tag %s: %w", name, err)
	}
	return nil
}

func isNothingToCommit(s string) bool {
	return strings.Contains(s, "nothing to commit") ||
		strings.Contains(s, "nothing added to commit")
}

func isNotFastForward(s string) bool {
	return strings.Contains(s, "non-fast-forward") ||
		strings.Contains(s, "rejected")
}
