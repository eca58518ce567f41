package release

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"relkit/pkg/config"
	"relkit/pkg/exec"
	"relkit/pkg/semver"
)

// ResolveVersion resolves the release version from the configured source.
// It runs exactly once, before the pipeline starts; the result is never
// mutated afterwards.
func ResolveVersion(ctx context.Context, cfg *config.Config, executor exec.Executor, workDir string) (semver.Version, error) {
	switch cfg.Version.Source {
	case config.VersionSourceCommand:
		opts := exec.DefaultOpts()
		opts.WorkDir = workDir
		result, err := executor.Run(ctx, cfg.Version.Command, &opts)
		if err != nil {
			return semver.Version{}, fmt.Errorf("version command failed: %w", err)
		}
		if result.ExitCode != 0 {
			return semver.Version{}, fmt.Errorf("version command exited %d: %s",
				result.ExitCode, result.Stderr)
		}
		return semver.Parse(result.Stdout)

	case config.VersionSourceFile:
		path := cfg.Version.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(workDir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return semver.Version{}, fmt.Errorf("failed to read version file: %w", err)
		}
		return semver.Parse(string(data))

	case config.VersionSourceValue:
		return semver.Parse(cfg.Version.Value)

	default:
		return semver.Version{}, fmt.Errorf("unknown version source %q", cfg.Version.Source)
	}
}
