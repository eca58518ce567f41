package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"relkit/pkg/config"
	"relkit/pkg/exec"
	"relkit/pkg/gitx"
	"relkit/pkg/journal"
	"relkit/pkg/logx"
	"relkit/pkg/metrics"
	"relkit/pkg/preflight"
	"relkit/pkg/release"
)

type runOptions struct {
	dryRun     bool
	assumeYes  bool
	skipUpload bool
}

// runRelease wires configuration, preflight, journal, metrics and the
// pipeline together and executes a release.
func runRelease(ctx context.Context, opts runOptions) error {
	logger := logx.NewLogger("relkit")

	cfg, repoDir, err := loadConfig()
	if err != nil {
		return err
	}

	executor := exec.NewLocalExec()
	repo := gitx.NewRepo(gitx.NewDefaultGitRunner(), repoDir)

	// Preflight before anything else; the checks are read-only.
	checker := preflight.NewRunner(repo, cfg, nil)
	if err := checker.Validate(ctx); err != nil {
		return fmt.Errorf("preflight failed:\n%w", err)
	}

	ver, err := release.ResolveVersion(ctx, cfg, executor, repoDir)
	if err != nil {
		return err
	}
	logger.Info("Releasing %s v%s (major branch %s)", cfg.Project.Name, ver, ver.MajorBranch())

	env := &release.Env{
		Cfg:        cfg,
		Repo:       repo,
		Exec:       executor,
		Version:    ver,
		Out:        os.Stdout,
		SkipUpload: opts.skipUpload,
	}
	steps := release.BuildSteps(env)

	if opts.dryRun {
		fmt.Printf("Release plan for %s v%s:\n", cfg.Project.Name, ver)
		for i, name := range release.NewPipeline(steps, nil).Steps() {
			fmt.Printf("  %d. %s\n", i+1, name)
		}
		return nil
	}

	if err := confirmRelease(cfg.Project.Name, ver.String(), opts.assumeYes); err != nil {
		return err
	}

	if !opts.skipUpload {
		env.UploadEnv, err = loadUploadSecrets(cfg, repoDir)
		if err != nil {
			return err
		}
	}

	var store *journal.Store
	var releaseID string
	if !cfg.Journal.Disabled {
		store, err = journal.Open(journalPath(cfg, repoDir))
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		releaseID, err = store.BeginRelease(cfg.Project.Name, ver.String())
		if err != nil {
			return err
		}
	}

	recorder := metrics.NewRecorder(cfg.Project.Name)

	observer := func(position int, result release.StepResult) {
		recorder.ObserveStep(result.Name, result.Status, result.Duration)
		if store != nil {
			if recordErr := store.RecordStep(releaseID, position, result.Name, result.Status, result.Duration, result.Detail); recordErr != nil {
				logger.Warn("Failed to record step in journal: %v", recordErr)
			}
		}
	}

	_, runErr := release.NewPipeline(steps, observer).Run(ctx)

	status := journal.StatusSucceeded
	errMsg := ""
	if runErr != nil {
		status = journal.StatusFailed
		errMsg = runErr.Error()
	}

	if store != nil {
		if finishErr := store.FinishRelease(releaseID, status, errMsg); finishErr != nil {
			logger.Warn("Failed to finalize journal entry: %v", finishErr)
		}
	}

	if !cfg.Metrics.Disabled {
		recorder.SetOutcome(ver.String(), status)
		if writeErr := recorder.WriteTextfile(metricsPath(cfg, repoDir)); writeErr != nil {
			logger.Warn("Failed to write metrics snapshot: %v", writeErr)
		}
	}

	if runErr != nil {
		return runErr
	}

	logger.Info("Released %s v%s", cfg.Project.Name, ver)
	return nil
}

// loadUploadSecrets decrypts the configured secrets file, prompting for the
// passphrase. No secrets file configured (or present) means the upload tool
// is expected to carry its own credentials.
func loadUploadSecrets(cfg *config.Config, repoDir string) ([]string, error) {
	if cfg.Dist.SecretsFile == "" {
		return nil, nil
	}

	path := cfg.Dist.SecretsFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(repoDir, path)
	}
	if !config.SecretsFileExists(path) {
		return nil, nil
	}

	passphrase, err := readPassphrase("Secrets passphrase: ")
	if err != nil {
		return nil, err
	}

	secrets, err := config.DecryptSecretsFile(path, passphrase)
	if err != nil {
		return nil, err
	}
	return config.SecretsAsEnv(secrets), nil
}
