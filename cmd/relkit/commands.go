package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"relkit/pkg/config"
	"relkit/pkg/gitx"
	"relkit/pkg/journal"
	"relkit/pkg/preflight"
	"relkit/pkg/version"
)

// CLI flag variables.
var (
	configPath string
	dryRun     bool
	assumeYes  bool
	skipUpload bool
	historyN   int
)

var rootCmd = &cobra.Command{
	Use:   "relkit",
	Short: "relkit - release orchestration for versioned projects",
	Long: `relkit runs a project release as a fixed sequence of steps:

  tests -> docs build -> docs commit/push -> major-branch fast-forward ->
  annotated tag -> distribution build -> upload

Any failing step aborts the release immediately. The one tolerated failure
is a documentation commit with nothing to commit, which is logged and
skipped. Configuration lives in relkit.yml at the repository root.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute the release pipeline",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runRelease(cmd.Context(), runOptions{
			dryRun:     dryRun,
			assumeYes:  assumeYes,
			skipUpload: skipUpload,
		})
	},
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print the ordered release steps without executing them",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runRelease(cmd.Context(), runOptions{dryRun: true, assumeYes: true, skipUpload: skipUpload})
	},
}

var preflightCmd = &cobra.Command{
	Use:   "preflight",
	Short: "Run repository checks without releasing",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, repoDir, err := loadConfig()
		if err != nil {
			return err
		}

		repo := gitx.NewRepo(gitx.NewDefaultGitRunner(), repoDir)
		runner := preflight.NewRunner(repo, cfg, nil)
		results := runner.Run(cmd.Context())

		fmt.Print(preflight.FormatResults(results))
		if !results.Passed {
			return fmt.Errorf("%s", results.Summary)
		}
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history [release-id]",
	Short: "List recorded releases, or the steps of one release",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		cfg, repoDir, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Journal.Disabled {
			return fmt.Errorf("journal is disabled in config")
		}

		store, err := journal.Open(journalPath(cfg, repoDir))
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		if len(args) == 1 {
			return printSteps(store, args[0])
		}
		return printReleases(store, historyN)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("relkit %s\n", version.Version)
		fmt.Printf("  commit: %s\n", version.Commit)
		fmt.Printf("  built:  %s\n", version.Date)
	},
}

func init() { //nolint:gochecknoinits // Cobra command registration
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to relkit.yml (default: search upward from the working directory)")

	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "resolve the version and print steps without side effects")
	runCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "skip the confirmation prompt")
	runCmd.Flags().BoolVar(&skipUpload, "skip-upload", false, "run everything except the upload step")

	planCmd.Flags().BoolVar(&skipUpload, "skip-upload", false, "plan without the upload step")

	historyCmd.Flags().IntVarP(&historyN, "limit", "n", 20, "number of releases to list")

	rootCmd.AddCommand(runCmd, planCmd, preflightCmd, historyCmd, secretsCmd, versionCmd)
}

// loadConfig locates and loads the config file, returning it together with
// the repository root (the config file's directory).
func loadConfig() (*config.Config, string, error) {
	path := configPath
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, "", fmt.Errorf("failed to get working directory: %w", err)
		}
		path, err = config.Find(cwd)
		if err != nil {
			return nil, "", err
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve config path: %w", err)
	}
	return cfg, filepath.Dir(abs), nil
}

func journalPath(cfg *config.Config, repoDir string) string {
	if filepath.IsAbs(cfg.Journal.Path) {
		return cfg.Journal.Path
	}
	return filepath.Join(repoDir, cfg.Journal.Path)
}

func metricsPath(cfg *config.Config, repoDir string) string {
	if filepath.IsAbs(cfg.Metrics.TextfilePath) {
		return cfg.Metrics.TextfilePath
	}
	return filepath.Join(repoDir, cfg.Metrics.TextfilePath)
}

// confirmRelease asks the operator before any side effects happen. With
// --yes or a non-interactive stdin the prompt is skipped; non-interactive
// runs without --yes are refused rather than silently proceeding.
func confirmRelease(project, versionStr string, yes bool) error {
	if yes {
		return nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("stdin is not a terminal; pass --yes to release non-interactively")
	}

	name := project
	if name == "" {
		name = "this project"
	}
	fmt.Printf("Release %s v%s? [y/N] ", name, versionStr)

	var answer string
	if _, err := fmt.Scanln(&answer); err != nil {
		return fmt.Errorf("release aborted")
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	if answer != "y" && answer != "yes" {
		return fmt.Errorf("release aborted")
	}
	return nil
}

func printReleases(store *journal.Store, limit int) error {
	releases, err := store.ListReleases(limit)
	if err != nil {
		return err
	}
	if len(releases) == 0 {
		fmt.Println("No releases recorded yet.")
		return nil
	}

	for i := range releases {
		fmt.Println(formatRelease(&releases[i]))
	}
	return nil
}

func printSteps(store *journal.Store, releaseID string) error {
	steps, err := store.ListSteps(releaseID)
	if err != nil {
		return err
	}
	if len(steps) == 0 {
		return fmt.Errorf("no steps recorded for release %s", releaseID)
	}

	for i := range steps {
		fmt.Println(formatStep(&steps[i]))
	}
	return nil
}

func formatRelease(r *journal.Release) string {
	finished := "-"
	if r.FinishedAt != nil {
		finished = r.FinishedAt.Format("2006-01-02 15:04:05")
	}
	line := fmt.Sprintf("%s  v%-12s %-10s started %s  finished %s",
		r.ID, r.Version, r.Status, r.StartedAt.Format("2006-01-02 15:04:05"), finished)
	if r.Error != "" {
		line += "  (" + r.Error + ")"
	}
	return line
}

func formatStep(s *journal.StepRecord) string {
	line := fmt.Sprintf("%2d. %-14s %-10s %6dms", s.Position+1, s.Name, s.Status, s.DurationMS)
	if s.Detail != "" {
		line += "  " + s.Detail
	}
	return line
}
