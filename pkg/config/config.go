// Package config provides configuration loading, validation, and defaults
// for the release pipeline. Configuration lives in a YAML file (relkit.yml)
// at the repository root.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config file constants.
const (
	DefaultConfigFilename = "relkit.yml"
	RelkitDir             = ".relkit"
)

// Version source constants.
const (
	VersionSourceCommand = "command"
	VersionSourceFile    = "file"
	VersionSourceValue   = "value"
)

// VersionPlaceholder is substituted with the resolved version in message
// templates (e.g. "Documentation update for v{VERSION}.").
const VersionPlaceholder = "{VERSION}"

// Config represents the full relkit configuration.
type Config struct {
	Project ProjectConfig `yaml:"project"`
	Version VersionConfig `yaml:"version"`
	Git     GitConfig     `yaml:"git"`
	Checks  ChecksConfig  `yaml:"checks"`
	Test    TestConfig    `yaml:"test"`
	Docs    DocsConfig    `yaml:"docs"`
	Dist    DistConfig    `yaml:"dist"`
	Journal JournalConfig `yaml:"journal"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ProjectConfig contains project identity settings.
type ProjectConfig struct {
	Name string `yaml:"name"`
}

// VersionConfig controls how the release version is resolved. Exactly one
// source is consulted, once, before the pipeline starts.
type VersionConfig struct {
	Source  string   `yaml:"source"`  // "command", "file" or "value"
	Command []string `yaml:"command"` // e.g. ["python", "setup.py", "--version"]
	File    string   `yaml:"file"`    // e.g. "VERSION"
	Value   string   `yaml:"value"`   // literal version string
}

// GitConfig contains branch, remote and tag settings.
type GitConfig struct {
	MainBranch string `yaml:"main_branch"` // release branch (default: main)
	Remote     string `yaml:"remote"`      // push target (default: origin)
	TagPrefix  string `yaml:"tag_prefix"`  // tag name prefix (default: v)
}

// ChecksConfig toggles preflight repository checks. The original workflow
// trusted operator discipline here; both checks default to on.
type ChecksConfig struct {
	RequireCleanTree bool `yaml:"require_clean_tree"`
	RequireBranch    bool `yaml:"require_branch"`
}

// TestConfig defines the test suite invocation.
type TestConfig struct {
	Command        []string `yaml:"command"`
	TimeoutMinutes int      `yaml:"timeout_minutes"`
}

// DocsConfig defines the documentation build and publication step.
type DocsConfig struct {
	BuildCommand  []string `yaml:"build_command"`
	CommitPaths   []string `yaml:"commit_paths"`
	CommitMessage string   `yaml:"commit_message"` // {VERSION} is substituted
}

// DistConfig defines distribution artifact build and upload.
type DistConfig struct {
	Dir           string   `yaml:"dir"`            // artifact output directory
	BuildCommand  []string `yaml:"build_command"`  // e.g. ["python", "setup.py", "sdist", "bdist_wheel"]
	UploadCommand []string `yaml:"upload_command"` // artifact paths are appended
	SecretsFile   string   `yaml:"secrets_file"`   // optional encrypted credentials for upload
}

// JournalConfig controls the local release journal.
type JournalConfig struct {
	Path     string `yaml:"path"`
	Disabled bool   `yaml:"disabled"`
}

// MetricsConfig controls the textfile metrics snapshot written after a run.
type MetricsConfig struct {
	TextfilePath string `yaml:"textfile_path"`
	Disabled     bool   `yaml:"disabled"`
}

// Default returns a Config populated with defaults. Loading overlays the
// YAML file on top of this, so absent keys keep their default values.
func Default() *Config {
	return &Config{
		Version: VersionConfig{
			Source: VersionSourceCommand,
		},
		Git: GitConfig{
			MainBranch: "main",
			Remote:     "origin",
			TagPrefix:  "v",
		},
		Checks: ChecksConfig{
			RequireCleanTree: true,
			RequireBranch:    true,
		},
		Test: TestConfig{
			TimeoutMinutes: 30,
		},
		Docs: DocsConfig{
			CommitPaths:   []string{"docs"},
			CommitMessage: "Documentation update for v{VERSION}.",
		},
		Dist: DistConfig{
			Dir: "dist",
		},
		Journal: JournalConfig{
			Path: RelkitDir + "/journal.db",
		},
		Metrics: MetricsConfig{
			TextfilePath: RelkitDir + "/metrics.prom",
		},
	}
}

// TestTimeout returns the configured test timeout as a duration.
func (c *Config) TestTimeout() time.Duration {
	return time.Duration(c.Test.TimeoutMinutes) * time.Minute
}

// DocsCommitMessage renders the docs commit message for a version string.
func (c *Config) DocsCommitMessage(version string) string {
	return strings.ReplaceAll(c.Docs.CommitMessage, VersionPlaceholder, version)
}

// HasDocs reports whether a documentation step is configured at all.
func (c *Config) HasDocs() bool {
	return len(c.Docs.BuildCommand) > 0
}

// Validate checks the configuration for contradictions and missing required
// settings. It returns the first problem found.
func (c *Config) Validate() error {
	switch c.Version.Source {
	case VersionSourceCommand:
		if len(c.Version.Command) == 0 {
			return fmt.Errorf("version.command is required when version.source is %q", VersionSourceCommand)
		}
	case VersionSourceFile:
		if c.Version.File == "" {
			return fmt.Errorf("version.file is required when version.source is %q", VersionSourceFile)
		}
	case VersionSourceValue:
		if c.Version.Value == "" {
			return fmt.Errorf("version.value is required when version.source is %q", VersionSourceValue)
		}
	default:
		return fmt.Errorf("unknown version.source %q (expected %q, %q or %q)",
			c.Version.Source, VersionSourceCommand, VersionSourceFile, VersionSourceValue)
	}

	if len(c.Test.Command) == 0 {
		return fmt.Errorf("test.command is required")
	}
	if c.Test.TimeoutMinutes <= 0 {
		return fmt.Errorf("test.timeout_minutes must be positive, got %d", c.Test.TimeoutMinutes)
	}

	if c.HasDocs() {
		if len(c.Docs.CommitPaths) == 0 {
			return fmt.Errorf("docs.commit_paths is required when docs.build_command is set")
		}
		if !strings.Contains(c.Docs.CommitMessage, VersionPlaceholder) {
			return fmt.Errorf("docs.commit_message must contain %s", VersionPlaceholder)
		}
	}

	if len(c.Dist.BuildCommand) == 0 {
		return fmt.Errorf("dist.build_command is required")
	}
	if len(c.Dist.UploadCommand) == 0 {
		return fmt.Errorf("dist.upload_command is required")
	}
	if c.Dist.Dir == "" {
		return fmt.Errorf("dist.dir must not be empty")
	}

	if c.Git.MainBranch == "" {
		return fmt.Errorf("git.main_branch must not be empty")
	}
	if c.Git.Remote == "" {
		return fmt.Errorf("git.remote must not be empty")
	}

	return nil
}
