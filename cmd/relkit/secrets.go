package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"relkit/pkg/config"
)

var secretsCmd = &cobra.Command{
	Use:   "secrets",
	Short: "Manage encrypted upload credentials",
	Long: `Manage the encrypted secrets file used for distribution upload.

Secrets are stored encrypted at rest (scrypt-derived key, AES-256-GCM) and
injected into the upload tool's environment during a release. The file lives
at the path given by dist.secrets_file, or .relkit/secrets.json.enc by
default.`,
}

var secretsSetCmd = &cobra.Command{
	Use:   "set KEY=VALUE [KEY=VALUE...]",
	Short: "Add or update secrets",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		updates := make(map[string]string, len(args))
		for _, arg := range args {
			key, value, ok := strings.Cut(arg, "=")
			if !ok || key == "" {
				return fmt.Errorf("invalid argument %q: expected KEY=VALUE", arg)
			}
			updates[key] = value
		}

		path, err := secretsFilePath()
		if err != nil {
			return err
		}

		passphrase, err := readPassphrase("Secrets passphrase: ")
		if err != nil {
			return err
		}

		secrets := map[string]string{}
		if config.SecretsFileExists(path) {
			secrets, err = config.DecryptSecretsFile(path, passphrase)
			if err != nil {
				return err
			}
		} else {
			confirm, err := readPassphrase("Confirm passphrase: ")
			if err != nil {
				return err
			}
			if confirm != passphrase {
				return fmt.Errorf("passphrases do not match")
			}
		}

		for key, value := range updates {
			secrets[key] = value
		}

		if err := config.EncryptSecretsFile(path, passphrase, secrets); err != nil {
			return err
		}
		fmt.Printf("Stored %d secret(s) in %s\n", len(updates), path)
		return nil
	},
}

var secretsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List secret names (values are never printed)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := secretsFilePath()
		if err != nil {
			return err
		}
		if !config.SecretsFileExists(path) {
			fmt.Printf("No secrets file at %s\n", path)
			return nil
		}

		passphrase, err := readPassphrase("Secrets passphrase: ")
		if err != nil {
			return err
		}

		secrets, err := config.DecryptSecretsFile(path, passphrase)
		if err != nil {
			return err
		}

		names := make([]string, 0, len(secrets))
		for name := range secrets {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

func init() {
	secretsCmd.AddCommand(secretsSetCmd, secretsListCmd)
}

// secretsFilePath resolves the secrets file location from config, defaulting
// to .relkit/secrets.json.enc under the repository root.
func secretsFilePath() (string, error) {
	cfg, repoDir, err := loadConfig()
	if err != nil {
		return "", err
	}
	path := cfg.Dist.SecretsFile
	if path == "" {
		path = filepath.Join(config.RelkitDir, config.DefaultSecretsFilename)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(repoDir, path)
	}
	return path, nil
}

// readPassphrase reads a passphrase without echo when attached to a
// terminal, falling back to a plain line read otherwise (CI pipelines
// pipe the passphrase on stdin).
func readPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read passphrase: %w", err)
		}
		return string(raw), nil
	}

	var line string
	if _, err := fmt.Fscanln(os.Stdin, &line); err != nil {
		return "", fmt.Errorf("failed to read passphrase: %w", err)
	}
	return line, nil
}
