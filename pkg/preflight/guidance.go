package preflight

import (
	"fmt"
	"strings"
)

// FormatCheckError formats a failed check result with actionable guidance.
func FormatCheckError(check CheckResult) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("  %s: %s\n", check.Check, check.Message))
	sb.WriteString(fmt.Sprintf("    %s\n", getGuidance(check.Check)))

	return sb.String()
}

// FormatResults formats all preflight results for display.
func FormatResults(results *Results) string {
	var sb strings.Builder

	if results.Passed {
		sb.WriteString("Preflight checks passed\n")
		for i := range results.Checks {
			sb.WriteString(fmt.Sprintf("  [PASS] %s: %s\n", results.Checks[i].Check, results.Checks[i].Message))
		}
		return sb.String()
	}

	sb.WriteString("Preflight checks failed\n\n")
	sb.WriteString("Failed checks:\n")
	for i := range results.Checks {
		if !results.Checks[i].Passed {
			sb.WriteString(FormatCheckError(results.Checks[i]))
			sb.WriteString("\n")
		}
	}

	sb.WriteString("Passed checks:\n")
	for i := range results.Checks {
		if results.Checks[i].Passed {
			sb.WriteString(fmt.Sprintf("  [PASS] %s: %s\n", results.Checks[i].Check, results.Checks[i].Message))
		}
	}

	return sb.String()
}

// getGuidance returns actionable guidance for fixing a failed check.
func getGuidance(check Check) string {
	switch check {
	case CheckGitBinary:
		return "Install git and ensure it is on PATH: https://git-scm.com/downloads"

	case CheckWorkTree:
		return "Run relkit from inside the repository you want to release."

	case CheckBranch:
		return "Check out the release branch, or set git.main_branch / checks.require_branch in relkit.yml."

	case CheckCleanTree:
		return "Commit or stash local changes, or set checks.require_clean_tree: false in relkit.yml."

	case CheckRemote:
		return "Add the remote with 'git remote add', or set git.remote in relkit.yml."

	case CheckUploadTool:
		return "Install the configured upload tool (e.g. 'pip install twine') or fix dist.upload_command."

	default:
		return "No guidance available for this check."
	}
}
