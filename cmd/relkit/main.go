// relkit automates a software release: tests, documentation, version-control
// branching and tagging, distribution build and upload, in a fixed order
// with fail-fast semantics.
package main

import (
	"errors"
	"fmt"
	"os"

	"relkit/pkg/release"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// A failing external tool decides our exit code.
		var toolErr *release.ToolError
		if errors.As(err, &toolErr) {
			os.Exit(toolErr.ExitCode)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
