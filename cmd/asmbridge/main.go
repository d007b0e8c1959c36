// Package main is the entry point for the asmbridge CLI.
package main

import (
	"errors"
	"os"

	"github.com/yaklabco/asmbridge/internal/cli"
	"github.com/yaklabco/asmbridge/internal/logging"

	// Register the PowerPC target with the mc registry.
	_ "github.com/yaklabco/asmbridge/pkg/target/ppc"
)

// Build-time variables set by GoReleaser via ldflags.
//
//nolint:gochecknoglobals // Version variables must be package-level for ldflags injection
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := cli.NewRootCommand(cli.BuildInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	})

	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, cli.ErrIssuesFound) {
		logging.Default().Error("command failed", logging.FieldError, err)
	}

	return cli.ExitCode(err)
}
