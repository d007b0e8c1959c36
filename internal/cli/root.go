// Package cli provides the Cobra command structure for asmbridge.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/yaklabco/asmbridge/internal/logging"
)

// BuildInfo holds build-time version information.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// NewRootCommand creates the root asmbridge command with all subcommands.
func NewRootCommand(info BuildInfo) *cobra.Command {
	var debug bool
	var configPath string
	var color string

	rootCmd := &cobra.Command{
		Use:   "asmbridge",
		Short: "Preprocess, parse and document assembly source",
		Long: `asmbridge runs the C preprocessor and a target assembly parser over
assembly source files.

It reports preprocessor and assembler diagnostics in original source
coordinates, maps positions between the source and the reconstructed
assembly text, expands macro uses, and looks up instruction documentation.`,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if debug {
				logging.SetLevel("debug")
			}
			cmd.SetContext(logging.WithLogger(commandContext(cmd), logging.Default()))
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&color, "color", "auto",
		"colorize output: auto, always, never")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return newUsageError(err)
	})

	rootCmd.AddCommand(newCheckCommand(info))
	rootCmd.AddCommand(newExpandCommand())
	rootCmd.AddCommand(newHoverCommand())
	rootCmd.AddCommand(newDocCommand())
	rootCmd.AddCommand(newTokensCommand())
	rootCmd.AddCommand(newTargetsCommand())
	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newVersionCommand(info))

	helpFormatter := NewHelpFormatter(color, os.Stdout)
	helpFormatter.ApplyToCommand(rootCmd)

	return rootCmd
}
