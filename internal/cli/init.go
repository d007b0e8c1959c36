package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yaklabco/asmbridge/internal/configloader"
	"github.com/yaklabco/asmbridge/internal/logging"
	"github.com/yaklabco/asmbridge/pkg/config"
	"github.com/yaklabco/asmbridge/pkg/fsutil"
)

// initFlags holds the flags for the init command.
type initFlags struct {
	force  bool
	format string
	output string
	triple string
}

func newInitCommand() *cobra.Command {
	flags := &initFlags{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new asmbridge configuration file",
		Long: `Create a new .asmbridge.yml configuration file in the current directory
with sensible defaults. Edit it to set the target, include paths and
predefined macros for your project.

Examples:
  asmbridge init                                     Create .asmbridge.yml
  asmbridge init --triple powerpc64le-unknown-linux-gnu
  asmbridge init --format json                       Create .asmbridge.json instead
  asmbridge init --output ci.yml                     Write to a custom file path`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd, flags)
		},
	}

	cmd.Flags().BoolVarP(&flags.force, "force", "f", false, "Overwrite existing configuration file")
	cmd.Flags().StringVar(&flags.format, "format", "yaml", "Output format: yaml or json")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output file path (default: .asmbridge.yml or .asmbridge.json)")
	cmd.Flags().StringVar(&flags.triple, "triple", "", "Target triple written to the file")

	return cmd
}

func runInit(cmd *cobra.Command, flags *initFlags) error {
	logger := logging.NewInteractive()
	logger.SetOutput(cmd.OutOrStdout())

	if flags.format != "yaml" && flags.format != "json" {
		return newUsageError(fmt.Errorf("invalid format %q: must be yaml or json", flags.format))
	}

	outputPath := flags.output
	if outputPath == "" {
		if flags.format == "json" {
			outputPath = ".asmbridge.json"
		} else {
			outputPath = configloader.ProjectConfigName
		}
	}

	absPath, err := filepath.Abs(outputPath)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	ctx := commandContext(cmd)
	if flags.force {
		backup, err := fsutil.CreateBackup(ctx, absPath)
		if err != nil {
			return err
		}
		if backup != "" {
			logger.Info("saved previous configuration", logging.FieldPath, backup)
		}
	}

	err = configloader.WriteTemplate(ctx, absPath, config.TemplateOptions{
		Format: flags.format,
		Triple: flags.triple,
	}, flags.force)
	if errors.Is(err, configloader.ErrConfigExists) {
		return newUsageError(fmt.Errorf("file %q already exists; use --force to overwrite", outputPath))
	}
	if err != nil {
		return err
	}

	logger.Info("created configuration file", logging.FieldPath, outputPath)
	logger.Info("run 'asmbridge targets' to see the available triples and processors")

	return nil
}
