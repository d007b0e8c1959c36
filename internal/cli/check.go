package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yaklabco/asmbridge/internal/logging"
	"github.com/yaklabco/asmbridge/pkg/config"
	"github.com/yaklabco/asmbridge/pkg/reporter"
	"github.com/yaklabco/asmbridge/pkg/runner"
)

type checkFlags struct {
	target    targetFlags
	format    string
	ignore    []string
	noContext bool
	compact   bool
	flat      bool
	detect    bool
	symlinks  bool
}

func newCheckCommand(info BuildInfo) *cobra.Command {
	var cfg config.Config
	flags := &checkFlags{}

	cmd := &cobra.Command{
		Use:   "check [paths...]",
		Short: "Parse assembly files and report diagnostics",
		Long:  checkLongDescription,
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args, &cfg, flags, info)
		},
	}

	addTargetFlags(cmd, &flags.target)
	cmd.Flags().StringVar(&flags.format, "format", "", "output format: text, json, sarif")
	cmd.Flags().IntVar(&cfg.Jobs, "jobs", 0, "number of parallel workers (0 = auto)")
	cmd.Flags().BoolVarP(&cfg.Watch, "watch", "w", false, "re-run when files change")
	cmd.Flags().StringSliceVar(&flags.ignore, "ignore", nil, "glob patterns to ignore")
	cmd.Flags().BoolVar(&flags.noContext, "no-context", false, "hide source line context in output")
	cmd.Flags().BoolVar(&flags.compact, "compact", false, "use compact output format")
	cmd.Flags().BoolVar(&flags.flat, "flat", false, "list diagnostics without grouping by file")
	cmd.Flags().BoolVar(&flags.detect, "detect", false, "sniff explicitly named files without a known extension")
	cmd.Flags().BoolVar(&flags.symlinks, "follow-symlinks", false, "descend into symlinked directories")

	return cmd
}

const checkLongDescription = `Preprocess and parse assembly files for the configured target and report
preprocessor and assembler diagnostics.

By default, checks all .s, .S and .asm files in the current directory and
subdirectories. Specify paths to check specific files or directories.

Examples:
  asmbridge check                                  # Check current directory
  asmbridge check arch/powerpc/                    # Check one directory
  asmbridge check -I include -D CONFIG_PPC64 head.S
  asmbridge check --triple powerpc64le-unknown-linux-gnu --cpu pwr9
  asmbridge check --format sarif > results.sarif   # Output for code scanning
  asmbridge check --watch                          # Re-run on every change`

func runCheck(cmd *cobra.Command, args []string, cliCfg *config.Config, flags *checkFlags, info BuildInfo) error {
	flags.target.apply(cmd, cliCfg)
	if cmd.Flags().Changed("format") {
		cliCfg.Format = config.OutputFormat(flags.format)
	}
	if cmd.Flags().Changed("ignore") {
		cliCfg.Ignore = flags.ignore
	}

	cfg, err := loadConfig(cmd, cliCfg)
	if err != nil {
		return err
	}

	format, err := reporter.ParseFormat(string(cfg.Format))
	if err != nil {
		return newUsageError(fmt.Errorf("invalid format: %w", err))
	}

	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	colorMode, err := cmd.Flags().GetString("color")
	if err != nil || !cmd.Flags().Changed("color") {
		colorMode = string(cfg.Color)
	}

	rep, err := reporter.New(reporter.Options{
		Writer:      cmd.OutOrStdout(),
		ErrorWriter: cmd.ErrOrStderr(),
		Format:      format,
		Color:       colorMode,
		ShowContext: !flags.noContext,
		ShowSummary: true,
		GroupByFile: !flags.flat,
		Compact:     flags.compact,
		WorkingDir:  workDir,
		ToolVersion: info.Version,
	})
	if err != nil {
		return fmt.Errorf("create reporter: %w", err)
	}

	checkRunner := runner.New(&runner.ParseAnalyzer{Invocation: invocationFor(cfg)})
	runOpts := runner.Options{
		Paths:          args,
		WorkingDir:     workDir,
		Extensions:     cfg.Extensions,
		ExcludeGlobs:   cfg.Ignore,
		DetectLanguage: flags.detect,
		FollowSymlinks: flags.symlinks,
		Jobs:           cfg.Jobs,
	}

	session := &checkSession{runner: checkRunner, reporter: rep, opts: runOpts}

	ctx := commandContext(cmd)
	logger := logging.FromContext(ctx)
	logger.Debug("starting check",
		logging.FieldTriple, cfg.Triple,
		logging.FieldCPU, cfg.CPU,
		logging.FieldPaths, runOpts.Paths,
		logging.FieldJobs, runOpts.Jobs,
	)

	if !cfg.Watch {
		return session.run(ctx)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return watch(ctx, watchOptions{
		Paths:      args,
		WorkingDir: workDir,
		Delay:      defaultDebounce,
	}, session.run)
}

// checkSession runs one analysis pass and reports it.
type checkSession struct {
	runner   *runner.Runner
	reporter reporter.Reporter
	opts     runner.Options
}

func (s *checkSession) run(ctx context.Context) error {
	result, err := s.runner.Run(ctx, s.opts)
	if err != nil {
		return fmt.Errorf("check run failed: %w", err)
	}

	if _, err := s.reporter.Report(ctx, result); err != nil {
		return fmt.Errorf("report results: %w", err)
	}

	if ExitCodeFromResult(result) != ExitSuccess {
		return ErrIssuesFound
	}
	return nil
}
