package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yaklabco/asmbridge/internal/configloader"
	"github.com/yaklabco/asmbridge/internal/logging"
	"github.com/yaklabco/asmbridge/pkg/asmast"
	"github.com/yaklabco/asmbridge/pkg/config"
	"github.com/yaklabco/asmbridge/pkg/instrdocs"
	"github.com/yaklabco/asmbridge/pkg/runner"
)

// errBadPosition is returned for a LINE:COL argument that does not parse.
var errBadPosition = errors.New("position must be LINE:COL with one-based numbers")

// targetFlags are the parse options shared by every command that parses a
// file.
type targetFlags struct {
	triple      string
	cpu         string
	features    string
	includeDirs []string
	defines     []string
}

func addTargetFlags(cmd *cobra.Command, flags *targetFlags) {
	cmd.Flags().StringVar(&flags.triple, "triple", "", "target triple (default "+config.DefaultTriple+")")
	cmd.Flags().StringVar(&flags.cpu, "cpu", "", "processor model")
	cmd.Flags().StringVar(&flags.features, "mattr", "", "target features, e.g. +altivec,-64bit")
	cmd.Flags().StringArrayVarP(&flags.includeDirs, "include", "I", nil, "add directory to the include search path")
	cmd.Flags().StringArrayVarP(&flags.defines, "define", "D", nil, "predefine macro NAME or NAME=VALUE")
}

// apply copies the flags into cfg. Only flags the user set are copied so
// that configuration files keep their values.
func (f *targetFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("triple") {
		cfg.Triple = f.triple
	}
	if cmd.Flags().Changed("cpu") {
		cfg.CPU = f.cpu
	}
	if cmd.Flags().Changed("mattr") {
		cfg.Features = f.features
	}
	if cmd.Flags().Changed("include") {
		cfg.IncludeDirs = f.includeDirs
	}
	if cmd.Flags().Changed("define") {
		cfg.Defines = f.defines
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// loadConfig merges the configuration layers with the CLI overrides in
// cliCfg. Load failures are reported as usage errors.
func loadConfig(cmd *cobra.Command, cliCfg *config.Config) (*config.Config, error) {
	ctx := commandContext(cmd)
	logger := logging.FromContext(ctx)

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("get config flag: %w", err)
	}

	workDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}

	loadResult, err := configloader.Load(ctx, configloader.LoadOptions{
		WorkingDir:   workDir,
		ExplicitPath: configPath,
		CLIConfig:    cliCfg,
	})
	if err != nil {
		return nil, newUsageError(fmt.Errorf("load configuration: %w", err))
	}

	for _, warning := range loadResult.Warnings {
		logger.Warn(warning)
	}
	if len(loadResult.LoadedFrom) > 0 {
		logger.Debug("loaded configuration", logging.FieldFiles, loadResult.LoadedFrom)
	}

	return loadResult.Config, nil
}

// invocationFor converts the resolved configuration into parse options.
func invocationFor(cfg *config.Config) asmast.Invocation {
	return asmast.Invocation{
		Triple:      cfg.Triple,
		CPU:         cfg.CPU,
		Features:    cfg.Features,
		IncludeDirs: cfg.IncludeDirs,
		Defines:     cfg.Defines,
	}
}

// parseFile parses one file with the resolved configuration. Parse
// failures still return the AST when one was produced.
func parseFile(ctx context.Context, cfg *config.Config, path string) (*asmast.AST, error) {
	analyzer := &runner.ParseAnalyzer{Invocation: invocationFor(cfg)}
	return analyzer.Analyze(ctx, path)
}

// docsIndex returns the instruction documentation for cfg. A configured
// docs path is loaded directly; otherwise the process-wide index is used.
func docsIndex(cfg *config.Config) (*instrdocs.Index, error) {
	if cfg.DocsPath == "" {
		return instrdocs.Default(), nil
	}

	idx, err := instrdocs.Load(cfg.DocsPath)
	if err != nil {
		return nil, newUsageError(fmt.Errorf("load instruction docs: %w", err))
	}
	return idx, nil
}

// parsePosition converts a one-based LINE:COL argument into a zero-based
// position.
func parsePosition(arg string) (asmast.Position, error) {
	lineStr, colStr, ok := strings.Cut(arg, ":")
	if !ok {
		return asmast.Position{}, newUsageError(fmt.Errorf("%w: %q", errBadPosition, arg))
	}

	line, err := strconv.Atoi(lineStr)
	if err != nil || line < 1 {
		return asmast.Position{}, newUsageError(fmt.Errorf("%w: %q", errBadPosition, arg))
	}
	col, err := strconv.Atoi(colStr)
	if err != nil || col < 1 {
		return asmast.Position{}, newUsageError(fmt.Errorf("%w: %q", errBadPosition, arg))
	}

	return asmast.Position{Line: line - 1, Character: col - 1}, nil
}
