// Package reporter renders analysis results as text, JSON or SARIF.
package reporter

import (
	"context"
	"fmt"

	"github.com/yaklabco/asmbridge/pkg/analysis"
	"github.com/yaklabco/asmbridge/pkg/asmast"
	"github.com/yaklabco/asmbridge/pkg/runner"
)

// Compile-time interface check for reporterFacade.
var _ Reporter = (*reporterFacade)(nil)

// Reporter formats and writes analysis results.
type Reporter interface {
	// Report writes formatted output for the given result.
	// It returns the number of issues reported and any write errors.
	Report(ctx context.Context, result *runner.Result) (int, error)
}

// reporterFacade bridges the Reporter interface to Renderer implementations.
type reporterFacade struct {
	renderer     Renderer
	analysisOpts analysis.Options
}

// Report implements Reporter by analyzing the result and rendering it.
func (f *reporterFacade) Report(ctx context.Context, result *runner.Result) (int, error) {
	report := analysis.Analyze(result, f.analysisOpts)

	if aware, ok := f.renderer.(sourceAware); ok {
		aware.setLines(collectLines(result, f.analysisOpts.WorkingDir))
	}

	if err := f.renderer.Render(ctx, report); err != nil {
		return 0, fmt.Errorf("render: %w", err)
	}
	return report.Totals.Issues, nil
}

// collectLines indexes parsed files by their display path.
func collectLines(result *runner.Result, workDir string) LineSource {
	asts := make(map[string]*asmast.AST)
	if result != nil {
		for _, file := range result.Files {
			if file.AST != nil {
				asts[analysis.DisplayPath(file.Path, workDir)] = file.AST
			}
		}
	}
	return func(path string, line int) (string, bool) {
		ast, ok := asts[path]
		if !ok {
			return "", false
		}
		return ast.SourceLine(line - 1)
	}
}

// newRendererFacade creates a facade wrapping a Renderer.
func newRendererFacade(renderer Renderer, opts Options) *reporterFacade {
	return &reporterFacade{
		renderer: renderer,
		analysisOpts: analysis.Options{
			IncludeDiagnostics: true,
			IncludeByFile:      true,
			IncludeBySource:    true,
			SortBy:             analysis.SortByCount,
			SortDesc:           true,
			WorkingDir:         opts.WorkingDir,
		},
	}
}

// New creates a Reporter for the specified options.
func New(opts Options) (Reporter, error) {
	// Default writer to stdout if not specified
	if opts.Writer == nil {
		opts.Writer = DefaultOptions().Writer
	}
	if opts.ToolVersion == "" {
		opts.ToolVersion = DefaultOptions().ToolVersion
	}

	format := opts.Format
	if format == "" {
		format = FormatText
	}

	switch format {
	case FormatJSON:
		return newRendererFacade(NewJSONRenderer(opts), opts), nil
	case FormatSARIF:
		return newRendererFacade(NewSARIFRenderer(opts), opts), nil
	case FormatText:
		return newRendererFacade(NewTextRenderer(opts), opts), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}
