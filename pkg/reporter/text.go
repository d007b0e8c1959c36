package reporter

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/yaklabco/asmbridge/internal/ui/pretty"
	"github.com/yaklabco/asmbridge/pkg/analysis"
)

// TextRenderer formats reports as styled terminal output.
type TextRenderer struct {
	opts   Options
	styles *pretty.Styles
	out    io.Writer
	lines  LineSource
}

// NewTextRenderer creates a new text renderer.
func NewTextRenderer(opts Options) *TextRenderer {
	colorEnabled := pretty.IsColorEnabled(opts.Color, opts.Writer)
	return &TextRenderer{
		opts:   opts,
		styles: pretty.NewStyles(colorEnabled),
		out:    opts.Writer,
	}
}

func (r *TextRenderer) setLines(lines LineSource) { r.lines = lines }

// Render implements Renderer.
func (r *TextRenderer) Render(_ context.Context, report *analysis.Report) (err error) {
	bw := bufio.NewWriterSize(r.out, bufWriterSize)
	defer func() {
		if flushErr := bw.Flush(); err == nil {
			err = flushErr
		}
	}()

	if report.Totals.Files == 0 {
		if r.opts.ShowSummary {
			fmt.Fprintln(bw, r.styles.Success.Render("No files to check."))
		}
		return nil
	}

	if r.opts.GroupByFile {
		r.renderGrouped(bw, report)
	} else {
		for i := range report.Diagnostics {
			fmt.Fprint(bw, r.formatDiagnostic(&report.Diagnostics[i]))
		}
	}

	if r.opts.ShowSummary {
		fmt.Fprint(bw, r.styles.FormatSummaryOneLine(report.Totals))
	}

	return nil
}

// renderGrouped writes diagnostics under one header per file. Analyze
// emits the diagnostics of one file contiguously.
func (r *TextRenderer) renderGrouped(w io.Writer, report *analysis.Report) {
	perFile := make(map[string]int, len(report.ByFile))
	for _, diag := range report.Diagnostics {
		perFile[diag.FilePath]++
	}

	current := ""
	for i := range report.Diagnostics {
		diag := &report.Diagnostics[i]
		if diag.FilePath != current {
			if current != "" {
				fmt.Fprintln(w)
			}
			current = diag.FilePath
			fmt.Fprintln(w, r.styles.FormatFileHeader(current, perFile[current]))
		}
		fmt.Fprint(w, r.formatDiagnostic(diag))
	}
	if current != "" {
		// Blank line between files and the summary
		fmt.Fprintln(w)
	}
}

func (r *TextRenderer) formatDiagnostic(diag *analysis.DiagnosticEntry) string {
	var sourceLine string
	if r.opts.ShowContext && r.lines != nil && diag.Source != analysis.SourceDriver {
		sourceLine, _ = r.lines(diag.FilePath, diag.StartLine)
	}
	return r.styles.FormatDiagnostic(diag, r.opts.ShowContext, sourceLine)
}
