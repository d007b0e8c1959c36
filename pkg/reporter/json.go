package reporter

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/yaklabco/asmbridge/pkg/analysis"
)

// JSONOutput is the top-level JSON structure.
type JSONOutput struct {
	Version  string                    `json:"version"`
	Tool     string                    `json:"tool"`
	Files    []JSONFileResult          `json:"files"`
	BySource []analysis.SourceAnalysis `json:"bySource,omitempty"`
	Summary  analysis.Totals           `json:"summary"`
}

// JSONFileResult represents a single file's results.
type JSONFileResult struct {
	Path        string           `json:"path"`
	Diagnostics []JSONDiagnostic `json:"diagnostics"`
}

// JSONDiagnostic represents a single diagnostic. Lines and columns are
// one-based.
type JSONDiagnostic struct {
	Source      string `json:"source"`
	Severity    string `json:"severity"`
	Message     string `json:"message"`
	StartLine   int    `json:"startLine"`
	StartColumn int    `json:"startColumn"`
	EndLine     int    `json:"endLine"`
	EndColumn   int    `json:"endColumn"`
}

// JSONRenderer formats reports as JSON.
type JSONRenderer struct {
	opts Options
	out  io.Writer
}

// NewJSONRenderer creates a new JSON renderer.
func NewJSONRenderer(opts Options) *JSONRenderer {
	return &JSONRenderer{opts: opts, out: opts.Writer}
}

// Render implements Renderer.
func (r *JSONRenderer) Render(_ context.Context, report *analysis.Report) (err error) {
	bw := bufio.NewWriterSize(r.out, bufWriterSize)
	defer func() {
		if flushErr := bw.Flush(); err == nil {
			err = flushErr
		}
	}()

	encoder := json.NewEncoder(bw)
	if !r.opts.Compact {
		encoder.SetIndent("", "  ")
	}

	if err := encoder.Encode(r.buildOutput(report)); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}

func (r *JSONRenderer) buildOutput(report *analysis.Report) *JSONOutput {
	output := &JSONOutput{
		Version:  report.Version,
		Tool:     "asmbridge " + r.opts.ToolVersion,
		Files:    make([]JSONFileResult, 0, len(report.ByFile)),
		BySource: report.BySource,
		Summary:  report.Totals,
	}

	index := make(map[string]int)
	for _, diag := range report.Diagnostics {
		i, ok := index[diag.FilePath]
		if !ok {
			i = len(output.Files)
			index[diag.FilePath] = i
			output.Files = append(output.Files, JSONFileResult{Path: diag.FilePath})
		}
		output.Files[i].Diagnostics = append(output.Files[i].Diagnostics, JSONDiagnostic{
			Source:      diag.Source,
			Severity:    diag.Severity,
			Message:     diag.Message,
			StartLine:   diag.StartLine,
			StartColumn: diag.StartColumn,
			EndLine:     diag.EndLine,
			EndColumn:   diag.EndColumn,
		})
	}

	return output
}
