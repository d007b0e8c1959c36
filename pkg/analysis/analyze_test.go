package analysis

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/asmbridge/pkg/asmast"
	"github.com/yaklabco/asmbridge/pkg/runner"
)

func astWith(path string, diags ...asmast.Diagnostic) *asmast.AST {
	ast := asmast.New(path)
	ast.Diags = diags
	return ast
}

func diag(sev asmast.Severity, source string, line, col int) asmast.Diagnostic {
	return asmast.Diagnostic{
		Severity: sev,
		Message:  "message",
		Source:   source,
		Range: asmast.Range{
			Start: asmast.Position{Line: line, Character: col},
			End:   asmast.Position{Line: line, Character: col + 3},
		},
	}
}

func sampleResult() *runner.Result {
	return &runner.Result{
		Files: []runner.FileOutcome{
			{
				Path: "/src/a.s",
				AST: astWith("/src/a.s",
					diag(asmast.SeverityError, "assembler", 0, 0),
					diag(asmast.SeverityError, "assembler", 4, 2),
					diag(asmast.SeverityWarning, "preprocessor", 1, 0),
				),
			},
			{
				Path: "/src/b.s",
				AST:  astWith("/src/b.s", diag(asmast.SeverityWarning, "preprocessor", 2, 1)),
			},
			{
				Path: "/src/clean.s",
				AST:  astWith("/src/clean.s"),
			},
		},
	}
}

func TestAnalyze_EmptyResult(t *testing.T) {
	t.Parallel()

	report := Analyze(&runner.Result{}, DefaultOptions())

	require.NotNil(t, report)
	assert.Equal(t, 0, report.Totals.Issues)
	assert.Empty(t, report.Diagnostics)
	assert.Empty(t, report.ByFile)
	assert.Empty(t, report.BySource)
	assert.Equal(t, ReportVersion, report.Version)
}

func TestAnalyze_NilResult(t *testing.T) {
	t.Parallel()

	report := Analyze(nil, DefaultOptions())
	require.NotNil(t, report)
	assert.False(t, report.Totals.HasIssues())
}

func TestAnalyze_CountsTotals(t *testing.T) {
	t.Parallel()

	report := Analyze(sampleResult(), DefaultOptions())

	assert.Equal(t, Totals{
		Files:           3,
		FilesWithIssues: 2,
		Issues:          4,
		Errors:          2,
		Warnings:        2,
	}, report.Totals)
}

func TestAnalyze_DiagnosticEntriesAreOneBased(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.WorkingDir = "/src"
	report := Analyze(sampleResult(), opts)

	require.Len(t, report.Diagnostics, 4)
	assert.Equal(t, DiagnosticEntry{
		FilePath:    "a.s",
		Source:      "assembler",
		Severity:    "error",
		Message:     "message",
		StartLine:   5,
		StartColumn: 3,
		EndLine:     5,
		EndColumn:   6,
	}, report.Diagnostics[1])
}

func TestAnalyze_GroupsBySource(t *testing.T) {
	t.Parallel()

	report := Analyze(sampleResult(), DefaultOptions())

	require.Len(t, report.BySource, 2)
	// Equal counts fall back to name order.
	assert.Equal(t, SourceAnalysis{
		Source: "assembler", Issues: 2, Errors: 2,
		Files: []string{"/src/a.s"},
	}, report.BySource[0])
	assert.Equal(t, SourceAnalysis{
		Source: "preprocessor", Issues: 2, Warnings: 2,
		Files: []string{"/src/a.s", "/src/b.s"},
	}, report.BySource[1])
}

func TestAnalyze_GroupsByFile(t *testing.T) {
	t.Parallel()

	report := Analyze(sampleResult(), DefaultOptions())

	require.Len(t, report.ByFile, 2, "clean files are omitted")
	assert.Equal(t, "/src/a.s", report.ByFile[0].Path)
	assert.Equal(t, 3, report.ByFile[0].Issues)
	assert.Equal(t, []string{"assembler", "preprocessor"}, report.ByFile[0].Sources)
	assert.Equal(t, "/src/b.s", report.ByFile[1].Path)
}

func TestAnalyze_SortOrders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		sortBy SortField
		desc   bool
		want   []string
	}{
		{"count descending", SortByCount, true, []string{"/src/a.s", "/src/b.s"}},
		{"count ascending", SortByCount, false, []string{"/src/b.s", "/src/a.s"}},
		{"alpha", SortByAlpha, true, []string{"/src/a.s", "/src/b.s"}},
		{"severity", SortBySeverity, false, []string{"/src/a.s", "/src/b.s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := DefaultOptions()
			opts.SortBy = tt.sortBy
			opts.SortDesc = tt.desc
			report := Analyze(sampleResult(), opts)

			var got []string
			for _, fa := range report.ByFile {
				got = append(got, fa.Path)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAnalyze_FileErrors(t *testing.T) {
	t.Parallel()

	result := &runner.Result{
		Files: []runner.FileOutcome{
			{
				Path:  "/src/inc.s",
				AST:   astWith("/src/inc.s", diag(asmast.SeverityWarning, "preprocessor", 0, 0)),
				Error: errors.New("preprocessing failed: include not found: x.h"),
			},
			{
				Path:  "/src/gone.s",
				Error: errors.New("read file: no such file"),
			},
		},
	}

	report := Analyze(result, DefaultOptions())

	assert.Equal(t, 2, report.Totals.FilesErrored)
	assert.Equal(t, 2, report.Totals.FilesWithIssues)
	assert.Equal(t, 3, report.Totals.Issues)
	assert.Equal(t, 2, report.Totals.Errors)
	assert.True(t, report.Totals.HasErrors())

	require.Len(t, report.Diagnostics, 3)
	assert.Equal(t, "preprocessor", report.Diagnostics[0].Source)
	last := report.Diagnostics[2]
	assert.Equal(t, SourceDriver, last.Source)
	assert.Equal(t, "read file: no such file", last.Message)
	assert.Equal(t, 1, last.StartLine)

	// The AST passed in must not grow the synthesized entry.
	assert.Len(t, result.Files[0].AST.Diags, 1)
}

func TestAnalyze_ExcludeViews(t *testing.T) {
	t.Parallel()

	report := Analyze(sampleResult(), Options{})

	assert.Equal(t, 4, report.Totals.Issues)
	assert.Empty(t, report.Diagnostics)
	assert.Empty(t, report.ByFile)
	assert.Empty(t, report.BySource)
}
