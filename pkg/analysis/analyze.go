package analysis

import (
	"cmp"
	"path/filepath"
	"slices"
	"time"

	"github.com/yaklabco/asmbridge/pkg/asmast"
	"github.com/yaklabco/asmbridge/pkg/runner"
)

// ReportVersion is the current report format version.
const ReportVersion = "1.0.0"

// SourceDriver labels diagnostics synthesized from file-level failures
// such as unreadable files or fatal preprocessing errors.
const SourceDriver = "asmbridge"

// DisplayPath converts an absolute path to a relative path from workDir.
// If workDir is empty or conversion fails, returns the original path.
func DisplayPath(absPath, workDir string) string {
	if workDir == "" {
		return absPath
	}
	relPath, err := filepath.Rel(workDir, absPath)
	if err != nil {
		return absPath
	}
	return relPath
}

// analysisContext holds temporary state during analysis.
type analysisContext struct {
	sourceMap   map[string]*SourceAnalysis
	fileMap     map[string]*FileAnalysis
	sourceFiles map[string]map[string]bool
	fileSources map[string]map[string]bool
}

// newAnalysisContext creates a new analysis context.
func newAnalysisContext() *analysisContext {
	return &analysisContext{
		sourceMap:   make(map[string]*SourceAnalysis),
		fileMap:     make(map[string]*FileAnalysis),
		sourceFiles: make(map[string]map[string]bool),
		fileSources: make(map[string]map[string]bool),
	}
}

// counts is the severity counter shared by every view.
type counts struct {
	issues, errors, warnings, notes *int
}

func (c counts) add(sev asmast.Severity) {
	*c.issues++
	switch sev {
	case asmast.SeverityError:
		*c.errors++
	case asmast.SeverityWarning:
		*c.warnings++
	case asmast.SeverityNote:
		*c.notes++
	}
}

func (ctx *analysisContext) file(path string) *FileAnalysis {
	if _, ok := ctx.fileMap[path]; !ok {
		ctx.fileMap[path] = &FileAnalysis{Path: path}
		ctx.fileSources[path] = make(map[string]bool)
	}
	return ctx.fileMap[path]
}

func (ctx *analysisContext) source(name string) *SourceAnalysis {
	if _, ok := ctx.sourceMap[name]; !ok {
		ctx.sourceMap[name] = &SourceAnalysis{Source: name}
		ctx.sourceFiles[name] = make(map[string]bool)
	}
	return ctx.sourceMap[name]
}

// record counts one diagnostic in every view.
func (ctx *analysisContext) record(report *Report, path string, diag asmast.Diagnostic, opts Options) {
	src := diag.Source
	if src == "" {
		src = SourceDriver
	}

	t := &report.Totals
	counts{&t.Issues, &t.Errors, &t.Warnings, &t.Notes}.add(diag.Severity)

	fa := ctx.file(path)
	counts{&fa.Issues, &fa.Errors, &fa.Warnings, &fa.Notes}.add(diag.Severity)
	ctx.fileSources[path][src] = true

	sa := ctx.source(src)
	counts{&sa.Issues, &sa.Errors, &sa.Warnings, &sa.Notes}.add(diag.Severity)
	ctx.sourceFiles[src][path] = true

	if opts.IncludeDiagnostics {
		report.Diagnostics = append(report.Diagnostics, DiagnosticEntry{
			FilePath:    path,
			Source:      src,
			Severity:    diag.Severity.String(),
			Message:     diag.Message,
			StartLine:   diag.Range.Start.Line + 1,
			StartColumn: diag.Range.Start.Character + 1,
			EndLine:     diag.Range.End.Line + 1,
			EndColumn:   diag.Range.End.Character + 1,
		})
	}
}

// buildBySource constructs the BySource slice from accumulated data.
func (ctx *analysisContext) buildBySource(opts Options) []SourceAnalysis {
	result := make([]SourceAnalysis, 0, len(ctx.sourceMap))
	for name, sa := range ctx.sourceMap {
		for f := range ctx.sourceFiles[name] {
			sa.Files = append(sa.Files, f)
		}
		slices.Sort(sa.Files)
		result = append(result, *sa)
	}
	sortViews(result, opts.SortBy, opts.SortDesc, func(s SourceAnalysis) viewKey {
		return viewKey{s.Source, s.Issues, s.Errors, s.Warnings}
	})
	return result
}

// buildByFile constructs the ByFile slice from accumulated data.
func (ctx *analysisContext) buildByFile(opts Options) []FileAnalysis {
	var result []FileAnalysis
	for path, fa := range ctx.fileMap {
		if fa.Issues == 0 {
			continue
		}
		for s := range ctx.fileSources[path] {
			fa.Sources = append(fa.Sources, s)
		}
		slices.Sort(fa.Sources)
		result = append(result, *fa)
	}
	sortViews(result, opts.SortBy, opts.SortDesc, func(f FileAnalysis) viewKey {
		return viewKey{f.Path, f.Issues, f.Errors, f.Warnings}
	})
	return result
}

// Analyze transforms a runner.Result into a Report.
// It performs a single pass through diagnostics to compute all views.
//
// A file that failed to parse contributes the diagnostics recorded before
// the failure plus one error entry carrying the failure itself.
func Analyze(result *runner.Result, opts Options) *Report {
	report := &Report{
		Version:   ReportVersion,
		Timestamp: time.Now(),
	}

	if result == nil {
		return report
	}

	ctx := newAnalysisContext()

	for _, file := range result.Files {
		report.Totals.Files++

		displayPath := DisplayPath(file.Path, opts.WorkingDir)
		diags := file.Diagnostics()
		if file.Error != nil {
			report.Totals.FilesErrored++
			diags = append(slices.Clone(diags), asmast.Diagnostic{
				Severity:       asmast.SeverityError,
				Message:        file.Error.Error(),
				File:           file.Path,
				InsideMainFile: true,
				Source:         SourceDriver,
			})
		}
		if file.AST != nil {
			report.Totals.Instructions += len(file.AST.Instructions)
		}

		if len(diags) > 0 {
			report.Totals.FilesWithIssues++
		}
		for _, diag := range diags {
			ctx.record(report, displayPath, diag, opts)
		}
	}

	if opts.IncludeBySource {
		report.BySource = ctx.buildBySource(opts)
	}
	if opts.IncludeByFile {
		report.ByFile = ctx.buildByFile(opts)
	}

	return report
}

// viewKey is the sortable part of a grouped view.
type viewKey struct {
	name     string
	issues   int
	errors   int
	warnings int
}

func sortViews[T any](views []T, sortBy SortField, desc bool, key func(T) viewKey) {
	slices.SortFunc(views, func(l, r T) int {
		left, right := key(l), key(r)
		switch sortBy {
		case SortByAlpha:
			// Alphabetical sorting is always ascending (A-Z)
			return cmp.Compare(left.name, right.name)
		case SortBySeverity:
			// Errors first, then warnings (always descending by severity)
			result := cmp.Compare(right.errors, left.errors)
			if result == 0 {
				result = cmp.Compare(right.warnings, left.warnings)
			}
			if result == 0 {
				result = cmp.Compare(right.issues, left.issues)
			}
			if result == 0 {
				result = cmp.Compare(left.name, right.name)
			}
			return result
		default: // SortByCount
			result := cmp.Compare(left.issues, right.issues)
			if desc {
				result = -result
			}
			if result == 0 {
				result = cmp.Compare(left.name, right.name)
			}
			return result
		}
	})
}
