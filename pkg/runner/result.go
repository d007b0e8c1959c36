package runner

import "github.com/yaklabco/asmbridge/pkg/asmast"

// FileOutcome is the analysis result of one file.
type FileOutcome struct {
	// Path is the absolute file path that was processed.
	Path string

	// AST holds the parse result. It is set whenever the file could be
	// read, even if parsing stopped early; front-end diagnostics recorded
	// before a fatal error are kept.
	AST *asmast.AST

	// Error is set if the file could not be read or parsing stopped.
	Error error
}

// Diagnostics returns the translated diagnostics of the file.
func (o FileOutcome) Diagnostics() []asmast.Diagnostic {
	if o.AST == nil {
		return nil
	}
	return o.AST.Diags
}

// Stats captures aggregate information about a run.
type Stats struct {
	// FilesDiscovered is the total number of files found during discovery.
	FilesDiscovered int

	// FilesProcessed is the number of files parsed to completion.
	FilesProcessed int

	// FilesErrored is the number of files that could not be read or parsed.
	FilesErrored int

	// FilesWithIssues is the number of files with at least one diagnostic.
	FilesWithIssues int

	// DiagnosticsTotal is the total number of diagnostics across all files.
	DiagnosticsTotal int

	// DiagnosticsBySeverity maps severity names to counts.
	DiagnosticsBySeverity map[string]int

	// Instructions is the number of decoded instructions across all files.
	Instructions int
}

// Result is the overall runner result.
type Result struct {
	// Files contains the outcome for each discovered file, in discovery order
	// (sorted by path).
	Files []FileOutcome

	// Stats contains aggregate statistics for the run.
	Stats Stats
}

// HasFailures reports whether any error diagnostic occurred or any file
// could not be analyzed.
func (r *Result) HasFailures() bool {
	if r == nil {
		return false
	}
	return r.Stats.DiagnosticsBySeverity[asmast.SeverityError.String()] > 0 || r.Stats.FilesErrored > 0
}

// HasIssues reports whether any diagnostics were found.
func (r *Result) HasIssues() bool {
	if r == nil {
		return false
	}
	return r.Stats.DiagnosticsTotal > 0
}

// newStats creates a new Stats with initialized maps.
func newStats() Stats {
	return Stats{
		DiagnosticsBySeverity: make(map[string]int),
	}
}

// accumulate updates the result with a file outcome.
func (r *Result) accumulate(outcome FileOutcome) {
	r.Files = append(r.Files, outcome)

	if outcome.Error != nil {
		r.Stats.FilesErrored++
	} else {
		r.Stats.FilesProcessed++
	}

	if outcome.AST == nil {
		return
	}

	r.Stats.Instructions += len(outcome.AST.Instructions)

	diags := outcome.AST.Diags
	r.Stats.DiagnosticsTotal += len(diags)
	if len(diags) > 0 {
		r.Stats.FilesWithIssues++
	}
	for _, diag := range diags {
		r.Stats.DiagnosticsBySeverity[diag.Severity.String()]++
	}
}
