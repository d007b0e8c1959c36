package pretty

import (
	"fmt"
	"strings"

	"github.com/yaklabco/asmbridge/pkg/analysis"
)

// FormatDiagnostic formats a single diagnostic for terminal output.
// sourceLine is the offending line of the main file, or empty.
func (s *Styles) FormatDiagnostic(diag *analysis.DiagnosticEntry, showContext bool, sourceLine string) string {
	var builder strings.Builder

	// Location: path:line:col
	location := fmt.Sprintf("%s:%d:%d",
		s.FilePath.Render(diag.FilePath),
		diag.StartLine,
		diag.StartColumn,
	)

	// Main line: location  severity  message  [source]
	fmt.Fprintf(&builder, "  %s  %s  %s  %s\n",
		location,
		s.FormatSeverity(diag.Severity),
		s.Message.Render(diag.Message),
		s.Source.Render("["+diag.Source+"]"),
	)

	if showContext && sourceLine != "" {
		width := 0
		if diag.EndLine == diag.StartLine {
			width = diag.EndColumn - diag.StartColumn
		}
		builder.WriteString(s.FormatSourceContext(sourceLine, diag.StartColumn, width))
	}

	return builder.String()
}

// FormatSeverity returns a styled severity string.
func (s *Styles) FormatSeverity(sev string) string {
	switch sev {
	case "error":
		return s.Error.Render(sev)
	case "warning":
		return s.Warning.Render(sev)
	case "note":
		return s.Note.Render(sev)
	default:
		return sev
	}
}

// FormatSourceContext formats the source line with a caret marker under
// the one-based column, followed by tildes covering the rest of width.
func (s *Styles) FormatSourceContext(line string, column, width int) string {
	var builder strings.Builder

	// Indent to align with diagnostic output
	const indent = "        "

	// Tabs would misalign the caret.
	line = strings.ReplaceAll(line, "\t", " ")
	builder.WriteString(indent + s.SourceLine.Render(line) + "\n")

	if column > 0 {
		marker := "^"
		if width > 1 {
			marker += strings.Repeat("~", width-1)
		}
		padding := indent + strings.Repeat(" ", column-1)
		builder.WriteString(padding + s.Caret.Render(marker) + "\n")
	}

	return builder.String()
}

// FormatFileHeader formats a file header for grouped output.
func (s *Styles) FormatFileHeader(path string, issueCount int) string {
	header := s.FilePath.Render(path)
	switch {
	case issueCount == 1:
		header += s.Dim.Render(" (1 issue)")
	case issueCount > 1:
		header += s.Dim.Render(fmt.Sprintf(" (%d issues)", issueCount))
	}
	return header
}
