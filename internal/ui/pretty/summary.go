package pretty

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yaklabco/asmbridge/pkg/analysis"
)

const (
	summaryDividerWidth = 40
	wordFile            = "file"
	wordFiles           = "files"
)

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// FormatSummaryOneLine formats report totals as a single line.
// Example: "5 issues (3 errors, 2 warnings) in 2 files".
func (s *Styles) FormatSummaryOneLine(totals analysis.Totals) string {
	if totals.Issues == 0 {
		return s.Success.Render("No issues found") +
			s.Dim.Render(fmt.Sprintf(" (%d %s checked, %d instructions)",
				totals.Files, plural(totals.Files, wordFile, wordFiles), totals.Instructions)) + "\n"
	}

	var severityParts []string
	if totals.Errors > 0 {
		severityParts = append(severityParts,
			s.Error.Render(fmt.Sprintf("%d %s", totals.Errors, plural(totals.Errors, "error", "errors"))))
	}
	if totals.Warnings > 0 {
		severityParts = append(severityParts,
			s.Warning.Render(fmt.Sprintf("%d %s", totals.Warnings, plural(totals.Warnings, "warning", "warnings"))))
	}
	if totals.Notes > 0 {
		severityParts = append(severityParts,
			s.Note.Render(fmt.Sprintf("%d %s", totals.Notes, plural(totals.Notes, "note", "notes"))))
	}

	line := fmt.Sprintf("%d %s", totals.Issues, plural(totals.Issues, "issue", "issues"))
	if len(severityParts) > 0 {
		line += " (" + strings.Join(severityParts, ", ") + ")"
	}
	line += fmt.Sprintf(" in %d %s", totals.FilesWithIssues, plural(totals.FilesWithIssues, wordFile, wordFiles))

	if totals.FilesErrored > 0 {
		line += ", " + s.Failure.Render(fmt.Sprintf("%d %s could not be parsed",
			totals.FilesErrored, plural(totals.FilesErrored, wordFile, wordFiles)))
	}

	return line + "\n"
}

// FormatSummary formats report totals as a summary block.
func (s *Styles) FormatSummary(totals analysis.Totals) string {
	var builder strings.Builder

	row := func(label string, style func(...string) string, value int) {
		builder.WriteString(fmt.Sprintf("  %-19s", label+":") + style(strconv.Itoa(value)) + "\n")
	}

	builder.WriteString("\n")
	builder.WriteString(s.SummaryTitle.Render("Summary"))
	builder.WriteString("\n")
	builder.WriteString(strings.Repeat("-", summaryDividerWidth))
	builder.WriteString("\n")

	row("Files checked", s.SummaryValue.Render, totals.Files)
	if totals.FilesWithIssues > 0 {
		row("Files with issues", s.Failure.Render, totals.FilesWithIssues)
	}
	if totals.FilesErrored > 0 {
		row("Files not parsed", s.Failure.Render, totals.FilesErrored)
	}
	row("Instructions", s.SummaryValue.Render, totals.Instructions)

	builder.WriteString("\n")
	row("Total issues", s.SummaryValue.Render, totals.Issues)
	if totals.Errors > 0 {
		row("  Errors", s.Error.Render, totals.Errors)
	}
	if totals.Warnings > 0 {
		row("  Warnings", s.Warning.Render, totals.Warnings)
	}
	if totals.Notes > 0 {
		row("  Notes", s.Note.Render, totals.Notes)
	}

	builder.WriteString("\n")

	switch {
	case totals.Errors > 0:
		builder.WriteString(s.Failure.Render("Check failed with errors"))
	case totals.Warnings > 0:
		builder.WriteString(s.Warning.Render("Check completed with warnings"))
	default:
		builder.WriteString(s.Success.Render("Check passed"))
	}
	builder.WriteString("\n")

	return builder.String()
}
