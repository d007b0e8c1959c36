package reporter

import (
	"context"

	"github.com/yaklabco/asmbridge/pkg/analysis"
)

// Renderer formats an analysis.Report for output.
// Renderers are stateless and only handle presentation logic.
type Renderer interface {
	// Render writes the formatted report to the configured output.
	Render(ctx context.Context, report *analysis.Report) error
}

// LineSource returns the one-based line of a reported file, keyed by the
// path as it appears in the report.
type LineSource func(path string, line int) (string, bool)

// sourceAware renderers show source context when lines are available.
type sourceAware interface {
	setLines(lines LineSource)
}
