package runner

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/yaklabco/asmbridge/internal/logging"
)

// Runner orchestrates multi-file analysis using an Analyzer.
type Runner struct {
	// Analyzer handles per-file parsing.
	Analyzer Analyzer
}

// New creates a new Runner with the given analyzer.
func New(analyzer Analyzer) *Runner {
	return &Runner{Analyzer: analyzer}
}

// Run discovers files under opts.Paths and processes them concurrently.
// It returns a deterministic collection of FileOutcome values and aggregate stats.
//
// A file that fails to parse is recorded in its FileOutcome and does not
// stop the run; only cancellation does.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	files, err := Discover(ctx, opts)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Files: make([]FileOutcome, 0, len(files)),
		Stats: newStats(),
	}
	result.Stats.FilesDiscovered = len(files)

	if len(files) == 0 {
		return result, nil
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	// Don't use more workers than files.
	jobs = min(jobs, len(files))

	logger := logging.FromContext(ctx)
	logger.Debug("analyzing files", logging.FieldFiles, len(files), logging.FieldJobs, jobs)

	// Each worker writes only its own slot, so order is discovery order.
	outcomes := make([]FileOutcome, len(files))
	done := make([]bool, len(files))

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(jobs)

	for i, path := range files {
		if gctx.Err() != nil {
			break
		}
		group.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ast, err := r.Analyzer.Analyze(gctx, path)
			if err != nil {
				logger.Debug("file failed", logging.FieldFile, path, logging.FieldError, err)
			}
			outcomes[i] = FileOutcome{Path: path, AST: ast, Error: err}
			done[i] = true
			return nil
		})
	}

	waitErr := group.Wait()

	for i, outcome := range outcomes {
		if done[i] {
			result.accumulate(outcome)
		}
	}

	if ctx.Err() != nil {
		return result, fmt.Errorf("run cancelled: %w", ctx.Err())
	}
	if waitErr != nil {
		return result, fmt.Errorf("run cancelled: %w", waitErr)
	}

	return result, nil
}
