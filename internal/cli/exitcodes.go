package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/yaklabco/asmbridge/internal/configloader"
	"github.com/yaklabco/asmbridge/pkg/runner"
)

// Exit codes for asmbridge.
const (
	// ExitSuccess indicates successful execution with no error diagnostics.
	ExitSuccess = 0

	// ExitIssues indicates analysis completed but found errors.
	ExitIssues = 1

	// ExitUsage indicates invalid command-line usage or configuration.
	ExitUsage = 2

	// ExitInternal indicates an internal error.
	ExitInternal = 3
)

// ErrIssuesFound is returned when analysis reports error diagnostics or a
// file could not be analyzed.
var ErrIssuesFound = errors.New("issues found")

// usageError marks an error caused by how the command was invoked.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// newUsageError wraps err so that ExitCode maps it to ExitUsage.
func newUsageError(err error) error {
	if err == nil {
		return nil
	}
	return &usageError{err: err}
}

// ExitCode maps an error returned by the root command to a process exit
// code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, ErrIssuesFound) {
		return ExitIssues
	}

	var uerr *usageError
	var verr *configloader.ValidationError
	if errors.As(err, &uerr) || errors.As(err, &verr) {
		return ExitUsage
	}

	return ExitInternal
}

// ExitCodeFromResult determines the exit code for a finished run.
func ExitCodeFromResult(result *runner.Result) int {
	if result == nil {
		return ExitSuccess
	}
	if result.HasFailures() {
		return ExitIssues
	}
	return ExitSuccess
}

// exactArgs is cobra.ExactArgs with usage exit semantics.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		return newUsageError(cobra.ExactArgs(n)(cmd, args))
	}
}
