package cmd

import (
	"fmt"
	"io"
	"os"

	"roster-reconciliation-service/pkg/errors"
)

// CLIErrorHandler renders run failures for the terminal and picks the
// process exit code.
type CLIErrorHandler struct {
	out     io.Writer
	verbose bool
}

// NewCLIErrorHandler creates a handler writing to stderr.
func NewCLIErrorHandler() *CLIErrorHandler {
	return &CLIErrorHandler{out: os.Stderr, verbose: verbose}
}

// Handle prints the error and returns the exit code to terminate with.
// Returns 0 for a nil error.
func (h *CLIErrorHandler) Handle(err error) int {
	if err == nil {
		return 0
	}

	// Anything that escaped without a category is an internal failure.
	runErr, ok := errors.AsRunError(err)
	if !ok {
		runErr = errors.InternalError(errors.CodeUnexpectedError, "command execution", err)
	}

	fmt.Fprintf(h.out, "Error: %s\n", runErr.Message)
	if runErr.Suggestion != "" {
		fmt.Fprintf(h.out, "Suggestion: %s\n", runErr.Suggestion)
	}

	if h.verbose {
		if len(runErr.Context) > 0 {
			fmt.Fprintln(h.out, "Context:")
			for k, v := range runErr.Context {
				fmt.Fprintf(h.out, "  %s: %v\n", k, v)
			}
		}
		if runErr.Cause != nil {
			fmt.Fprintf(h.out, "Caused by: %v\n", runErr.Cause)
		}
	}

	return runErr.GetExitCode()
}
