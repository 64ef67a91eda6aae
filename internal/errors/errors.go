package errors

import (
	"errors"
	"fmt"
	"os"

	"github.com/flowstate/flowstate/internal/logger"
)

// Exit codes for the flowstate binary.
const (
	ExitFailure = 1
	ExitConfig  = 2
)

// hinted attaches a remedy shown under the error message.
type hinted struct {
	err  error
	hint string
	code int
}

func (h *hinted) Error() string { return h.err.Error() }
func (h *hinted) Unwrap() error { return h.err }

// WithHint wraps err with a one-line remedy for the user.
func WithHint(err error, hint string) error {
	if err == nil {
		return nil
	}
	return &hinted{err: err, hint: hint, code: ExitFailure}
}

// ConfigError wraps err as a configuration problem; the process exits with ExitConfig.
func ConfigError(err error, hint string) error {
	if err == nil {
		return nil
	}
	return &hinted{err: err, hint: hint, code: ExitConfig}
}

// Hint returns the outermost remedy attached to err, if any.
func Hint(err error) string {
	var h *hinted
	if errors.As(err, &h) {
		return h.hint
	}
	return ""
}

// ExitCode maps err to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var h *hinted
	if errors.As(err, &h) {
		return h.code
	}
	return ExitFailure
}

// Format renders err for the terminal: "Error: msg", plus a "Hint:" line
// when one is attached anywhere in the chain.
func Format(err error) string {
	if err == nil {
		return ""
	}
	msg := fmt.Sprintf("Error: %v", err)
	if hint := Hint(err); hint != "" {
		msg += "\nHint: " + hint
	}
	return msg
}

// Fatal logs an error and exits with its exit code
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(ExitCode(err))
	}
}
