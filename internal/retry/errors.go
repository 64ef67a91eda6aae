package retry

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"

	pq "github.com/lib/pq"
)

// TransientError is returned once every attempt failed with a retryable error.
type TransientError struct {
	Attempts int
	Err      error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient failure after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError wraps a failure that is never retried.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("permanent failure: %v", e.Err)
}

func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent marks err as non-retryable regardless of its contents.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// SQLSTATE codes treated as transient. Class 08 (connection exception) is
// matched by prefix.
var transientCodes = map[pq.ErrorCode]bool{
	"53300": true, // too_many_connections
	"53400": true, // configuration_limit_exceeded
	"57P01": true, // admin_shutdown
	"57P02": true, // crash_shutdown
	"57P03": true, // cannot_connect_now
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
}

// TransientSignatures are the message fragments matched when an error carries
// no structured code. Matching is case-insensitive.
var TransientSignatures = []string{
	"connection reset",
	"connection refused",
	"connection terminated",
	"broken pipe",
	"timeout",
	"timed out",
	"too many clients",
	"too many connections",
	"remaining connection slots are reserved",
	"econnreset",
	"etimedout",
	"fetch failed",
}

// IsTransient classifies err. Structured signals are consulted first
// (Postgres SQLSTATE, net.Error timeouts, syscall errnos); message matching
// is the last resort.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var perm *PermanentError
	if errors.As(err, &perm) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Class() == "08" || transientCodes[pqErr.Code]
	}

	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, sig := range TransientSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}
