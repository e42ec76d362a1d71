package extract

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"

	"github.com/digibook/digimonitor/internal/model"
)

// TransientError marks a failure that is safe to retry: timeouts, navigation
// errors, platform throttling.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as retryable.
func Transient(err error) *TransientError {
	return &TransientError{Err: err}
}

// Transientf builds a retryable failure from a format string.
func Transientf(format string, args ...any) *TransientError {
	return &TransientError{Err: fmt.Errorf(format, args...)}
}

// PermanentError marks a failure that retrying cannot fix: removed or invalid
// content, unsupported content type, auth rejection.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err as non-retryable.
func Permanent(err error) *PermanentError {
	return &PermanentError{Err: err}
}

// Permanentf builds a non-retryable failure from a format string.
func Permanentf(format string, args ...any) *PermanentError {
	return &PermanentError{Err: fmt.Errorf(format, args...)}
}

// IsTransient reports whether err should be retried. Explicit PermanentError
// wins over everything; otherwise an explicit TransientError, a deadline, or
// a recognizable network fault counts as transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var pe *PermanentError
	if errors.As(err, &pe) {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// Heuristics for errors surfaced as strings by the browser layer.
	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"net::err_timed_out",
		"net::err_connection_reset",
		"net::err_connection_refused",
		"net::err_name_not_resolved",
		"net::err_network_changed",
		"i/o timeout",
		"temporary failure in name resolution",
		"tls handshake timeout",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// Classify maps an extraction error to its failure class. Unrecognized
// errors are treated as permanent so they are recorded once instead of
// burning retries.
func Classify(err error) model.FailureClass {
	if IsTransient(err) {
		return model.FailureTransient
	}
	return model.FailurePermanent
}
