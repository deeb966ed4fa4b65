package apperrors

import (
	"fmt"
	"time"
)

// ErrAuthentication is returned when the catalog rejects the credentials or
// API key. Non-retryable: the caller disables download capability instead
// of retrying.
type ErrAuthentication struct {
	Reason string
}

// Error implements the error interface.
func (e *ErrAuthentication) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("authentication failed: %s", e.Reason)
	}
	return "authentication failed"
}

// Is allows for error checking with errors.Is().
func (e *ErrAuthentication) Is(target error) bool {
	_, ok := target.(*ErrAuthentication)
	return ok
}

// NewAuthenticationError creates a new ErrAuthentication.
func NewAuthenticationError(reason string) *ErrAuthentication {
	return &ErrAuthentication{Reason: reason}
}

// ErrRateLimited is returned when the catalog answered 429. RetryAfter holds
// the server-provided wait; Retryable is false when the server gave no wait
// duration, in which case the request must not be repeated.
type ErrRateLimited struct {
	RetryAfter time.Duration
	Retryable  bool
}

// Error implements the error interface.
func (e *ErrRateLimited) Error() string {
	if e.Retryable {
		return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
	}
	return "rate limited with no retry window"
}

// Is allows for error checking with errors.Is().
func (e *ErrRateLimited) Is(target error) bool {
	_, ok := target.(*ErrRateLimited)
	return ok
}

// ErrQuotaExhausted is returned before any network call when the advisory
// daily-download counter has reached zero.
type ErrQuotaExhausted struct {
	Remaining int
}

// Error implements the error interface.
func (e *ErrQuotaExhausted) Error() string {
	return fmt.Sprintf("daily download quota exhausted (remaining: %d)", e.Remaining)
}

// Is allows for error checking with errors.Is().
func (e *ErrQuotaExhausted) Is(target error) bool {
	_, ok := target.(*ErrQuotaExhausted)
	return ok
}

// ErrDownloadUnavailable is returned when the catalog answered 406 on a
// download: the daily quota is spent or the file is gone. Not retryable.
type ErrDownloadUnavailable struct {
	FileID int64
}

// Error implements the error interface.
func (e *ErrDownloadUnavailable) Error() string {
	return fmt.Sprintf("download limit reached or subtitle file %d unavailable", e.FileID)
}

// Is allows for error checking with errors.Is().
func (e *ErrDownloadUnavailable) Is(target error) bool {
	_, ok := target.(*ErrDownloadUnavailable)
	return ok
}

// ErrUnexpectedStatus covers catalog responses outside the documented
// contract (anything that is not 200/401/406/429).
type ErrUnexpectedStatus struct {
	Endpoint   string
	StatusCode int
}

// Error implements the error interface.
func (e *ErrUnexpectedStatus) Error() string {
	return fmt.Sprintf("%s returned unexpected status %d", e.Endpoint, e.StatusCode)
}

// Is allows for error checking with errors.Is().
func (e *ErrUnexpectedStatus) Is(target error) bool {
	_, ok := target.(*ErrUnexpectedStatus)
	return ok
}

// ErrLocalWrite is returned when downloaded subtitle bytes cannot be
// persisted. The affected language is skipped; the item continues.
type ErrLocalWrite struct {
	Path  string
	Cause error
}

// Error implements the error interface.
func (e *ErrLocalWrite) Error() string {
	return fmt.Sprintf("failed to write subtitle to %s: %v", e.Path, e.Cause)
}

// Unwrap exposes the underlying filesystem error.
func (e *ErrLocalWrite) Unwrap() error {
	return e.Cause
}

// Is allows for error checking with errors.Is().
func (e *ErrLocalWrite) Is(target error) bool {
	_, ok := target.(*ErrLocalWrite)
	return ok
}
