package errclass

import (
	"context"
	"errors"
	"net"
	"net/url"
)

// Sentinel errors shared across the pipeline. Callers match with errors.Is.
var (
	// ErrNotFound: account or email missing. Returned to the caller, never
	// retried.
	ErrNotFound = errors.New("not found")

	// ErrConflict: a classification lease is already held for this email.
	// The caller should skip it this cycle, not treat it as a failure.
	ErrConflict = errors.New("conflict")

	// ErrUnconfigured: a required API key or sink URL is missing. The
	// specific downstream effect is skipped; the rest of the operation
	// continues.
	ErrUnconfigured = errors.New("not configured")
)

// UpstreamError wraps a mail-source or classifier failure together with its
// retry class.
type UpstreamError struct {
	Op        string
	Transient bool
	Err       error
}

func (e *UpstreamError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Transient marks err as a temporary upstream failure, worth retrying per
// component policy.
func Transient(op string, err error) error {
	return &UpstreamError{Op: op, Transient: true, Err: err}
}

// Permanent marks err as a deterministic upstream rejection (auth failure,
// malformed request). Surfaced immediately, never retried.
func Permanent(op string, err error) error {
	return &UpstreamError{Op: op, Transient: false, Err: err}
}

// IsTransient reports whether err should be retried. Unknown errors are
// treated as permanent: retrying blind is worse than surfacing.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Transient
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	// 主动取消不重试
	if errors.Is(err, context.Canceled) {
		return false
	}

	return false
}
