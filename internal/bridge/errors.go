package bridge

import (
	"fmt"
	"net/http"
)

// RejectionError means the request reached the device and the device
// judged it invalid (HTTP 400). This is a caller-input error class,
// distinct from transport failure, and carries the device's own detail
// text when it provided one.
type RejectionError struct {
	Detail string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("device rejected the sequence: %s", e.Detail)
}

// StatusError means the device answered with an unexpected non-2xx,
// non-400 status.
type StatusError struct {
	StatusCode int
	Status     string
	Detail     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("device returned %s: %s", e.Status, e.Detail)
}

func newStatusError(resp *http.Response) *StatusError {
	return &StatusError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Detail:     readDetail(resp),
	}
}

// UnavailableError means the device could not be reached at all: timeout,
// refused connection, or name resolution failure. It names the configured
// base address so the failure can be diagnosed without re-running.
type UnavailableError struct {
	BaseURL string
	Err     error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("failed to contact device at %s: %v", e.BaseURL, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}
