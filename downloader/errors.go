package downloader

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// TimeoutError indicates a timeout while issuing a request or waiting for
// response headers.
type TimeoutError struct {
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout: %v", e.Err)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// ConnectionError indicates a network connectivity failure, including a
// stream that dropped mid-body.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// StatusError indicates a non-success HTTP status for a single file.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status %d for %s", e.Status, e.URL)
}

// FilesystemError indicates a directory, create, or write failure on the
// destination.
type FilesystemError struct {
	Op  string
	Err error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("filesystem %s: %v", e.Op, e.Err)
}

func (e *FilesystemError) Unwrap() error {
	return e.Err
}

// Classify wraps a raw transport error into one of the typed errors above.
// Already-typed errors pass through unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var statusErr *StatusError
	var fsErr *FilesystemError
	if errors.As(err, &statusErr) || errors.As(err, &fsErr) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TimeoutError{Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return &ConnectionError{Err: err}
	}

	return err
}

// CategoryOf maps an error onto the label used for metrics and the batch
// summary.
func CategoryOf(err error) string {
	if err == nil {
		return "unknown"
	}
	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		return "timeout"
	}
	var connErr *ConnectionError
	if errors.As(err, &connErr) {
		return "connection"
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return "http_status"
	}
	var fsErr *FilesystemError
	if errors.As(err, &fsErr) {
		return "filesystem"
	}
	return "other"
}
