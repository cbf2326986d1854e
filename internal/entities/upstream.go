package entities

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
)

// UpstreamReason is the sub-reason attached to every provider failure.
type UpstreamReason int

const (
	_ UpstreamReason = iota
	UpstreamUnreachable
	UpstreamServerError
	UpstreamClientError
)

func (r UpstreamReason) String() string {
	switch r {
	case UpstreamUnreachable:
		return "unreachable"
	case UpstreamServerError:
		return "server_error"
	case UpstreamClientError:
		return "client_error"
	default:
		return "unknown"
	}
}

// UpstreamError is the single reported kind for provider failures. It matches
// ErrUpstream with errors.Is, so callers can treat all reasons uniformly.
type UpstreamError struct {
	Reason     UpstreamReason
	StatusCode int
	Timeout    bool
	Err        error
}

func (e *UpstreamError) Error() string {
	var msg string
	switch e.Reason {
	case UpstreamServerError:
		msg = "external api server error"
	case UpstreamClientError:
		msg = "external api client error"
	default:
		msg = "external api request failed"
	}

	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Timeout {
		msg += ": timed out"
	}

	return msg
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

// ClassifyStatus maps a non-2xx provider response to the upstream taxonomy.
func ClassifyStatus(code int, message string) *UpstreamError {
	var cause error
	if message != "" {
		cause = errors.New(message)
	}

	switch {
	case code >= http.StatusInternalServerError:
		return &UpstreamError{Reason: UpstreamServerError, StatusCode: code, Err: cause}
	case code >= http.StatusBadRequest:
		return &UpstreamError{Reason: UpstreamClientError, StatusCode: code, Err: cause}
	default:
		return &UpstreamError{Reason: UpstreamUnreachable, StatusCode: code, Err: cause}
	}
}

// ClassifyTransport maps a transport or decoding failure to the upstream
// taxonomy. Anything that never produced a status code is unreachable.
func ClassifyTransport(err error) *UpstreamError {
	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		return upErr
	}

	return &UpstreamError{
		Reason:  UpstreamUnreachable,
		Timeout: IsTimeout(err),
		Err:     err,
	}
}

// Malformed reports a response that arrived but could not be used.
func Malformed(err error) *UpstreamError {
	return &UpstreamError{Reason: UpstreamUnreachable, Err: err}
}

func IsTimeout(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		return upErr.Timeout
	}

	return false
}
