// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

package remote

import (
	"errors"
	"fmt"
)

// maxErrorBodySize limits how much of an error body is kept.
const maxErrorBodySize = 64 * 1024

var (
	// ErrInvalidMethod is returned for methods other than GET, POST and DELETE.
	ErrInvalidMethod = errors.New("invalid method")

	// ErrCircuitOpen is returned while the breaker rejects calls.
	ErrCircuitOpen = errors.New("remote circuit open")

	// errServerStatus marks a 5xx response as a breaker failure. It never
	// leaves the package.
	errServerStatus = errors.New("server error status")
)

// callerAbort wraps an error that occurred after the caller's context was
// cancelled or ran out. The breaker does not count it; Call unwraps it.
type callerAbort struct {
	err error
}

func (e *callerAbort) Error() string { return e.err.Error() }
func (e *callerAbort) Unwrap() error { return e.err }

// APIError is a non-2xx response from the remote API.
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("remote %s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// StatusCode extracts the upstream status of an *APIError in err's chain.
func StatusCode(err error) (int, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode, true
	}
	return 0, false
}
