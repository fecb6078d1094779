// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

package models

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRecord marks upstream data that cannot be turned into a
	// post record. Only the offending record is rejected.
	ErrMalformedRecord = errors.New("malformed post record")

	// ErrInvalidCategory is returned for tag categories outside the known set.
	ErrInvalidCategory = errors.New("invalid tag category")

	// ErrInvalidVote is returned for votes other than -1, 0 and 1.
	ErrInvalidVote = errors.New("vote must be -1, 0 or 1")

	errEmptyTimestamp = errors.New("empty value")
)

// TimestampError reports an unparseable timestamp. It matches
// ErrMalformedRecord with errors.Is.
type TimestampError struct {
	Value string
	Err   error
}

func (e *TimestampError) Error() string {
	return fmt.Sprintf("invalid timestamp %q: %v", e.Value, e.Err)
}

func (e *TimestampError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrMalformedRecord) succeed.
func (e *TimestampError) Is(target error) bool {
	return target == ErrMalformedRecord
}

func malformed(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrMalformedRecord}, args...)...)
}
