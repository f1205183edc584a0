/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package schedule

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a referenced show or slot does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError reports a rejected request field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func validationErr(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// ConflictError rejects a calendar mutation that would double-book the
// station. Occurrence is the 1-based index of the offending occurrence
// within a recurring batch, or 1 for a single-slot request.
type ConflictError struct {
	Occurrence int
	ShowTitle  string
	Start      time.Time
	End        time.Time
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("occurrence %d (%s - %s) overlaps existing slot for show %q",
		e.Occurrence,
		e.Start.UTC().Format(time.RFC3339),
		e.End.UTC().Format(time.RFC3339),
		e.ShowTitle)
}
