// Copyright 2026 The Coffer Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import "fmt"

// A FormatError reports structurally invalid manifest bytes: a
// truncated stream, a declared length that exceeds the remaining
// data, a bad magic, or a digest mismatch. It is only produced by
// decoding — queries surface absence as a boolean result and
// mutations never fail on bad input.
//
// A decode that returns a FormatError leaves the target collection or
// manifest in an undefined partial state; callers must discard it
// rather than reuse it.
type FormatError struct {
	// Message describes what was being decoded when the problem was
	// found.
	Message string

	// Err is the underlying I/O or codec error, if any.
	Err error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// formatErrorf builds a *FormatError wrapping err (which may be nil).
func formatErrorf(err error, format string, args ...any) error {
	return &FormatError{Message: fmt.Sprintf(format, args...), Err: err}
}
