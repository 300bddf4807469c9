// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import "github.com/cockroachdb/errors"

// ErrNotFound means that a lookup did not find the requested partition.
var ErrNotFound = errors.New("sleeper: not found")

// ErrValidation marks errors caused by invalid caller input or
// configuration: non-canonical regions, mismatched dimension counts, split
// points outside a partition and the like. These are never retried.
var ErrValidation = errors.New("sleeper: validation failed")

// ErrUnsupportedType marks errors caused by a field type that cannot be used
// where it was used, e.g. canonicalizing a range over a map field. Errors
// carrying this mark also carry ErrValidation.
var ErrUnsupportedType = errors.New("sleeper: unsupported field type")

// ErrConflict means an optimistic-concurrency commit was rejected because the
// stored state changed since it was read. The caller must re-read and
// recompute; the rejected inputs must not be resubmitted.
var ErrConflict = errors.New("sleeper: conflicting update")

// ErrInvariantViolation marks a would-be state transition that fails the
// partition tree's structural invariants. Nothing is persisted.
var ErrInvariantViolation = errors.New("sleeper: structural invariant violation")

// ValidationErrorf returns an error marked with ErrValidation.
func ValidationErrorf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrValidation)
}

// UnsupportedTypeErrorf returns an error marked with both ErrUnsupportedType
// and ErrValidation.
func UnsupportedTypeErrorf(format string, args ...interface{}) error {
	return errors.Mark(ValidationErrorf(format, args...), ErrUnsupportedType)
}

// ConflictErrorf returns an error marked with ErrConflict.
func ConflictErrorf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrConflict)
}

// InvariantViolationf returns an assertion failure marked with
// ErrInvariantViolation.
func InvariantViolationf(format string, args ...interface{}) error {
	return errors.Mark(errors.AssertionFailedf(format, args...), ErrInvariantViolation)
}

// NotFoundErrorf returns an error marked with ErrNotFound.
func NotFoundErrorf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrNotFound)
}

// ErrClosed is returned by operations on a closed state store.
var ErrClosed = errors.New("sleeper: closed")
