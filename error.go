// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sleeper

import (
	"github.com/cockroachdb/errors"
	"github.com/sleeperdb/sleeper/internal/base"
)

// Error marks. Test for them with errors.Is.
var (
	// ErrNotFound is returned when a partition id is unknown.
	ErrNotFound = base.ErrNotFound
	// ErrValidation marks caller and configuration errors. They are never
	// retried.
	ErrValidation = base.ErrValidation
	// ErrUnsupportedType marks use of a field type where it is not allowed.
	ErrUnsupportedType = base.ErrUnsupportedType
	// ErrConflict marks a split that lost a race with a concurrent
	// mutation. The partition stays eligible; re-read and try again.
	ErrConflict = base.ErrConflict
	// ErrInvariantViolation marks a split that would have broken the
	// partition tree. Nothing was persisted.
	ErrInvariantViolation = base.ErrInvariantViolation
	// ErrClosed is returned by a closed state store.
	ErrClosed = base.ErrClosed
)

// ErrNoSplitPoint is returned by an Estimator that cannot find a value that
// divides a partition, e.g. because every sampled key is equal on the
// dimension.
var ErrNoSplitPoint = errors.New("sleeper: no split point")
