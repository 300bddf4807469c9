// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sleeper

import (
	"time"

	"github.com/cockroachdb/redact"
	"github.com/sleeperdb/sleeper/schema"
	"github.com/sleeperdb/sleeper/statestore"
)

// SplitBeginInfo contains the info for a split begin event.
type SplitBeginInfo struct {
	PartitionID string
	// Version is the version of the partition the split was computed from.
	Version statestore.Version
}

func (i SplitBeginInfo) String() string {
	return redact.StringWithoutMarkers(i)
}

// SafeFormat implements redact.SafeFormatter.
func (i SplitBeginInfo) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("[SPLIT %s] splitting at version %d",
		redact.SafeString(i.PartitionID), redact.Safe(i.Version))
}

// SplitInfo contains the info for a split end, conflict or invariant
// violation event.
type SplitInfo struct {
	PartitionID string
	Version     statestore.Version
	// Dimension and Point are unset if no split point was chosen.
	Dimension int
	Point     schema.Value
	LeftID    string
	RightID   string
	Duration  time.Duration
	Err       error
}

func (i SplitInfo) String() string {
	return redact.StringWithoutMarkers(i)
}

// SafeFormat implements redact.SafeFormatter.
func (i SplitInfo) SafeFormat(w redact.SafePrinter, _ rune) {
	if i.Err != nil {
		w.Printf("[SPLIT %s] split failed: %s", redact.SafeString(i.PartitionID), i.Err)
		return
	}
	w.Printf("[SPLIT %s] split on dimension %d at %s into %s and %s in %.1fs",
		redact.SafeString(i.PartitionID), redact.Safe(i.Dimension), i.Point,
		redact.SafeString(i.LeftID), redact.SafeString(i.RightID),
		redact.Safe(i.Duration.Seconds()))
}

// EventListener contains a set of functions that will be invoked when
// various split events occur.
type EventListener struct {
	// SplitBegin is invoked after a partition has been read and before its
	// split point is chosen.
	SplitBegin func(SplitBeginInfo)

	// SplitEnd is invoked after a split has been committed.
	SplitEnd func(SplitInfo)

	// SplitConflict is invoked when a split's commit is rejected because the
	// partition changed concurrently. The partition remains a leaf.
	SplitConflict func(SplitInfo)

	// InvariantViolation is invoked when a computed split fails the coverage
	// or disjointness check. Nothing is persisted. This indicates a bug and
	// should be surfaced to an operator.
	InvariantViolation func(SplitInfo)
}

// EnsureDefaults ensures that split failures are logged and that every
// other unset hook is a no-op.
func (l *EventListener) EnsureDefaults(logger Logger) {
	if l.InvariantViolation == nil {
		if logger != nil {
			l.InvariantViolation = func(info SplitInfo) {
				logger.Errorf("invariant violation: %s", info)
			}
		} else {
			l.InvariantViolation = func(SplitInfo) {}
		}
	}
	if l.SplitBegin == nil {
		l.SplitBegin = func(info SplitBeginInfo) {}
	}
	if l.SplitEnd == nil {
		l.SplitEnd = func(info SplitInfo) {}
	}
	if l.SplitConflict == nil {
		l.SplitConflict = func(info SplitInfo) {}
	}
}

// MakeLoggingEventListener creates an EventListener that logs all events to
// the specified logger.
func MakeLoggingEventListener(logger Logger) EventListener {
	if logger == nil {
		logger = DefaultLogger
	}
	return EventListener{
		SplitBegin: func(info SplitBeginInfo) {
			logger.Infof("%s", info)
		},
		SplitEnd: func(info SplitInfo) {
			logger.Infof("%s", info)
		},
		SplitConflict: func(info SplitInfo) {
			logger.Infof("conflict: %s", info)
		},
		InvariantViolation: func(info SplitInfo) {
			logger.Errorf("invariant violation: %s", info)
		},
	}
}

// TeeEventListener wraps two EventListeners, forwarding all events to both.
func TeeEventListener(a, b EventListener) EventListener {
	a.EnsureDefaults(nil)
	b.EnsureDefaults(nil)
	return EventListener{
		SplitBegin: func(info SplitBeginInfo) {
			a.SplitBegin(info)
			b.SplitBegin(info)
		},
		SplitEnd: func(info SplitInfo) {
			a.SplitEnd(info)
			b.SplitEnd(info)
		},
		SplitConflict: func(info SplitInfo) {
			a.SplitConflict(info)
			b.SplitConflict(info)
		},
		InvariantViolation: func(info SplitInfo) {
			a.InvariantViolation(info)
			b.InvariantViolation(info)
		},
	}
}
