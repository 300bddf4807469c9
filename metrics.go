// Copyright 2019 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sleeper

import (
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Split outcomes, used as the "result" label of the splits counter.
const (
	SplitCommitted          = "committed"
	SplitConflicted         = "conflict"
	SplitUnsplittable       = "unsplittable"
	SplitInvalid            = "invalid"
	SplitInvariantViolation = "invariant_violation"
	SplitFailed             = "error"
)

// Metrics holds the splitter's Prometheus collectors.
type Metrics struct {
	// Splits counts split attempts by result.
	Splits *prometheus.CounterVec
	// SplitDuration observes the time from reading a partition to the end
	// of its commit, for committed splits.
	SplitDuration prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Splits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sleeper",
			Subsystem: "partition",
			Name:      "splits_total",
			Help:      "Partition split attempts by result.",
		}, []string{"result"}),
		SplitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sleeper",
			Subsystem: "partition",
			Name:      "split_duration_seconds",
			Help:      "Duration of committed partition splits.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
	if reg == nil {
		return m, nil
	}
	// Splitters of several tables may share a registry; they share the
	// collectors too.
	if err := reg.Register(m.Splits); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, errors.Wrap(err, "registering split counter")
		}
		m.Splits = are.ExistingCollector.(*prometheus.CounterVec)
	}
	if err := reg.Register(m.SplitDuration); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, errors.Wrap(err, "registering split duration histogram")
		}
		m.SplitDuration = are.ExistingCollector.(prometheus.Histogram)
	}
	return m, nil
}
