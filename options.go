// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sleeper

import (
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sleeperdb/sleeper/internal/base"
	"github.com/sleeperdb/sleeper/partition"
	"github.com/sleeperdb/sleeper/schema"
)

const (
	defaultSplitThreshold      = 1_000_000_000
	defaultMaxConcurrentSplits = 4
)

// Options holds the optional parameters for a Splitter.
type Options struct {
	// SplitThreshold is the number of records a leaf partition must hold
	// before MaybeSplit splits it. The default is one billion.
	SplitThreshold int64

	// DefaultDimension is the row key dimension split when the caller does
	// not choose one. The default is 0.
	DefaultDimension int

	// FallbackDimensions makes SplitPartition try the other dimensions, in
	// order, when no split point can be found on the default dimension, e.g.
	// because every sampled key has the same value there.
	FallbackDimensions bool

	// MaxConcurrentSplits bounds the number of splits SplitLeaves runs at
	// once. The default is 4.
	MaxConcurrentSplits int

	// IDs allocates the ids of new partitions. The default allocates random
	// UUIDs.
	IDs partition.IDFunc

	// Logger used to write log messages. The default logs to the Go stdlib
	// logs.
	Logger Logger

	// EventListener provides hooks for split lifecycle events. Unset hooks
	// are filled in by EnsureDefaults with no-ops.
	EventListener *EventListener

	// MetricsRegisterer, if set, receives the splitter's Prometheus
	// collectors.
	MetricsRegisterer prometheus.Registerer
}

// EnsureDefaults ensures that the default values for all options are set if
// a valid value was not already specified.
func (o *Options) EnsureDefaults() {
	if o.SplitThreshold <= 0 {
		o.SplitThreshold = defaultSplitThreshold
	}
	if o.MaxConcurrentSplits <= 0 {
		o.MaxConcurrentSplits = defaultMaxConcurrentSplits
	}
	if o.IDs == nil {
		o.IDs = partition.UUIDs
	}
	if o.Logger == nil {
		o.Logger = DefaultLogger
	}
	if o.EventListener == nil {
		o.EventListener = &EventListener{}
	}
	o.EventListener.EnsureDefaults(o.Logger)
}

// Validate checks the options against the table schema.
func (o *Options) Validate(s schema.Schema) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if o.DefaultDimension < 0 || o.DefaultDimension >= s.Dims() {
		return base.ValidationErrorf("default split dimension %d out of range [0, %d)",
			o.DefaultDimension, s.Dims())
	}
	return nil
}

// String returns the options in the layout of the [split] section of a
// table configuration file.
func (o *Options) String() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "[split]\n")
	fmt.Fprintf(&buf, "  threshold = %d\n", o.SplitThreshold)
	fmt.Fprintf(&buf, "  dimension = %d\n", o.DefaultDimension)
	fmt.Fprintf(&buf, "  fallback_dimensions = %t\n", o.FallbackDimensions)
	fmt.Fprintf(&buf, "  max_concurrent = %d\n", o.MaxConcurrentSplits)
	return buf.String()
}
