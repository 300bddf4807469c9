// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package sleeper maintains the partition tree of a Sleeper table: a tree of
// disjoint key-space regions whose leaves route ingested records and select
// compaction inputs.
//
// The tree is held in a versioned state store (see package statestore) and
// only ever grows, by splitting a leaf in two. A Splitter computes a split
// from a snapshot of the leaf and commits it with a single conditional
// write, so concurrent splitters, ingest and compaction never observe a
// partially split tree. A split that loses a race fails with ErrConflict and
// leaves the partition eligible for another attempt.
package sleeper

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
	"github.com/sleeperdb/sleeper/internal/base"
	"github.com/sleeperdb/sleeper/partition"
	"github.com/sleeperdb/sleeper/schema"
	"github.com/sleeperdb/sleeper/statestore"
	"golang.org/x/sync/errgroup"
)

// Splitter splits the leaf partitions of one table.
type Splitter struct {
	store     statestore.Store
	schema    schema.Schema
	estimator Estimator
	opts      Options
	metrics   *Metrics
}

// NewSplitter returns a splitter for the table with the given schema whose
// partitions are held in store. The estimator may be nil if every split
// names its split point with WithSplitPoint.
func NewSplitter(
	store statestore.Store, s schema.Schema, estimator Estimator, opts *Options,
) (*Splitter, error) {
	var o Options
	if opts != nil {
		o = *opts
	}
	o.EnsureDefaults()
	if err := o.Validate(s); err != nil {
		return nil, err
	}
	m, err := newMetrics(o.MetricsRegisterer)
	if err != nil {
		return nil, err
	}
	return &Splitter{store: store, schema: s, estimator: estimator, opts: o, metrics: m}, nil
}

// Metrics returns the splitter's collectors.
func (s *Splitter) Metrics() *Metrics {
	return s.metrics
}

// Tree reads a snapshot of the partition tree from the store.
func (s *Splitter) Tree(ctx context.Context) (*partition.Tree, error) {
	return statestore.LoadTree(ctx, s.store, s.schema)
}

type splitRequest struct {
	dim      int
	dimSet   bool
	point    schema.Value
	pointSet bool
}

// SplitOption configures a single split.
type SplitOption func(*splitRequest)

// WithDimension splits on the given row key dimension instead of the
// default, without falling back to other dimensions.
func WithDimension(dim int) SplitOption {
	return func(r *splitRequest) {
		r.dim, r.dimSet = dim, true
	}
}

// WithSplitPoint splits at the given value instead of asking the estimator.
// Combine it with WithDimension unless the point is on the default
// dimension.
func WithSplitPoint(v schema.Value) SplitOption {
	return func(r *splitRequest) {
		r.point, r.pointSet = v, true
	}
}

// SplitPartition splits the leaf partition with the given id and commits the
// result. It returns the committed split.
//
// The partition is read once; the split is computed from that snapshot and
// committed on the condition that the partition is unchanged. If it changed,
// the error is marked with ErrConflict and nothing is written: the caller
// should re-read and decide again rather than retry with the same inputs.
// Errors marked with ErrInvariantViolation indicate a bug.
func (s *Splitter) SplitPartition(
	ctx context.Context, id string, opts ...SplitOption,
) (partition.Split, error) {
	var req splitRequest
	for _, o := range opts {
		o(&req)
	}
	start := time.Now()
	p, version, err := s.store.ReadPartition(ctx, id)
	if err != nil {
		s.count(SplitFailed)
		return partition.Split{}, err
	}
	if !p.IsLeaf() {
		s.count(SplitConflicted)
		return partition.Split{}, base.ConflictErrorf("partition %s has already been split", redact.SafeString(id))
	}
	if err := p.Region().Validate(s.schema); err != nil {
		s.count(SplitInvalid)
		return partition.Split{}, errors.Wrapf(err, "partition %s", redact.SafeString(id))
	}
	s.opts.EventListener.SplitBegin(SplitBeginInfo{PartitionID: id, Version: version})

	dim, point, err := s.chooseSplitPoint(ctx, id, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoSplitPoint):
			s.count(SplitUnsplittable)
		case errors.Is(err, ErrValidation):
			s.count(SplitInvalid)
		default:
			s.count(SplitFailed)
		}
		return partition.Split{}, err
	}

	info := SplitInfo{PartitionID: id, Version: version, Dimension: dim, Point: point}
	split, err := partition.ComputeSplit(p, dim, point, s.opts.IDs)
	if err != nil {
		info.Err = err
		if errors.Is(err, ErrInvariantViolation) {
			s.count(SplitInvariantViolation)
			s.opts.EventListener.InvariantViolation(info)
		} else {
			s.count(SplitInvalid)
		}
		return partition.Split{}, err
	}
	info.LeftID, info.RightID = split.Left.ID(), split.Right.ID()

	if err := statestore.CommitSplit(ctx, s.store, version, split); err != nil {
		info.Err = err
		info.Duration = time.Since(start)
		if errors.Is(err, ErrConflict) {
			s.count(SplitConflicted)
			s.opts.EventListener.SplitConflict(info)
		} else {
			s.count(SplitFailed)
		}
		return partition.Split{}, err
	}
	info.Duration = time.Since(start)
	if f, ok := s.estimator.(interface{ Forget(string) }); ok {
		f.Forget(id)
	}
	s.count(SplitCommitted)
	s.metrics.SplitDuration.Observe(info.Duration.Seconds())
	s.opts.EventListener.SplitEnd(info)
	return split, nil
}

func (s *Splitter) chooseSplitPoint(
	ctx context.Context, id string, req splitRequest,
) (int, schema.Value, error) {
	dims := []int{s.opts.DefaultDimension}
	switch {
	case req.dimSet:
		if req.dim < 0 || req.dim >= s.schema.Dims() {
			return 0, schema.Value{}, base.ValidationErrorf("split dimension %d out of range [0, %d)",
				req.dim, s.schema.Dims())
		}
		dims = []int{req.dim}
	case s.opts.FallbackDimensions && !req.pointSet:
		for d := 0; d < s.schema.Dims(); d++ {
			if d != s.opts.DefaultDimension {
				dims = append(dims, d)
			}
		}
	}
	if req.pointSet {
		return dims[0], req.point, nil
	}
	if s.estimator == nil {
		return 0, schema.Value{}, base.ValidationErrorf("no split point given and no estimator configured")
	}
	var lastErr error
	for _, d := range dims {
		v, err := s.estimator.EstimateSplitPoint(ctx, id, d)
		if err == nil {
			return d, v, nil
		}
		if !errors.Is(err, ErrNoSplitPoint) {
			return 0, schema.Value{}, errors.Wrapf(err, "estimating split point for %s", redact.SafeString(id))
		}
		lastErr = err
	}
	return 0, schema.Value{}, lastErr
}

func (s *Splitter) count(result string) {
	s.metrics.Splits.WithLabelValues(result).Inc()
}

// MaybeSplit splits the partition if records has reached the split
// threshold. It returns true if a split was committed. A partition with no
// usable split point is left alone without error.
func (s *Splitter) MaybeSplit(ctx context.Context, id string, records int64) (bool, error) {
	if records < s.opts.SplitThreshold {
		return false, nil
	}
	if _, err := s.SplitPartition(ctx, id); err != nil {
		if errors.Is(err, ErrNoSplitPoint) {
			s.opts.Logger.Infof("partition %s has %d records but no split point: %v", id, records, err)
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// SplitSummary counts the outcomes of SplitLeaves.
type SplitSummary struct {
	Committed    int
	Conflicts    int
	Unsplittable int
}

// SplitLeaves splits the given partitions concurrently, at most
// Options.MaxConcurrentSplits at a time. Conflicts and partitions without a
// split point are counted rather than treated as failures; any other error
// stops the remaining splits and is returned.
func (s *Splitter) SplitLeaves(ctx context.Context, ids []string) (SplitSummary, error) {
	var committed, conflicts, unsplittable atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.MaxConcurrentSplits)
	for _, id := range ids {
		g.Go(func() error {
			_, err := s.SplitPartition(ctx, id)
			switch {
			case err == nil:
				committed.Add(1)
			case errors.Is(err, ErrConflict):
				conflicts.Add(1)
			case errors.Is(err, ErrNoSplitPoint):
				unsplittable.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	err := g.Wait()
	return SplitSummary{
		Committed:    int(committed.Load()),
		Conflicts:    int(conflicts.Load()),
		Unsplittable: int(unsplittable.Load()),
	}, err
}
