// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sleeper

import (
	"context"
	"slices"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/sleeperdb/sleeper/schema"
	"golang.org/x/exp/rand"
)

// Estimator chooses the value at which to split a partition on a dimension.
// The value should divide the partition's records roughly in half.
type Estimator interface {
	// EstimateSplitPoint returns a split point for the partition on the
	// given row key dimension, or an error marked with ErrNoSplitPoint.
	EstimateSplitPoint(ctx context.Context, partitionID string, dim int) (schema.Value, error)
}

// SampleEstimator estimates split points from a uniform sample of the keys
// written to each partition. Samples beyond the capacity replace existing
// ones at random (reservoir sampling), so the sample stays uniform over
// everything added.
type SampleEstimator struct {
	capacity int
	mu       struct {
		sync.Mutex
		rng     *rand.Rand
		samples map[string]*reservoir
	}
}

type reservoir struct {
	keys []schema.Key
	seen int
}

var _ Estimator = (*SampleEstimator)(nil)

// NewSampleEstimator returns an estimator keeping up to capacity keys per
// partition. The seed makes the choice of retained samples reproducible.
func NewSampleEstimator(capacity int, seed uint64) *SampleEstimator {
	if capacity < 1 {
		capacity = 1
	}
	e := &SampleEstimator{capacity: capacity}
	e.mu.rng = rand.New(rand.NewSource(seed))
	e.mu.samples = make(map[string]*reservoir)
	return e
}

// Add records keys written to a partition.
func (e *SampleEstimator) Add(partitionID string, keys ...schema.Key) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.mu.samples[partitionID]
	if !ok {
		r = &reservoir{}
		e.mu.samples[partitionID] = r
	}
	for _, k := range keys {
		r.seen++
		if len(r.keys) < e.capacity {
			r.keys = append(r.keys, k)
			continue
		}
		if j := e.mu.rng.Intn(r.seen); j < e.capacity {
			r.keys[j] = k
		}
	}
}

// Forget drops the samples of a partition, e.g. once it has been split.
func (e *SampleEstimator) Forget(partitionID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.mu.samples, partitionID)
}

// Count returns the number of keys added for a partition since it was last
// forgotten.
func (e *SampleEstimator) Count(partitionID string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if r, ok := e.mu.samples[partitionID]; ok {
		return r.seen
	}
	return 0
}

// EstimateSplitPoint implements Estimator. It returns the median of the
// sampled values on the dimension. When the median equals the smallest
// sample, it returns the smallest sample greater than it instead, so that
// both halves of the split hold sampled keys.
func (e *SampleEstimator) EstimateSplitPoint(
	_ context.Context, partitionID string, dim int,
) (schema.Value, error) {
	e.mu.Lock()
	r, ok := e.mu.samples[partitionID]
	var vals []schema.Value
	if ok {
		vals = make([]schema.Value, 0, len(r.keys))
		for _, k := range r.keys {
			if dim < len(k) {
				vals = append(vals, k[dim])
			}
		}
	}
	e.mu.Unlock()

	if len(vals) == 0 {
		return schema.Value{}, errors.Mark(
			errors.Newf("no samples for partition %s on dimension %d", partitionID, dim), ErrNoSplitPoint)
	}
	slices.SortFunc(vals, schema.Compare)
	min, median := vals[0], vals[len(vals)/2]
	if schema.Compare(median, min) > 0 {
		return median, nil
	}
	i, _ := slices.BinarySearchFunc(vals, min, func(a, b schema.Value) int {
		if schema.Compare(a, b) <= 0 {
			return -1
		}
		return +1
	})
	if i == len(vals) {
		return schema.Value{}, errors.Mark(
			errors.Newf("all %d samples for partition %s are equal on dimension %d", len(vals), partitionID, dim),
			ErrNoSplitPoint)
	}
	return vals[i], nil
}
