// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package partition

import (
	"github.com/sleeperdb/sleeper/internal/base"
	"github.com/sleeperdb/sleeper/keyrange"
	"github.com/sleeperdb/sleeper/schema"
)

// RootPartition returns the single leaf partition of a new table, covering
// the whole key space.
func RootPartition(s schema.Schema) (Partition, error) {
	if err := s.Validate(); err != nil {
		return Partition{}, err
	}
	return NewBuilder(RootID).Region(keyrange.UnboundedRegion(s)).Build()
}

// FromSplitPoints returns the partitions of a new table pre-split on the
// first row key field. The leaves are [-inf, p0), [p0, p1), ..., [pn, +inf)
// and the internal partitions form a balanced binary tree above them, built
// by pairing adjacent partitions level by level. With no split points the
// result is the single root partition.
//
// The split points must be non-null values of the first row key field's
// type, in strictly increasing order.
func FromSplitPoints(s schema.Schema, points []schema.Value, ids IDFunc) ([]Partition, error) {
	if len(points) == 0 {
		root, err := RootPartition(s)
		if err != nil {
			return nil, err
		}
		return []Partition{root}, nil
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if ids == nil {
		ids = UUIDs
	}
	field := s.RowKeyFields[0]
	for i, v := range points {
		if v.IsNull() || v.Type() != field.Type {
			return nil, base.ValidationErrorf("split point %d (%s) is not a %s", i, v, field.Type)
		}
		if i > 0 && schema.Compare(points[i-1], v) >= 0 {
			return nil, base.ValidationErrorf("split points %s and %s are not in increasing order", points[i-1], v)
		}
	}

	unbounded := keyrange.UnboundedRegion(s)
	var all []*Builder
	level := make([]*Builder, 0, len(points)+1)
	for i := 0; i <= len(points); i++ {
		var min, max schema.Value
		if i > 0 {
			min = points[i-1]
		}
		if i < len(points) {
			max = points[i]
		}
		b := NewBuilder(ids()).Region(unbounded.WithRange(0, keyrange.MakeRange(field, min, max)))
		level = append(level, b)
		all = append(all, b)
	}
	for len(level) > 1 {
		next := make([]*Builder, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				continue
			}
			left, right := level[i], level[i+1]
			id := RootID
			if len(level) > 2 {
				id = ids()
			}
			lr, rr := left.p.region.Range(0), right.p.region.Range(0)
			parent := NewBuilder(id).
				Region(unbounded.WithRange(0, keyrange.MakeRange(field, lr.Min, rr.Max))).
				Leaf(false).
				ChildIDs(left.p.id, right.p.id).
				Dimension(0)
			left.ParentID(id)
			right.ParentID(id)
			next = append(next, parent)
			all = append(all, parent)
		}
		level = next
	}

	out := make([]Partition, len(all))
	for i, b := range all {
		p, err := b.Build()
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}
