// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package partition

import (
	"github.com/cockroachdb/redact"
	"github.com/google/uuid"
	"github.com/sleeperdb/sleeper/internal/base"
	"github.com/sleeperdb/sleeper/keyrange"
	"github.com/sleeperdb/sleeper/schema"
)

// IDFunc allocates partition ids. Every call must return an id that has
// never been used in the table.
type IDFunc func() string

// UUIDs allocates random UUIDs.
func UUIDs() string {
	return uuid.NewString()
}

// Split is the state transition that splits a leaf partition in two: the
// parent, no longer a leaf, and its two new leaf children. It is computed
// from a snapshot of the parent and must be committed atomically.
type Split struct {
	Parent    Partition
	Left      Partition
	Right     Partition
	Dimension int
	Point     schema.Value
}

// SafeFormat implements redact.SafeFormatter.
func (s Split) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("split %s on dimension %d at %s into %s %s",
		redact.SafeString(s.Parent.id), redact.Safe(s.Dimension), s.Point,
		redact.SafeString(s.Left.id), redact.SafeString(s.Right.id))
}

// String implements fmt.Stringer.
func (s Split) String() string {
	return redact.StringWithoutMarkers(s)
}

// ComputeSplit splits the leaf p on dimension dim at point v. The left child
// covers the part of p below v and the right child the part at or above v,
// so v must lie within p's range on dim; v equal to the range's minimum is
// allowed and leaves the left child empty. The split is checked for coverage
// and disjointness before it is returned.
//
// ComputeSplit is pure: nothing is persisted, and p is not modified.
func ComputeSplit(p Partition, dim int, v schema.Value, ids IDFunc) (Split, error) {
	if !p.leaf {
		return Split{}, base.ValidationErrorf("partition %s is not a leaf", redact.SafeString(p.id))
	}
	if dim < 0 || dim >= p.region.Dims() {
		return Split{}, base.ValidationErrorf("partition %s: split dimension %d out of range [0, %d)",
			redact.SafeString(p.id), dim, p.region.Dims())
	}
	rg := p.region.Range(dim)
	if v.IsNull() || v.Type() != rg.Field.Type {
		return Split{}, base.ValidationErrorf("partition %s: split point %s is not a %s",
			redact.SafeString(p.id), v, rg.Field.Type)
	}
	if !rg.Contains(v) {
		return Split{}, base.ValidationErrorf("partition %s: split point %s is outside %s",
			redact.SafeString(p.id), v, rg)
	}
	if ids == nil {
		ids = UUIDs
	}
	leftID, rightID := ids(), ids()
	if leftID == rightID || leftID == p.id || rightID == p.id {
		return Split{}, base.InvariantViolationf("partition %s: id allocator returned duplicate ids %s, %s",
			redact.SafeString(p.id), redact.SafeString(leftID), redact.SafeString(rightID))
	}

	left, err := NewBuilder(leftID).
		Region(p.region.WithRange(dim, keyrange.MakeRange(rg.Field, rg.Min, v))).
		ParentID(p.id).
		Build()
	if err != nil {
		return Split{}, err
	}
	right, err := NewBuilder(rightID).
		Region(p.region.WithRange(dim, keyrange.MakeRange(rg.Field, v, rg.Max))).
		ParentID(p.id).
		Build()
	if err != nil {
		return Split{}, err
	}
	parent, err := BuilderFrom(p).
		Leaf(false).
		ChildIDs(leftID, rightID).
		Dimension(dim).
		Build()
	if err != nil {
		return Split{}, err
	}
	if err := checkChildren(parent, left, right); err != nil {
		return Split{}, err
	}
	return Split{Parent: parent, Left: left, Right: right, Dimension: dim, Point: v}, nil
}

// checkChildren verifies that the children of an internal partition
// reconstruct it exactly: on the split dimension the left child's range ends
// where the right child's begins and together they span the parent's range;
// every other dimension is unchanged. Half-open ranges sharing a boundary
// are disjoint, so this also proves disjointness.
func checkChildren(parent, left, right Partition) error {
	if parent.leaf || len(parent.childIDs) != 2 {
		return base.InvariantViolationf("partition %s is not an internal node", redact.SafeString(parent.id))
	}
	if parent.childIDs[0] != left.id || parent.childIDs[1] != right.id {
		return base.InvariantViolationf("partition %s: children are %v, got %s %s",
			redact.SafeString(parent.id), parent.childIDs, redact.SafeString(left.id), redact.SafeString(right.id))
	}
	if left.parentID != parent.id || right.parentID != parent.id {
		return base.InvariantViolationf("partition %s: children %s %s have parents %s %s",
			redact.SafeString(parent.id), redact.SafeString(left.id), redact.SafeString(right.id),
			redact.SafeString(left.parentID), redact.SafeString(right.parentID))
	}
	dims := parent.region.Dims()
	if left.region.Dims() != dims || right.region.Dims() != dims {
		return base.InvariantViolationf("partition %s: children have %d and %d dimensions, expected %d",
			redact.SafeString(parent.id), left.region.Dims(), right.region.Dims(), dims)
	}
	d := parent.dimension
	for i := 0; i < dims; i++ {
		p, l, r := parent.region.Range(i), left.region.Range(i), right.region.Range(i)
		if i != d {
			if !l.Equal(p) || !r.Equal(p) {
				return base.InvariantViolationf("partition %s: children %s %s differ from parent %s on unsplit dimension %d",
					redact.SafeString(parent.id), l, r, p, i)
			}
			continue
		}
		if l.Field != p.Field || r.Field != p.Field {
			return base.InvariantViolationf("partition %s: children split a different field than %s",
				redact.SafeString(parent.id), p.Field)
		}
		if l.Min != p.Min || r.Max != p.Max {
			return base.InvariantViolationf("partition %s: children %s %s do not span %s",
				redact.SafeString(parent.id), l, r, p)
		}
		if l.Max.IsNull() || l.Max != r.Min {
			return base.InvariantViolationf("partition %s: children %s %s leave a gap or overlap",
				redact.SafeString(parent.id), l, r)
		}
		// The shared boundary must lie within [min, max] of the parent, or one
		// child would stick out of it.
		v := l.Max
		if (!p.Min.IsNull() && schema.Compare(v, p.Min) < 0) ||
			(!p.Max.IsNull() && schema.Compare(v, p.Max) > 0) {
			return base.InvariantViolationf("partition %s: split point %s lies outside %s",
				redact.SafeString(parent.id), v, p)
		}
	}
	return nil
}
