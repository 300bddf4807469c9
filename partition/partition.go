// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package partition implements the partition tree of a Sleeper table: the
// immutable Partition value, the Tree snapshot used for routing and overlap
// queries, and the pure computation of a split.
package partition

import (
	"slices"

	"github.com/cockroachdb/redact"
	"github.com/sleeperdb/sleeper/internal/base"
	"github.com/sleeperdb/sleeper/keyrange"
	"github.com/sleeperdb/sleeper/schema"
)

// RootID is the id given to the root partition of a new tree.
const RootID = "root"

// NotSplit is the dimension of a partition that has never been split.
const NotSplit = -1

// Partition is a node in the partition tree. A Partition is an immutable
// value; the only state transition a stored partition undergoes, from leaf
// to internal node with two children, produces a new Partition (see
// ComputeSplit).
type Partition struct {
	id        string
	region    keyrange.Region
	leaf      bool
	parentID  string
	childIDs  []string
	dimension int
}

// ID returns the partition's unique id.
func (p Partition) ID() string { return p.id }

// Region returns the partition's canonical region.
func (p Partition) Region() keyrange.Region { return p.region }

// IsLeaf returns true if the partition has no children.
func (p Partition) IsLeaf() bool { return p.leaf }

// ParentID returns the id of the parent partition, or "" for the root.
func (p Partition) ParentID() string { return p.parentID }

// IsRoot returns true if the partition has no parent.
func (p Partition) IsRoot() bool { return p.parentID == "" }

// ChildIDs returns the ids of the left and right children, or nil for a
// leaf.
func (p Partition) ChildIDs() []string { return slices.Clone(p.childIDs) }

// Dimension returns the index of the row key field the partition was split
// on, or NotSplit.
func (p Partition) Dimension() int { return p.dimension }

// ContainsKey returns true if the key lies in the partition's region.
func (p Partition) ContainsKey(k schema.Key) bool {
	return p.region.ContainsKey(k)
}

// OverlapsRegion returns true if the partition's region intersects r.
func (p Partition) OverlapsRegion(r keyrange.Region) bool {
	return p.region.Overlaps(r)
}

// Equal returns true if every field of the two partitions is equal. Child ids
// are compared in order, left then right.
func (p Partition) Equal(o Partition) bool {
	return p.id == o.id &&
		p.leaf == o.leaf &&
		p.parentID == o.parentID &&
		p.dimension == o.dimension &&
		slices.Equal(p.childIDs, o.childIDs) &&
		p.region.Equal(o.region)
}

// String implements fmt.Stringer.
func (p Partition) String() string {
	return redact.StringWithoutMarkers(p)
}

// SafeFormat implements redact.SafeFormatter.
func (p Partition) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("%s %s", redact.SafeString(p.id), p.region)
	if p.leaf {
		w.SafeString(" leaf")
	} else {
		w.Printf(" dim=%d children=[%s %s]", redact.Safe(p.dimension),
			redact.SafeString(p.childIDs[0]), redact.SafeString(p.childIDs[1]))
	}
	if p.parentID != "" {
		w.Printf(" parent=%s", redact.SafeString(p.parentID))
	}
}

// Builder constructs a Partition. The zero Builder is not usable; start from
// NewBuilder or BuilderFrom.
type Builder struct {
	p Partition
}

// NewBuilder returns a builder for a leaf partition with the given id that
// has never been split.
func NewBuilder(id string) *Builder {
	return &Builder{p: Partition{id: id, leaf: true, dimension: NotSplit}}
}

// BuilderFrom returns a builder initialized with the fields of p.
func BuilderFrom(p Partition) *Builder {
	b := &Builder{p: p}
	b.p.childIDs = slices.Clone(p.childIDs)
	return b
}

// Region sets the region.
func (b *Builder) Region(r keyrange.Region) *Builder {
	b.p.region = r
	return b
}

// Leaf sets the leaf flag.
func (b *Builder) Leaf(leaf bool) *Builder {
	b.p.leaf = leaf
	return b
}

// ParentID sets the parent id.
func (b *Builder) ParentID(id string) *Builder {
	b.p.parentID = id
	return b
}

// ChildIDs sets the child ids.
func (b *Builder) ChildIDs(ids ...string) *Builder {
	b.p.childIDs = slices.Clone(ids)
	if len(b.p.childIDs) == 0 {
		b.p.childIDs = nil
	}
	return b
}

// Dimension sets the split dimension.
func (b *Builder) Dimension(d int) *Builder {
	b.p.dimension = d
	return b
}

// Build validates and returns the partition. The region must be canonical, a
// leaf must have no children and no split dimension, and an internal node
// must have two children and a split dimension within its region.
func (b *Builder) Build() (Partition, error) {
	p := b.p
	p.childIDs = slices.Clone(p.childIDs)
	if p.id == "" {
		return Partition{}, base.ValidationErrorf("partition has no id")
	}
	if p.region.Dims() == 0 {
		return Partition{}, base.ValidationErrorf("partition %s has no region", redact.SafeString(p.id))
	}
	if !p.region.IsCanonical() {
		return Partition{}, base.ValidationErrorf("partition %s: region %s is not canonical",
			redact.SafeString(p.id), p.region)
	}
	if p.parentID == p.id {
		return Partition{}, base.ValidationErrorf("partition %s is its own parent", redact.SafeString(p.id))
	}
	if p.leaf {
		if len(p.childIDs) != 0 {
			return Partition{}, base.ValidationErrorf("leaf partition %s has %d children",
				redact.SafeString(p.id), len(p.childIDs))
		}
		if p.dimension != NotSplit {
			return Partition{}, base.ValidationErrorf("leaf partition %s has split dimension %d",
				redact.SafeString(p.id), p.dimension)
		}
		return p, nil
	}
	if len(p.childIDs) != 2 {
		return Partition{}, base.ValidationErrorf("internal partition %s has %d children, expected 2",
			redact.SafeString(p.id), len(p.childIDs))
	}
	if p.childIDs[0] == p.childIDs[1] || p.childIDs[0] == "" {
		return Partition{}, base.ValidationErrorf("internal partition %s has invalid children %v",
			redact.SafeString(p.id), p.childIDs)
	}
	if p.dimension < 0 || p.dimension >= p.region.Dims() {
		return Partition{}, base.ValidationErrorf("internal partition %s has split dimension %d, region has %d",
			redact.SafeString(p.id), p.dimension, p.region.Dims())
	}
	return p, nil
}
