// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package partition

import (
	"fmt"
	"maps"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
	"github.com/sleeperdb/sleeper/internal/base"
	"github.com/sleeperdb/sleeper/internal/invariants"
	"github.com/sleeperdb/sleeper/keyrange"
	"github.com/sleeperdb/sleeper/schema"
)

// Tree is an immutable snapshot of a table's partitions. The leaves of a
// valid tree tile the key space: they are pairwise disjoint and their union
// is the root's region, which is unbounded in every dimension.
//
// Ingest routing uses LeafContaining and compaction uses LeavesOverlapping.
// Both descend from the root, so their cost is proportional to the depth of
// the tree rather than its size.
type Tree struct {
	schema schema.Schema
	byID   map[string]Partition
	rootID string
}

// NewTree builds a tree from a set of partitions and checks its invariants.
func NewTree(s schema.Schema, partitions []Partition) (*Tree, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	t := &Tree{schema: s, byID: make(map[string]Partition, len(partitions))}
	for _, p := range partitions {
		if _, ok := t.byID[p.id]; ok {
			return nil, base.InvariantViolationf("duplicate partition id %s", redact.SafeString(p.id))
		}
		t.byID[p.id] = p
		if p.IsRoot() {
			if t.rootID != "" {
				return nil, base.InvariantViolationf("multiple root partitions: %s, %s",
					redact.SafeString(t.rootID), redact.SafeString(p.id))
			}
			t.rootID = p.id
		}
	}
	if err := t.CheckInvariants(); err != nil {
		return nil, err
	}
	return t, nil
}

// Schema returns the table schema.
func (t *Tree) Schema() schema.Schema { return t.schema }

// Len returns the number of partitions.
func (t *Tree) Len() int { return len(t.byID) }

// Root returns the root partition.
func (t *Tree) Root() Partition { return t.byID[t.rootID] }

// Get returns the partition with the given id.
func (t *Tree) Get(id string) (Partition, bool) {
	p, ok := t.byID[id]
	return p, ok
}

// Children returns the left and right children of an internal partition.
func (t *Tree) Children(id string) (left, right Partition, ok bool) {
	p, ok := t.byID[id]
	if !ok || p.leaf {
		return Partition{}, Partition{}, false
	}
	return t.byID[p.childIDs[0]], t.byID[p.childIDs[1]], true
}

// Ancestors returns the ancestors of a partition, nearest first, ending with
// the root.
func (t *Tree) Ancestors(id string) []Partition {
	var out []Partition
	p, ok := t.byID[id]
	for ok && !p.IsRoot() {
		p, ok = t.byID[p.parentID]
		if ok {
			out = append(out, p)
		}
	}
	return out
}

// All returns every partition in pre-order, left child before right.
func (t *Tree) All() []Partition {
	out := make([]Partition, 0, len(t.byID))
	t.walk(func(p Partition) bool {
		out = append(out, p)
		return true
	})
	return out
}

// Leaves returns the leaf partitions in pre-order.
func (t *Tree) Leaves() []Partition {
	var out []Partition
	t.walk(func(p Partition) bool {
		if p.leaf {
			out = append(out, p)
		}
		return true
	})
	return out
}

// walk visits partitions in pre-order. If fn returns false the partition's
// subtree is skipped.
func (t *Tree) walk(fn func(Partition) bool) {
	stack := []string{t.rootID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		p, ok := t.byID[id]
		if !ok || !fn(p) || p.leaf {
			continue
		}
		stack = append(stack, p.childIDs[1], p.childIDs[0])
	}
}

// LeafContaining returns the leaf partition whose region contains the key.
func (t *Tree) LeafContaining(k schema.Key) (Partition, error) {
	if err := t.schema.ValidateKey(k); err != nil {
		return Partition{}, err
	}
	p := t.Root()
	for !p.leaf {
		left, right := t.byID[p.childIDs[0]], t.byID[p.childIDs[1]]
		switch {
		case left.ContainsKey(k):
			p = left
		case right.ContainsKey(k):
			p = right
		default:
			return Partition{}, base.InvariantViolationf("key %s is in partition %s but in neither child",
				k, redact.SafeString(p.id))
		}
	}
	return p, nil
}

// LeavesOverlapping returns the leaf partitions whose regions intersect r, in
// pre-order. The region must be valid and canonical for the tree's schema.
func (t *Tree) LeavesOverlapping(r keyrange.Region) ([]Partition, error) {
	if err := r.Validate(t.schema); err != nil {
		return nil, err
	}
	var out []Partition
	t.walk(func(p Partition) bool {
		if !p.OverlapsRegion(r) {
			return false
		}
		if p.leaf {
			out = append(out, p)
		}
		return true
	})
	return out, nil
}

// Apply returns a new tree with the split applied. The receiver is not
// modified. The split's parent must be a leaf of the tree with the same
// region, and the children's ids must be unused.
func (t *Tree) Apply(s Split) (*Tree, error) {
	cur, ok := t.byID[s.Parent.id]
	if !ok {
		return nil, base.NotFoundErrorf("partition %s", redact.SafeString(s.Parent.id))
	}
	if !cur.leaf || !cur.region.Equal(s.Parent.region) || cur.parentID != s.Parent.parentID {
		return nil, base.ConflictErrorf("partition %s changed since the split was computed",
			redact.SafeString(cur.id))
	}
	for _, id := range []string{s.Left.id, s.Right.id} {
		if _, ok := t.byID[id]; ok {
			return nil, base.InvariantViolationf("split of %s reuses partition id %s",
				redact.SafeString(cur.id), redact.SafeString(id))
		}
	}
	if err := checkChildren(s.Parent, s.Left, s.Right); err != nil {
		return nil, err
	}
	out := &Tree{schema: t.schema, byID: maps.Clone(t.byID), rootID: t.rootID}
	out.byID[s.Parent.id] = s.Parent
	out.byID[s.Left.id] = s.Left
	out.byID[s.Right.id] = s.Right
	invariants.MaybeCheck(out.CheckInvariants)
	return out, nil
}

// CheckInvariants verifies the structure of the tree:
//   - there is exactly one root, and its region is unbounded;
//   - every region is valid and canonical for the schema;
//   - every internal partition's children exist, name it as their parent and
//     reconstruct its region exactly;
//   - every partition is reachable from the root.
//
// Together these imply that the leaves are disjoint and cover the key space.
func (t *Tree) CheckInvariants() error {
	if t.rootID == "" {
		return base.InvariantViolationf("tree has no root partition")
	}
	root := t.byID[t.rootID]
	if !root.region.IsUnbounded() {
		return base.InvariantViolationf("root partition %s has bounded region %s",
			redact.SafeString(root.id), root.region)
	}
	for _, p := range t.byID {
		if err := p.region.Validate(t.schema); err != nil {
			return errors.Mark(errors.Wrapf(err, "partition %s", redact.SafeString(p.id)), base.ErrInvariantViolation)
		}
		if p.IsRoot() && p.id != t.rootID {
			return base.InvariantViolationf("multiple root partitions: %s, %s",
				redact.SafeString(t.rootID), redact.SafeString(p.id))
		}
		if p.leaf {
			continue
		}
		left, lok := t.byID[p.childIDs[0]]
		right, rok := t.byID[p.childIDs[1]]
		if !lok || !rok {
			return base.InvariantViolationf("partition %s has missing children %v",
				redact.SafeString(p.id), p.childIDs)
		}
		if err := checkChildren(p, left, right); err != nil {
			return err
		}
	}
	reached := 0
	t.walk(func(Partition) bool {
		reached++
		return true
	})
	if reached != len(t.byID) {
		return base.InvariantViolationf("%d of %d partitions are unreachable from the root",
			len(t.byID)-reached, len(t.byID))
	}
	return nil
}

// DebugString returns the tree in indented pre-order, one partition per line.
func (t *Tree) DebugString() string {
	var sb strings.Builder
	depth := map[string]int{t.rootID: 0}
	t.walk(func(p Partition) bool {
		d := depth[p.id]
		if !p.leaf {
			depth[p.childIDs[0]] = d + 1
			depth[p.childIDs[1]] = d + 1
		}
		fmt.Fprintf(&sb, "%s%s %s", strings.Repeat("  ", d), p.id, p.region)
		if !p.leaf {
			fmt.Fprintf(&sb, " dim=%d", p.dimension)
		}
		sb.WriteByte('\n')
		return true
	})
	return sb.String()
}
