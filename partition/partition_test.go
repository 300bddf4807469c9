// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package partition

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/sleeperdb/sleeper/internal/base"
	"github.com/sleeperdb/sleeper/keyrange"
	"github.com/sleeperdb/sleeper/schema"
	"github.com/stretchr/testify/require"
)

var (
	keyField  = schema.Field{Name: "key", Type: schema.TypeLong}
	nameField = schema.Field{Name: "name", Type: schema.TypeString}
	testSch   = schema.Schema{RowKeyFields: []schema.Field{keyField, nameField}}
)

func TestBuilder(t *testing.T) {
	root := keyrange.UnboundedRegion(testSch)

	p, err := NewBuilder("a").Region(root).Build()
	require.NoError(t, err)
	require.True(t, p.IsLeaf())
	require.True(t, p.IsRoot())
	require.Equal(t, NotSplit, p.Dimension())
	require.Nil(t, p.ChildIDs())

	q, err := BuilderFrom(p).Leaf(false).ChildIDs("b", "c").Dimension(1).Build()
	require.NoError(t, err)
	require.Equal(t, []string{"b", "c"}, q.ChildIDs())
	require.True(t, p.IsLeaf(), "BuilderFrom must not modify its source")
	require.False(t, p.Equal(q))
	require.Equal(t, `a {key:[-inf, +inf) name:[-inf, +inf)} dim=1 children=[b c]`, q.String())

	// Mutating the returned children must not affect the partition.
	q.ChildIDs()[0] = "z"
	require.Equal(t, "b", q.ChildIDs()[0])

	nonCanonical := root.WithRange(0, keyrange.Range{Field: keyField, MinInclusive: true, Max: schema.Long(5), MaxInclusive: true})
	for name, b := range map[string]*Builder{
		"no id":              NewBuilder("").Region(root),
		"no region":          NewBuilder("a"),
		"non-canonical":      NewBuilder("a").Region(nonCanonical),
		"own parent":         NewBuilder("a").Region(root).ParentID("a"),
		"leaf with child":    NewBuilder("a").Region(root).ChildIDs("b", "c"),
		"leaf with dim":      NewBuilder("a").Region(root).Dimension(0),
		"one child":          NewBuilder("a").Region(root).Leaf(false).ChildIDs("b").Dimension(0),
		"same children":      NewBuilder("a").Region(root).Leaf(false).ChildIDs("b", "b").Dimension(0),
		"dim out of range":   NewBuilder("a").Region(root).Leaf(false).ChildIDs("b", "c").Dimension(2),
		"internal not split": NewBuilder("a").Region(root).Leaf(false).ChildIDs("b", "c"),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := b.Build()
			require.True(t, errors.Is(err, base.ErrValidation), "%v", err)
		})
	}
}
