// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package storetest contains tests that every statestore.Store
// implementation must pass.
package storetest

import (
	"context"
	"math/rand/v2"
	"sync/atomic"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/sleeperdb/sleeper/internal/base"
	"github.com/sleeperdb/sleeper/internal/testutils"
	"github.com/sleeperdb/sleeper/partition"
	"github.com/sleeperdb/sleeper/schema"
	"github.com/sleeperdb/sleeper/statestore"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// Schema is the table schema used by the tests.
var Schema = schema.Schema{RowKeyFields: []schema.Field{
	{Name: "key", Type: schema.TypeLong},
	{Name: "name", Type: schema.TypeString},
}}

// RunTests runs the conformance tests. newStore must return a new, empty
// store on each call; the tests close it.
func RunTests(t *testing.T, newStore func(t *testing.T) statestore.Store) {
	for _, tc := range []struct {
		name string
		fn   func(t *testing.T, s statestore.Store)
	}{
		{"read-missing", testReadMissing},
		{"initialise", testInitialise},
		{"initialise-twice", testInitialiseTwice},
		{"commit-split", testCommitSplit},
		{"stale-version", testStaleVersion},
		{"added-exists", testAddedExists},
		{"invalid-commit", testInvalidCommit},
		{"concurrent-commits", testConcurrentCommits},
		{"random-splits", testRandomSplits},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s := newStore(t)
			defer func() { require.NoError(t, s.Close()) }()
			tc.fn(t, s)
		})
	}
}

func initialise(t *testing.T, s statestore.Store) partition.Partition {
	root, err := partition.RootPartition(Schema)
	require.NoError(t, err)
	require.NoError(t, s.Initialise(context.Background(), []partition.Partition{root}))
	return root
}

func testReadMissing(t *testing.T, s statestore.Store) {
	_, _, err := s.ReadPartition(context.Background(), "nope")
	require.True(t, errors.Is(err, base.ErrNotFound), "%v", err)
	all, err := s.AllPartitions(context.Background())
	require.NoError(t, err)
	require.Empty(t, all)
}

func testInitialise(t *testing.T, s statestore.Store) {
	ctx := context.Background()
	points := []schema.Value{schema.Long(-10), schema.Long(0), schema.Long(10)}
	partitions, err := partition.FromSplitPoints(Schema, points, testutils.SequentialIDs("p"))
	require.NoError(t, err)
	require.NoError(t, s.Initialise(ctx, partitions))

	for _, want := range partitions {
		got, v, err := s.ReadPartition(ctx, want.ID())
		require.NoError(t, err)
		require.NotEqual(t, statestore.NoVersion, v)
		require.True(t, want.Equal(got), "want %s\ngot %s", want, got)
	}
	tree, err := statestore.LoadTree(ctx, s, Schema)
	require.NoError(t, err)
	require.Equal(t, len(partitions), tree.Len())
	require.Len(t, tree.Leaves(), len(points)+1)
}

func testInitialiseTwice(t *testing.T, s statestore.Store) {
	initialise(t, s)
	root, err := partition.RootPartition(Schema)
	require.NoError(t, err)
	err = s.Initialise(context.Background(), []partition.Partition{root})
	require.True(t, errors.Is(err, base.ErrValidation), "%v", err)
}

func testCommitSplit(t *testing.T, s statestore.Store) {
	ctx := context.Background()
	initialise(t, s)
	root, v, err := s.ReadPartition(ctx, partition.RootID)
	require.NoError(t, err)

	split, err := partition.ComputeSplit(root, 0, schema.Long(100), testutils.SequentialIDs("c"))
	require.NoError(t, err)
	require.NoError(t, statestore.CommitSplit(ctx, s, v, split))

	got, v2, err := s.ReadPartition(ctx, partition.RootID)
	require.NoError(t, err)
	require.NotEqual(t, v, v2)
	require.True(t, split.Parent.Equal(got))
	for _, want := range []partition.Partition{split.Left, split.Right} {
		got, _, err := s.ReadPartition(ctx, want.ID())
		require.NoError(t, err)
		require.True(t, want.Equal(got))
	}

	tree, err := statestore.LoadTree(ctx, s, Schema)
	require.NoError(t, err)
	require.Equal(t, 3, tree.Len())
	leaf, err := tree.LeafContaining(schema.Key{schema.Long(50), schema.String("x")})
	require.NoError(t, err)
	require.Equal(t, "c1", leaf.ID())
}

func testStaleVersion(t *testing.T, s statestore.Store) {
	ctx := context.Background()
	initialise(t, s)
	root, v, err := s.ReadPartition(ctx, partition.RootID)
	require.NoError(t, err)

	first, err := partition.ComputeSplit(root, 0, schema.Long(1), testutils.SequentialIDs("a"))
	require.NoError(t, err)
	require.NoError(t, statestore.CommitSplit(ctx, s, v, first))

	// A split computed from the same snapshot must be rejected, and must not
	// write anything.
	second, err := partition.ComputeSplit(root, 1, schema.String("m"), testutils.SequentialIDs("b"))
	require.NoError(t, err)
	err = statestore.CommitSplit(ctx, s, v, second)
	require.True(t, errors.Is(err, base.ErrConflict), "%v", err)
	_, _, err = s.ReadPartition(ctx, "b1")
	require.True(t, errors.Is(err, base.ErrNotFound))

	got, _, err := s.ReadPartition(ctx, partition.RootID)
	require.NoError(t, err)
	require.True(t, first.Parent.Equal(got))
}

func testAddedExists(t *testing.T, s statestore.Store) {
	ctx := context.Background()
	initialise(t, s)
	root, v, err := s.ReadPartition(ctx, partition.RootID)
	require.NoError(t, err)
	split, err := partition.ComputeSplit(root, 0, schema.Long(1), testutils.SequentialIDs("a"))
	require.NoError(t, err)
	require.NoError(t, statestore.CommitSplit(ctx, s, v, split))

	left, lv, err := s.ReadPartition(ctx, "a1")
	require.NoError(t, err)
	// The allocator hands out an id that is already in use.
	ids := []string{"fresh", "a2"}
	reuse, err := partition.ComputeSplit(left, 0, schema.Long(-5), func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	})
	require.NoError(t, err)
	err = statestore.CommitSplit(ctx, s, lv, reuse)
	require.True(t, errors.Is(err, base.ErrConflict), "%v", err)

	got, lv2, err := s.ReadPartition(ctx, "a1")
	require.NoError(t, err)
	require.Equal(t, lv, lv2)
	require.True(t, left.Equal(got))
	_, _, err = s.ReadPartition(ctx, "fresh")
	require.True(t, errors.Is(err, base.ErrNotFound))
}

func testInvalidCommit(t *testing.T, s statestore.Store) {
	ctx := context.Background()
	root := initialise(t, s)
	split, err := partition.ComputeSplit(root, 0, schema.Long(1), testutils.SequentialIDs("a"))
	require.NoError(t, err)

	err = statestore.CommitSplit(ctx, s, statestore.NoVersion, split)
	require.True(t, errors.Is(err, base.ErrValidation), "%v", err)
	err = s.ConditionalCommit(ctx, 1, split.Parent, split.Left, split.Left)
	require.True(t, errors.Is(err, base.ErrValidation), "%v", err)

	missing, err := partition.NewBuilder("missing").Region(root.Region()).ParentID("x").Build()
	require.NoError(t, err)
	err = s.ConditionalCommit(ctx, 1, missing)
	require.True(t, errors.Is(err, base.ErrNotFound), "%v", err)
}

// testConcurrentCommits races commits computed from the same snapshot.
// Exactly one must win and the others must observe a conflict.
func testConcurrentCommits(t *testing.T, s statestore.Store) {
	ctx := context.Background()
	initialise(t, s)
	root, v, err := s.ReadPartition(ctx, partition.RootID)
	require.NoError(t, err)

	const n = 8
	splits := make([]partition.Split, n)
	for i := range splits {
		splits[i], err = partition.ComputeSplit(root, 0, schema.Long(int64(i*10)), testutils.SequentialIDs(string(rune('a'+i))))
		require.NoError(t, err)
	}
	var committed, conflicted atomic.Int32
	var g errgroup.Group
	for i := range splits {
		split := splits[i]
		g.Go(func() error {
			err := statestore.CommitSplit(ctx, s, v, split)
			switch {
			case err == nil:
				committed.Add(1)
			case errors.Is(err, base.ErrConflict):
				conflicted.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.Equal(t, int32(1), committed.Load())
	require.Equal(t, int32(n-1), conflicted.Load())

	tree, err := statestore.LoadTree(ctx, s, Schema)
	require.NoError(t, err)
	require.Equal(t, 3, tree.Len())
}

// testRandomSplits repeatedly splits random leaves, and checks that the
// stored tree stays valid and matches an in-memory copy.
func testRandomSplits(t *testing.T, s statestore.Store) {
	ctx := context.Background()
	initialise(t, s)
	seed := rand.Uint64()
	t.Logf("seed: %d", seed)
	rng := rand.New(rand.NewPCG(seed, 0))

	tree, err := statestore.LoadTree(ctx, s, Schema)
	require.NoError(t, err)
	ids := testutils.SequentialIDs("r")
	for i := 0; i < 20; i++ {
		leaves := tree.Leaves()
		leaf, v, err := s.ReadPartition(ctx, leaves[rng.IntN(len(leaves))].ID())
		require.NoError(t, err)
		var point schema.Value
		if rng.IntN(2) == 0 {
			// Splitting at the minimum is always possible on a string
			// dimension, since "" is the least string.
			rg := leaf.Region().Range(1)
			point = rg.Min
			if point.IsNull() {
				point = schema.String(string(rune('a' + rng.IntN(26))))
			}
			if !rg.Contains(point) {
				continue
			}
			split, err := partition.ComputeSplit(leaf, 1, point, ids)
			require.NoError(t, err)
			require.NoError(t, statestore.CommitSplit(ctx, s, v, split))
			tree, err = tree.Apply(split)
			require.NoError(t, err)
			continue
		}
		rg := leaf.Region().Range(0)
		point = schema.Long(rng.Int64N(1000) - 500)
		if !rg.Contains(point) {
			continue
		}
		split, err := partition.ComputeSplit(leaf, 0, point, ids)
		require.NoError(t, err)
		require.NoError(t, statestore.CommitSplit(ctx, s, v, split))
		tree, err = tree.Apply(split)
		require.NoError(t, err)
	}

	stored, err := statestore.LoadTree(ctx, s, Schema)
	require.NoError(t, err)
	require.Equal(t, tree.DebugString(), stored.DebugString())
}
