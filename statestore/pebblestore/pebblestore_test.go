// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package pebblestore

import (
	"context"
	"testing"

	"github.com/cockroachdb/pebble/vfs"
	"github.com/sleeperdb/sleeper/internal/testutils"
	"github.com/sleeperdb/sleeper/partition"
	"github.com/sleeperdb/sleeper/schema"
	"github.com/sleeperdb/sleeper/statestore"
	"github.com/sleeperdb/sleeper/statestore/storetest"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	storetest.RunTests(t, func(t *testing.T) statestore.Store {
		s, err := Open("", &Options{FS: vfs.NewMem(), Logger: testutils.Logger{T: t}})
		require.NoError(t, err)
		return s
	})
}

// TestReopen checks that partitions and versions survive a restart, and that
// versions handed out after it are new.
func TestReopen(t *testing.T) {
	ctx := context.Background()
	opts := &Options{FS: vfs.NewMem(), Logger: testutils.Logger{T: t}}
	s, err := Open("db", opts)
	require.NoError(t, err)

	root, err := partition.RootPartition(storetest.Schema)
	require.NoError(t, err)
	require.NoError(t, s.Initialise(ctx, []partition.Partition{root}))
	_, v, err := s.ReadPartition(ctx, partition.RootID)
	require.NoError(t, err)
	split, err := partition.ComputeSplit(root, 0, schema.Long(7), testutils.SequentialIDs("p"))
	require.NoError(t, err)
	require.NoError(t, statestore.CommitSplit(ctx, s, v, split))
	_, v1, err := s.ReadPartition(ctx, "p1")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open("db", opts)
	require.NoError(t, err)
	defer func() { require.NoError(t, s.Close()) }()

	tree, err := statestore.LoadTree(ctx, s, storetest.Schema)
	require.NoError(t, err)
	require.Equal(t, 3, tree.Len())

	left, v2, err := s.ReadPartition(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, v1, v2)
	next, err := partition.ComputeSplit(left, 0, schema.Long(0), testutils.SequentialIDs("q"))
	require.NoError(t, err)
	require.NoError(t, statestore.CommitSplit(ctx, s, v2, next))
	_, v3, err := s.ReadPartition(ctx, "p1")
	require.NoError(t, err)
	require.Greater(t, v3, v2)
}
