// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sleeper

import (
	"context"

	"github.com/sleeperdb/sleeper/partition"
	"github.com/sleeperdb/sleeper/schema"
	"github.com/sleeperdb/sleeper/statestore"
)

// InitialiseTable stores the partitions of a new table: a single root leaf,
// or a balanced tree over the given split points on the first row key.
func InitialiseTable(
	ctx context.Context, store statestore.Store, s schema.Schema, points []schema.Value, ids partition.IDFunc,
) (*partition.Tree, error) {
	partitions, err := partition.FromSplitPoints(s, points, ids)
	if err != nil {
		return nil, err
	}
	tree, err := partition.NewTree(s, partitions)
	if err != nil {
		return nil, err
	}
	if err := store.Initialise(ctx, partitions); err != nil {
		return nil, err
	}
	return tree, nil
}

// LoadTree reads a snapshot of the partition tree from the store. Ingest
// routing and compaction candidate selection query the snapshot with
// LeafContaining and LeavesOverlapping.
func LoadTree(ctx context.Context, store statestore.Store, s schema.Schema) (*partition.Tree, error) {
	return statestore.LoadTree(ctx, store, s)
}
