// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package statestore defines the versioned store that holds a table's
// partition tree, and the optimistic-concurrency contract that split commits
// rely on.
//
// Implementations live in subpackages: memstore (in-process), pebblestore
// (embedded, durable) and etcdstore (shared between processes).
package statestore

import (
	"context"

	"github.com/cockroachdb/redact"
	"github.com/sleeperdb/sleeper/internal/base"
	"github.com/sleeperdb/sleeper/partition"
	"github.com/sleeperdb/sleeper/schema"
)

// Version identifies the stored state of a single partition. It changes
// every time the partition is written. NoVersion is never a valid version.
type Version int64

// NoVersion is the zero Version.
const NoVersion Version = 0

// Store is a versioned partition store.
type Store interface {
	// ReadPartition returns the partition with the given id and its current
	// version. An unknown id returns an error marked with base.ErrNotFound.
	ReadPartition(ctx context.Context, id string) (partition.Partition, Version, error)

	// ConditionalCommit atomically replaces the stored partition with the id
	// of mutated and inserts the added partitions, provided the stored
	// partition's version is still expected and none of the added ids exist.
	// Otherwise nothing is written and an error marked with base.ErrConflict
	// is returned. Readers never observe part of a commit.
	ConditionalCommit(ctx context.Context, expected Version, mutated partition.Partition, added ...partition.Partition) error

	// AllPartitions returns every stored partition, in no particular order.
	AllPartitions(ctx context.Context) ([]partition.Partition, error)

	// Initialise stores the partitions of a new table. It fails if the store
	// already holds any partition.
	Initialise(ctx context.Context, partitions []partition.Partition) error

	// Close releases the store's resources.
	Close() error
}

// CheckCommit validates the arguments of ConditionalCommit independently of
// stored state. Implementations call it before touching storage.
func CheckCommit(expected Version, mutated partition.Partition, added []partition.Partition) error {
	if expected == NoVersion {
		return base.ValidationErrorf("commit of partition %s has no expected version",
			redact.SafeString(mutated.ID()))
	}
	if mutated.ID() == "" {
		return base.ValidationErrorf("commit has no mutated partition")
	}
	seen := map[string]struct{}{mutated.ID(): {}}
	for _, p := range added {
		if _, ok := seen[p.ID()]; ok {
			return base.ValidationErrorf("commit of partition %s repeats id %s",
				redact.SafeString(mutated.ID()), redact.SafeString(p.ID()))
		}
		seen[p.ID()] = struct{}{}
	}
	return nil
}

// CommitSplit commits a split computed from the parent read at version
// expected.
func CommitSplit(ctx context.Context, s Store, expected Version, split partition.Split) error {
	return s.ConditionalCommit(ctx, expected, split.Parent, split.Left, split.Right)
}

// LoadTree reads every partition and builds a tree snapshot, checking its
// invariants.
func LoadTree(ctx context.Context, s Store, sch schema.Schema) (*partition.Tree, error) {
	all, err := s.AllPartitions(ctx)
	if err != nil {
		return nil, err
	}
	return partition.NewTree(sch, all)
}
