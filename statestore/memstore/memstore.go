// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package memstore implements an in-process statestore.Store.
package memstore

import (
	"context"
	"sync"

	"github.com/cockroachdb/redact"
	"github.com/sleeperdb/sleeper/internal/base"
	"github.com/sleeperdb/sleeper/partition"
	"github.com/sleeperdb/sleeper/statestore"
)

type entry struct {
	p       partition.Partition
	version statestore.Version
}

// Store holds partitions in memory. Every write bumps a store-wide counter
// and stamps the written partitions with it.
type Store struct {
	mu struct {
		sync.RWMutex
		partitions map[string]entry
		next       statestore.Version
		closed     bool
	}
}

var _ statestore.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	s := &Store{}
	s.mu.partitions = make(map[string]entry)
	return s
}

// ReadPartition implements statestore.Store.
func (s *Store) ReadPartition(
	_ context.Context, id string,
) (partition.Partition, statestore.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.mu.closed {
		return partition.Partition{}, statestore.NoVersion, base.ErrClosed
	}
	e, ok := s.mu.partitions[id]
	if !ok {
		return partition.Partition{}, statestore.NoVersion, base.NotFoundErrorf("partition %s", redact.SafeString(id))
	}
	return e.p, e.version, nil
}

// ConditionalCommit implements statestore.Store.
func (s *Store) ConditionalCommit(
	_ context.Context, expected statestore.Version, mutated partition.Partition, added ...partition.Partition,
) error {
	if err := statestore.CheckCommit(expected, mutated, added); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mu.closed {
		return base.ErrClosed
	}
	cur, ok := s.mu.partitions[mutated.ID()]
	if !ok {
		return base.NotFoundErrorf("partition %s", redact.SafeString(mutated.ID()))
	}
	if cur.version != expected {
		return base.ConflictErrorf("partition %s is at version %d, expected %d",
			redact.SafeString(mutated.ID()), cur.version, expected)
	}
	for _, p := range added {
		if _, ok := s.mu.partitions[p.ID()]; ok {
			return base.ConflictErrorf("partition %s already exists", redact.SafeString(p.ID()))
		}
	}
	s.mu.next++
	v := s.mu.next
	s.mu.partitions[mutated.ID()] = entry{p: mutated, version: v}
	for _, p := range added {
		s.mu.partitions[p.ID()] = entry{p: p, version: v}
	}
	return nil
}

// AllPartitions implements statestore.Store.
func (s *Store) AllPartitions(context.Context) ([]partition.Partition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.mu.closed {
		return nil, base.ErrClosed
	}
	out := make([]partition.Partition, 0, len(s.mu.partitions))
	for _, e := range s.mu.partitions {
		out = append(out, e.p)
	}
	return out, nil
}

// Initialise implements statestore.Store.
func (s *Store) Initialise(_ context.Context, partitions []partition.Partition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mu.closed {
		return base.ErrClosed
	}
	if len(s.mu.partitions) > 0 {
		return base.ValidationErrorf("store already holds %d partitions", len(s.mu.partitions))
	}
	s.mu.next++
	for _, p := range partitions {
		if _, ok := s.mu.partitions[p.ID()]; ok {
			s.mu.partitions = make(map[string]entry)
			return base.ValidationErrorf("duplicate partition id %s", redact.SafeString(p.ID()))
		}
		s.mu.partitions[p.ID()] = entry{p: p, version: s.mu.next}
	}
	return nil
}

// Close implements statestore.Store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mu.closed = true
	return nil
}

