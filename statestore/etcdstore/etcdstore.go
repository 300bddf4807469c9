// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package etcdstore implements statestore.Store on etcd, for partition trees
// shared by many processes. A partition's version is the ModRevision of its
// key, and commits are etcd transactions guarded by revision comparisons.
package etcdstore

import (
	"context"
	"path"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
	"github.com/sleeperdb/sleeper/internal/base"
	"github.com/sleeperdb/sleeper/partition"
	"github.com/sleeperdb/sleeper/statestore"
	"github.com/sleeperdb/sleeper/statestore/codec"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// MaxTxnOps is etcd's default limit on the number of operations in one
// transaction. Initialise writes all partitions in a single transaction.
const MaxTxnOps = 128

// Store is a partition store backed by etcd.
type Store struct {
	kv     clientv3.KV
	prefix string
	closer func() error
}

var _ statestore.Store = (*Store)(nil)

// New returns a store keeping the partitions of one table under prefix. The
// caller keeps ownership of kv.
func New(kv clientv3.KV, prefix string) *Store {
	return &Store{kv: kv, prefix: path.Clean(prefix) + "/partitions/", closer: func() error { return nil }}
}

// Dial connects to etcd and returns a store that closes the client when it
// is closed.
func Dial(endpoints []string, dialTimeout time.Duration, prefix string) (*Store, error) {
	cli, err := clientv3.New(clientv3.Config{Endpoints: endpoints, DialTimeout: dialTimeout})
	if err != nil {
		return nil, errors.Wrapf(err, "connecting to etcd at %v", endpoints)
	}
	s := New(cli, prefix)
	s.closer = cli.Close
	return s, nil
}

func (s *Store) key(id string) string {
	return s.prefix + id
}

// ReadPartition implements statestore.Store.
func (s *Store) ReadPartition(
	ctx context.Context, id string,
) (partition.Partition, statestore.Version, error) {
	resp, err := s.kv.Get(ctx, s.key(id))
	if err != nil {
		return partition.Partition{}, statestore.NoVersion, errors.Wrapf(err, "reading partition %s", id)
	}
	if len(resp.Kvs) == 0 {
		return partition.Partition{}, statestore.NoVersion, base.NotFoundErrorf("partition %s", redact.SafeString(id))
	}
	kv := resp.Kvs[0]
	p, _, err := codec.Unmarshal(kv.Value)
	if err != nil {
		return partition.Partition{}, statestore.NoVersion, err
	}
	return p, statestore.Version(kv.ModRevision), nil
}

// ConditionalCommit implements statestore.Store.
func (s *Store) ConditionalCommit(
	ctx context.Context, expected statestore.Version, mutated partition.Partition, added ...partition.Partition,
) error {
	if err := statestore.CheckCommit(expected, mutated, added); err != nil {
		return err
	}
	cmps := []clientv3.Cmp{
		clientv3.Compare(clientv3.ModRevision(s.key(mutated.ID())), "=", int64(expected)),
	}
	ops := make([]clientv3.Op, 0, len(added)+1)
	for _, p := range append([]partition.Partition{mutated}, added...) {
		val, err := codec.Marshal(p, 0)
		if err != nil {
			return err
		}
		if p.ID() != mutated.ID() {
			cmps = append(cmps, clientv3.Compare(clientv3.CreateRevision(s.key(p.ID())), "=", 0))
		}
		ops = append(ops, clientv3.OpPut(s.key(p.ID()), string(val)))
	}
	resp, err := s.kv.Txn(ctx).If(cmps...).Then(ops...).Commit()
	if err != nil {
		return errors.Wrapf(err, "committing partition %s", mutated.ID())
	}
	if !resp.Succeeded {
		if _, _, err := s.ReadPartition(ctx, mutated.ID()); errors.Is(err, base.ErrNotFound) {
			return err
		}
		return base.ConflictErrorf("partition %s changed since version %d or a new partition already exists",
			redact.SafeString(mutated.ID()), expected)
	}
	return nil
}

// AllPartitions implements statestore.Store.
func (s *Store) AllPartitions(ctx context.Context) ([]partition.Partition, error) {
	resp, err := s.kv.Get(ctx, s.prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, errors.Wrap(err, "listing partitions")
	}
	out := make([]partition.Partition, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		p, _, err := codec.Unmarshal(kv.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "key %q", kv.Key)
		}
		out = append(out, p)
	}
	return out, nil
}

// Initialise implements statestore.Store. It is a single transaction that
// fails if any key exists under the table's prefix.
func (s *Store) Initialise(ctx context.Context, partitions []partition.Partition) error {
	if len(partitions) > MaxTxnOps {
		return base.ValidationErrorf("cannot initialise %d partitions in one etcd transaction (max %d)",
			len(partitions), MaxTxnOps)
	}
	ops := make([]clientv3.Op, 0, len(partitions))
	seen := make(map[string]struct{}, len(partitions))
	for _, p := range partitions {
		if _, ok := seen[p.ID()]; ok {
			return base.ValidationErrorf("duplicate partition id %s", redact.SafeString(p.ID()))
		}
		seen[p.ID()] = struct{}{}
		val, err := codec.Marshal(p, 0)
		if err != nil {
			return err
		}
		ops = append(ops, clientv3.OpPut(s.key(p.ID()), string(val)))
	}
	resp, err := s.kv.Txn(ctx).
		If(clientv3.Compare(clientv3.CreateRevision(s.prefix), "=", 0).WithPrefix()).
		Then(ops...).
		Commit()
	if err != nil {
		return errors.Wrap(err, "initialising partitions")
	}
	if !resp.Succeeded {
		return base.ValidationErrorf("store already holds partitions under %s", s.prefix)
	}
	return nil
}

// Close implements statestore.Store.
func (s *Store) Close() error {
	return s.closer()
}
