// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package pebblestore implements a durable statestore.Store on an embedded
// Pebble database. The database directory must be owned by a single process;
// within it, commits are serialized so that the version check and the batch
// that follows it are atomic.
package pebblestore

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/cockroachdb/redact"
	"github.com/sleeperdb/sleeper/internal/base"
	"github.com/sleeperdb/sleeper/partition"
	"github.com/sleeperdb/sleeper/statestore"
	"github.com/sleeperdb/sleeper/statestore/codec"
)

// Key layout. Partition records live under partitionPrefix; versionKey holds
// the last version handed out, so versions stay unique across restarts.
var (
	partitionPrefix = []byte("p/")
	partitionEnd    = []byte("p0") // '0' sorts directly after '/'
	versionKey      = []byte("m/version")
)

// Options configures a Store.
type Options struct {
	// FS is the filesystem the database lives on. Defaults to vfs.Default.
	FS vfs.FS
	// Logger receives the store's and Pebble's log messages. Defaults to
	// base.DefaultLogger.
	Logger base.Logger
}

// EnsureDefaults fills in unset fields.
func (o *Options) EnsureDefaults() *Options {
	if o == nil {
		o = &Options{}
	}
	if o.FS == nil {
		o.FS = vfs.Default
	}
	if o.Logger == nil {
		o.Logger = base.DefaultLogger
	}
	return o
}

// Store is a partition store backed by Pebble.
type Store struct {
	db     *pebble.DB
	logger base.Logger

	// commitMu serializes read-check-write sequences.
	commitMu sync.Mutex
}

var _ statestore.Store = (*Store)(nil)

// Open opens or creates the store in dir.
func Open(dir string, opts *Options) (*Store, error) {
	opts = opts.EnsureDefaults()
	db, err := pebble.Open(dir, &pebble.Options{FS: opts.FS, Logger: opts.Logger})
	if err != nil {
		return nil, errors.Wrapf(err, "opening partition store in %s", dir)
	}
	opts.Logger.Infof("opened partition store in %s", dir)
	return &Store{db: db, logger: opts.Logger}, nil
}

func partitionKey(id string) []byte {
	return append(append([]byte(nil), partitionPrefix...), id...)
}

func (s *Store) get(id string) (partition.Partition, statestore.Version, bool, error) {
	val, closer, err := s.db.Get(partitionKey(id))
	if errors.Is(err, pebble.ErrNotFound) {
		return partition.Partition{}, statestore.NoVersion, false, nil
	} else if err != nil {
		return partition.Partition{}, statestore.NoVersion, false, errors.Wrapf(err, "reading partition %s", id)
	}
	defer closer.Close()
	p, v, err := codec.Unmarshal(val)
	if err != nil {
		return partition.Partition{}, statestore.NoVersion, false, err
	}
	return p, statestore.Version(v), true, nil
}

func (s *Store) lastVersion() (statestore.Version, error) {
	val, closer, err := s.db.Get(versionKey)
	if errors.Is(err, pebble.ErrNotFound) {
		return statestore.NoVersion, nil
	} else if err != nil {
		return statestore.NoVersion, errors.Wrap(err, "reading version counter")
	}
	defer closer.Close()
	if len(val) != 8 {
		return statestore.NoVersion, errors.Mark(errors.Newf("version counter has %d bytes", len(val)), codec.ErrCorrupt)
	}
	return statestore.Version(binary.BigEndian.Uint64(val)), nil
}

func encodeVersion(v statestore.Version) []byte {
	return binary.BigEndian.AppendUint64(nil, uint64(v))
}

// ReadPartition implements statestore.Store.
func (s *Store) ReadPartition(
	_ context.Context, id string,
) (partition.Partition, statestore.Version, error) {
	p, v, ok, err := s.get(id)
	if err != nil {
		return partition.Partition{}, statestore.NoVersion, err
	}
	if !ok {
		return partition.Partition{}, statestore.NoVersion, base.NotFoundErrorf("partition %s", redact.SafeString(id))
	}
	return p, v, nil
}

// ConditionalCommit implements statestore.Store.
func (s *Store) ConditionalCommit(
	_ context.Context, expected statestore.Version, mutated partition.Partition, added ...partition.Partition,
) error {
	if err := statestore.CheckCommit(expected, mutated, added); err != nil {
		return err
	}
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	_, cur, ok, err := s.get(mutated.ID())
	if err != nil {
		return err
	}
	if !ok {
		return base.NotFoundErrorf("partition %s", redact.SafeString(mutated.ID()))
	}
	if cur != expected {
		return base.ConflictErrorf("partition %s is at version %d, expected %d",
			redact.SafeString(mutated.ID()), cur, expected)
	}
	for _, p := range added {
		_, _, exists, err := s.get(p.ID())
		if err != nil {
			return err
		}
		if exists {
			return base.ConflictErrorf("partition %s already exists", redact.SafeString(p.ID()))
		}
	}
	return s.write(append([]partition.Partition{mutated}, added...))
}

// write stamps the partitions with a fresh version and applies them in one
// synced batch. commitMu must be held.
func (s *Store) write(partitions []partition.Partition) error {
	last, err := s.lastVersion()
	if err != nil {
		return err
	}
	next := last + 1
	b := s.db.NewBatch()
	defer b.Close()
	for _, p := range partitions {
		val, err := codec.Marshal(p, int64(next))
		if err != nil {
			return err
		}
		if err := b.Set(partitionKey(p.ID()), val, nil); err != nil {
			return errors.Wrapf(err, "writing partition %s", p.ID())
		}
	}
	if err := b.Set(versionKey, encodeVersion(next), nil); err != nil {
		return errors.Wrap(err, "writing version counter")
	}
	return errors.Wrap(b.Commit(pebble.Sync), "committing partitions")
}

// AllPartitions implements statestore.Store.
func (s *Store) AllPartitions(context.Context) ([]partition.Partition, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: partitionPrefix, UpperBound: partitionEnd})
	if err != nil {
		return nil, errors.Wrap(err, "scanning partitions")
	}
	var out []partition.Partition
	for valid := iter.First(); valid; valid = iter.Next() {
		p, _, err := codec.Unmarshal(iter.Value())
		if err != nil {
			_ = iter.Close()
			return nil, errors.Wrapf(err, "key %q", iter.Key())
		}
		out = append(out, p)
	}
	if err := iter.Close(); err != nil {
		return nil, errors.Wrap(err, "scanning partitions")
	}
	return out, nil
}

// Initialise implements statestore.Store.
func (s *Store) Initialise(ctx context.Context, partitions []partition.Partition) error {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()
	existing, err := s.AllPartitions(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return base.ValidationErrorf("store already holds %d partitions", len(existing))
	}
	seen := make(map[string]struct{}, len(partitions))
	for _, p := range partitions {
		if _, ok := seen[p.ID()]; ok {
			return base.ValidationErrorf("duplicate partition id %s", redact.SafeString(p.ID()))
		}
		seen[p.ID()] = struct{}{}
	}
	if err := s.write(partitions); err != nil {
		return err
	}
	s.logger.Infof("initialised partition store with %d partitions", len(partitions))
	return nil
}

// Close implements statestore.Store.
func (s *Store) Close() error {
	return s.db.Close()
}
