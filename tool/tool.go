// Copyright 2019 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package tool implements introspection commands for a table's partition
// tree.
package tool

import (
	"github.com/sleeperdb/sleeper"
	"github.com/sleeperdb/sleeper/partition"
	"github.com/sleeperdb/sleeper/statestore"
	"github.com/spf13/cobra"
)

// T is the container for all of the introspection tools.
type T struct {
	Commands   []*cobra.Command
	partitions *partitionsT

	// config, if set, is used instead of loading the --config file.
	config    *sleeper.Config
	openStore func(*sleeper.Config, sleeper.Logger) (statestore.Store, error)
	ids       partition.IDFunc
	logger    sleeper.Logger
}

// Option configures the tools.
type Option func(*T)

// WithConfig uses the given table configuration instead of the --config
// flag.
func WithConfig(c *sleeper.Config) Option {
	return func(t *T) { t.config = c }
}

// WithStoreOpener replaces the way the configured state store is opened.
func WithStoreOpener(fn func(*sleeper.Config, sleeper.Logger) (statestore.Store, error)) Option {
	return func(t *T) { t.openStore = fn }
}

// WithIDs sets the allocator of new partition ids.
func WithIDs(ids partition.IDFunc) Option {
	return func(t *T) { t.ids = ids }
}

// WithLogger sets the logger passed to state stores.
func WithLogger(l sleeper.Logger) Option {
	return func(t *T) { t.logger = l }
}

// New creates a new introspection tool.
func New(opts ...Option) *T {
	t := &T{
		openStore: (*sleeper.Config).OpenStore,
		ids:       partition.UUIDs,
		logger:    sleeper.DefaultLogger,
	}
	for _, o := range opts {
		o(t)
	}
	t.partitions = newPartitions(t)
	t.Commands = []*cobra.Command{
		t.partitions.Root,
	}
	return t
}
