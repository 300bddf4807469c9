// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sleeper

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml"
	"github.com/sleeperdb/sleeper/internal/base"
	"github.com/sleeperdb/sleeper/schema"
	"github.com/sleeperdb/sleeper/statestore"
	"github.com/sleeperdb/sleeper/statestore/etcdstore"
	"github.com/sleeperdb/sleeper/statestore/memstore"
	"github.com/sleeperdb/sleeper/statestore/pebblestore"
)

// Config is the TOML configuration of a table: its schema, how its
// partitions are split and where they are stored. For example:
//
//	[table]
//	name = "events"
//	split_points = ["100", "200"]
//
//	[[table.row_keys]]
//	name = "key"
//	type = "long"
//
//	[split]
//	threshold = 1000000
//
//	[statestore]
//	backend = "pebble"
//	dir = "/var/lib/sleeper/events"
type Config struct {
	Table      TableConfig      `toml:"table"`
	Split      SplitConfig      `toml:"split"`
	StateStore StateStoreConfig `toml:"statestore"`
}

// FieldConfig describes one field of the schema.
type FieldConfig struct {
	Name string `toml:"name"`
	Type string `toml:"type"`
}

// TableConfig describes the table.
type TableConfig struct {
	Name        string        `toml:"name"`
	RowKeys     []FieldConfig `toml:"row_keys"`
	SortKeys    []FieldConfig `toml:"sort_keys"`
	ValueFields []FieldConfig `toml:"value_fields"`
	// SplitPoints pre-split a new table on the first row key, in the
	// textual form of its type.
	SplitPoints []string `toml:"split_points"`
}

// SplitConfig mirrors the split fields of Options.
type SplitConfig struct {
	Threshold          int64 `toml:"threshold"`
	Dimension          int   `toml:"dimension"`
	FallbackDimensions bool  `toml:"fallback_dimensions"`
	MaxConcurrent      int   `toml:"max_concurrent"`
}

// The state store backends.
const (
	BackendMemory = "memory"
	BackendPebble = "pebble"
	BackendEtcd   = "etcd"
)

// StateStoreConfig selects and configures the state store backend.
type StateStoreConfig struct {
	Backend string `toml:"backend"`
	// Dir is the database directory of the pebble backend.
	Dir string `toml:"dir"`
	// EtcdEndpoints, EtcdPrefix and DialTimeout configure the etcd backend.
	EtcdEndpoints []string `toml:"etcd_endpoints"`
	EtcdPrefix    string   `toml:"etcd_prefix"`
	DialTimeout   string   `toml:"dial_timeout"`
}

// ParseConfig parses a TOML table configuration.
func ParseConfig(data []byte) (*Config, error) {
	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "parsing table configuration"), base.ErrValidation)
	}
	if c.StateStore.Backend == "" {
		c.StateStore.Backend = BackendMemory
	}
	if _, err := c.Schema(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadConfig reads and parses a TOML table configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return ParseConfig(data)
}

func parseFields(kind string, fields []FieldConfig) ([]schema.Field, error) {
	out := make([]schema.Field, len(fields))
	for i, f := range fields {
		t, ok := schema.ParseType(f.Type)
		if !ok {
			return nil, base.UnsupportedTypeErrorf("%s field %q has unknown type %q", kind, f.Name, f.Type)
		}
		out[i] = schema.Field{Name: f.Name, Type: t}
	}
	return out, nil
}

// Schema returns the validated table schema.
func (c *Config) Schema() (schema.Schema, error) {
	var s schema.Schema
	var err error
	if s.RowKeyFields, err = parseFields("row key", c.Table.RowKeys); err != nil {
		return schema.Schema{}, err
	}
	if s.SortKeyFields, err = parseFields("sort key", c.Table.SortKeys); err != nil {
		return schema.Schema{}, err
	}
	if s.ValueFields, err = parseFields("value", c.Table.ValueFields); err != nil {
		return schema.Schema{}, err
	}
	return s, s.Validate()
}

// SplitPoints returns the parsed initial split points.
func (c *Config) SplitPoints() ([]schema.Value, error) {
	s, err := c.Schema()
	if err != nil {
		return nil, err
	}
	out := make([]schema.Value, len(c.Table.SplitPoints))
	for i, str := range c.Table.SplitPoints {
		if out[i], err = schema.ParseValue(s.RowKeyFields[0].Type, str); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Options returns splitter options with the configured split settings.
func (c *Config) Options() *Options {
	return &Options{
		SplitThreshold:      c.Split.Threshold,
		DefaultDimension:    c.Split.Dimension,
		FallbackDimensions:  c.Split.FallbackDimensions,
		MaxConcurrentSplits: c.Split.MaxConcurrent,
	}
}

// OpenStore opens the configured state store.
func (c *Config) OpenStore(logger Logger) (statestore.Store, error) {
	switch c.StateStore.Backend {
	case BackendMemory:
		return memstore.New(), nil
	case BackendPebble:
		if c.StateStore.Dir == "" {
			return nil, base.ValidationErrorf("pebble state store needs a dir")
		}
		return pebblestore.Open(c.StateStore.Dir, &pebblestore.Options{Logger: logger})
	case BackendEtcd:
		if len(c.StateStore.EtcdEndpoints) == 0 {
			return nil, base.ValidationErrorf("etcd state store needs endpoints")
		}
		timeout := 5 * time.Second
		if c.StateStore.DialTimeout != "" {
			d, err := time.ParseDuration(c.StateStore.DialTimeout)
			if err != nil {
				return nil, errors.Mark(errors.Wrap(err, "parsing dial_timeout"), base.ErrValidation)
			}
			timeout = d
		}
		prefix := c.StateStore.EtcdPrefix
		if prefix == "" {
			prefix = "/sleeper/" + c.Table.Name
		}
		return etcdstore.Dial(c.StateStore.EtcdEndpoints, timeout, prefix)
	default:
		return nil, base.ValidationErrorf("unknown state store backend %q", c.StateStore.Backend)
	}
}
