// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sleeper

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/sleeperdb/sleeper/internal/testutils"
	"github.com/sleeperdb/sleeper/schema"
	"github.com/sleeperdb/sleeper/statestore/memstore"
	"github.com/sleeperdb/sleeper/statestore/pebblestore"
	"github.com/stretchr/testify/require"
)

const testConfig = `
[table]
name = "events"
split_points = ["100", "200"]

[[table.row_keys]]
name = "key"
type = "long"

[[table.row_keys]]
name = "name"
type = "string"

[[table.value_fields]]
name = "tags"
type = "map"

[split]
threshold = 1000
dimension = 1
fallback_dimensions = true
max_concurrent = 8
`

func TestParseConfig(t *testing.T) {
	c, err := ParseConfig([]byte(testConfig))
	require.NoError(t, err)
	require.Equal(t, "events", c.Table.Name)
	require.Equal(t, BackendMemory, c.StateStore.Backend)

	s, err := c.Schema()
	require.NoError(t, err)
	require.Equal(t, "key:long,name:string", s.String())
	require.Equal(t, []schema.Field{{Name: "tags", Type: schema.TypeMap}}, s.ValueFields)

	points, err := c.SplitPoints()
	require.NoError(t, err)
	require.Equal(t, []schema.Value{schema.Long(100), schema.Long(200)}, points)

	opts := c.Options()
	opts.EnsureDefaults()
	require.NoError(t, opts.Validate(s))
	require.Equal(t, "[split]\n  threshold = 1000\n  dimension = 1\n  fallback_dimensions = true\n  max_concurrent = 8\n", opts.String())

	store, err := c.OpenStore(testutils.Logger{T: t})
	require.NoError(t, err)
	require.IsType(t, &memstore.Store{}, store)
	tree, err := InitialiseTable(context.Background(), store, s, points, nil)
	require.NoError(t, err)
	require.Len(t, tree.Leaves(), 3)
	require.NoError(t, store.Close())
}

func TestParseConfigErrors(t *testing.T) {
	for name, data := range map[string]string{
		"syntax":       "[table",
		"no row keys":  "[table]\nname = \"t\"\n",
		"unknown type": "[[table.row_keys]]\nname = \"k\"\ntype = \"float\"\n",
		"map row key":  "[[table.row_keys]]\nname = \"k\"\ntype = \"map\"\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConfig([]byte(data))
			require.True(t, errors.Is(err, ErrValidation), "%v", err)
		})
	}

	c, err := ParseConfig([]byte("[table]\nsplit_points = [\"x\"]\n[[table.row_keys]]\nname = \"k\"\ntype = \"int\"\n"))
	require.NoError(t, err)
	_, err = c.SplitPoints()
	require.True(t, errors.Is(err, ErrValidation))
}

func TestOpenStore(t *testing.T) {
	base := "[[table.row_keys]]\nname = \"k\"\ntype = \"long\"\n"
	for name, statestore := range map[string]string{
		"unknown backend":  "backend = \"s3\"\n",
		"pebble no dir":    "backend = \"pebble\"\n",
		"etcd no hosts":    "backend = \"etcd\"\n",
		"etcd bad timeout": "backend = \"etcd\"\netcd_endpoints = [\"localhost:2379\"]\ndial_timeout = \"soon\"\n",
	} {
		t.Run(name, func(t *testing.T) {
			c, err := ParseConfig([]byte(base + "[statestore]\n" + statestore))
			require.NoError(t, err)
			_, err = c.OpenStore(NoopLogger{})
			require.True(t, errors.Is(err, ErrValidation), "%v", err)
		})
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "table.toml")
	data := base + "[statestore]\nbackend = \"pebble\"\ndir = \"" + filepath.Join(dir, "db") + "\"\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	c, err := LoadConfig(path)
	require.NoError(t, err)
	store, err := c.OpenStore(testutils.Logger{T: t})
	require.NoError(t, err)
	require.IsType(t, &pebblestore.Store{}, store)
	require.NoError(t, store.Close())

	_, err = LoadConfig(filepath.Join(dir, "missing.toml"))
	require.Error(t, err)
}
