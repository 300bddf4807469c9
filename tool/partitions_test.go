// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sleeperdb/sleeper/internal/testutils"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, tl *T, args ...string) string {
	var buf bytes.Buffer
	c := &cobra.Command{}
	c.AddCommand(tl.Commands...)
	c.SetArgs(args)
	c.SetOutput(&buf)
	require.NoError(t, c.Execute())
	return buf.String()
}

// TestPebbleConfig drives the tools through a configuration file naming a
// pebble state store, reopening the store for every command.
func TestPebbleConfig(t *testing.T) {
	dir := t.TempDir()
	config := filepath.Join(dir, "table.toml")
	require.NoError(t, os.WriteFile(config, []byte(`
[table]
name = "events"
split_points = ["0"]

[[table.row_keys]]
name = "key"
type = "long"

[statestore]
backend = "pebble"
dir = "`+filepath.Join(dir, "db")+`"
`), 0o644))

	ids := testutils.SequentialIDs("p")
	newTool := func() *T {
		return New(WithIDs(ids), WithLogger(testutils.Logger{T: t}))
	}
	require.Equal(t, "initialised 3 partitions (2 leaves)\n",
		run(t, newTool(), "partitions", "init", "--config", config))
	require.Equal(t, "p2 {key:[0, +inf)}\n",
		run(t, newTool(), "partitions", "find", "--config", config, "5"))

	out := run(t, newTool(), "partitions", "dump", "--config", config)
	for _, s := range []string{"ID", "PARENT", "REGION", "{key:[-inf, 0)}", "root"} {
		require.Contains(t, out, s)
	}

	require.Equal(t, "OK: 3 partitions, 2 leaves\n",
		run(t, newTool(), "partitions", "check", "--config", config))
	require.Equal(t, "error: --config is required\n",
		run(t, newTool(), "partitions", "check"))
}
