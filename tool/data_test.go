// Copyright 2019 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/sleeperdb/sleeper"
	"github.com/sleeperdb/sleeper/internal/testutils"
	"github.com/sleeperdb/sleeper/statestore"
	"github.com/sleeperdb/sleeper/statestore/memstore"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// sharedStore outlives the commands that open and close it.
type sharedStore struct {
	statestore.Store
}

func (sharedStore) Close() error { return nil }

// runTests runs the commands of each test file against one in-memory table
// per file. The "config" command parses its input as the table's TOML
// configuration and starts the table afresh.
func runTests(t *testing.T, path string) {
	paths, err := filepath.Glob(path)
	require.NoError(t, err)
	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			var opts []Option
			datadriven.RunTest(t, path, func(t *testing.T, d *datadriven.TestData) string {
				if d.Cmd == "config" {
					cfg, err := sleeper.ParseConfig([]byte(d.Input))
					if err != nil {
						return err.Error()
					}
					store := sharedStore{memstore.New()}
					opts = []Option{
						WithConfig(cfg),
						WithStoreOpener(func(*sleeper.Config, sleeper.Logger) (statestore.Store, error) {
							return store, nil
						}),
						WithIDs(testutils.SequentialIDs("p")),
						WithLogger(testutils.Logger{T: t}),
					}
					return ""
				}

				args := []string{d.Cmd}
				for _, arg := range d.CmdArgs {
					args = append(args, arg.String())
				}
				args = append(args, strings.Fields(d.Input)...)

				// Commands keep their flag values, so build them afresh for
				// every invocation.
				var buf bytes.Buffer
				c := &cobra.Command{}
				c.AddCommand(New(opts...).Commands...)
				c.SetArgs(args)
				c.SetOutput(&buf)
				if err := c.Execute(); err != nil {
					return err.Error()
				}
				return buf.String()
			})
		})
	}
}

func TestPartitions(t *testing.T) {
	runTests(t, "testdata/partitions*")
}
