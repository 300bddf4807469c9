// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/sleeperdb/sleeper"
	"github.com/sleeperdb/sleeper/partition"
	"github.com/sleeperdb/sleeper/schema"
	"github.com/sleeperdb/sleeper/statestore"
	"github.com/spf13/cobra"
)

// partitionsT implements the partition tree tools, including both
// configuration state and the commands themselves.
type partitionsT struct {
	Root        *cobra.Command
	Init        *cobra.Command
	Dump        *cobra.Command
	Find        *cobra.Command
	Overlapping *cobra.Command
	Split       *cobra.Command
	Check       *cobra.Command

	t          *T
	configPath string
	tree       bool
	dimension  int
	point      string
}

func newPartitions(t *T) *partitionsT {
	p := &partitionsT{t: t}

	p.Root = &cobra.Command{
		Use:   "partitions",
		Short: "partition tree introspection tools",
	}
	p.Root.PersistentFlags().StringVar(
		&p.configPath, "config", "", "path of the table's TOML configuration")

	p.Init = &cobra.Command{
		Use:   "init",
		Short: "create the partition tree of a new table",
		Long: `
Create the partitions of a new table in the configured state store: a single
root partition, or a balanced tree over the configured split points.
`,
		Args: cobra.NoArgs,
		Run:  p.runInit,
	}
	p.Dump = &cobra.Command{
		Use:   "dump",
		Short: "print the partition tree",
		Args:  cobra.NoArgs,
		Run:   p.runDump,
	}
	p.Dump.Flags().BoolVar(&p.tree, "tree", false, "print an indented tree instead of a table")
	p.Find = &cobra.Command{
		Use:   "find <key-values>",
		Short: "print the leaf partition containing a row key",
		Args:  cobra.MinimumNArgs(1),
		Run:   p.runFind,
	}
	p.Overlapping = &cobra.Command{
		Use:   "overlapping <region>",
		Short: "print the leaf partitions overlapping a region",
		Long: `
Print the leaf partitions overlapping a region given as one range per row key
field, e.g. 'key:[10, 20]'. Inclusive and exclusive bounds are accepted.
`,
		Args: cobra.MinimumNArgs(1),
		Run:  p.runOverlapping,
	}
	p.Split = &cobra.Command{
		Use:   "split <partition-id>",
		Short: "split a leaf partition at a given point",
		Args:  cobra.ExactArgs(1),
		Run:   p.runSplit,
	}
	p.Split.Flags().IntVar(&p.dimension, "dimension", 0, "row key dimension to split on")
	p.Split.Flags().StringVar(&p.point, "point", "", "split point (required)")
	p.Check = &cobra.Command{
		Use:   "check",
		Short: "verify the partition tree's invariants",
		Args:  cobra.NoArgs,
		Run:   p.runCheck,
	}

	p.Root.AddCommand(p.Init, p.Dump, p.Find, p.Overlapping, p.Split, p.Check)
	return p
}

func (p *partitionsT) config() (*sleeper.Config, error) {
	if p.t.config != nil {
		return p.t.config, nil
	}
	if p.configPath == "" {
		return nil, errors.New("--config is required")
	}
	return sleeper.LoadConfig(p.configPath)
}

// withStore opens the configured store, calls fn and closes the store.
func (p *partitionsT) withStore(
	cmd *cobra.Command, fn func(cfg *sleeper.Config, s schema.Schema, store statestore.Store) error,
) {
	stderr := cmd.OutOrStderr()
	cfg, err := p.config()
	if err != nil {
		printErr(stderr, err)
		return
	}
	s, err := cfg.Schema()
	if err != nil {
		printErr(stderr, err)
		return
	}
	store, err := p.t.openStore(cfg, p.t.logger)
	if err != nil {
		printErr(stderr, err)
		return
	}
	defer func() { _ = store.Close() }()
	if err := fn(cfg, s, store); err != nil {
		printErr(stderr, err)
	}
}

func (p *partitionsT) runInit(cmd *cobra.Command, args []string) {
	p.withStore(cmd, func(cfg *sleeper.Config, s schema.Schema, store statestore.Store) error {
		points, err := cfg.SplitPoints()
		if err != nil {
			return err
		}
		tree, err := sleeper.InitialiseTable(context.Background(), store, s, points, p.t.ids)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "initialised %d partitions (%d leaves)\n", tree.Len(), len(tree.Leaves()))
		return nil
	})
}

func (p *partitionsT) runDump(cmd *cobra.Command, args []string) {
	p.withStore(cmd, func(_ *sleeper.Config, s schema.Schema, store statestore.Store) error {
		tree, err := sleeper.LoadTree(context.Background(), store, s)
		if err != nil {
			return err
		}
		stdout := cmd.OutOrStdout()
		if p.tree {
			fmt.Fprint(stdout, tree.DebugString())
			return nil
		}
		writeTable(stdout, tree.All())
		return nil
	})
}

func writeTable(w io.Writer, partitions []partition.Partition) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"id", "parent", "leaf", "dimension", "region"})
	table.SetAutoWrapText(false)
	for _, p := range partitions {
		table.Append([]string{
			p.ID(),
			p.ParentID(),
			strconv.FormatBool(p.IsLeaf()),
			strconv.Itoa(p.Dimension()),
			p.Region().String(),
		})
	}
	table.Render()
}

func (p *partitionsT) runFind(cmd *cobra.Command, args []string) {
	p.withStore(cmd, func(_ *sleeper.Config, s schema.Schema, store statestore.Store) error {
		key, err := parseKey(s, args)
		if err != nil {
			return err
		}
		tree, err := sleeper.LoadTree(context.Background(), store, s)
		if err != nil {
			return err
		}
		leaf, err := tree.LeafContaining(key)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", leaf.ID(), leaf.Region())
		return nil
	})
}

func (p *partitionsT) runOverlapping(cmd *cobra.Command, args []string) {
	p.withStore(cmd, func(_ *sleeper.Config, s schema.Schema, store statestore.Store) error {
		region, err := parseRegion(s, args)
		if err != nil {
			return err
		}
		tree, err := sleeper.LoadTree(context.Background(), store, s)
		if err != nil {
			return err
		}
		leaves, err := tree.LeavesOverlapping(region)
		if err != nil {
			return err
		}
		for _, leaf := range leaves {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", leaf.ID(), leaf.Region())
		}
		return nil
	})
}

func (p *partitionsT) runSplit(cmd *cobra.Command, args []string) {
	p.withStore(cmd, func(cfg *sleeper.Config, s schema.Schema, store statestore.Store) error {
		if p.point == "" {
			return errors.New("--point is required")
		}
		if p.dimension < 0 || p.dimension >= s.Dims() {
			return errors.Newf("--dimension %d out of range [0, %d)", p.dimension, s.Dims())
		}
		v, err := schema.ParseValue(s.RowKeyFields[p.dimension].Type, p.point)
		if err != nil {
			return err
		}
		opts := cfg.Options()
		opts.IDs = p.t.ids
		opts.Logger = p.t.logger
		splitter, err := sleeper.NewSplitter(store, s, nil, opts)
		if err != nil {
			return err
		}
		split, err := splitter.SplitPartition(context.Background(), args[0],
			sleeper.WithDimension(p.dimension), sleeper.WithSplitPoint(v))
		if err != nil {
			return err
		}
		stdout := cmd.OutOrStdout()
		fmt.Fprintf(stdout, "%s\n", split)
		fmt.Fprintf(stdout, "  %s %s\n", split.Left.ID(), split.Left.Region())
		fmt.Fprintf(stdout, "  %s %s\n", split.Right.ID(), split.Right.Region())
		return nil
	})
}

func (p *partitionsT) runCheck(cmd *cobra.Command, args []string) {
	p.withStore(cmd, func(_ *sleeper.Config, s schema.Schema, store statestore.Store) error {
		// LoadTree checks the invariants.
		tree, err := sleeper.LoadTree(context.Background(), store, s)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "OK: %d partitions, %d leaves\n", tree.Len(), len(tree.Leaves()))
		return nil
	})
}
