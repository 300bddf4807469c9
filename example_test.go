// Copyright 2020 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sleeper_test

import (
	"context"
	"fmt"
	"log"

	"github.com/sleeperdb/sleeper"
	"github.com/sleeperdb/sleeper/partition"
	"github.com/sleeperdb/sleeper/schema"
	"github.com/sleeperdb/sleeper/statestore/memstore"
)

func Example() {
	ctx := context.Background()
	s := schema.Schema{RowKeyFields: []schema.Field{{Name: "key", Type: schema.TypeLong}}}
	store := memstore.New()
	defer store.Close()

	if _, err := sleeper.InitialiseTable(ctx, store, s, nil, nil); err != nil {
		log.Fatal(err)
	}
	n := 0
	splitter, err := sleeper.NewSplitter(store, s, nil, &sleeper.Options{
		Logger: sleeper.NoopLogger{},
		IDs: func() string {
			n++
			return fmt.Sprintf("p%d", n)
		},
	})
	if err != nil {
		log.Fatal(err)
	}
	split, err := splitter.SplitPartition(ctx, partition.RootID, sleeper.WithSplitPoint(schema.Long(100)))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(split)

	tree, err := splitter.Tree(ctx)
	if err != nil {
		log.Fatal(err)
	}
	leaf, err := tree.LeafContaining(schema.Key{schema.Long(42)})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(leaf)
	// Output:
	// split root on dimension 0 at 100 into p1 p2
	// p1 {key:[-inf, 100)} leaf parent=root
}
