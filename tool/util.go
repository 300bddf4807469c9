// Copyright 2019 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"fmt"
	"io"
	"strings"

	"github.com/sleeperdb/sleeper/internal/base"
	"github.com/sleeperdb/sleeper/keyrange"
	"github.com/sleeperdb/sleeper/schema"
)

// parseKey parses one value per row key field.
func parseKey(s schema.Schema, args []string) (schema.Key, error) {
	if len(args) != s.Dims() {
		return nil, base.ValidationErrorf("expected %d key values (%s), got %d", s.Dims(), s, len(args))
	}
	k := make(schema.Key, len(args))
	for i, arg := range args {
		v, err := schema.ParseValue(s.RowKeyFields[i].Type, arg)
		if err != nil {
			return nil, err
		}
		k[i] = v
	}
	return k, nil
}

// parseRegion parses a region and canonicalizes it, so that inclusive
// bounds may be given on the command line.
func parseRegion(s schema.Schema, args []string) (keyrange.Region, error) {
	r, err := keyrange.ParseRegion(s, strings.Join(args, " "))
	if err != nil {
		return keyrange.Region{}, err
	}
	return keyrange.CanonicalizeRegion(r)
}

func printErr(w io.Writer, err error) {
	fmt.Fprintf(w, "error: %s\n", err)
}
