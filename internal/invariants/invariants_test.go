// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package invariants

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func TestMaybeCheck(t *testing.T) {
	calls := 0
	MaybeCheck(func() error {
		calls++
		return nil
	})
	fail := func() {
		MaybeCheck(func() error { return errors.New("broken") })
	}
	if Enabled {
		require.Equal(t, 1, calls)
		require.Panics(t, fail)
	} else {
		require.Equal(t, 0, calls)
		require.NotPanics(t, fail)
	}
}
