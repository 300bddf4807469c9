// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package invariants gates expensive consistency checks behind the
// "invariants" and "race" build tags.
package invariants

// MaybeCheck runs check when invariants are enabled and panics with the
// returned error, if any. In other builds it is a no-op and check is never
// called.
func MaybeCheck(check func() error) {
	if !Enabled {
		return
	}
	if err := check(); err != nil {
		panic(err)
	}
}
