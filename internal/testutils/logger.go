// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package testutils

import "testing"

// Logger routes log messages to a test's log, tagged with their level.
// Errors are logged rather than failing the test: conflicts and violations
// are logged at error level during tests that expect them.
type Logger struct {
	T testing.TB
}

func (l Logger) Infof(format string, args ...interface{}) {
	l.T.Helper()
	l.T.Logf("I "+format, args...)
}

func (l Logger) Errorf(format string, args ...interface{}) {
	l.T.Helper()
	l.T.Logf("E "+format, args...)
}

func (l Logger) Fatalf(format string, args ...interface{}) {
	l.T.Helper()
	l.T.Fatalf("F "+format, args...)
}
