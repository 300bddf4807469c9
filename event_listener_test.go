// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sleeper

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sleeperdb/sleeper/partition"
	"github.com/sleeperdb/sleeper/schema"
	"github.com/sleeperdb/sleeper/statestore/memstore"
	"github.com/stretchr/testify/require"
)

type syncedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncedBuffer) Infof(format string, args ...interface{}) {
	b.printf(format, args...)
}

func (b *syncedBuffer) Errorf(format string, args ...interface{}) {
	b.printf("E "+format, args...)
}

func (b *syncedBuffer) Fatalf(format string, args ...interface{}) {
	panic(fmt.Sprintf(format, args...))
}

func (b *syncedBuffer) printf(format string, args ...interface{}) {
	s := fmt.Sprintf(format, args...)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.WriteString(s)
	if n := len(s); n == 0 || s[n-1] != '\n' {
		b.buf.WriteByte('\n')
	}
}

func (b *syncedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestLoggingEventListener(t *testing.T) {
	ctx := context.Background()
	var buf syncedBuffer
	el := MakeLoggingEventListener(&buf)
	s := newTestSplitter(t, memstore.New(), nil, &Options{EventListener: &el})

	_, err := s.SplitPartition(ctx, partition.RootID, WithSplitPoint(schema.Long(100)))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "[SPLIT root] splitting at version 1", lines[0])
	require.True(t, strings.HasPrefix(lines[1], "[SPLIT root] split on dimension 0 at 100 into p1 and p2 in "), lines[1])
}

func TestDefaultEventListenerLogsViolations(t *testing.T) {
	var buf syncedBuffer
	s := newTestSplitter(t, memstore.New(), nil, &Options{
		Logger: &buf,
		IDs:    func() string { return "dup" },
	})
	_, err := s.SplitPartition(context.Background(), partition.RootID, WithSplitPoint(schema.Long(1)))
	require.True(t, errors.Is(err, ErrInvariantViolation))
	require.True(t, strings.HasPrefix(buf.String(), "E invariant violation: [SPLIT root] split failed: "), buf.String())
}

func TestTeeEventListener(t *testing.T) {
	var a, b []string
	tee := TeeEventListener(
		EventListener{SplitBegin: func(info SplitBeginInfo) { a = append(a, info.String()) }},
		EventListener{
			SplitBegin: func(info SplitBeginInfo) { b = append(b, info.String()) },
			SplitEnd:   func(info SplitInfo) { b = append(b, info.String()) },
		},
	)
	s := newTestSplitter(t, memstore.New(), nil, &Options{EventListener: &tee})
	_, err := s.SplitPartition(context.Background(), partition.RootID, WithSplitPoint(schema.Long(1)))
	require.NoError(t, err)
	require.Equal(t, []string{"[SPLIT root] splitting at version 1"}, a)
	require.Len(t, b, 2)

	// Unset hooks of a tee are callable.
	tee = TeeEventListener(EventListener{}, EventListener{})
	tee.SplitConflict(SplitInfo{})
	tee.InvariantViolation(SplitInfo{})
}

func TestSplitInfoString(t *testing.T) {
	info := SplitInfo{
		PartitionID: "p",
		Dimension:   1,
		Point:       schema.String("m"),
		LeftID:      "l",
		RightID:     "r",
		Duration:    1500 * time.Millisecond,
	}
	require.Equal(t, `[SPLIT p] split on dimension 1 at "m" into l and r in 1.5s`, info.String())
	info.Err = errors.New("boom")
	require.Equal(t, "[SPLIT p] split failed: boom", info.String())
	require.Equal(t, "[SPLIT p] splitting at version 7", SplitBeginInfo{PartitionID: "p", Version: 7}.String())
}

var _ Logger = (*syncedBuffer)(nil)
