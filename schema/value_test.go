// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package schema

import (
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/sleeperdb/sleeper/internal/base"
	"github.com/stretchr/testify/require"
)

func TestSuccessor(t *testing.T) {
	testCases := []struct {
		v    Value
		want Value
	}{
		{Int(5), Int(6)},
		{Int(-1), Int(0)},
		{Int(math.MaxInt32), Null()},
		{Long(100), Long(101)},
		{Long(math.MaxInt64), Null()},
		{String("m"), String("m\x00")},
		{String(""), String("\x00")},
		{Bytes([]byte{0xff}), Bytes([]byte{0xff, 0x00})},
		{Null(), Null()},
	}
	for _, tc := range testCases {
		t.Run(tc.v.String(), func(t *testing.T) {
			got, err := Successor(tc.v)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
			if !got.IsNull() {
				require.Equal(t, +1, Compare(got, tc.v))
			}
		})
	}
}

func TestSuccessorIsImmediate(t *testing.T) {
	// Nothing lies strictly between a string and its successor.
	v := String("abc")
	next, err := Successor(v)
	require.NoError(t, err)
	for _, s := range []string{"abc\x00\x00", "abc\x00a", "abd", "abca"} {
		require.Equal(t, +1, Compare(String(s), next), s)
	}
	b := Bytes([]byte("abc"))
	nextB, err := Successor(b)
	require.NoError(t, err)
	require.Equal(t, -1, Compare(b, nextB))
	require.Equal(t, -1, Compare(nextB, Bytes([]byte("abc\x01"))))
}

func TestSuccessorUnsupported(t *testing.T) {
	_, err := Successor(Value{typ: TypeMap})
	require.True(t, errors.Is(err, base.ErrUnsupportedType))
	require.True(t, errors.Is(err, base.ErrValidation))
}

func TestCompare(t *testing.T) {
	require.Equal(t, -1, Compare(Int(-5), Int(3)))
	require.Equal(t, 0, Compare(Long(7), Long(7)))
	require.Equal(t, +1, Compare(String("b"), String("abc")))
	// Byte arrays compare unsigned.
	require.Equal(t, -1, Compare(Bytes([]byte{0x01}), Bytes([]byte{0x80})))
	require.Equal(t, -1, Compare(Null(), Int(math.MinInt32)))
}

func TestParseValue(t *testing.T) {
	for _, tc := range []struct {
		typ  Type
		in   string
		want Value
	}{
		{TypeInt, "-12", Int(-12)},
		{TypeLong, "9223372036854775807", Long(math.MaxInt64)},
		{TypeString, `"a b"`, String("a b")},
		{TypeString, "abc", String("abc")},
		{TypeByteArray, "0x00ff", Bytes([]byte{0x00, 0xff})},
		{TypeLong, "null", Null()},
	} {
		got, err := ParseValue(tc.typ, tc.in)
		require.NoError(t, err)
		require.Equal(t, tc.want, got)
	}

	_, err := ParseValue(TypeInt, "4294967296")
	require.True(t, errors.Is(err, base.ErrValidation))
	_, err = ParseValue(TypeList, "1")
	require.True(t, errors.Is(err, base.ErrUnsupportedType))
}

func TestValueString(t *testing.T) {
	require.Equal(t, "42", Long(42).String())
	require.Equal(t, `"m\x00"`, String("m\x00").String())
	require.Equal(t, "0x0102", Bytes([]byte{1, 2}).String())
	require.Equal(t, "null", Null().String())
	require.Equal(t, `(1, "a")`, Key{Int(1), String("a")}.String())
}

func TestAsWrongTypePanics(t *testing.T) {
	require.Panics(t, func() { _ = Int(1).AsLong() })
	require.Equal(t, []byte{1}, Bytes([]byte{1}).AsBytes())
}
