// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package keyrange

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/cockroachdb/crlib/crstrings"
	"github.com/cockroachdb/datadriven"
	"github.com/cockroachdb/errors"
	"github.com/sleeperdb/sleeper/internal/base"
	"github.com/sleeperdb/sleeper/schema"
	"github.com/stretchr/testify/require"
)

var (
	intField    = schema.Field{Name: "i", Type: schema.TypeInt}
	longField   = schema.Field{Name: "key", Type: schema.TypeLong}
	stringField = schema.Field{Name: "name", Type: schema.TypeString}
	bytesField  = schema.Field{Name: "b", Type: schema.TypeByteArray}
)

func TestCanonicalize(t *testing.T) {
	testCases := []struct {
		in   Range
		want Range
	}{
		{
			in:   Range{Field: longField, Min: schema.Long(1), MinInclusive: true, Max: schema.Long(10), MaxInclusive: true},
			want: MakeRange(longField, schema.Long(1), schema.Long(11)),
		},
		{
			in:   Range{Field: longField, Min: schema.Long(1), Max: schema.Long(10)},
			want: MakeRange(longField, schema.Long(2), schema.Long(10)),
		},
		{
			in:   Range{Field: intField, Min: schema.Int(0), MinInclusive: true, Max: schema.Int(math.MaxInt32), MaxInclusive: true},
			want: MakeRange(intField, schema.Int(0), schema.Null()),
		},
		{
			in:   Range{Field: stringField, Min: schema.String("a"), MinInclusive: true, Max: schema.String("m"), MaxInclusive: true},
			want: MakeRange(stringField, schema.String("a"), schema.String("m\x00")),
		},
		{
			in:   Range{Field: bytesField, Min: schema.Bytes([]byte{1}), Max: schema.Null(), MaxInclusive: true},
			want: MakeRange(bytesField, schema.Bytes([]byte{1, 0}), schema.Null()),
		},
		{
			in:   Range{Field: stringField},
			want: UnboundedRange(stringField),
		},
	}
	for _, tc := range testCases {
		t.Run(tc.in.String(), func(t *testing.T) {
			got, err := Canonicalize(tc.in)
			require.NoError(t, err)
			require.True(t, IsCanonical(got))
			require.Equal(t, tc.want, got)

			again, err := Canonicalize(got)
			require.NoError(t, err)
			require.Equal(t, got, again)
		})
	}
}

func TestCanonicalizeErrors(t *testing.T) {
	mapField := schema.Field{Name: "m", Type: schema.TypeMap}
	_, err := Canonicalize(Range{Field: mapField, MinInclusive: true})
	require.True(t, errors.Is(err, base.ErrUnsupportedType))

	_, err = Canonicalize(Range{Field: longField, Min: schema.Int(1), MinInclusive: true})
	require.True(t, errors.Is(err, base.ErrValidation))
	require.False(t, errors.Is(err, base.ErrUnsupportedType))

	_, err = Canonicalize(Range{Field: longField, Min: schema.Long(math.MaxInt64)})
	require.True(t, errors.Is(err, base.ErrValidation))
}

// TestCanonicalizePreservesMembership checks that canonicalizing a range
// never changes which values it contains.
func TestCanonicalizePreservesMembership(t *testing.T) {
	contains := func(r Range, v int64) bool {
		lo := r.Min.IsNull() || (r.MinInclusive && v >= r.Min.AsLong()) || (!r.MinInclusive && v > r.Min.AsLong())
		hi := r.Max.IsNull() || (r.MaxInclusive && v <= r.Max.AsLong()) || (!r.MaxInclusive && v < r.Max.AsLong())
		return lo && hi
	}
	for _, minInc := range []bool{true, false} {
		for _, maxInc := range []bool{true, false} {
			r := Range{Field: longField, Min: schema.Long(-3), MinInclusive: minInc, Max: schema.Long(4), MaxInclusive: maxInc}
			c, err := Canonicalize(r)
			require.NoError(t, err)
			for v := int64(-6); v <= 7; v++ {
				require.Equal(t, contains(r, v), c.Contains(schema.Long(v)), "%s %d", r, v)
			}
		}
	}
}

func TestRangeOverlaps(t *testing.T) {
	r := func(min, max int64) Range {
		return MakeRange(longField, schema.Long(min), schema.Long(max))
	}
	require.True(t, r(0, 10).Overlaps(r(9, 20)))
	require.False(t, r(0, 10).Overlaps(r(10, 20)))
	require.False(t, r(10, 20).Overlaps(r(0, 10)))
	require.True(t, UnboundedRange(longField).Overlaps(r(5, 6)))
	require.True(t, MakeRange(longField, schema.Null(), schema.Long(1)).Overlaps(MakeRange(longField, schema.Long(0), schema.Null())))
	require.False(t, MakeRange(longField, schema.Null(), schema.Long(1)).Overlaps(MakeRange(longField, schema.Long(1), schema.Null())))
	require.True(t, r(5, 5).IsEmpty())
	require.False(t, r(5, 6).IsEmpty())
}

func TestRegion(t *testing.T) {
	s := schema.Schema{RowKeyFields: []schema.Field{longField, stringField}}
	root := UnboundedRegion(s)
	require.NoError(t, root.Validate(s))
	require.True(t, root.IsUnbounded())
	require.True(t, root.ContainsKey(schema.Key{schema.Long(math.MinInt64), schema.String("")}))
	require.False(t, root.ContainsKey(schema.Key{schema.Long(1)}))

	left := root.WithRange(0, MakeRange(longField, schema.Null(), schema.Long(100)))
	require.True(t, root.IsUnbounded())
	require.False(t, left.IsUnbounded())
	require.Equal(t, "{key:[-inf, 100) name:[-inf, +inf)}", left.String())
	require.True(t, left.ContainsKey(schema.Key{schema.Long(99), schema.String("z")}))
	require.False(t, left.ContainsKey(schema.Key{schema.Long(100), schema.String("z")}))

	right := root.WithRange(0, MakeRange(longField, schema.Long(100), schema.Null()))
	require.False(t, left.Overlaps(right))
	require.True(t, left.Overlaps(root))

	nonCanonical := left.WithRange(1, Range{Field: stringField, MinInclusive: true, Max: schema.String("m"), MaxInclusive: true})
	require.True(t, errors.Is(nonCanonical.Validate(s), base.ErrValidation))
	c, err := CanonicalizeRegion(nonCanonical)
	require.NoError(t, err)
	require.NoError(t, c.Validate(s))

	swapped := NewRegion(UnboundedRange(stringField), UnboundedRange(longField))
	require.True(t, errors.Is(swapped.Validate(s), base.ErrValidation))
	require.True(t, errors.Is(NewRegion(UnboundedRange(longField)).Validate(s), base.ErrValidation))
}

func TestRangeDataDriven(t *testing.T) {
	s := schema.Schema{RowKeyFields: []schema.Field{longField, stringField, intField, bytesField}}
	field := func(td *datadriven.TestData) schema.Field {
		var name string
		td.ScanArgs(t, "field", &name)
		f, ok := s.Field(name)
		require.True(t, ok, name)
		return f
	}
	datadriven.RunTest(t, "testdata/range", func(t *testing.T, td *datadriven.TestData) string {
		switch td.Cmd {
		case "canonicalize":
			f := field(td)
			var buf strings.Builder
			for _, line := range crstrings.Lines(td.Input) {
				r, err := ParseRange(f, line)
				if err == nil {
					r, err = Canonicalize(r)
				}
				if err != nil {
					fmt.Fprintf(&buf, "error: %s\n", err)
					continue
				}
				fmt.Fprintf(&buf, "%s\n", r)
			}
			return buf.String()

		case "contains":
			// The first line is the range, the rest are values.
			f := field(td)
			lines := crstrings.Lines(td.Input)
			r, err := ParseRange(f, lines[0])
			require.NoError(t, err)
			r, err = Canonicalize(r)
			require.NoError(t, err)
			var buf strings.Builder
			for _, line := range lines[1:] {
				v, err := schema.ParseValue(f.Type, strings.TrimSpace(line))
				require.NoError(t, err)
				fmt.Fprintf(&buf, "%s: %t\n", v, r.Contains(v))
			}
			return buf.String()

		case "overlaps":
			lines := crstrings.Lines(td.Input)
			require.Len(t, lines, 2)
			a, err := ParseRegion(s, lines[0])
			require.NoError(t, err)
			b, err := ParseRegion(s, lines[1])
			require.NoError(t, err)
			return fmt.Sprintf("%t\n", a.Overlaps(b))

		default:
			return fmt.Sprintf("unknown command: %s", td.Cmd)
		}
	})
}

func TestEmptyRangeOverlapsNothing(t *testing.T) {
	empty := MakeRange(longField, schema.Long(5), schema.Long(5))
	require.False(t, empty.Overlaps(UnboundedRange(longField)))
	require.False(t, UnboundedRange(longField).Overlaps(empty))
	require.False(t, empty.Overlaps(empty))
}
