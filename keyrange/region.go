// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package keyrange

import (
	"strings"

	"github.com/cockroachdb/redact"
	"github.com/sleeperdb/sleeper/internal/base"
	"github.com/sleeperdb/sleeper/schema"
)

// Region is a rectangle in key space: one Range per row key field, in schema
// order. Regions are immutable; WithRange returns a modified copy.
type Region struct {
	ranges []Range
}

// NewRegion returns a region over the given ranges. The slice is copied.
func NewRegion(ranges ...Range) Region {
	return Region{ranges: append([]Range(nil), ranges...)}
}

// UnboundedRegion returns the region covering all of the schema's key space.
func UnboundedRegion(s schema.Schema) Region {
	ranges := make([]Range, len(s.RowKeyFields))
	for i, f := range s.RowKeyFields {
		ranges[i] = UnboundedRange(f)
	}
	return Region{ranges: ranges}
}

// Dims returns the number of dimensions.
func (r Region) Dims() int {
	return len(r.ranges)
}

// Range returns the range on dimension d.
func (r Region) Range(d int) Range {
	return r.ranges[d]
}

// Ranges returns a copy of the ranges, in dimension order.
func (r Region) Ranges() []Range {
	return append([]Range(nil), r.ranges...)
}

// WithRange returns a copy of r with the range on dimension d replaced.
func (r Region) WithRange(d int, rg Range) Region {
	out := NewRegion(r.ranges...)
	out.ranges[d] = rg
	return out
}

// IsCanonical returns true if every range is canonical.
func (r Region) IsCanonical() bool {
	for _, rg := range r.ranges {
		if !IsCanonical(rg) {
			return false
		}
	}
	return true
}

// CanonicalizeRegion canonicalizes every range of r.
func CanonicalizeRegion(r Region) (Region, error) {
	out := Region{ranges: make([]Range, len(r.ranges))}
	for i, rg := range r.ranges {
		c, err := Canonicalize(rg)
		if err != nil {
			return Region{}, err
		}
		out.ranges[i] = c
	}
	return out, nil
}

// Validate checks that r has one range per row key field of s, in order,
// that the bounds have the field types, and that r is canonical.
func (r Region) Validate(s schema.Schema) error {
	if len(r.ranges) != len(s.RowKeyFields) {
		return base.ValidationErrorf("region %s has %d dimensions, schema has %d row key fields",
			r, len(r.ranges), len(s.RowKeyFields))
	}
	for i, rg := range r.ranges {
		if rg.Field != s.RowKeyFields[i] {
			return base.ValidationErrorf("region %s: dimension %d is over field %s, expected %s",
				r, i, rg.Field, s.RowKeyFields[i])
		}
		if err := checkTypes(rg); err != nil {
			return err
		}
		if !IsCanonical(rg) {
			return base.ValidationErrorf("region %s: range %s is not canonical", r, rg)
		}
	}
	return nil
}

// ContainsKey returns true if every value of the key lies within the range
// of its dimension. The region must be canonical and the key must match its
// dimensions.
func (r Region) ContainsKey(k schema.Key) bool {
	if len(k) != len(r.ranges) {
		return false
	}
	for i, rg := range r.ranges {
		if !rg.Contains(k[i]) {
			return false
		}
	}
	return true
}

// Overlaps returns true if the two canonical regions intersect, i.e. their
// ranges intersect on every dimension.
func (r Region) Overlaps(o Region) bool {
	if len(r.ranges) != len(o.ranges) {
		return false
	}
	for i := range r.ranges {
		if !r.ranges[i].Overlaps(o.ranges[i]) {
			return false
		}
	}
	return true
}

// IsUnbounded returns true if every range is unbounded.
func (r Region) IsUnbounded() bool {
	for _, rg := range r.ranges {
		if !rg.IsUnbounded() {
			return false
		}
	}
	return true
}

// Equal returns true if both regions have equal ranges.
func (r Region) Equal(o Region) bool {
	if len(r.ranges) != len(o.ranges) {
		return false
	}
	for i := range r.ranges {
		if !r.ranges[i].Equal(o.ranges[i]) {
			return false
		}
	}
	return true
}

// String implements fmt.Stringer.
func (r Region) String() string {
	return redact.StringWithoutMarkers(r)
}

// SafeFormat implements redact.SafeFormatter.
func (r Region) SafeFormat(w redact.SafePrinter, _ rune) {
	w.SafeRune('{')
	for i, rg := range r.ranges {
		if i > 0 {
			w.SafeString(" ")
		}
		w.Print(rg)
	}
	w.SafeRune('}')
}

// ParseRegion parses a whitespace-separated list of ranges in the format
// printed by Range.String, one per row key field of s, e.g.
// "key:[-inf, 100) name:[\"a\", +inf)".
func ParseRegion(s schema.Schema, str string) (Region, error) {
	var ranges []Range
	rest := strings.TrimSpace(str)
	for rest != "" {
		name, tail, ok := strings.Cut(rest, ":")
		if !ok {
			return Region{}, base.ValidationErrorf("malformed region %q", str)
		}
		f, ok := s.Field(strings.TrimSpace(name))
		if !ok {
			return Region{}, base.ValidationErrorf("region %q names unknown field %q", str, name)
		}
		end := strings.IndexAny(tail, ")]")
		if end < 0 {
			return Region{}, base.ValidationErrorf("malformed region %q", str)
		}
		rg, err := ParseRange(f, tail[:end+1])
		if err != nil {
			return Region{}, err
		}
		ranges = append(ranges, rg)
		rest = strings.TrimSpace(tail[end+1:])
	}
	return NewRegion(ranges...), nil
}
