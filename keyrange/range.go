// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package keyrange implements the one-dimensional Range and the
// multi-dimensional Region used to describe partitions of a table's key
// space, together with the canonicalization rules that give every interval a
// single representation.
//
// A canonical Range includes its minimum and excludes its maximum. A null
// minimum is unbounded below and a null maximum is unbounded above. All
// containment and overlap queries assume canonical input; use Canonicalize
// or Region.Validate at the boundary.
package keyrange

import (
	"strings"

	"github.com/cockroachdb/redact"
	"github.com/sleeperdb/sleeper/internal/base"
	"github.com/sleeperdb/sleeper/schema"
)

// Range is an interval over the values of a single field.
type Range struct {
	Field        schema.Field
	Min          schema.Value
	MinInclusive bool
	Max          schema.Value
	MaxInclusive bool
}

// UnboundedRange returns the canonical range covering every value of the
// field.
func UnboundedRange(f schema.Field) Range {
	return Range{Field: f, MinInclusive: true}
}

// MakeRange returns the canonical range [min, max). Either bound may be
// null.
func MakeRange(f schema.Field, min, max schema.Value) Range {
	return Range{Field: f, Min: min, MinInclusive: true, Max: max}
}

// IsCanonical returns true if the range includes its minimum and excludes
// its maximum.
func IsCanonical(r Range) bool {
	return r.MinInclusive && !r.MaxInclusive
}

// Canonicalize returns the canonical form of r. An exclusive minimum is
// replaced by its successor, made inclusive; an inclusive maximum is
// replaced by its successor, made exclusive. Null bounds stay null, and the
// successor of the largest integer is null, so [x, MaxInt64] canonicalizes
// to [x, +inf). Canonicalize is idempotent.
func Canonicalize(r Range) (Range, error) {
	if err := checkTypes(r); err != nil {
		return Range{}, err
	}
	if IsCanonical(r) {
		return r, nil
	}
	out := r
	if !r.MinInclusive {
		if !r.Min.IsNull() {
			next, err := schema.Successor(r.Min)
			if err != nil {
				return Range{}, err
			}
			if next.IsNull() {
				// Nothing is greater than the largest integer. A null minimum
				// would mean the opposite, so refuse.
				return Range{}, base.ValidationErrorf("range %s is empty and has no canonical form", r)
			}
			out.Min = next
		}
		out.MinInclusive = true
	}
	if r.MaxInclusive {
		next, err := schema.Successor(r.Max)
		if err != nil {
			return Range{}, err
		}
		out.Max = next
		out.MaxInclusive = false
	}
	return out, nil
}

func checkTypes(r Range) error {
	if !r.Field.Type.IsPrimitive() {
		return base.UnsupportedTypeErrorf("field %q of type %s cannot be used in a range", r.Field.Name, r.Field.Type)
	}
	for _, v := range [2]schema.Value{r.Min, r.Max} {
		if !v.IsNull() && v.Type() != r.Field.Type {
			return base.ValidationErrorf("range bound %s has type %s, field %q has type %s",
				v, v.Type(), r.Field.Name, r.Field.Type)
		}
	}
	return nil
}

// Contains returns true if v lies within the canonical range.
func (r Range) Contains(v schema.Value) bool {
	return (r.Min.IsNull() || schema.Compare(v, r.Min) >= 0) &&
		(r.Max.IsNull() || schema.Compare(v, r.Max) < 0)
}

// Overlaps returns true if the two canonical ranges share at least one value.
// Null bounds are treated as infinities. An empty range overlaps nothing.
func (r Range) Overlaps(o Range) bool {
	return lessMinMax(r.Min, o.Max) && lessMinMax(o.Min, r.Max) &&
		!r.IsEmpty() && !o.IsEmpty()
}

// IsEmpty returns true if the canonical range contains no values.
func (r Range) IsEmpty() bool {
	return !lessMinMax(r.Min, r.Max)
}

// lessMinMax reports whether a minimum bound is strictly below a maximum
// bound, treating a null minimum as -inf and a null maximum as +inf.
func lessMinMax(min, max schema.Value) bool {
	return min.IsNull() || max.IsNull() || schema.Compare(min, max) < 0
}

// Equal returns true if both ranges have the same field, bounds and
// inclusivity.
func (r Range) Equal(o Range) bool {
	return r == o
}

// IsUnbounded returns true if both bounds are null.
func (r Range) IsUnbounded() bool {
	return r.Min.IsNull() && r.Max.IsNull()
}

// String implements fmt.Stringer.
func (r Range) String() string {
	return redact.StringWithoutMarkers(r)
}

// SafeFormat implements redact.SafeFormatter. The format is
// "name:[min, max)" with -inf and +inf for null bounds.
func (r Range) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("%s:", redact.SafeString(r.Field.Name))
	if r.MinInclusive {
		w.SafeRune('[')
	} else {
		w.SafeRune('(')
	}
	if r.Min.IsNull() {
		w.SafeString("-inf")
	} else {
		w.Print(r.Min)
	}
	w.SafeString(", ")
	if r.Max.IsNull() {
		w.SafeString("+inf")
	} else {
		w.Print(r.Max)
	}
	if r.MaxInclusive {
		w.SafeRune(']')
	} else {
		w.SafeRune(')')
	}
}

// ParseRange parses the interval part of the format printed by
// Range.String, e.g. "[-inf, 100)" or `("a", "m"]`, for the given field.
func ParseRange(f schema.Field, s string) (Range, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return Range{}, base.ValidationErrorf("malformed range %q", s)
	}
	r := Range{Field: f}
	switch s[0] {
	case '[':
		r.MinInclusive = true
	case '(':
	default:
		return Range{}, base.ValidationErrorf("malformed range %q: bad opening bracket", s)
	}
	switch s[len(s)-1] {
	case ']':
		r.MaxInclusive = true
	case ')':
	default:
		return Range{}, base.ValidationErrorf("malformed range %q: bad closing bracket", s)
	}
	lo, hi, ok := strings.Cut(s[1:len(s)-1], ",")
	if !ok {
		return Range{}, base.ValidationErrorf("malformed range %q: missing comma", s)
	}
	var err error
	if r.Min, err = parseBound(f, lo, "-inf"); err != nil {
		return Range{}, err
	}
	if r.Max, err = parseBound(f, hi, "+inf"); err != nil {
		return Range{}, err
	}
	return r, nil
}

func parseBound(f schema.Field, s, inf string) (schema.Value, error) {
	s = strings.TrimSpace(s)
	if s == inf {
		return schema.Null(), nil
	}
	return schema.ParseValue(f.Type, s)
}
