// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package schema

import (
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
	"github.com/sleeperdb/sleeper/internal/base"
)

// Value is a single field value. It is a closed tagged union over the
// primitive types; the zero Value is the null value, which range bounds use
// to mean "unbounded".
//
// Values are immutable and comparable with ==.
type Value struct {
	typ Type
	n   int64
	// s holds the contents of string and byte array values.
	s string
}

// Null returns the null value.
func Null() Value {
	return Value{}
}

// Int returns a 32-bit integer value.
func Int(v int32) Value {
	return Value{typ: TypeInt, n: int64(v)}
}

// Long returns a 64-bit integer value.
func Long(v int64) Value {
	return Value{typ: TypeLong, n: v}
}

// String returns a string value.
func String(v string) Value {
	return Value{typ: TypeString, s: v}
}

// Bytes returns a byte array value. The slice is copied.
func Bytes(v []byte) Value {
	return Value{typ: TypeByteArray, s: string(v)}
}

// IsNull returns true for the null value.
func (v Value) IsNull() bool {
	return v.typ == TypeInvalid
}

// Type returns the type of the value, or TypeInvalid for the null value.
func (v Value) Type() Type {
	return v.typ
}

// AsInt returns the value of an Int.
func (v Value) AsInt() int32 {
	v.mustBe(TypeInt)
	return int32(v.n)
}

// AsLong returns the value of a Long.
func (v Value) AsLong() int64 {
	v.mustBe(TypeLong)
	return v.n
}

// AsString returns the value of a String.
func (v Value) AsString() string {
	v.mustBe(TypeString)
	return v.s
}

// AsBytes returns a copy of the value of a ByteArray.
func (v Value) AsBytes() []byte {
	v.mustBe(TypeByteArray)
	return []byte(v.s)
}

func (v Value) mustBe(t Type) {
	if v.typ != t {
		panic(errors.AssertionFailedf("value of type %s used as %s", v.typ, t))
	}
}

// Compare returns -1, 0 or +1 depending on whether a is less than, equal to
// or greater than b. Values of the same type compare by value: integers
// numerically, strings and byte arrays by unsigned lexicographic byte order.
// Values of different types compare by type, with null first; callers that
// mix types have already failed validation.
func Compare(a, b Value) int {
	if a.typ != b.typ {
		if a.typ < b.typ {
			return -1
		}
		return +1
	}
	switch a.typ {
	case TypeInt, TypeLong:
		switch {
		case a.n < b.n:
			return -1
		case a.n > b.n:
			return +1
		}
		return 0
	default:
		return strings.Compare(a.s, b.s)
	}
}

// Successor returns the smallest value of the same type that is strictly
// greater than v. Converting an inclusive bound to an exclusive one, or an
// exclusive one to an inclusive one, uses it.
//
// The successor of the largest representable integer is the null value,
// i.e. unbounded. The successor of null is null.
func Successor(v Value) (Value, error) {
	switch v.typ {
	case TypeInvalid:
		return v, nil
	case TypeInt:
		if v.n == math.MaxInt32 {
			return Null(), nil
		}
		return Int(int32(v.n) + 1), nil
	case TypeLong:
		if v.n == math.MaxInt64 {
			return Null(), nil
		}
		return Long(v.n + 1), nil
	case TypeString, TypeByteArray:
		return Value{typ: v.typ, s: v.s + "\x00"}, nil
	default:
		return Value{}, base.UnsupportedTypeErrorf("no successor for values of type %s", v.typ)
	}
}

// String implements fmt.Stringer.
func (v Value) String() string {
	return redact.StringWithoutMarkers(v)
}

// SafeFormat implements redact.SafeFormatter. Integers are safe; string and
// byte array contents are user data.
func (v Value) SafeFormat(w redact.SafePrinter, _ rune) {
	switch v.typ {
	case TypeInvalid:
		w.SafeString("null")
	case TypeInt, TypeLong:
		w.Print(redact.Safe(v.n))
	case TypeString:
		w.Print(strconv.Quote(v.s))
	case TypeByteArray:
		w.Printf("0x%s", hex.EncodeToString([]byte(v.s)))
	default:
		w.Printf("<%s>", v.typ)
	}
}

// ParseValue parses the textual form of a value of type t, as printed by
// Value.String: decimal integers, optionally quoted strings and 0x-prefixed
// hex byte arrays. The text "null" parses to the null value.
func ParseValue(t Type, s string) (Value, error) {
	if s == "null" {
		return Null(), nil
	}
	switch t {
	case TypeInt:
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return Value{}, errors.Mark(errors.Wrapf(err, "parsing int %q", s), base.ErrValidation)
		}
		return Int(int32(n)), nil
	case TypeLong:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Value{}, errors.Mark(errors.Wrapf(err, "parsing long %q", s), base.ErrValidation)
		}
		return Long(n), nil
	case TypeString:
		if len(s) >= 2 && s[0] == '"' {
			u, err := strconv.Unquote(s)
			if err != nil {
				return Value{}, errors.Mark(errors.Wrapf(err, "parsing string %s", s), base.ErrValidation)
			}
			return String(u), nil
		}
		return String(s), nil
	case TypeByteArray:
		b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
		if err != nil {
			return Value{}, errors.Mark(errors.Wrapf(err, "parsing byte array %q", s), base.ErrValidation)
		}
		return Bytes(b), nil
	default:
		return Value{}, base.UnsupportedTypeErrorf("cannot parse values of type %s", t)
	}
}

// Key is a row key: one value per row key field, in schema order.
type Key []Value

// String implements fmt.Stringer.
func (k Key) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, v := range k {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprint(&sb, v)
	}
	sb.WriteByte(')')
	return sb.String()
}
