// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package schema

import "github.com/cockroachdb/redact"

// Type is the type of a field. The set of types is closed.
type Type uint8

// The available field types. Int, Long, String and ByteArray are primitive
// and may be used as row keys or sort keys. Map and List may only be used as
// value fields.
const (
	TypeInvalid Type = iota
	TypeInt
	TypeLong
	TypeString
	TypeByteArray
	TypeMap
	TypeList
)

var typeNames = [...]string{
	TypeInvalid:   "invalid",
	TypeInt:       "int",
	TypeLong:      "long",
	TypeString:    "string",
	TypeByteArray: "bytearray",
	TypeMap:       "map",
	TypeList:      "list",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "unknown"
}

// SafeFormat implements redact.SafeFormatter.
func (t Type) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Print(redact.SafeString(t.String()))
}

// IsPrimitive returns true if values of the type are totally ordered and
// may be used in a row key.
func (t Type) IsPrimitive() bool {
	switch t {
	case TypeInt, TypeLong, TypeString, TypeByteArray:
		return true
	}
	return false
}

// ParseType returns the type with the given name, as printed by
// Type.String.
func ParseType(s string) (Type, bool) {
	for t, name := range typeNames {
		if t != int(TypeInvalid) && name == s {
			return Type(t), true
		}
	}
	return TypeInvalid, false
}
