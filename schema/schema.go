// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package schema defines the field types, values and row keys of a Sleeper
// table.
package schema

import (
	"fmt"
	"strings"

	"github.com/sleeperdb/sleeper/internal/base"
)

// Field is a named, typed column of a table.
type Field struct {
	Name string
	Type Type
}

func (f Field) String() string {
	return fmt.Sprintf("%s:%s", f.Name, f.Type)
}

// Schema describes the fields of a table. Row key fields determine the
// dimensions of the partition tree.
type Schema struct {
	RowKeyFields  []Field
	SortKeyFields []Field
	ValueFields   []Field
}

// Dims returns the number of row key fields.
func (s Schema) Dims() int {
	return len(s.RowKeyFields)
}

// RowKeyTypes returns the types of the row key fields, in order.
func (s Schema) RowKeyTypes() []Type {
	types := make([]Type, len(s.RowKeyFields))
	for i, f := range s.RowKeyFields {
		types[i] = f.Type
	}
	return types
}

// Field returns the field with the given name.
func (s Schema) Field(name string) (Field, bool) {
	for _, fields := range [][]Field{s.RowKeyFields, s.SortKeyFields, s.ValueFields} {
		for _, f := range fields {
			if f.Name == name {
				return f, true
			}
		}
	}
	return Field{}, false
}

// Validate checks that the schema has at least one row key field, that row
// and sort key fields are primitive, and that field names are unique.
func (s Schema) Validate() error {
	if len(s.RowKeyFields) == 0 {
		return base.ValidationErrorf("schema has no row key fields")
	}
	seen := make(map[string]struct{})
	check := func(kind string, fields []Field, primitive bool) error {
		for _, f := range fields {
			if f.Name == "" {
				return base.ValidationErrorf("%s field has no name", kind)
			}
			if _, ok := seen[f.Name]; ok {
				return base.ValidationErrorf("duplicate field name %q", f.Name)
			}
			seen[f.Name] = struct{}{}
			if f.Type == TypeInvalid || f.Type.String() == "unknown" {
				return base.UnsupportedTypeErrorf("%s field %q has invalid type", kind, f.Name)
			}
			if primitive && !f.Type.IsPrimitive() {
				return base.UnsupportedTypeErrorf("%s field %q has non-primitive type %s", kind, f.Name, f.Type)
			}
		}
		return nil
	}
	if err := check("row key", s.RowKeyFields, true); err != nil {
		return err
	}
	if err := check("sort key", s.SortKeyFields, true); err != nil {
		return err
	}
	return check("value", s.ValueFields, false)
}

// ValidateKey checks that the key has one non-null value per row key field,
// of the field's type.
func (s Schema) ValidateKey(k Key) error {
	if len(k) != len(s.RowKeyFields) {
		return base.ValidationErrorf("key %s has %d values, schema has %d row key fields",
			k, len(k), len(s.RowKeyFields))
	}
	for i, f := range s.RowKeyFields {
		if k[i].Type() != f.Type {
			return base.ValidationErrorf("key %s: value %d has type %s, field %q has type %s",
				k, i, k[i].Type(), f.Name, f.Type)
		}
	}
	return nil
}

// String returns a compact description of the row keys, e.g.
// "key:long,name:string".
func (s Schema) String() string {
	parts := make([]string, len(s.RowKeyFields))
	for i, f := range s.RowKeyFields {
		parts[i] = f.String()
	}
	return strings.Join(parts, ",")
}

// ParseRowKeys parses the format printed by Schema.String into a schema with
// only row key fields.
func ParseRowKeys(s string) (Schema, error) {
	var sch Schema
	for _, part := range strings.Split(s, ",") {
		name, typ, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok {
			return Schema{}, base.ValidationErrorf("malformed row key field %q", part)
		}
		t, ok := ParseType(typ)
		if !ok {
			return Schema{}, base.UnsupportedTypeErrorf("unknown type %q for field %q", typ, name)
		}
		sch.RowKeyFields = append(sch.RowKeyFields, Field{Name: name, Type: t})
	}
	return sch, sch.Validate()
}
