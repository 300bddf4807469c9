// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package codec encodes partitions for durable state stores. Records are
// deterministic CBOR maps with integer keys.
package codec

import (
	"github.com/cockroachdb/errors"
	"github.com/fxamacker/cbor/v2"
	"github.com/sleeperdb/sleeper/keyrange"
	"github.com/sleeperdb/sleeper/partition"
	"github.com/sleeperdb/sleeper/schema"
)

// ErrCorrupt marks records that cannot be decoded.
var ErrCorrupt = errors.New("sleeper: corrupt partition record")

type valueRecord struct {
	Int   int64  `cbor:"1,keyasint,omitempty"`
	Bytes []byte `cbor:"2,keyasint,omitempty"`
}

type rangeRecord struct {
	Field        string       `cbor:"1,keyasint"`
	Type         schema.Type  `cbor:"2,keyasint"`
	Min          *valueRecord `cbor:"3,keyasint,omitempty"`
	MinInclusive bool         `cbor:"4,keyasint"`
	Max          *valueRecord `cbor:"5,keyasint,omitempty"`
	MaxInclusive bool         `cbor:"6,keyasint"`
}

type partitionRecord struct {
	Version   int64         `cbor:"1,keyasint,omitempty"`
	ID        string        `cbor:"2,keyasint"`
	Leaf      bool          `cbor:"3,keyasint"`
	ParentID  string        `cbor:"4,keyasint,omitempty"`
	ChildIDs  []string      `cbor:"5,keyasint,omitempty"`
	Dimension int           `cbor:"6,keyasint"`
	Ranges    []rangeRecord `cbor:"7,keyasint"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	if encMode, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		panic(err)
	}
	if decMode, err = (cbor.DecOptions{}).DecMode(); err != nil {
		panic(err)
	}
}

// Marshal encodes a partition together with a version. Stores that track
// versions themselves pass zero.
func Marshal(p partition.Partition, version int64) ([]byte, error) {
	rec := partitionRecord{
		Version:   version,
		ID:        p.ID(),
		Leaf:      p.IsLeaf(),
		ParentID:  p.ParentID(),
		ChildIDs:  p.ChildIDs(),
		Dimension: p.Dimension(),
	}
	for _, rg := range p.Region().Ranges() {
		rec.Ranges = append(rec.Ranges, rangeRecord{
			Field:        rg.Field.Name,
			Type:         rg.Field.Type,
			Min:          encodeValue(rg.Min),
			MinInclusive: rg.MinInclusive,
			Max:          encodeValue(rg.Max),
			MaxInclusive: rg.MaxInclusive,
		})
	}
	b, err := encMode.Marshal(rec)
	return b, errors.Wrapf(err, "encoding partition %s", p.ID())
}

// Unmarshal decodes a record written by Marshal.
func Unmarshal(b []byte) (partition.Partition, int64, error) {
	var rec partitionRecord
	if err := decMode.Unmarshal(b, &rec); err != nil {
		return partition.Partition{}, 0, errors.Mark(errors.Wrap(err, "decoding partition"), ErrCorrupt)
	}
	ranges := make([]keyrange.Range, len(rec.Ranges))
	for i, r := range rec.Ranges {
		f := schema.Field{Name: r.Field, Type: r.Type}
		min, err := decodeValue(f.Type, r.Min)
		if err != nil {
			return partition.Partition{}, 0, err
		}
		max, err := decodeValue(f.Type, r.Max)
		if err != nil {
			return partition.Partition{}, 0, err
		}
		ranges[i] = keyrange.Range{
			Field: f, Min: min, MinInclusive: r.MinInclusive, Max: max, MaxInclusive: r.MaxInclusive,
		}
	}
	p, err := partition.NewBuilder(rec.ID).
		Region(keyrange.NewRegion(ranges...)).
		Leaf(rec.Leaf).
		ParentID(rec.ParentID).
		ChildIDs(rec.ChildIDs...).
		Dimension(rec.Dimension).
		Build()
	if err != nil {
		return partition.Partition{}, 0, errors.Mark(errors.Wrapf(err, "decoding partition %s", rec.ID), ErrCorrupt)
	}
	return p, rec.Version, nil
}

func encodeValue(v schema.Value) *valueRecord {
	switch v.Type() {
	case schema.TypeInt:
		return &valueRecord{Int: int64(v.AsInt())}
	case schema.TypeLong:
		return &valueRecord{Int: v.AsLong()}
	case schema.TypeString:
		return &valueRecord{Bytes: []byte(v.AsString())}
	case schema.TypeByteArray:
		return &valueRecord{Bytes: v.AsBytes()}
	}
	return nil
}

func decodeValue(t schema.Type, r *valueRecord) (schema.Value, error) {
	if r == nil {
		return schema.Null(), nil
	}
	switch t {
	case schema.TypeInt:
		if int64(int32(r.Int)) != r.Int {
			return schema.Value{}, errors.Mark(errors.Newf("int value %d out of range", r.Int), ErrCorrupt)
		}
		return schema.Int(int32(r.Int)), nil
	case schema.TypeLong:
		return schema.Long(r.Int), nil
	case schema.TypeString:
		return schema.String(string(r.Bytes)), nil
	case schema.TypeByteArray:
		return schema.Bytes(r.Bytes), nil
	}
	return schema.Value{}, errors.Mark(errors.Newf("value of unsupported type %s", t), ErrCorrupt)
}
