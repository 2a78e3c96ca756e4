// Copyright (C) 2018-2026  Nexedi SA and Contributors.
//
// This program is free software: you can Use, Study, Modify and Redistribute
// it under the terms of the GNU General Public License version 3, or (at your
// option) any later version, as published by the Free Software Foundation.
//
// You can also Link and Combine this program with other software covered by
// the terms of any of the Free Software licenses or any of the Open Source
// Initiative approved licenses and Convey the resulting work. Corresponding
// source of such a combination shall include the source code for all other
// software used.
//
// This program is distributed WITHOUT ANY WARRANTY; without even the implied
// warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
//
// See COPYING file for full licensing terms.
// See https://www.nexedi.com/licensing for rationale and options.

package sqlite
// encoding of property values

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shamaton/msgpack"

	"github.com/re-motion/Trunk-SVN2Git-sub013/domain"
	"github.com/re-motion/Trunk-SVN2Git-sub013/internal/xzlib"
)

// Object state is stored as msgpack map of property name -> msgpack
// encoding of the property value in its wire form:
//
//	string, int32, int64, float64, bool, bytes	as is
//	time						[unix seconds, nanoseconds]
//	guid						16 bytes
//	ref						object id text, "" for null
//	refs						[object id text...]
//
// Properties with nil value are not stored. Transaction-scoped properties
// are never stored.

// Data column holds encoded values prefixed with 1 byte telling how they are
// stored:
//
//	'r'	raw
//	'z'	zlib-compressed
//
// Data smaller than compressMin bytes is never compressed. Data is stored
// compressed only if that makes it smaller.
const (
	dataRaw  = 'r'
	dataZlib = 'z'

	compressMin = 512
)

// packData prepares encoded values for storing into data column.
func packData(data []byte) []byte {
	if len(data) >= compressMin {
		zdata := xzlib.Compress(data)
		if len(zdata) < len(data) {
			return append([]byte{dataZlib}, zdata...)
		}
	}
	return append([]byte{dataRaw}, data...)
}

// unpackData is inverse of packData.
func unpackData(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("data: empty")
	}
	switch b[0] {
	case dataRaw:
		return b[1:], nil
	case dataZlib:
		data, err := xzlib.Decompress(b[1:])
		if err != nil {
			return nil, fmt.Errorf("data: decompress: %s", err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("data: unknown format %q", b[0])
}

// encodeValues encodes values of persistent properties of class.
func encodeValues(class *domain.ClassDefinition, values map[string]interface{}) ([]byte, error) {
	m := make(map[string][]byte, len(values))
	for _, p := range class.Properties {
		if !p.Persistent() {
			continue
		}
		v := values[p.Name]
		if v == nil {
			continue
		}
		b, err := encodeValue(p.Type, v)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %s", class.ID, p.Name, err)
		}
		m[p.Name] = b
	}
	return msgpack.Encode(m)
}

// decodeValues decodes data encoded by encodeValues.
//
// Stored properties that class does not have anymore are ignored.
func decodeValues(class *domain.ClassDefinition, data []byte) (map[string]interface{}, error) {
	var m map[string][]byte
	if err := msgpack.Decode(data, &m); err != nil {
		return nil, fmt.Errorf("%s: decode: %s", class.ID, err)
	}

	values := make(map[string]interface{}, len(m))
	for _, p := range class.Properties {
		b, ok := m[p.Name]
		if !ok || !p.Persistent() {
			continue
		}
		v, err := decodeValue(p.Type, b)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: decode: %s", class.ID, p.Name, err)
		}
		values[p.Name] = v
	}
	return values, nil
}

func encodeValue(t domain.PropertyType, v interface{}) ([]byte, error) {
	if err := t.Check(v); err != nil {
		return nil, err
	}

	wire := v
	switch x := v.(type) {
	case time.Time:
		wire = []int64{x.Unix(), int64(x.Nanosecond())}
	case uuid.UUID:
		wire = x[:]
	case domain.ObjectID:
		wire = x.String()
	case []domain.ObjectID:
		idv := make([]string, len(x))
		for i, id := range x {
			idv[i] = id.String()
		}
		wire = idv
	}
	return msgpack.Encode(wire)
}

func decodeValue(t domain.PropertyType, b []byte) (_ interface{}, err error) {
	switch t {
	case domain.TypeString:
		var x string
		err = msgpack.Decode(b, &x)
		return x, err
	case domain.TypeInt32:
		var x int32
		err = msgpack.Decode(b, &x)
		return x, err
	case domain.TypeInt64:
		var x int64
		err = msgpack.Decode(b, &x)
		return x, err
	case domain.TypeFloat64:
		var x float64
		err = msgpack.Decode(b, &x)
		return x, err
	case domain.TypeBool:
		var x bool
		err = msgpack.Decode(b, &x)
		return x, err
	case domain.TypeBytes:
		var x []byte
		err = msgpack.Decode(b, &x)
		return x, err

	case domain.TypeTime:
		var x []int64
		if err = msgpack.Decode(b, &x); err != nil {
			return nil, err
		}
		if len(x) != 2 {
			return nil, fmt.Errorf("time: %d fields", len(x))
		}
		return time.Unix(x[0], x[1]).UTC(), nil

	case domain.TypeGuid:
		var x []byte
		if err = msgpack.Decode(b, &x); err != nil {
			return nil, err
		}
		return uuid.FromBytes(x)

	case domain.TypeObjectRef:
		var x string
		if err = msgpack.Decode(b, &x); err != nil {
			return nil, err
		}
		if x == "" {
			return domain.ObjectID{}, nil
		}
		return domain.ParseObjectID(x)

	case domain.TypeObjectRefList:
		var x []string
		if err = msgpack.Decode(b, &x); err != nil {
			return nil, err
		}
		if x == nil {
			return []domain.ObjectID(nil), nil
		}
		idv := make([]domain.ObjectID, len(x))
		for i, s := range x {
			idv[i], err = domain.ParseObjectID(s)
			if err != nil {
				return nil, err
			}
		}
		return idv, nil
	}
	return nil, fmt.Errorf("cannot decode %s", t)
}
