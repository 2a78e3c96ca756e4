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

import (
	"bytes"
	"testing"

	"github.com/shamaton/msgpack"
	"github.com/stretchr/testify/require"

	"github.com/re-motion/Trunk-SVN2Git-sub013/domain"
	"github.com/re-motion/Trunk-SVN2Git-sub013/internal/xtesting"
)

func TestCodecOmits(t *testing.T) {
	assert := require.New(t)
	class, err := xtesting.Mapping().Class("Item")
	assert.NoError(err)

	data, err := encodeValues(class, map[string]interface{}{
		"Name":    "x",
		"Note":    nil,          // nil values are not stored
		"Scratch": "transient",  // transaction-scoped properties are not stored
		"Other":   "not a prop", // unknown properties are not stored
	})
	assert.NoError(err)

	var m map[string][]byte
	assert.NoError(msgpack.Decode(data, &m))
	assert.Equal(1, len(m))
	_, ok := m["Name"]
	assert.True(ok)

	values, err := decodeValues(class, data)
	assert.NoError(err)
	assert.Equal(map[string]interface{}{"Name": "x"}, values)
}

// data written for older class definitions can still be read.
func TestCodecSchemaChange(t *testing.T) {
	assert := require.New(t)
	old, err := domain.NewClassDefinition("Item", domain.KindInt32,
		&domain.PropertyDefinition{Name: "Name", Type: domain.TypeString},
		&domain.PropertyDefinition{Name: "Gone", Type: domain.TypeInt64},
	)
	assert.NoError(err)
	data, err := encodeValues(old, map[string]interface{}{"Name": "x", "Gone": int64(1)})
	assert.NoError(err)

	class, err := xtesting.Mapping().Class("Item")
	assert.NoError(err)
	values, err := decodeValues(class, data)
	assert.NoError(err)
	assert.Equal(map[string]interface{}{"Name": "x"}, values)
}

func TestCodecErrors(t *testing.T) {
	assert := require.New(t)
	class, err := xtesting.Mapping().Class("Item")
	assert.NoError(err)

	// wrong type
	_, err = encodeValues(class, map[string]interface{}{"Count": "three"})
	assert.Error(err)

	// garbage
	_, err = decodeValues(class, []byte("\xc1"))
	assert.Error(err)

	// bad object id
	b, err := msgpack.Encode(map[string][]byte{"Owner": mustEncode(t, "Key|a")})
	assert.NoError(err)
	_, err = decodeValues(class, b)
	assert.Error(err)
}

func TestPackData(t *testing.T) {
	var testv = []struct {
		data   []byte
		format byte
	}{
		{[]byte{}, dataRaw},
		{[]byte("small"), dataRaw},
		{bytes.Repeat([]byte("compressible "), 100), dataZlib},
		{pseudoRandom(compressMin * 2), dataRaw}, // does not compress
	}

	for _, tt := range testv {
		b := packData(tt.data)
		if b[0] != tt.format {
			t.Errorf("pack %.20q...: format:\nhave: %q\nwant: %q", tt.data, b[0], tt.format)
		}
		data, err := unpackData(b)
		if err != nil {
			t.Errorf("unpack %.20q...: %s", tt.data, err)
			continue
		}
		if !bytes.Equal(data, tt.data) {
			t.Errorf("unpack %.20q...: mismatch", tt.data)
		}
	}

	for _, b := range []string{"", "x123", "zgarbage"} {
		_, err := unpackData([]byte(b))
		if err == nil {
			t.Errorf("unpack %q: no error", b)
		}
	}
}

// pseudoRandom returns n bytes that zlib cannot compress.
func pseudoRandom(n int) []byte {
	b := make([]byte, n)
	x := uint32(1)
	for i := range b {
		x ^= x << 13
		x ^= x >> 17
		x ^= x << 5
		b[i] = byte(x)
	}
	return b
}

func mustEncode(t *testing.T, v interface{}) []byte {
	t.Helper()
	b, err := msgpack.Encode(v)
	if err != nil {
		t.Fatal(err)
	}
	return b
}
