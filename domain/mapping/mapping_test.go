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

package mapping

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/re-motion/Trunk-SVN2Git-sub013/domain"
)

const shop = `
classes:
  - id: Customer
    idKind: String
    properties:
      - {name: Name, type: string}
      - {name: Orders, type: refs, related: Order}
  - id: Order
    idKind: Int32
    properties:
      - {name: Number, type: int32}
      - {name: Note, type: string, nullable: true}
      - {name: Customer, type: ref, related: Customer}
      - {name: Scratch, type: string, transactionScoped: true}
  - id: Any
    properties:
      - {name: Stamp, type: time}
`

func TestLoad(t *testing.T) {
	assert := require.New(t)

	m, err := Load(strings.NewReader(shop))
	assert.NoError(err)

	var classes []string
	for _, c := range m.Classes() {
		classes = append(classes, c.ID)
	}
	assert.Equal([]string{"Customer", "Order", "Any"}, classes)

	order, err := m.Class("Order")
	assert.NoError(err)
	assert.Equal(domain.KindInt32, order.IDKind)
	assert.Len(order.Properties, 4)

	note := order.Property("Note")
	assert.Equal(domain.TypeString, note.Type)
	assert.True(note.Nullable)
	assert.True(note.Persistent())
	assert.Nil(note.DefaultValue())

	scratch := order.Property("Scratch")
	assert.False(scratch.Persistent())

	customer := order.Property("Customer")
	assert.Equal(domain.RelationOne, customer.Kind())
	assert.Equal("Customer", customer.RelatedClass)

	c, err := m.Class("Customer")
	assert.NoError(err)
	assert.Equal(domain.RelationMany, c.Property("Orders").Kind())

	// ids are validated against idKind
	id, err := domain.NewObjectID("Order", int32(1))
	assert.NoError(err)
	assert.NoError(order.ValidateID(id))
	id, err = domain.NewObjectID("Order", "1")
	assert.NoError(err)
	assert.Error(order.ValidateID(id))

	anyc, err := m.Class("Any")
	assert.NoError(err)
	assert.Equal(domain.KindInvalid, anyc.IDKind)
	id, err = domain.NewObjectID("Any", "1")
	assert.NoError(err)
	assert.NoError(anyc.ValidateID(id))
}

func TestLoadErrors(t *testing.T) {
	var testv = []struct {
		doc    string
		errSub string
	}{
		{``, "empty document"},
		{`classes: [{id: X, idKind: Long}]`, `value kind "Long" invalid`},
		{`classes: [{id: X, properties: [{name: A, type: decimal}]}]`, `property type "decimal" invalid`},
		{`classes: [{id: X, properties: [{name: A, type: int32}, {name: A, type: bool}]}]`, `duplicate property "A"`},
		{`classes: [{id: X}, {id: X}]`, "already registered"},
		{`classes: [{id: ""}]`, "empty id"},
		{`classes: [{id: X, properties: [{name: R, type: ref, related: Y}]}]`, `related class "Y" not defined`},
		{`classes: [{id: X, extra: 1}]`, "field extra not found"},
		{`classes: {id: X}`, "cannot unmarshal"},
	}

	for _, tt := range testv {
		_, err := Load(strings.NewReader(tt.doc))
		if err == nil {
			t.Errorf("%q: no error", tt.doc)
			continue
		}
		if !strings.Contains(err.Error(), tt.errSub) {
			t.Errorf("%q: unexpected error:\nhave: %s\nwant: *%s*", tt.doc, err, tt.errSub)
		}
	}
}

func TestSaveLoad(t *testing.T) {
	assert := require.New(t)

	m, err := Load(strings.NewReader(shop))
	assert.NoError(err)

	buf := &bytes.Buffer{}
	assert.NoError(Save(buf, m))

	path := filepath.Join(t.TempDir(), "shop.yaml")
	assert.NoError(os.WriteFile(path, buf.Bytes(), 0644))

	m2, err := LoadFile(path)
	assert.NoError(err)
	assert.Equal(m.Classes(), m2.Classes())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(err)
}
