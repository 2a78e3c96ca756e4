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

package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// enlisting a second object for the same id keeps the first one.
func TestIdentityMapUniqueness(t *testing.T) {
	assert := require.New(t)
	txn := &Transaction{}
	m := newIdentityMap(txn)

	var idv = []ObjectID{
		{"Order", int32(1)},
		{"Order", int32(2)},
		{"Customer", "a|b"},
	}

	for _, id := range idv {
		first := NewObjectRef(id)
		second := NewObjectRef(id)

		added, err := m.Enlist(first)
		assert.NoError(err)
		assert.True(added)

		added, err = m.Enlist(second)
		assert.NoError(err)
		assert.False(added)

		added, err = m.Enlist(first)
		assert.NoError(err)
		assert.False(added)

		assert.True(first == m.Lookup(id))
		assert.True(m.IsEnlisted(first))
		assert.False(m.IsEnlisted(second))
	}

	assert.Equal(len(idv), m.Len())
	for i, obj := range m.Objects() {
		assert.Equal(idv[i], obj.ID())
	}
	assert.Nil(m.Lookup(ObjectID{"Order", int32(3)}))
}

func TestIdentityMapBinding(t *testing.T) {
	assert := require.New(t)
	txn := &Transaction{}
	other := &Transaction{}
	m := newIdentityMap(txn)

	// bound to this transaction
	obj := &Object{id: ObjectID{"Order", int32(1)}, binding: txn}
	added, err := m.Enlist(obj)
	assert.NoError(err)
	assert.True(added)

	// bound elsewhere
	obj = &Object{id: ObjectID{"Order", int32(2)}, binding: other}
	added, err = m.Enlist(obj)
	assert.False(added)
	var eWrongTxn *WrongTransactionError
	assert.True(errors.As(err, &eWrongTxn))
	assert.Equal(AlreadyBound, eWrongTxn.Reason)
	assert.Nil(m.Lookup(obj.ID()))
}

func TestIdentityMapDiscarded(t *testing.T) {
	assert := require.New(t)
	m := newIdentityMap(&Transaction{})
	obj := NewObjectRef(ObjectID{"Order", int32(1)})
	_, err := m.Enlist(obj)
	assert.NoError(err)

	assert.False(m.IsDiscarded(obj.ID()))
	m.markDiscarded(obj.ID())
	assert.True(m.IsDiscarded(obj.ID()))

	// the entry stays
	assert.True(obj == m.Lookup(obj.ID()))
}
