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

// IdentityMap maps object ids to the objects enlisted in one transaction.
//
// For every id there is at most one enlisted object. Entries are never
// removed; an entry can only be marked as discarded.
type IdentityMap struct {
	txn *Transaction

	objtab    map[ObjectID]*Object // id -> obj
	objv      []*Object            // in enlistment order
	discarded map[ObjectID]bool
}

func newIdentityMap(txn *Transaction) *IdentityMap {
	return &IdentityMap{
		txn:       txn,
		objtab:    make(map[ObjectID]*Object),
		discarded: make(map[ObjectID]bool),
	}
}

// Enlist associates obj with the transaction.
//
// It returns true if obj was newly added. If another object is already
// enlisted for obj's id, the map is left unchanged and false is returned.
// Objects bound to another transaction cannot be enlisted.
func (m *IdentityMap) Enlist(obj *Object) (bool, error) {
	if obj.binding != nil && obj.binding != m.txn {
		return false, &WrongTransactionError{obj.id, AlreadyBound}
	}
	if _, already := m.objtab[obj.id]; already {
		return false, nil
	}
	m.objtab[obj.id] = obj
	m.objv = append(m.objv, obj)
	return true, nil
}

// IsEnlisted returns whether obj itself is enlisted.
func (m *IdentityMap) IsEnlisted(obj *Object) bool {
	return m.objtab[obj.id] == obj
}

// Lookup returns object enlisted for id, or nil.
func (m *IdentityMap) Lookup(id ObjectID) *Object {
	return m.objtab[id]
}

// Objects returns all enlisted objects in enlistment order.
func (m *IdentityMap) Objects() []*Object {
	return append([]*Object(nil), m.objv...)
}

// Len returns number of enlisted objects.
func (m *IdentityMap) Len() int {
	return len(m.objv)
}

// IsDiscarded returns whether object with id was discarded in the transaction.
func (m *IdentityMap) IsDiscarded(id ObjectID) bool {
	return m.discarded[id]
}

func (m *IdentityMap) markDiscarded(id ObjectID) {
	m.discarded[id] = true
}
