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


// Package domain provides transactional state management for persisted
// domain objects.
//
// A domain object is identified by ObjectID and is represented in memory by
// *Object. Objects are used inside transactions: a Transaction owns an
// identity map, which keeps at most one *Object per ObjectID, and a working
// set of Records, which hold objects' property values together with what was
// changed since the objects were loaded or last committed.
//
// Transactions form a tree. A root transaction loads from and persists to a
// Storage. A subtransaction loads from and persists to its parent, and while
// a subtransaction exists its parent is read-only:
//
//	txn := db.NewRootTransaction()
//	obj, err := txn.NewObject(ctx, "Order")
//	err = txn.SetValue(ctx, obj, "Number", int32(1))
//
//	sub, err := txn.CreateSubTransaction(ctx)
//	err = sub.SetValue(ctx, obj, "Number", int32(2))
//	err = sub.Commit(ctx)  // changes go to txn
//	err = sub.Discard(ctx) // txn becomes writable again
//	err = txn.Commit(ctx)  // changes go to storage
//
// Every operation that reads or changes state passes through the
// transaction's notification pipeline: an ordered list of Listeners, which
// are told before and after the operation takes effect and may veto it by
// returning an error from the "before" notification.
//
// Commit and Rollback notify about every object that is dirty at the time of
// completion exactly once, even if notified code changes or creates other
// objects while being notified.
//
// Objects may be bound to one transaction, or float. A floating object
// resolves its transaction from ambient scope established with package
// transaction.
package domain

import (
	"lab.nexedi.com/kirr/go123/xfmt"
)

// Serial is the optimistic concurrency token of a persisted object.
//
// Storage assigns new serial to an object every time the object is
// persisted. Persisting changes to an object whose serial does not match
// serial of the object in storage fails with *ConcurrencyError.
type Serial uint64

// InvalidSerial is serial of objects that were never persisted.
const InvalidSerial Serial = 0

// String converts serial to string.
//
// Default serial string representation is 16-character hex string, e.g.:
//
//	0285cbac258bf266
//
// See also: ParseSerial.
func (s Serial) String() string {
	return string(s.XFmtString(nil))
}

func (s Serial) XFmtString(b []byte) []byte {
	return xfmt.AppendHex016(b, uint64(s))
}

// ParseSerial parses serial from string.
//
// See also: Serial.String .
func ParseSerial(s string) (Serial, error) {
	x, err := parseHex64("serial", s)
	return Serial(x), err
}
