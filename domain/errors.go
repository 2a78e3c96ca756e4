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
// errors returned by domain operations

import (
	"fmt"
	"strings"
)

// OpError is the error returned by storage operations.
type OpError struct {
	URL  string      // URL of the storage
	Op   string      // operation that failed
	Args interface{} // operation arguments, if any
	Err  error       // actual error that occurred during the operation
}

func (e *OpError) Error() string {
	s := e.URL + ": " + e.Op
	if e.Args != nil {
		s += fmt.Sprintf(" %s", e.Args)
	}
	s += ": " + e.Err.Error()
	return s
}

func (e *OpError) Cause() error  { return e.Err }
func (e *OpError) Unwrap() error { return e.Err }

// NoObjectError is the error which tells that there is no such object in storage.
type NoObjectError struct {
	ID ObjectID
}

func (e *NoObjectError) Error() string {
	return fmt.Sprintf("%s: no such object", e.ID)
}

// ObjectDiscardedError is the error which tells that an object was
// discarded in a transaction and cannot be used there anymore.
//
// Objects are discarded when new objects are deleted, when deletion of
// objects is committed, and when creation of new objects is rolled back.
type ObjectDiscardedError struct {
	ID ObjectID
}

func (e *ObjectDiscardedError) Error() string {
	return fmt.Sprintf("%s: object is discarded", e.ID)
}

// ObjectDeletedError is the error which tells that an operation cannot be
// performed on an object because the object is deleted.
type ObjectDeletedError struct {
	ID ObjectID
}

func (e *ObjectDeletedError) Error() string {
	return fmt.Sprintf("%s: object is deleted", e.ID)
}

// ObjectStateError is the error which tells that an operation is not legal
// for object's current state.
type ObjectStateError struct {
	ID    ObjectID
	State State
	Op    string
}

func (e *ObjectStateError) Error() string {
	return fmt.Sprintf("%s: %s: not possible in state %s", e.ID, e.Op, e.State)
}

// WrongTransactionReason tells why an object cannot be used in a transaction.
type WrongTransactionReason int

const (
	NotEnlisted  WrongTransactionReason = iota // object is not enlisted and cannot be auto-enlisted
	AlreadyBound                               // object is bound to another transaction
	IDTaken                                    // another object is enlisted for the same id
)

// WrongTransactionError is the error which tells that an object is used in
// a transaction it does not belong to.
type WrongTransactionError struct {
	ID     ObjectID
	Reason WrongTransactionReason
}

func (e *WrongTransactionError) Error() string {
	switch e.Reason {
	case AlreadyBound:
		return fmt.Sprintf("%s: object is already associated with another transaction", e.ID)
	case IDTaken:
		return fmt.Sprintf("%s: another object with the same id is enlisted in the transaction", e.ID)
	}
	return fmt.Sprintf("%s: object is not enlisted in the transaction", e.ID)
}

// ReadOnlyError is the error which tells that a transaction cannot be
// changed because it has an active subtransaction.
type ReadOnlyError struct {
	Op string
}

func (e *ReadOnlyError) Error() string {
	return fmt.Sprintf("%s: transaction is read-only while it has an active subtransaction", e.Op)
}

// TransactionDiscardedError is the error which tells that a transaction
// was discarded and cannot be used anymore.
type TransactionDiscardedError struct {
	Op string
}

func (e *TransactionDiscardedError) Error() string {
	return fmt.Sprintf("%s: transaction is discarded", e.Op)
}

// PropertyError is the error which tells that a property cannot be accessed
// the way it was requested.
type PropertyError struct {
	ClassID  string
	Property string
	Err      error
}

func (e *PropertyError) Error() string {
	return fmt.Sprintf("%s.%s: %s", e.ClassID, e.Property, e.Err)
}

func (e *PropertyError) Cause() error  { return e.Err }
func (e *PropertyError) Unwrap() error { return e.Err }

// ConcurrencyError is the error which tells that persisting was rejected
// because objects were changed in storage since they were loaded.
type ConcurrencyError struct {
	IDs []ObjectID
}

func (e *ConcurrencyError) Error() string {
	idv := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		idv[i] = id.String()
	}
	return fmt.Sprintf("concurrency violation: %s", strings.Join(idv, ", "))
}

// CommitError is the error returned by Transaction.Commit when changes could
// not be persisted.
//
// The transaction is left in the state it had before Commit was called.
type CommitError struct {
	Err error
}

func (e *CommitError) Error() string {
	return "commit: " + e.Err.Error()
}

func (e *CommitError) Cause() error  { return e.Err }
func (e *CommitError) Unwrap() error { return e.Err }
