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
	"context"
	"fmt"
	"sync"

	"github.com/re-motion/Trunk-SVN2Git-sub013/transaction"
)

// ObjectEvent is an event in object's lifecycle that per-object handlers
// can be registered for.
type ObjectEvent int

const (
	EventCommitting  ObjectEvent = iota // object is about to be committed
	EventCommitted                      // object was committed
	EventRollingBack                    // object is about to be rolled back
	EventRolledBack                     // object was rolled back
	nEvents
)

func (e ObjectEvent) String() string {
	switch e {
	case EventCommitting:
		return "committing"
	case EventCommitted:
		return "committed"
	case EventRollingBack:
		return "rolling-back"
	case EventRolledBack:
		return "rolled-back"
	}
	return fmt.Sprintf("ObjectEvent(%d)", int(e))
}

// ObjectHandler is called on object events.
//
// Error returned by a handler for EventCommitting or EventRollingBack
// aborts the commit or rollback. Errors returned for EventCommitted and
// EventRolledBack are logged and otherwise ignored.
type ObjectHandler func(ctx context.Context, txn *Transaction, obj *Object) error

// Object is the in-memory representative of a persisted domain object.
//
// Object does not hold object's state itself: state lives in records of
// transactions the object is enlisted in. An object is either bound to one
// transaction, or floats - then every access uses the current transaction
// established with package transaction.
type Object struct {
	id      ObjectID
	binding *Transaction // nil for floating objects

	mu       sync.Mutex
	handlerv [nEvents][]ObjectHandler
}

// NewObjectRef creates new floating object for id.
//
// The object has to be enlisted into a transaction before it can be used
// there.
func NewObjectRef(id ObjectID) *Object {
	return &Object{id: id}
}

// ID returns id of the object.
func (obj *Object) ID() ObjectID { return obj.id }

// ClassID returns id of object's class.
func (obj *Object) ClassID() string { return obj.id.ClassID }

// Binding returns transaction the object is bound to, or nil for floating objects.
func (obj *Object) Binding() *Transaction { return obj.binding }

// IsBound returns whether the object is bound to a transaction.
func (obj *Object) IsBound() bool { return obj.binding != nil }

// Transaction returns the transaction object accesses go to.
//
// For bound objects it is the binding transaction. For floating objects it is
// the current transaction of ctx.
func (obj *Object) Transaction(ctx context.Context) (*Transaction, error) {
	if obj.binding != nil {
		return obj.binding, nil
	}
	t, err := transaction.Current(ctx)
	if err != nil {
		return nil, err
	}
	txn, ok := t.(*Transaction)
	if !ok {
		return nil, fmt.Errorf("%s: current transaction is %T, not a domain transaction", obj.id, t)
	}
	return txn, nil
}

// On registers handler to be called on event.
func (obj *Object) On(event ObjectEvent, h ObjectHandler) {
	obj.mu.Lock()
	defer obj.mu.Unlock()
	obj.handlerv[event] = append(obj.handlerv[event], h)
}

func (obj *Object) handlers(event ObjectEvent) []ObjectHandler {
	obj.mu.Lock()
	defer obj.mu.Unlock()
	return append([]ObjectHandler(nil), obj.handlerv[event]...)
}

// Get returns value of property prop.
func (obj *Object) Get(ctx context.Context, prop string) (interface{}, error) {
	txn, err := obj.Transaction(ctx)
	if err != nil {
		return nil, err
	}
	return txn.GetValue(ctx, obj, prop)
}

// Set sets value of property prop.
func (obj *Object) Set(ctx context.Context, prop string, v interface{}) error {
	txn, err := obj.Transaction(ctx)
	if err != nil {
		return err
	}
	return txn.SetValue(ctx, obj, prop, v)
}

// GetRelated returns object referred to by relation property prop.
func (obj *Object) GetRelated(ctx context.Context, prop string) (*Object, error) {
	txn, err := obj.Transaction(ctx)
	if err != nil {
		return nil, err
	}
	return txn.GetRelated(ctx, obj, prop)
}

// SetRelated makes relation property prop refer to target, which can be nil.
func (obj *Object) SetRelated(ctx context.Context, prop string, target *Object) error {
	txn, err := obj.Transaction(ctx)
	if err != nil {
		return err
	}
	return txn.SetRelated(ctx, obj, prop, target)
}

// RelatedObjects returns collection of objects of relation property prop.
func (obj *Object) RelatedObjects(ctx context.Context, prop string) (*Collection, error) {
	txn, err := obj.Transaction(ctx)
	if err != nil {
		return nil, err
	}
	return txn.RelatedObjects(ctx, obj, prop)
}

// State returns state of the object.
func (obj *Object) State(ctx context.Context) (State, error) {
	txn, err := obj.Transaction(ctx)
	if err != nil {
		return StateInvalid, err
	}
	return txn.ObjectState(ctx, obj)
}

// MarkChanged marks the object as changed.
func (obj *Object) MarkChanged(ctx context.Context) error {
	txn, err := obj.Transaction(ctx)
	if err != nil {
		return err
	}
	return txn.MarkChanged(ctx, obj)
}

// Delete deletes the object.
func (obj *Object) Delete(ctx context.Context) error {
	txn, err := obj.Transaction(ctx)
	if err != nil {
		return err
	}
	return txn.DeleteObject(ctx, obj)
}

// Serial returns serial of the object.
func (obj *Object) Serial(ctx context.Context) (Serial, error) {
	txn, err := obj.Transaction(ctx)
	if err != nil {
		return InvalidSerial, err
	}
	return txn.ObjectSerial(ctx, obj)
}

func (obj *Object) String() string {
	return obj.id.String()
}
