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
	"errors"
	"fmt"

	"github.com/re-motion/Trunk-SVN2Git-sub013/transaction"
)

// Kind tells which variant a transaction is.
type Kind int

const (
	KindRoot    Kind = iota // loads from and persists to storage
	KindSub                 // loads from and persists to parent transaction
	KindBinding             // root transaction binding its objects
)

func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindSub:
		return "sub"
	case KindBinding:
		return "binding"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Transaction is a unit of work over domain objects.
//
// Transaction keeps identity map of objects used in it and working set of
// their records. Changes made in a transaction are isolated from other
// transactions until committed.
//
// While a transaction has a subtransaction it is read-only: operations
// that would change it fail with *ReadOnlyError. Once discarded, a
// transaction cannot be used anymore: all operations fail with
// *TransactionDiscardedError.
//
// Transaction is not safe to use from multiple goroutines simultaneously.
type Transaction struct {
	db     *DB
	kind   Kind
	parent *Transaction // nil for root transactions
	sub    *Transaction // active subtransaction, if any
	seq    int64

	readOnly  bool // has active subtransaction
	discarded bool

	// capabilities: where records are loaded from and persisted to
	loader    loader
	persister persister

	objects   *IdentityMap
	recordtab map[ObjectID]*Record // working set
	recordv   []*Record            // working set in order records were added

	pipeline    *Pipeline
	extensions  *ExtensionCollection // shared with whole hierarchy
	appData     *ApplicationData     // shared with whole hierarchy
	collections map[RelationEndPointID]*Collection
}

var _ transaction.Transaction = (*Transaction)(nil)

func (txn *Transaction) String() string {
	return fmt.Sprintf("%s#%d", txn.kind, txn.seq)
}

// DB returns database the transaction works with.
func (txn *Transaction) DB() *DB { return txn.db }

// Kind returns variant of the transaction.
func (txn *Transaction) Kind() Kind { return txn.kind }

// Parent returns parent transaction, or nil for root transactions.
func (txn *Transaction) Parent() *Transaction { return txn.parent }

// SubTransaction returns active subtransaction, or nil.
func (txn *Transaction) SubTransaction() *Transaction { return txn.sub }

// Root returns root transaction of the hierarchy.
func (txn *Transaction) Root() *Transaction {
	for txn.parent != nil {
		txn = txn.parent
	}
	return txn
}

// IsReadOnly returns whether the transaction has an active subtransaction.
func (txn *Transaction) IsReadOnly() bool { return txn.readOnly }

// IsDiscarded returns whether the transaction was discarded.
func (txn *Transaction) IsDiscarded() bool { return txn.discarded }

// Objects returns identity map of the transaction.
func (txn *Transaction) Objects() *IdentityMap { return txn.objects }

// Pipeline returns notification pipeline of the transaction.
func (txn *Transaction) Pipeline() *Pipeline { return txn.pipeline }

// Extensions returns extensions of the transaction hierarchy.
func (txn *Transaction) Extensions() *ExtensionCollection { return txn.extensions }

// ApplicationData returns application data of the transaction hierarchy.
func (txn *Transaction) ApplicationData() *ApplicationData { return txn.appData }

// Record returns record of object with id from transaction's working set.
//
// nil is returned if the object was not loaded or created in the transaction.
func (txn *Transaction) Record(id ObjectID) *Record { return txn.recordtab[id] }

// Enter makes the transaction current for code using ctx.
//
// See package transaction for details.
func (txn *Transaction) Enter(ctx context.Context, policy transaction.AutoRollbackPolicy) (*transaction.Scope, context.Context, error) {
	return transaction.Enter(ctx, txn, policy)
}

// HasChanged returns whether the transaction has changes to commit.
func (txn *Transaction) HasChanged() bool {
	for _, rec := range txn.recordv {
		if rec.HasChanged() {
			return true
		}
	}
	return false
}

func (txn *Transaction) checkValid(op string) error {
	if txn.discarded {
		return &TransactionDiscardedError{Op: op}
	}
	return nil
}

// unlocked runs f with read-only state of the transaction temporarily lifted.
func (txn *Transaction) unlocked(f func() error) error {
	readOnly := txn.readOnly
	txn.readOnly = false
	defer func() {
		txn.readOnly = readOnly
	}()
	return f()
}

// ---- hierarchy ----

// CreateSubTransaction creates subtransaction of the transaction.
//
// The transaction becomes read-only until the subtransaction is discarded.
func (txn *Transaction) CreateSubTransaction(ctx context.Context) (*Transaction, error) {
	if err := txn.checkValid("create subtransaction"); err != nil {
		return nil, err
	}
	if txn.kind == KindBinding {
		return nil, fmt.Errorf("%s: binding transactions cannot have subtransactions", txn)
	}
	if err := txn.pipeline.SubTransactionCreating(ctx, txn); err != nil {
		return nil, err
	}

	txn.readOnly = true
	sub := txn.db.newTransaction(KindSub, txn)
	txn.sub = sub

	txn.pipeline.SubTransactionCreated(ctx, txn, sub)
	return sub, nil
}

// Discard makes the transaction unusable.
//
// Active subtransaction is discarded first. The parent of a discarded
// subtransaction becomes writable again. Uncommitted changes are lost.
// Discarding a discarded transaction does nothing.
func (txn *Transaction) Discard(ctx context.Context) error {
	if txn.discarded {
		return nil
	}
	if txn.sub != nil {
		if err := txn.sub.Discard(ctx); err != nil {
			return err
		}
	}

	txn.discarded = true
	txn.pipeline.TransactionDiscarded(ctx, txn)

	if p := txn.parent; p != nil {
		p.sub = nil
		p.readOnly = false
	}
	return nil
}

// ---- enlistment ----

// EnlistObject enlists obj into the transaction without loading it.
//
// It returns whether obj was newly added. If another object is enlisted for
// the same id, nothing is changed and false is returned.
func (txn *Transaction) EnlistObject(obj *Object) (bool, error) {
	if err := txn.checkValid("enlist"); err != nil {
		return false, err
	}
	return txn.objects.Enlist(obj)
}

// EnlistAllFrom enlists all objects enlisted in src.
//
// With copyCollectionHandlers, handlers of relation collections that were
// used in src are copied to the same collections in txn. Objects that are
// not found, deleted or discarded in either transaction are skipped.
func (txn *Transaction) EnlistAllFrom(ctx context.Context, src *Transaction, copyCollectionHandlers bool) error {
	if err := txn.checkValid("enlist"); err != nil {
		return err
	}
	if err := src.checkValid("enlist from"); err != nil {
		return err
	}

	objv := src.objects.Objects()
	for _, obj := range objv {
		if _, err := txn.objects.Enlist(obj); err != nil {
			return err
		}
	}
	if !copyCollectionHandlers {
		return nil
	}

	for _, obj := range objv {
		if src.objects.IsDiscarded(obj.id) || !txn.objects.IsEnlisted(obj) {
			continue
		}
		class, err := txn.db.mapping.Class(obj.id.ClassID)
		if err != nil {
			return err
		}
		for _, prop := range class.RelationProperties() {
			if prop.Kind() != RelationMany {
				continue
			}
			sc := src.collections[RelationEndPointID{obj.id, prop.Name}]
			if sc == nil || len(sc.handlers()) == 0 {
				continue
			}
			dc, err := txn.RelatedObjects(ctx, obj, prop.Name)
			if err != nil {
				if isGone(err) {
					continue
				}
				return err
			}
			dc.handlerv = append(dc.handlerv, sc.handlers()...)
		}
	}
	return nil
}

// isGone returns whether err tells an object does not exist or cannot be used anymore.
func isGone(err error) bool {
	var eNoObject *NoObjectError
	var eDiscarded *ObjectDiscardedError
	var eDeleted *ObjectDeletedError
	return errors.As(err, &eNoObject) || errors.As(err, &eDiscarded) || errors.As(err, &eDeleted)
}

// useObject makes sure obj can be used in the transaction.
//
// Objects enlisted in an ancestor transaction are enlisted automatically.
func (txn *Transaction) useObject(obj *Object) error {
	if txn.objects.IsEnlisted(obj) {
		return nil
	}
	if obj.binding != nil && obj.binding != txn {
		return &WrongTransactionError{obj.id, AlreadyBound}
	}
	if txn.objects.Lookup(obj.id) != nil {
		return &WrongTransactionError{obj.id, IDTaken}
	}
	for p := txn.parent; p != nil; p = p.parent {
		if p.objects.IsEnlisted(obj) {
			_, err := txn.objects.Enlist(obj)
			return err
		}
	}
	return &WrongTransactionError{obj.id, NotEnlisted}
}

// recordFor returns record of obj loading it if needed.
func (txn *Transaction) recordFor(ctx context.Context, obj *Object) (*Record, error) {
	if err := txn.useObject(obj); err != nil {
		return nil, err
	}
	rec := txn.recordtab[obj.id]
	if rec == nil {
		if _, err := txn.loadObjects(ctx, []ObjectID{obj.id}, true); err != nil {
			return nil, err
		}
		rec = txn.recordtab[obj.id]
	}
	if rec.IsDiscarded() {
		return nil, &ObjectDiscardedError{obj.id}
	}
	return rec, nil
}

// referenceFor returns object to represent id in the transaction.
//
// The object of an ancestor is reused, so that one object represents id in
// the whole hierarchy.
func (txn *Transaction) referenceFor(id ObjectID) *Object {
	for p := txn.parent; p != nil; p = p.parent {
		if obj := p.objects.Lookup(id); obj != nil {
			return obj
		}
	}
	obj := NewObjectRef(id)
	if txn.kind == KindBinding {
		obj.binding = txn
	}
	return obj
}

// register adds rec to the working set and enlists its object.
func (txn *Transaction) register(rec *Record) (*Object, error) {
	obj := txn.objects.Lookup(rec.id)
	if obj == nil {
		obj = txn.referenceFor(rec.id)
		if _, err := txn.objects.Enlist(obj); err != nil {
			return nil, err
		}
	}
	rec.txn = txn
	txn.recordtab[rec.id] = rec
	txn.recordv = append(txn.recordv, rec)
	return obj, nil
}

// ---- create / load / delete ----

// NewObject creates new object of class.
//
// Id for the object is allocated by storage.
func (txn *Transaction) NewObject(ctx context.Context, classID string) (*Object, error) {
	if err := txn.checkValid("new object"); err != nil {
		return nil, err
	}
	class, err := txn.db.mapping.Class(classID)
	if err != nil {
		return nil, err
	}
	if err := txn.pipeline.NewObjectCreating(ctx, txn, class); err != nil {
		return nil, err
	}
	id, err := txn.db.stor.NewObjectID(ctx, class)
	if err != nil {
		return nil, err
	}
	return txn.createNewRecord(class, id)
}

// CreateNewRecord creates new object with given id.
func (txn *Transaction) CreateNewRecord(ctx context.Context, id ObjectID) (*Object, error) {
	if err := txn.checkValid("new object"); err != nil {
		return nil, err
	}
	class, err := txn.db.mapping.Class(id.ClassID)
	if err != nil {
		return nil, err
	}
	if err := txn.pipeline.NewObjectCreating(ctx, txn, class); err != nil {
		return nil, err
	}
	return txn.createNewRecord(class, id)
}

func (txn *Transaction) createNewRecord(class *ClassDefinition, id ObjectID) (*Object, error) {
	if _, already := txn.recordtab[id]; already {
		return nil, fmt.Errorf("%s: new %s: object already exists in the transaction", txn, id)
	}
	rec, err := NewRecord(class, id)
	if err != nil {
		return nil, err
	}
	return txn.register(rec)
}

// GetObject returns object with id loading it if needed.
//
// Deleted objects are returned only if includeDeleted; otherwise
// *ObjectDeletedError is returned for them.
func (txn *Transaction) GetObject(ctx context.Context, id ObjectID, includeDeleted bool) (*Object, error) {
	if err := txn.checkValid("get object"); err != nil {
		return nil, err
	}
	objv, err := txn.loadObjects(ctx, []ObjectID{id}, true)
	if err != nil {
		return nil, err
	}
	if !includeDeleted && txn.recordtab[id].lifecycle == LifecycleDeleted {
		return nil, &ObjectDeletedError{id}
	}
	return objv[0], nil
}

// GetObjects returns objects with ids in idv loading them if needed.
//
// Objects are loaded in one batch. If any of the objects does not exist
// *NoObjectError is returned.
func (txn *Transaction) GetObjects(ctx context.Context, idv ...ObjectID) ([]*Object, error) {
	if err := txn.checkValid("get objects"); err != nil {
		return nil, err
	}
	return txn.loadObjects(ctx, idv, true)
}

// TryGetObjects is like GetObjects but returns nil entries for objects that
// do not exist.
func (txn *Transaction) TryGetObjects(ctx context.Context, idv ...ObjectID) ([]*Object, error) {
	if err := txn.checkValid("get objects"); err != nil {
		return nil, err
	}
	return txn.loadObjects(ctx, idv, false)
}

// loadObjects returns objects for ids in idv loading those not yet in working set.
func (txn *Transaction) loadObjects(ctx context.Context, idv []ObjectID, throwOnNotFound bool) ([]*Object, error) {
	objv := make([]*Object, len(idv))
	var missing []ObjectID
	seen := make(map[ObjectID]bool)
	for i, id := range idv {
		if rec := txn.recordtab[id]; rec != nil {
			if rec.IsDiscarded() {
				return nil, &ObjectDiscardedError{id}
			}
			objv[i] = txn.objects.Lookup(id)
			continue
		}
		if !seen[id] {
			seen[id] = true
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return objv, nil
	}

	if err := txn.pipeline.ObjectsLoading(ctx, txn, append([]ObjectID(nil), missing...)); err != nil {
		return nil, err
	}
	recv, err := txn.loader.loadRecords(ctx, missing, throwOnNotFound)
	if err != nil {
		return nil, err
	}

	loaded := make(map[ObjectID]*Object, len(recv))
	loadedv := make([]*Object, 0, len(recv))
	for _, rec := range recv {
		if rec == nil {
			continue
		}
		obj, err := txn.register(rec)
		if err != nil {
			return nil, err
		}
		loaded[rec.id] = obj
		loadedv = append(loadedv, obj)
	}
	txn.pipeline.ObjectsLoaded(ctx, txn, loadedv)

	for i, id := range idv {
		if objv[i] == nil {
			objv[i] = loaded[id]
		}
	}
	return objv, nil
}

// DeleteObject deletes obj.
//
// New objects are discarded right away. Deleting an already deleted object
// does nothing.
func (txn *Transaction) DeleteObject(ctx context.Context, obj *Object) error {
	if err := txn.checkValid("delete"); err != nil {
		return err
	}
	rec, err := txn.recordFor(ctx, obj)
	if err != nil {
		return err
	}
	if rec.lifecycle == LifecycleDeleted {
		return nil
	}
	if err := txn.pipeline.ObjectDeleting(ctx, txn, obj); err != nil {
		return err
	}

	rec.Delete()
	if rec.IsDiscarded() {
		txn.objects.markDiscarded(rec.id)
	}

	txn.pipeline.ObjectDeleted(ctx, txn, obj)
	return nil
}

// ---- state ----

// ObjectState returns state of obj in the transaction.
//
// StateInvalid is returned for objects discarded in the transaction.
func (txn *Transaction) ObjectState(ctx context.Context, obj *Object) (State, error) {
	if err := txn.checkValid("state"); err != nil {
		return StateInvalid, err
	}
	rec, err := txn.recordFor(ctx, obj)
	if err != nil {
		var eDiscarded *ObjectDiscardedError
		if errors.As(err, &eDiscarded) {
			return StateInvalid, nil
		}
		return StateInvalid, err
	}
	return rec.State(), nil
}

// ObjectSerial returns serial of obj in the transaction.
func (txn *Transaction) ObjectSerial(ctx context.Context, obj *Object) (Serial, error) {
	if err := txn.checkValid("serial"); err != nil {
		return InvalidSerial, err
	}
	rec, err := txn.recordFor(ctx, obj)
	if err != nil {
		return InvalidSerial, err
	}
	return rec.serial, nil
}

// MarkChanged marks existing obj as changed without changing any of its properties.
func (txn *Transaction) MarkChanged(ctx context.Context, obj *Object) error {
	if err := txn.checkValid("mark changed"); err != nil {
		return err
	}
	if err := checkReadOnly(txn, "mark changed"); err != nil {
		return err
	}
	rec, err := txn.recordFor(ctx, obj)
	if err != nil {
		return err
	}
	return rec.MarkChanged()
}

// ---- properties ----

// property returns record of obj and state of its property prop.
func (txn *Transaction) property(ctx context.Context, obj *Object, prop string) (*Record, *PropertyState, error) {
	rec, err := txn.recordFor(ctx, obj)
	if err != nil {
		return nil, nil, err
	}
	p, err := rec.Property(prop)
	if err != nil {
		return nil, nil, err
	}
	return rec, p, nil
}

func kindError(rec *Record, p *PropertyState, want PropertyKind) error {
	return &PropertyError{rec.class.ID, p.def.Name, fmt.Errorf("is %s property, not %s", p.def.Kind(), want)}
}

// GetValue returns value of property prop of obj.
//
// For relation properties ids of related objects are returned.
func (txn *Transaction) GetValue(ctx context.Context, obj *Object, prop string) (interface{}, error) {
	if err := txn.checkValid("get " + prop); err != nil {
		return nil, err
	}
	rec, p, err := txn.property(ctx, obj, prop)
	if err != nil {
		return nil, err
	}
	return txn.readProperty(ctx, rec, p)
}

// SetValue sets value property prop of obj to v.
func (txn *Transaction) SetValue(ctx context.Context, obj *Object, prop string, v interface{}) error {
	if err := txn.checkValid("set " + prop); err != nil {
		return err
	}
	rec, p, err := txn.property(ctx, obj, prop)
	if err != nil {
		return err
	}
	return txn.writeProperty(ctx, rec, p, v)
}

func (txn *Transaction) readProperty(ctx context.Context, rec *Record, p *PropertyState) (interface{}, error) {
	if err := txn.checkValid("get " + p.def.Name); err != nil {
		return nil, err
	}
	if rec.IsDiscarded() {
		return nil, &ObjectDiscardedError{rec.id}
	}
	obj := rec.Object()

	if p.def.Kind() != ValueProperty {
		if err := txn.pipeline.RelationReading(ctx, txn, obj, p.def); err != nil {
			return nil, err
		}
		v := p.Value()
		txn.pipeline.RelationRead(ctx, txn, obj, p.def, relatedIDs(v))
		return v, nil
	}

	if err := txn.pipeline.PropertyValueReading(ctx, txn, obj, p.def); err != nil {
		return nil, err
	}
	v := p.Value()
	txn.pipeline.PropertyValueRead(ctx, txn, obj, p.def, v)
	return v, nil
}

func (txn *Transaction) writeProperty(ctx context.Context, rec *Record, p *PropertyState, v interface{}) error {
	if err := txn.checkValid("set " + p.def.Name); err != nil {
		return err
	}
	if err := rec.checkWritable(); err != nil {
		return err
	}
	if p.def.Kind() != ValueProperty {
		return kindError(rec, p, ValueProperty)
	}
	if err := p.def.Check(v); err != nil {
		return &PropertyError{rec.class.ID, p.def.Name, err}
	}

	obj := rec.Object()
	old := p.Value()
	if err := txn.pipeline.PropertyValueChanging(ctx, txn, obj, p.def, old, v); err != nil {
		return err
	}
	p.set(v)
	txn.pipeline.PropertyValueChanged(ctx, txn, obj, p.def, old, v)
	return nil
}

// relatedIDs returns ids of related objects held in relation property value v.
func relatedIDs(v interface{}) []ObjectID {
	switch x := v.(type) {
	case ObjectID:
		if x.IsZero() {
			return nil
		}
		return []ObjectID{x}
	case []ObjectID:
		return x
	}
	return nil
}

// ---- relations ----

// GetRelated returns object referred to by single-object relation property
// prop of obj, or nil.
func (txn *Transaction) GetRelated(ctx context.Context, obj *Object, prop string) (*Object, error) {
	if err := txn.checkValid("get " + prop); err != nil {
		return nil, err
	}
	rec, p, err := txn.property(ctx, obj, prop)
	if err != nil {
		return nil, err
	}
	if p.def.Kind() != RelationOne {
		return nil, kindError(rec, p, RelationOne)
	}

	if err := txn.pipeline.RelationReading(ctx, txn, obj, p.def); err != nil {
		return nil, err
	}
	id := p.current.(ObjectID)
	var target *Object
	if !id.IsZero() {
		target, err = txn.GetObject(ctx, id, true)
		if err != nil {
			return nil, err
		}
	}
	txn.pipeline.RelationRead(ctx, txn, obj, p.def, relatedIDs(id))
	return target, nil
}

// SetRelated makes single-object relation property prop of obj refer to
// target. nil target clears the relation.
func (txn *Transaction) SetRelated(ctx context.Context, obj *Object, prop string, target *Object) error {
	if err := txn.checkValid("set " + prop); err != nil {
		return err
	}
	rec, p, err := txn.property(ctx, obj, prop)
	if err != nil {
		return err
	}
	if err := rec.checkWritable(); err != nil {
		return err
	}
	if p.def.Kind() != RelationOne {
		return kindError(rec, p, RelationOne)
	}

	var newID ObjectID
	if target != nil {
		trec, err := txn.recordFor(ctx, target)
		if err != nil {
			return err
		}
		if trec.lifecycle == LifecycleDeleted {
			return &ObjectDeletedError{target.id}
		}
		newID = target.id
	}
	if err := p.def.Check(newID); err != nil {
		return &PropertyError{rec.class.ID, p.def.Name, err}
	}

	oldID := p.current.(ObjectID)
	if oldID == newID {
		p.touch()
		return nil
	}
	if err := txn.pipeline.RelationChanging(ctx, txn, obj, p.def, oldID, newID); err != nil {
		return err
	}
	p.set(newID)
	txn.pipeline.RelationChanged(ctx, txn, obj, p.def, oldID, newID)
	return nil
}

// RelatedObjects returns collection of relation property prop of obj.
//
// The same *Collection is returned for the same object and property for
// the lifetime of the transaction.
func (txn *Transaction) RelatedObjects(ctx context.Context, obj *Object, prop string) (*Collection, error) {
	if err := txn.checkValid("get " + prop); err != nil {
		return nil, err
	}
	rec, p, err := txn.property(ctx, obj, prop)
	if err != nil {
		return nil, err
	}
	if p.def.Kind() != RelationMany {
		return nil, kindError(rec, p, RelationMany)
	}

	if err := txn.pipeline.RelationReading(ctx, txn, obj, p.def); err != nil {
		return nil, err
	}
	key := RelationEndPointID{obj.id, prop}
	c := txn.collections[key]
	if c == nil {
		c = &Collection{txn: txn, obj: obj, prop: p.def}
		txn.collections[key] = c
	}
	txn.pipeline.RelationRead(ctx, txn, obj, p.def, relatedIDs(p.Value()))
	return c, nil
}

// changeCollection adds target to or removes it from collection c.
func (txn *Transaction) changeCollection(ctx context.Context, c *Collection, target *Object, add bool) error {
	if err := txn.checkValid("change " + c.prop.Name); err != nil {
		return err
	}
	if target == nil {
		return fmt.Errorf("%s.%s: nil object", c.obj.id, c.prop.Name)
	}
	rec, p, err := txn.property(ctx, c.obj, c.prop.Name)
	if err != nil {
		return err
	}
	if err := rec.checkWritable(); err != nil {
		return err
	}
	trec, err := txn.recordFor(ctx, target)
	if err != nil {
		return err
	}
	if add && trec.lifecycle == LifecycleDeleted {
		return &ObjectDeletedError{target.id}
	}

	idv := p.current.([]ObjectID)
	idx := -1
	for i, id := range idv {
		if id == target.id {
			idx = i
			break
		}
	}

	var removed, added ObjectID
	var newv []ObjectID
	switch {
	case add && idx < 0:
		added = target.id
		newv = append(append([]ObjectID{}, idv...), target.id)
	case !add && idx >= 0:
		removed = target.id
		newv = append(append([]ObjectID{}, idv[:idx]...), idv[idx+1:]...)
	default:
		// nothing to change
		p.touch()
		return nil
	}
	if err := p.def.Check(newv); err != nil {
		return &PropertyError{rec.class.ID, p.def.Name, err}
	}

	if err := txn.pipeline.RelationChanging(ctx, txn, c.obj, p.def, removed, added); err != nil {
		return err
	}
	p.set(newv)
	txn.pipeline.RelationChanged(ctx, txn, c.obj, p.def, removed, added)

	for _, h := range c.handlers() {
		h(ctx, c, removed, added)
	}
	return nil
}
