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
// notification pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/re-motion/Trunk-SVN2Git-sub013/internal/log"
)

// Listener is notified about operations performed in a transaction.
//
// Methods named "...ing" are called before the operation takes effect. If
// such a method returns an error, the operation is aborted and the error is
// returned to the caller. Methods named "...ed" are called after the
// operation took effect and cannot fail.
//
// Embed NopListener to implement only the notifications of interest.
type Listener interface {
	SubTransactionCreating(ctx context.Context, txn *Transaction) error
	SubTransactionCreated(ctx context.Context, txn, sub *Transaction)

	NewObjectCreating(ctx context.Context, txn *Transaction, class *ClassDefinition) error

	ObjectsLoading(ctx context.Context, txn *Transaction, idv []ObjectID) error
	ObjectsLoaded(ctx context.Context, txn *Transaction, objv []*Object)

	ObjectDeleting(ctx context.Context, txn *Transaction, obj *Object) error
	ObjectDeleted(ctx context.Context, txn *Transaction, obj *Object)

	PropertyValueReading(ctx context.Context, txn *Transaction, obj *Object, prop *PropertyDefinition) error
	PropertyValueRead(ctx context.Context, txn *Transaction, obj *Object, prop *PropertyDefinition, value interface{})
	PropertyValueChanging(ctx context.Context, txn *Transaction, obj *Object, prop *PropertyDefinition, oldValue, newValue interface{}) error
	PropertyValueChanged(ctx context.Context, txn *Transaction, obj *Object, prop *PropertyDefinition, oldValue, newValue interface{})

	// For single-object relations removed is the old and added is the new
	// related object. For collections one of removed and added is zero.
	RelationReading(ctx context.Context, txn *Transaction, obj *Object, prop *PropertyDefinition) error
	RelationRead(ctx context.Context, txn *Transaction, obj *Object, prop *PropertyDefinition, related []ObjectID)
	RelationChanging(ctx context.Context, txn *Transaction, obj *Object, prop *PropertyDefinition, removed, added ObjectID) error
	RelationChanged(ctx context.Context, txn *Transaction, obj *Object, prop *PropertyDefinition, removed, added ObjectID)

	ObjectCommitting(ctx context.Context, txn *Transaction, obj *Object) error
	ObjectCommitted(ctx context.Context, txn *Transaction, obj *Object)
	Committing(ctx context.Context, txn *Transaction, objv []*Object) error
	Committed(ctx context.Context, txn *Transaction, objv []*Object)

	ObjectRollingBack(ctx context.Context, txn *Transaction, obj *Object) error
	ObjectRolledBack(ctx context.Context, txn *Transaction, obj *Object)
	RollingBack(ctx context.Context, txn *Transaction, objv []*Object) error
	RolledBack(ctx context.Context, txn *Transaction, objv []*Object)

	TransactionDiscarded(ctx context.Context, txn *Transaction)
}

// NopListener is Listener that does nothing and vetoes nothing.
type NopListener struct{}

func (NopListener) SubTransactionCreating(context.Context, *Transaction) error         { return nil }
func (NopListener) SubTransactionCreated(context.Context, *Transaction, *Transaction)  {}
func (NopListener) NewObjectCreating(context.Context, *Transaction, *ClassDefinition) error {
	return nil
}
func (NopListener) ObjectsLoading(context.Context, *Transaction, []ObjectID) error { return nil }
func (NopListener) ObjectsLoaded(context.Context, *Transaction, []*Object)         {}
func (NopListener) ObjectDeleting(context.Context, *Transaction, *Object) error    { return nil }
func (NopListener) ObjectDeleted(context.Context, *Transaction, *Object)           {}
func (NopListener) PropertyValueReading(context.Context, *Transaction, *Object, *PropertyDefinition) error {
	return nil
}
func (NopListener) PropertyValueRead(context.Context, *Transaction, *Object, *PropertyDefinition, interface{}) {
}
func (NopListener) PropertyValueChanging(context.Context, *Transaction, *Object, *PropertyDefinition, interface{}, interface{}) error {
	return nil
}
func (NopListener) PropertyValueChanged(context.Context, *Transaction, *Object, *PropertyDefinition, interface{}, interface{}) {
}
func (NopListener) RelationReading(context.Context, *Transaction, *Object, *PropertyDefinition) error {
	return nil
}
func (NopListener) RelationRead(context.Context, *Transaction, *Object, *PropertyDefinition, []ObjectID) {
}
func (NopListener) RelationChanging(context.Context, *Transaction, *Object, *PropertyDefinition, ObjectID, ObjectID) error {
	return nil
}
func (NopListener) RelationChanged(context.Context, *Transaction, *Object, *PropertyDefinition, ObjectID, ObjectID) {
}
func (NopListener) ObjectCommitting(context.Context, *Transaction, *Object) error   { return nil }
func (NopListener) ObjectCommitted(context.Context, *Transaction, *Object)          {}
func (NopListener) Committing(context.Context, *Transaction, []*Object) error       { return nil }
func (NopListener) Committed(context.Context, *Transaction, []*Object)              {}
func (NopListener) ObjectRollingBack(context.Context, *Transaction, *Object) error  { return nil }
func (NopListener) ObjectRolledBack(context.Context, *Transaction, *Object)         {}
func (NopListener) RollingBack(context.Context, *Transaction, []*Object) error      { return nil }
func (NopListener) RolledBack(context.Context, *Transaction, []*Object)             {}
func (NopListener) TransactionDiscarded(context.Context, *Transaction)              {}

// ---- pipeline ----

// Pipeline is an ordered list of listeners which is itself a Listener.
//
// Notifications are delivered to listeners in the order they were added.
// The first listener to veto an "...ing" notification stops delivery and
// its error is returned.
type Pipeline struct {
	listenerv []Listener
}

// NewPipeline creates new pipeline with given listeners.
func NewPipeline(listenerv ...Listener) *Pipeline {
	return &Pipeline{listenerv: append([]Listener(nil), listenerv...)}
}

// Add appends l to the pipeline.
func (p *Pipeline) Add(l Listener) {
	p.listenerv = append(p.listenerv, l)
}

// Listeners returns listeners of the pipeline in order.
func (p *Pipeline) Listeners() []Listener {
	return append([]Listener(nil), p.listenerv...)
}

// VetoObserver is optionally implemented by listeners that want to know
// which "...ing" notifications were vetoed.
//
// Vetoed is called on every VetoObserver of a pipeline after some listener
// of that pipeline vetoed notification with err.
type VetoObserver interface {
	Vetoed(ctx context.Context, txn *Transaction, notification string, err error)
}

func (p *Pipeline) veto(ctx context.Context, txn *Transaction, notification string, f func(l Listener) error) error {
	for _, l := range p.listenerv {
		if err := f(l); err != nil {
			for _, l := range p.listenerv {
				if o, ok := l.(VetoObserver); ok {
					o.Vetoed(ctx, txn, notification, err)
				}
			}
			return err
		}
	}
	return nil
}

func (p *Pipeline) notify(f func(l Listener)) {
	for _, l := range p.listenerv {
		f(l)
	}
}

func (p *Pipeline) SubTransactionCreating(ctx context.Context, txn *Transaction) error {
	return p.veto(ctx, txn, "SubTransactionCreating", func(l Listener) error { return l.SubTransactionCreating(ctx, txn) })
}
func (p *Pipeline) SubTransactionCreated(ctx context.Context, txn, sub *Transaction) {
	p.notify(func(l Listener) { l.SubTransactionCreated(ctx, txn, sub) })
}
func (p *Pipeline) NewObjectCreating(ctx context.Context, txn *Transaction, class *ClassDefinition) error {
	return p.veto(ctx, txn, "NewObjectCreating", func(l Listener) error { return l.NewObjectCreating(ctx, txn, class) })
}
func (p *Pipeline) ObjectsLoading(ctx context.Context, txn *Transaction, idv []ObjectID) error {
	return p.veto(ctx, txn, "ObjectsLoading", func(l Listener) error { return l.ObjectsLoading(ctx, txn, idv) })
}
func (p *Pipeline) ObjectsLoaded(ctx context.Context, txn *Transaction, objv []*Object) {
	p.notify(func(l Listener) { l.ObjectsLoaded(ctx, txn, objv) })
}
func (p *Pipeline) ObjectDeleting(ctx context.Context, txn *Transaction, obj *Object) error {
	return p.veto(ctx, txn, "ObjectDeleting", func(l Listener) error { return l.ObjectDeleting(ctx, txn, obj) })
}
func (p *Pipeline) ObjectDeleted(ctx context.Context, txn *Transaction, obj *Object) {
	p.notify(func(l Listener) { l.ObjectDeleted(ctx, txn, obj) })
}
func (p *Pipeline) PropertyValueReading(ctx context.Context, txn *Transaction, obj *Object, prop *PropertyDefinition) error {
	return p.veto(ctx, txn, "PropertyValueReading", func(l Listener) error { return l.PropertyValueReading(ctx, txn, obj, prop) })
}
func (p *Pipeline) PropertyValueRead(ctx context.Context, txn *Transaction, obj *Object, prop *PropertyDefinition, value interface{}) {
	p.notify(func(l Listener) { l.PropertyValueRead(ctx, txn, obj, prop, value) })
}
func (p *Pipeline) PropertyValueChanging(ctx context.Context, txn *Transaction, obj *Object, prop *PropertyDefinition, oldValue, newValue interface{}) error {
	return p.veto(ctx, txn, "PropertyValueChanging", func(l Listener) error { return l.PropertyValueChanging(ctx, txn, obj, prop, oldValue, newValue) })
}
func (p *Pipeline) PropertyValueChanged(ctx context.Context, txn *Transaction, obj *Object, prop *PropertyDefinition, oldValue, newValue interface{}) {
	p.notify(func(l Listener) { l.PropertyValueChanged(ctx, txn, obj, prop, oldValue, newValue) })
}
func (p *Pipeline) RelationReading(ctx context.Context, txn *Transaction, obj *Object, prop *PropertyDefinition) error {
	return p.veto(ctx, txn, "RelationReading", func(l Listener) error { return l.RelationReading(ctx, txn, obj, prop) })
}
func (p *Pipeline) RelationRead(ctx context.Context, txn *Transaction, obj *Object, prop *PropertyDefinition, related []ObjectID) {
	p.notify(func(l Listener) { l.RelationRead(ctx, txn, obj, prop, related) })
}
func (p *Pipeline) RelationChanging(ctx context.Context, txn *Transaction, obj *Object, prop *PropertyDefinition, removed, added ObjectID) error {
	return p.veto(ctx, txn, "RelationChanging", func(l Listener) error { return l.RelationChanging(ctx, txn, obj, prop, removed, added) })
}
func (p *Pipeline) RelationChanged(ctx context.Context, txn *Transaction, obj *Object, prop *PropertyDefinition, removed, added ObjectID) {
	p.notify(func(l Listener) { l.RelationChanged(ctx, txn, obj, prop, removed, added) })
}
func (p *Pipeline) ObjectCommitting(ctx context.Context, txn *Transaction, obj *Object) error {
	return p.veto(ctx, txn, "ObjectCommitting", func(l Listener) error { return l.ObjectCommitting(ctx, txn, obj) })
}
func (p *Pipeline) ObjectCommitted(ctx context.Context, txn *Transaction, obj *Object) {
	p.notify(func(l Listener) { l.ObjectCommitted(ctx, txn, obj) })
}
func (p *Pipeline) Committing(ctx context.Context, txn *Transaction, objv []*Object) error {
	return p.veto(ctx, txn, "Committing", func(l Listener) error { return l.Committing(ctx, txn, objv) })
}
func (p *Pipeline) Committed(ctx context.Context, txn *Transaction, objv []*Object) {
	p.notify(func(l Listener) { l.Committed(ctx, txn, objv) })
}
func (p *Pipeline) ObjectRollingBack(ctx context.Context, txn *Transaction, obj *Object) error {
	return p.veto(ctx, txn, "ObjectRollingBack", func(l Listener) error { return l.ObjectRollingBack(ctx, txn, obj) })
}
func (p *Pipeline) ObjectRolledBack(ctx context.Context, txn *Transaction, obj *Object) {
	p.notify(func(l Listener) { l.ObjectRolledBack(ctx, txn, obj) })
}
func (p *Pipeline) RollingBack(ctx context.Context, txn *Transaction, objv []*Object) error {
	return p.veto(ctx, txn, "RollingBack", func(l Listener) error { return l.RollingBack(ctx, txn, objv) })
}
func (p *Pipeline) RolledBack(ctx context.Context, txn *Transaction, objv []*Object) {
	p.notify(func(l Listener) { l.RolledBack(ctx, txn, objv) })
}
func (p *Pipeline) TransactionDiscarded(ctx context.Context, txn *Transaction) {
	p.notify(func(l Listener) { l.TransactionDiscarded(ctx, txn) })
}

// ---- read-only enforcement ----

// ReadOnlyListener vetoes changes to transactions that are read-only
// because they have an active subtransaction.
type ReadOnlyListener struct {
	NopListener
}

func checkReadOnly(txn *Transaction, op string) error {
	if txn.readOnly {
		return &ReadOnlyError{Op: op}
	}
	return nil
}

func (ReadOnlyListener) SubTransactionCreating(ctx context.Context, txn *Transaction) error {
	return checkReadOnly(txn, "create subtransaction")
}
func (ReadOnlyListener) NewObjectCreating(ctx context.Context, txn *Transaction, class *ClassDefinition) error {
	return checkReadOnly(txn, "new "+class.ID)
}
func (ReadOnlyListener) ObjectsLoading(ctx context.Context, txn *Transaction, idv []ObjectID) error {
	return checkReadOnly(txn, "load")
}
func (ReadOnlyListener) ObjectDeleting(ctx context.Context, txn *Transaction, obj *Object) error {
	return checkReadOnly(txn, "delete "+obj.id.String())
}
func (ReadOnlyListener) PropertyValueChanging(ctx context.Context, txn *Transaction, obj *Object, prop *PropertyDefinition, oldValue, newValue interface{}) error {
	return checkReadOnly(txn, "set "+prop.Name)
}
func (ReadOnlyListener) RelationChanging(ctx context.Context, txn *Transaction, obj *Object, prop *PropertyDefinition, removed, added ObjectID) error {
	return checkReadOnly(txn, "set "+prop.Name)
}

// ---- logging ----

// LoggingListener logs every notification at verbosity level 2.
//
// Completed commits and rollbacks are logged at verbosity level 1.
type LoggingListener struct{}

func logf(ctx context.Context, txn *Transaction, format string, argv ...interface{}) {
	log.Depth(2).Infof(ctx, "%s: %s", txn, fmt.Sprintf(format, argv...))
}

func (LoggingListener) SubTransactionCreating(ctx context.Context, txn *Transaction) error {
	if log.V(2) {
		logf(ctx, txn, "subtransaction creating")
	}
	return nil
}
func (LoggingListener) SubTransactionCreated(ctx context.Context, txn, sub *Transaction) {
	if log.V(2) {
		logf(ctx, txn, "subtransaction created: %s", sub)
	}
}
func (LoggingListener) NewObjectCreating(ctx context.Context, txn *Transaction, class *ClassDefinition) error {
	if log.V(2) {
		logf(ctx, txn, "new object creating: %s", class.ID)
	}
	return nil
}
func (LoggingListener) ObjectsLoading(ctx context.Context, txn *Transaction, idv []ObjectID) error {
	if log.V(2) {
		logf(ctx, txn, "objects loading: %v", idv)
	}
	return nil
}
func (LoggingListener) ObjectsLoaded(ctx context.Context, txn *Transaction, objv []*Object) {
	if log.V(2) {
		logf(ctx, txn, "objects loaded: %v", objv)
	}
}
func (LoggingListener) ObjectDeleting(ctx context.Context, txn *Transaction, obj *Object) error {
	if log.V(2) {
		logf(ctx, txn, "object deleting: %s", obj)
	}
	return nil
}
func (LoggingListener) ObjectDeleted(ctx context.Context, txn *Transaction, obj *Object) {
	if log.V(2) {
		logf(ctx, txn, "object deleted: %s", obj)
	}
}
func (LoggingListener) PropertyValueReading(ctx context.Context, txn *Transaction, obj *Object, prop *PropertyDefinition) error {
	if log.V(2) {
		logf(ctx, txn, "%s.%s reading", obj, prop.Name)
	}
	return nil
}
func (LoggingListener) PropertyValueRead(ctx context.Context, txn *Transaction, obj *Object, prop *PropertyDefinition, value interface{}) {
	if log.V(2) {
		logf(ctx, txn, "%s.%s read: %v", obj, prop.Name, value)
	}
}
func (LoggingListener) PropertyValueChanging(ctx context.Context, txn *Transaction, obj *Object, prop *PropertyDefinition, oldValue, newValue interface{}) error {
	if log.V(2) {
		logf(ctx, txn, "%s.%s changing: %v -> %v", obj, prop.Name, oldValue, newValue)
	}
	return nil
}
func (LoggingListener) PropertyValueChanged(ctx context.Context, txn *Transaction, obj *Object, prop *PropertyDefinition, oldValue, newValue interface{}) {
	if log.V(2) {
		logf(ctx, txn, "%s.%s changed: %v -> %v", obj, prop.Name, oldValue, newValue)
	}
}
func (LoggingListener) RelationReading(ctx context.Context, txn *Transaction, obj *Object, prop *PropertyDefinition) error {
	if log.V(2) {
		logf(ctx, txn, "%s.%s relation reading", obj, prop.Name)
	}
	return nil
}
func (LoggingListener) RelationRead(ctx context.Context, txn *Transaction, obj *Object, prop *PropertyDefinition, related []ObjectID) {
	if log.V(2) {
		logf(ctx, txn, "%s.%s relation read: %v", obj, prop.Name, related)
	}
}
func (LoggingListener) RelationChanging(ctx context.Context, txn *Transaction, obj *Object, prop *PropertyDefinition, removed, added ObjectID) error {
	if log.V(2) {
		logf(ctx, txn, "%s.%s relation changing: -%q +%q", obj, prop.Name, removed, added)
	}
	return nil
}
func (LoggingListener) RelationChanged(ctx context.Context, txn *Transaction, obj *Object, prop *PropertyDefinition, removed, added ObjectID) {
	if log.V(2) {
		logf(ctx, txn, "%s.%s relation changed: -%q +%q", obj, prop.Name, removed, added)
	}
}
func (LoggingListener) ObjectCommitting(ctx context.Context, txn *Transaction, obj *Object) error {
	if log.V(2) {
		logf(ctx, txn, "object committing: %s", obj)
	}
	return nil
}
func (LoggingListener) ObjectCommitted(ctx context.Context, txn *Transaction, obj *Object) {
	if log.V(2) {
		logf(ctx, txn, "object committed: %s", obj)
	}
}
func (LoggingListener) Committing(ctx context.Context, txn *Transaction, objv []*Object) error {
	if log.V(2) {
		logf(ctx, txn, "committing: %v", objv)
	}
	return nil
}
func (LoggingListener) Committed(ctx context.Context, txn *Transaction, objv []*Object) {
	if log.V(1) {
		logf(ctx, txn, "committed %d object(s)", len(objv))
	}
}
func (LoggingListener) ObjectRollingBack(ctx context.Context, txn *Transaction, obj *Object) error {
	if log.V(2) {
		logf(ctx, txn, "object rolling back: %s", obj)
	}
	return nil
}
func (LoggingListener) ObjectRolledBack(ctx context.Context, txn *Transaction, obj *Object) {
	if log.V(2) {
		logf(ctx, txn, "object rolled back: %s", obj)
	}
}
func (LoggingListener) RollingBack(ctx context.Context, txn *Transaction, objv []*Object) error {
	if log.V(2) {
		logf(ctx, txn, "rolling back: %v", objv)
	}
	return nil
}
func (LoggingListener) RolledBack(ctx context.Context, txn *Transaction, objv []*Object) {
	if log.V(1) {
		logf(ctx, txn, "rolled back %d object(s)", len(objv))
	}
}
func (LoggingListener) TransactionDiscarded(ctx context.Context, txn *Transaction) {
	if log.V(2) {
		logf(ctx, txn, "discarded")
	}
}

// ---- extensions ----

// Extension is a Listener registered with a transaction hierarchy under a key.
type Extension interface {
	Listener
	Key() string
}

// ExtensionCollection holds extensions of a transaction hierarchy.
//
// One collection is shared by a root transaction and all its
// subtransactions. It is a Listener dispatching notifications to all
// extensions in the order they were added.
type ExtensionCollection struct {
	mu   sync.Mutex
	extv []Extension
}

// Add adds ext to the collection.
//
// It is an error to add two extensions with the same key.
func (c *ExtensionCollection) Add(ext Extension) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.extv {
		if e.Key() == ext.Key() {
			return fmt.Errorf("extension %q already registered", ext.Key())
		}
	}
	c.extv = append(c.extv, ext)
	return nil
}

// Remove removes extension registered under key, if any.
func (c *ExtensionCollection) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, e := range c.extv {
		if e.Key() == key {
			c.extv = append(c.extv[:i:i], c.extv[i+1:]...)
			return
		}
	}
}

// Get returns extension registered under key, or nil.
func (c *ExtensionCollection) Get(key string) Extension {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.extv {
		if e.Key() == key {
			return e
		}
	}
	return nil
}

// All returns all extensions in order they were added.
func (c *ExtensionCollection) All() []Extension {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Extension(nil), c.extv...)
}

func (c *ExtensionCollection) veto(f func(l Listener) error) error {
	for _, e := range c.All() {
		if err := f(e); err != nil {
			return err
		}
	}
	return nil
}

func (c *ExtensionCollection) notify(f func(l Listener)) {
	for _, e := range c.All() {
		f(e)
	}
}

// Vetoed forwards veto notification to extensions that observe vetoes.
func (c *ExtensionCollection) Vetoed(ctx context.Context, txn *Transaction, notification string, err error) {
	for _, e := range c.All() {
		if o, ok := e.(VetoObserver); ok {
			o.Vetoed(ctx, txn, notification, err)
		}
	}
}

func (c *ExtensionCollection) SubTransactionCreating(ctx context.Context, txn *Transaction) error {
	return c.veto(func(l Listener) error { return l.SubTransactionCreating(ctx, txn) })
}
func (c *ExtensionCollection) SubTransactionCreated(ctx context.Context, txn, sub *Transaction) {
	c.notify(func(l Listener) { l.SubTransactionCreated(ctx, txn, sub) })
}
func (c *ExtensionCollection) NewObjectCreating(ctx context.Context, txn *Transaction, class *ClassDefinition) error {
	return c.veto(func(l Listener) error { return l.NewObjectCreating(ctx, txn, class) })
}
func (c *ExtensionCollection) ObjectsLoading(ctx context.Context, txn *Transaction, idv []ObjectID) error {
	return c.veto(func(l Listener) error { return l.ObjectsLoading(ctx, txn, idv) })
}
func (c *ExtensionCollection) ObjectsLoaded(ctx context.Context, txn *Transaction, objv []*Object) {
	c.notify(func(l Listener) { l.ObjectsLoaded(ctx, txn, objv) })
}
func (c *ExtensionCollection) ObjectDeleting(ctx context.Context, txn *Transaction, obj *Object) error {
	return c.veto(func(l Listener) error { return l.ObjectDeleting(ctx, txn, obj) })
}
func (c *ExtensionCollection) ObjectDeleted(ctx context.Context, txn *Transaction, obj *Object) {
	c.notify(func(l Listener) { l.ObjectDeleted(ctx, txn, obj) })
}
func (c *ExtensionCollection) PropertyValueReading(ctx context.Context, txn *Transaction, obj *Object, prop *PropertyDefinition) error {
	return c.veto(func(l Listener) error { return l.PropertyValueReading(ctx, txn, obj, prop) })
}
func (c *ExtensionCollection) PropertyValueRead(ctx context.Context, txn *Transaction, obj *Object, prop *PropertyDefinition, value interface{}) {
	c.notify(func(l Listener) { l.PropertyValueRead(ctx, txn, obj, prop, value) })
}
func (c *ExtensionCollection) PropertyValueChanging(ctx context.Context, txn *Transaction, obj *Object, prop *PropertyDefinition, oldValue, newValue interface{}) error {
	return c.veto(func(l Listener) error { return l.PropertyValueChanging(ctx, txn, obj, prop, oldValue, newValue) })
}
func (c *ExtensionCollection) PropertyValueChanged(ctx context.Context, txn *Transaction, obj *Object, prop *PropertyDefinition, oldValue, newValue interface{}) {
	c.notify(func(l Listener) { l.PropertyValueChanged(ctx, txn, obj, prop, oldValue, newValue) })
}
func (c *ExtensionCollection) RelationReading(ctx context.Context, txn *Transaction, obj *Object, prop *PropertyDefinition) error {
	return c.veto(func(l Listener) error { return l.RelationReading(ctx, txn, obj, prop) })
}
func (c *ExtensionCollection) RelationRead(ctx context.Context, txn *Transaction, obj *Object, prop *PropertyDefinition, related []ObjectID) {
	c.notify(func(l Listener) { l.RelationRead(ctx, txn, obj, prop, related) })
}
func (c *ExtensionCollection) RelationChanging(ctx context.Context, txn *Transaction, obj *Object, prop *PropertyDefinition, removed, added ObjectID) error {
	return c.veto(func(l Listener) error { return l.RelationChanging(ctx, txn, obj, prop, removed, added) })
}
func (c *ExtensionCollection) RelationChanged(ctx context.Context, txn *Transaction, obj *Object, prop *PropertyDefinition, removed, added ObjectID) {
	c.notify(func(l Listener) { l.RelationChanged(ctx, txn, obj, prop, removed, added) })
}
func (c *ExtensionCollection) ObjectCommitting(ctx context.Context, txn *Transaction, obj *Object) error {
	return c.veto(func(l Listener) error { return l.ObjectCommitting(ctx, txn, obj) })
}
func (c *ExtensionCollection) ObjectCommitted(ctx context.Context, txn *Transaction, obj *Object) {
	c.notify(func(l Listener) { l.ObjectCommitted(ctx, txn, obj) })
}
func (c *ExtensionCollection) Committing(ctx context.Context, txn *Transaction, objv []*Object) error {
	return c.veto(func(l Listener) error { return l.Committing(ctx, txn, objv) })
}
func (c *ExtensionCollection) Committed(ctx context.Context, txn *Transaction, objv []*Object) {
	c.notify(func(l Listener) { l.Committed(ctx, txn, objv) })
}
func (c *ExtensionCollection) ObjectRollingBack(ctx context.Context, txn *Transaction, obj *Object) error {
	return c.veto(func(l Listener) error { return l.ObjectRollingBack(ctx, txn, obj) })
}
func (c *ExtensionCollection) ObjectRolledBack(ctx context.Context, txn *Transaction, obj *Object) {
	c.notify(func(l Listener) { l.ObjectRolledBack(ctx, txn, obj) })
}
func (c *ExtensionCollection) RollingBack(ctx context.Context, txn *Transaction, objv []*Object) error {
	return c.veto(func(l Listener) error { return l.RollingBack(ctx, txn, objv) })
}
func (c *ExtensionCollection) RolledBack(ctx context.Context, txn *Transaction, objv []*Object) {
	c.notify(func(l Listener) { l.RolledBack(ctx, txn, objv) })
}
func (c *ExtensionCollection) TransactionDiscarded(ctx context.Context, txn *Transaction) {
	c.notify(func(l Listener) { l.TransactionDiscarded(ctx, txn) })
}
