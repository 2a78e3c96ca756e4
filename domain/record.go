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
	"fmt"
)

// Lifecycle is the coarse lifecycle of a record.
type Lifecycle int

const (
	LifecycleNew       Lifecycle = iota // created in transaction, not yet committed
	LifecycleExisting                   // loaded or committed
	LifecycleDeleted                    // deleted, deletion not yet committed
	LifecycleDiscarded                  // gone; must not be used anymore
)

func (l Lifecycle) String() string {
	switch l {
	case LifecycleNew:
		return "new"
	case LifecycleExisting:
		return "existing"
	case LifecycleDeleted:
		return "deleted"
	case LifecycleDiscarded:
		return "discarded"
	}
	return fmt.Sprintf("Lifecycle(%d)", int(l))
}

// State is the effective state of a record.
type State int

const (
	StateUnchanged State = iota
	StateChanged
	StateNew
	StateDeleted
	StateInvalid // record is discarded
)

func (s State) String() string {
	switch s {
	case StateUnchanged:
		return "unchanged"
	case StateChanged:
		return "changed"
	case StateNew:
		return "new"
	case StateDeleted:
		return "deleted"
	case StateInvalid:
		return "invalid"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// IsDirty returns whether records in state s have changes to commit.
func (s State) IsDirty() bool {
	switch s {
	case StateChanged, StateNew, StateDeleted:
		return true
	}
	return false
}

// RelationEndPointID identifies one end point of a relation: a relation
// property of a particular object.
type RelationEndPointID struct {
	ID       ObjectID
	Property string
}

func (ep RelationEndPointID) String() string {
	return ep.ID.String() + "." + ep.Property
}

// Record holds persisted state of one domain object.
//
// Record keeps one PropertyState per property defined by object's class,
// object's serial, and lifecycle of the object in the transaction that
// owns the record.
//
// Records are created with NewRecord and NewExistingRecord. A record
// becomes associated with a transaction when it is registered in
// transaction's working set.
type Record struct {
	id     ObjectID
	class  *ClassDefinition
	serial Serial

	lifecycle     Lifecycle
	forcedChanged bool // set by MarkChanged
	propv         []*PropertyState

	txn *Transaction // owner; nil until registered

	// relation end points, derived lazily from class relations.
	relv      []RelationEndPointID
	relvValid bool
}

func newRecord(class *ClassDefinition, id ObjectID, serial Serial, lifecycle Lifecycle) *Record {
	return &Record{
		id:        id,
		class:     class,
		serial:    serial,
		lifecycle: lifecycle,
		propv:     make([]*PropertyState, 0, len(class.Properties)),
	}
}

// NewRecord creates record for new object of class with given id.
//
// All properties are initialized with their default values.
func NewRecord(class *ClassDefinition, id ObjectID) (*Record, error) {
	if err := class.ValidateID(id); err != nil {
		return nil, err
	}
	r := newRecord(class, id, InvalidSerial, LifecycleNew)
	for _, p := range class.Properties {
		r.propv = append(r.propv, newPropertyState(r, p, p.DefaultValue()))
	}
	return r, nil
}

// NewExistingRecord creates record for an object that already exists in storage.
//
// Persistent properties are initialized with values provided by lookup.
// lookup may return nil for a property it has no value for, in which case
// the property gets its default value. Transaction-scoped properties always
// start with default values.
func NewExistingRecord(class *ClassDefinition, id ObjectID, serial Serial, lookup func(p *PropertyDefinition) (interface{}, error)) (*Record, error) {
	if err := class.ValidateID(id); err != nil {
		return nil, err
	}
	r := newRecord(class, id, serial, LifecycleExisting)
	for _, p := range class.Properties {
		v := p.DefaultValue()
		if p.Persistent() {
			x, err := lookup(p)
			if err != nil {
				return nil, &PropertyError{class.ID, p.Name, err}
			}
			if x != nil {
				if err := p.Check(x); err != nil {
					return nil, &PropertyError{class.ID, p.Name, err}
				}
				v = x
			}
		}
		r.propv = append(r.propv, newPropertyState(r, p, p.Type.Copy(v)))
	}
	return r, nil
}

// ID returns id of the record's object.
func (r *Record) ID() ObjectID { return r.id }

// Class returns definition of the record's class.
func (r *Record) Class() *ClassDefinition { return r.class }

// Serial returns serial the object had in storage when it was loaded or last persisted.
func (r *Record) Serial() Serial { return r.serial }

// SetSerial sets record's serial.
func (r *Record) SetSerial(serial Serial) { r.serial = serial }

// Lifecycle returns record's lifecycle.
func (r *Record) Lifecycle() Lifecycle { return r.lifecycle }

// IsDiscarded returns whether the record was discarded.
func (r *Record) IsDiscarded() bool { return r.lifecycle == LifecycleDiscarded }

// State returns effective state of the record.
//
// Existing records are changed if they were marked as changed, or if any of
// their properties has changed.
func (r *Record) State() State {
	switch r.lifecycle {
	case LifecycleNew:
		return StateNew
	case LifecycleDeleted:
		return StateDeleted
	case LifecycleDiscarded:
		return StateInvalid
	}

	if r.forcedChanged {
		return StateChanged
	}
	for _, p := range r.propv {
		if p.HasChanged() {
			return StateChanged
		}
	}
	return StateUnchanged
}

// HasChanged returns whether the record has changes to commit.
func (r *Record) HasChanged() bool {
	return r.State().IsDirty()
}

// hasStoredChanges returns whether committing r has to write to storage.
//
// It is false for existing records whose only changes are to transaction
// scoped properties.
func (r *Record) hasStoredChanges() bool {
	if r.lifecycle != LifecycleExisting || r.forcedChanged {
		return r.State().IsDirty()
	}
	for _, p := range r.propv {
		if p.def.Persistent() && p.HasChanged() {
			return true
		}
	}
	return false
}

// Property returns state of named property.
func (r *Record) Property(name string) (*PropertyState, error) {
	if r.IsDiscarded() {
		return nil, &ObjectDiscardedError{r.id}
	}
	p := r.property(name)
	if p == nil {
		return nil, &PropertyError{r.class.ID, name, fmt.Errorf("no such property")}
	}
	return p, nil
}

func (r *Record) property(name string) *PropertyState {
	for _, p := range r.propv {
		if p.def.Name == name {
			return p
		}
	}
	return nil
}

// Properties returns states of all record's properties in class declaration order.
func (r *Record) Properties() []*PropertyState {
	return append([]*PropertyState(nil), r.propv...)
}

// Values returns current values of record's persistent properties.
func (r *Record) Values() map[string]interface{} {
	values := make(map[string]interface{}, len(r.propv))
	for _, p := range r.propv {
		if p.def.Persistent() {
			values[p.def.Name] = p.Value()
		}
	}
	return values
}

// ChangedProperties returns states of properties whose value has changed.
func (r *Record) ChangedProperties() []*PropertyState {
	var changedv []*PropertyState
	for _, p := range r.propv {
		if p.HasChanged() {
			changedv = append(changedv, p)
		}
	}
	return changedv
}

// MarkChanged marks existing record as changed even if none of its
// properties has changed.
func (r *Record) MarkChanged() error {
	if r.lifecycle != LifecycleExisting {
		return &ObjectStateError{ID: r.id, State: r.State(), Op: "mark changed"}
	}
	r.forcedChanged = true
	return nil
}

// Delete marks the record as deleted.
//
// New records are discarded right away. Deleting a record that is already
// deleted or discarded does nothing.
func (r *Record) Delete() {
	switch r.lifecycle {
	case LifecycleNew:
		r.lifecycle = LifecycleDiscarded
	case LifecycleExisting:
		r.lifecycle = LifecycleDeleted
	}
}

// Commit makes current state of the record its original state.
//
// Deleted records become discarded.
func (r *Record) Commit() {
	switch r.lifecycle {
	case LifecycleDiscarded:
		return
	case LifecycleDeleted:
		r.lifecycle = LifecycleDiscarded
		return
	}

	changed := r.forcedChanged
	r.forcedChanged = false
	for _, p := range r.propv {
		changed = changed || p.HasChanged()
		p.commit()
	}
	r.lifecycle = LifecycleExisting
	if changed {
		r.relvValid = false
	}
}

// Rollback restores original state of the record.
//
// New records become discarded.
func (r *Record) Rollback() {
	switch r.lifecycle {
	case LifecycleDiscarded:
		return
	case LifecycleNew:
		r.lifecycle = LifecycleDiscarded
		return
	}

	changed := false
	r.forcedChanged = false
	for _, p := range r.propv {
		changed = changed || p.HasChanged()
		p.rollback()
	}
	r.lifecycle = LifecycleExisting
	if changed {
		r.relvValid = false
	}
}

// CloneWithNewID returns copy of the record for object with another id.
//
// Property values, serial and lifecycle are copied. The clone is not
// associated with any transaction.
func (r *Record) CloneWithNewID(id ObjectID) (*Record, error) {
	if err := r.class.ValidateID(id); err != nil {
		return nil, err
	}
	c := newRecord(r.class, id, r.serial, r.lifecycle)
	c.forcedChanged = r.forcedChanged
	for _, p := range r.propv {
		c.propv = append(c.propv, &PropertyState{
			def:      p.def,
			rec:      c,
			current:  p.def.Type.Copy(p.current),
			original: p.def.Type.Copy(p.original),
			touched:  p.touched,
		})
	}
	return c, nil
}

// Transaction returns transaction the record belongs to, or nil.
func (r *Record) Transaction() *Transaction { return r.txn }

// Object returns object the record holds state of.
//
// The object is looked up in identity map of the transaction the record
// belongs to. nil is returned for records not associated with a transaction.
func (r *Record) Object() *Object {
	if r.txn == nil {
		return nil
	}
	return r.txn.objects.Lookup(r.id)
}

// RelationEndPoints returns ids of record's relation end points.
func (r *Record) RelationEndPoints() []RelationEndPointID {
	if !r.relvValid {
		r.relv = r.relv[:0]
		for _, p := range r.class.RelationProperties() {
			r.relv = append(r.relv, RelationEndPointID{r.id, p.Name})
		}
		r.relvValid = true
	}
	return append([]RelationEndPointID(nil), r.relv...)
}

// checkWritable verifies property values of the record can be changed.
func (r *Record) checkWritable() error {
	switch r.lifecycle {
	case LifecycleDiscarded:
		return &ObjectDiscardedError{r.id}
	case LifecycleDeleted:
		return &ObjectDeletedError{r.id}
	}
	return nil
}

func (r *Record) String() string {
	return fmt.Sprintf("%s (%s)", r.id, r.State())
}

// snapshot returns new existing record whose original and current values
// are current values of r.
func (r *Record) snapshot() *Record {
	c := newRecord(r.class, r.id, r.serial, LifecycleExisting)
	for _, p := range r.propv {
		c.propv = append(c.propv, newPropertyState(c, p.def, p.def.Type.Copy(p.current)))
	}
	return c
}
