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
)

// PropertyState is the state of one property of a record.
//
// It keeps property's current value, its original value - the value the
// property had when the record was loaded, or last committed or rolled
// back - and whether the property was assigned since then.
type PropertyState struct {
	def *PropertyDefinition
	rec *Record

	current  interface{}
	original interface{}
	touched  bool // assigned since load/commit/rollback, even if to the same value
}

func newPropertyState(rec *Record, def *PropertyDefinition, value interface{}) *PropertyState {
	return &PropertyState{
		def:      def,
		rec:      rec,
		current:  value,
		original: def.Type.Copy(value),
	}
}

// Definition returns definition of the property.
func (p *PropertyState) Definition() *PropertyDefinition { return p.def }

// Name returns name of the property.
func (p *PropertyState) Name() string { return p.def.Name }

// Value returns current value of the property.
//
// It does not check record state and does not notify anyone.
func (p *PropertyState) Value() interface{} { return p.def.Type.Copy(p.current) }

// OriginalValue returns original value of the property.
func (p *PropertyState) OriginalValue() interface{} { return p.def.Type.Copy(p.original) }

// Touched returns whether the property was assigned since the record was
// loaded, committed or rolled back.
func (p *PropertyState) Touched() bool { return p.touched }

// HasChanged returns whether current value differs from the original one.
func (p *PropertyState) HasChanged() bool {
	return !p.def.Type.Equal(p.current, p.original)
}

// Get reads property value.
//
// If the record belongs to a transaction, the read goes through that
// transaction's notification pipeline.
func (p *PropertyState) Get(ctx context.Context) (interface{}, error) {
	if p.rec.txn != nil {
		return p.rec.txn.readProperty(ctx, p.rec, p)
	}
	if p.rec.IsDiscarded() {
		return nil, &ObjectDiscardedError{p.rec.id}
	}
	return p.Value(), nil
}

// Set assigns property value.
//
// If the record belongs to a transaction, the write goes through that
// transaction's notification pipeline.
func (p *PropertyState) Set(ctx context.Context, v interface{}) error {
	if p.rec.txn != nil {
		return p.rec.txn.writeProperty(ctx, p.rec, p, v)
	}
	if err := p.rec.checkWritable(); err != nil {
		return err
	}
	if err := p.def.Check(v); err != nil {
		return &PropertyError{p.rec.id.ClassID, p.def.Name, err}
	}
	p.set(v)
	return nil
}

func (p *PropertyState) set(v interface{}) {
	p.current = p.def.Type.Copy(v)
	p.touched = true
}

// touch marks p as assigned without changing its value.
func (p *PropertyState) touch() {
	p.touched = true
}

func (p *PropertyState) commit() {
	p.original = p.def.Type.Copy(p.current)
	p.touched = false
}

func (p *PropertyState) rollback() {
	p.current = p.def.Type.Copy(p.original)
	p.touched = false
}
