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

package domain_test
// environment for transaction tests

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/kylelemons/godebug/pretty"

	"github.com/re-motion/Trunk-SVN2Git-sub013/domain"
	"github.com/re-motion/Trunk-SVN2Git-sub013/domain/storage/memory"
	"github.com/re-motion/Trunk-SVN2Git-sub013/internal/xtesting"
)

// tMapping returns classes for transaction tests.
//
// Customers have string ids so that traces read as "a", "b", ...
func tMapping() *domain.MappingRegistry {
	customer, err := domain.NewClassDefinition("Customer", domain.KindString,
		&domain.PropertyDefinition{Name: "Name", Type: domain.TypeString},
		&domain.PropertyDefinition{Name: "Orders", Type: domain.TypeObjectRefList, RelatedClass: "Order"},
	)
	if err != nil {
		panic(err)
	}
	order, err := domain.NewClassDefinition("Order", domain.KindInt32,
		&domain.PropertyDefinition{Name: "Number", Type: domain.TypeInt32},
		&domain.PropertyDefinition{Name: "Note", Type: domain.TypeString, Nullable: true},
		&domain.PropertyDefinition{Name: "Customer", Type: domain.TypeObjectRef, RelatedClass: "Customer"},
		&domain.PropertyDefinition{Name: "Scratch", Type: domain.TypeString, TransactionScoped: true},
	)
	if err != nil {
		panic(err)
	}
	m, err := domain.NewMappingRegistry(customer, order)
	if err != nil {
		panic(err)
	}
	return m
}

func cid(name string) domain.ObjectID {
	return domain.ObjectID{ClassID: "Customer", Value: name}
}

func oid(n int32) domain.ObjectID {
	return domain.ObjectID{ClassID: "Order", Value: n}
}

// tName returns short name of an object for traces.
func tName(id domain.ObjectID) string {
	return fmt.Sprint(id.Value)
}

func tNames(objv []*domain.Object) string {
	if objv == nil {
		return "nil"
	}
	namev := make([]string, len(objv))
	for i, obj := range objv {
		namev[i] = tName(obj.ID())
	}
	return "[" + strings.Join(namev, " ") + "]"
}

func tIDNames(idv []domain.ObjectID) string {
	namev := make([]string, len(idv))
	for i, id := range idv {
		namev[i] = tName(id)
	}
	return "[" + strings.Join(namev, " ") + "]"
}

// tTracer is Listener that records notifications it receives.
//
// Reads are not recorded. Events of subtransactions are prefixed with "sub ".
type tTracer struct {
	domain.NopListener
	eventv []string

	// if set, called after the corresponding event is recorded
	committing func(ctx context.Context, txn *domain.Transaction, objv []*domain.Object) error
}

func (tr *tTracer) add(txn *domain.Transaction, format string, argv ...interface{}) {
	event := fmt.Sprintf(format, argv...)
	if txn.Kind() == domain.KindSub {
		event = "sub " + event
	}
	tr.eventv = append(tr.eventv, event)
}

// expect verifies recorded events and starts recording anew.
func (tr *tTracer) expect(t *testing.T, eventv ...string) {
	t.Helper()
	if diff := pretty.Compare(tr.eventv, eventv); diff != "" {
		t.Errorf("events:\n%s", diff)
	}
	tr.reset()
}

func (tr *tTracer) reset() {
	tr.eventv = nil
}

func (tr *tTracer) SubTransactionCreated(ctx context.Context, txn, sub *domain.Transaction) {
	tr.add(txn, "subtransaction")
}
func (tr *tTracer) ObjectsLoading(ctx context.Context, txn *domain.Transaction, idv []domain.ObjectID) error {
	tr.add(txn, "loading %s", tIDNames(idv))
	return nil
}
func (tr *tTracer) ObjectsLoaded(ctx context.Context, txn *domain.Transaction, objv []*domain.Object) {
	tr.add(txn, "loaded %s", tNames(objv))
}
func (tr *tTracer) ObjectDeleting(ctx context.Context, txn *domain.Transaction, obj *domain.Object) error {
	tr.add(txn, "deleting %s", tName(obj.ID()))
	return nil
}
func (tr *tTracer) ObjectDeleted(ctx context.Context, txn *domain.Transaction, obj *domain.Object) {
	tr.add(txn, "deleted %s", tName(obj.ID()))
}
func (tr *tTracer) PropertyValueChanged(ctx context.Context, txn *domain.Transaction, obj *domain.Object, prop *domain.PropertyDefinition, oldValue, newValue interface{}) {
	tr.add(txn, "set %s.%s", tName(obj.ID()), prop.Name)
}
func (tr *tTracer) ObjectCommitting(ctx context.Context, txn *domain.Transaction, obj *domain.Object) error {
	tr.add(txn, "object-committing %s", tName(obj.ID()))
	return nil
}
func (tr *tTracer) ObjectCommitted(ctx context.Context, txn *domain.Transaction, obj *domain.Object) {
	tr.add(txn, "object-committed %s", tName(obj.ID()))
}
func (tr *tTracer) Committing(ctx context.Context, txn *domain.Transaction, objv []*domain.Object) error {
	tr.add(txn, "committing %s", tNames(objv))
	if tr.committing != nil {
		return tr.committing(ctx, txn, objv)
	}
	return nil
}
func (tr *tTracer) Committed(ctx context.Context, txn *domain.Transaction, objv []*domain.Object) {
	tr.add(txn, "committed %s", tNames(objv))
}
func (tr *tTracer) ObjectRollingBack(ctx context.Context, txn *domain.Transaction, obj *domain.Object) error {
	tr.add(txn, "object-rolling-back %s", tName(obj.ID()))
	return nil
}
func (tr *tTracer) ObjectRolledBack(ctx context.Context, txn *domain.Transaction, obj *domain.Object) {
	tr.add(txn, "object-rolled-back %s", tName(obj.ID()))
}
func (tr *tTracer) RollingBack(ctx context.Context, txn *domain.Transaction, objv []*domain.Object) error {
	tr.add(txn, "rolling-back %s", tNames(objv))
	return nil
}
func (tr *tTracer) RolledBack(ctx context.Context, txn *domain.Transaction, objv []*domain.Object) {
	tr.add(txn, "rolled-back %s", tNames(objv))
}
func (tr *tTracer) TransactionDiscarded(ctx context.Context, txn *domain.Transaction) {
	tr.add(txn, "discarded")
}

// tEnv is database with memory storage and tracer installed.
type tEnv struct {
	t     *testing.T
	ctx   context.Context
	stor  *memory.Storage
	db    *domain.DB
	trace *tTracer
}

func newEnv(t *testing.T) *tEnv {
	t.Helper()
	m := tMapping()
	stor := memory.New(t.Name(), m)
	trace := &tTracer{}
	db, err := domain.NewDB(stor, m, &domain.DBOptions{
		Logging:   true,
		Listeners: []domain.Listener{trace},
	})
	if err != nil {
		t.Fatal(err)
	}
	return &tEnv{t: t, ctx: context.Background(), stor: stor, db: db, trace: trace}
}

// seed stores customers with names "name-<name>" for every name in namev.
func (e *tEnv) seed(namev ...string) {
	e.t.Helper()
	X := xtesting.FatalIf(e.t)
	txn := e.db.NewRootTransaction()
	for _, name := range namev {
		obj, err := txn.CreateNewRecord(e.ctx, cid(name)); X(err)
		err = txn.SetValue(e.ctx, obj, "Name", "name-"+name); X(err)
	}
	err := txn.Commit(e.ctx); X(err)
	err = txn.Discard(e.ctx); X(err)
	e.trace.reset()
}

// load returns customers with namev loaded in txn.
func (e *tEnv) load(txn *domain.Transaction, namev ...string) []*domain.Object {
	e.t.Helper()
	idv := make([]domain.ObjectID, len(namev))
	for i, name := range namev {
		idv[i] = cid(name)
	}
	objv, err := txn.GetObjects(e.ctx, idv...)
	if err != nil {
		e.t.Fatal(err)
	}
	return objv
}

// head returns serial of the last persist to storage.
func (e *tEnv) head() domain.Serial {
	e.t.Helper()
	head, err := e.stor.Head(e.ctx)
	if err != nil {
		e.t.Fatal(err)
	}
	return head
}

// ids returns ids of all objects in storage.
func (e *tEnv) ids() []domain.ObjectID {
	e.t.Helper()
	idv, err := e.stor.IDs(e.ctx)
	if err != nil {
		e.t.Fatal(err)
	}
	return idv
}

// stored returns value of property prop of object id as found in storage.
func (e *tEnv) stored(id domain.ObjectID, prop string) interface{} {
	e.t.Helper()
	rec, err := e.stor.Load(e.ctx, id)
	if err != nil {
		e.t.Fatal(err)
	}
	p, err := rec.Property(prop)
	if err != nil {
		e.t.Fatal(err)
	}
	return p.Value()
}

func (e *tEnv) get(txn *domain.Transaction, obj *domain.Object, prop string) interface{} {
	e.t.Helper()
	v, err := txn.GetValue(e.ctx, obj, prop)
	if err != nil {
		e.t.Fatal(err)
	}
	return v
}

func (e *tEnv) set(txn *domain.Transaction, obj *domain.Object, prop string, v interface{}) {
	e.t.Helper()
	if err := txn.SetValue(e.ctx, obj, prop, v); err != nil {
		e.t.Fatal(err)
	}
}

func (e *tEnv) state(txn *domain.Transaction, obj *domain.Object) domain.State {
	e.t.Helper()
	st, err := txn.ObjectState(e.ctx, obj)
	if err != nil {
		e.t.Fatal(err)
	}
	return st
}
