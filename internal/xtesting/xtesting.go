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

// Package xtesting provides infrastructure for testing domain storages.
package xtesting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kylelemons/godebug/pretty"

	"github.com/re-motion/Trunk-SVN2Git-sub013/domain"
)

// FatalIf returns function that fails the test if its argument is an error.
//
// For example
//
//	X := xtesting.FatalIf(t)
//	rec, err := stor.Load(ctx, id); X(err)
func FatalIf(t testing.TB) func(error) {
	return func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
}

// Mapping returns classes used by storage driver tests.
//
// Class "Item" has properties of every type; "Tag" has guid ids and "Key"
// string ids.
func Mapping() *domain.MappingRegistry {
	item, err := domain.NewClassDefinition("Item", domain.KindInt32,
		&domain.PropertyDefinition{Name: "Name", Type: domain.TypeString},
		&domain.PropertyDefinition{Name: "Count", Type: domain.TypeInt32},
		&domain.PropertyDefinition{Name: "Total", Type: domain.TypeInt64},
		&domain.PropertyDefinition{Name: "Price", Type: domain.TypeFloat64},
		&domain.PropertyDefinition{Name: "Active", Type: domain.TypeBool},
		&domain.PropertyDefinition{Name: "Blob", Type: domain.TypeBytes},
		&domain.PropertyDefinition{Name: "Stamp", Type: domain.TypeTime},
		&domain.PropertyDefinition{Name: "Ref", Type: domain.TypeGuid},
		&domain.PropertyDefinition{Name: "Note", Type: domain.TypeString, Nullable: true},
		&domain.PropertyDefinition{Name: "Owner", Type: domain.TypeObjectRef, RelatedClass: "Key"},
		&domain.PropertyDefinition{Name: "Tags", Type: domain.TypeObjectRefList, RelatedClass: "Tag"},
		&domain.PropertyDefinition{Name: "Scratch", Type: domain.TypeString, TransactionScoped: true},
	)
	if err != nil {
		panic(err)
	}
	tag, err := domain.NewClassDefinition("Tag", domain.KindGuid,
		&domain.PropertyDefinition{Name: "Label", Type: domain.TypeString},
	)
	if err != nil {
		panic(err)
	}
	key, err := domain.NewClassDefinition("Key", domain.KindString,
		&domain.PropertyDefinition{Name: "Weight", Type: domain.TypeInt32, Nullable: true},
	)
	if err != nil {
		panic(err)
	}

	m, err := domain.NewMappingRegistry(item, tag, key)
	if err != nil {
		panic(err)
	}
	return m
}

// Obj is expected state of one stored object.
type Obj struct {
	ID     domain.ObjectID
	Values map[string]interface{} // properties not mentioned have default values
}

// NewRecord creates new record for id with values set.
func NewRecord(t testing.TB, m domain.Mapping, id domain.ObjectID, values map[string]interface{}) *domain.Record {
	t.Helper()
	X := FatalIf(t)
	ctx := context.Background()

	class, err := m.Class(id.ClassID); X(err)
	rec, err := domain.NewRecord(class, id); X(err)
	for name, v := range values {
		p, err := rec.Property(name); X(err)
		err = p.Set(ctx, v); X(err)
	}
	return rec
}

// CheckLoad verifies that stor.Load(expect.ID) returns expected object.
func CheckLoad(t testing.TB, stor domain.Storage, expect Obj, serial domain.Serial) *domain.Record {
	t.Helper()
	rec, err := stor.Load(context.Background(), expect.ID)
	if err != nil {
		t.Errorf("load %s: %s", expect.ID, err)
		return nil
	}

	if rec.ID() != expect.ID {
		t.Errorf("load %s: returned id %s", expect.ID, rec.ID())
	}
	if rec.State() != domain.StateUnchanged {
		t.Errorf("load %s: state %s", expect.ID, rec.State())
	}
	if serial != domain.InvalidSerial && rec.Serial() != serial {
		t.Errorf("load %s: serial:\nhave: %s\nwant: %s", expect.ID, rec.Serial(), serial)
	}

	for _, p := range rec.Properties() {
		def := p.Definition()
		want, ok := expect.Values[def.Name]
		if !ok || !def.Persistent() {
			want = def.DefaultValue()
		}
		if have := p.Value(); !def.Type.Equal(have, want) {
			t.Errorf("load %s: %s:\n%s", expect.ID, def.Name, pretty.Compare(want, have))
		}
	}
	return rec
}

// checkNoObject verifies that stor does not have object id.
func checkNoObject(t testing.TB, stor domain.Storage, id domain.ObjectID) {
	t.Helper()
	_, err := stor.Load(context.Background(), id)
	var eNoObject *domain.NoObjectError
	if !errors.As(err, &eNoObject) {
		t.Errorf("load %s: have error %v; want *NoObjectError", id, err)
		return
	}
	if eNoObject.ID != id {
		t.Errorf("load %s: error about %s", id, eNoObject.ID)
	}
}

func isConcurrencyError(err error) bool {
	var e *domain.ConcurrencyError
	return errors.As(err, &e)
}

// DrvTestPersist verifies that stor implements Load, LoadMany, Persist and
// NewObjectID correctly.
//
// stor must be empty and work with classes returned by Mapping.
func DrvTestPersist(t *testing.T, stor domain.Storage) {
	X := FatalIf(t)
	ctx := context.Background()
	m := Mapping()

	stamp := time.Date(2020, 7, 15, 10, 30, 0, 123456000, time.UTC)
	ref := uuid.MustParse("9c4a8a15-6d0f-4e43-8ef4-77e9b3b1c9e2")
	tagID, err := domain.NewObjectID("Tag", uuid.MustParse("1b2c3d4e-0000-4000-8000-000000000001")); X(err)
	keyID, err := domain.NewObjectID("Key", "k|1&pipe;"); X(err)
	itemID, err := domain.NewObjectID("Item", int32(1)); X(err)

	item := Obj{itemID, map[string]interface{}{
		"Name":    "first",
		"Count":   int32(-3),
		"Total":   int64(1) << 40,
		"Price":   12.5,
		"Active":  true,
		"Blob":    []byte("\x00\x01\xff"),
		"Stamp":   stamp,
		"Ref":     ref,
		"Note":    "hello",
		"Owner":   keyID,
		"Tags":    []domain.ObjectID{tagID},
		"Scratch": "not persisted",
	}}
	tag := Obj{tagID, map[string]interface{}{"Label": "red"}}
	key := Obj{keyID, map[string]interface{}{"Weight": nil}}

	// create
	recv := []*domain.Record{
		NewRecord(t, m, item.ID, item.Values),
		NewRecord(t, m, tag.ID, tag.Values),
		NewRecord(t, m, key.ID, key.Values),
	}
	serialv, err := stor.Persist(ctx, recv); X(err)
	if len(serialv) != len(recv) {
		t.Fatalf("persist: %d serials for %d records", len(serialv), len(recv))
	}
	serial1 := serialv[0]
	for _, serial := range serialv {
		if serial == domain.InvalidSerial || serial != serial1 {
			t.Fatalf("persist: serials %v", serialv)
		}
	}
	// records are not modified by persist
	if recv[0].State() != domain.StateNew {
		t.Fatalf("persist: record modified: %s", recv[0])
	}

	CheckLoad(t, stor, item, serial1)
	CheckLoad(t, stor, tag, serial1)
	CheckLoad(t, stor, key, serial1)

	// creating already existing object -> conflict
	_, err = stor.Persist(ctx, []*domain.Record{NewRecord(t, m, tag.ID, nil)})
	if !isConcurrencyError(err) {
		t.Fatalf("persist existing as new: have error %v; want *ConcurrencyError", err)
	}

	// change
	rec := CheckLoad(t, stor, item, serial1)
	p, err := rec.Property("Count"); X(err)
	err = p.Set(ctx, int32(7)); X(err)
	p, err = rec.Property("Note"); X(err)
	err = p.Set(ctx, nil); X(err)
	serialv, err = stor.Persist(ctx, []*domain.Record{rec}); X(err)
	serial2 := serialv[0]
	if !(serial2 > serial1) {
		t.Fatalf("persist: serial did not grow: %s -> %s", serial1, serial2)
	}
	item.Values["Count"] = int32(7)
	item.Values["Note"] = nil
	CheckLoad(t, stor, item, serial2)

	// change with stale serial -> conflict and nothing is stored,
	// including objects of the same persist without conflict
	p, err = rec.Property("Name"); X(err)
	err = p.Set(ctx, "stale"); X(err)
	other := NewRecord(t, m, domain.ObjectID{ClassID: "Item", Value: int32(2)}, nil)
	_, err = stor.Persist(ctx, []*domain.Record{other, rec})
	if !isConcurrencyError(err) {
		t.Fatalf("persist stale: have error %v; want *ConcurrencyError", err)
	}
	CheckLoad(t, stor, item, serial2)
	checkNoObject(t, stor, other.ID())

	// LoadMany
	missingID := domain.ObjectID{ClassID: "Item", Value: int32(100)}
	loadv, err := stor.LoadMany(ctx, []domain.ObjectID{tag.ID, missingID, item.ID}, false); X(err)
	if len(loadv) != 3 || loadv[0] == nil || loadv[1] != nil || loadv[2] == nil {
		t.Fatalf("load many: have %v", loadv)
	}
	if loadv[0].ID() != tag.ID || loadv[2].ID() != item.ID {
		t.Fatalf("load many: order: have %v", loadv)
	}
	_, err = stor.LoadMany(ctx, []domain.ObjectID{tag.ID, missingID}, true)
	var eNoObject *domain.NoObjectError
	if !errors.As(err, &eNoObject) || eNoObject.ID != missingID {
		t.Fatalf("load many missing: have error %v; want *NoObjectError(%s)", err, missingID)
	}

	// delete
	rec = CheckLoad(t, stor, tag, serial1)
	rec.Delete()
	serialv, err = stor.Persist(ctx, []*domain.Record{rec}); X(err)
	checkNoObject(t, stor, tag.ID)

	// deleting again -> conflict
	_, err = stor.Persist(ctx, []*domain.Record{rec})
	if !isConcurrencyError(err) {
		t.Fatalf("persist deleted: have error %v; want *ConcurrencyError", err)
	}

	// ids
	class, err := m.Class("Item"); X(err)
	id1, err := stor.NewObjectID(ctx, class); X(err)
	id2, err := stor.NewObjectID(ctx, class); X(err)
	if id1 == id2 || id1.ClassID != "Item" || id1.Kind() != domain.KindInt32 {
		t.Fatalf("new object id: %s %s", id1, id2)
	}
	class, err = m.Class("Tag"); X(err)
	id1, err = stor.NewObjectID(ctx, class); X(err)
	if id1.Kind() != domain.KindGuid {
		t.Fatalf("new object id: %s", id1)
	}
}
