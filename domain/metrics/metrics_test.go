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

package metrics

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/re-motion/Trunk-SVN2Git-sub013/domain"
	"github.com/re-motion/Trunk-SVN2Git-sub013/domain/storage/memory"
	"github.com/re-motion/Trunk-SVN2Git-sub013/internal/xtesting"
)

func TestListener(t *testing.T) {
	assert := require.New(t)
	X := xtesting.FatalIf(t)
	ctx := context.Background()

	reg := prometheus.NewRegistry()
	m, err := NewListener(reg); X(err)

	// metrics are registered only once
	_, err = NewListener(reg)
	assert.Error(err)

	mapping := xtesting.Mapping()
	stor := memory.New(t.Name(), mapping)
	db, err := domain.NewDB(stor, mapping, &domain.DBOptions{Listeners: []domain.Listener{m}}); X(err)

	// create + commit
	txn := db.NewRootTransaction()
	a, err := txn.NewObject(ctx, "Item"); X(err)
	b, err := txn.NewObject(ctx, "Item"); X(err)
	_, err = txn.NewObject(ctx, "Tag"); X(err)
	err = txn.Commit(ctx); X(err)
	err = txn.Discard(ctx); X(err)

	assert.Equal(2.0, testutil.ToFloat64(m.created.WithLabelValues("Item")))
	assert.Equal(1.0, testutil.ToFloat64(m.created.WithLabelValues("Tag")))
	assert.Equal(1.0, testutil.ToFloat64(m.commits.WithLabelValues("root")))
	assert.Equal(3.0, testutil.ToFloat64(m.committed))
	assert.Equal(1.0, testutil.ToFloat64(m.discarded))

	// load + delete + rollback
	txn = db.NewRootTransaction()
	objv, err := txn.GetObjects(ctx, a.ID(), b.ID()); X(err)
	assert.Equal(2.0, testutil.ToFloat64(m.loaded.WithLabelValues("Item")))

	err = txn.DeleteObject(ctx, objv[0]); X(err)
	assert.Equal(1.0, testutil.ToFloat64(m.deleted.WithLabelValues("Item")))

	err = txn.Rollback(ctx); X(err)
	assert.Equal(1.0, testutil.ToFloat64(m.rollbacks.WithLabelValues("root")))
	assert.Equal(1.0, testutil.ToFloat64(m.rolledBack))

	// read-only parent vetoes changes
	sub, err := txn.CreateSubTransaction(ctx); X(err)
	assert.Equal(1.0, testutil.ToFloat64(m.subs))

	err = txn.SetValue(ctx, objv[1], "Name", "zzz")
	assert.Error(err)
	assert.Equal(1.0, testutil.ToFloat64(m.vetoes.WithLabelValues("PropertyValueChanging")))

	// commit of subtransaction
	err = sub.SetValue(ctx, objv[1], "Name", "yyy"); X(err)
	err = sub.Commit(ctx); X(err)
	assert.Equal(1.0, testutil.ToFloat64(m.commits.WithLabelValues("sub")))

	err = txn.Discard(ctx); X(err)
	assert.Equal(3.0, testutil.ToFloat64(m.discarded))
}

// vetoes by extensions are seen by the listener, and the listener can
// itself be used as an extension.
func TestExtension(t *testing.T) {
	assert := require.New(t)
	X := xtesting.FatalIf(t)
	ctx := context.Background()

	m, err := NewListener(prometheus.NewRegistry()); X(err)
	assert.Equal("metrics", m.Key())

	mapping := xtesting.Mapping()
	db, err := domain.NewDB(memory.New(t.Name(), mapping), mapping, nil); X(err)

	txn := db.NewRootTransaction()
	err = txn.Extensions().Add(m); X(err)
	err = txn.Extensions().Add(tNoDelete{}); X(err)

	obj, err := txn.NewObject(ctx, "Key"); X(err)
	err = txn.DeleteObject(ctx, obj)
	assert.Equal(errNoDelete, err)

	assert.Equal(1.0, testutil.ToFloat64(m.created.WithLabelValues("Key")))
	assert.Equal(0.0, testutil.ToFloat64(m.deleted.WithLabelValues("Key")))
	assert.Equal(1.0, testutil.ToFloat64(m.vetoes.WithLabelValues("ObjectDeleting")))

	// transactions outside the hierarchy are not counted
	other := db.NewRootTransaction()
	_, err = other.NewObject(ctx, "Key"); X(err)
	assert.Equal(1.0, testutil.ToFloat64(m.created.WithLabelValues("Key")))
}

var errNoDelete = &domain.ReadOnlyError{Op: "delete"}

type tNoDelete struct {
	domain.NopListener
}

func (tNoDelete) Key() string { return "no-delete" }

func (tNoDelete) ObjectDeleting(ctx context.Context, txn *domain.Transaction, obj *domain.Object) error {
	return errNoDelete
}
