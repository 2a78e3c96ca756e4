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

package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/re-motion/Trunk-SVN2Git-sub013/domain"
	"github.com/re-motion/Trunk-SVN2Git-sub013/internal/xtesting"
)

func TestPersistLoad(t *testing.T) {
	xtesting.DrvTestPersist(t, New("test", xtesting.Mapping()))
}

func TestOpen(t *testing.T) {
	assert := require.New(t)
	ctx := context.Background()
	m := xtesting.Mapping()

	_, err := domain.OpenStorage(ctx, "mem://x", nil)
	assert.Error(err)

	stor, err := domain.OpenStorage(ctx, "mem://x", &domain.OpenOptions{Mapping: m})
	assert.NoError(err)
	assert.Equal("mem://x", stor.URL())
	_, ok := stor.(*Storage)
	assert.True(ok)

	// read-only
	stor, err = domain.OpenStorage(ctx, "mem://ro", &domain.OpenOptions{Mapping: m, ReadOnly: true})
	assert.NoError(err)
	rec := xtesting.NewRecord(t, m, domain.ObjectID{ClassID: "Key", Value: "a"}, nil)
	_, err = stor.Persist(ctx, []*domain.Record{rec})
	assert.Error(err)

	// closed
	assert.NoError(stor.Close())
	_, err = stor.Load(ctx, rec.ID())
	assert.Error(err)
	_, isNoObject := err.(*domain.NoObjectError)
	assert.False(isNoObject)
}

func TestHead(t *testing.T) {
	assert := require.New(t)
	X := xtesting.FatalIf(t)
	ctx := context.Background()
	m := xtesting.Mapping()

	stor := New("head", m)
	head, err := stor.Head(ctx); X(err)
	assert.Equal(domain.Serial(0), head)
	idv, err := stor.IDs(ctx); X(err)
	assert.Empty(idv)

	a := xtesting.NewRecord(t, m, domain.ObjectID{ClassID: "Key", Value: "b"}, nil)
	b := xtesting.NewRecord(t, m, domain.ObjectID{ClassID: "Key", Value: "a"}, nil)
	serialv, err := stor.Persist(ctx, []*domain.Record{a, b}); X(err)
	assert.Equal([]domain.Serial{1, 1}, serialv)
	head, err = stor.Head(ctx); X(err)
	assert.Equal(domain.Serial(1), head)
	idv, err = stor.IDs(ctx); X(err)
	assert.Equal([]domain.ObjectID{b.ID(), a.ID()}, idv)
}
