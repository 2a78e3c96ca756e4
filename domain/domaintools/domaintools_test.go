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

package domaintools

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kylelemons/godebug/diff"
	"github.com/stretchr/testify/require"

	"github.com/re-motion/Trunk-SVN2Git-sub013/domain"
	"github.com/re-motion/Trunk-SVN2Git-sub013/domain/mapping"
	"github.com/re-motion/Trunk-SVN2Git-sub013/domain/storage/memory"
	"github.com/re-motion/Trunk-SVN2Git-sub013/internal/xtesting"
)

var (
	tItem = domain.ObjectID{ClassID: "Item", Value: int32(1)}
	tKey  = domain.ObjectID{ClassID: "Key", Value: "a"}
)

// withTestStorage runs f with storage holding one Item and one Key.
func withTestStorage(t *testing.T, f func(stor domain.Storage)) {
	X := xtesting.FatalIf(t)
	m := xtesting.Mapping()
	stor := memory.New(t.Name(), m)
	defer func() {
		X(stor.Close())
	}()

	item := xtesting.NewRecord(t, m, tItem, map[string]interface{}{
		"Name":    "x\n",
		"Count":   int32(3),
		"Total":   int64(-5),
		"Price":   1.5,
		"Active":  true,
		"Blob":    []byte{0x01, 0xab},
		"Stamp":   time.Date(2020, 1, 2, 3, 4, 5, 6, time.UTC),
		"Ref":     uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
		"Owner":   tKey,
		"Scratch": "not persisted",
	})
	key := xtesting.NewRecord(t, m, tKey, map[string]interface{}{
		"Weight": int32(7),
	})
	_, err := stor.Persist(context.Background(), []*domain.Record{key, item}); X(err)

	f(stor)
}

const dumpItem = `obj Item|1|Int32 0000000000000001
	Name "x\n"
	Count 3
	Total -5
	Price 1.5
	Active true
	Blob 0x01ab
	Stamp 2020-01-02T03:04:05.000000006Z
	Ref 6ba7b810-9dad-11d1-80b4-00c04fd430c8
	Note -
	Owner Key|a|String
	Tags []
`

const dumpKey = `obj Key|a|String 0000000000000001
	Weight 7
`

func TestDump(t *testing.T) {
	ctx := context.Background()

	var testv = []struct {
		idv  []domain.ObjectID
		want string
	}{
		{nil, dumpItem + "\n" + dumpKey},
		{[]domain.ObjectID{tKey}, dumpKey},
		{[]domain.ObjectID{tKey, tItem}, dumpKey + "\n" + dumpItem},
	}

	withTestStorage(t, func(stor domain.Storage) {
		for _, tt := range testv {
			buf := bytes.Buffer{}
			err := Dump(ctx, &buf, stor, tt.idv)
			if err != nil {
				t.Errorf("dump %v: %s", tt.idv, err)
				continue
			}
			if buf.String() != tt.want {
				t.Errorf("dump %v: different:\n%s", tt.idv, diff.Diff(tt.want, buf.String()))
			}
		}

		// missing object
		buf := bytes.Buffer{}
		err := Dump(ctx, &buf, stor, []domain.ObjectID{{ClassID: "Key", Value: "zzz"}})
		if err == nil || !strings.Contains(err.Error(), "Key|zzz|String") {
			t.Errorf("dump missing: unexpected error: %v", err)
		}
	})
}

func TestInfo(t *testing.T) {
	assert := require.New(t)
	ctx := context.Background()

	withTestStorage(t, func(stor domain.Storage) {
		buf := bytes.Buffer{}
		assert.NoError(Info(ctx, &buf, stor, nil))
		assert.Equal("name=mem://TestInfo\nhead=0000000000000001\nobjects=2\n", buf.String())

		buf.Reset()
		assert.NoError(Info(ctx, &buf, stor, []string{"objects", "head"}))
		assert.Equal("2\n0000000000000001\n", buf.String())

		err := Info(ctx, &buf, stor, []string{"size"})
		assert.EqualError(err, "invalid parameter: size")
	})
}

// storages opened by URL together with mapping document.
func TestOpenStorage(t *testing.T) {
	assert := require.New(t)
	X := xtesting.FatalIf(t)
	ctx := context.Background()
	dir := t.TempDir()

	mappingPath := filepath.Join(dir, "m.yaml")
	f, err := os.Create(mappingPath); X(err)
	err = mapping.Save(f, xtesting.Mapping()); X(err)
	err = f.Close(); X(err)

	m, err := mapping.LoadFile(mappingPath); X(err)
	dbPath := filepath.Join(dir, "1.db")
	stor, err := domain.OpenStorage(ctx, dbPath, &domain.OpenOptions{Mapping: m}); X(err)
	key := xtesting.NewRecord(t, m, tKey, nil)
	_, err = stor.Persist(ctx, []*domain.Record{key}); X(err)
	err = stor.Close(); X(err)

	// info works without classes
	stor, err = openStorage(ctx, dbPath, ""); X(err)
	buf := bytes.Buffer{}
	err = Info(ctx, &buf, stor, []string{"head", "objects"}); X(err)
	assert.Equal("0000000000000001\n1\n", buf.String())
	err = stor.Close(); X(err)

	// dump needs them
	stor, err = openStorage(ctx, dbPath, mappingPath); X(err)
	buf.Reset()
	err = Dump(ctx, &buf, stor, nil); X(err)
	assert.Equal("obj Key|a|String 0000000000000001\n\tWeight -\n", buf.String())

	// read-only
	_, err = stor.Persist(ctx, []*domain.Record{xtesting.NewRecord(t, m, tItem, nil)})
	assert.Error(err)
	err = stor.Close(); X(err)

	_, err = openStorage(ctx, dbPath, filepath.Join(dir, "missing.yaml"))
	assert.Error(err)
}

func TestEncodeID(t *testing.T) {
	var testv = []struct {
		class, kind, value string
		want               string // "" -> error
	}{
		{"Order", "Int32", "42", "Order|42|Int32"},
		{"Order", "Int32", "-1", "Order|-1|Int32"},
		{"Customer", "String", "ACME | Sons", "Customer|ACME &pipe; Sons|String"},
		{"Tag", "Guid", "6ba7b810-9dad-11d1-80b4-00c04fd430c8", "Tag|6ba7b810-9dad-11d1-80b4-00c04fd430c8|Guid"},

		{"Order", "Int32", "4294967296", ""},
		{"Order", "Int32", "x", ""},
		{"Order", "Long", "1", ""},
		{"Tag", "Guid", "00000000-0000-0000-0000-000000000000", ""},
		{"Customer", "String", "", ""},
		{"", "String", "a", ""},
	}

	for _, tt := range testv {
		id, err := EncodeID(tt.class, tt.kind, tt.value)
		if tt.want == "" {
			if err == nil {
				t.Errorf("encode %s %s %q: no error; id = %s", tt.class, tt.kind, tt.value, id)
			}
			continue
		}
		if err != nil {
			t.Errorf("encode %s %s %q: %s", tt.class, tt.kind, tt.value, err)
			continue
		}
		if have := id.String(); have != tt.want {
			t.Errorf("encode %s %s %q:\nhave: %s\nwant: %s", tt.class, tt.kind, tt.value, have, tt.want)
		}
	}
}

func TestDescribeID(t *testing.T) {
	assert := require.New(t)

	buf := bytes.Buffer{}
	assert.NoError(DescribeID(&buf, "Customer|ACME &pipe; Sons|String"))
	assert.Equal("class=Customer\ntype=String\nvalue=ACME | Sons\n", buf.String())

	buf.Reset()
	assert.NoError(DescribeID(&buf, "Order|42|Int32"))
	assert.Equal("class=Order\ntype=Int32\nvalue=42\n", buf.String())

	assert.Error(DescribeID(&buf, "Order|42"))
}
