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

/*
Domaindump - tool to dump objects of a storage

This program dumps persistent property values of objects kept in a storage.
Objects to dump are given by their ids; if no id is given all objects of the
storage are dumped in the order of their ids.

Dump format:

    obj <oid> <serial>
    	<property> <value>
    	...
    LF
    obj ...

Values are printed as follows:

    string          quoted with " and \-escapes
    int32, int64    decimal
    float64         shortest decimal representation
    bool            true or false
    bytes           0x<hex>
    time            RFC 3339 in UTC
    guid            canonical UUID form
    ref             <oid>
    refs            [<oid> <oid> ...]
    null            -
*/

package domaintools

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"lab.nexedi.com/kirr/go123/prog"
	"lab.nexedi.com/kirr/go123/xerr"
	"lab.nexedi.com/kirr/go123/xfmt"

	"github.com/re-motion/Trunk-SVN2Git-sub013/domain"
)

// dumper dumps domain records to a writer
type dumper struct {
	W io.Writer

	afterFirst bool // true after first object has been dumped

	buf xfmt.Buffer // reusable data buffer for formatting
}

// DumpRecord dumps one record
func (d *dumper) DumpRecord(rec *domain.Record) (err error) {
	defer xerr.Contextf(&err, "%s", rec.ID())

	buf := &d.buf
	buf.Reset()

	if d.afterFirst {
		buf.Cb('\n')
	}
	d.afterFirst = true

	buf.S("obj ").S(rec.ID().String()).Cb(' ').V(rec.Serial()).Cb('\n')

	for _, p := range rec.Properties() {
		def := p.Definition()
		if !def.Persistent() {
			continue
		}
		buf.Cb('\t').S(def.Name).Cb(' ')
		if err := appendValue(buf, p.Value()); err != nil {
			return fmt.Errorf("%s: %s", def.Name, err)
		}
		buf.Cb('\n')
	}

	_, err = d.W.Write(buf.Bytes())
	return err
}

// appendValue formats property value v into buf.
func appendValue(buf *xfmt.Buffer, v interface{}) error {
	switch v := v.(type) {
	case nil:
		buf.Cb('-')
	case string:
		buf.S(strconv.Quote(v))
	case int32:
		buf.S(strconv.FormatInt(int64(v), 10))
	case int64:
		buf.S(strconv.FormatInt(v, 10))
	case float64:
		buf.S(strconv.FormatFloat(v, 'g', -1, 64))
	case bool:
		buf.S(strconv.FormatBool(v))
	case []byte:
		if v == nil {
			buf.Cb('-')
		} else {
			buf.S("0x").Xb(v)
		}
	case time.Time:
		buf.S(v.UTC().Format(time.RFC3339Nano))
	case uuid.UUID:
		buf.S(v.String())
	case domain.ObjectID:
		if v.IsZero() {
			buf.Cb('-')
		} else {
			buf.S(v.String())
		}
	case []domain.ObjectID:
		buf.Cb('[')
		for i, id := range v {
			if i != 0 {
				buf.Cb(' ')
			}
			buf.S(id.String())
		}
		buf.Cb(']')
	default:
		return fmt.Errorf("unsupported value type %T", v)
	}
	return nil
}

// Dump dumps objects with ids in idv from stor to w.
//
// If idv is empty all objects of stor are dumped. This requires stor to
// implement domain.Inspector.
func Dump(ctx context.Context, w io.Writer, stor domain.Storage, idv []domain.ObjectID) (err error) {
	defer xerr.Contextf(&err, "%s: dump", stor.URL())

	if len(idv) == 0 {
		insp, ok := stor.(domain.Inspector)
		if !ok {
			return fmt.Errorf("storage cannot list objects")
		}
		idv, err = insp.IDs(ctx)
		if err != nil {
			return err
		}
	}

	recv, err := stor.LoadMany(ctx, idv, true)
	if err != nil {
		return err
	}

	d := &dumper{W: w}
	for _, rec := range recv {
		err = d.DumpRecord(rec)
		if err != nil {
			return err
		}
	}
	return nil
}

// ----------------------------------------

const dumpSummary = "dump objects of a storage"

func dumpUsage(w io.Writer) {
	fmt.Fprintf(w,
		`Usage: domain dump [OPTIONS] <storage> [oid ...]
Dump objects of a storage.

<storage> is an URL (see 'domain help storage') of a storage.
<oid> is an object id (see 'domain help oid').

If no oid is given all objects of the storage are dumped.

Options:

    -mapping <file>   load classes from mapping document (required)
    -h  --help        show this help
`)
}

func dumpMain(argv []string) {
	flags := flag.FlagSet{Usage: func() { dumpUsage(os.Stderr) }}
	flags.Init("", flag.ExitOnError)
	mappingPath := flags.String("mapping", "", "mapping document")
	flags.Parse(argv[1:])

	argv = flags.Args()
	if len(argv) < 1 || *mappingPath == "" {
		flags.Usage()
		prog.Exit(2)
	}
	storURL := argv[0]

	var idv []domain.ObjectID
	for _, arg := range argv[1:] {
		id, err := domain.ParseObjectID(arg)
		if err != nil {
			prog.Fatal(err)
		}
		idv = append(idv, id)
	}

	ctx := context.Background()

	err := func() (err error) {
		stor, err := openStorage(ctx, storURL, *mappingPath)
		if err != nil {
			return err
		}
		defer func() {
			err = xerr.First(err, stor.Close())
		}()

		return Dump(ctx, os.Stdout, stor, idv)
	}()
	if err != nil {
		prog.Fatal(err)
	}
}
