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

// Domainid - encode and decode object ids

package domaintools

import (
	"flag"
	"fmt"
	"io"
	"os"

	"lab.nexedi.com/kirr/go123/prog"

	"github.com/re-motion/Trunk-SVN2Git-sub013/domain"
)

// EncodeID creates object id from its class, kind of primary value and the
// value in text form.
func EncodeID(class, kind, value string) (domain.ObjectID, error) {
	k, err := domain.ParseValueKind(kind)
	if err != nil {
		return domain.ObjectID{}, err
	}
	v, err := domain.ParseValue(k, value)
	if err != nil {
		return domain.ObjectID{}, fmt.Errorf("%s value %q invalid: %s", k, value, err)
	}
	return domain.NewObjectID(class, v)
}

// DescribeID prints fields of object id given in text form to w.
func DescribeID(w io.Writer, text string) error {
	id, err := domain.ParseObjectID(text)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "class=%s\ntype=%s\nvalue=%v\n", id.ClassID, id.Kind(), id.Value)
	return err
}

// ----------------------------------------

const idSummary = "encode and decode object ids"

func idUsage(w io.Writer) {
	fmt.Fprintf(w,
		`Usage: domain id encode <class> <type> <value>
       domain id parse <oid> ...
Encode and decode object ids.

encode prints text form of object id with given class and primary value.
<type> is type of the primary value: Guid, Int32 or String.

parse prints class, type and primary value of every given object id.

See 'domain help oid' for details about object id text form.

Options:

    -h  --help      show this help
`)
}

func idMain(argv []string) {
	flags := flag.FlagSet{Usage: func() { idUsage(os.Stderr) }}
	flags.Init("", flag.ExitOnError)
	flags.Parse(argv[1:])

	argv = flags.Args()
	if len(argv) < 1 {
		flags.Usage()
		prog.Exit(2)
	}

	switch argv[0] {
	case "encode":
		if len(argv) != 4 {
			flags.Usage()
			prog.Exit(2)
		}
		id, err := EncodeID(argv[1], argv[2], argv[3])
		if err != nil {
			prog.Fatal(err)
		}
		fmt.Println(id)

	case "parse":
		if len(argv) < 2 {
			flags.Usage()
			prog.Exit(2)
		}
		for i, text := range argv[1:] {
			if i != 0 {
				fmt.Println()
			}
			err := DescribeID(os.Stdout, text)
			if err != nil {
				prog.Fatal(err)
			}
		}

	default:
		flags.Usage()
		prog.Exit(2)
	}
}
