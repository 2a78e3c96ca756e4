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

// Domaininfo - print general information about a storage

package domaintools

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"lab.nexedi.com/kirr/go123/prog"
	"lab.nexedi.com/kirr/go123/xerr"

	"github.com/re-motion/Trunk-SVN2Git-sub013/domain"
)

// paramFunc is a function to retrieve 1 storage parameter
type paramFunc func(ctx context.Context, stor domain.Storage) (string, error)

// inspector returns stor as domain.Inspector, or error if stor cannot report its content.
func inspector(stor domain.Storage) (domain.Inspector, error) {
	insp, ok := stor.(domain.Inspector)
	if !ok {
		return nil, fmt.Errorf("%s: storage cannot be inspected", stor.URL())
	}
	return insp, nil
}

var infov = []struct {
	name     string
	getParam paramFunc
}{
	{"name", func(ctx context.Context, stor domain.Storage) (string, error) {
		return stor.URL(), nil
	}},
	{"head", func(ctx context.Context, stor domain.Storage) (string, error) {
		insp, err := inspector(stor)
		if err != nil {
			return "", err
		}
		head, err := insp.Head(ctx)
		return head.String(), err
	}},
	{"objects", func(ctx context.Context, stor domain.Storage) (string, error) {
		insp, err := inspector(stor)
		if err != nil {
			return "", err
		}
		idv, err := insp.IDs(ctx)
		return fmt.Sprintf("%d", len(idv)), err
	}},
}

// {} parameter_name -> get_parameter(stor)
var infoDict = map[string]paramFunc{}

func init() {
	for _, info := range infov {
		infoDict[info.name] = info.getParam
	}
}

// Info prints general information about a storage.
func Info(ctx context.Context, w io.Writer, stor domain.Storage, parameterv []string) error {
	wantnames := false
	if len(parameterv) == 0 {
		for _, info := range infov {
			parameterv = append(parameterv, info.name)
		}
		wantnames = true
	}

	for _, parameter := range parameterv {
		getParam, ok := infoDict[parameter]
		if !ok {
			return fmt.Errorf("invalid parameter: %s", parameter)
		}

		out := ""
		if wantnames {
			out += parameter + "="
		}
		value, err := getParam(ctx, stor)
		if err != nil {
			return fmt.Errorf("getting %s: %v", parameter, err)
		}
		out += value
		fmt.Fprintf(w, "%s\n", out)
	}

	return nil
}

// ----------------------------------------

const infoSummary = "print general information about a storage"

func infoUsage(w io.Writer) {
	fmt.Fprintf(w,
		`Usage: domain info [OPTIONS] <storage> [parameter ...]
Print general information about a storage.

<storage> is an URL (see 'domain help storage') of a storage.

By default info prints information about all storage parameters. If one or
more parameter names are given as arguments, info prints the value of each
named parameter on its own line.

Parameters are:

    name        storage URL
    head        serial assigned by the last commit
    objects     number of stored objects

Options:

    -mapping <file>   load classes from mapping document
    -h  --help        show this help
`)
}

func infoMain(argv []string) {
	flags := flag.FlagSet{Usage: func() { infoUsage(os.Stderr) }}
	flags.Init("", flag.ExitOnError)
	mappingPath := flags.String("mapping", "", "mapping document")
	flags.Parse(argv[1:])

	argv = flags.Args()
	if len(argv) < 1 {
		flags.Usage()
		prog.Exit(2)
	}
	storURL := argv[0]

	ctx := context.Background()

	err := func() (err error) {
		stor, err := openStorage(ctx, storURL, *mappingPath)
		if err != nil {
			return err
		}
		defer func() {
			err = xerr.First(err, stor.Close())
		}()

		return Info(ctx, os.Stdout, stor, argv[1:])
	}()
	if err != nil {
		prog.Fatal(err)
	}
}
