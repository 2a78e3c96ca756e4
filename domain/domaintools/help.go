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
// registry for all help topics

import "lab.nexedi.com/kirr/go123/prog"

const helpStorage = `Almost every domain command works with a storage.
A storage is specified by its URL:

- sqlite://<path>    for a SQLite storage
- <path>             same as sqlite://<path>
- mem://<name>       for an in-process storage (useful only for tests)

Storages are always opened read-only.

Most commands need to know classes of objects kept in the storage. Classes are
described by mapping document given with -mapping option:

    classes:
      - id: Order
        idKind: Int32
        properties:
          - {name: Number, type: int32}
          - {name: Customer, type: ref, related: Customer}
`

const helpOid = `An object is identified by its class, primary value and type of the
primary value:

	<class>|<value>|<type>

where <type> is one of Guid, Int32 or String, for example

	Order|42|Int32
	Customer|ACME &pipe; Sons|String

'|' in class or value is written as "&pipe;".
`

var helpTopics = prog.HelpRegistry{
	{"storage", "specifying storage and its classes", helpStorage},
	{"oid", "specifying object id", helpOid},
}
