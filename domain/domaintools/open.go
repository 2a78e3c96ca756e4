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
// opening storages for commands

import (
	"context"

	"github.com/re-motion/Trunk-SVN2Git-sub013/domain"
	"github.com/re-motion/Trunk-SVN2Git-sub013/domain/mapping"

	// storage drivers
	_ "github.com/re-motion/Trunk-SVN2Git-sub013/domain/storage/memory"
	_ "github.com/re-motion/Trunk-SVN2Git-sub013/domain/storage/sqlite"
)

// openStorage opens storage at storURL read-only.
//
// Classes are loaded from mapping document at mappingPath. If mappingPath is
// empty the storage is opened without any classes, which is enough to query
// its head and object ids.
func openStorage(ctx context.Context, storURL, mappingPath string) (domain.Storage, error) {
	var m *domain.MappingRegistry
	var err error
	if mappingPath != "" {
		m, err = mapping.LoadFile(mappingPath)
	} else {
		m, err = domain.NewMappingRegistry()
	}
	if err != nil {
		return nil, err
	}

	return domain.OpenStorage(ctx, storURL, &domain.OpenOptions{ReadOnly: true, Mapping: m})
}
