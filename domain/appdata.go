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

package domain

import (
	"sync"
)

// ApplicationData holds application-defined values associated with a
// transaction hierarchy.
//
// One ApplicationData is shared by a root transaction and all its
// subtransactions. It is not affected by commit, rollback or read-only
// state of transactions.
type ApplicationData struct {
	mu sync.Mutex
	m  map[interface{}]interface{}
}

func newApplicationData() *ApplicationData {
	return &ApplicationData{m: make(map[interface{}]interface{})}
}

// Get returns value stored under key.
func (d *ApplicationData) Get(key interface{}) (value interface{}, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	value, ok = d.m[key]
	return value, ok
}

// Set stores value under key.
func (d *ApplicationData) Set(key, value interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.m[key] = value
}

// Delete removes value stored under key.
func (d *ApplicationData) Delete(key interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.m, key)
}

// Len returns number of stored values.
func (d *ApplicationData) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.m)
}
