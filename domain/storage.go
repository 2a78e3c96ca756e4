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
// storage interfaces and opening storages by URL

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Storage is where root transactions load objects from and persist changes to.
//
// Storage implementations must be safe to use from multiple goroutines
// simultaneously.
type Storage interface {
	// URL returns URL of how the storage was opened.
	URL() string

	// Load loads object with id.
	//
	// If there is no such object *NoObjectError is returned.
	Load(ctx context.Context, id ObjectID) (*Record, error)

	// LoadMany loads objects with ids in idv.
	//
	// Returned records are in the order of idv. If an object does not
	// exist, either *NoObjectError is returned (throwOnNotFound), or the
	// corresponding entry is nil.
	LoadMany(ctx context.Context, idv []ObjectID, throwOnNotFound bool) ([]*Record, error)

	// Persist stores changes of records atomically.
	//
	// New records are created, changed records are updated and deleted
	// records are removed. Either all changes are stored, or none is.
	// If a changed or deleted record's serial does not match what is in
	// storage, or a new record's object already exists there,
	// *ConcurrencyError is returned.
	//
	// On success serials assigned to records are returned in the order of
	// recv. Persist does not modify the records.
	Persist(ctx context.Context, recv []*Record) ([]Serial, error)

	// NewObjectID allocates id for new object of class.
	NewObjectID(ctx context.Context, class *ClassDefinition) (ObjectID, error)

	Close() error
}

// Inspector is optionally implemented by storages that can report what they
// contain.
type Inspector interface {
	// Head returns serial assigned by the last persist.
	Head(ctx context.Context) (Serial, error)

	// IDs returns ids of all stored objects.
	IDs(ctx context.Context) ([]ObjectID, error)
}

// GenerateObjectID allocates new id for an object of class.
//
// Guid and String ids are generated randomly. Int32 ids are taken from
// nextInt32.
func GenerateObjectID(class *ClassDefinition, nextInt32 func() (int32, error)) (ObjectID, error) {
	switch class.IDKind {
	case KindGuid, KindInvalid:
		return NewObjectID(class.ID, uuid.New())
	case KindString:
		return NewObjectID(class.ID, uuid.NewString())
	case KindInt32:
		n, err := nextInt32()
		if err != nil {
			return ObjectID{}, err
		}
		return NewObjectID(class.ID, n)
	}
	return ObjectID{}, fmt.Errorf("class %s: cannot allocate %s id", class.ID, class.IDKind)
}

// ---- open storages by URL ----

// OpenOptions describes options for OpenStorage.
type OpenOptions struct {
	ReadOnly bool    // whether to open storage as read-only
	Mapping  Mapping // classes of objects kept in the storage
}

// DriverOpener is a function to open a storage driver.
type DriverOpener func(ctx context.Context, u *url.URL, opt *OpenOptions) (Storage, error)

var (
	driverMu       sync.Mutex
	driverRegistry = map[string]DriverOpener{} // scheme -> opener
)

// RegisterDriver registers opener to be used for URLs with scheme.
func RegisterDriver(scheme string, opener DriverOpener) {
	driverMu.Lock()
	defer driverMu.Unlock()

	if _, already := driverRegistry[scheme]; already {
		panic(fmt.Errorf("storage URL scheme %q was already registered", scheme))
	}
	driverRegistry[scheme] = opener
}

// OpenStorage opens storage by URL.
//
// Only URL schemes registered with RegisterDriver are handled. URLs without
// scheme are treated as sqlite:// paths.
func OpenStorage(ctx context.Context, storageURL string, opt *OpenOptions) (Storage, error) {
	if opt == nil || opt.Mapping == nil {
		return nil, fmt.Errorf("open %s: no mapping", storageURL)
	}

	// no scheme -> sqlite://
	if !strings.Contains(storageURL, "://") {
		storageURL = "sqlite://" + storageURL
	}

	u, err := url.Parse(storageURL)
	if err != nil {
		return nil, err
	}

	driverMu.Lock()
	opener, ok := driverRegistry[u.Scheme]
	driverMu.Unlock()
	if !ok {
		return nil, fmt.Errorf("storage URL scheme \"%s://\" not supported", u.Scheme)
	}

	return opener(ctx, u, opt)
}
