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
// transaction capabilities: where records are loaded from and persisted to

import (
	"context"
	"fmt"
)

// loader loads records missing in a transaction's working set.
type loader interface {
	// loadRecords returns records for idv in order. Entries for objects
	// that do not exist are nil unless throwOnNotFound.
	loadRecords(ctx context.Context, idv []ObjectID, throwOnNotFound bool) ([]*Record, error)
}

// persister stores committed changes of a transaction.
type persister interface {
	// persist stores changes of recv and returns serials records should
	// have after commit.
	persist(ctx context.Context, recv []*Record) ([]Serial, error)
}

// storageLoader loads records from storage.
type storageLoader struct {
	stor Storage
}

func (l storageLoader) loadRecords(ctx context.Context, idv []ObjectID, throwOnNotFound bool) ([]*Record, error) {
	recv, err := l.stor.LoadMany(ctx, idv, throwOnNotFound)
	if err != nil {
		return nil, err
	}
	if len(recv) != len(idv) {
		return nil, fmt.Errorf("%s: load: %d records returned for %d ids", l.stor.URL(), len(recv), len(idv))
	}
	for i, rec := range recv {
		if rec == nil {
			if throwOnNotFound {
				return nil, &NoObjectError{idv[i]}
			}
			continue
		}
		if rec.id != idv[i] || rec.lifecycle != LifecycleExisting {
			return nil, fmt.Errorf("%s: load %s: got %s", l.stor.URL(), idv[i], rec)
		}
	}
	return recv, nil
}

// parentLoader loads records from parent transaction.
//
// Records are copies of parent's current state; changes to them do not
// affect the parent until committed.
type parentLoader struct {
	parent *Transaction
}

func (l parentLoader) loadRecords(ctx context.Context, idv []ObjectID, throwOnNotFound bool) ([]*Record, error) {
	p := l.parent

	var objv []*Object
	err := p.unlocked(func() (err error) {
		objv, err = p.loadObjects(ctx, idv, throwOnNotFound)
		return err
	})
	if err != nil {
		return nil, err
	}

	recv := make([]*Record, len(idv))
	for i, id := range idv {
		if objv[i] == nil {
			continue
		}
		prec := p.recordtab[id]
		if prec.lifecycle == LifecycleDeleted {
			if throwOnNotFound {
				return nil, &ObjectDeletedError{id}
			}
			continue
		}
		recv[i] = prec.snapshot()
	}
	return recv, nil
}

// storagePersister persists records to storage.
type storagePersister struct {
	stor Storage
}

//
// Records with changes only to transaction scoped properties are not handed
// to storage and keep their serial.
func (s storagePersister) persist(ctx context.Context, recv []*Record) ([]Serial, error) {
	serialv := make([]Serial, len(recv))
	var storev []*Record
	var idxv []int
	for i, rec := range recv {
		serialv[i] = rec.serial
		if rec.hasStoredChanges() {
			storev = append(storev, rec)
			idxv = append(idxv, i)
		}
	}
	if len(storev) == 0 {
		return serialv, nil
	}

	storedv, err := s.stor.Persist(ctx, storev)
	if err != nil {
		return nil, err
	}
	if len(storedv) != len(storev) {
		return nil, fmt.Errorf("%s: persist: %d serials returned for %d records", s.stor.URL(), len(storedv), len(storev))
	}
	for j, i := range idxv {
		serialv[i] = storedv[j]
	}
	return serialv, nil
}

// parentPersister persists records to parent transaction.
type parentPersister struct {
	parent *Transaction
}

func (s parentPersister) persist(ctx context.Context, recv []*Record) ([]Serial, error) {
	p := s.parent
	err := p.unlocked(func() error {
		return p.applyChanges(recv)
	})
	if err != nil {
		return nil, err
	}

	serialv := make([]Serial, len(recv))
	for i, rec := range recv {
		serialv[i] = rec.serial
	}
	return serialv, nil
}

// applyChanges applies changes committed in a subtransaction.
//
// Either all changes are applied, or none.
func (txn *Transaction) applyChanges(recv []*Record) error {
	// verify first
	for _, crec := range recv {
		prec := txn.recordtab[crec.id]
		switch crec.lifecycle {
		case LifecycleNew:
			if prec != nil {
				return fmt.Errorf("%s: %s: object already exists", txn, crec.id)
			}
		case LifecycleExisting, LifecycleDeleted:
			if prec == nil || prec.IsDiscarded() {
				return &ObjectDiscardedError{crec.id}
			}
			if prec.lifecycle == LifecycleDeleted {
				return &ObjectDeletedError{crec.id}
			}
		default:
			return &ObjectDiscardedError{crec.id}
		}
	}

	for _, crec := range recv {
		switch crec.lifecycle {
		case LifecycleNew:
			prec, err := NewRecord(crec.class, crec.id)
			if err != nil {
				return err // cannot happen: crec was created the same way
			}
			for i, p := range crec.propv {
				prec.propv[i].set(p.current)
			}
			if obj := crec.Object(); obj != nil {
				if _, err := txn.objects.Enlist(obj); err != nil {
					return err
				}
			}
			if _, err := txn.register(prec); err != nil {
				return err
			}

		case LifecycleExisting:
			prec := txn.recordtab[crec.id]
			for i, p := range crec.propv {
				if p.HasChanged() {
					prec.propv[i].set(p.current)
				}
			}
			if crec.forcedChanged && prec.lifecycle == LifecycleExisting {
				prec.forcedChanged = true
			}

		case LifecycleDeleted:
			prec := txn.recordtab[crec.id]
			prec.Delete()
			if prec.IsDiscarded() {
				txn.objects.markDiscarded(prec.id)
			}
		}
	}
	return nil
}
