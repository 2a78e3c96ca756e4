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
	"fmt"
	"sync/atomic"
)

// DB is a handle to a storage and the classes of objects kept there.
//
// DB creates root transactions. It is safe to use DB from multiple
// goroutines simultaneously; transactions created by it are not.
type DB struct {
	stor    Storage
	mapping Mapping
	opt     DBOptions

	txnSeq int64 // for transaction names in logs
}

// DBOptions describes options for NewDB.
type DBOptions struct {
	// Logging adds LoggingListener to pipelines of all transactions.
	Logging bool

	// Listeners are added to pipelines of all transactions, after
	// read-only enforcement and logging, and before extensions.
	Listeners []Listener
}

// NewDB creates new database handle for stor.
func NewDB(stor Storage, mapping Mapping, opt *DBOptions) (*DB, error) {
	if stor == nil {
		return nil, fmt.Errorf("db: no storage")
	}
	if mapping == nil {
		return nil, fmt.Errorf("db: no mapping")
	}
	if opt == nil {
		opt = &DBOptions{}
	}
	db := &DB{stor: stor, mapping: mapping, opt: *opt}
	db.opt.Listeners = append([]Listener(nil), opt.Listeners...)
	return db, nil
}

// Storage returns storage of the database.
func (db *DB) Storage() Storage { return db.stor }

// Mapping returns classes of the database.
func (db *DB) Mapping() Mapping { return db.mapping }

// NewRootTransaction creates new root transaction.
//
// Objects loaded and created in it float.
func (db *DB) NewRootTransaction() *Transaction {
	return db.newTransaction(KindRoot, nil)
}

// NewBindingTransaction creates new root transaction that binds objects.
//
// Every object loaded or created in a binding transaction is permanently
// bound to it and cannot be used in other transactions.
func (db *DB) NewBindingTransaction() *Transaction {
	return db.newTransaction(KindBinding, nil)
}

// Close closes database storage.
func (db *DB) Close() error {
	return db.stor.Close()
}

func (db *DB) newTransaction(kind Kind, parent *Transaction) *Transaction {
	txn := &Transaction{
		db:          db,
		kind:        kind,
		parent:      parent,
		seq:         atomic.AddInt64(&db.txnSeq, 1),
		recordtab:   make(map[ObjectID]*Record),
		collections: make(map[RelationEndPointID]*Collection),
	}
	txn.objects = newIdentityMap(txn)

	if parent == nil {
		txn.extensions = &ExtensionCollection{}
		txn.appData = newApplicationData()
		txn.loader = storageLoader{db.stor}
		txn.persister = storagePersister{db.stor}
	} else {
		txn.extensions = parent.extensions
		txn.appData = parent.appData
		txn.loader = parentLoader{parent}
		txn.persister = parentPersister{parent}
	}

	txn.pipeline = NewPipeline(ReadOnlyListener{})
	if db.opt.Logging {
		txn.pipeline.Add(LoggingListener{})
	}
	for _, l := range db.opt.Listeners {
		txn.pipeline.Add(l)
	}
	txn.pipeline.Add(txn.extensions)

	return txn
}
