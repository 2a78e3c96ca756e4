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

// ChangeSet answers which records of a transaction's working set have changes.
//
// All queries return records in the order they were added to the working set.
// ChangeSet is a view: results reflect the working set at the time of the call.
type ChangeSet struct {
	txn *Transaction
}

// Changes returns view of transaction's changed records.
func (txn *Transaction) Changes() ChangeSet {
	return ChangeSet{txn}
}

func (cs ChangeSet) filter(f func(rec *Record) bool) []*Record {
	var recv []*Record
	for _, rec := range cs.txn.recordv {
		if f(rec) {
			recv = append(recv, rec)
		}
	}
	return recv
}

func (cs ChangeSet) inState(statev ...State) []*Record {
	return cs.filter(func(rec *Record) bool {
		st := rec.State()
		for _, s := range statev {
			if st == s {
				return true
			}
		}
		return false
	})
}

// New returns records of objects created in the transaction.
func (cs ChangeSet) New() []*Record { return cs.inState(StateNew) }

// Changed returns records of existing objects that were changed.
func (cs ChangeSet) Changed() []*Record { return cs.inState(StateChanged) }

// Deleted returns records of existing objects that were deleted.
func (cs ChangeSet) Deleted() []*Record { return cs.inState(StateDeleted) }

// ChangedOrNew returns records that are either changed or new.
func (cs ChangeSet) ChangedOrNew() []*Record { return cs.inState(StateChanged, StateNew) }

// Dirty returns all records with changes to commit: new, changed and deleted.
func (cs ChangeSet) Dirty() []*Record {
	return cs.filter(func(rec *Record) bool { return rec.State().IsDirty() })
}

// NotIn returns dirty records whose ids are not in set.
func (cs ChangeSet) NotIn(set map[ObjectID]bool) []*Record {
	return cs.filter(func(rec *Record) bool {
		return rec.State().IsDirty() && !set[rec.id]
	})
}
