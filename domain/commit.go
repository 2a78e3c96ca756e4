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
// commit and rollback

import (
	"context"

	"github.com/re-motion/Trunk-SVN2Git-sub013/internal/log"
)

// completion is what is being done to a transaction: commit or rollback.
type completion struct {
	name string

	objectEvent     ObjectEvent // per-object "about to"
	objectDoneEvent ObjectEvent // per-object "done"

	objectCompleting func(l Listener, ctx context.Context, txn *Transaction, obj *Object) error
	completing       func(l Listener, ctx context.Context, txn *Transaction, objv []*Object) error
	objectCompleted  func(l Listener, ctx context.Context, txn *Transaction, obj *Object)
	completed        func(l Listener, ctx context.Context, txn *Transaction, objv []*Object)
}

var commitCompletion = &completion{
	name:             "commit",
	objectEvent:      EventCommitting,
	objectDoneEvent:  EventCommitted,
	objectCompleting: Listener.ObjectCommitting,
	completing:       Listener.Committing,
	objectCompleted:  Listener.ObjectCommitted,
	completed:        Listener.Committed,
}

var rollbackCompletion = &completion{
	name:             "rollback",
	objectEvent:      EventRollingBack,
	objectDoneEvent:  EventRolledBack,
	objectCompleting: Listener.ObjectRollingBack,
	completing:       Listener.RollingBack,
	objectCompleted:  Listener.ObjectRolledBack,
	completed:        Listener.RolledBack,
}

// notifyObject tells obj's handlers and the pipeline that obj is about to be completed.
func (txn *Transaction) notifyObject(ctx context.Context, c *completion, obj *Object) error {
	for _, h := range obj.handlers(c.objectEvent) {
		if err := h(ctx, txn, obj); err != nil {
			return err
		}
	}
	return c.objectCompleting(txn.pipeline, ctx, txn, obj)
}

// notifyObjectDone tells obj's handlers and the pipeline that obj was completed.
func (txn *Transaction) notifyObjectDone(ctx context.Context, c *completion, obj *Object) {
	for _, h := range obj.handlers(c.objectDoneEvent) {
		if err := h(ctx, txn, obj); err != nil {
			log.Warningf(ctx, "%s: %s: %s handler: %s", txn, obj, c.objectDoneEvent, err)
		}
	}
	c.objectCompleted(txn.pipeline, ctx, txn, obj)
}

func objectsOf(recv []*Record) []*Object {
	objv := make([]*Object, 0, len(recv))
	for _, rec := range recv {
		objv = append(objv, rec.Object())
	}
	return objv
}

// notifyCompleting runs the "about to" notification protocol of completion c.
//
// Every object that is dirty gets exactly one per-object notification, and
// every such object is included into exactly one transaction-level
// notification which is delivered after its per-object one. Notified code
// may change, create or discard objects: the protocol repeats until all
// dirty objects are notified.
func (txn *Transaction) notifyCompleting(ctx context.Context, c *completion) error {
	objectNotified := make(map[ObjectID]bool)
	txnNotified := make(map[ObjectID]bool)

	for {
		for {
			pending := txn.Changes().NotIn(objectNotified)
			if len(pending) == 0 {
				break
			}
			for _, rec := range pending {
				// handlers of previously notified objects could discard it
				if rec.IsDiscarded() {
					continue
				}
				if err := txn.notifyObject(ctx, c, rec.Object()); err != nil {
					return err
				}
				if !rec.IsDiscarded() {
					objectNotified[rec.id] = true
				}
			}
		}

		snapshot := txn.Changes().NotIn(txnNotified)
		if err := c.completing(txn.pipeline, ctx, txn, objectsOf(snapshot)); err != nil {
			return err
		}
		for _, rec := range snapshot {
			txnNotified[rec.id] = true
		}

		if len(txn.Changes().NotIn(txnNotified)) == 0 {
			return nil
		}
	}
}

// Commit commits changes of the transaction.
//
// Changes of a root transaction are persisted to storage, changes of a
// subtransaction are applied to its parent. On failure to persist
// *CommitError is returned and the transaction is left as it was.
//
// Before anything is persisted, every dirty object is notified that it is
// about to be committed, and then the whole transaction is. Any of those
// notifications can abort the commit by returning an error.
func (txn *Transaction) Commit(ctx context.Context) error {
	if err := txn.checkValid("commit"); err != nil {
		return err
	}
	if err := checkReadOnly(txn, "commit"); err != nil {
		return err
	}

	if err := txn.notifyCompleting(ctx, commitCompletion); err != nil {
		return err
	}

	recv := txn.Changes().Dirty()
	if len(recv) != 0 {
		serialv, err := txn.persister.persist(ctx, recv)
		if err != nil {
			return &CommitError{err}
		}
		for i, rec := range recv {
			if rec.lifecycle != LifecycleDeleted {
				rec.serial = serialv[i]
			}
			rec.Commit()
			if rec.IsDiscarded() {
				txn.objects.markDiscarded(rec.id)
			}
		}
	}

	objv := objectsOf(recv)
	for _, obj := range objv {
		txn.notifyObjectDone(ctx, commitCompletion, obj)
	}
	commitCompletion.completed(txn.pipeline, ctx, txn, objv)
	return nil
}

// Rollback reverts uncommitted changes of the transaction.
//
// Changed and deleted objects get their original state back. New objects
// are discarded. Notifications are the same as with Commit.
func (txn *Transaction) Rollback(ctx context.Context) error {
	if err := txn.checkValid("rollback"); err != nil {
		return err
	}
	if err := checkReadOnly(txn, "rollback"); err != nil {
		return err
	}

	if err := txn.notifyCompleting(ctx, rollbackCompletion); err != nil {
		return err
	}

	recv := txn.Changes().Dirty()
	for _, rec := range recv {
		rec.Rollback()
		if rec.IsDiscarded() {
			txn.objects.markDiscarded(rec.id)
		}
	}

	objv := objectsOf(recv)
	for _, obj := range objv {
		txn.notifyObjectDone(ctx, rollbackCompletion, obj)
	}
	rollbackCompletion.completed(txn.pipeline, ctx, txn, objv)
	return nil
}
