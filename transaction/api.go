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

// Package transaction provides ambient transaction scopes.
//
// Code that works with domain objects frequently does not receive the
// transaction it operates in as an explicit parameter. Instead the
// transaction is made current for a region of code by entering a scope:
//
//	scope, ctx, err := transaction.Enter(ctx, txn, transaction.RollbackIfDirty)
//	if err != nil {
//		return err
//	}
//	defer scope.Leave(ctx)
//
//	... // code here sees txn via transaction.Current(ctx)
//
// Scopes form a stack which is carried by context. Contrary to thread-local
// storage the stack is associated with the context chain that was returned by
// Enter (or prepared with WithStack), so every goroutine that drives its own
// transaction tree should start from its own stack. Two goroutines working on
// independent stacks never interfere with each other.
//
// Scopes must be left in reverse order of entering. Leaving a scope restores
// the previous one as current and, depending on scope policy, rolls back or
// discards the scope's transaction.
//
// Run is the convenience form which guarantees the scope is left on every
// exit path:
//
//	err := transaction.Run(ctx, txn, transaction.DiscardAlways, func(ctx context.Context) error {
//		...
//	})
package transaction

import (
	"context"
	"errors"
)

// Transaction is the part of a transaction that scopes need to manage.
//
// It is implemented by *domain.Transaction.
type Transaction interface {
	// HasChanged reports whether the transaction has uncommitted changes.
	HasChanged() bool

	// Rollback reverts all uncommitted changes of the transaction.
	Rollback(ctx context.Context) error

	// Discard makes the transaction permanently unusable.
	Discard(ctx context.Context) error
}

// AutoRollbackPolicy tells what to do with scope's transaction when the scope is left.
type AutoRollbackPolicy int

const (
	None            AutoRollbackPolicy = iota // leave the transaction as is
	RollbackIfDirty                           // rollback if the transaction has uncommitted changes
	DiscardAlways                             // discard the transaction
)

func (p AutoRollbackPolicy) String() string {
	switch p {
	case None:
		return "none"
	case RollbackIfDirty:
		return "rollback-if-dirty"
	case DiscardAlways:
		return "discard-always"
	}
	return "policy(?)"
}

var (
	// ErrNoCurrentTransaction is returned by Current when no scope with a
	// transaction is active.
	ErrNoCurrentTransaction = errors.New("transaction: no current transaction")

	// ErrScopeLeft is returned by Scope.Leave if the scope was already left.
	ErrScopeLeft = errors.New("transaction: scope: already left")

	// ErrScopeNotInnermost is returned by Scope.Leave if the scope is not
	// the innermost active scope.
	ErrScopeNotInnermost = errors.New("transaction: scope: not the innermost active scope")
)

// Current returns transaction of the innermost active scope.
//
// ErrNoCurrentTransaction is returned if there is no active scope, or if the
// innermost scope was entered with EnterNull.
func Current(ctx context.Context) (Transaction, error) {
	return currentTxn(ctx)
}

// HasCurrent returns whether Current would succeed.
func HasCurrent(ctx context.Context) bool {
	txn, _ := currentTxn(ctx)
	return txn != nil
}

// MustCurrent is like Current but panics if there is no current transaction.
func MustCurrent(ctx context.Context) Transaction {
	txn, err := currentTxn(ctx)
	if err != nil {
		panic(err)
	}
	return txn
}

// Enter makes txn current until returned scope is left.
//
// The returned context carries the scope stack and must be used by code
// running inside the scope.
func Enter(ctx context.Context, txn Transaction, policy AutoRollbackPolicy) (*Scope, context.Context, error) {
	if txn == nil {
		return nil, ctx, errors.New("transaction: enter: nil transaction")
	}
	return enter(ctx, txn, policy)
}

// EnterNull enters a scope without transaction.
//
// Inside such scope there is no current transaction even if outer scopes have one.
func EnterNull(ctx context.Context) (*Scope, context.Context) {
	scope, ctx, _ := enter(ctx, nil, None)
	return scope, ctx
}

// Run runs f with txn being current and leaves the scope when f returns.
//
// The scope is left on every exit path of f including panics. Error from f
// takes precedence over error from leaving the scope.
func Run(ctx context.Context, txn Transaction, policy AutoRollbackPolicy, f func(ctx context.Context) error) (err error) {
	scope, ctx, err := Enter(ctx, txn, policy)
	if err != nil {
		return err
	}
	defer func() {
		errLeave := scope.Leave(ctx)
		if err == nil {
			err = errLeave
		}
	}()

	return f(ctx)
}
