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

package transaction

import (
	"context"
	"sync"
)

// stack is the ambient stack of active scopes.
//
// one stack is shared by all contexts derived from the context it was
// attached to.
type stack struct {
	mu     sync.Mutex
	scopev []*Scope // innermost last
}

// Scope represents one entered ambient scope.
//
// Scope is created by Enter/EnterNull and must be left exactly once with Leave.
type Scope struct {
	stack  *stack
	txn    Transaction // nil for null scope
	policy AutoRollbackPolicy
	left   bool // protected by stack.mu
}

// ctxKey is the type private to transaction package, used as key in contexts.
type ctxKey struct{}

// getStack returns scope stack associated with provided context.
// nil is returned if there is no association.
func getStack(ctx context.Context) *stack {
	st, _ := ctx.Value(ctxKey{}).(*stack)
	return st
}

// WithStack returns context with new empty scope stack.
//
// It should be used at the beginning of a goroutine that is going to use
// ambient scopes independently of its parent.
func WithStack(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, &stack{})
}

// currentTxn serves Current.
func currentTxn(ctx context.Context) (Transaction, error) {
	st := getStack(ctx)
	if st == nil {
		return nil, ErrNoCurrentTransaction
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	l := len(st.scopev)
	if l == 0 || st.scopev[l-1].txn == nil {
		return nil, ErrNoCurrentTransaction
	}
	return st.scopev[l-1].txn, nil
}

// enter serves Enter and EnterNull.
func enter(ctx context.Context, txn Transaction, policy AutoRollbackPolicy) (*Scope, context.Context, error) {
	st := getStack(ctx)
	if st == nil {
		ctx = WithStack(ctx)
		st = getStack(ctx)
	}

	scope := &Scope{stack: st, txn: txn, policy: policy}

	st.mu.Lock()
	st.scopev = append(st.scopev, scope)
	st.mu.Unlock()

	return scope, ctx, nil
}

// Transaction returns transaction of the scope, or nil for null scope.
func (s *Scope) Transaction() Transaction {
	return s.txn
}

// Policy returns auto-rollback policy of the scope.
func (s *Scope) Policy() AutoRollbackPolicy {
	return s.policy
}

// IsActive returns whether the scope was not yet left.
func (s *Scope) IsActive() bool {
	s.stack.mu.Lock()
	defer s.stack.mu.Unlock()
	return !s.left
}

// Leave leaves the scope.
//
// The previous scope becomes current again. Then, according to scope policy,
// scope's transaction is rolled back or discarded. The scope is left even if
// that rollback or discard fails; the failure is returned.
//
// Leave fails without any effect if the scope was already left, or if it is
// not the innermost active scope.
func (s *Scope) Leave(ctx context.Context) error {
	st := s.stack

	st.mu.Lock()
	if s.left {
		st.mu.Unlock()
		return ErrScopeLeft
	}
	l := len(st.scopev)
	if l == 0 || st.scopev[l-1] != s {
		st.mu.Unlock()
		return ErrScopeNotInnermost
	}
	st.scopev[l-1] = nil
	st.scopev = st.scopev[:l-1]
	s.left = true
	st.mu.Unlock()

	if s.txn == nil {
		return nil
	}

	switch s.policy {
	case RollbackIfDirty:
		if s.txn.HasChanged() {
			return s.txn.Rollback(ctx)
		}
	case DiscardAlways:
		return s.txn.Discard(ctx)
	}
	return nil
}
