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
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// tTxn is Transaction that records what scopes did to it.
type tTxn struct {
	name      string
	dirty     bool
	rollbacks int
	discards  int
	err       error // returned by Rollback and Discard
}

func (t *tTxn) HasChanged() bool { return t.dirty }

func (t *tTxn) Rollback(ctx context.Context) error {
	t.rollbacks++
	t.dirty = false
	return t.err
}

func (t *tTxn) Discard(ctx context.Context) error {
	t.discards++
	return t.err
}

func TestBasic(t *testing.T) {
	assert := require.New(t)
	ctx := context.Background()

	// Current(ø) -> error
	_, err := Current(ctx)
	assert.Equal(ErrNoCurrentTransaction, err)
	assert.False(HasCurrent(ctx))

	// MustCurrent(ø) -> panic
	func() {
		defer func() {
			r := recover()
			if r == nil {
				t.Fatal("MustCurrent(ø) -> not paniced")
			}
			if r != ErrNoCurrentTransaction {
				t.Fatalf("MustCurrent(ø) -> %v;  want %v", r, ErrNoCurrentTransaction)
			}
		}()

		MustCurrent(ctx)
	}()

	t1 := &tTxn{name: "t1"}
	s1, ctx1, err := Enter(ctx, t1, None)
	assert.NoError(err)
	assert.True(HasCurrent(ctx1))
	cur, err := Current(ctx1)
	assert.NoError(err)
	assert.Equal(Transaction(t1), cur)

	// nested scope shadows the outer one
	t2 := &tTxn{name: "t2"}
	s2, ctx2, err := Enter(ctx1, t2, None)
	assert.NoError(err)
	assert.Equal(Transaction(t2), MustCurrent(ctx2))
	// the stack is shared - ctx1 sees innermost scope as well
	assert.Equal(Transaction(t2), MustCurrent(ctx1))

	// leaving not innermost scope fails and changes nothing
	assert.Equal(ErrScopeNotInnermost, s1.Leave(ctx1))
	assert.True(s1.IsActive())

	assert.NoError(s2.Leave(ctx2))
	assert.False(s2.IsActive())
	assert.Equal(Transaction(t1), MustCurrent(ctx1))

	// double leave
	assert.Equal(ErrScopeLeft, s2.Leave(ctx2))

	assert.NoError(s1.Leave(ctx1))
	assert.False(HasCurrent(ctx1))

	// nil transaction is rejected
	_, _, err = Enter(ctx, nil, None)
	assert.Error(err)
}

func TestNullScope(t *testing.T) {
	assert := require.New(t)
	ctx := context.Background()

	t1 := &tTxn{name: "t1"}
	s1, ctx, err := Enter(ctx, t1, None)
	assert.NoError(err)

	null, ctx := EnterNull(ctx)
	assert.False(HasCurrent(ctx))
	assert.Nil(null.Transaction())

	assert.NoError(null.Leave(ctx))
	assert.True(HasCurrent(ctx))
	assert.NoError(s1.Leave(ctx))
}

func TestAutoRollbackPolicy(t *testing.T) {
	assert := require.New(t)

	var testv = []struct {
		policy        AutoRollbackPolicy
		dirty         bool
		wantRollbacks int
		wantDiscards  int
	}{
		{None, false, 0, 0},
		{None, true, 0, 0},
		{RollbackIfDirty, false, 0, 0},
		{RollbackIfDirty, true, 1, 0},
		{DiscardAlways, false, 0, 1},
		{DiscardAlways, true, 0, 1},
	}

	for _, tt := range testv {
		txn := &tTxn{dirty: tt.dirty}
		scope, ctx, err := Enter(context.Background(), txn, tt.policy)
		assert.NoError(err)
		assert.Equal(tt.policy, scope.Policy())
		assert.NoError(scope.Leave(ctx))

		if !(txn.rollbacks == tt.wantRollbacks && txn.discards == tt.wantDiscards) {
			t.Errorf("%s dirty=%v:\nhave: rollbacks=%d discards=%d\nwant: rollbacks=%d discards=%d",
				tt.policy, tt.dirty, txn.rollbacks, txn.discards, tt.wantRollbacks, tt.wantDiscards)
		}
	}
}

func TestRun(t *testing.T) {
	assert := require.New(t)
	ctx := context.Background()

	// scope is left and policy applied even when f fails
	txn := &tTxn{dirty: true}
	ferr := errors.New("f failed")
	err := Run(ctx, txn, RollbackIfDirty, func(ctx context.Context) error {
		assert.Equal(Transaction(txn), MustCurrent(ctx))
		return ferr
	})
	assert.Equal(ferr, err)
	assert.Equal(1, txn.rollbacks)

	// error from leave is reported if f succeeded
	lerr := errors.New("discard failed")
	txn = &tTxn{err: lerr}
	err = Run(ctx, txn, DiscardAlways, func(ctx context.Context) error {
		return nil
	})
	assert.Equal(lerr, err)

	// panic still leaves the scope
	ctx = WithStack(ctx)
	txn = &tTxn{}
	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("Run: panic not propagated")
			}
		}()
		_ = Run(ctx, txn, DiscardAlways, func(ctx context.Context) error {
			panic("boom")
		})
	}()
	assert.Equal(1, txn.discards)
	assert.False(HasCurrent(ctx))
}

// independent stacks do not see each other's scopes.
func TestIndependentStacks(t *testing.T) {
	ctx := context.Background()

	wg, _ := errgroup.WithContext(ctx)
	for i := 0; i < 8; i++ {
		wg.Go(func() error {
			ctx := WithStack(ctx)
			for j := 0; j < 100; j++ {
				txn := &tTxn{}
				err := Run(ctx, txn, None, func(ctx context.Context) error {
					cur, err := Current(ctx)
					if err != nil {
						return err
					}
					if cur != txn {
						return errors.New("foreign transaction seen in own scope")
					}
					return nil
				})
				if err != nil {
					return err
				}
			}
			if HasCurrent(ctx) {
				return errors.New("scope leaked")
			}
			return nil
		})
	}

	if err := wg.Wait(); err != nil {
		t.Fatal(err)
	}
}
