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

// Package metrics exports statistics about transactions to Prometheus.
//
// Listener is added either to all transactions of a database:
//
//	m, err := metrics.NewListener(prometheus.DefaultRegisterer)
//	db, err := domain.NewDB(stor, mapping, &domain.DBOptions{Listeners: []domain.Listener{m}})
//
// or to one transaction hierarchy as an extension:
//
//	err = txn.Extensions().Add(m)
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/re-motion/Trunk-SVN2Git-sub013/domain"
)

const namespace = "domain"

// Listener counts notifications of transactions it is attached to.
//
// It never vetoes anything.
type Listener struct {
	domain.NopListener

	loaded     *prometheus.CounterVec // class
	created    *prometheus.CounterVec // class
	deleted    *prometheus.CounterVec // class
	commits    *prometheus.CounterVec // transaction kind
	committed  prometheus.Counter
	rollbacks  *prometheus.CounterVec // transaction kind
	rolledBack prometheus.Counter
	subs       prometheus.Counter
	discarded  prometheus.Counter
	vetoes     *prometheus.CounterVec // notification
}

var (
	_ domain.Listener     = (*Listener)(nil)
	_ domain.Extension    = (*Listener)(nil)
	_ domain.VetoObserver = (*Listener)(nil)
)

// NewListener creates new Listener with its metrics registered in reg.
func NewListener(reg prometheus.Registerer) (*Listener, error) {
	m := &Listener{
		loaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objects_loaded_total",
			Help:      "Number of objects loaded into transactions.",
		}, []string{"class"}),
		created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objects_created_total",
			Help:      "Number of requests to create new objects.",
		}, []string{"class"}),
		deleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objects_deleted_total",
			Help:      "Number of objects deleted in transactions.",
		}, []string{"class"}),
		commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commits_total",
			Help:      "Number of completed commits.",
		}, []string{"kind"}),
		committed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "committed_objects_total",
			Help:      "Number of objects persisted by completed commits.",
		}),
		rollbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rollbacks_total",
			Help:      "Number of completed rollbacks.",
		}, []string{"kind"}),
		rolledBack: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rolled_back_objects_total",
			Help:      "Number of objects reverted by completed rollbacks.",
		}),
		subs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subtransactions_created_total",
			Help:      "Number of subtransactions created.",
		}),
		discarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_discarded_total",
			Help:      "Number of discarded transactions.",
		}),
		vetoes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vetoes_total",
			Help:      "Number of operations aborted by a listener.",
		}, []string{"notification"}),
	}

	for _, c := range []prometheus.Collector{
		m.loaded, m.created, m.deleted,
		m.commits, m.committed, m.rollbacks, m.rolledBack,
		m.subs, m.discarded, m.vetoes,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Key implements domain.Extension.
func (m *Listener) Key() string { return "metrics" }

func (m *Listener) SubTransactionCreated(ctx context.Context, txn, sub *domain.Transaction) {
	m.subs.Inc()
}

func (m *Listener) NewObjectCreating(ctx context.Context, txn *domain.Transaction, class *domain.ClassDefinition) error {
	m.created.WithLabelValues(class.ID).Inc()
	return nil
}

func (m *Listener) ObjectsLoaded(ctx context.Context, txn *domain.Transaction, objv []*domain.Object) {
	for _, obj := range objv {
		m.loaded.WithLabelValues(obj.ClassID()).Inc()
	}
}

func (m *Listener) ObjectDeleted(ctx context.Context, txn *domain.Transaction, obj *domain.Object) {
	m.deleted.WithLabelValues(obj.ClassID()).Inc()
}

func (m *Listener) Committed(ctx context.Context, txn *domain.Transaction, objv []*domain.Object) {
	m.commits.WithLabelValues(txn.Kind().String()).Inc()
	m.committed.Add(float64(len(objv)))
}

func (m *Listener) RolledBack(ctx context.Context, txn *domain.Transaction, objv []*domain.Object) {
	m.rollbacks.WithLabelValues(txn.Kind().String()).Inc()
	m.rolledBack.Add(float64(len(objv)))
}

func (m *Listener) TransactionDiscarded(ctx context.Context, txn *domain.Transaction) {
	m.discarded.Inc()
}

// Vetoed implements domain.VetoObserver.
func (m *Listener) Vetoed(ctx context.Context, txn *domain.Transaction, notification string, err error) {
	m.vetoes.WithLabelValues(notification).Inc()
}
