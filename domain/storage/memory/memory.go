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


// Package memory provides storage that keeps objects in memory.
//
// It is registered for mem:// URLs. Every open creates new empty storage.
package memory

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"sync"

	"github.com/re-motion/Trunk-SVN2Git-sub013/domain"
)

// Storage is domain.Storage keeping objects in memory.
type Storage struct {
	url      string
	mapping  domain.Mapping
	readOnly bool

	mu     sync.Mutex
	objtab map[domain.ObjectID]*entry
	head   domain.Serial    // serial of last persist
	seq    map[string]int32 // class -> last allocated int32 id
	closed bool
}

// entry is one stored object.
type entry struct {
	serial domain.Serial
	values map[string]interface{}
}

var (
	_ domain.Storage   = (*Storage)(nil)
	_ domain.Inspector = (*Storage)(nil)
)

// New creates new empty storage.
func New(name string, mapping domain.Mapping) *Storage {
	return &Storage{
		url:     "mem://" + name,
		mapping: mapping,
		objtab:  make(map[domain.ObjectID]*entry),
		seq:     make(map[string]int32),
	}
}

func (s *Storage) URL() string { return s.url }

func (s *Storage) zerr(op string, args interface{}, err error) *domain.OpError {
	return &domain.OpError{URL: s.url, Op: op, Args: args, Err: err}
}

// Head returns serial assigned by the last persist.
func (s *Storage) Head(ctx context.Context) (domain.Serial, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.head, nil
}

// IDs returns ids of all stored objects ordered by their text representation.
func (s *Storage) IDs(ctx context.Context) ([]domain.ObjectID, error) {
	s.mu.Lock()
	idv := make([]domain.ObjectID, 0, len(s.objtab))
	for id := range s.objtab {
		idv = append(idv, id)
	}
	s.mu.Unlock()

	sort.Slice(idv, func(i, j int) bool {
		return idv[i].String() < idv[j].String()
	})
	return idv, nil
}

func (s *Storage) Load(ctx context.Context, id domain.ObjectID) (*domain.Record, error) {
	recv, err := s.LoadMany(ctx, []domain.ObjectID{id}, true)
	if err != nil {
		return nil, err
	}
	return recv[0], nil
}

func (s *Storage) LoadMany(ctx context.Context, idv []domain.ObjectID, throwOnNotFound bool) ([]*domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, s.zerr("load", idv, fmt.Errorf("storage is closed"))
	}

	recv := make([]*domain.Record, len(idv))
	for i, id := range idv {
		e := s.objtab[id]
		if e == nil {
			if throwOnNotFound {
				return nil, s.zerr("load", id, &domain.NoObjectError{ID: id})
			}
			continue
		}

		class, err := s.mapping.Class(id.ClassID)
		if err != nil {
			return nil, s.zerr("load", id, err)
		}
		rec, err := domain.NewExistingRecord(class, id, e.serial, func(p *domain.PropertyDefinition) (interface{}, error) {
			return p.Type.Copy(e.values[p.Name]), nil
		})
		if err != nil {
			return nil, s.zerr("load", id, err)
		}
		recv[i] = rec
	}
	return recv, nil
}

func (s *Storage) Persist(ctx context.Context, recv []*domain.Record) ([]domain.Serial, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, s.zerr("persist", nil, fmt.Errorf("storage is closed"))
	}
	if s.readOnly {
		return nil, s.zerr("persist", nil, fmt.Errorf("storage is read-only"))
	}

	// verify everything before changing anything
	var conflictv []domain.ObjectID
	for _, rec := range recv {
		id := rec.ID()
		e := s.objtab[id]
		switch rec.State() {
		case domain.StateNew:
			if e != nil {
				conflictv = append(conflictv, id)
			}
		case domain.StateChanged, domain.StateDeleted:
			if e == nil || e.serial != rec.Serial() {
				conflictv = append(conflictv, id)
			}
		default:
			return nil, s.zerr("persist", id, fmt.Errorf("cannot persist record in state %s", rec.State()))
		}
	}
	if len(conflictv) != 0 {
		return nil, s.zerr("persist", nil, &domain.ConcurrencyError{IDs: conflictv})
	}

	s.head++
	serialv := make([]domain.Serial, len(recv))
	for i, rec := range recv {
		id := rec.ID()
		if rec.State() == domain.StateDeleted {
			delete(s.objtab, id)
			continue
		}
		s.objtab[id] = &entry{serial: s.head, values: rec.Values()}
		serialv[i] = s.head
	}
	return serialv, nil
}

func (s *Storage) NewObjectID(ctx context.Context, class *domain.ClassDefinition) (domain.ObjectID, error) {
	return domain.GenerateObjectID(class, func() (int32, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.seq[class.ID]++
		return s.seq[class.ID], nil
	})
}

func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func openByURL(ctx context.Context, u *url.URL, opt *domain.OpenOptions) (domain.Storage, error) {
	name := u.Host + u.Path
	s := New(name, opt.Mapping)
	s.readOnly = opt.ReadOnly
	return s, nil
}

func init() {
	domain.RegisterDriver("mem", openByURL)
}
