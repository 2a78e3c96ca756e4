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

// Package sqlite provides domain storage that keeps objects in SQLite database.
//
// It is registered for sqlite:// URLs, which are also the default for URLs
// without scheme:
//
//	stor, err := domain.OpenStorage(ctx, "data.db", &domain.OpenOptions{Mapping: m})
package sqlite

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	sqlite3 "github.com/gwenn/gosqlite"
	"github.com/pkg/errors"

	"github.com/re-motion/Trunk-SVN2Git-sub013/domain"
	"github.com/re-motion/Trunk-SVN2Git-sub013/internal/log"
	"github.com/re-motion/Trunk-SVN2Git-sub013/internal/task"
)

const schemaVersion = 1

// ---- schema ----

// table "config" stores storage parameters: schema version and head serial.
const config = `
	name	TEXT NOT NULL PRIMARY KEY,
	value	INTEGER NOT NULL
`

// table "obj" stores current state of objects.
const obj = `
	oid	TEXT NOT NULL PRIMARY KEY,	-- object id in text form
	class	TEXT NOT NULL,
	serial	INTEGER NOT NULL,
	data	BLOB NOT NULL			-- property values, see codec.go
`

// table "seq" stores last allocated int32 id per class.
const seq = `
	class	TEXT NOT NULL PRIMARY KEY,
	last	INTEGER NOT NULL
`

// Storage is domain.Storage keeping objects in SQLite database.
type Storage struct {
	url      string
	mapping  domain.Mapping
	readOnly bool

	pool *connPool

	// serializes writers of this process; other processes are waited
	// for by sqlite busy timeout.
	wmu sync.Mutex
}

var (
	_ domain.Storage   = (*Storage)(nil)
	_ domain.Inspector = (*Storage)(nil)
)

// loadBatch is how many objects are loaded by one worker of LoadMany.
const loadBatch = 32

// busyTimeout is how long a connection waits for database locked by others.
const busyTimeout = 5 * time.Second

func (s *Storage) URL() string { return s.url }

func (s *Storage) zerr(op string, args interface{}, err error) *domain.OpError {
	return &domain.OpError{URL: s.url, Op: op, Args: args, Err: err}
}

// query runs q and calls f for every resulting row.
func query(conn *sqlite3.Conn, q string, f func(st *sqlite3.Stmt) error, argv ...interface{}) error {
	st, err := conn.Prepare(q, argv...)
	if err != nil {
		return err
	}
	defer st.Finalize()

	for {
		ok, err := st.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := f(st); err != nil {
			return err
		}
	}
}

// inTx runs f inside immediate transaction on conn.
//
// The transaction is committed if f succeeds and rolled back otherwise.
func inTx(conn *sqlite3.Conn, f func() error) (err error) {
	if err := conn.Exec("BEGIN IMMEDIATE"); err != nil {
		return err
	}
	defer func() {
		if err != nil {
			conn.Exec("ROLLBACK")
		}
	}()

	if err = f(); err != nil {
		return err
	}
	return conn.Exec("COMMIT")
}

// getConfig returns value of config parameter name.
func getConfig(conn *sqlite3.Conn, name string) (value int64, ok bool, err error) {
	err = query(conn, "SELECT value FROM config WHERE name = ?", func(st *sqlite3.Stmt) error {
		ok = true
		return st.Scan(&value)
	}, name)
	return value, ok, err
}

func setConfig(conn *sqlite3.Conn, name string, value int64) error {
	return conn.Exec("INSERT OR REPLACE INTO config (name, value) VALUES (?, ?)", name, value)
}

// ---- open ----

// Open opens SQLite database at path as domain storage.
//
// Unless opt.ReadOnly, the database is created if it does not exist.
func Open(ctx context.Context, path string, opt *domain.OpenOptions) (_ *Storage, err error) {
	defer task.Runningf(&ctx, "sqlite: open %s", path)(&err)

	if opt == nil || opt.Mapping == nil {
		return nil, errors.New("no mapping")
	}
	if opt.ReadOnly {
		if _, err := os.Stat(path); err != nil {
			return nil, err
		}
	}

	s := &Storage{
		url:      "sqlite://" + path,
		mapping:  opt.Mapping,
		readOnly: opt.ReadOnly,
	}
	s.pool = newConnPool(func() (*sqlite3.Conn, error) {
		conn, err := sqlite3.Open(path)
		if err != nil {
			return nil, err
		}
		if err := conn.BusyTimeout(busyTimeout); err != nil {
			conn.Close()
			return nil, err
		}
		return conn, nil
	})

	var head int64
	err = s.pool.withConn(func(conn *sqlite3.Conn) error {
		if err := s.setup(conn); err != nil {
			return err
		}
		head, _, err = getConfig(conn, "head")
		return err
	})
	if err != nil {
		s.pool.Close()
		return nil, err
	}

	if log.V(1) {
		log.Infof(ctx, "head: %s", domain.Serial(head))
	}
	return s, nil
}

// setup creates schema if needed and verifies its version.
func (s *Storage) setup(conn *sqlite3.Conn) error {
	if !s.readOnly {
		err := inTx(conn, func() error {
			for _, table := range []struct{ name, schema string }{
				{"config", config},
				{"obj", obj},
				{"seq", seq},
			} {
				err := conn.Exec(fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table.name, table.schema))
				if err != nil {
					return err
				}
			}
			return conn.Exec("INSERT OR IGNORE INTO config (name, value) VALUES ('version', ?)", int64(schemaVersion))
		})
		if err != nil {
			return err
		}
	}

	version, ok, err := getConfig(conn, "version")
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("not a domain storage: no schema version")
	}
	if version != schemaVersion {
		return errors.Errorf("schema version %d; supported: %d", version, schemaVersion)
	}
	return nil
}

func openByURL(ctx context.Context, u *url.URL, opt *domain.OpenOptions) (domain.Storage, error) {
	path := u.Host + u.Path
	return Open(ctx, path, opt)
}

func init() {
	domain.RegisterDriver("sqlite", openByURL)
}

// Close closes the storage.
func (s *Storage) Close() error {
	return s.pool.Close()
}

// ---- load ----

// Head returns serial assigned by the last persist.
func (s *Storage) Head(ctx context.Context) (head domain.Serial, err error) {
	err = s.pool.withConn(func(conn *sqlite3.Conn) error {
		h, _, err := getConfig(conn, "head")
		head = domain.Serial(h)
		return err
	})
	if err != nil {
		return domain.InvalidSerial, s.zerr("head", nil, err)
	}
	return head, nil
}

// IDs returns ids of all stored objects ordered by their text representation.
func (s *Storage) IDs(ctx context.Context) (idv []domain.ObjectID, err error) {
	err = s.pool.withConn(func(conn *sqlite3.Conn) error {
		return query(conn, "SELECT oid FROM obj ORDER BY oid", func(st *sqlite3.Stmt) error {
			var text string
			if err := st.Scan(&text); err != nil {
				return err
			}
			id, err := domain.ParseObjectID(text)
			if err != nil {
				return err
			}
			idv = append(idv, id)
			return nil
		})
	})
	if err != nil {
		return nil, s.zerr("ids", nil, err)
	}
	return idv, nil
}

// loadOne loads object id using conn. nil is returned if there is no such object.
func (s *Storage) loadOne(conn *sqlite3.Conn, id domain.ObjectID) (*domain.Record, error) {
	class, err := s.mapping.Class(id.ClassID)
	if err != nil {
		return nil, err
	}

	found := false
	var serial int64
	var data []byte
	err = query(conn, "SELECT serial, data FROM obj WHERE oid = ?", func(st *sqlite3.Stmt) error {
		found = true
		return st.Scan(&serial, &data)
	}, id.String())
	if err != nil || !found {
		return nil, err
	}

	data, err = unpackData(data)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", id)
	}
	values, err := decodeValues(class, data)
	if err != nil {
		return nil, err
	}
	return domain.NewExistingRecord(class, id, domain.Serial(serial), func(p *domain.PropertyDefinition) (interface{}, error) {
		return values[p.Name], nil
	})
}

func (s *Storage) Load(ctx context.Context, id domain.ObjectID) (*domain.Record, error) {
	recv, err := s.LoadMany(ctx, []domain.ObjectID{id}, true)
	if err != nil {
		return nil, err
	}
	return recv[0], nil
}

// LoadMany loads objects in batches in parallel.
func (s *Storage) LoadMany(ctx context.Context, idv []domain.ObjectID, throwOnNotFound bool) ([]*domain.Record, error) {
	recv := make([]*domain.Record, len(idv))

	wg, ctx := errgroup.WithContext(ctx)
	for lo := 0; lo < len(idv); lo += loadBatch {
		hi := lo + loadBatch
		if hi > len(idv) {
			hi = len(idv)
		}
		wg.Go(func() error {
			return s.pool.withConn(func(conn *sqlite3.Conn) error {
				for i := lo; i < hi; i++ {
					if err := ctx.Err(); err != nil {
						return err
					}
					rec, err := s.loadOne(conn, idv[i])
					if err != nil {
						return err
					}
					if rec == nil && throwOnNotFound {
						return &domain.NoObjectError{ID: idv[i]}
					}
					recv[i] = rec
				}
				return nil
			})
		})
	}

	if err := wg.Wait(); err != nil {
		return nil, s.zerr("load", idv, err)
	}
	return recv, nil
}

// ---- persist ----

func (s *Storage) Persist(ctx context.Context, recv []*domain.Record) (_ []domain.Serial, err error) {
	defer task.Running(&ctx, "persist")(&err)

	if s.readOnly {
		return nil, s.zerr("persist", nil, errors.New("storage is read-only"))
	}

	s.wmu.Lock()
	defer s.wmu.Unlock()

	var serialv []domain.Serial
	err = s.pool.withConn(func(conn *sqlite3.Conn) error {
		return inTx(conn, func() (err error) {
			serialv, err = s.persist(conn, recv)
			return err
		})
	})
	if err != nil {
		return nil, s.zerr("persist", nil, err)
	}

	if log.V(2) {
		log.Infof(ctx, "%d objects @%s", len(recv), serialv)
	}
	return serialv, nil
}

// persist stores recv in already started transaction.
func (s *Storage) persist(conn *sqlite3.Conn, recv []*domain.Record) ([]domain.Serial, error) {
	// verify everything before changing anything
	var conflictv []domain.ObjectID
	for _, rec := range recv {
		id := rec.ID()
		found := false
		var serial int64
		err := query(conn, "SELECT serial FROM obj WHERE oid = ?", func(st *sqlite3.Stmt) error {
			found = true
			return st.Scan(&serial)
		}, id.String())
		if err != nil {
			return nil, err
		}

		switch rec.State() {
		case domain.StateNew:
			if found {
				conflictv = append(conflictv, id)
			}
		case domain.StateChanged, domain.StateDeleted:
			if !found || domain.Serial(serial) != rec.Serial() {
				conflictv = append(conflictv, id)
			}
		default:
			return nil, errors.Errorf("%s: cannot persist record in state %s", id, rec.State())
		}
	}
	if len(conflictv) != 0 {
		return nil, &domain.ConcurrencyError{IDs: conflictv}
	}

	head, _, err := getConfig(conn, "head")
	if err != nil {
		return nil, err
	}
	head++

	serialv := make([]domain.Serial, len(recv))
	for i, rec := range recv {
		id := rec.ID()
		if rec.State() == domain.StateDeleted {
			err = conn.Exec("DELETE FROM obj WHERE oid = ?", id.String())
			if err != nil {
				return nil, err
			}
			continue
		}

		data, err := encodeValues(rec.Class(), rec.Values())
		if err != nil {
			return nil, err
		}
		data = packData(data)
		if rec.State() == domain.StateNew {
			err = conn.Exec("INSERT INTO obj (oid, class, serial, data) VALUES (?, ?, ?, ?)",
				id.String(), id.ClassID, head, data)
		} else {
			err = conn.Exec("UPDATE obj SET serial = ?, data = ? WHERE oid = ?",
				head, data, id.String())
		}
		if err != nil {
			return nil, err
		}
		serialv[i] = domain.Serial(head)
	}

	if err := setConfig(conn, "head", head); err != nil {
		return nil, err
	}
	return serialv, nil
}

// ---- ids ----

func (s *Storage) NewObjectID(ctx context.Context, class *domain.ClassDefinition) (domain.ObjectID, error) {
	return domain.GenerateObjectID(class, func() (int32, error) {
		return s.nextInt32(class.ID)
	})
}

// nextInt32 allocates next int32 id for objects of class classID.
func (s *Storage) nextInt32(classID string) (n int32, err error) {
	if s.readOnly {
		return 0, s.zerr("new id", classID, errors.New("storage is read-only"))
	}

	s.wmu.Lock()
	defer s.wmu.Unlock()

	err = s.pool.withConn(func(conn *sqlite3.Conn) error {
		return inTx(conn, func() error {
			var last int64
			err := query(conn, "SELECT last FROM seq WHERE class = ?", func(st *sqlite3.Stmt) error {
				return st.Scan(&last)
			}, classID)
			if err != nil {
				return err
			}
			if last >= math.MaxInt32 {
				return errors.New("int32 ids exhausted")
			}
			last++
			n = int32(last)
			return conn.Exec("INSERT OR REPLACE INTO seq (class, last) VALUES (?, ?)", classID, last)
		})
	})
	if err != nil {
		return 0, s.zerr("new id", classID, err)
	}
	return n, nil
}
