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

package sqlite
// pool of connections to one database file

import (
	"errors"
	"sync"

	"lab.nexedi.com/kirr/go123/xerr"

	sqlite3 "github.com/gwenn/gosqlite"
)

// connPool keeps idle connections for reuse.
//
// Connections are handed out LIFO so that recently used, warm connections
// are preferred.
type connPool struct {
	open func() (*sqlite3.Conn, error) // nil after Close

	mu    sync.Mutex
	idlev []*sqlite3.Conn
}

func newConnPool(open func() (*sqlite3.Conn, error)) *connPool {
	return &connPool{open: open}
}

// Close closes idle connections and makes further getConn fail.
//
// Connections that are in use are closed when they are put back.
func (p *connPool) Close() error {
	p.mu.Lock()
	idlev := p.idlev
	p.idlev = nil
	p.open = nil
	p.mu.Unlock()

	var errv xerr.Errorv
	for _, conn := range idlev {
		errv.Appendif(conn.Close())
	}
	return errv.Err()
}

var errPoolClosed = errors.New("sqlite: connection pool is closed")

// getConn returns idle connection, or opens new one if there is none.
func (p *connPool) getConn() (*sqlite3.Conn, error) {
	p.mu.Lock()
	open := p.open
	if open == nil {
		p.mu.Unlock()
		return nil, errPoolClosed
	}

	var conn *sqlite3.Conn
	if l := len(p.idlev); l > 0 {
		conn = p.idlev[l-1]
		p.idlev[l-1] = nil
		p.idlev = p.idlev[:l-1]
	}
	p.mu.Unlock()

	if conn != nil {
		return conn, nil
	}
	return open()
}

// putConn returns conn to the pool.
//
// conn must not be used by caller after putConn.
func (p *connPool) putConn(conn *sqlite3.Conn) {
	p.mu.Lock()
	if p.open != nil {
		p.idlev = append(p.idlev, conn)
		conn = nil
	}
	p.mu.Unlock()

	if conn != nil {
		conn.Close() // pool was closed while conn was in use
	}
}

// withConn runs f with a connection from the pool.
func (p *connPool) withConn(f func(conn *sqlite3.Conn) error) error {
	conn, err := p.getConn()
	if err != nil {
		return err
	}
	defer p.putConn(conn)
	return f(conn)
}
