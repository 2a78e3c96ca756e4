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
	"context"
)

// CollectionHandler is called after a collection was changed.
//
// One of removed and added is zero.
type CollectionHandler func(ctx context.Context, c *Collection, removed, added ObjectID)

// Collection is the set of objects of a relation property of one object in
// one transaction.
//
// Collection does not keep related objects itself: it reads and changes the
// relation property in the transaction. After rollback a collection shows
// the restored state.
type Collection struct {
	txn  *Transaction
	obj  *Object
	prop *PropertyDefinition

	handlerv []CollectionHandler
}

// Transaction returns transaction of the collection.
func (c *Collection) Transaction() *Transaction { return c.txn }

// Owner returns object whose relation property the collection represents.
func (c *Collection) Owner() *Object { return c.obj }

// Property returns definition of the relation property.
func (c *Collection) Property() *PropertyDefinition { return c.prop }

// IDs returns ids of objects in the collection.
func (c *Collection) IDs(ctx context.Context) ([]ObjectID, error) {
	if err := c.txn.checkValid("get " + c.prop.Name); err != nil {
		return nil, err
	}
	_, p, err := c.txn.property(ctx, c.obj, c.prop.Name)
	if err != nil {
		return nil, err
	}
	return p.Value().([]ObjectID), nil
}

// Contains returns whether obj is in the collection.
func (c *Collection) Contains(ctx context.Context, obj *Object) (bool, error) {
	idv, err := c.IDs(ctx)
	if err != nil {
		return false, err
	}
	for _, id := range idv {
		if id == obj.id {
			return true, nil
		}
	}
	return false, nil
}

// Objects returns objects in the collection loading them if needed.
func (c *Collection) Objects(ctx context.Context) ([]*Object, error) {
	idv, err := c.IDs(ctx)
	if err != nil {
		return nil, err
	}
	return c.txn.GetObjects(ctx, idv...)
}

// Add adds obj to the collection.
//
// Adding an object that is already in the collection does nothing.
func (c *Collection) Add(ctx context.Context, obj *Object) error {
	return c.txn.changeCollection(ctx, c, obj, true)
}

// Remove removes obj from the collection.
//
// Removing an object that is not in the collection does nothing.
func (c *Collection) Remove(ctx context.Context, obj *Object) error {
	return c.txn.changeCollection(ctx, c, obj, false)
}

// Observe registers h to be called after the collection changes.
func (c *Collection) Observe(h CollectionHandler) {
	c.handlerv = append(c.handlerv, h)
}

func (c *Collection) handlers() []CollectionHandler {
	return append([]CollectionHandler(nil), c.handlerv...)
}
