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
	"fmt"

	"github.com/google/uuid"
)

// ValueKind tells which kind of primary value an ObjectID carries.
type ValueKind int

const (
	KindInvalid ValueKind = iota
	KindGuid              // uuid.UUID
	KindInt32             // int32
	KindString            // string
)

func (k ValueKind) String() string {
	switch k {
	case KindGuid:
		return "Guid"
	case KindInt32:
		return "Int32"
	case KindString:
		return "String"
	}
	return fmt.Sprintf("ValueKind(%d)", int(k))
}

// ParseValueKind parses type name as used in ObjectID text encoding.
func ParseValueKind(s string) (ValueKind, error) {
	switch s {
	case "Guid":
		return KindGuid, nil
	case "Int32":
		return KindInt32, nil
	case "String":
		return KindString, nil
	}
	return KindInvalid, fmt.Errorf("value kind %q invalid", s)
}

func kindOf(value interface{}) ValueKind {
	switch value.(type) {
	case uuid.UUID:
		return KindGuid
	case int32:
		return KindInt32
	case string:
		return KindString
	}
	return KindInvalid
}

// ObjectID identifies a persisted domain object.
//
// It is the pair (class, primary value). Primary value is uuid.UUID, int32
// or string. ObjectIDs are comparable with == and can be used as map keys.
//
// Use NewObjectID to create ObjectIDs with validated values.
type ObjectID struct {
	ClassID string
	Value   interface{}
}

// NewObjectID creates new ObjectID for class and primary value.
//
// Empty class, nil UUID, empty string and values of unsupported types are
// rejected.
func NewObjectID(classID string, value interface{}) (ObjectID, error) {
	id := ObjectID{ClassID: classID, Value: value}
	if err := id.validate(); err != nil {
		return ObjectID{}, err
	}
	return id, nil
}

func (id ObjectID) validate() error {
	if id.ClassID == "" {
		return fmt.Errorf("objectid: empty class")
	}
	switch v := id.Value.(type) {
	case uuid.UUID:
		if v == uuid.Nil {
			return fmt.Errorf("objectid: %s: nil uuid", id.ClassID)
		}
	case int32:
		// ok
	case string:
		if v == "" {
			return fmt.Errorf("objectid: %s: empty string value", id.ClassID)
		}
	default:
		return fmt.Errorf("objectid: %s: unsupported value type %T", id.ClassID, id.Value)
	}
	return nil
}

// Kind returns kind of id's primary value.
func (id ObjectID) Kind() ValueKind {
	return kindOf(id.Value)
}

// IsZero returns whether id is the zero ObjectID.
//
// Zero ObjectID is used as null value of single-object relations.
func (id ObjectID) IsZero() bool {
	return id.ClassID == "" && id.Value == nil
}
