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
// mapping metadata: classes and their properties

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// PropertyType is the declared type of a property.
type PropertyType int

const (
	TypeInvalid       PropertyType = iota
	TypeString                     // string
	TypeInt32                      // int32
	TypeInt64                      // int64
	TypeFloat64                    // float64
	TypeBool                       // bool
	TypeBytes                      // []byte
	TypeTime                       // time.Time
	TypeGuid                       // uuid.UUID
	TypeObjectRef                  // ObjectID; zero ObjectID is null
	TypeObjectRefList              // []ObjectID
)

var typeNames = [...]string{
	TypeInvalid:       "invalid",
	TypeString:        "string",
	TypeInt32:         "int32",
	TypeInt64:         "int64",
	TypeFloat64:       "float64",
	TypeBool:          "bool",
	TypeBytes:         "bytes",
	TypeTime:          "time",
	TypeGuid:          "guid",
	TypeObjectRef:     "ref",
	TypeObjectRefList: "refs",
}

func (t PropertyType) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return fmt.Sprintf("PropertyType(%d)", int(t))
	}
	return typeNames[t]
}

// ParsePropertyType parses property type from its name, e.g. "int32".
func ParsePropertyType(s string) (PropertyType, error) {
	for t, name := range typeNames {
		if name == s && PropertyType(t) != TypeInvalid {
			return PropertyType(t), nil
		}
	}
	return TypeInvalid, fmt.Errorf("property type %q invalid", s)
}

// Zero returns default value for properties of type t.
func (t PropertyType) Zero() interface{} {
	switch t {
	case TypeString:
		return ""
	case TypeInt32:
		return int32(0)
	case TypeInt64:
		return int64(0)
	case TypeFloat64:
		return float64(0)
	case TypeBool:
		return false
	case TypeBytes:
		return []byte(nil)
	case TypeTime:
		return time.Time{}
	case TypeGuid:
		return uuid.Nil
	case TypeObjectRef:
		return ObjectID{}
	case TypeObjectRefList:
		return []ObjectID(nil)
	}
	return nil
}

// Check verifies that v, which must not be nil, is a value of type t.
func (t PropertyType) Check(v interface{}) error {
	ok := false
	switch t {
	case TypeString:
		_, ok = v.(string)
	case TypeInt32:
		_, ok = v.(int32)
	case TypeInt64:
		_, ok = v.(int64)
	case TypeFloat64:
		_, ok = v.(float64)
	case TypeBool:
		_, ok = v.(bool)
	case TypeBytes:
		_, ok = v.([]byte)
	case TypeTime:
		_, ok = v.(time.Time)
	case TypeGuid:
		_, ok = v.(uuid.UUID)
	case TypeObjectRef:
		_, ok = v.(ObjectID)
	case TypeObjectRefList:
		_, ok = v.([]ObjectID)
	}
	if !ok {
		return fmt.Errorf("value of type %T is not %s", v, t)
	}
	return nil
}

// Equal compares two values of type t.
//
// Byte slices and object lists are compared by content, time values with
// time.Time.Equal.
func (t PropertyType) Equal(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	switch t {
	case TypeBytes:
		return bytes.Equal(a.([]byte), b.([]byte))
	case TypeTime:
		return a.(time.Time).Equal(b.(time.Time))
	case TypeObjectRefList:
		av, bv := a.([]ObjectID), b.([]ObjectID)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
		return true
	}
	return a == b
}

// Copy returns copy of v that does not share memory with v.
func (t PropertyType) Copy(v interface{}) interface{} {
	switch x := v.(type) {
	case []byte:
		if x == nil {
			return x
		}
		return append([]byte{}, x...)
	case []ObjectID:
		if x == nil {
			return x
		}
		return append([]ObjectID{}, x...)
	}
	return v
}

// PropertyKind tells whether a property holds a plain value or a relation.
type PropertyKind int

const (
	ValueProperty PropertyKind = iota
	RelationOne                // reference to at most one object
	RelationMany               // collection of objects
)

func (k PropertyKind) String() string {
	switch k {
	case ValueProperty:
		return "value"
	case RelationOne:
		return "relation-one"
	case RelationMany:
		return "relation-many"
	}
	return fmt.Sprintf("PropertyKind(%d)", int(k))
}

// PropertyDefinition describes one property of a class.
type PropertyDefinition struct {
	Name string
	Type PropertyType

	// Nullable value properties may hold nil.
	Nullable bool

	// TransactionScoped properties are tracked by transactions the same
	// way as persistent properties, but are never handed to storage.
	TransactionScoped bool

	// RelatedClass, if set, restricts objects a relation property may
	// refer to.
	RelatedClass string
}

// Kind returns property kind derived from property type.
func (p *PropertyDefinition) Kind() PropertyKind {
	switch p.Type {
	case TypeObjectRef:
		return RelationOne
	case TypeObjectRefList:
		return RelationMany
	}
	return ValueProperty
}

// Persistent returns whether property values are persisted to storage.
func (p *PropertyDefinition) Persistent() bool {
	return !p.TransactionScoped
}

// DefaultValue returns value the property has in new records.
func (p *PropertyDefinition) DefaultValue() interface{} {
	if p.Nullable && p.Kind() == ValueProperty {
		return nil
	}
	return p.Type.Zero()
}

// Check verifies that v can be assigned to the property.
func (p *PropertyDefinition) Check(v interface{}) error {
	if v == nil {
		if p.Nullable && p.Kind() == ValueProperty {
			return nil
		}
		return fmt.Errorf("nil is not allowed")
	}
	if err := p.Type.Check(v); err != nil {
		return err
	}

	switch x := v.(type) {
	case ObjectID:
		if !x.IsZero() {
			return p.checkRelated(x)
		}
	case []ObjectID:
		for _, id := range x {
			if id.IsZero() {
				return fmt.Errorf("null object in collection")
			}
			if err := p.checkRelated(id); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *PropertyDefinition) checkRelated(id ObjectID) error {
	if p.RelatedClass != "" && id.ClassID != p.RelatedClass {
		return fmt.Errorf("%s is not %s", id, p.RelatedClass)
	}
	return nil
}

// ClassDefinition describes a class of domain objects.
type ClassDefinition struct {
	ID         string
	IDKind     ValueKind             // kind of primary values; KindInvalid means any
	Properties []*PropertyDefinition // in declaration order
}

// NewClassDefinition creates new class definition and verifies it is consistent.
func NewClassDefinition(id string, idKind ValueKind, propv ...*PropertyDefinition) (*ClassDefinition, error) {
	c := &ClassDefinition{ID: id, IDKind: idKind, Properties: propv}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *ClassDefinition) validate() error {
	if c.ID == "" {
		return fmt.Errorf("class: empty id")
	}
	seen := make(map[string]bool, len(c.Properties))
	for _, p := range c.Properties {
		if p.Name == "" {
			return fmt.Errorf("class %s: property with empty name", c.ID)
		}
		if seen[p.Name] {
			return fmt.Errorf("class %s: duplicate property %q", c.ID, p.Name)
		}
		seen[p.Name] = true
		if p.Type == TypeInvalid || p.Type.Zero() == nil {
			return fmt.Errorf("class %s: property %q: invalid type", c.ID, p.Name)
		}
	}
	return nil
}

// Property returns definition of named property, or nil if class has no such property.
func (c *ClassDefinition) Property(name string) *PropertyDefinition {
	for _, p := range c.Properties {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// RelationProperties returns definitions of class's relation properties.
func (c *ClassDefinition) RelationProperties() []*PropertyDefinition {
	var relv []*PropertyDefinition
	for _, p := range c.Properties {
		if p.Kind() != ValueProperty {
			relv = append(relv, p)
		}
	}
	return relv
}

// ValidateID verifies that id identifies an object of class c.
func (c *ClassDefinition) ValidateID(id ObjectID) error {
	if err := id.validate(); err != nil {
		return err
	}
	if id.ClassID != c.ID {
		return fmt.Errorf("%s: not an id of class %s", id, c.ID)
	}
	if c.IDKind != KindInvalid && id.Kind() != c.IDKind {
		return fmt.Errorf("%s: class %s uses %s ids", id, c.ID, c.IDKind)
	}
	return nil
}

// Mapping provides class definitions.
type Mapping interface {
	// Class returns definition of class with given id.
	Class(classID string) (*ClassDefinition, error)
}

// MappingRegistry is Mapping kept in memory.
//
// It is safe to use MappingRegistry from multiple goroutines simultaneously.
type MappingRegistry struct {
	mu     sync.RWMutex
	classv []*ClassDefinition
	class  map[string]*ClassDefinition
}

// NewMappingRegistry creates new registry with provided classes registered.
func NewMappingRegistry(classv ...*ClassDefinition) (*MappingRegistry, error) {
	r := &MappingRegistry{class: make(map[string]*ClassDefinition)}
	for _, c := range classv {
		if err := r.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds class definition to the registry.
func (r *MappingRegistry) Register(c *ClassDefinition) error {
	if err := c.validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, already := r.class[c.ID]; already {
		return fmt.Errorf("mapping: class %s already registered", c.ID)
	}
	r.class[c.ID] = c
	r.classv = append(r.classv, c)
	return nil
}

// Class implements Mapping.
func (r *MappingRegistry) Class(classID string) (*ClassDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.class[classID]
	if !ok {
		return nil, fmt.Errorf("mapping: class %q not found", classID)
	}
	return c, nil
}

// Classes returns all registered classes in registration order.
func (r *MappingRegistry) Classes() []*ClassDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*ClassDefinition(nil), r.classv...)
}
