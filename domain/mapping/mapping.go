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

// Package mapping loads class definitions from YAML documents.
//
// A mapping document lists classes with their properties:
//
//	classes:
//	  - id: Customer
//	    idKind: String
//	    properties:
//	      - {name: Name, type: string}
//	      - {name: Orders, type: refs, related: Order}
//	  - id: Order
//	    idKind: Int32
//	    properties:
//	      - {name: Number, type: int32}
//	      - {name: Note, type: string, nullable: true}
//	      - {name: Customer, type: ref, related: Customer}
//	      - {name: Scratch, type: string, transactionScoped: true}
//
// idKind is one of Guid, Int32 or String; it may be omitted to allow ids of
// any kind. Property types are named as by domain.PropertyType.String.
//
// Relations are not required to be declared on both sides, but related
// classes must be present in the document.
package mapping

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/re-motion/Trunk-SVN2Git-sub013/domain"
)

// document is the top-level structure of a mapping document.
type document struct {
	Classes []class `yaml:"classes"`
}

type class struct {
	ID         string     `yaml:"id"`
	IDKind     idKind     `yaml:"idKind,omitempty"`
	Properties []property `yaml:"properties"`
}

type property struct {
	Name              string   `yaml:"name"`
	Type              propType `yaml:"type"`
	Nullable          bool     `yaml:"nullable,omitempty"`
	TransactionScoped bool     `yaml:"transactionScoped,omitempty"`
	Related           string   `yaml:"related,omitempty"`
}

// idKind is domain.ValueKind as it appears in mapping documents.
type idKind domain.ValueKind

func (k *idKind) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	kind, err := domain.ParseValueKind(s)
	if err != nil {
		return fmt.Errorf("line %d: %s", value.Line, err)
	}
	*k = idKind(kind)
	return nil
}

func (k idKind) MarshalYAML() (interface{}, error) {
	return domain.ValueKind(k).String(), nil
}

// propType is domain.PropertyType as it appears in mapping documents.
type propType domain.PropertyType

func (t *propType) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	typ, err := domain.ParsePropertyType(s)
	if err != nil {
		return fmt.Errorf("line %d: %s", value.Line, err)
	}
	*t = propType(typ)
	return nil
}

func (t propType) MarshalYAML() (interface{}, error) {
	return domain.PropertyType(t).String(), nil
}

// Load reads mapping document from r and returns registry with all its classes.
func Load(r io.Reader) (_ *domain.MappingRegistry, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("mapping: load: %s", err)
		}
	}()

	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	err = dec.Decode(&doc)
	if err == io.EOF {
		return nil, fmt.Errorf("empty document")
	}
	if err != nil {
		return nil, err
	}

	return doc.registry()
}

// LoadFile is like Load but reads mapping document from file at path.
func LoadFile(path string) (*domain.MappingRegistry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %s", path, err)
	}
	return m, nil
}

// registry converts decoded document into mapping registry.
func (doc *document) registry() (*domain.MappingRegistry, error) {
	classv := make([]*domain.ClassDefinition, 0, len(doc.Classes))
	for _, c := range doc.Classes {
		propv := make([]*domain.PropertyDefinition, 0, len(c.Properties))
		for _, p := range c.Properties {
			propv = append(propv, &domain.PropertyDefinition{
				Name:              p.Name,
				Type:              domain.PropertyType(p.Type),
				Nullable:          p.Nullable,
				TransactionScoped: p.TransactionScoped,
				RelatedClass:      p.Related,
			})
		}

		class, err := domain.NewClassDefinition(c.ID, domain.ValueKind(c.IDKind), propv...)
		if err != nil {
			return nil, err
		}
		classv = append(classv, class)
	}

	m, err := domain.NewMappingRegistry(classv...)
	if err != nil {
		return nil, err
	}

	// relations must point to known classes
	for _, class := range classv {
		for _, p := range class.RelationProperties() {
			if p.RelatedClass == "" {
				continue
			}
			if _, err := m.Class(p.RelatedClass); err != nil {
				return nil, fmt.Errorf("class %s: property %s: related class %q not defined",
					class.ID, p.Name, p.RelatedClass)
			}
		}
	}

	return m, nil
}

// Save writes all classes of m to w as mapping document.
//
// The document can be read back with Load.
func Save(w io.Writer, m *domain.MappingRegistry) error {
	var doc document
	for _, c := range m.Classes() {
		cc := class{ID: c.ID, IDKind: idKind(c.IDKind)}
		for _, p := range c.Properties {
			cc.Properties = append(cc.Properties, property{
				Name:              p.Name,
				Type:              propType(p.Type),
				Nullable:          p.Nullable,
				TransactionScoped: p.TransactionScoped,
				Related:           p.RelatedClass,
			})
		}
		doc.Classes = append(doc.Classes, cc)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("mapping: save: %s", err)
	}
	return enc.Close()
}
