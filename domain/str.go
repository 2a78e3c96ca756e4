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
// formatting and parsing for basic domain types

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// escape markers used in ObjectID text encoding.
const (
	pipeMarker = "&pipe;"
	ampMarker  = "&amp;"
)

// String converts id to string.
//
// ObjectID string representation is
//
//	<class>|<value>|<value type>
//
// e.g.
//
//	Order|1b6f0a1e-2f5b-4c1a-9c0e-1e3e5b1a2c3d|Guid
//	Order|42|Int32
//	Customer|ACME &pipe; Sons|String
//
// '|' in class and value is escaped as "&pipe;". '&' is escaped as "&amp;"
// only where it would otherwise start one of the escape markers.
//
// Zero ObjectID is represented as "".
//
// See also: ParseObjectID.
func (id ObjectID) String() string {
	if id.IsZero() {
		return ""
	}

	var value string
	switch v := id.Value.(type) {
	case uuid.UUID:
		value = v.String()
	case int32:
		value = strconv.FormatInt(int64(v), 10)
	case string:
		value = v
	default:
		value = fmt.Sprintf("%v", v)
	}

	return escapeField(id.ClassID) + "|" + escapeField(value) + "|" + id.Kind().String()
}

// ParseObjectID parses ObjectID from string.
//
// See also: ObjectID.String .
func ParseObjectID(s string) (ObjectID, error) {
	fieldv := strings.Split(s, "|")
	if len(fieldv) != 3 {
		return ObjectID{}, fmt.Errorf("objectid %q invalid", s)
	}

	class := unescapeField(fieldv[0])
	value := unescapeField(fieldv[1])
	kind, err := ParseValueKind(fieldv[2])
	if err != nil {
		return ObjectID{}, fmt.Errorf("objectid %q invalid: %s", s, err)
	}

	v, err := ParseValue(kind, value)
	if err != nil {
		return ObjectID{}, fmt.Errorf("objectid %q invalid: %s", s, err)
	}

	id, err := NewObjectID(class, v)
	if err != nil {
		return ObjectID{}, fmt.Errorf("objectid %q invalid: %s", s, err)
	}
	return id, nil
}

// ParseValue parses primary value of given kind from its text form.
func ParseValue(kind ValueKind, s string) (interface{}, error) {
	switch kind {
	case KindGuid:
		return uuid.Parse(s)
	case KindInt32:
		x, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return nil, err
		}
		return int32(x), nil
	case KindString:
		return s, nil
	}
	return nil, fmt.Errorf("value kind %s invalid", kind)
}

// escapeField escapes s for use as one field of ObjectID text encoding.
func escapeField(s string) string {
	if !strings.ContainsAny(s, "|&") {
		return s
	}

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '|':
			b.WriteString(pipeMarker)
		case strings.HasPrefix(s[i:], pipeMarker) || strings.HasPrefix(s[i:], ampMarker):
			b.WriteString(ampMarker)
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// unescapeField is the inverse of escapeField.
func unescapeField(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}

	var b strings.Builder
	for i := 0; i < len(s); {
		switch {
		case strings.HasPrefix(s[i:], pipeMarker):
			b.WriteByte('|')
			i += len(pipeMarker)
		case strings.HasPrefix(s[i:], ampMarker):
			b.WriteByte('&')
			i += len(ampMarker)
		default:
			b.WriteByte(s[i])
			i++
		}
	}
	return b.String()
}

// parseHex64 decodes 16-character-wide hex-encoded string into uint64
func parseHex64(subj, s string) (uint64, error) {
	var b [8]byte
	if len(s) != 16 {
		return 0, fmt.Errorf("%s %q invalid", subj, s)
	}
	_, err := hex.Decode(b[:], []byte(s))
	if err != nil {
		return 0, fmt.Errorf("%s %q invalid", subj, s)
	}

	return binary.BigEndian.Uint64(b[:]), nil
}
