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
	"math/rand"
	"testing"

	"github.com/google/uuid"
)

func TestObjectIDString(t *testing.T) {
	u := uuid.MustParse("1b6f0a1e-2f5b-4c1a-9c0e-1e3e5b1a2c3d")

	var testv = []struct {
		id  ObjectID
		str string
	}{
		{ObjectID{"Order", u}, "Order|1b6f0a1e-2f5b-4c1a-9c0e-1e3e5b1a2c3d|Guid"},
		{ObjectID{"Order", int32(42)}, "Order|42|Int32"},
		{ObjectID{"Order", int32(-7)}, "Order|-7|Int32"},
		{ObjectID{"Customer", "ACME"}, "Customer|ACME|String"},
		{ObjectID{"Customer", "a|b"}, "Customer|a&pipe;b|String"},
		{ObjectID{"Customer", "a&pipe;b"}, "Customer|a&amp;pipe;b|String"},
		{ObjectID{"Customer", "a&amp;b"}, "Customer|a&amp;amp;b|String"},
		{ObjectID{"Customer", "Smith & Sons"}, "Customer|Smith & Sons|String"},
		{ObjectID{"Odd|Class", "x"}, "Odd&pipe;Class|x|String"},
		{ObjectID{}, ""},
	}

	for _, tt := range testv {
		str := tt.id.String()
		if str != tt.str {
			t.Errorf("%#v: str:\nhave: %q\nwant: %q", tt.id, str, tt.str)
		}

		if tt.id.IsZero() {
			continue
		}
		id, err := ParseObjectID(tt.str)
		if !(id == tt.id && err == nil) {
			t.Errorf("parse %q:\nhave: %v, %v\nwant: %v, nil", tt.str, id, err, tt.id)
		}
	}
}

func TestParseObjectIDInvalid(t *testing.T) {
	var testv = []string{
		"",
		"Order",
		"Order|1",
		"Order|1|Int32|x",
		"Order|x|Int32",
		"Order|99999999999|Int32",
		"Order|1|Int64",
		"Order|zzz|Guid",
		"Order|00000000-0000-0000-0000-000000000000|Guid",
		"Order||String",
		"|a|String",
	}

	for _, s := range testv {
		id, err := ParseObjectID(s)
		if err == nil {
			t.Errorf("parse %q: no error; got %v", s, id)
		}
	}
}

// alphabet for random text: delimiter and pieces of escape markers are
// deliberately frequent.
var textAlphabet = []string{"a", "b", "p", ";", "|", "&", "&pipe;", "&amp;", "amp;", "pipe;", " "}

func randomText(r *rand.Rand) string {
	n := 1 + r.Intn(8)
	s := ""
	for i := 0; i < n; i++ {
		s += textAlphabet[r.Intn(len(textAlphabet))]
	}
	return s
}

func randomObjectID(r *rand.Rand) ObjectID {
	class := randomText(r)
	switch r.Intn(3) {
	case 0:
		var u uuid.UUID
		r.Read(u[:])
		u[0] |= 1 // never nil
		return ObjectID{class, u}
	case 1:
		return ObjectID{class, int32(r.Uint32())}
	default:
		return ObjectID{class, randomText(r)}
	}
}

func TestObjectIDRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		id := randomObjectID(r)
		str := id.String()
		id2, err := ParseObjectID(str)
		if err != nil {
			t.Errorf("%#v: parse %q: %s", id, str, err)
			continue
		}
		if id2 != id {
			t.Errorf("%#v: round trip via %q:\nhave: %#v\nwant: %#v", id, str, id2, id)
		}
	}
}

func TestNewObjectID(t *testing.T) {
	var testv = []struct {
		class string
		value interface{}
		ok    bool
	}{
		{"Order", uuid.New(), true},
		{"Order", uuid.Nil, false},
		{"Order", int32(0), true},
		{"Order", "x", true},
		{"Order", "", false},
		{"Order", 1, false}, // int, not int32
		{"Order", nil, false},
		{"", "x", false},
	}

	for _, tt := range testv {
		_, err := NewObjectID(tt.class, tt.value)
		if (err == nil) != tt.ok {
			t.Errorf("NewObjectID(%q, %#v): have err=%v; want ok=%v", tt.class, tt.value, err, tt.ok)
		}
	}
}

func TestSerial(t *testing.T) {
	var testv = []struct {
		serial Serial
		str    string
	}{
		{0, "0000000000000000"},
		{1, "0000000000000001"},
		{0x0285cbac258bf266, "0285cbac258bf266"},
	}

	for _, tt := range testv {
		if str := tt.serial.String(); str != tt.str {
			t.Errorf("%d: str:\nhave: %q\nwant: %q", tt.serial, str, tt.str)
		}
		serial, err := ParseSerial(tt.str)
		if !(serial == tt.serial && err == nil) {
			t.Errorf("parse %q:\nhave: %v, %v\nwant: %v, nil", tt.str, serial, err, tt.serial)
		}
	}

	for _, s := range []string{"", "1", "0285cbac258bf26z", "0285cbac258bf2660"} {
		if _, err := ParseSerial(s); err == nil {
			t.Errorf("parse %q: no error", s)
		}
	}
}
