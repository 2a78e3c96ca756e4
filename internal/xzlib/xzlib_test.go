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

package xzlib

import (
	"bytes"
	"testing"

	"github.com/kylelemons/godebug/pretty"
)

var ztestv = []struct{ in, out string }{
	{
		in:  "x\x9c\xf3H\xcd\xc9\xc9W\x08\xcf/\xcaIQ\x04\x00\x1cI\x04>",
		out: "Hello World!",
	},
}

func TestDecompress(t *testing.T) {
	for _, tt := range ztestv {
		got, err := Decompress([]byte(tt.in))
		if err != nil {
			t.Errorf("decompress err: %q", tt.in)
			continue
		}
		gots := string(got)
		if gots != tt.out {
			t.Errorf("decompress output mismatch:\n%s\n",
				pretty.Compare(tt.out, gots))
		}
	}

	_, err := Decompress([]byte("hello"))
	if err == nil {
		t.Errorf("decompress garbage: no error")
	}
}

func TestCompress(t *testing.T) {
	for _, data := range [][]byte{
		[]byte("Hello World!"),
		bytes.Repeat([]byte("order "), 1000),
	} {
		got, err := Decompress(Compress(data))
		if err != nil {
			t.Errorf("roundtrip %.20q...: %s", data, err)
			continue
		}
		if !bytes.Equal(got, data) {
			t.Errorf("roundtrip %.20q...: mismatch", data)
		}
	}
}
