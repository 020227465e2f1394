// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package pup

import (
	"bytes"
	"testing"
)

func TestCompressionByNameS2(t *testing.T) {
	comp := compressionByName("s2")
	if _, ok := comp.(s2Compressor); !ok {
		t.Fatalf("bad compressor for s2: %T", comp)
	} else if n := comp.name(); n != "s2" {
		t.Fatalf("bad compressor name %q", n)
	}
	dec := decompressionByName("s2")
	if _, ok := dec.(s2Compressor); !ok {
		t.Fatalf("bad decompressor for s2: %T", dec)
	} else if n := dec.name(); n != "s2" {
		t.Fatalf("bad decompressor name %q", n)
	}
	// separate buffers
	ctl := bytes.Repeat([]byte("foo"), 1000)
	src := append([]byte(nil), ctl...)
	cmp := comp.compress(src, nil)
	dst := make([]byte, len(src))
	if err := dec.decompress(cmp, dst); err != nil {
		t.Error(err)
	} else if string(ctl) != string(dst) {
		t.Error("mismatch")
	}
	// overlapping buffers
	cmp = comp.compress(src[10:], src[:8])
	if err := dec.decompress(cmp[8:], dst[10:]); err != nil {
		t.Error(err)
	} else if string(ctl[10:]) != string(dst[10:]) {
		t.Error("mismatch")
	}
}

func TestCompressionByNameZstd(t *testing.T) {
	for _, name := range []string{"zstd", "zstd-better"} {
		comp := compressionByName(name)
		if comp == nil {
			t.Fatalf("no compressor for %q", name)
		}
		if n := comp.name(); n != "zstd" {
			t.Fatalf("%q compressor reports name %q, want \"zstd\"", name, n)
		}
		src := bytes.Repeat([]byte("crush"), 500)
		cmp := comp.compress(src, nil)
		dst := make([]byte, len(src))
		dec := decompressionByName("zstd")
		if err := dec.decompress(cmp, dst); err != nil {
			t.Fatalf("%q: %v", name, err)
		}
		if !bytes.Equal(src, dst) {
			t.Fatalf("%q: round trip mismatch", name)
		}
	}
}

func TestCompressionByNameUnknown(t *testing.T) {
	if compressionByName("lz4") != nil {
		t.Fatal("expected nil compressor for an unregistered algorithm")
	}
	if decompressionByName("lz4") != nil {
		t.Fatal("expected nil decompressor for an unregistered algorithm")
	}
}

func TestOverlaps(t *testing.T) {
	a := make([]byte, 10)
	b := make([]byte, 20)
	if overlaps(a, b) {
		t.Error("overlaps(a, b) should be false")
	}
	a = make([]byte, 10, 30)
	b = a[10:]
	if overlaps(a, b) {
		t.Error("overlaps(a, b) should be false")
	} else if overlaps(b, a) {
		t.Error("overlaps(b, a) should be false")
	}
	b = a[5:]
	if !overlaps(a, b) {
		t.Error("overlaps(a, b) should be true")
	} else if !overlaps(b, a) {
		t.Error("overlaps(b, a) should be true")
	}
	b = a[9:]
	if !overlaps(a, b) {
		t.Error("overlaps(a, b) should be true")
	} else if !overlaps(b, a) {
		t.Error("overlaps(b, a) should be true")
	}
}
