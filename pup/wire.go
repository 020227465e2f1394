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
	"encoding/binary"
	"math"

	"github.com/liljencrantz/crush-sub002/value"
)

// formatVersion is the leading byte of every encoded artifact: bumped whenever the element wire encoding changes
// incompatibly.
const formatVersion byte = 1

// writer appends a pup artifact's wire encoding, one uvarint/tag/blob at a
// time, the same tag-plus-uvarint convention package ion's own writer uses
// for its binary encoding.
type writer struct {
	buf []byte
}

func (w *writer) byte(b byte) { w.buf = append(w.buf, b) }

func (w *writer) bool(b bool) {
	if b {
		w.byte(1)
	} else {
		w.byte(0)
	}
}

func (w *writer) uvarint(v uint64) { w.buf = binary.AppendUvarint(w.buf, v) }

func (w *writer) varint(v int64) { w.buf = binary.AppendVarint(w.buf, v) }

func (w *writer) bytes(b []byte) {
	w.uvarint(uint64(len(b)))
	w.buf = append(w.buf, b...)
}

func (w *writer) str(s string) { w.bytes([]byte(s)) }

func (w *writer) refs(refs []int) {
	w.uvarint(uint64(len(refs)))
	for _, r := range refs {
		w.uvarint(uint64(r))
	}
}

// reader consumes a pup artifact's wire encoding produced by writer.
type reader struct {
	buf []byte
	pos int
}

func (r *reader) byte() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, value.NewError(value.InvalidData, "pup: truncated artifact")
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) boolv() (bool, error) {
	b, err := r.byte()
	return b != 0, err
}

func (r *reader) uvarint() (uint64, error) {
	v, n := binary.Uvarint(r.buf[r.pos:])
	if n <= 0 {
		return 0, value.NewError(value.InvalidData, "pup: malformed uvarint")
	}
	r.pos += n
	return v, nil
}

func (r *reader) varint() (int64, error) {
	v, n := binary.Varint(r.buf[r.pos:])
	if n <= 0 {
		return 0, value.NewError(value.InvalidData, "pup: malformed varint")
	}
	r.pos += n
	return v, nil
}

func (r *reader) bytesv() ([]byte, error) {
	n, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	if uint64(r.pos)+n > uint64(len(r.buf)) {
		return nil, value.NewError(value.InvalidData, "pup: truncated artifact")
	}
	b := r.buf[r.pos : r.pos+int(n)]
	r.pos += int(n)
	return b, nil
}

func (r *reader) strv() (string, error) {
	b, err := r.bytesv()
	return string(b), err
}

func (r *reader) refsv() ([]int, error) {
	n, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	out := make([]int, n)
	for i := range out {
		v, err := r.uvarint()
		if err != nil {
			return nil, err
		}
		out[i] = int(v)
	}
	return out, nil
}

func float64bits(f float64) uint64 { return math.Float64bits(f) }
func bitsFloat64(b uint64) float64 { return math.Float64frombits(b) }
