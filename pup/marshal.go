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
	"github.com/liljencrantz/crush-sub002/value"
)

func writeElement(w *writer, e Element) {
	w.byte(byte(e.Kind))
	switch e.Kind {
	case KindSmallInt:
		w.varint(e.Int)
	case KindLargeInt:
		w.str(e.Dec)
	case KindString:
		w.str(e.Str)
	case KindTrackedString:
		w.uvarint(uint64(e.ValueRef))
		w.varint(int64(e.Start))
		w.varint(int64(e.End))
	case KindBool:
		w.bool(e.Bool)
	case KindFloat:
		w.uvarint(float64bits(e.Float))
	case KindBinary:
		w.bytes(e.Blob)
	case KindTime, KindDuration:
		w.varint(e.Nanos)
	case KindGlob, KindRegex, KindFile:
		w.str(e.Str)
	case KindType:
		w.byte(byte(e.TypeKind))
		switch e.TypeKind {
		case value.KindList:
			w.uvarint(uint64(e.ElemRef))
		case value.KindDict:
			w.uvarint(uint64(e.KeyRef))
			w.uvarint(uint64(e.ElemRef))
		case value.KindTable, value.KindTableInputStream, value.KindTableOutputStream:
			w.refs(e.ColumnRefs)
		}
	case KindColumnType:
		w.str(e.Name)
		w.uvarint(uint64(e.ValueRef))
	case KindList:
		w.uvarint(uint64(e.ElemRef))
		w.refs(e.Refs)
	case KindDict:
		w.uvarint(uint64(e.KeyRef))
		w.uvarint(uint64(e.ElemRef))
		w.refs(e.Refs)
	case KindStruct:
		w.bool(e.HasParent)
		if e.HasParent {
			w.uvarint(uint64(e.ParentRef))
		}
		w.uvarint(uint64(len(e.Members)))
		for _, m := range e.Members {
			w.uvarint(uint64(m.NameRef))
			w.uvarint(uint64(m.ValueRef))
		}
	case KindScope:
		w.str(e.Name)
		w.byte(byte(e.ScopeKind))
		w.bool(e.Readonly)
		w.refs(e.Refs)
		w.uvarint(uint64(len(e.Members)))
		for _, m := range e.Members {
			w.uvarint(uint64(m.NameRef))
			w.uvarint(uint64(m.ValueRef))
		}
	case KindTable:
		w.refs(e.ColumnRefs)
		w.refs(e.Refs)
	case KindEmpty:
	}
}

func readElement(r *reader) (Element, error) {
	kb, err := r.byte()
	if err != nil {
		return Element{}, err
	}
	e := Element{Kind: Kind(kb)}
	switch e.Kind {
	case KindSmallInt:
		e.Int, err = r.varint()
	case KindLargeInt:
		e.Dec, err = r.strv()
	case KindString:
		e.Str, err = r.strv()
	case KindTrackedString:
		var v uint64
		if v, err = r.uvarint(); err != nil {
			break
		}
		e.ValueRef = int(v)
		var start, end int64
		if start, err = r.varint(); err != nil {
			break
		}
		if end, err = r.varint(); err != nil {
			break
		}
		e.Start, e.End = int(start), int(end)
	case KindBool:
		e.Bool, err = r.boolv()
	case KindFloat:
		var bits uint64
		bits, err = r.uvarint()
		e.Float = bitsFloat64(bits)
	case KindBinary:
		e.Blob, err = r.bytesv()
	case KindTime, KindDuration:
		e.Nanos, err = r.varint()
	case KindGlob, KindRegex, KindFile:
		e.Str, err = r.strv()
	case KindType:
		var tb byte
		if tb, err = r.byte(); err != nil {
			break
		}
		e.TypeKind = value.Kind(tb)
		switch e.TypeKind {
		case value.KindList:
			var v uint64
			v, err = r.uvarint()
			e.ElemRef = int(v)
		case value.KindDict:
			var k, v uint64
			if k, err = r.uvarint(); err != nil {
				break
			}
			v, err = r.uvarint()
			e.KeyRef, e.ElemRef = int(k), int(v)
		case value.KindTable, value.KindTableInputStream, value.KindTableOutputStream:
			e.ColumnRefs, err = r.refsv()
		}
	case KindColumnType:
		if e.Name, err = r.strv(); err != nil {
			break
		}
		var v uint64
		v, err = r.uvarint()
		e.ValueRef = int(v)
	case KindList:
		var v uint64
		if v, err = r.uvarint(); err != nil {
			break
		}
		e.ElemRef = int(v)
		e.Refs, err = r.refsv()
	case KindDict:
		var k, v uint64
		if k, err = r.uvarint(); err != nil {
			break
		}
		if v, err = r.uvarint(); err != nil {
			break
		}
		e.KeyRef, e.ElemRef = int(k), int(v)
		e.Refs, err = r.refsv()
	case KindStruct:
		if e.HasParent, err = r.boolv(); err != nil {
			break
		}
		if e.HasParent {
			var p uint64
			if p, err = r.uvarint(); err != nil {
				break
			}
			e.ParentRef = int(p)
		}
		e.Members, err = readMembers(r)
	case KindScope:
		if e.Name, err = r.strv(); err != nil {
			break
		}
		var kb2 byte
		if kb2, err = r.byte(); err != nil {
			break
		}
		e.ScopeKind = int(kb2)
		if e.Readonly, err = r.boolv(); err != nil {
			break
		}
		if e.Refs, err = r.refsv(); err != nil {
			break
		}
		e.Members, err = readMembers(r)
	case KindTable:
		if e.ColumnRefs, err = r.refsv(); err != nil {
			break
		}
		e.Refs, err = r.refsv()
	case KindEmpty:
	default:
		return Element{}, value.NewError(value.InvalidData, "pup: unknown element tag %d", kb)
	}
	return e, err
}

func readMembers(r *reader) ([]Member, error) {
	n, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	out := make([]Member, n)
	for i := range out {
		nameRef, err := r.uvarint()
		if err != nil {
			return nil, err
		}
		valRef, err := r.uvarint()
		if err != nil {
			return nil, err
		}
		out[i] = Member{NameRef: int(nameRef), ValueRef: int(valRef)}
	}
	return out, nil
}

// Marshal encodes a as a pup artifact, optionally compressing the whole
// element table with the named algorithm ("s2", "zstd", "zstd-better", or
// "" for no compression), per the domain-stack wiring for klauspost/compress.
// Wire layout: [formatVersion byte][compressed bool][body], where body is
// either the raw element stream or, when compressed, the algorithm name,
// the uncompressed length, and the compressed bytes.
func Marshal(a *Artifact, compression string) ([]byte, error) {
	bw := &writer{}
	bw.uvarint(uint64(len(a.Elements)))
	for _, e := range a.Elements {
		writeElement(bw, e)
	}
	bw.uvarint(uint64(a.Root))
	body := bw.buf

	if compression == "" {
		out := &writer{}
		out.byte(formatVersion)
		out.bool(false)
		out.buf = append(out.buf, body...)
		return out.buf, nil
	}
	c := compressionByName(compression)
	if c == nil {
		return nil, value.NewError(value.InvalidArgument, "pup: unknown compression algorithm %q", compression)
	}
	out := &writer{}
	out.byte(formatVersion)
	out.bool(true)
	out.str(c.name())
	out.uvarint(uint64(len(body)))
	out.buf = c.compress(body, out.buf)
	return out.buf, nil
}

// Unmarshal decodes the bytes produced by Marshal back into an Artifact.
func Unmarshal(data []byte) (*Artifact, error) {
	r := &reader{buf: data}
	ver, err := r.byte()
	if err != nil {
		return nil, err
	}
	if ver != formatVersion {
		return nil, value.NewError(value.InvalidData, "pup: unsupported artifact version %d", ver)
	}
	compressed, err := r.boolv()
	if err != nil {
		return nil, err
	}
	body := r.buf[r.pos:]
	if compressed {
		name, err := r.strv()
		if err != nil {
			return nil, err
		}
		n, err := r.uvarint()
		if err != nil {
			return nil, err
		}
		d := decompressionByName(name)
		if d == nil {
			return nil, value.NewError(value.InvalidData, "pup: unknown compression algorithm %q", name)
		}
		dst := make([]byte, n)
		if err := d.decompress(r.buf[r.pos:], dst); err != nil {
			return nil, value.NewError(value.InvalidData, "pup: decompression failed: %v", err)
		}
		body = dst
	}

	br := &reader{buf: body}
	n, err := br.uvarint()
	if err != nil {
		return nil, err
	}
	elements := make([]Element, n)
	for i := range elements {
		el, err := readElement(br)
		if err != nil {
			return nil, err
		}
		elements[i] = el
	}
	root, err := br.uvarint()
	if err != nil {
		return nil, err
	}
	return &Artifact{Elements: elements, Root: int(root)}, nil
}
