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
	"fmt"

	"github.com/liljencrantz/crush-sub002/scope"
	"github.com/liljencrantz/crush-sub002/table"
	"github.com/liljencrantz/crush-sub002/value"
)

// encoder accumulates an artifact's element table, deduplicating
// identity-shared aggregates (value_by_identity) and content-equal
// scalars (value_by_content),
type encoder struct {
	elements  []Element
	byIdentity map[uintptr]int
	byContent  map[string]int
	byBlob     map[[32]byte]int
}

func newEncoder() *encoder {
	return &encoder{
		byIdentity: map[uintptr]int{},
		byContent:  map[string]int{},
		byBlob:     map[[32]byte]int{},
	}
}

func (e *encoder) alloc(el Element) int {
	idx := len(e.elements)
	e.elements = append(e.elements, el)
	return idx
}

// Encode flattens v (after materializing any streaming component) into a
// fresh Artifact.
func Encode(v value.Value) (*Artifact, error) {
	mv, err := value.Materialize(v)
	if err != nil {
		return nil, err
	}
	enc := newEncoder()
	root, err := enc.value(mv)
	if err != nil {
		return nil, err
	}
	return &Artifact{Elements: enc.elements, Root: root}, nil
}

func (e *encoder) content(key string, build func() Element) int {
	if idx, ok := e.byContent[key]; ok {
		return idx
	}
	idx := e.alloc(build())
	e.byContent[key] = idx
	return idx
}

func (e *encoder) str(s string) int {
	return e.content("s:"+s, func() Element { return Element{Kind: KindString, Str: s} })
}

func (e *encoder) typ(t value.Type) (int, error) {
	key := "t:" + t.String()
	if idx, ok := e.byContent[key]; ok {
		return idx, nil
	}
	el := Element{Kind: KindType, TypeKind: t.Kind}
	switch t.Kind {
	case value.KindList:
		ref, err := e.typ(*t.Element)
		if err != nil {
			return 0, err
		}
		el.ElemRef = ref
	case value.KindDict:
		kref, err := e.typ(*t.Key)
		if err != nil {
			return 0, err
		}
		vref, err := e.typ(*t.Element)
		if err != nil {
			return 0, err
		}
		el.KeyRef, el.ElemRef = kref, vref
	case value.KindTable, value.KindTableInputStream, value.KindTableOutputStream:
		cols := make([]int, len(t.Columns))
		for i, c := range t.Columns {
			cref, err := e.columnType(c)
			if err != nil {
				return 0, err
			}
			cols[i] = cref
		}
		el.ColumnRefs = cols
	}
	idx := e.alloc(el)
	e.byContent[key] = idx
	return idx, nil
}

func (e *encoder) columnType(c value.ColumnType) (int, error) {
	tref, err := e.typ(c.Type)
	if err != nil {
		return 0, err
	}
	return e.alloc(Element{Kind: KindColumnType, Name: c.Name, ValueRef: tref}), nil
}

// value dispatches on v's concrete type and returns the index of the
// element encoding it, consulting the identity/content dedup tables first.
func (e *encoder) value(v value.Value) (int, error) {
	switch tv := v.(type) {
	case value.EmptyValue:
		return e.content("empty", func() Element { return Element{Kind: KindEmpty} }), nil
	case value.Bool:
		return e.content(fmt.Sprintf("b:%v", bool(tv)), func() Element {
			return Element{Kind: KindBool, Bool: bool(tv)}
		}), nil
	case value.Int:
		return e.encodeInt(tv), nil
	case value.Float:
		return e.content(fmt.Sprintf("f:%x", float64bits(float64(tv))), func() Element {
			return Element{Kind: KindFloat, Float: float64(tv)}
		}), nil
	case value.String:
		return e.str(string(tv)), nil
	case value.Binary:
		return e.encodeBinary(tv), nil
	case value.FileRef:
		return e.content("file:"+tv.Path, func() Element { return Element{Kind: KindFile, Str: tv.Path} }), nil
	case value.Duration:
		return e.content(fmt.Sprintf("dur:%d", int64(tv)), func() Element {
			return Element{Kind: KindDuration, Nanos: int64(tv)}
		}), nil
	case value.Time:
		nanos := tv.UnixNanos()
		return e.content(fmt.Sprintf("time:%d", nanos), func() Element {
			return Element{Kind: KindTime, Nanos: nanos}
		}), nil
	case value.Glob:
		return e.content("glob:"+tv.Source, func() Element { return Element{Kind: KindGlob, Str: tv.Source} }), nil
	case value.Regex:
		return e.content("re:"+tv.Source, func() Element { return Element{Kind: KindRegex, Str: tv.Source} }), nil
	case value.TypeValue:
		return e.typ(tv.T)
	case value.List:
		return e.encodeList(tv)
	case value.Dict:
		return e.encodeDict(tv)
	case value.Struct:
		return e.encodeStruct(tv)
	case table.Table:
		return e.encodeTable(tv)
	case *scope.Scope:
		return e.encodeScope(tv)
	default:
		return 0, value.NewError(value.InvalidArgument, "pup: cannot serialize a value of type %s", v.Type())
	}
}

func (e *encoder) encodeInt(i value.Int) int {
	b := i.Big()
	if b.IsInt64() {
		v := b.Int64()
		return e.content(fmt.Sprintf("i:%d", v), func() Element { return Element{Kind: KindSmallInt, Int: v} })
	}
	s := b.String()
	return e.content("I:"+s, func() Element { return Element{Kind: KindLargeInt, Dec: s} })
}

func (e *encoder) encodeBinary(b value.Binary) int {
	h := blobHash(b.Bytes())
	if idx, ok := e.byBlob[h]; ok {
		return idx
	}
	idx := e.alloc(Element{Kind: KindBinary, Blob: append([]byte(nil), b.Bytes()...)})
	e.byBlob[h] = idx
	return idx
}

func (e *encoder) encodeList(l value.List) (int, error) {
	id := l.Identity()
	if idx, ok := e.byIdentity[id]; ok {
		return idx, nil
	}
	idx := e.alloc(Element{Kind: KindList})
	e.byIdentity[id] = idx

	elemRef, err := e.typ(*l.Type().Element)
	if err != nil {
		return 0, err
	}
	items := l.Snapshot()
	refs := make([]int, len(items))
	for i, it := range items {
		r, err := e.value(it)
		if err != nil {
			return 0, err
		}
		refs[i] = r
	}
	e.elements[idx] = Element{Kind: KindList, ElemRef: elemRef, Refs: refs}
	return idx, nil
}

func (e *encoder) encodeDict(d value.Dict) (int, error) {
	id := d.Identity()
	if idx, ok := e.byIdentity[id]; ok {
		return idx, nil
	}
	idx := e.alloc(Element{Kind: KindDict})
	e.byIdentity[id] = idx

	t := d.Type()
	keyRef, err := e.typ(*t.Key)
	if err != nil {
		return 0, err
	}
	valRef, err := e.typ(*t.Element)
	if err != nil {
		return 0, err
	}
	entries := d.Entries()
	refs := make([]int, 0, len(entries)*2)
	for _, ent := range entries {
		kr, err := e.value(ent.Key())
		if err != nil {
			return 0, err
		}
		vr, err := e.value(ent.Val())
		if err != nil {
			return 0, err
		}
		refs = append(refs, kr, vr)
	}
	e.elements[idx] = Element{Kind: KindDict, KeyRef: keyRef, ElemRef: valRef, Refs: refs}
	return idx, nil
}

func (e *encoder) encodeStruct(s value.Struct) (int, error) {
	id := s.Identity()
	if idx, ok := e.byIdentity[id]; ok {
		return idx, nil
	}
	idx := e.alloc(Element{Kind: KindStruct})
	e.byIdentity[id] = idx

	el := Element{Kind: KindStruct}
	if p := s.Parent(); p != nil {
		pref, err := e.encodeStruct(*p)
		if err != nil {
			return 0, err
		}
		el.HasParent = true
		el.ParentRef = pref
	}
	fields := s.Fields()
	members := make([]Member, len(fields))
	for i, f := range fields {
		nref := e.str(f.Name)
		vref, err := e.value(f.Val)
		if err != nil {
			return 0, err
		}
		members[i] = Member{NameRef: nref, ValueRef: vref}
	}
	el.Members = members
	e.elements[idx] = el
	return idx, nil
}

func (e *encoder) encodeTable(t table.Table) (int, error) {
	id := t.Identity()
	if idx, ok := e.byIdentity[id]; ok {
		return idx, nil
	}
	idx := e.alloc(Element{Kind: KindTable})
	e.byIdentity[id] = idx

	schema := t.Schema()
	cols := make([]int, len(schema))
	for i, c := range schema {
		cref, err := e.columnType(c)
		if err != nil {
			return 0, err
		}
		cols[i] = cref
	}
	var cells []int
	for _, row := range t.Rows() {
		for _, cell := range row {
			r, err := e.value(cell)
			if err != nil {
				return 0, err
			}
			cells = append(cells, r)
		}
	}
	e.elements[idx] = Element{Kind: KindTable, ColumnRefs: cols, Refs: cells}
	return idx, nil
}

func (e *encoder) encodeScope(s *scope.Scope) (int, error) {
	id := s.Identity()
	if idx, ok := e.byIdentity[id]; ok {
		return idx, nil
	}
	// The scope element is pre-allocated before recursing so that a
	// binding which points back at this same scope (a `use` cycle, or a
	// self-referential closure environment) resolves to this index
	// instead of re-entering encodeScope.
	idx := e.alloc(Element{Kind: KindScope})
	e.byIdentity[id] = idx

	uses := s.Uses()
	useRefs := make([]int, len(uses))
	for i, u := range uses {
		r, err := e.encodeScope(u)
		if err != nil {
			return 0, err
		}
		useRefs[i] = r
	}
	locals := s.LocalEntries()
	members := make([]Member, 0, len(locals))
	for _, l := range locals {
		vref, err := e.value(l.Value)
		if err != nil {
			return 0, err
		}
		members = append(members, Member{NameRef: e.str(l.Name), ValueRef: vref})
	}
	e.elements[idx] = Element{
		Kind: KindScope, Name: s.Name(), ScopeKind: int(s.Kind()),
		Readonly: s.Readonly(), Refs: useRefs, Members: members,
	}
	return idx, nil
}
