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

package value

import (
	"strings"
	"sync"
	"unsafe"

	"golang.org/x/exp/slices"
)

// List is an ordered list of values of a single element type, fixed at
// creation. Lists are shared by identity: copying a List aliases the same
// backing state, guarded by an internal lock
type List struct {
	s *listState
}

type listState struct {
	mu       sync.RWMutex
	elemType Type
	items    []Value
}

// NewList constructs a List of the given element type from items. Every
// item must already be assignable to elemType; construction does not
// re-validate (mirrors table.Table, whose constructor does validate — the
// asymmetry is intentional: a List's element type is a promise about
// future Append calls, not a schema boundary like a Row).
func NewList(elemType Type, items []Value) List {
	return List{s: &listState{elemType: elemType, items: slices.Clone(items)}}
}

func (l List) Type() Type { return ListType(l.s.elemType) }

func (l List) Display() string {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range l.s.items {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(v.Display())
	}
	b.WriteByte(']')
	return b.String()
}

// Len returns the current element count.
func (l List) Len() int {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()
	return len(l.s.items)
}

// Get returns the element at index i.
func (l List) Get(i int) (Value, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()
	if i < 0 || i >= len(l.s.items) {
		return nil, NewError(InvalidArgument, "list index %d out of range (len %d)", i, len(l.s.items))
	}
	return l.s.items[i], nil
}

// Append adds v to the end of the list, validating assignability to the
// declared element type.
func (l List) Append(v Value) error {
	if !AssignableTo(v, l.s.elemType) {
		return NewError(InvalidArgument, "cannot append value of type %s to list<%s>", v.Type(), l.s.elemType)
	}
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	l.s.items = append(l.s.items, v)
	return nil
}

// Snapshot returns a consistent copy of the current elements, taken under
// the list's lock.
func (l List) Snapshot() []Value {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()
	return slices.Clone(l.s.items)
}

func (l List) EqualValue(o Value) bool {
	ol, ok := o.(List)
	if !ok {
		return false
	}
	return l.s == ol.s
}

// Identity returns a stable per-backing-store identity for l: two Lists
// sharing the same backing state return the same Identity (ported from the
// originals' identity_arc::Identity trait). Used by pup's identity-
// preserving encoder to detect aliased aggregates.
func (l List) Identity() uintptr { return uintptr(unsafe.Pointer(l.s)) }

func (l List) Materialize() (Value, error) {
	items := l.Snapshot()
	out := make([]Value, len(items))
	for i, v := range items {
		m, err := Materialize(v)
		if err != nil {
			return nil, err
		}
		out[i] = m
	}
	return NewList(l.s.elemType, out), nil
}

func (l List) AsStream() (TableInputStream, bool) {
	cols := []ColumnType{{Name: "value", Type: l.s.elemType}}
	items := l.Snapshot()
	return newSliceStream(cols, rowsFromValues(items)), true
}

func rowsFromValues(items []Value) []Row {
	rows := make([]Row, len(items))
	for i, v := range items {
		rows[i] = Row{v}
	}
	return rows
}

// DictEntry is one key/value pair of a Dict, kept in insertion order.
type DictEntry struct {
	key Value
	val Value
}

// Dict is an insertion-ordered mapping from a hashable key type to a
// value type, both fixed at creation. Shared by identity like
// List.
type Dict struct {
	s *dictState
}

type dictState struct {
	mu      sync.RWMutex
	keyType Type
	valType Type
	entries []DictEntry
	index   map[uint64][]int // hash(key) -> indices into entries
}

// NewDict constructs an empty Dict. keyType must be hashable.
func NewDict(keyType, valType Type) (Dict, error) {
	if !keyType.Hashable() {
		return Dict{}, NewError(InvalidArgument, "dict key type %s is not hashable", keyType)
	}
	return Dict{s: &dictState{
		keyType: keyType,
		valType: valType,
		index:   map[uint64][]int{},
	}}, nil
}

func (d Dict) Type() Type { return DictType(d.s.keyType, d.s.valType) }

func (d Dict) Display() string {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	var b strings.Builder
	b.WriteByte('{')
	for i, e := range d.s.entries {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(e.key.Display())
		b.WriteString(": ")
		b.WriteString(e.val.Display())
	}
	b.WriteByte('}')
	return b.String()
}

func (d Dict) EqualValue(o Value) bool {
	od, ok := o.(Dict)
	return ok && d.s == od.s
}

// Identity returns a stable per-backing-store identity for d. See List.Identity.
func (d Dict) Identity() uintptr { return uintptr(unsafe.Pointer(d.s)) }

// Len returns the entry count.
func (d Dict) Len() int {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	return len(d.s.entries)
}

func (d Dict) find(key Value) (int, bool) {
	h, ok := Hash(key)
	if !ok {
		return -1, false
	}
	for _, idx := range d.s.index[h] {
		if Equals(d.s.entries[idx].key, key) {
			return idx, true
		}
	}
	return -1, false
}

// Get looks up key, returning ok=false if absent.
func (d Dict) Get(key Value) (Value, bool) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	idx, ok := d.find(key)
	if !ok {
		return nil, false
	}
	return d.s.entries[idx].val, true
}

// Set inserts or overwrites key -> val, validating both against the
// dict's declared types. Overwriting preserves the key's original
// insertion position.
func (d Dict) Set(key, val Value) error {
	if !AssignableTo(key, d.s.keyType) {
		return NewError(InvalidArgument, "dict key type %s does not match declared key type %s", key.Type(), d.s.keyType)
	}
	if !AssignableTo(val, d.s.valType) {
		return NewError(InvalidArgument, "dict value type %s does not match declared value type %s", val.Type(), d.s.valType)
	}
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	if idx, ok := d.find(key); ok {
		d.s.entries[idx].val = val
		return nil
	}
	h, _ := Hash(key)
	d.s.index[h] = append(d.s.index[h], len(d.s.entries))
	d.s.entries = append(d.s.entries, DictEntry{key: key, val: val})
	return nil
}

// Entries returns a consistent snapshot of key/value pairs in insertion
// order.
func (d Dict) Entries() []DictEntry {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	return slices.Clone(d.s.entries)
}

// Key returns e's key.
func (e DictEntry) Key() Value { return e.key }

// Val returns e's value.
func (e DictEntry) Val() Value { return e.val }

func (d Dict) Materialize() (Value, error) {
	entries := d.Entries()
	out, err := NewDict(d.s.keyType, d.s.valType)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		mv, err := Materialize(e.val)
		if err != nil {
			return nil, err
		}
		if err := out.Set(e.key, mv); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (d Dict) AsStream() (TableInputStream, bool) {
	cols := []ColumnType{{Name: "key", Type: d.s.keyType}, {Name: "value", Type: d.s.valType}}
	entries := d.Entries()
	rows := make([]Row, len(entries))
	for i, e := range entries {
		rows[i] = Row{e.key, e.val}
	}
	return newSliceStream(cols, rows), true
}

// Field is one named field of a Struct, in declaration order.
type Field struct {
	Name string
	Val  Value
}

// Struct is an ordered collection of named fields, optionally chained to a
// parent struct for prototype-style inheritance: a field lookup that
// misses locally falls through to Parent.
type Struct struct {
	s *structState
}

type structState struct {
	mu     sync.RWMutex
	fields []Field
	index  map[string]int
	parent *Struct
}

// NewStruct constructs a Struct from fields, with an optional parent for
// prototype lookup fallback.
func NewStruct(parent *Struct, fields []Field) Struct {
	st := &structState{index: map[string]int{}, parent: parent}
	for _, f := range fields {
		if i, ok := st.index[f.Name]; ok {
			st.fields[i] = f
			continue
		}
		st.index[f.Name] = len(st.fields)
		st.fields = append(st.fields, f)
	}
	return Struct{s: st}
}

func (Struct) Type() Type { return Type{Kind: KindStruct} }

func (s Struct) Display() string {
	s.s.mu.RLock()
	defer s.s.mu.RUnlock()
	var b strings.Builder
	b.WriteByte('{')
	for i, f := range s.s.fields {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f.Name)
		b.WriteString("=")
		b.WriteString(f.Val.Display())
	}
	b.WriteByte('}')
	return b.String()
}

func (s Struct) EqualValue(o Value) bool {
	os, ok := o.(Struct)
	return ok && s.s == os.s
}

// Identity returns a stable per-backing-store identity for s. See List.Identity.
func (s Struct) Identity() uintptr { return uintptr(unsafe.Pointer(s.s)) }

// Parent returns s's prototype parent, or nil if none.
func (s Struct) Parent() *Struct { return s.s.parent }

// Get looks up name locally, then via the parent chain.
func (s Struct) Get(name string) (Value, bool) {
	s.s.mu.RLock()
	if i, ok := s.s.index[name]; ok {
		v := s.s.fields[i].Val
		s.s.mu.RUnlock()
		return v, true
	}
	parent := s.s.parent
	s.s.mu.RUnlock()
	if parent != nil {
		return parent.Get(name)
	}
	return nil, false
}

// Set assigns name := val locally, appending a new field if name is not
// already present locally (prototype parents are never mutated).
func (s Struct) Set(name string, val Value) {
	s.s.mu.Lock()
	defer s.s.mu.Unlock()
	if i, ok := s.s.index[name]; ok {
		s.s.fields[i].Val = val
		return
	}
	s.s.index[name] = len(s.s.fields)
	s.s.fields = append(s.s.fields, Field{Name: name, Val: val})
}

// Fields returns a consistent snapshot of the struct's own fields
// (excluding anything only visible via Parent).
func (s Struct) Fields() []Field {
	s.s.mu.RLock()
	defer s.s.mu.RUnlock()
	out := make([]Field, len(s.s.fields))
	copy(out, s.s.fields)
	return out
}

func (s Struct) Materialize() (Value, error) {
	fields := s.Fields()
	out := make([]Field, len(fields))
	for i, f := range fields {
		m, err := Materialize(f.Val)
		if err != nil {
			return nil, err
		}
		out[i] = Field{Name: f.Name, Val: m}
	}
	return NewStruct(s.s.parent, out), nil
}
