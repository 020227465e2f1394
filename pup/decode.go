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
	"math/big"

	"github.com/liljencrantz/crush-sub002/scope"
	"github.com/liljencrantz/crush-sub002/table"
	"github.com/liljencrantz/crush-sub002/value"
)

type decoder struct {
	elements []Element
	values   map[int]value.Value // memoized decode by element index (cycles resolve here)
	types    map[int]value.Type
}

// Decode reconstructs the value held at a.Root from a's element table.
func Decode(a *Artifact) (value.Value, error) {
	d := &decoder{
		elements: a.Elements,
		values:   map[int]value.Value{},
		types:    map[int]value.Type{},
	}
	return d.value(a.Root)
}

func (d *decoder) elem(idx int) (Element, error) {
	if idx < 0 || idx >= len(d.elements) {
		return Element{}, value.NewError(value.InvalidData, "pup: element ref %d out of range (have %d)", idx, len(d.elements))
	}
	return d.elements[idx], nil
}

func (d *decoder) str(idx int) (string, error) {
	e, err := d.elem(idx)
	if err != nil {
		return "", err
	}
	if e.Kind != KindString {
		return "", value.NewError(value.InvalidData, "pup: expected a string element, got %s", e.Kind)
	}
	return e.Str, nil
}

func (d *decoder) typ(idx int) (value.Type, error) {
	if t, ok := d.types[idx]; ok {
		return t, nil
	}
	e, err := d.elem(idx)
	if err != nil {
		return value.Type{}, err
	}
	if e.Kind != KindType {
		return value.Type{}, value.NewError(value.InvalidData, "pup: expected a type element, got %s", e.Kind)
	}
	t := value.Type{Kind: e.TypeKind}
	switch e.TypeKind {
	case value.KindList:
		elem, err := d.typ(e.ElemRef)
		if err != nil {
			return value.Type{}, err
		}
		t.Element = &elem
	case value.KindDict:
		key, err := d.typ(e.KeyRef)
		if err != nil {
			return value.Type{}, err
		}
		val, err := d.typ(e.ElemRef)
		if err != nil {
			return value.Type{}, err
		}
		t.Key, t.Element = &key, &val
	case value.KindTable, value.KindTableInputStream, value.KindTableOutputStream:
		cols := make([]value.ColumnType, len(e.ColumnRefs))
		for i, cref := range e.ColumnRefs {
			c, err := d.columnType(cref)
			if err != nil {
				return value.Type{}, err
			}
			cols[i] = c
		}
		t.Columns = cols
	}
	d.types[idx] = t
	return t, nil
}

func (d *decoder) columnType(idx int) (value.ColumnType, error) {
	e, err := d.elem(idx)
	if err != nil {
		return value.ColumnType{}, err
	}
	if e.Kind != KindColumnType {
		return value.ColumnType{}, value.NewError(value.InvalidData, "pup: expected a column_type element, got %s", e.Kind)
	}
	t, err := d.typ(e.ValueRef)
	if err != nil {
		return value.ColumnType{}, err
	}
	return value.ColumnType{Name: e.Name, Type: t}, nil
}

// value reconstructs the value at element index idx, returning the memoized
// instance if idx has already been decoded (this is what lets a cyclic
// scope resolve without infinite recursion, ).
func (d *decoder) value(idx int) (value.Value, error) {
	if v, ok := d.values[idx]; ok {
		return v, nil
	}
	e, err := d.elem(idx)
	if err != nil {
		return nil, err
	}
	switch e.Kind {
	case KindEmpty:
		v := value.EmptyV()
		d.values[idx] = v
		return v, nil
	case KindBool:
		v := value.Bool(e.Bool)
		d.values[idx] = v
		return v, nil
	case KindSmallInt:
		v := value.NewInt(e.Int)
		d.values[idx] = v
		return v, nil
	case KindLargeInt:
		bi, ok := new(big.Int).SetString(e.Dec, 10)
		if !ok {
			return nil, value.NewError(value.InvalidData, "pup: malformed large integer %q", e.Dec)
		}
		v := value.NewBigInt(bi)
		d.values[idx] = v
		return v, nil
	case KindFloat:
		v := value.Float(e.Float)
		d.values[idx] = v
		return v, nil
	case KindString:
		v := value.String(e.Str)
		d.values[idx] = v
		return v, nil
	case KindBinary:
		v := value.NewBinary(e.Blob)
		d.values[idx] = v
		return v, nil
	case KindFile:
		v, err := value.NewFileRef(e.Str)
		if err != nil {
			return nil, err
		}
		d.values[idx] = v
		return v, nil
	case KindDuration:
		v := value.Duration(e.Nanos)
		d.values[idx] = v
		return v, nil
	case KindTime:
		v := value.UnixTime(0, e.Nanos)
		d.values[idx] = v
		return v, nil
	case KindGlob:
		v, err := value.NewGlob(e.Str)
		if err != nil {
			return nil, err
		}
		d.values[idx] = v
		return v, nil
	case KindRegex:
		v, err := value.NewRegex(e.Str)
		if err != nil {
			return nil, err
		}
		d.values[idx] = v
		return v, nil
	case KindType:
		t, err := d.typ(idx)
		if err != nil {
			return nil, err
		}
		v := value.TypeValue{T: t}
		d.values[idx] = v
		return v, nil
	case KindList:
		return d.decodeList(idx, e)
	case KindDict:
		return d.decodeDict(idx, e)
	case KindStruct:
		return d.decodeStruct(idx, e)
	case KindTable:
		return d.decodeTable(idx, e)
	case KindScope:
		return d.decodeScope(idx, e)
	default:
		return nil, value.NewError(value.InvalidData, "pup: element %d has unexpected top-level kind %s", idx, e.Kind)
	}
}

func (d *decoder) decodeList(idx int, e Element) (value.Value, error) {
	elemType, err := d.typ(e.ElemRef)
	if err != nil {
		return nil, err
	}
	l := value.NewList(elemType, nil)
	d.values[idx] = l
	for _, ref := range e.Refs {
		item, err := d.value(ref)
		if err != nil {
			return nil, err
		}
		if err := l.Append(item); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func (d *decoder) decodeDict(idx int, e Element) (value.Value, error) {
	keyType, err := d.typ(e.KeyRef)
	if err != nil {
		return nil, err
	}
	valType, err := d.typ(e.ElemRef)
	if err != nil {
		return nil, err
	}
	dd, err := value.NewDict(keyType, valType)
	if err != nil {
		return nil, err
	}
	d.values[idx] = dd
	for i := 0; i+1 < len(e.Refs); i += 2 {
		k, err := d.value(e.Refs[i])
		if err != nil {
			return nil, err
		}
		v, err := d.value(e.Refs[i+1])
		if err != nil {
			return nil, err
		}
		if err := dd.Set(k, v); err != nil {
			return nil, err
		}
	}
	return dd, nil
}

func (d *decoder) decodeStruct(idx int, e Element) (value.Value, error) {
	var parent *value.Struct
	if e.HasParent {
		pv, err := d.value(e.ParentRef)
		if err != nil {
			return nil, err
		}
		ps, ok := pv.(value.Struct)
		if !ok {
			return nil, value.NewError(value.InvalidData, "pup: struct parent ref does not point at a struct")
		}
		parent = &ps
	}
	st := value.NewStruct(parent, nil)
	d.values[idx] = st
	for _, m := range e.Members {
		name, err := d.str(m.NameRef)
		if err != nil {
			return nil, err
		}
		val, err := d.value(m.ValueRef)
		if err != nil {
			return nil, err
		}
		st.Set(name, val)
	}
	return st, nil
}

func (d *decoder) decodeTable(idx int, e Element) (value.Value, error) {
	schema := make([]value.ColumnType, len(e.ColumnRefs))
	for i, cref := range e.ColumnRefs {
		c, err := d.columnType(cref)
		if err != nil {
			return nil, err
		}
		schema[i] = c
	}
	width := len(schema)
	var rows []value.Row
	if width > 0 {
		for i := 0; i+width <= len(e.Refs); i += width {
			row := make(value.Row, width)
			for j := 0; j < width; j++ {
				cell, err := d.value(e.Refs[i+j])
				if err != nil {
					return nil, err
				}
				row[j] = cell
			}
			rows = append(rows, row)
		}
	}
	t, err := table.New(schema, rows)
	if err != nil {
		return nil, err
	}
	d.values[idx] = t
	return t, nil
}

func (d *decoder) decodeScope(idx int, e Element) (value.Value, error) {
	// The scope is constructed and memoized before its uses/locals are
	// decoded, so a binding that points back at this same scope (the
	// cycle a `use` import can form) resolves through the memo instead
	// of recursing.
	s := scope.New(e.Name, scope.Kind(e.ScopeKind))
	s.SetReadonly(e.Readonly)
	d.values[idx] = s

	for _, uref := range e.Refs {
		uv, err := d.value(uref)
		if err != nil {
			return nil, err
		}
		us, ok := uv.(*scope.Scope)
		if !ok {
			return nil, value.NewError(value.InvalidData, "pup: scope `use` ref does not point at a scope")
		}
		s.Use(us)
	}
	for _, m := range e.Members {
		name, err := d.str(m.NameRef)
		if err != nil {
			return nil, err
		}
		val, err := d.value(m.ValueRef)
		if err != nil {
			return nil, err
		}
		s.SetLocal(name, val)
	}
	return s, nil
}
