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

// Value is satisfied by every first-class value a pipeline stage can
// produce or consume. Table, Scope, and Command are implemented in their
// own packages; everything else lives in this package.
type Value interface {
	Type() Type
	Display() string
}

// Equatable is implemented by values whose type is hashable.
type Equatable interface {
	EqualValue(other Value) bool
}

// Hashable is implemented by values whose type is hashable.
type Hashable interface {
	HashValue() uint64
}

// Orderable is implemented by values whose type is comparable (a strict
// superset boundary: all hashable types are comparable).
type Orderable interface {
	// CompareValue returns -1/0/1 when other has the same underlying
	// comparable type, or ok=false when the comparison is undefined.
	CompareValue(other Value) (cmp int, ok bool)
}

// Materializable is implemented by values that carry a streaming
// component (table/binary input streams, and aggregates that may contain
// them) and must recursively drain it on Materialize.
type Materializable interface {
	Materialize() (Value, error)
}

// Row is an ordered tuple of values, as carried over a row-pipe or stored
// in a Table. A Row is not validated against a schema on its own; only the
// send/construction boundary (table.Table, pipe.RowSender) validates it.
type Row []Value

// Clone returns a shallow copy of the row (the row tuple itself is always
// copied on share; the cell values remain identity-shared aggregates).
func (r Row) Clone() Row {
	out := make(Row, len(r))
	copy(out, r)
	return out
}

// TableInputStream is a single-consumer reader of schema-bound rows.
// Concrete implementations live in package table (a materialized table's
// reader) and package pipe (a running row-pipe's receiver end).
type TableInputStream interface {
	Value
	Schema() []ColumnType
	// Read returns the next row, or ErrEOF when the stream is exhausted.
	// Streams are consumed at most once.
	Read() (Row, error)
}

// TableOutputStream is a single-producer sink of schema-bound rows.
type TableOutputStream interface {
	Value
	Schema() []ColumnType
	Send(Row) error
	Close() error
}

// BinaryInputStream is a single-consumer byte reader value.
type BinaryInputStream interface {
	Value
	Read(p []byte) (int, error)
}

// Streamable is implemented by aggregate values that can be viewed as a
// TableInputStream without copying: list → one
// column named "value", dict → two columns "key","value", table → its own
// schema.
type Streamable interface {
	AsStream() (TableInputStream, bool)
}

// TypeOf returns v's type descriptor. It is a pure function of v,
// independent of any scope.
func TypeOf(v Value) Type { return v.Type() }

// Equals implements equals: defined only when both values
// share the same hashable type; otherwise false.
func Equals(a, b Value) bool {
	ta, tb := a.Type(), b.Type()
	if !ta.Equal(tb) || !ta.Hashable() {
		return false
	}
	eq, ok := a.(Equatable)
	if !ok {
		return false
	}
	return eq.EqualValue(b)
}

// Compare implements partial_cmp: defined only when both
// values share the same comparable type. Returns an error enumerating the
// two types when undefined.
func Compare(a, b Value) (int, error) {
	ta, tb := a.Type(), b.Type()
	if ta.Equal(tb) {
		if ord, ok := a.(Orderable); ok {
			if cmp, ok := ord.CompareValue(b); ok {
				return cmp, nil
			}
		}
	}
	return 0, NewError(InvalidArgument, "values of types %s and %s could not be compared", ta, tb)
}

// Hash implements hash: defined only when type_of(v) is
// hashable. The zero return on failure is never observed by a caller that
// checks the type first; it exists so Hash can be used directly as a Go
// map key function in controlled contexts (e.g. Dict's key index).
func Hash(v Value) (uint64, bool) {
	if !v.Type().Hashable() {
		return 0, false
	}
	h, ok := v.(Hashable)
	if !ok {
		return 0, false
	}
	return h.HashValue(), true
}

// Materialize recursively drains streaming values into their non-streaming
// counterpart. It is idempotent on non-streaming values.
func Materialize(v Value) (Value, error) {
	if m, ok := v.(Materializable); ok {
		return m.Materialize()
	}
	return v, nil
}

// AssignableTo implements assignable_to: true if t is Any, or
// v's type equals t, or (t is a generic list/dict/table type) the element
// types match structurally.
func AssignableTo(v Value, t Type) bool {
	if t.Kind == KindAny {
		return true
	}
	vt := v.Type()
	if vt.Kind != t.Kind {
		return false
	}
	switch t.Kind {
	case KindList:
		return t.Element.Kind == KindAny || vt.Element.Equal(*t.Element)
	case KindDict:
		return (t.Key.Kind == KindAny || vt.Key.Equal(*t.Key)) &&
			(t.Element.Kind == KindAny || vt.Element.Equal(*t.Element))
	case KindTable, KindTableInputStream, KindTableOutputStream:
		return vt.Equal(t)
	default:
		return true
	}
}

// AsStream returns a freshly positioned reader over v's rows when v is a
// list, dict, table, or table input stream; ok is false otherwise.
func AsStream(v Value) (TableInputStream, bool) {
	if s, ok := v.(Streamable); ok {
		return s.AsStream()
	}
	if s, ok := v.(TableInputStream); ok {
		return s, true
	}
	return nil, false
}

// Display returns v's human-readable form.
func Display(v Value) string { return v.Display() }
