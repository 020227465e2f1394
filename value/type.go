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

// Package value defines the universe of first-class values that flow
// through a pipeline stage: the tagged set of scalar and compound kinds,
// their type descriptors, and the handful of generic operations (equality,
// ordering, hashing, display, materialization, assignability) that every
// other package in this module builds on.
//
// Kinds that need storage shared by identity and that are owned by other
// packages (Table, Scope, Command) are represented here only as Kind tags
// plus capability interfaces; the concrete struct lives in the owning
// package and implements Value directly. This keeps value acyclic: nothing
// in this package imports table, scope, or command.
package value

import "fmt"

// Kind tags the shape of a Value. It is the type-stable, scope-independent
// identity a value's "type" refers to: TypeOf(v) is a pure function
// of v.
type Kind int

const (
	KindAny Kind = iota
	KindEmpty
	KindBool
	KindInt
	KindFloat
	KindString
	KindBinary
	KindFile
	KindDuration
	KindTime
	KindGlob
	KindRegex
	KindType
	KindList
	KindDict
	KindStruct
	KindTable
	KindScope
	KindCommand
	KindBinaryStream
	KindTableInputStream
	KindTableOutputStream
)

var kindNames = map[Kind]string{
	KindAny:              "any",
	KindEmpty:             "empty",
	KindBool:              "bool",
	KindInt:               "integer",
	KindFloat:             "float",
	KindString:            "string",
	KindBinary:            "binary",
	KindFile:              "file",
	KindDuration:          "duration",
	KindTime:              "time",
	KindGlob:              "glob",
	KindRegex:             "regex",
	KindType:              "type",
	KindList:              "list",
	KindDict:              "dict",
	KindStruct:            "struct",
	KindTable:             "table",
	KindScope:             "scope",
	KindCommand:           "command",
	KindBinaryStream:      "binary_stream",
	KindTableInputStream:  "table_input_stream",
	KindTableOutputStream: "table_output_stream",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// hashableKinds lists every Kind usable as a dict key or in equality
// comparisons: all scalars, globs, regexes, types,
// files, times, durations; not scopes/commands/lists/dicts/structs/tables/streams.
var hashableKinds = map[Kind]bool{
	KindBool:     true,
	KindInt:      true,
	KindFloat:    true,
	KindString:   true,
	KindBinary:   true,
	KindFile:     true,
	KindDuration: true,
	KindTime:     true,
	KindGlob:     true,
	KindRegex:    true,
	KindType:     true,
	KindEmpty:    true,
}

// ColumnType names one column of a Row/Table/row-pipe schema.
type ColumnType struct {
	Name string
	Type Type
}

// Type is the descriptor of a value's shape. For List/Dict it carries the
// element (and key) type fixed at the collection's creation; for Table it
// carries the declared schema so that structural assignability can be checked without a concrete Table in hand.
type Type struct {
	Kind Kind

	// List: Element is the element type. Dict: Key/Element are key/value
	// types. Table: Columns is the declared schema. OneOf unions live in
	// the command package (they describe parameters, not values) and are
	// not part of this Type.
	Element *Type
	Key     *Type
	Columns []ColumnType
}

// Convenience constructors for the fixed scalar/stream kinds. Kinds whose
// runtime value type already claims the short name (Bool, Int, Float,
// String, Binary, Duration, Time, Glob, Regex, Struct) get a Type suffix
// here instead, so e.g. value.Int (the Value implementation) and
// value.IntType (the Type descriptor) can coexist.
var (
	Any          = Type{Kind: KindAny}
	Empty        = Type{Kind: KindEmpty}
	BoolType     = Type{Kind: KindBool}
	IntType      = Type{Kind: KindInt}
	FloatType    = Type{Kind: KindFloat}
	StringType   = Type{Kind: KindString}
	BinaryType   = Type{Kind: KindBinary}
	File         = Type{Kind: KindFile}
	DurationType = Type{Kind: KindDuration}
	TimeType     = Type{Kind: KindTime}
	GlobType     = Type{Kind: KindGlob}
	RegexType    = Type{Kind: KindRegex}
	TypeType     = Type{Kind: KindType}
	StructType   = Type{Kind: KindStruct}
	Scope        = Type{Kind: KindScope}
	Command      = Type{Kind: KindCommand}
	BinaryStream = Type{Kind: KindBinaryStream}
)

// ListType returns the type of a list whose elements have type elem.
func ListType(elem Type) Type { return Type{Kind: KindList, Element: &elem} }

// DictType returns the type of a dict from keys of type k to values of type v.
func DictType(k, v Type) Type { return Type{Kind: KindDict, Key: &k, Element: &v} }

// TableType returns the type of a table with the given schema.
func TableType(cols []ColumnType) Type { return Type{Kind: KindTable, Columns: cols} }

// TableOutputStreamType returns the type of a table output stream with the
// given schema.
func TableOutputStreamType(cols []ColumnType) Type {
	return Type{Kind: KindTableOutputStream, Columns: cols}
}

// TableInputStreamType returns the type of a table input stream with the
// given schema.
func TableInputStreamType(cols []ColumnType) Type {
	return Type{Kind: KindTableInputStream, Columns: cols}
}

// Hashable reports whether values of this type can be hashed and used as
// dict keys.
func (t Type) Hashable() bool { return hashableKinds[t.Kind] }

// Equal reports whether two type descriptors denote the same type. Two
// table schemas are equal iff column count, names and types match in order.
func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case KindList:
		return t.Element.Equal(*o.Element)
	case KindDict:
		return t.Key.Equal(*o.Key) && t.Element.Equal(*o.Element)
	case KindTable, KindTableInputStream, KindTableOutputStream:
		if len(t.Columns) != len(o.Columns) {
			return false
		}
		for i := range t.Columns {
			if t.Columns[i].Name != o.Columns[i].Name || !t.Columns[i].Type.Equal(o.Columns[i].Type) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func (t Type) String() string {
	switch t.Kind {
	case KindList:
		return "list<" + t.Element.String() + ">"
	case KindDict:
		return "dict<" + t.Key.String() + ", " + t.Element.String() + ">"
	case KindTable, KindTableInputStream, KindTableOutputStream:
		s := t.Kind.String() + "<"
		for i, c := range t.Columns {
			if i > 0 {
				s += ", "
			}
			s += c.Name + "=" + c.Type.String()
		}
		return s + ">"
	default:
		return t.Kind.String()
	}
}
