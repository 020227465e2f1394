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

// Package pup implements crush's native serialization format: an
// identity-preserving, positional element table that every first-class
// value (including cyclic aggregates such as a self-referential scope)
// flattens into and reconstructs from.
package pup

import "github.com/liljencrantz/crush-sub002/value"

// Kind tags the shape of one Element in an artifact's element table.
type Kind byte

const (
	KindSmallInt Kind = iota
	KindLargeInt
	KindString
	KindTrackedString
	KindBool
	KindFloat
	KindBinary
	KindTime
	KindDuration
	KindGlob
	KindRegex
	KindFile
	KindType
	KindList
	KindDict
	KindStruct
	KindScope
	KindTable
	KindColumnType
	KindEmpty
)

// Member is one name/value pair of a Struct or Scope element, stored as a
// pair of element refs (the name itself is a deduplicated String element).
type Member struct {
	NameRef  int
	ValueRef int
}

// Element is one entry of a pup artifact's element table: a self-contained,
// positionally addressed encoding of one value, or of a structural part of
// one (a struct/scope member, a table's column descriptor). Every reference
// to another value within an Element is an index into the same artifact's
// Elements slice. Exactly the fields relevant to Kind are populated; the
// rest are left zero.
type Element struct {
	Kind Kind

	Int   int64  // SmallInt: value
	Dec   string // LargeInt: decimal text, for values outside int64 range
	Str   string // String, Glob source, Regex source, FileRef path
	Bool  bool   // Bool
	Float float64
	Blob  []byte // Binary: content-addressed by the encoder, see identity.go
	Nanos int64  // Time (UnixNano) or Duration (nanoseconds)

	TypeKind   value.Kind // Type: the kind being described
	KeyRef     int        // Type(dict): ref to key type; ColumnType: unused
	ElemRef    int        // Type(list/dict)/List/Dict: ref to element type
	ColumnRefs []int      // Type(table)/Table: refs to ColumnType elements

	Name     string // ColumnType.Name, Scope.Name
	ValueRef int     // ColumnType: ref to its type; TrackedString: ref to its string

	Refs []int // List items, or Dict's alternating key/value refs, or a
	// Table's cells flattened row-major (chunked by len(ColumnRefs)), or
	// Scope's `use` refs

	HasParent bool
	ParentRef int
	Members   []Member // Struct's own fields, or Scope's own locals

	ScopeKind int
	Readonly  bool

	Start, End int // TrackedString: source location
}

func (k Kind) String() string {
	switch k {
	case KindSmallInt:
		return "small_int"
	case KindLargeInt:
		return "large_int"
	case KindString:
		return "string"
	case KindTrackedString:
		return "tracked_string"
	case KindBool:
		return "bool"
	case KindFloat:
		return "float"
	case KindBinary:
		return "binary"
	case KindTime:
		return "time"
	case KindDuration:
		return "duration"
	case KindGlob:
		return "glob"
	case KindRegex:
		return "regex"
	case KindFile:
		return "file"
	case KindType:
		return "type"
	case KindList:
		return "list"
	case KindDict:
		return "dict"
	case KindStruct:
		return "struct"
	case KindScope:
		return "scope"
	case KindTable:
		return "table"
	case KindColumnType:
		return "column_type"
	case KindEmpty:
		return "empty"
	default:
		return "unknown_element"
	}
}

// Artifact is a complete serialized value: its element table plus the
// index of the element holding the value itself.
type Artifact struct {
	Elements []Element
	Root     int
}
