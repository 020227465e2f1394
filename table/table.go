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

// Package table implements the Column/Row/Table component: schema
// descriptors and the materialized, schema-validated row collection every
// pipeline stage ultimately produces or consumes.
package table

import (
	"fmt"
	"strings"
	"sync"
	"unsafe"

	"github.com/liljencrantz/crush-sub002/value"
)

// Find returns the index of the column named name, or a data error
// enumerating the available columns.
func Find(schema []value.ColumnType, name string) (int, error) {
	for i, c := range schema {
		if c.Name == name {
			return i, nil
		}
	}
	names := make([]string, len(schema))
	for i, c := range schema {
		names[i] = c.Name
	}
	return -1, value.NewError(value.InvalidData, "unknown column %q (have: %s)", name, strings.Join(names, ", "))
}

// Valid reports whether row is valid against schema: arity matches and
// each cell's type is assignable to its declared column type.
func Valid(schema []value.ColumnType, row value.Row) error {
	if len(row) != len(schema) {
		return value.NewError(value.InvalidData, "row has %d cells, schema declares %d columns", len(row), len(schema))
	}
	for i, c := range schema {
		if !value.AssignableTo(row[i], c.Type) {
			return value.NewError(value.InvalidData, "column %q: value of type %s is not assignable to declared type %s",
				c.Name, row[i].Type(), c.Type)
		}
	}
	return nil
}

// Table is a schema plus a materialized set of rows, every one of which is
// valid against the schema. Shared by identity, like the other
// aggregates in package value.
type Table struct {
	s *tableState
}

type tableState struct {
	mu     sync.RWMutex
	schema []value.ColumnType
	rows   []value.Row
}

// New validates every row against schema and returns a Table, or the
// first validation failure encountered — table construction validates,
// unlike standalone Row construction.
func New(schema []value.ColumnType, rows []value.Row) (Table, error) {
	cp := make([]value.Row, len(rows))
	for i, r := range rows {
		if err := Valid(schema, r); err != nil {
			return Table{}, err
		}
		cp[i] = r.Clone()
	}
	return Table{s: &tableState{schema: schema, rows: cp}}, nil
}

func (t Table) Type() value.Type { return value.TableType(t.s.schema) }

func (t Table) Display() string {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	var b strings.Builder
	fmt.Fprintf(&b, "table<%d rows>", len(t.s.rows))
	return b.String()
}

func (t Table) EqualValue(o value.Value) bool {
	ot, ok := o.(Table)
	return ok && t.s == ot.s
}

// Identity returns a stable per-backing-store identity for t, used by pup's
// identity-preserving encoder (see value.List.Identity).
func (t Table) Identity() uintptr { return uintptr(unsafe.Pointer(t.s)) }

// Schema returns the table's column schema.
func (t Table) Schema() []value.ColumnType { return t.s.schema }

// Rows returns a consistent snapshot of the table's rows.
func (t Table) Rows() []value.Row {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	out := make([]value.Row, len(t.s.rows))
	copy(out, t.s.rows)
	return out
}

// Len returns the row count.
func (t Table) Len() int {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	return len(t.s.rows)
}

func (t Table) Materialize() (value.Value, error) { return t, nil }

func (t Table) AsStream() (value.TableInputStream, bool) {
	return NewReader(t.s.schema, t.Rows()), true
}

// Reader is a freshly positioned, in-memory TableInputStream over a
// materialized row slice. It backs Table.AsStream and is also the
// concrete type materializing a streaming table input.
type Reader struct {
	mu     sync.Mutex
	schema []value.ColumnType
	rows   []value.Row
	pos    int
}

// NewReader constructs a Reader over rows (the caller retains no alias to
// rows afterward; it should be treated as consumed).
func NewReader(schema []value.ColumnType, rows []value.Row) *Reader {
	return &Reader{schema: schema, rows: rows}
}

func (r *Reader) Type() value.Type     { return value.TableInputStreamType(r.schema) }
func (r *Reader) Display() string      { return "table_input_stream" }
func (r *Reader) Schema() []value.ColumnType { return r.schema }

// Read returns the next row, or value.ErrEOF once exhausted. A stream is
// consumed at most once.
func (r *Reader) Read() (value.Row, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pos >= len(r.rows) {
		return nil, value.ErrEOF
	}
	row := r.rows[r.pos]
	r.pos++
	return row, nil
}

// Materialize drains the stream into a Table. Materializing consumes the
// stream; a subsequent Read returns EOF.
func (r *Reader) Materialize() (value.Value, error) {
	var rows []value.Row
	for {
		row, err := r.Read()
		if err != nil {
			break
		}
		rows = append(rows, row)
	}
	return New(r.schema, rows)
}
