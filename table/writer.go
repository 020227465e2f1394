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

package table

import (
	"sync"

	"github.com/liljencrantz/crush-sub002/value"
)

// Writer is an in-memory value.TableOutputStream: every Send is validated
// against the schema and appended. It is the sink a command body uses
// when it wants to build a Table directly rather than writing to a
// pipe.RowSender.
type Writer struct {
	mu     sync.Mutex
	schema []value.ColumnType
	rows   []value.Row
	closed bool
}

// NewWriter constructs an empty Writer bound to schema.
func NewWriter(schema []value.ColumnType) *Writer {
	return &Writer{schema: schema}
}

func (w *Writer) Type() value.Type     { return value.TableOutputStreamType(w.schema) }
func (w *Writer) Display() string      { return "table_output_stream" }
func (w *Writer) Schema() []value.ColumnType { return w.schema }

// Send validates row against the schema and appends it.
func (w *Writer) Send(row value.Row) error {
	if err := Valid(w.schema, row); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return value.ErrSend
	}
	w.rows = append(w.rows, row.Clone())
	return nil
}

// Close marks the writer closed; further Sends fail with value.ErrSend.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

// Table snapshots the rows written so far into a Table.
func (w *Writer) Table() (Table, error) {
	w.mu.Lock()
	rows := make([]value.Row, len(w.rows))
	copy(rows, w.rows)
	w.mu.Unlock()
	return New(w.schema, rows)
}
