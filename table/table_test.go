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
	"testing"

	"github.com/liljencrantz/crush-sub002/value"
)

var schema = []value.ColumnType{{Name: "n", Type: value.IntType}}

func TestNewRejectsInvalidRow(t *testing.T) {
	_, err := New(schema, []value.Row{{value.String("oops")}})
	if err == nil {
		t.Fatal("expected a data error constructing a table from a mistyped row")
	}
	ve, ok := err.(*value.Error)
	if !ok || ve.Kind != value.InvalidData {
		t.Fatalf("expected InvalidData error, got %v", err)
	}
}

func TestFindUnknownColumn(t *testing.T) {
	_, err := Find(schema, "missing")
	if err == nil {
		t.Fatal("expected an error for an unknown column")
	}
}

func TestReaderEOF(t *testing.T) {
	tb, err := New(schema, []value.Row{{value.NewInt(1)}, {value.NewInt(2)}})
	if err != nil {
		t.Fatal(err)
	}
	r, ok := tb.AsStream()
	if !ok {
		t.Fatal("table should be streamable")
	}
	var got []int64
	for {
		row, err := r.Read()
		if err != nil {
			break
		}
		got = append(got, row[0].(value.Int).Int64())
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	if _, err := r.Read(); err != value.ErrEOF {
		t.Errorf("expected ErrEOF after exhausting reader, got %v", err)
	}
}

func TestWriterRejectsAfterClose(t *testing.T) {
	w := NewWriter(schema)
	if err := w.Send(value.Row{value.NewInt(1)}); err != nil {
		t.Fatal(err)
	}
	w.Close()
	if err := w.Send(value.Row{value.NewInt(2)}); err == nil {
		t.Fatal("expected Send after Close to fail")
	}
	tb, err := w.Table()
	if err != nil {
		t.Fatal(err)
	}
	if tb.Len() != 1 {
		t.Fatalf("expected 1 row, got %d", tb.Len())
	}
}
