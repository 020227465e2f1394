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

import "testing"

func TestHashableReflexive(t *testing.T) {
	values := []Value{
		Bool(true), NewInt(42), Float(3.5), String("hi"),
		NewBinary([]byte("blob")), Duration(7), theEmpty,
	}
	for _, v := range values {
		if !Equals(v, v) {
			t.Errorf("%v: equals(v,v) is false", v.Display())
		}
		h1, ok1 := Hash(v)
		h2, ok2 := Hash(v)
		if ok1 != ok2 || h1 != h2 {
			t.Errorf("%v: hash(v) is not stable", v.Display())
		}
	}
}

func TestEqualsRequiresSameHashableType(t *testing.T) {
	if Equals(NewInt(1), Float(1)) {
		t.Error("int(1) should not equal float(1) under equals (no implicit promotion)")
	}
	if Equals(NewList(Int, nil), NewList(Int, nil)) {
		t.Error("lists are not hashable and must never compare equal via Equals")
	}
}

func TestCompareUndefinedAcrossTypes(t *testing.T) {
	_, err := Compare(String("a"), NewInt(1))
	if err == nil {
		t.Fatal("expected an error comparing string and int")
	}
}

func TestCompareUndefinedBetweenIntAndFloat(t *testing.T) {
	cmp, err := Compare(NewInt(2), Float(1.5))
	if err == nil {
		t.Fatalf("expected an error comparing int and float (no implicit promotion), got cmp=%d", cmp)
	}
}

func TestAssignableToAny(t *testing.T) {
	if !AssignableTo(NewInt(1), Any) {
		t.Error("every value must be assignable to Any")
	}
}

func TestAssignableToStructuralList(t *testing.T) {
	l := NewList(Int, []Value{NewInt(1)})
	if !AssignableTo(l, ListType(Int)) {
		t.Error("list<integer> should be assignable to list<integer>")
	}
	if AssignableTo(l, ListType(String)) {
		t.Error("list<integer> should not be assignable to list<string>")
	}
}

func TestMaterializeIdempotent(t *testing.T) {
	v, err := Materialize(NewInt(5))
	if err != nil {
		t.Fatal(err)
	}
	v2, err := Materialize(v)
	if err != nil {
		t.Fatal(err)
	}
	if !Equals(v, v2) {
		t.Error("materialize should be idempotent on non-streaming values")
	}
}

func TestQuoteStringEscapes(t *testing.T) {
	got := QuoteString("a\nb\tc\x1b\"")
	want := `"a\nb\tc\e\""`
	if got != want {
		t.Errorf("QuoteString: got %q want %q", got, want)
	}
}

func TestParseTypeRoundTrip(t *testing.T) {
	cases := []Type{
		Int, String, ListType(Int), DictType(String, ListType(Float)),
	}
	for _, ty := range cases {
		parsed, err := ParseType(ty.String())
		if err != nil {
			t.Fatalf("ParseType(%s): %v", ty.String(), err)
		}
		if !parsed.Equal(ty) {
			t.Errorf("ParseType(%s) = %s, want %s", ty.String(), parsed.String(), ty.String())
		}
	}
}

func TestDictOrderedInsertionAndOverwrite(t *testing.T) {
	d, err := NewDict(String, Int)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Set(String("a"), NewInt(1)); err != nil {
		t.Fatal(err)
	}
	if err := d.Set(String("b"), NewInt(2)); err != nil {
		t.Fatal(err)
	}
	if err := d.Set(String("a"), NewInt(3)); err != nil {
		t.Fatal(err)
	}
	entries := d.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries after overwrite, got %d", len(entries))
	}
	if entries[0].Key().(String) != "a" || entries[0].Val().(Int).Int64() != 3 {
		t.Errorf("overwrite should preserve original insertion position")
	}
	if entries[1].Key().(String) != "b" {
		t.Errorf("expected second entry to be 'b'")
	}
}

func TestListAsStreamColumnNamedValue(t *testing.T) {
	l := NewList(Int, []Value{NewInt(1), NewInt(2)})
	s, ok := AsStream(l)
	if !ok {
		t.Fatal("list should be streamable")
	}
	cols := s.Schema()
	if len(cols) != 1 || cols[0].Name != "value" {
		t.Fatalf("expected single 'value' column, got %v", cols)
	}
	var got []int64
	for {
		row, err := s.Read()
		if err != nil {
			break
		}
		got = append(got, row[0].(Int).Int64())
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("unexpected stream contents: %v", got)
	}
}

func TestStructPrototypeFallback(t *testing.T) {
	parent := NewStruct(nil, []Field{{Name: "a", Val: NewInt(1)}})
	child := NewStruct(&parent, []Field{{Name: "b", Val: NewInt(2)}})
	if v, ok := child.Get("a"); !ok || v.(Int).Int64() != 1 {
		t.Error("child should inherit 'a' from parent")
	}
	if v, ok := child.Get("b"); !ok || v.(Int).Int64() != 2 {
		t.Error("child should see its own field 'b'")
	}
	if _, ok := child.Get("missing"); ok {
		t.Error("missing field should not be found")
	}
}
