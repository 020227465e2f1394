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

package builtin

import (
	"testing"

	"github.com/liljencrantz/crush-sub002/value"
)

func TestCompOrderingOperators(t *testing.T) {
	e, _ := newTestEngine()
	cases := []struct {
		cmd  string
		want bool
	}{
		{"comp.gt", true},
		{"comp.lt", false},
		{"comp.gte", true},
		{"comp.lte", false},
	}
	for _, c := range cases {
		call := callOf(c.cmd, posArg(value.NewInt(10)), posArg(value.NewInt(5)))
		v, err := runStages(e, call)
		if err != nil {
			t.Fatalf("%s: %v", c.cmd, err)
		}
		if bool(v.(value.Bool)) != c.want {
			t.Fatalf("%s(10, 5): expected %v, got %v", c.cmd, c.want, v)
		}
	}
}

func TestCompEqAndNeq(t *testing.T) {
	e, _ := newTestEngine()
	eq := callOf("comp.eq", posArg(value.NewInt(5)), posArg(value.NewInt(5)))
	v, err := runStages(e, eq)
	if err != nil {
		t.Fatal(err)
	}
	if !bool(v.(value.Bool)) {
		t.Fatalf("expected eq(5, 5) == true, got %v", v)
	}

	neq := callOf("comp.neq", posArg(value.NewInt(5)), posArg(value.String("5")))
	v, err = runStages(e, neq)
	if err != nil {
		t.Fatal(err)
	}
	if !bool(v.(value.Bool)) {
		t.Fatalf("expected neq(5, \"5\") == true (mismatched types), got %v", v)
	}
}

func TestCompGtOnMismatchedTypesErrors(t *testing.T) {
	e, _ := newTestEngine()
	call := callOf("comp.gt", posArg(value.NewInt(1)), posArg(value.String("a")))
	_, err := runStages(e, call)
	if err == nil {
		t.Fatal("expected an error comparing an int against a string")
	}
}

func TestCompNotNegates(t *testing.T) {
	e, _ := newTestEngine()
	call := callOf("comp.not", posArg(value.Bool(false)))
	v, err := runStages(e, call)
	if err != nil {
		t.Fatal(err)
	}
	if !bool(v.(value.Bool)) {
		t.Fatalf("expected not(false) == true, got %v", v)
	}
}
