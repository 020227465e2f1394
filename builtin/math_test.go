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
	"math"
	"testing"

	"github.com/liljencrantz/crush-sub002/value"
)

func approxEqual(a, b float64) bool {
	const eps = 1e-9
	d := a - b
	return d > -eps && d < eps
}

func TestMathSqrtAcceptsIntOrFloat(t *testing.T) {
	e, _ := newTestEngine()
	v, err := runStages(e, callOf("math.sqrt", posArg(value.NewInt(9))))
	if err != nil {
		t.Fatal(err)
	}
	if !approxEqual(float64(v.(value.Float)), 3) {
		t.Fatalf("expected sqrt(9) == 3, got %v", v)
	}

	v, err = runStages(e, callOf("math.sqrt", posArg(value.Float(2.25))))
	if err != nil {
		t.Fatal(err)
	}
	if !approxEqual(float64(v.(value.Float)), 1.5) {
		t.Fatalf("expected sqrt(2.25) == 1.5, got %v", v)
	}
}

func TestMathPowRaisesBaseToN(t *testing.T) {
	e, _ := newTestEngine()
	v, err := runStages(e, callOf("math.pow", posArg(value.NewInt(2)), posArg(value.NewInt(10))))
	if err != nil {
		t.Fatal(err)
	}
	if !approxEqual(float64(v.(value.Float)), 1024) {
		t.Fatalf("expected 2**10 == 1024, got %v", v)
	}
}

func TestMathLogUsesGivenBase(t *testing.T) {
	e, _ := newTestEngine()
	v, err := runStages(e, callOf("math.log", posArg(value.NewInt(8)), posArg(value.NewInt(2))))
	if err != nil {
		t.Fatal(err)
	}
	if !approxEqual(float64(v.(value.Float)), 3) {
		t.Fatalf("expected log_2(8) == 3, got %v", v)
	}
}

func TestMathConstants(t *testing.T) {
	e, _ := newTestEngine()
	v, err := runStages(e, callOf("math.pi"))
	if err != nil {
		t.Fatal(err)
	}
	if !approxEqual(float64(v.(value.Float)), math.Pi) {
		t.Fatalf("expected math.pi == %v, got %v", math.Pi, v)
	}

	v, err = runStages(e, callOf("math.tau"))
	if err != nil {
		t.Fatal(err)
	}
	if !approxEqual(float64(v.(value.Float)), 2*math.Pi) {
		t.Fatalf("expected math.tau == 2*pi, got %v", v)
	}
}

func TestMathMinMax(t *testing.T) {
	e, _ := newTestEngine()
	v, err := runStages(e, callOf("math.min", posArg(value.NewInt(5)), posArg(value.Float(2.5))))
	if err != nil {
		t.Fatal(err)
	}
	if !approxEqual(float64(v.(value.Float)), 2.5) {
		t.Fatalf("expected math.min(5, 2.5) == 2.5, got %v", v)
	}

	v, err = runStages(e, callOf("math.max", posArg(value.NewInt(5)), posArg(value.Float(2.5))))
	if err != nil {
		t.Fatal(err)
	}
	if !approxEqual(float64(v.(value.Float)), 5) {
		t.Fatalf("expected math.max(5, 2.5) == 5, got %v", v)
	}
}

func TestOrderedMinMaxGenericHelpers(t *testing.T) {
	if orderedMin(3, 7) != 3 {
		t.Fatal("orderedMin(3, 7) should be 3")
	}
	if orderedMax(3, 7) != 7 {
		t.Fatal("orderedMax(3, 7) should be 7")
	}
	if orderedMin("b", "a") != "a" {
		t.Fatal(`orderedMin("b", "a") should be "a"`)
	}
}
