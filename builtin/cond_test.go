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

	"github.com/liljencrantz/crush-sub002/command"
	"github.com/liljencrantz/crush-sub002/exec"
	"github.com/liljencrantz/crush-sub002/value"
)

// condtestRan records which operand thunks actually got evaluated, so a
// test can assert that short-circuiting skipped the ones past the
// deciding operand.
type condtestRan struct {
	order []string
}

func registerCondtestOperand(t *testing.T, ran *condtestRan, name string, result bool) {
	command.RegisterFunction(&command.Command{
		Name:   name,
		Output: command.OutputType{Kind: command.OutputKnown, Type: value.BoolType},
		Run: func(ctx *command.ExecutionContext) error {
			ran.order = append(ran.order, name)
			return ctx.ValueOutput.Send(value.Bool(result))
		},
	})
}

func subJobArg(name string) exec.ArgNode {
	return exec.ArgNode{Expr: &exec.SubJob{Job: &exec.JobNode{
		Stages: []*exec.CallNode{{Name: name}},
	}}}
}

func TestAndShortCircuitsOnFirstFalse(t *testing.T) {
	e, _ := newTestEngine()
	ran := &condtestRan{}
	registerCondtestOperand(t, ran, "condtest.and.a", true)
	registerCondtestOperand(t, ran, "condtest.and.b", false)
	registerCondtestOperand(t, ran, "condtest.and.c", true)

	call := callOf("and", subJobArg("condtest.and.a"), subJobArg("condtest.and.b"), subJobArg("condtest.and.c"))
	v, err := runStages(e, call)
	if err != nil {
		t.Fatal(err)
	}
	if bool(v.(value.Bool)) != false {
		t.Fatalf("expected and to be false, got %v", v)
	}
	if len(ran.order) != 2 || ran.order[0] != "condtest.and.a" || ran.order[1] != "condtest.and.b" {
		t.Fatalf("expected and to stop evaluating right after the first false operand, ran %v", ran.order)
	}
}

func TestAndEvaluatesEveryOperandWhenAllTrue(t *testing.T) {
	e, _ := newTestEngine()
	ran := &condtestRan{}
	registerCondtestOperand(t, ran, "condtest.and2.a", true)
	registerCondtestOperand(t, ran, "condtest.and2.b", true)

	call := callOf("and", subJobArg("condtest.and2.a"), subJobArg("condtest.and2.b"))
	v, err := runStages(e, call)
	if err != nil {
		t.Fatal(err)
	}
	if bool(v.(value.Bool)) != true {
		t.Fatalf("expected and to be true, got %v", v)
	}
	if len(ran.order) != 2 {
		t.Fatalf("expected both operands to run, ran %v", ran.order)
	}
}

func TestOrShortCircuitsOnFirstTrue(t *testing.T) {
	e, _ := newTestEngine()
	ran := &condtestRan{}
	registerCondtestOperand(t, ran, "condtest.or.a", false)
	registerCondtestOperand(t, ran, "condtest.or.b", true)
	registerCondtestOperand(t, ran, "condtest.or.c", false)

	call := callOf("or", subJobArg("condtest.or.a"), subJobArg("condtest.or.b"), subJobArg("condtest.or.c"))
	v, err := runStages(e, call)
	if err != nil {
		t.Fatal(err)
	}
	if bool(v.(value.Bool)) != true {
		t.Fatalf("expected or to be true, got %v", v)
	}
	if len(ran.order) != 2 || ran.order[0] != "condtest.or.a" || ran.order[1] != "condtest.or.b" {
		t.Fatalf("expected or to stop evaluating right after the first true operand, ran %v", ran.order)
	}
}
