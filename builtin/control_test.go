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
	"context"
	"testing"

	"github.com/liljencrantz/crush-sub002/command"
	"github.com/liljencrantz/crush-sub002/exec"
	"github.com/liljencrantz/crush-sub002/scope"
	"github.com/liljencrantz/crush-sub002/value"
)

func init() {
	command.RegisterFunction(&command.Command{
		Name:   "exectest.one",
		Output: command.OutputType{Kind: command.OutputKnown, Type: value.IntType},
		Run: func(ctx *command.ExecutionContext) error {
			return ctx.ValueOutput.Send(value.NewInt(1))
		},
	})
	command.RegisterFunction(&command.Command{
		Name: "controltest.lessthan3",
		Signature: command.Signature{Params: []command.Param{
			{Kind: command.Positional, Name: "n", Type: value.IntType},
		}},
		Output: command.OutputType{Kind: command.OutputKnown, Type: value.BoolType},
		Run: func(ctx *command.ExecutionContext) error {
			n, _ := ctx.Args.Get("n")
			return ctx.ValueOutput.Send(value.Bool(n.(value.Int).Int64() < 3))
		},
	})
	command.RegisterFunction(&command.Command{
		Name: "controltest.increment",
		Run: func(ctx *command.ExecutionContext) error {
			return ctx.Err(ctx.Scope.Set("n", value.NewInt(mustInt(ctx)+1)))
		},
	})
}

func mustInt(ctx *command.ExecutionContext) int64 {
	n, _ := ctx.Scope.Get("n")
	return n.(value.Int).Int64()
}

func TestEchoPrintsEachArgumentsDisplayForm(t *testing.T) {
	e, p := newTestEngine()
	_, err := runStages(e, callOf("echo", posArg(value.NewInt(1)), posArg(value.Bool(true))))
	if err != nil {
		t.Fatal(err)
	}
	if len(p.lines) != 2 || p.lines[0] != "1" || p.lines[1] != "true" {
		t.Fatalf("unexpected printer lines: %v", p.lines)
	}
}

func TestForIteratesEveryRowInOrder(t *testing.T) {
	e, p := newTestEngine()
	items := value.NewList(value.IntType, []value.Value{value.NewInt(1), value.NewInt(2), value.NewInt(3)})
	body := &exec.Block{Jobs: []*exec.JobNode{
		oneStageJob(callOf("echo", exec.ArgNode{Expr: &exec.Ident{Name: "i"}})),
	}}
	call := &exec.CallNode{Name: "for", Args: []exec.ArgNode{
		{Expr: body},
		{Name: "i", Expr: lit(items)},
	}}
	_, err := runStages(e, call)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.lines) != 3 || p.lines[0] != "1" || p.lines[1] != "2" || p.lines[2] != "3" {
		t.Fatalf("expected one echoed line per row, got %v", p.lines)
	}
}

func TestForStopsEarlyOnBreak(t *testing.T) {
	e, p := newTestEngine()
	items := value.NewList(value.IntType, []value.Value{value.NewInt(1), value.NewInt(2), value.NewInt(3)})
	body := &exec.Block{Jobs: []*exec.JobNode{
		oneStageJob(callOf("echo", exec.ArgNode{Expr: &exec.Ident{Name: "i"}})),
		oneStageJob(callOf("break")),
	}}
	call := &exec.CallNode{Name: "for", Args: []exec.ArgNode{
		{Expr: body},
		{Name: "i", Expr: lit(items)},
	}}
	_, err := runStages(e, call)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.lines) != 1 || p.lines[0] != "1" {
		t.Fatalf("expected break to stop after the first row, got %v", p.lines)
	}
}

func TestIfRunsTrueClauseWhenConditionHolds(t *testing.T) {
	e, _ := newTestEngine()
	call := callOf("if",
		posArg(value.Bool(true)),
		exec.ArgNode{Expr: &exec.Block{Jobs: []*exec.JobNode{
			oneStageJob(callOf("exectest.one")),
		}}},
	)
	v, err := runStages(e, call)
	if err != nil {
		t.Fatal(err)
	}
	if rowsOf(v)[0][0].(value.Int).Int64() != 1 {
		t.Fatalf("expected the true clause's value, got %v", v)
	}
}

func TestIfRunsElseClauseWhenConditionFails(t *testing.T) {
	e, p := newTestEngine()
	call := callOf("if",
		posArg(value.Bool(false)),
		exec.ArgNode{Expr: &exec.Block{Jobs: []*exec.JobNode{
			oneStageJob(callOf("exectest.one")),
		}}},
		exec.ArgNode{Name: "else_clause", Expr: &exec.Block{Jobs: []*exec.JobNode{
			oneStageJob(callOf("echo", posArg(value.NewInt(42)))),
		}}},
	)
	_, err := runStages(e, call)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.lines) != 1 || p.lines[0] != "42" {
		t.Fatalf("expected the else clause to run instead of the true clause, got %v", p.lines)
	}
}

func TestWhileLoopsUntilConditionIsFalse(t *testing.T) {
	e, p := newTestEngine()
	sc := scope.New("root", scope.Root)
	if err := sc.Declare("n", value.NewInt(0)); err != nil {
		t.Fatal(err)
	}

	cond := &exec.Block{Jobs: []*exec.JobNode{
		oneStageJob(callOf("controltest.lessthan3", exec.ArgNode{Expr: &exec.Ident{Name: "n"}})),
	}}
	body := &exec.Block{Jobs: []*exec.JobNode{
		oneStageJob(callOf("echo", exec.ArgNode{Expr: &exec.Ident{Name: "n"}})),
		oneStageJob(callOf("controltest.increment")),
	}}
	call := &exec.CallNode{Name: "while", Args: []exec.ArgNode{{Expr: cond}, {Expr: body}}}
	job := exec.Compile(&exec.JobNode{Stages: []*exec.CallNode{call}}, sc)
	if _, err := e.Run(context.Background(), job).Recv(); err != nil {
		t.Fatal(err)
	}
	if len(p.lines) != 3 || p.lines[0] != "0" || p.lines[1] != "1" || p.lines[2] != "2" {
		t.Fatalf("expected the body to run for n=0,1,2, got %v", p.lines)
	}
}

func TestLoopExitsOnBreak(t *testing.T) {
	e, p := newTestEngine()
	sc := scope.New("root", scope.Root)
	if err := sc.Declare("n", value.NewInt(0)); err != nil {
		t.Fatal(err)
	}
	body := &exec.Block{Jobs: []*exec.JobNode{
		oneStageJob(callOf("echo", exec.ArgNode{Expr: &exec.Ident{Name: "n"}})),
		oneStageJob(callOf("controltest.increment")),
		oneStageJob(callOf("if",
			exec.ArgNode{Expr: &exec.Block{Jobs: []*exec.JobNode{
				oneStageJob(callOf("controltest.lessthan3", exec.ArgNode{Expr: &exec.Ident{Name: "n"}})),
			}}},
			exec.ArgNode{Expr: &exec.Block{Jobs: []*exec.JobNode{}}},
			exec.ArgNode{Name: "else_clause", Expr: &exec.Block{Jobs: []*exec.JobNode{
				oneStageJob(callOf("break")),
			}}},
		)),
	}}
	call := &exec.CallNode{Name: "loop", Args: []exec.ArgNode{{Expr: body}}}
	job := exec.Compile(&exec.JobNode{Stages: []*exec.CallNode{call}}, sc)
	if _, err := e.Run(context.Background(), job).Recv(); err != nil {
		t.Fatal(err)
	}
	if len(p.lines) != 3 {
		t.Fatalf("expected loop to run exactly 3 times before break, got %v", p.lines)
	}
}

func TestReturnStopsAnEnclosingFor(t *testing.T) {
	e, _ := newTestEngine()
	items := value.NewList(value.IntType, []value.Value{value.NewInt(1), value.NewInt(2), value.NewInt(3)})
	body := &exec.Block{Jobs: []*exec.JobNode{
		oneStageJob(callOf("return", posArg(value.NewInt(7)))),
	}}
	closureScope := scope.New("closure", scope.Closure)
	call := &exec.CallNode{Name: "for", Args: []exec.ArgNode{
		{Expr: body},
		{Name: "i", Expr: lit(items)},
	}}
	job := exec.Compile(&exec.JobNode{Stages: []*exec.CallNode{call}}, closureScope)
	if _, err := e.Run(context.Background(), job).Recv(); err != nil {
		t.Fatal(err)
	}
	st := closureScope.StopFlag()
	if st.Kind != scope.StopReturn || st.Value.(value.Int).Int64() != 7 {
		t.Fatalf("expected return's stop flag to propagate out to the enclosing closure, got %+v", st)
	}
}
