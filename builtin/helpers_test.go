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

	"github.com/liljencrantz/crush-sub002/command"
	"github.com/liljencrantz/crush-sub002/exec"
	"github.com/liljencrantz/crush-sub002/scope"
	"github.com/liljencrantz/crush-sub002/table"
	"github.com/liljencrantz/crush-sub002/value"
)

// testPrinter is a recording GlobalState.Printer, the same role the
// interactive shell's terminal writer fills at runtime.
type testPrinter struct {
	lines  []string
	errors []error
}

func (p *testPrinter) Line(s string)  { p.lines = append(p.lines, s) }
func (p *testPrinter) Error(e error)  { p.errors = append(p.errors, e) }

func newTestEngine() (*exec.Engine, *testPrinter) {
	p := &testPrinter{}
	g := &command.GlobalState{Printer: p}
	e := exec.NewEngine(g)
	g.Pool = e.Registry
	return e, p
}

// runStages compiles and runs a single pipeline made of the given stages
// against a fresh root scope, returning the job's exit value.
func runStages(e *exec.Engine, stages ...*exec.CallNode) (value.Value, error) {
	sc := scope.New("root", scope.Root)
	job := exec.Compile(&exec.JobNode{Stages: stages}, sc)
	recv := e.Run(context.Background(), job)
	return recv.Recv()
}

// rowsOf unwraps a job's exit value into its rows, whether it arrived as a
// materialized Table (the common case for a row-shaped terminal stage) or
// as a bare scalar (wrapped into a single one-cell row for convenience).
func rowsOf(v value.Value) []value.Row {
	if tbl, ok := v.(table.Table); ok {
		return tbl.Rows()
	}
	return []value.Row{{v}}
}

// structFieldInt extracts the named integer field of a row packed as a
// single Struct-valued cell, the shape every multi-column OutputUnknown
// command (stream.zip/join/enumerate, csv.from) emits.
func structFieldInt(row value.Row, name string) int64 {
	s := row[0].(value.Struct)
	v, ok := s.Get(name)
	if !ok {
		panic("no such field: " + name)
	}
	return v.(value.Int).Int64()
}

// structFieldString extracts the named string field of a row packed as a
// single Struct-valued cell, the shape every multi-column OutputUnknown
// command (stream.zip/join/enumerate, csv.from) emits.
func structFieldString(row value.Row, name string) string {
	s := row[0].(value.Struct)
	v, ok := s.Get(name)
	if !ok {
		panic("no such field: " + name)
	}
	return string(v.(value.String))
}

func lit(v value.Value) exec.Node { return &exec.Literal{Val: v} }

func posArg(v value.Value) exec.ArgNode { return exec.ArgNode{Expr: lit(v)} }

func namedArg(name string, v value.Value) exec.ArgNode {
	return exec.ArgNode{Name: name, Expr: lit(v)}
}

func blockArg(jobs ...*exec.JobNode) exec.ArgNode {
	return exec.ArgNode{Expr: &exec.Block{Jobs: jobs}}
}

func namedBlockArg(name string, jobs ...*exec.JobNode) exec.ArgNode {
	return exec.ArgNode{Name: name, Expr: &exec.Block{Jobs: jobs}}
}

// oneStageJob wraps a single call into the JobNode a block's statement
// list is made of.
func oneStageJob(call *exec.CallNode) *exec.JobNode {
	return &exec.JobNode{Stages: []*exec.CallNode{call}}
}

func callOf(name string, args ...exec.ArgNode) *exec.CallNode {
	return &exec.CallNode{Name: name, Args: args}
}
