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

package exec

import (
	"context"

	"github.com/liljencrantz/crush-sub002/command"
	"github.com/liljencrantz/crush-sub002/pipe"
	"github.com/liljencrantz/crush-sub002/scope"
	"github.com/liljencrantz/crush-sub002/table"
	"github.com/liljencrantz/crush-sub002/value"
)

// Job is a compiled, launchable pipeline: an ordered list of stages bound
// to the scope they were compiled against.
type Job struct {
	stages []*CallNode
	scope  *scope.Scope
}

// Compile turns a parser-supplied JobNode into a launchable Job. No
// threads are spawned until Run is called.
func Compile(node *JobNode, sc *scope.Scope) *Job {
	return &Job{stages: node.Stages, scope: sc}
}

// resolveSchema determines the schema flowing out of cmd given the schema
// flowing into it: a table-shaped Known output fixes the schema outright;
// Passthrough forwards the input schema unchanged; everything else
// (Unknown, or a Known scalar/aggregate output) is carried as a single
// permissive "value" column, since this core has no static type checker
// upstream of the thin builtin surface.
func resolveSchema(cmd *command.Command, in []value.ColumnType) []value.ColumnType {
	switch cmd.Output.Kind {
	case command.OutputKnown:
		if cmd.Output.Type.Kind == value.KindTable {
			return cmd.Output.Type.Columns
		}
		return []value.ColumnType{{Name: "value", Type: cmd.Output.Type}}
	case command.OutputPassthrough:
		return in
	default:
		return []value.ColumnType{{Name: "value", Type: value.Any}}
	}
}

// Run spawns one thread per stage, wires N-1 row pipes between them, and
// returns the job's exit value as a one-shot value pipe. A stage whose
// declared output is a known non-table type writes directly to the
// terminal value pipe; otherwise the terminal value is the materialized
// table of whatever rows the last stage produced.
func (e *Engine) Run(ctx context.Context, j *Job) *pipe.ValueReceiver {
	n := len(j.stages)
	if n == 0 {
		return pipe.EmptyValueReceiver()
	}

	type resolved struct {
		cmd  *command.Command
		this value.Value
	}
	stages := make([]resolved, n)
	for i, call := range j.stages {
		cmd, this, err := e.resolveCommand(ctx, call, j.scope)
		if err != nil {
			e.reportTop(err)
			s, r := pipe.NewValuePipe()
			s.Close()
			return r
		}
		stages[i] = resolved{cmd, this}
	}

	lastValueShaped := stages[n-1].cmd.Output.Kind == command.OutputKnown &&
		stages[n-1].cmd.Output.Type.Kind != value.KindTable

	schemaIn := make([][]value.ColumnType, n)
	// A receiver-style first stage (`x:m ...`) has no upstream pipe to
	// carry a schema, but its receiver may itself be streamable (a
	// literal list/dict/table opening the job): seed schemaIn[0] from it
	// so a Passthrough-output stage 0 declares its outgoing pipe with the
	// receiver's real column set instead of an empty one.
	if stages[0].this != nil {
		if s, ok := value.AsStream(stages[0].this); ok {
			schemaIn[0] = s.Schema()
		}
	}
	for i := 1; i < n; i++ {
		schemaIn[i] = resolveSchema(stages[i-1].cmd, schemaIn[i-1])
	}

	rowIn := make([]*pipe.RowReceiver, n)
	rowOut := make([]*pipe.RowSender, n)
	var drainRecv *pipe.RowReceiver
	for i := 0; i < n; i++ {
		if i == n-1 && lastValueShaped {
			continue
		}
		outSchema := resolveSchema(stages[i].cmd, schemaIn[i])
		snd, rcv := pipe.NewRowPipe(outSchema)
		rowOut[i] = snd
		if i+1 < n {
			rowIn[i+1] = rcv
		} else {
			drainRecv = rcv
		}
	}

	termSend, termRecv := pipe.NewValuePipe()

	for i := 0; i < n; i++ {
		i := i
		call := j.stages[i]
		st := stages[i]
		var valOut *pipe.ValueSender
		if i == n-1 && lastValueShaped {
			valOut = termSend
		}
		e.Registry.Spawn(call.Name, func() {
			e.runStage(ctx, call, st.cmd, st.this, valOut, rowIn[i], rowOut[i], j.scope)
		})
	}

	if !lastValueShaped {
		lastSchema := resolveSchema(stages[n-1].cmd, schemaIn[n-1])
		e.Registry.Spawn("terminal-drain", func() {
			var rows []value.Row
			for {
				row, err := drainRecv.Read()
				if err != nil {
					break
				}
				rows = append(rows, row)
			}
			tbl, err := table.New(lastSchema, rows)
			if err != nil {
				e.reportTop(err)
				termSend.Close()
				return
			}
			termSend.Send(tbl)
		})
	}

	return termRecv
}

// runStage evaluates a single stage's arguments, binds them, and invokes
// the command body, always closing both pipe ends on exit regardless of
// outcome.
func (e *Engine) runStage(ctx context.Context, call *CallNode, cmd *command.Command, this value.Value,
	valOut *pipe.ValueSender, rowIn *pipe.RowReceiver, rowOut *pipe.RowSender, sc *scope.Scope) {
	defer func() {
		if rowOut != nil {
			rowOut.Close()
		}
		if rowIn != nil {
			rowIn.Close()
		}
	}()

	args, err := e.evalArgs(ctx, call, cmd, this, sc)
	if err != nil {
		e.reportStage(err, valOut)
		return
	}
	bound, err := command.Bind(cmd.Signature, args)
	if err != nil {
		e.reportStage(err, valOut)
		return
	}
	xctx := &command.ExecutionContext{
		Ctx: ctx, RowInput: rowIn, RowOutput: rowOut, ValueOutput: valOut,
		Args: bound, This: bound.This, Scope: sc, Global: e.Global, Location: call.L,
	}
	if xctx.This == nil {
		xctx.This = this
	}
	if err := cmd.Run(xctx); err != nil && !isGraceful(err) {
		e.reportStage(err, valOut)
	}
}

func (e *Engine) reportStage(err error, valOut *pipe.ValueSender) {
	e.reportTop(err)
	if valOut != nil {
		valOut.Close()
	}
}

func (e *Engine) reportTop(err error) {
	if e.Global != nil && e.Global.Printer != nil {
		e.Global.Printer.Error(err)
	}
}
