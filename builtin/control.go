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

// Package builtin registers the thin surface of demonstrative commands
// the invocation engine needs to exercise end to end: control flow,
// short-circuit conditions, comparison operators, stream operators, a
// handful of IO codecs, value casting, help/introspection, and the
// math/random domain commands.
// Every command here is declared through command.RegisterFunction/
// RegisterMethod from an init() function, the same way every builtin
// package in the original sources wires itself into the root scope.
package builtin

import (
	"time"

	"github.com/liljencrantz/crush-sub002/command"
	"github.com/liljencrantz/crush-sub002/exec"
	"github.com/liljencrantz/crush-sub002/scope"
	"github.com/liljencrantz/crush-sub002/value"
)

func init() {
	command.RegisterFunction(forCommand)
	command.RegisterFunction(ifCommand)
	command.RegisterFunction(whileCommand)
	command.RegisterFunction(loopCommand)
	command.RegisterFunction(breakCommand)
	command.RegisterFunction(continueCommand)
	command.RegisterFunction(returnCommand)
	command.RegisterFunction(echoCommand)
	command.RegisterFunction(sleepCommand)
}

// emit writes v to whichever terminal is wired for this stage: the
// one-shot value pipe when this command ends a job, or a single-cell row
// on the row pipe otherwise. Neither is an error; a command invoked only
// for its side effects (e.g. a bare `for` statement) leaves both nil.
func emit(ctx *command.ExecutionContext, v value.Value) error {
	if ctx.ValueOutput != nil {
		return ctx.Err(ctx.ValueOutput.Send(v))
	}
	if ctx.RowOutput != nil {
		return ctx.Err(ctx.RowOutput.Send(value.Row{v}))
	}
	return nil
}

// asThunk resolves a bound Command-typed argument to the *exec.Thunk the
// engine wrapped it in. Every clause/body parameter of a control command
// is is_condition-deferred, so this should always succeed for a
// well-formed call.
func asThunk(v value.Value) (*exec.Thunk, error) {
	t, ok := v.(*exec.Thunk)
	if !ok {
		return nil, value.NewError(value.InvalidArgument, "expected a deferred command body, got %s", v.Type())
	}
	return t, nil
}

// resolveCondition evaluates a condition operand: a bare boolean passes
// through unchanged (it was already evaluated eagerly, not having been a
// sub-job/block expression), while a Thunk is invoked via Call, the same
// short-circuit evaluation cond.go uses for and/or.
func resolveCondition(ctx *command.ExecutionContext, v value.Value) (value.Value, error) {
	if t, ok := v.(*exec.Thunk); ok {
		return t.Call(ctx.Ctx)
	}
	return v, nil
}

var forCommand = &command.Command{
	Name:        "for",
	ShortDoc:    "run a command body once per row of a named stream",
	IsCondition: true,
	Signature: command.Signature{Params: []command.Param{
		{Kind: command.Positional, Name: "body", Type: value.Command, Doc: "the loop body, as a brace-delimited block"},
		{Kind: command.NamedVarargs, Name: "iterator", Type: value.Any, Doc: "exactly one name=stream binding"},
	}},
	Run: runFor,
}

func runFor(ctx *command.ExecutionContext) error {
	bodyVal, _ := ctx.Args.Get("body")
	body, err := asThunk(bodyVal)
	if err != nil {
		return ctx.Err(err)
	}
	iterVal, _ := ctx.Args.Get("iterator")
	iter, ok := iterVal.(value.Struct)
	if !ok {
		return ctx.Err(value.NewError(value.InvalidArgument, "for requires a named iterator argument"))
	}
	fields := iter.Fields()
	if len(fields) != 1 {
		return ctx.Err(value.NewError(value.InvalidArgument, "for expects exactly one named iterator argument, got %d", len(fields)))
	}
	varName := fields[0].Name
	in, ok := value.AsStream(fields[0].Val)
	if !ok {
		return ctx.Err(value.NewError(value.InvalidArgument, "for iterator %q is not a stream", varName))
	}

	for {
		row, err := in.Read()
		if err == value.ErrEOF {
			return nil
		}
		if err != nil {
			return ctx.Err(err)
		}

		var item value.Value
		if len(row) == 1 {
			item = row[0]
		} else {
			cols := in.Schema()
			fields := make([]value.Field, len(row))
			for i, c := range cols {
				fields[i] = value.Field{Name: c.Name, Val: row[i]}
			}
			item = value.NewStruct(nil, fields)
		}

		loopScope := ctx.Scope.CreateChild(ctx.Scope, scope.Loop)
		if err := loopScope.Declare(varName, item); err != nil {
			return ctx.Err(err)
		}
		_, bodyScope, err := body.RunIn(ctx.Ctx, loopScope, loopScope, scope.Loop)
		if err != nil {
			return ctx.Err(err)
		}
		switch st := bodyScope.StopFlag(); st.Kind {
		case scope.StopBreak:
			return nil
		case scope.StopReturn:
			// Leave the flag exactly where return set it (some enclosing
			// closure scope); this loop only needs to stop iterating, not
			// consume it.
			return nil
		case scope.StopContinue:
			continue
		}
	}
}

var ifCommand = &command.Command{
	Name:        "if",
	ShortDoc:    "run one of two command bodies depending on a condition",
	IsCondition: true,
	Signature: command.Signature{Params: []command.Param{
		{Kind: command.Positional, Name: "condition", Type: value.Any},
		{Kind: command.Positional, Name: "true_clause", Type: value.Command},
		{Kind: command.Named, Name: "else_clause", Type: value.Any, Default: value.EmptyV(), Doc: "the else-branch body"},
	}},
	Run: runIf,
}

func runIf(ctx *command.ExecutionContext) error {
	condVal, _ := ctx.Args.Get("condition")
	condVal, err := resolveCondition(ctx, condVal)
	if err != nil {
		return ctx.Err(err)
	}
	cond, ok := condVal.(value.Bool)
	if !ok {
		return ctx.Err(value.NewError(value.InvalidArgument, "if condition must be a bool, got %s", condVal.Type()))
	}

	if bool(cond) {
		tv, _ := ctx.Args.Get("true_clause")
		return runClause(ctx, tv)
	}
	ev, _ := ctx.Args.Get("else_clause")
	if _, empty := ev.(value.EmptyValue); empty {
		return emit(ctx, value.EmptyV())
	}
	return runClause(ctx, ev)
}

func runClause(ctx *command.ExecutionContext, v value.Value) error {
	t, err := asThunk(v)
	if err != nil {
		return ctx.Err(err)
	}
	result, _, err := t.RunIn(ctx.Ctx, ctx.Scope, ctx.Scope, scope.Conditional)
	if err != nil {
		return ctx.Err(err)
	}
	return emit(ctx, result)
}

var whileCommand = &command.Command{
	Name:        "while",
	ShortDoc:    "repeat a command body while a condition holds",
	IsCondition: true,
	Signature: command.Signature{Params: []command.Param{
		{Kind: command.Positional, Name: "condition", Type: value.Command},
		{Kind: command.Positional, Name: "body", Type: value.Any, Default: value.EmptyV()},
	}},
	Run: runWhile,
}

func runWhile(ctx *command.ExecutionContext) error {
	condVal, _ := ctx.Args.Get("condition")
	condT, err := asThunk(condVal)
	if err != nil {
		return ctx.Err(err)
	}
	bodyVal, _ := ctx.Args.Get("body")
	_, bodyIsEmpty := bodyVal.(value.EmptyValue)

	for {
		condScope := ctx.Scope.CreateChild(ctx.Scope, scope.Loop)
		cv, cScope, err := condT.RunIn(ctx.Ctx, condScope, condScope, scope.Loop)
		if err != nil {
			return ctx.Err(err)
		}
		if cScope.StopFlag().Kind != scope.StopNone {
			return nil
		}
		cond, ok := cv.(value.Bool)
		if !ok {
			return ctx.Err(value.NewError(value.InvalidArgument, "while condition must be a bool, got %s", cv.Type()))
		}
		if !bool(cond) {
			return nil
		}
		if bodyIsEmpty {
			continue
		}
		bodyT, err := asThunk(bodyVal)
		if err != nil {
			return ctx.Err(err)
		}
		bodyScope := ctx.Scope.CreateChild(ctx.Scope, scope.Loop)
		_, rScope, err := bodyT.RunIn(ctx.Ctx, bodyScope, bodyScope, scope.Loop)
		if err != nil {
			return ctx.Err(err)
		}
		switch st := rScope.StopFlag(); st.Kind {
		case scope.StopBreak, scope.StopReturn:
			return nil
		}
	}
}

var loopCommand = &command.Command{
	Name:        "loop",
	ShortDoc:    "repeat a command body forever, until break or return",
	IsCondition: true,
	Signature: command.Signature{Params: []command.Param{
		{Kind: command.Positional, Name: "body", Type: value.Command},
	}},
	Run: runLoop,
}

func runLoop(ctx *command.ExecutionContext) error {
	bodyVal, _ := ctx.Args.Get("body")
	body, err := asThunk(bodyVal)
	if err != nil {
		return ctx.Err(err)
	}
	for {
		if ctx.Cancelled() {
			return ctx.Err(value.ErrCancelled)
		}
		loopScope := ctx.Scope.CreateChild(ctx.Scope, scope.Loop)
		_, bodyScope, err := body.RunIn(ctx.Ctx, loopScope, loopScope, scope.Loop)
		if err != nil {
			return ctx.Err(err)
		}
		switch st := bodyScope.StopFlag(); st.Kind {
		case scope.StopBreak, scope.StopReturn:
			return nil
		}
	}
}

var breakCommand = &command.Command{
	Name:     "break",
	ShortDoc: "exit the nearest enclosing loop",
	Run: func(ctx *command.ExecutionContext) error {
		loop := ctx.Scope.NearestLoop()
		if loop == nil {
			return ctx.Err(value.NewError(value.InvalidArgument, "break used outside of a loop"))
		}
		loop.SetStop(scope.Stop{Kind: scope.StopBreak})
		return nil
	},
}

var continueCommand = &command.Command{
	Name:     "continue",
	ShortDoc: "skip to the next iteration of the nearest enclosing loop",
	Run: func(ctx *command.ExecutionContext) error {
		loop := ctx.Scope.NearestLoop()
		if loop == nil {
			return ctx.Err(value.NewError(value.InvalidArgument, "continue used outside of a loop"))
		}
		loop.SetStop(scope.Stop{Kind: scope.StopContinue})
		return nil
	},
}

var returnCommand = &command.Command{
	Name:     "return",
	ShortDoc: "return a value from the nearest enclosing closure",
	Signature: command.Signature{Params: []command.Param{
		{Kind: command.Positional, Name: "value", Type: value.Any, Default: value.EmptyV()},
	}},
	Run: func(ctx *command.ExecutionContext) error {
		v, _ := ctx.Args.Get("value")
		closure := ctx.Scope.NearestClosure()
		if closure == nil {
			return ctx.Err(value.NewError(value.InvalidArgument, "return used outside of a closure"))
		}
		closure.SetStop(scope.Stop{Kind: scope.StopReturn, Value: v})
		return nil
	},
}

var echoCommand = &command.Command{
	Name:     "echo",
	ShortDoc: "print each argument's display form as its own line",
	Signature: command.Signature{Params: []command.Param{
		{Kind: command.UnnamedVarargs, Name: "values", Type: value.Any},
	}},
	Run: func(ctx *command.ExecutionContext) error {
		vs, _ := ctx.Args.Get("values")
		l, ok := vs.(value.List)
		if !ok {
			return nil
		}
		if ctx.Global != nil && ctx.Global.Printer != nil {
			for _, v := range l.Snapshot() {
				ctx.Global.Printer.Line(v.Display())
			}
		}
		return nil
	},
}

var sleepCommand = &command.Command{
	Name:     "sleep",
	ShortDoc: "suspend the calling stage for a duration",
	Signature: command.Signature{Params: []command.Param{
		{Kind: command.Positional, Name: "duration", Type: value.DurationType},
	}},
	CanBlock: true,
	Run: func(ctx *command.ExecutionContext) error {
		dv, _ := ctx.Args.Get("duration")
		d, ok := dv.(value.Duration)
		if !ok {
			return ctx.Err(value.NewError(value.InvalidArgument, "sleep expects a duration, got %s", dv.Type()))
		}
		t := time.NewTimer(time.Duration(d))
		defer t.Stop()
		select {
		case <-t.C:
			return nil
		case <-ctx.Ctx.Done():
			return ctx.Err(value.ErrCancelled)
		}
	},
}
