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
	"github.com/liljencrantz/crush-sub002/scope"
	"github.com/liljencrantz/crush-sub002/value"
)

// Thunk is an unevaluated sub-job bound as an argument to an is_condition
// command (`and`, `or`, `if`, `while`): it is itself a value.Value (kind
// Command) so it can flow through the ordinary argument-binding path, but
// evaluating it is deferred to whatever the receiving command's body
// chooses to do.
type Thunk struct {
	engine *Engine
	scope  *scope.Scope
	node   Node
}

func (*Thunk) Type() value.Type  { return value.Command }
func (*Thunk) Display() string   { return "{...}" }

// Call runs the thunk's node in a fresh child scope of the capturing
// scope and returns its value. Each call re-creates the child scope, so a
// thunk may be invoked more than once (loop bodies reuse the same Thunk
// value across iterations).
func (t *Thunk) Call(ctx context.Context) (value.Value, error) {
	child := t.scope.CreateChild(t.scope, scope.Block)
	return t.engine.EvalNode(ctx, t.node, child)
}

// RunIn evaluates the thunk's node as a child of parent, with calling and
// kind supplied by the caller, and returns the scope the node actually ran
// in alongside its value. Control-flow builtins (for/if/while/loop) use
// this instead of Call so the body runs under the Loop/Conditional scope
// kind and calling pointer the construct demands, and so the caller can
// inspect the resulting scope's stop flag — Call's fixed Block-kind,
// self-capturing child is only right for a bare condition closure.
func (t *Thunk) RunIn(ctx context.Context, parent, calling *scope.Scope, kind scope.Kind) (value.Value, *scope.Scope, error) {
	if blk, ok := t.node.(*Block); ok {
		return t.engine.RunBlock(ctx, blk, parent, calling, kind)
	}
	child := parent.CreateChild(calling, kind)
	v, err := t.engine.EvalNode(ctx, t.node, child)
	return v, child, err
}

// EvalNode evaluates a single expression node to a value, in sc.
func (e *Engine) EvalNode(ctx context.Context, n Node, sc *scope.Scope) (value.Value, error) {
	switch node := n.(type) {
	case *Literal:
		return node.Val, nil
	case *Ident:
		v, ok := sc.Get(node.Name)
		if !ok {
			return nil, value.NewError(value.InvalidArgument, "variable %q is not declared", node.Name).WithLocation(node.L, "")
		}
		return v, nil
	case *ListLit:
		items := make([]value.Value, len(node.Elems))
		for i, el := range node.Elems {
			v, err := e.EvalNode(ctx, el, sc)
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		return value.NewList(node.ElemType, items), nil
	case *DictLit:
		d, err := value.NewDict(node.KeyType, node.ValType)
		if err != nil {
			return nil, err
		}
		for i := range node.Keys {
			k, err := e.EvalNode(ctx, node.Keys[i], sc)
			if err != nil {
				return nil, err
			}
			v, err := e.EvalNode(ctx, node.Vals[i], sc)
			if err != nil {
				return nil, err
			}
			if err := d.Set(k, v); err != nil {
				return nil, err
			}
		}
		return d, nil
	case *SubJob:
		job := Compile(node.Job, sc)
		recv := e.Run(ctx, job)
		return recv.Recv()
	case *Block:
		v, _, err := e.RunBlock(ctx, node, sc, sc, scope.Block)
		return v, err
	default:
		return nil, value.NewError(value.Generic, "cannot evaluate node of type %T as a value", n)
	}
}

// resolveCommand looks up the command a CallNode names: if it has a
// receiver expression, the receiver is evaluated and dispatch goes
// through its type's method table; otherwise
// the name is resolved first as a scope-local value (supporting
// closures assigned to a variable) and, failing that, the global free
// function registry.
func (e *Engine) resolveCommand(ctx context.Context, call *CallNode, sc *scope.Scope) (*command.Command, value.Value, error) {
	if call.Receiver != nil {
		recv, err := e.EvalNode(ctx, call.Receiver, sc)
		if err != nil {
			return nil, nil, err
		}
		cmd, ok := command.Dispatch(recv, call.Name)
		if !ok {
			return nil, nil, value.NewError(value.InvalidArgument, "type %s has no method %q", recv.Type(), call.Name)
		}
		return cmd, recv, nil
	}
	if v, ok := sc.Get(call.Name); ok {
		if cmd, ok := v.(*command.Command); ok {
			return cmd, nil, nil
		}
	}
	cmd, ok := command.LookupFunction(call.Name)
	if !ok {
		return nil, nil, value.NewError(value.InvalidArgument, "unknown command %q", call.Name)
	}
	return cmd, nil, nil
}

// evalArgs evaluates a stage's argument expressions into bindable
// command.Argument values. When cmd.IsCondition is true, a bare sub-job or
// brace-delimited block argument becomes a Thunk instead of being
// evaluated eagerly, so the command body itself controls whether/when
// each operand runs (short-circuit control commands like
// `and`/`or`/`if`/`while`/`for`/`loop`).
func (e *Engine) evalArgs(ctx context.Context, call *CallNode, cmd *command.Command, this value.Value, sc *scope.Scope) ([]command.Argument, error) {
	var out []command.Argument
	if this != nil {
		out = append(out, command.Argument{Kind: command.ArgThis, Value: this})
	}
	for _, a := range call.Args {
		var v value.Value
		var err error
		if cmd.IsCondition {
			switch a.Expr.(type) {
			case *SubJob, *Block:
				v = &Thunk{engine: e, scope: sc, node: a.Expr}
			}
		}
		if v == nil {
			v, err = e.EvalNode(ctx, a.Expr, sc)
			if err != nil {
				return nil, err
			}
		}
		kind := command.ArgPositional
		switch {
		case a.Splat == SplatList:
			kind = command.ArgList
		case a.Splat == SplatDict:
			kind = command.ArgDict
		case a.Splat == SplatThis:
			kind = command.ArgThis
		case a.Name != "":
			kind = command.ArgNamed
		}
		out = append(out, command.Argument{Kind: kind, Name: a.Name, Value: v})
	}
	return out, nil
}
