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
	"github.com/liljencrantz/crush-sub002/command"
	"github.com/liljencrantz/crush-sub002/value"
)

func init() {
	command.RegisterFunction(andCommand)
	command.RegisterFunction(orCommand)
}

var andCommand = &command.Command{
	Name:        "and",
	ShortDoc:    "true if every operand is true, short-circuiting at the first false",
	IsCondition: true,
	Signature: command.Signature{Params: []command.Param{
		{Kind: command.UnnamedVarargs, Name: "operands", Type: value.Any},
	}},
	Output: command.OutputType{Kind: command.OutputKnown, Type: value.BoolType},
	Run:    func(ctx *command.ExecutionContext) error { return runShortCircuit(ctx, false) },
}

var orCommand = &command.Command{
	Name:        "or",
	ShortDoc:    "true if any operand is true, short-circuiting at the first true",
	IsCondition: true,
	Signature: command.Signature{Params: []command.Param{
		{Kind: command.UnnamedVarargs, Name: "operands", Type: value.Any},
	}},
	Output: command.OutputType{Kind: command.OutputKnown, Type: value.BoolType},
	Run:    func(ctx *command.ExecutionContext) error { return runShortCircuit(ctx, true) },
}

// runShortCircuit implements both and (shortOn=false) and or (shortOn=true):
// operands are resolved left to right, each only evaluated if the previous
// ones didn't already decide the outcome. A bare boolean operand was
// already evaluated eagerly by evalArgs (it wasn't a sub-job/block
// expression); a parenthesized or braced operand arrives as a Thunk and is
// only invoked here, which is what gives these two commands their
// short-circuit timing.
func runShortCircuit(ctx *command.ExecutionContext, shortOn bool) error {
	ops, _ := ctx.Args.Get("operands")
	l, ok := ops.(value.List)
	if !ok {
		return ctx.Err(value.NewError(value.InvalidArgument, "expected a list of operands"))
	}
	result := !shortOn
	for _, op := range l.Snapshot() {
		v, err := resolveCondition(ctx, op)
		if err != nil {
			return ctx.Err(err)
		}
		b, ok := v.(value.Bool)
		if !ok {
			return ctx.Err(value.NewError(value.InvalidArgument, "operand must be a bool, got %s", v.Type()))
		}
		if bool(b) == shortOn {
			return emit(ctx, value.Bool(shortOn))
		}
	}
	return emit(ctx, value.Bool(result))
}
