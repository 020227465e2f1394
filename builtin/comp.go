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
	command.RegisterFunction(compGt)
	command.RegisterFunction(compLt)
	command.RegisterFunction(compGte)
	command.RegisterFunction(compLte)
	command.RegisterFunction(compEq)
	command.RegisterFunction(compNeq)
	command.RegisterFunction(compNot)
}

// compareArgs is the {left, right} signature every comp.* relational
// command below shares, ported from comp.rs's Gt/Lt/Gte/Lte structs.
var compareArgs = []command.Param{
	{Kind: command.Positional, Name: "left", Type: value.Any},
	{Kind: command.Positional, Name: "right", Type: value.Any},
}

// cmpFn builds a comp.* command from an ordering predicate, the Go
// equivalent of comp.rs's cmp! macro: parse the two operands, compare
// them, and report whether the result satisfies pred. Compare itself
// reports the "could not be compared" error for mismatched/unorderable
// types.
func cmpFn(name, doc, example string, pred func(cmp int) bool) *command.Command {
	return &command.Command{
		Name:      name,
		ShortDoc:  doc,
		Examples:  []string{example},
		Output:    command.OutputType{Kind: command.OutputKnown, Type: value.BoolType},
		Signature: command.Signature{Params: compareArgs},
		Run: func(ctx *command.ExecutionContext) error {
			left, _ := ctx.Args.Get("left")
			right, _ := ctx.Args.Get("right")
			cmp, err := value.Compare(left, right)
			if err != nil {
				return ctx.Err(err)
			}
			return emit(ctx, value.Bool(pred(cmp)))
		},
	}
}

var compGt = cmpFn("comp.gt", "true if left is greater than right", "comp.gt 10 5", func(cmp int) bool { return cmp > 0 })
var compLt = cmpFn("comp.lt", "true if left is less than right", "comp.lt 10 5", func(cmp int) bool { return cmp < 0 })
var compGte = cmpFn("comp.gte", "true if left is greater than or equal to right", "comp.gte 10 5", func(cmp int) bool { return cmp >= 0 })
var compLte = cmpFn("comp.lte", "true if left is less than or equal to right", "comp.lte 10 5", func(cmp int) bool { return cmp <= 0 })

// compEq and compNeq use value.Equals rather than value.Compare, so they
// never fail for lack of an ordering: Equals compares any two hashable
// values, and reports false (not an error) for non-hashable types such as
// struct and list.
var compEq = &command.Command{
	Name:      "comp.eq",
	ShortDoc:  "true if left is equal to right",
	Examples:  []string{"comp.eq 10 5"},
	Output:    command.OutputType{Kind: command.OutputKnown, Type: value.BoolType},
	Signature: command.Signature{Params: compareArgs},
	Run: func(ctx *command.ExecutionContext) error {
		left, _ := ctx.Args.Get("left")
		right, _ := ctx.Args.Get("right")
		return emit(ctx, value.Bool(value.Equals(left, right)))
	},
}

var compNeq = &command.Command{
	Name:      "comp.neq",
	ShortDoc:  "true if left is not equal to right",
	Examples:  []string{"comp.neq 10 5"},
	Output:    command.OutputType{Kind: command.OutputKnown, Type: value.BoolType},
	Signature: command.Signature{Params: compareArgs},
	Run: func(ctx *command.ExecutionContext) error {
		left, _ := ctx.Args.Get("left")
		right, _ := ctx.Args.Get("right")
		return emit(ctx, value.Bool(!value.Equals(left, right)))
	},
}

var compNot = &command.Command{
	Name:     "comp.not",
	ShortDoc: "negates the argument",
	Examples: []string{"comp.not $true"},
	Output:   command.OutputType{Kind: command.OutputKnown, Type: value.BoolType},
	Signature: command.Signature{Params: []command.Param{
		{Kind: command.Positional, Name: "argument", Type: value.BoolType},
	}},
	Run: func(ctx *command.ExecutionContext) error {
		argV, _ := ctx.Args.Get("argument")
		arg, ok := argV.(value.Bool)
		if !ok {
			return ctx.Err(value.NewError(value.InvalidArgument, "not expects a bool, got %s", argV.Type()))
		}
		return emit(ctx, value.Bool(!bool(arg)))
	},
}
