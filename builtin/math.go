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

	"golang.org/x/exp/constraints"

	"github.com/liljencrantz/crush-sub002/command"
	"github.com/liljencrantz/crush-sub002/value"
)

func init() {
	command.RegisterFunction(mathSin)
	command.RegisterFunction(mathCos)
	command.RegisterFunction(mathTan)
	command.RegisterFunction(mathSqrt)
	command.RegisterFunction(mathAsin)
	command.RegisterFunction(mathAcos)
	command.RegisterFunction(mathAtan)
	command.RegisterFunction(mathCeil)
	command.RegisterFunction(mathFloor)
	command.RegisterFunction(mathLn)
	command.RegisterFunction(mathLog)
	command.RegisterFunction(mathPow)
	command.RegisterFunction(mathMin)
	command.RegisterFunction(mathMax)
}

// orderedMin and orderedMax are the type-parameterized comparisons
// math.min/math.max pick a winner with, once asFloat has widened both
// operands into the same currency; keeping the comparison itself generic
// over constraints.Ordered (rather than hardcoding float64) means it
// would keep working unchanged if a future numeric kind widened to
// something else comparable, e.g. a fixed-point type.
func orderedMin[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}

func orderedMax[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}

var mathMin = &command.Command{
	Name:     "math.min",
	ShortDoc: "the smaller of a and b",
	Output:   command.OutputType{Kind: command.OutputKnown, Type: value.FloatType},
	Signature: command.Signature{Params: []command.Param{
		{Kind: command.Positional, Name: "a", OneOf: numberType},
		{Kind: command.Positional, Name: "b", OneOf: numberType},
	}},
	Run: func(ctx *command.ExecutionContext) error {
		a, _ := ctx.Args.Get("a")
		b, _ := ctx.Args.Get("b")
		af, err := asFloat(a)
		if err != nil {
			return ctx.Err(err)
		}
		bf, err := asFloat(b)
		if err != nil {
			return ctx.Err(err)
		}
		return emit(ctx, value.Float(orderedMin(af, bf)))
	},
}

var mathMax = &command.Command{
	Name:     "math.max",
	ShortDoc: "the larger of a and b",
	Output:   command.OutputType{Kind: command.OutputKnown, Type: value.FloatType},
	Signature: command.Signature{Params: []command.Param{
		{Kind: command.Positional, Name: "a", OneOf: numberType},
		{Kind: command.Positional, Name: "b", OneOf: numberType},
	}},
	Run: func(ctx *command.ExecutionContext) error {
		a, _ := ctx.Args.Get("a")
		b, _ := ctx.Args.Get("b")
		af, err := asFloat(a)
		if err != nil {
			return ctx.Err(err)
		}
		bf, err := asFloat(b)
		if err != nil {
			return ctx.Err(err)
		}
		return emit(ctx, value.Float(orderedMax(af, bf)))
	},
}

// oneNumberFn builds the one-argument math.* commands (sin, cos, sqrt,
// ...): a single required "number" parameter of numberType, applying fn
// to its float64 widening and sending the result.
func oneNumberFn(name, doc string, fn func(float64) float64) *command.Command {
	return &command.Command{
		Name:     name,
		ShortDoc: doc,
		Output:   command.OutputType{Kind: command.OutputKnown, Type: value.FloatType},
		Signature: command.Signature{Params: []command.Param{
			{Kind: command.Positional, Name: "number", OneOf: numberType},
		}},
		Run: func(ctx *command.ExecutionContext) error {
			n, _ := ctx.Args.Get("number")
			f, err := asFloat(n)
			if err != nil {
				return ctx.Err(err)
			}
			return emit(ctx, value.Float(fn(f)))
		},
	}
}

var mathSin = oneNumberFn("math.sin", "the sine of number", math.Sin)
var mathCos = oneNumberFn("math.cos", "the cosine of number", math.Cos)
var mathTan = oneNumberFn("math.tan", "the tangent of number", math.Tan)
var mathSqrt = oneNumberFn("math.sqrt", "the square root of number", math.Sqrt)
var mathAsin = oneNumberFn("math.asin", "the arc sine of number", math.Asin)
var mathAcos = oneNumberFn("math.acos", "the arc cosine of number", math.Acos)
var mathAtan = oneNumberFn("math.atan", "the arc tangent of number", math.Atan)
var mathCeil = oneNumberFn("math.ceil", "the smallest integer not less than number", math.Ceil)
var mathFloor = oneNumberFn("math.floor", "the largest integer not greater than number", math.Floor)
var mathLn = oneNumberFn("math.ln", "the natural logarithm of number", math.Log)

var mathLog = &command.Command{
	Name:     "math.log",
	ShortDoc: "the logarithm of number in base",
	Output:   command.OutputType{Kind: command.OutputKnown, Type: value.FloatType},
	Signature: command.Signature{Params: []command.Param{
		{Kind: command.Positional, Name: "number", OneOf: numberType},
		{Kind: command.Positional, Name: "base", OneOf: numberType},
	}},
	Run: func(ctx *command.ExecutionContext) error {
		n, _ := ctx.Args.Get("number")
		b, _ := ctx.Args.Get("base")
		nf, err := asFloat(n)
		if err != nil {
			return ctx.Err(err)
		}
		bf, err := asFloat(b)
		if err != nil {
			return ctx.Err(err)
		}
		return emit(ctx, value.Float(math.Log(nf)/math.Log(bf)))
	},
}

var mathPow = &command.Command{
	Name:     "math.pow",
	ShortDoc: "raise base to the power n",
	Output:   command.OutputType{Kind: command.OutputKnown, Type: value.FloatType},
	Signature: command.Signature{Params: []command.Param{
		{Kind: command.Positional, Name: "base", OneOf: numberType},
		{Kind: command.Positional, Name: "n", OneOf: numberType},
	}},
	Run: func(ctx *command.ExecutionContext) error {
		b, _ := ctx.Args.Get("base")
		n, _ := ctx.Args.Get("n")
		bf, err := asFloat(b)
		if err != nil {
			return ctx.Err(err)
		}
		nf, err := asFloat(n)
		if err != nil {
			return ctx.Err(err)
		}
		return emit(ctx, value.Float(math.Pow(bf, nf)))
	},
}

// constantFn builds a niladic math.* command returning a fixed value, the
// call-form this repo gives named constants: every name resolves through
// the same command surface (root.declare("pi", Value::Float(...)) in the
// original source becomes a zero-argument command here rather than a bare
// scope binding, since the function registry is the only global namespace
// this repo's command package exposes).
func constantFn(name, doc string, v value.Float) *command.Command {
	return &command.Command{
		Name:     name,
		ShortDoc: doc,
		Output:   command.OutputType{Kind: command.OutputKnown, Type: value.FloatType},
		Run: func(ctx *command.ExecutionContext) error {
			return emit(ctx, v)
		},
	}
}

func init() {
	command.RegisterFunction(constantFn("math.pi", "the ratio of a circle's circumference to its diameter", value.Float(math.Pi)))
	command.RegisterFunction(constantFn("math.tau", "2*pi", value.Float(math.Pi*2)))
	command.RegisterFunction(constantFn("math.e", "Euler's number", value.Float(math.E)))
}
