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
	"golang.org/x/exp/rand"

	"github.com/liljencrantz/crush-sub002/command"
	"github.com/liljencrantz/crush-sub002/value"
)

func init() {
	command.RegisterFunction(randomFloat)
	command.RegisterFunction(randomFloatStream)
	command.RegisterFunction(randomInteger)
	command.RegisterFunction(randomIntegerStream)
}

var floatStreamSchema = []value.ColumnType{{Name: "value", Type: value.FloatType}}
var integerStreamSchema = []value.ColumnType{{Name: "value", Type: value.IntType}}

var randomFloat = &command.Command{
	Name:     "random.float",
	ShortDoc: "a random floating point number between 0 (inclusive) and to (exclusive)",
	CanBlock: false,
	Output:   command.OutputType{Kind: command.OutputKnown, Type: value.FloatType},
	Signature: command.Signature{Params: []command.Param{
		{Kind: command.Named, Name: "to", OneOf: numberType, Default: value.Float(1.0)},
	}},
	Run: func(ctx *command.ExecutionContext) error {
		toV, _ := ctx.Args.Get("to")
		to, err := asFloat(toV)
		if err != nil {
			return ctx.Err(err)
		}
		return emit(ctx, value.Float(rand.Float64()*to))
	},
}

var randomFloatStream = &command.Command{
	Name:     "random.float_stream",
	ShortDoc: "an unbounded stream of random floating point numbers between 0 (inclusive) and to (exclusive)",
	CanBlock: true,
	Output:   command.OutputType{Kind: command.OutputKnown, Type: value.TableType(floatStreamSchema)},
	Signature: command.Signature{Params: []command.Param{
		{Kind: command.Named, Name: "to", OneOf: numberType, Default: value.Float(1.0)},
	}},
	Run: func(ctx *command.ExecutionContext) error {
		toV, _ := ctx.Args.Get("to")
		to, err := asFloat(toV)
		if err != nil {
			return ctx.Err(err)
		}
		if ctx.RowOutput == nil {
			return nil
		}
		for {
			select {
			case <-ctx.Ctx.Done():
				return nil
			default:
			}
			row := value.Row{value.Float(rand.Float64() * to)}
			if sendErr := ctx.RowOutput.Send(row); sendErr != nil {
				if sendErr == value.ErrSend {
					return nil
				}
				return ctx.Err(sendErr)
			}
		}
	},
}

var randomInteger = &command.Command{
	Name:     "random.integer",
	ShortDoc: "a random integer between 0 (inclusive) and to (exclusive)",
	CanBlock: false,
	Output:   command.OutputType{Kind: command.OutputKnown, Type: value.IntType},
	Signature: command.Signature{Params: []command.Param{
		{Kind: command.Named, Name: "to", Type: value.IntType, Default: value.NewInt(2)},
	}},
	Run: func(ctx *command.ExecutionContext) error {
		toV, _ := ctx.Args.Get("to")
		to := toV.(value.Int).Int64()
		if to <= 0 {
			return ctx.Err(value.NewError(value.InvalidArgument, "random.integer's to must be positive, got %d", to))
		}
		return emit(ctx, value.NewInt(rand.Int63n(to)))
	},
}

var randomIntegerStream = &command.Command{
	Name:     "random.integer_stream",
	ShortDoc: "an unbounded stream of random integers between 0 (inclusive) and to (exclusive)",
	CanBlock: true,
	Output:   command.OutputType{Kind: command.OutputKnown, Type: value.TableType(integerStreamSchema)},
	Signature: command.Signature{Params: []command.Param{
		{Kind: command.Named, Name: "to", Type: value.IntType, Default: value.NewInt(2)},
	}},
	Run: func(ctx *command.ExecutionContext) error {
		toV, _ := ctx.Args.Get("to")
		to := toV.(value.Int).Int64()
		if to <= 0 {
			return ctx.Err(value.NewError(value.InvalidArgument, "random.integer_stream's to must be positive, got %d", to))
		}
		if ctx.RowOutput == nil {
			return nil
		}
		for {
			select {
			case <-ctx.Ctx.Done():
				return nil
			default:
			}
			row := value.Row{value.NewInt(rand.Int63n(to))}
			if sendErr := ctx.RowOutput.Send(row); sendErr != nil {
				if sendErr == value.ErrSend {
					return nil
				}
				return ctx.Err(sendErr)
			}
		}
	},
}
