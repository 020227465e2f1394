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
	"math/big"
	"strconv"

	"github.com/liljencrantz/crush-sub002/command"
	"github.com/liljencrantz/crush-sub002/value"
)

func init() {
	command.RegisterFunction(castCmd)
}

// castValue converts v to the scalar kind named by t, the single-value
// analogue of original_source's per-cell cast: that version casts every
// cell of a row against a target schema; this one casts the one value
// `cast` was actually handed, since this codebase has no standing notion
// of a schema to cast a whole row against outside of a pipeline stage.
func castValue(v value.Value, t value.Type) (value.Value, error) {
	if value.AssignableTo(v, t) {
		return v, nil
	}
	switch t.Kind {
	case value.KindInt:
		switch s := v.(type) {
		case value.Float:
			bi, _ := big.NewFloat(float64(s)).Int(nil)
			return value.NewBigInt(bi), nil
		case value.String:
			bi, ok := new(big.Int).SetString(string(s), 10)
			if !ok {
				return nil, value.NewError(value.InvalidArgument, "cannot cast %q to integer", string(s))
			}
			return value.NewBigInt(bi), nil
		case value.Bool:
			if bool(s) {
				return value.NewInt(1), nil
			}
			return value.NewInt(0), nil
		}
	case value.KindFloat:
		switch s := v.(type) {
		case value.Int:
			f, _ := new(big.Float).SetInt(s.Big()).Float64()
			return value.Float(f), nil
		case value.String:
			f, err := strconv.ParseFloat(string(s), 64)
			if err != nil {
				return nil, value.NewError(value.InvalidArgument, "cannot cast %q to float", string(s))
			}
			return value.Float(f), nil
		case value.Bool:
			if bool(s) {
				return value.Float(1), nil
			}
			return value.Float(0), nil
		}
	case value.KindString:
		switch v.(type) {
		case value.Int, value.Float, value.Bool:
			return value.String(v.Display()), nil
		}
	case value.KindBool:
		switch s := v.(type) {
		case value.String:
			b, err := strconv.ParseBool(string(s))
			if err != nil {
				return nil, value.NewError(value.InvalidArgument, "cannot cast %q to bool", string(s))
			}
			return value.Bool(b), nil
		case value.Int:
			return value.Bool(s.Int64() != 0), nil
		}
	}
	return nil, value.NewError(value.InvalidArgument, "cannot cast %s to %s", v.Type(), t)
}

var castCmd = &command.Command{
	Name:     "cast",
	ShortDoc: "convert a value to another scalar type",
	Examples: []string{`cast 5 "string"`, `cast "3.5" "float"`},
	Output:   command.OutputType{Kind: command.OutputKnown, Type: value.Any},
	Signature: command.Signature{Params: []command.Param{
		{Kind: command.Positional, Name: "value", Type: value.Any, Doc: "the value to convert"},
		{Kind: command.Positional, Name: "type", Type: value.StringType, Doc: "the target type's name, e.g. \"integer\" or \"string\""},
	}},
	Run: func(ctx *command.ExecutionContext) error {
		v, _ := ctx.Args.Get("value")
		typeName, _ := ctx.Args.Get("type")
		t, err := value.ParseType(string(typeName.(value.String)))
		if err != nil {
			return ctx.Err(err)
		}
		out, err := castValue(v, t)
		if err != nil {
			return ctx.Err(err)
		}
		return emit(ctx, out)
	},
}
