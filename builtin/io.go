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
	"encoding/base64"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/liljencrantz/crush-sub002/command"
	"github.com/liljencrantz/crush-sub002/pup"
	"github.com/liljencrantz/crush-sub002/value"
)

func init() {
	command.RegisterFunction(hexTo)
	command.RegisterFunction(hexFrom)
	command.RegisterFunction(base64To)
	command.RegisterFunction(base64From)
	command.RegisterFunction(binTo)
	command.RegisterFunction(binFrom)
	command.RegisterFunction(csvFrom)
	command.RegisterFunction(pupTo)
	command.RegisterFunction(pupFrom)
}

// readValue pulls the single input value a codec command operates on: the
// sole cell of the sole buffered row on RowInput, the conventional shape
// every scalar-producing stage's output takes (resolveSchema's permissive
// single "value" column).
func readValue(ctx *command.ExecutionContext) (value.Value, error) {
	if ctx.RowInput == nil {
		return nil, ctx.Err(value.NewError(value.InvalidArgument, "expected a value on standard input"))
	}
	row, err := ctx.RowInput.Read()
	if err != nil {
		return nil, ctx.Err(err)
	}
	if len(row) == 0 {
		return nil, ctx.Err(value.NewError(value.InvalidData, "empty input row"))
	}
	return row[0], nil
}

func asBytes(v value.Value) ([]byte, error) {
	switch x := v.(type) {
	case value.Binary:
		return x.Bytes(), nil
	case value.String:
		return []byte(x), nil
	default:
		return nil, value.NewError(value.InvalidArgument, "expected a string or binary value, got %s", v.Type())
	}
}

var hexTo = &command.Command{
	Name:     "hex.to",
	ShortDoc: "hex-encode a string or binary value",
	Output:   command.OutputType{Kind: command.OutputKnown, Type: value.StringType},
	Run: func(ctx *command.ExecutionContext) error {
		v, err := readValue(ctx)
		if err != nil {
			return err
		}
		b, err := asBytes(v)
		if err != nil {
			return ctx.Err(err)
		}
		return emit(ctx, value.String(hex.EncodeToString(b)))
	},
}

var hexFrom = &command.Command{
	Name:     "hex.from",
	ShortDoc: "decode a hex-encoded string to binary",
	Output:   command.OutputType{Kind: command.OutputKnown, Type: value.BinaryType},
	Run: func(ctx *command.ExecutionContext) error {
		v, err := readValue(ctx)
		if err != nil {
			return err
		}
		s, ok := v.(value.String)
		if !ok {
			return ctx.Err(value.NewError(value.InvalidArgument, "expected a string, got %s", v.Type()))
		}
		b, decErr := hex.DecodeString(strings.TrimSpace(string(s)))
		if decErr != nil {
			return ctx.Err(value.NewError(value.InvalidData, "invalid hex string: %s", decErr))
		}
		return emit(ctx, value.NewBinary(b))
	},
}

var base64To = &command.Command{
	Name:     "base64.to",
	ShortDoc: "base64-encode a string or binary value",
	Output:   command.OutputType{Kind: command.OutputKnown, Type: value.StringType},
	Run: func(ctx *command.ExecutionContext) error {
		v, err := readValue(ctx)
		if err != nil {
			return err
		}
		b, err := asBytes(v)
		if err != nil {
			return ctx.Err(err)
		}
		return emit(ctx, value.String(base64.StdEncoding.EncodeToString(b)))
	},
}

var base64From = &command.Command{
	Name:     "base64.from",
	ShortDoc: "decode a base64-encoded string to binary",
	Output:   command.OutputType{Kind: command.OutputKnown, Type: value.BinaryType},
	Run: func(ctx *command.ExecutionContext) error {
		v, err := readValue(ctx)
		if err != nil {
			return err
		}
		s, ok := v.(value.String)
		if !ok {
			return ctx.Err(value.NewError(value.InvalidArgument, "expected a string, got %s", v.Type()))
		}
		b, decErr := base64.StdEncoding.DecodeString(strings.TrimSpace(string(s)))
		if decErr != nil {
			return ctx.Err(value.NewError(value.InvalidData, "invalid base64 string: %s", decErr))
		}
		return emit(ctx, value.NewBinary(b))
	},
}

var binTo = &command.Command{
	Name:     "bin.to",
	ShortDoc: "coerce a string or binary value to binary",
	Output:   command.OutputType{Kind: command.OutputKnown, Type: value.BinaryType},
	Run: func(ctx *command.ExecutionContext) error {
		v, err := readValue(ctx)
		if err != nil {
			return err
		}
		b, err := asBytes(v)
		if err != nil {
			return ctx.Err(err)
		}
		return emit(ctx, value.NewBinary(b))
	},
}

var binFrom = &command.Command{
	Name:     "bin.from",
	ShortDoc: "decode a binary value as a utf-8 string",
	Output:   command.OutputType{Kind: command.OutputKnown, Type: value.StringType},
	Run: func(ctx *command.ExecutionContext) error {
		v, err := readValue(ctx)
		if err != nil {
			return err
		}
		b, ok := v.(value.Binary)
		if !ok {
			return ctx.Err(value.NewError(value.InvalidArgument, "expected a binary value, got %s", v.Type()))
		}
		return emit(ctx, value.String(string(b.Bytes())))
	},
}

// csvFrom parses the input string/binary as delimiter-separated text into
// rows of the named columns, one column=type binding per field in order —
// the same shape csv.rs's per-argument Value::Type(s) handling builds,
// simplified to a fixed column list instead of a streaming head-skip/trim
// configuration.
var csvFrom = &command.Command{
	Name:     "csv.from",
	ShortDoc: "parse delimiter-separated input into rows of the named columns",
	Output:   command.OutputType{Kind: command.OutputUnknown},
	Signature: command.Signature{Params: []command.Param{
		{Kind: command.Named, Name: "separator", Type: value.StringType, Default: value.String(",")},
		{Kind: command.NamedVarargs, Name: "columns", Type: value.Any, Doc: "name=type bindings, in column order"},
	}},
	Run: func(ctx *command.ExecutionContext) error {
		sepV, _ := ctx.Args.Get("separator")
		sep, ok := sepV.(value.String)
		if !ok || len(sep) != 1 {
			return ctx.Err(value.NewError(value.InvalidArgument, "separator must be exactly one character"))
		}
		colsV, _ := ctx.Args.Get("columns")
		colStruct, ok := colsV.(value.Struct)
		if !ok || len(colStruct.Fields()) == 0 {
			return ctx.Err(value.NewError(value.InvalidArgument, "csv.from requires at least one name=type column binding"))
		}
		fields := colStruct.Fields()
		cols := make([]value.ColumnType, len(fields))
		for i, f := range fields {
			t, ok := f.Val.(value.TypeValue)
			if !ok {
				return ctx.Err(value.NewError(value.InvalidArgument, "column %q must be bound to a type, got %s", f.Name, f.Val.Type()))
			}
			cols[i] = value.ColumnType{Name: f.Name, Type: t.T}
		}

		v, err := readValue(ctx)
		if err != nil {
			return err
		}
		raw, err := asBytes(v)
		if err != nil {
			return ctx.Err(err)
		}

		if ctx.RowOutput == nil {
			return nil
		}
		lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
		for _, line := range lines {
			if line == "" {
				continue
			}
			cells := strings.Split(line, string(sep))
			if len(cells) != len(cols) {
				return ctx.Err(value.NewError(value.InvalidData, "expected %d columns, got %d", len(cols), len(cells)))
			}
			fields := make([]value.Field, len(cols))
			for i, cell := range cells {
				cv, err := parseCell(cell, cols[i].Type)
				if err != nil {
					return ctx.Err(err)
				}
				fields[i] = value.Field{Name: cols[i].Name, Val: cv}
			}
			// Each parsed line is handed downstream as a single Struct-valued
			// cell (see stream.go's structRow): an OutputUnknown command is
			// only ever wired with the permissive one-column "value" schema,
			// so a multi-field row has to travel packed into one value.
			if err := ctx.RowOutput.Send(value.Row{value.NewStruct(nil, fields)}); err != nil {
				return ctx.Err(err)
			}
		}
		return nil
	},
}

func parseCell(s string, t value.Type) (value.Value, error) {
	switch t.Kind {
	case value.KindString:
		return value.String(s), nil
	case value.KindInt:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, value.NewError(value.InvalidData, "%q is not a valid integer", s)
		}
		return value.NewInt(n), nil
	case value.KindFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, value.NewError(value.InvalidData, "%q is not a valid float", s)
		}
		return value.Float(f), nil
	default:
		return value.String(s), nil
	}
}

var pupTo = &command.Command{
	Name:     "pup.to",
	ShortDoc: "serialize the input value to the native binary format",
	Output:   command.OutputType{Kind: command.OutputKnown, Type: value.BinaryType},
	Run: func(ctx *command.ExecutionContext) error {
		v, err := readValue(ctx)
		if err != nil {
			return err
		}
		artifact, err := pup.Encode(v)
		if err != nil {
			return ctx.Err(err)
		}
		data, err := pup.Marshal(artifact, "")
		if err != nil {
			return ctx.Err(err)
		}
		return emit(ctx, value.NewBinary(data))
	},
}

var pupFrom = &command.Command{
	Name:     "pup.from",
	ShortDoc: "deserialize a native-binary-format value",
	Output:   command.OutputType{Kind: command.OutputUnknown},
	Run: func(ctx *command.ExecutionContext) error {
		v, err := readValue(ctx)
		if err != nil {
			return err
		}
		b, ok := v.(value.Binary)
		if !ok {
			return ctx.Err(value.NewError(value.InvalidArgument, "expected a binary value, got %s", v.Type()))
		}
		artifact, err := pup.Unmarshal(b.Bytes())
		if err != nil {
			return ctx.Err(err)
		}
		decoded, err := pup.Decode(artifact)
		if err != nil {
			return ctx.Err(err)
		}
		return emit(ctx, decoded)
	},
}
