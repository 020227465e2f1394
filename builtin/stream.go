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
	"sort"

	"github.com/liljencrantz/crush-sub002/command"
	"github.com/liljencrantz/crush-sub002/scope"
	"github.com/liljencrantz/crush-sub002/value"
)

func init() {
	command.RegisterFunction(streamSeq)
	command.RegisterFunction(streamWhere)
	command.RegisterFunction(streamCount)
	command.RegisterFunction(streamSum)
	command.RegisterFunction(streamSort)
	command.RegisterFunction(streamUniq)
	command.RegisterFunction(streamZip)
	command.RegisterFunction(streamJoin)
	command.RegisterFunction(streamEnumerate)

	// Every single-input stream.* command also answers to its bare name as
	// a method on the aggregate kinds value.AsStream knows how to view as
	// rows, so a literal list/dict/table can open a pipeline directly
	// (`{a: 1, b: 2}:where {value > 1}`) without first going through an
	// explicit stream.* producer.
	for _, k := range []value.Kind{value.KindList, value.KindDict, value.KindTable} {
		command.RegisterMethod(k, "where", streamWhere)
		command.RegisterMethod(k, "count", streamCount)
		command.RegisterMethod(k, "sum", streamSum)
		command.RegisterMethod(k, "sort", streamSort)
		command.RegisterMethod(k, "uniq", streamUniq)
		command.RegisterMethod(k, "enumerate", streamEnumerate)
	}
}

// rowSource resolves the row-by-row input a stream.* command reads from:
// the upstream pipe when this stage sits mid-job, or, for a receiver-style
// call with no upstream stage (a bare list/dict/table opening a pipeline),
// the receiver's own stream view.
func rowSource(ctx *command.ExecutionContext) ([]value.ColumnType, func() (value.Row, error), bool) {
	if ctx.RowInput != nil {
		return ctx.RowInput.Types(), ctx.RowInput.Read, true
	}
	if ctx.This != nil {
		if s, ok := value.AsStream(ctx.This); ok {
			return s.Schema(), s.Read, true
		}
	}
	return nil, nil, false
}

// readAll drains a stage's row input to exhaustion, returning its rows and
// the declared schema. The commands that call it (count, sum, sort, uniq)
// are eager: they consume their entire input before producing output.
func readAll(ctx *command.ExecutionContext) ([]value.Row, []value.ColumnType, error) {
	schema, read, ok := rowSource(ctx)
	if !ok {
		return nil, nil, ctx.Err(value.NewError(value.InvalidArgument, "expected a row stream on standard input"))
	}
	var rows []value.Row
	for {
		row, err := read()
		if err == value.ErrEOF {
			return rows, schema, nil
		}
		if err != nil {
			return nil, nil, ctx.Err(err)
		}
		rows = append(rows, row)
	}
}

func sendRows(ctx *command.ExecutionContext, rows []value.Row) error {
	if ctx.RowOutput == nil {
		return nil
	}
	for _, r := range rows {
		if err := ctx.RowOutput.Send(r); err != nil {
			return ctx.Err(err)
		}
	}
	return nil
}

func findColumn(schema []value.ColumnType, name string) (int, error) {
	for i, c := range schema {
		if c.Name == name {
			return i, nil
		}
	}
	return 0, value.NewError(value.InvalidArgument, "no such column %q", name)
}

// structRow packs fields into the single-cell row shape every
// OutputUnknown command is confined to: the pipeline wiring between
// stages gives such a command only a permissive one-column "value"
// schema (see resolveSchema), so a command whose natural result has more
// than one column carries it as a Struct instead, the same convention
// for's multi-column loop items already use.
func structRow(fields []value.Field) value.Row {
	return value.Row{value.NewStruct(nil, fields)}
}

var streamSeq = &command.Command{
	Name:     "stream.seq",
	ShortDoc: "produce a stream of sequential integers",
	Signature: command.Signature{Params: []command.Param{
		{Kind: command.Named, Name: "from", Type: value.IntType, Default: value.NewInt(0)},
		{Kind: command.Named, Name: "to", Type: value.IntType, Default: value.NewInt(0)},
		{Kind: command.Named, Name: "step", Type: value.IntType, Default: value.NewInt(1)},
	}},
	Output: command.OutputType{Kind: command.OutputKnown, Type: value.TableType([]value.ColumnType{{Name: "value", Type: value.IntType}})},
	Run: func(ctx *command.ExecutionContext) error {
		fromV, _ := ctx.Args.Get("from")
		toV, _ := ctx.Args.Get("to")
		stepV, _ := ctx.Args.Get("step")
		from := fromV.(value.Int).Int64()
		to := toV.(value.Int).Int64()
		step := stepV.(value.Int).Int64()
		if step == 0 {
			return ctx.Err(value.NewError(value.InvalidArgument, "seq step must be non-zero"))
		}
		if (to > from) != (step > 0) {
			from, to = to, from
		}
		if ctx.RowOutput == nil {
			return nil
		}
		for idx := from; (step > 0 && idx < to) || (step < 0 && idx > to); idx += step {
			if err := ctx.RowOutput.Send(value.Row{value.NewInt(idx)}); err != nil {
				return ctx.Err(err)
			}
		}
		return nil
	},
}

var streamWhere = &command.Command{
	Name:        "stream.where",
	ShortDoc:    "pass through only rows for which a condition body returns true",
	IsCondition: true,
	Output:      command.OutputType{Kind: command.OutputPassthrough},
	Signature: command.Signature{Params: []command.Param{
		{Kind: command.Positional, Name: "condition", Type: value.Command},
	}},
	Run: func(ctx *command.ExecutionContext) error {
		condVal, _ := ctx.Args.Get("condition")
		condT, err := asThunk(condVal)
		if err != nil {
			return ctx.Err(err)
		}
		schema, read, ok := rowSource(ctx)
		if !ok {
			return ctx.Err(value.NewError(value.InvalidArgument, "expected a row stream on standard input"))
		}
		for {
			row, err := read()
			if err == value.ErrEOF {
				return nil
			}
			if err != nil {
				return ctx.Err(err)
			}
			rowScope := ctx.Scope.CreateChild(ctx.Scope, scope.Block)
			for i, col := range schema {
				if err := rowScope.Declare(col.Name, row[i]); err != nil {
					return ctx.Err(err)
				}
			}
			v, _, err := condT.RunIn(ctx.Ctx, rowScope, rowScope, scope.Block)
			if err != nil {
				return ctx.Err(err)
			}
			b, ok := v.(value.Bool)
			if !ok {
				return ctx.Err(value.NewError(value.InvalidArgument, "where condition must be a bool, got %s", v.Type()))
			}
			if bool(b) && ctx.RowOutput != nil {
				if err := ctx.RowOutput.Send(row); err != nil {
					return ctx.Err(err)
				}
			}
		}
	},
}

var streamCount = &command.Command{
	Name:     "stream.count",
	ShortDoc: "count the rows of the input stream",
	Output:   command.OutputType{Kind: command.OutputKnown, Type: value.IntType},
	Run: func(ctx *command.ExecutionContext) error {
		rows, _, err := readAll(ctx)
		if err != nil {
			return err
		}
		return emit(ctx, value.NewInt(int64(len(rows))))
	},
}

// streamSum accumulates one integer column of the input stream into a
// single total, ported from original_source/src/lib/stream/sum.rs
// (sum_rows' column-accumulation loop), widened to math/big so a long
// stream can't silently overflow the way the original's i128 can.
var streamSum = &command.Command{
	Name:     "stream.sum",
	ShortDoc: "sum one named integer column of the input stream",
	Output:   command.OutputType{Kind: command.OutputKnown, Type: value.IntType},
	Signature: command.Signature{Params: []command.Param{
		{Kind: command.Positional, Name: "column", Type: value.StringType, Default: value.String("value")},
	}},
	Run: func(ctx *command.ExecutionContext) error {
		colV, _ := ctx.Args.Get("column")
		col, ok := colV.(value.String)
		if !ok {
			return ctx.Err(value.NewError(value.InvalidArgument, "sum expects a column name"))
		}
		rows, schema, err := readAll(ctx)
		if err != nil {
			return err
		}
		idx, err := findColumn(schema, string(col))
		if err != nil {
			return ctx.Err(err)
		}
		total := new(big.Int)
		for _, row := range rows {
			n, ok := row[idx].(value.Int)
			if !ok {
				return ctx.Err(value.NewError(value.InvalidArgument, "column %q is not an integer, got %s", col, row[idx].Type()))
			}
			total.Add(total, n.Big())
		}
		return emit(ctx, value.NewBigInt(total))
	},
}

var streamSort = &command.Command{
	Name:     "stream.sort",
	ShortDoc: "sort the input stream by one named column",
	Output:   command.OutputType{Kind: command.OutputPassthrough},
	Signature: command.Signature{Params: []command.Param{
		{Kind: command.Positional, Name: "column", Type: value.StringType},
	}},
	Run: func(ctx *command.ExecutionContext) error {
		colV, _ := ctx.Args.Get("column")
		col, ok := colV.(value.String)
		if !ok {
			return ctx.Err(value.NewError(value.InvalidArgument, "sort expects a column name"))
		}
		rows, schema, err := readAll(ctx)
		if err != nil {
			return err
		}
		idx, err := findColumn(schema, string(col))
		if err != nil {
			return ctx.Err(err)
		}
		var sortErr error
		sort.SliceStable(rows, func(i, j int) bool {
			if sortErr != nil {
				return false
			}
			cmp, err := value.Compare(rows[i][idx], rows[j][idx])
			if err != nil {
				sortErr = err
				return false
			}
			return cmp < 0
		})
		if sortErr != nil {
			return ctx.Err(sortErr)
		}
		return sendRows(ctx, rows)
	},
}

var streamUniq = &command.Command{
	Name:     "stream.uniq",
	ShortDoc: "pass through only the first row seen for each distinct value of a column",
	Output:   command.OutputType{Kind: command.OutputPassthrough},
	Signature: command.Signature{Params: []command.Param{
		{Kind: command.Named, Name: "column", Type: value.StringType, Default: value.EmptyV()},
	}},
	Run: func(ctx *command.ExecutionContext) error {
		colV, _ := ctx.Args.Get("column")
		col, named := colV.(value.String)
		rows, schema, err := readAll(ctx)
		if err != nil {
			return err
		}
		idx := -1
		if named {
			idx, err = findColumn(schema, string(col))
			if err != nil {
				return ctx.Err(err)
			}
		}
		seen := map[uint64][]value.Value{}
		var out []value.Row
		for _, row := range rows {
			var key value.Value
			if idx >= 0 {
				key = row[idx]
			} else if len(row) == 1 {
				key = row[0]
			} else {
				fields := make([]value.Field, len(row))
				for i, c := range schema {
					fields[i] = value.Field{Name: c.Name, Val: row[i]}
				}
				key = value.NewStruct(nil, fields)
			}
			h, ok := value.Hash(key)
			if !ok {
				out = append(out, row)
				continue
			}
			dup := false
			for _, prior := range seen[h] {
				if value.Equals(prior, key) {
					dup = true
					break
				}
			}
			if dup {
				continue
			}
			seen[h] = append(seen[h], key)
			out = append(out, row)
		}
		return sendRows(ctx, out)
	},
}

var streamZip = &command.Command{
	Name:     "stream.zip",
	ShortDoc: "combine two streams row by row into a single wider stream",
	Output:   command.OutputType{Kind: command.OutputUnknown},
	Signature: command.Signature{Params: []command.Param{
		{Kind: command.Positional, Name: "other", Type: value.Any},
	}},
	Run: func(ctx *command.ExecutionContext) error {
		otherV, _ := ctx.Args.Get("other")
		other, ok := otherV.(value.TableInputStream)
		if !ok {
			return ctx.Err(value.NewError(value.InvalidArgument, "zip expects a stream argument"))
		}
		if ctx.RowInput == nil {
			return ctx.Err(value.NewError(value.InvalidArgument, "expected a row stream on standard input"))
		}
		leftSchema := ctx.RowInput.Types()
		rightSchema := other.Schema()
		for {
			left, lerr := ctx.RowInput.Read()
			right, rerr := other.Read()
			if lerr == value.ErrEOF || rerr == value.ErrEOF {
				return nil
			}
			if lerr != nil {
				return ctx.Err(lerr)
			}
			if rerr != nil {
				return ctx.Err(rerr)
			}
			if ctx.RowOutput == nil {
				continue
			}
			fields := make([]value.Field, 0, len(leftSchema)+len(rightSchema))
			for i, c := range leftSchema {
				fields = append(fields, value.Field{Name: c.Name, Val: left[i]})
			}
			for i, c := range rightSchema {
				fields = append(fields, value.Field{Name: c.Name, Val: right[i]})
			}
			if err := ctx.RowOutput.Send(structRow(fields)); err != nil {
				return ctx.Err(err)
			}
		}
	},
}

var streamJoin = &command.Command{
	Name:     "stream.join",
	ShortDoc: "inner-join two named streams on matching key columns",
	Output:   command.OutputType{Kind: command.OutputUnknown},
	Signature: command.Signature{Params: []command.Param{
		{Kind: command.NamedVarargs, Name: "streams", Type: value.Any, Doc: "exactly two name=stream bindings, joined on column name"},
	}},
	Run: func(ctx *command.ExecutionContext) error {
		sv, _ := ctx.Args.Get("streams")
		s, ok := sv.(value.Struct)
		if !ok {
			return ctx.Err(value.NewError(value.InvalidArgument, "join requires two named stream arguments"))
		}
		fields := s.Fields()
		if len(fields) != 2 {
			return ctx.Err(value.NewError(value.InvalidArgument, "join requires exactly two named stream arguments, got %d", len(fields)))
		}
		left, ok := fields[0].Val.(value.TableInputStream)
		if !ok {
			return ctx.Err(value.NewError(value.InvalidArgument, "join argument %q is not a stream", fields[0].Name))
		}
		right, ok := fields[1].Val.(value.TableInputStream)
		if !ok {
			return ctx.Err(value.NewError(value.InvalidArgument, "join argument %q is not a stream", fields[1].Name))
		}
		leftSchema := left.Schema()
		rightSchema := right.Schema()
		leftIdx, err := findColumn(leftSchema, fields[1].Name)
		if err != nil {
			return ctx.Err(err)
		}
		rightIdx, err := findColumn(rightSchema, fields[0].Name)
		if err != nil {
			return ctx.Err(err)
		}

		byKey := map[uint64][]value.Row{}
		for {
			row, err := left.Read()
			if err == value.ErrEOF {
				break
			}
			if err != nil {
				return ctx.Err(err)
			}
			h, ok := value.Hash(row[leftIdx])
			if !ok {
				continue
			}
			byKey[h] = append(byKey[h], row)
		}
		for {
			rrow, err := right.Read()
			if err == value.ErrEOF {
				return nil
			}
			if err != nil {
				return ctx.Err(err)
			}
			h, ok := value.Hash(rrow[rightIdx])
			if !ok {
				continue
			}
			for _, lrow := range byKey[h] {
				if !value.Equals(lrow[leftIdx], rrow[rightIdx]) {
					continue
				}
				if ctx.RowOutput == nil {
					continue
				}
				outFields := make([]value.Field, 0, len(leftSchema)+len(rightSchema))
				for i, c := range leftSchema {
					outFields = append(outFields, value.Field{Name: c.Name, Val: lrow[i]})
				}
				for i, c := range rightSchema {
					if i == rightIdx {
						continue
					}
					outFields = append(outFields, value.Field{Name: c.Name, Val: rrow[i]})
				}
				if err := ctx.RowOutput.Send(structRow(outFields)); err != nil {
					return ctx.Err(err)
				}
			}
		}
	},
}

var streamEnumerate = &command.Command{
	Name:     "stream.enumerate",
	ShortDoc: "prefix each input row with its zero-based index",
	Output:   command.OutputType{Kind: command.OutputUnknown},
	Run: func(ctx *command.ExecutionContext) error {
		schema, read, ok := rowSource(ctx)
		if !ok {
			return ctx.Err(value.NewError(value.InvalidArgument, "expected a row stream on standard input"))
		}
		idx := int64(0)
		for {
			row, err := read()
			if err == value.ErrEOF {
				return nil
			}
			if err != nil {
				return ctx.Err(err)
			}
			if ctx.RowOutput != nil {
				fields := make([]value.Field, 0, len(schema)+1)
				fields = append(fields, value.Field{Name: "index", Val: value.NewInt(idx)})
				for i, c := range schema {
					fields = append(fields, value.Field{Name: c.Name, Val: row[i]})
				}
				if err := ctx.RowOutput.Send(structRow(fields)); err != nil {
					return ctx.Err(err)
				}
			}
			idx++
		}
	},
}
