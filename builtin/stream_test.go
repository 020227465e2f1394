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
	"testing"

	"github.com/liljencrantz/crush-sub002/command"
	"github.com/liljencrantz/crush-sub002/exec"
	"github.com/liljencrantz/crush-sub002/table"
	"github.com/liljencrantz/crush-sub002/value"
)

func init() {
	command.RegisterFunction(&command.Command{
		Name: "streamtest.even",
		Signature: command.Signature{Params: []command.Param{
			{Kind: command.Positional, Name: "n", Type: value.IntType},
		}},
		Output: command.OutputType{Kind: command.OutputKnown, Type: value.BoolType},
		Run: func(ctx *command.ExecutionContext) error {
			n, _ := ctx.Args.Get("n")
			return ctx.ValueOutput.Send(value.Bool(n.(value.Int).Int64()%2 == 0))
		},
	})
}

func intsOf(rows []value.Row, col int) []int64 {
	out := make([]int64, len(rows))
	for i, r := range rows {
		out[i] = r[col].(value.Int).Int64()
	}
	return out
}

func assertInt64s(t *testing.T, got, want []int64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestStreamSeqGeneratesHalfOpenRange(t *testing.T) {
	e, _ := newTestEngine()
	call := callOf("stream.seq", namedArg("from", value.NewInt(0)), namedArg("to", value.NewInt(5)))
	v, err := runStages(e, call)
	if err != nil {
		t.Fatal(err)
	}
	assertInt64s(t, intsOf(rowsOf(v), 0), []int64{0, 1, 2, 3, 4})
}

func TestStreamSeqDescendsOnNegativeStep(t *testing.T) {
	e, _ := newTestEngine()
	call := callOf("stream.seq",
		namedArg("from", value.NewInt(5)),
		namedArg("to", value.NewInt(0)),
		namedArg("step", value.NewInt(-1)),
	)
	v, err := runStages(e, call)
	if err != nil {
		t.Fatal(err)
	}
	assertInt64s(t, intsOf(rowsOf(v), 0), []int64{5, 4, 3, 2, 1})
}

func TestStreamWhereFiltersByCondition(t *testing.T) {
	e, _ := newTestEngine()
	seq := callOf("stream.seq", namedArg("from", value.NewInt(0)), namedArg("to", value.NewInt(6)))
	condition := &exec.Block{Jobs: []*exec.JobNode{
		oneStageJob(callOf("streamtest.even", exec.ArgNode{Expr: &exec.Ident{Name: "value"}})),
	}}
	where := &exec.CallNode{Name: "stream.where", Args: []exec.ArgNode{{Expr: condition}}}
	v, err := runStages(e, seq, where)
	if err != nil {
		t.Fatal(err)
	}
	assertInt64s(t, intsOf(rowsOf(v), 0), []int64{0, 2, 4})
}

func TestStreamCountCountsRows(t *testing.T) {
	e, _ := newTestEngine()
	seq := callOf("stream.seq", namedArg("from", value.NewInt(0)), namedArg("to", value.NewInt(10)))
	count := callOf("stream.count")
	v, err := runStages(e, seq, count)
	if err != nil {
		t.Fatal(err)
	}
	if v.(value.Int).Int64() != 10 {
		t.Fatalf("expected a count of 10, got %v", v)
	}
}

func TestStreamSumAddsTheNamedColumn(t *testing.T) {
	e, _ := newTestEngine()
	seq := callOf("stream.seq", namedArg("from", value.NewInt(1)), namedArg("to", value.NewInt(4)))
	sum := callOf("stream.sum", posArg(value.String("value")))
	v, err := runStages(e, seq, sum)
	if err != nil {
		t.Fatal(err)
	}
	if v.(value.Int).Int64() != 6 {
		t.Fatalf("expected sum([1,2,3]) == 6, got %v", v)
	}
}

func TestStreamSumDefaultsToValueColumn(t *testing.T) {
	e, _ := newTestEngine()
	seq := callOf("stream.seq", namedArg("from", value.NewInt(1)), namedArg("to", value.NewInt(4)))
	sum := callOf("stream.sum")
	v, err := runStages(e, seq, sum)
	if err != nil {
		t.Fatal(err)
	}
	if v.(value.Int).Int64() != 6 {
		t.Fatalf("expected sum([1,2,3]) == 6, got %v", v)
	}
}

func TestStreamSortOrdersAscending(t *testing.T) {
	e, _ := newTestEngine()
	seq := callOf("stream.seq", namedArg("from", value.NewInt(4)), namedArg("to", value.NewInt(-1)), namedArg("step", value.NewInt(-1)))
	sortStage := callOf("stream.sort", posArg(value.String("value")))
	v, err := runStages(e, seq, sortStage)
	if err != nil {
		t.Fatal(err)
	}
	assertInt64s(t, intsOf(rowsOf(v), 0), []int64{0, 1, 2, 3, 4})
}

func literalIntStream(name string, nums []int64) value.Value {
	rows := make([]value.Row, len(nums))
	for i, n := range nums {
		rows[i] = value.Row{value.NewInt(n)}
	}
	return table.NewReader([]value.ColumnType{{Name: name, Type: value.IntType}}, rows)
}

func TestStreamUniqDedupsWholeRows(t *testing.T) {
	e, _ := newTestEngine()
	source := &exec.CallNode{Name: "streamtest.source", Args: nil}
	command.RegisterFunction(&command.Command{
		Name:   "streamtest.source",
		Output: command.OutputType{Kind: command.OutputKnown, Type: value.TableType([]value.ColumnType{{Name: "value", Type: value.IntType}})},
		Run: func(ctx *command.ExecutionContext) error {
			if ctx.RowOutput == nil {
				return nil
			}
			for _, n := range []int64{1, 1, 2, 3, 3, 3} {
				if err := ctx.RowOutput.Send(value.Row{value.NewInt(n)}); err != nil {
					return ctx.Err(err)
				}
			}
			return nil
		},
	})
	uniq := callOf("stream.uniq")
	v, err := runStages(e, source, uniq)
	if err != nil {
		t.Fatal(err)
	}
	assertInt64s(t, intsOf(rowsOf(v), 0), []int64{1, 2, 3})
}

func TestStreamEnumeratePrefixesZeroBasedIndex(t *testing.T) {
	e, _ := newTestEngine()
	seq := callOf("stream.seq", namedArg("from", value.NewInt(10)), namedArg("to", value.NewInt(13)))
	enumerate := callOf("stream.enumerate")
	v, err := runStages(e, seq, enumerate)
	if err != nil {
		t.Fatal(err)
	}
	rows := rowsOf(v)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %v", rows)
	}
	for i, want := range []int64{10, 11, 12} {
		if structFieldInt(rows[i], "index") != int64(i) {
			t.Fatalf("row %d: expected index %d, got %v", i, i, rows[i])
		}
		if structFieldInt(rows[i], "value") != want {
			t.Fatalf("row %d: expected value %d, got %v", i, want, rows[i])
		}
	}
}

func TestStreamZipCombinesRowsPairwise(t *testing.T) {
	e, _ := newTestEngine()
	seq := callOf("stream.seq", namedArg("from", value.NewInt(0)), namedArg("to", value.NewInt(3)))
	other := literalIntStream("letter", []int64{100, 101, 102})
	zip := &exec.CallNode{Name: "stream.zip", Args: []exec.ArgNode{{Expr: lit(other)}}}
	v, err := runStages(e, seq, zip)
	if err != nil {
		t.Fatal(err)
	}
	rows := rowsOf(v)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %v", rows)
	}
	for i, want := range []int64{100, 101, 102} {
		if structFieldInt(rows[i], "value") != int64(i) {
			t.Fatalf("row %d: expected left value %d, got %v", i, i, rows[i])
		}
		if structFieldInt(rows[i], "letter") != want {
			t.Fatalf("row %d: expected letter %d, got %v", i, want, rows[i])
		}
	}
}

func TestStreamJoinMatchesOnColumnName(t *testing.T) {
	e, _ := newTestEngine()
	left := literalIntStream("b", []int64{1, 2, 3})
	right := literalIntStream("a", []int64{2, 3, 4})
	join := &exec.CallNode{Name: "stream.join", Args: []exec.ArgNode{
		{Name: "a", Expr: lit(left)},
		{Name: "b", Expr: lit(right)},
	}}
	v, err := runStages(e, join)
	if err != nil {
		t.Fatal(err)
	}
	rows := rowsOf(v)
	if len(rows) != 2 {
		t.Fatalf("expected 2 matching rows, got %v", rows)
	}
}
