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
	"context"
	"testing"

	"github.com/liljencrantz/crush-sub002/command"
	"github.com/liljencrantz/crush-sub002/pipe"
	"github.com/liljencrantz/crush-sub002/value"
)

func TestRandomFloatStaysWithinBounds(t *testing.T) {
	e, _ := newTestEngine()
	for i := 0; i < 50; i++ {
		v, err := runStages(e, callOf("random.float", namedArg("to", value.Float(3.0))))
		if err != nil {
			t.Fatal(err)
		}
		f := float64(v.(value.Float))
		if f < 0 || f >= 3.0 {
			t.Fatalf("expected a value in [0, 3), got %v", f)
		}
	}
}

func TestRandomIntegerStaysWithinBounds(t *testing.T) {
	e, _ := newTestEngine()
	for i := 0; i < 50; i++ {
		v, err := runStages(e, callOf("random.integer", namedArg("to", value.NewInt(10))))
		if err != nil {
			t.Fatal(err)
		}
		n := v.(value.Int).Int64()
		if n < 0 || n >= 10 {
			t.Fatalf("expected a value in [0, 10), got %v", n)
		}
	}
}

// TestRandomIntegerStreamStopsWhenReceiverDrops drives random.integer_stream's
// Run body directly (bypassing the engine, which would otherwise block
// forever materializing an unbounded producer's output into a single
// Table) to verify the loop both treats a dropped receiver as a graceful
// stop (the value.ErrSend contract pipe.RowSender.Send documents) and
// never emits a value outside [0, to).
func TestRandomIntegerStreamStopsWhenReceiverDrops(t *testing.T) {
	snd, rcv := pipe.NewRowPipe(integerStreamSchema)
	ctx := context.Background()

	bound := &command.Bound{Values: map[string]value.Value{"to": value.NewInt(5)}}
	xctx := &command.ExecutionContext{Ctx: ctx, RowOutput: snd, Args: bound}

	done := make(chan error, 1)
	go func() { done <- randomIntegerStream.Run(xctx) }()

	for i := 0; i < 20; i++ {
		row, err := rcv.Read()
		if err != nil {
			t.Fatal(err)
		}
		n := row[0].(value.Int).Int64()
		if n < 0 || n >= 5 {
			t.Fatalf("expected a value in [0, 5), got %v", n)
		}
	}
	rcv.Close()
	if err := <-done; err != nil {
		t.Fatalf("expected Run to exit cleanly once the receiver dropped, got %v", err)
	}
}
