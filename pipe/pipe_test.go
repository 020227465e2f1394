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

package pipe

import (
	"testing"
	"time"

	"github.com/liljencrantz/crush-sub002/value"
)

func TestValuePipeEmptyNoProducer(t *testing.T) {
	r := EmptyValueReceiver()
	v, err := r.Recv()
	if err != nil {
		t.Fatal(err)
	}
	if v.Type().Kind != value.KindEmpty {
		t.Errorf("expected Empty, got %v", v.Type())
	}
}

func TestValuePipeSendRecv(t *testing.T) {
	s, r := NewValuePipe()
	go s.Send(value.NewInt(7))
	v, err := r.Recv()
	if err != nil {
		t.Fatal(err)
	}
	if v.(value.Int).Int64() != 7 {
		t.Errorf("got %v", v)
	}
}

func TestValuePipeDropWithoutSendIsEOF(t *testing.T) {
	s, r := NewValuePipe()
	s.Close()
	_, err := r.Recv()
	if err != value.ErrEOF {
		t.Errorf("expected EOF, got %v", err)
	}
}

var rowSchema = []value.ColumnType{{Name: "n", Type: value.IntType}}

func TestRowPipeFIFOAndEOF(t *testing.T) {
	snd, rcv := NewRowPipe(rowSchema)
	go func() {
		for i := 0; i < 5; i++ {
			snd.Send(value.Row{value.NewInt(int64(i))})
		}
		snd.Close()
	}()
	var got []int64
	for {
		row, err := rcv.Read()
		if err != nil {
			if err != value.ErrEOF {
				t.Fatal(err)
			}
			break
		}
		got = append(got, row[0].(value.Int).Int64())
	}
	for i, v := range got {
		if v != int64(i) {
			t.Fatalf("rows out of order: %v", got)
		}
	}
}

func TestRowPipeRejectsMistypedRowWithoutEnqueueing(t *testing.T) {
	snd, rcv := NewRowPipe(rowSchema)
	if err := snd.Send(value.Row{value.String("nope")}); err == nil {
		t.Fatal("expected a data error")
	}
	snd.Close()
	if _, err := rcv.Read(); err != value.ErrEOF {
		t.Errorf("mistyped send must not enqueue; expected immediate EOF, got %v", err)
	}
}

func TestRowPipeReceiverDropSignalsSend(t *testing.T) {
	snd, rcv := NewRowPipeSize(rowSchema, 1)
	snd.Send(value.Row{value.NewInt(0)}) // fill the 1-slot buffer
	rcv.Close()
	done := make(chan error, 1)
	go func() { done <- snd.Send(value.Row{value.NewInt(1)}) }()
	select {
	case err := <-done:
		if err != value.ErrSend {
			t.Errorf("expected ErrSend after receiver drop, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Send did not unblock within one row of the receiver drop")
	}
}

func TestRowPipeNoProducerNeverSent(t *testing.T) {
	_, rcv := NewRowPipe(rowSchema)
	// No sender ever closes or sends: a read with a short timeout must
	// not hang forever.
	if _, err := rcv.ReadTimeout(10 * time.Millisecond); err != value.ErrCancelled {
		t.Errorf("expected ErrCancelled on timeout, got %v", err)
	}
}

func TestRowPipeMultiProducer(t *testing.T) {
	snd, rcv := NewRowPipe(rowSchema)
	snd2 := snd.Fork()
	go func() { snd.Send(value.Row{value.NewInt(1)}); snd.Close() }()
	go func() { snd2.Send(value.Row{value.NewInt(2)}); snd2.Close() }()
	count := 0
	for {
		if _, err := rcv.Read(); err != nil {
			break
		}
		count++
	}
	if count != 2 {
		t.Errorf("expected 2 rows from two producers, got %d", count)
	}
}
