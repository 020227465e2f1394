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
	"context"
	"sync"
	"time"

	"github.com/liljencrantz/crush-sub002/table"
	"github.com/liljencrantz/crush-sub002/value"
)

// DefaultCapacity is the default bounded queue depth of a row pipe.
const DefaultCapacity = 128

type rowPipeState struct {
	schema []value.ColumnType
	ch     chan value.Row

	mu              sync.Mutex
	liveSenders     int
	receiverDropped bool
	receiverDoneCh  chan struct{}
	closeOnce       sync.Once
}

// RowSender is one producer handle onto a row pipe. A pipe may have many
// RowSenders, created via Fork, modeling "multi-producer"
// shape; the underlying channel is only closed once every forked sender
// has called Close.
type RowSender struct {
	s *rowPipeState
}

// RowReceiver is the single-consumer read end of a row pipe.
type RowReceiver struct {
	s *rowPipeState
}

// NewRowPipe allocates a row pipe bound to schema with the default
// capacity).
func NewRowPipe(schema []value.ColumnType) (*RowSender, *RowReceiver) {
	return NewRowPipeSize(schema, DefaultCapacity)
}

// NewRowPipeSize is NewRowPipe with an explicit bounded capacity.
func NewRowPipeSize(schema []value.ColumnType, capacity int) (*RowSender, *RowReceiver) {
	s := &rowPipeState{
		schema:         schema,
		ch:             make(chan value.Row, capacity),
		liveSenders:    1,
		receiverDoneCh: make(chan struct{}),
	}
	return &RowSender{s: s}, &RowReceiver{s: s}
}

// Types returns the pipe's immutable schema).
func (r *RowReceiver) Types() []value.ColumnType { return r.s.schema }

// Types returns the pipe's immutable schema, as observed from the
// producer side.
func (s *RowSender) Types() []value.ColumnType { return s.s.schema }

// Fork returns an additional sender handle sharing this pipe, for a
// second producer goroutine.
func (s *RowSender) Fork() *RowSender {
	s.s.mu.Lock()
	s.s.liveSenders++
	s.s.mu.Unlock()
	return &RowSender{s: s.s}
}

// Send validates row against the pipe's schema and enqueues it, blocking
// while the queue is full. It
// returns value.ErrSend, not an error, once the receiver has been
// dropped — a graceful-shutdown signal the caller must not treat as a
// failure.
func (s *RowSender) Send(row value.Row) error {
	if err := table.Valid(s.s.schema, row); err != nil {
		return err
	}
	select {
	case <-s.s.receiverDoneCh:
		return value.ErrSend
	default:
	}
	select {
	case s.s.ch <- row:
		return nil
	case <-s.s.receiverDoneCh:
		return value.ErrSend
	}
}

// Close drops this sender handle. Once every handle forked from the same
// pipe has called Close, the underlying channel is closed and the
// receiver observes EOF after draining whatever is already queued.
func (s *RowSender) Close() error {
	s.s.mu.Lock()
	defer s.s.mu.Unlock()
	s.s.liveSenders--
	if s.s.liveSenders == 0 {
		s.s.closeOnce.Do(func() { close(s.s.ch) })
	}
	return nil
}

// Read blocks for the next row, returning value.ErrEOF once every sender
// has closed and the buffer has drained.
func (r *RowReceiver) Read() (value.Row, error) {
	row, ok := <-r.s.ch
	if !ok {
		return nil, value.ErrEOF
	}
	return row, nil
}

// ReadContext is Read with an additional cancellation axis: if ctx is
// done before a row or EOF arrives, it returns value.ErrCancelled.
func (r *RowReceiver) ReadContext(ctx context.Context) (value.Row, error) {
	select {
	case row, ok := <-r.s.ch:
		if !ok {
			return nil, value.ErrEOF
		}
		return row, nil
	case <-ctx.Done():
		return nil, value.ErrCancelled
	}
}

// ReadTimeout is Read with a timeout axis. A tripped timeout is reported as Cancelled,
// matching ReadContext's cancellation outcome.
func (r *RowReceiver) ReadTimeout(d time.Duration) (value.Row, error) {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return r.ReadContext(ctx)
}

// Close drops the receiver. Senders blocked in Send, or attempting a
// future Send, observe value.ErrSend instead of blocking or enqueuing
// forever.
func (r *RowReceiver) Close() error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.receiverDropped {
		return nil
	}
	r.s.receiverDropped = true
	close(r.s.receiverDoneCh)
	return nil
}

// AsTableInputStream adapts the receiver as a value.TableInputStream, so
// a running pipeline stage's output can be treated as a streaming value.
func (r *RowReceiver) AsTableInputStream() value.TableInputStream {
	return (*receiverStream)(r)
}

type receiverStream RowReceiver

func (s *receiverStream) Type() value.Type           { return value.TableInputStreamType(s.s.schema) }
func (s *receiverStream) Display() string            { return "table_input_stream" }
func (s *receiverStream) Schema() []value.ColumnType { return s.s.schema }
func (s *receiverStream) Read() (value.Row, error)   { return (*RowReceiver)(s).Read() }

// AsTableOutputStream adapts the sender as a value.TableOutputStream, so a
// command body can write its result rows through the same Send/Close
// contract as any other schema-bound sink.
func (s *RowSender) AsTableOutputStream() value.TableOutputStream {
	return (*senderStream)(s)
}

type senderStream RowSender

func (s *senderStream) Type() value.Type           { return value.TableOutputStreamType(s.s.schema) }
func (s *senderStream) Display() string            { return "table_output_stream" }
func (s *senderStream) Schema() []value.ColumnType { return s.s.schema }
func (s *senderStream) Send(row value.Row) error   { return (*RowSender)(s).Send(row) }
func (s *senderStream) Close() error               { return (*RowSender)(s).Close() }
