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

// Package pipe implements the Pipe component: the two bounded,
// typed channel shapes stages use to move values between threads — a
// capacity-1 single-shot ValueSender/ValueReceiver pair, and a bounded,
// schema-bound RowSender/RowReceiver pair.
package pipe

import (
	"sync"

	"github.com/liljencrantz/crush-sub002/value"
)

// ValueReceiver is the read end of a one-shot value pipe.
type ValueReceiver struct {
	empty  bool
	valCh  chan value.Value
	doneCh chan struct{}
}

// ValueSender is the write end of a one-shot value pipe.
type ValueSender struct {
	mu     sync.Mutex
	used   bool
	valCh  chan value.Value
	doneCh chan struct{}
}

// NewValuePipe allocates a paired single-shot value sender/receiver.
func NewValuePipe() (*ValueSender, *ValueReceiver) {
	valCh := make(chan value.Value, 1)
	doneCh := make(chan struct{})
	return &ValueSender{valCh: valCh, doneCh: doneCh}, &ValueReceiver{valCh: valCh, doneCh: doneCh}
}

// EmptyValueReceiver returns a receiver with no producer at all: Recv
// yields the sentinel Empty value immediately.
func EmptyValueReceiver() *ValueReceiver {
	return &ValueReceiver{empty: true}
}

// Send delivers v to the receiver. It may be called at most once; a
// second call returns an error.
func (s *ValueSender) Send(v value.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.used {
		return value.NewError(value.Generic, "value pipe sender used more than once")
	}
	s.used = true
	s.valCh <- v
	close(s.doneCh)
	return nil
}

// Close drops the sender without sending a value. A receiver awaiting
// this pipe observes EOF.
func (s *ValueSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.used {
		return nil
	}
	s.used = true
	close(s.doneCh)
	return nil
}

// Recv awaits the single value sent on this pipe. If the pipe has no
// producer, it returns the Empty value immediately; if the producer
// dropped without sending, it returns value.ErrEOF.
func (r *ValueReceiver) Recv() (value.Value, error) {
	if r.empty {
		return value.EmptyV(), nil
	}
	<-r.doneCh
	select {
	case v := <-r.valCh:
		return v, nil
	default:
		return nil, value.ErrEOF
	}
}
