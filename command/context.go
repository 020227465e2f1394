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

package command

import (
	"context"

	"github.com/liljencrantz/crush-sub002/pipe"
	"github.com/liljencrantz/crush-sub002/scope"
	"github.com/liljencrantz/crush-sub002/value"
)

// Printer is the narrow interface a command body uses to report progress
// or errors outside of its own output pipe.
type Printer interface {
	Line(string)
	Error(err error)
}

// ThreadPool is the narrow interface a command body uses to spawn
// concurrent sub-work (e.g. a sub-job evaluated for its value). The real
// implementation is the job-orchestration engine's thread registry; this
// package only depends on the shape, not the engine, to keep command
// free of an import cycle with exec.
type ThreadPool interface {
	Spawn(name string, fn func())
}

// GlobalState is the handful of process-wide handles every invocation can
// reach.
type GlobalState struct {
	Printer Printer
	Pool    ThreadPool
	Locale  string
}

// ExecutionContext is what every Command body receives: its bound
// arguments, resolved receiver, current scope, pipe endpoints, and the
// ambient global state and source location.
type ExecutionContext struct {
	Ctx context.Context

	// RowInput/RowOutput are populated when the command is one stage of a
	// row-pipeline job. ValueInput/ValueOutput are populated when the
	// command is evaluated for a single terminal value (a sub-expression,
	// or the job's own exit value).
	RowInput    *pipe.RowReceiver
	RowOutput   *pipe.RowSender
	ValueInput  *pipe.ValueReceiver
	ValueOutput *pipe.ValueSender

	Args *Bound
	This value.Value

	Scope *scope.Scope

	Global *GlobalState

	Location value.Location
	Source   string
}

// Err wraps err with ctx's current source location and text, producing the
// same caret-underlined diagnostic shape every other error in this
// codebase renders. Passing nil returns nil.
func (ctx *ExecutionContext) Err(err error) error {
	if err == nil {
		return nil
	}
	if ve, ok := err.(*value.Error); ok && ve.Location == nil && ctx.Source != "" {
		cp := *ve
		return cp.WithLocation(ctx.Location, ctx.Source)
	}
	return err
}

// Cancelled reports whether ctx's cancellation axis has already tripped.
func (ctx *ExecutionContext) Cancelled() bool {
	if ctx.Ctx == nil {
		return false
	}
	select {
	case <-ctx.Ctx.Done():
		return true
	default:
		return false
	}
}
