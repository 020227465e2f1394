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

package exec

import (
	"context"

	"github.com/liljencrantz/crush-sub002/command"
	"github.com/liljencrantz/crush-sub002/value"
)

// Engine is the process-wide handle a compiled Job runs against: the
// thread registry, the global cancellation token, and the ambient state
// (printer, locale) every ExecutionContext carries.
type Engine struct {
	Registry *Registry
	Global   *command.GlobalState

	// ctx is the engine's cancellation context, exposed through Context.
	// Run does not use it: stages get the context passed to Run, and
	// their pipe reads do not watch ctx.
	ctx    context.Context
	cancel context.CancelFunc
}

// NewEngine builds an Engine with its own cancellation context and thread
// registry.
func NewEngine(global *command.GlobalState) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	if global.Pool == nil {
		// self-reference is established by the caller after construction
		// via Engine.Registry, since GlobalState.Pool must be the exact
		// interface value passed into every ExecutionContext.
	}
	return &Engine{Registry: NewRegistry(), Global: global, ctx: ctx, cancel: cancel}
}

// Context returns the engine's cancellation context.
func (e *Engine) Context() context.Context { return e.ctx }

// Cancel cancels the context returned by Context. Stages started by Run
// are not interrupted by it; a stage blocked in a pipe read stays blocked.
func (e *Engine) Cancel() { e.cancel() }

// isGraceful reports whether err is one of the two error kinds that must
// be suppressed at the stage boundary rather than reported to the
// printer: a disconnected pipe or a drained stream are both expected
// ways for a stage to wind down, not failures.
func isGraceful(err error) bool {
	ve, ok := err.(*value.Error)
	return ok && (ve.Kind == value.Send || ve.Kind == value.EOF)
}
