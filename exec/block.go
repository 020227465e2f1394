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

	"github.com/liljencrantz/crush-sub002/scope"
	"github.com/liljencrantz/crush-sub002/value"
)

// RunBlock creates a child scope of kind `kind` (parent and calling both
// as given) and runs every job in b in order, checking the child's stop
// flag after each one. It returns the last job's value
// and the child scope actually used, so a caller (a loop or closure body)
// can inspect the stop flag that ended the block.
func (e *Engine) RunBlock(ctx context.Context, b *Block, parent, calling *scope.Scope, kind scope.Kind) (value.Value, *scope.Scope, error) {
	child := parent.CreateChild(calling, kind)
	last := value.Value(value.EmptyV())
	for _, jn := range b.Jobs {
		job := Compile(jn, child)
		recv := e.Run(ctx, job)
		v, err := recv.Recv()
		switch {
		case err == nil:
			last = v
		case err == value.ErrEOF:
			// the stage already reported its own error to the printer;
			// treat the statement as producing no value and continue.
		default:
			return nil, child, err
		}
		if child.StopFlag().Kind != scope.StopNone {
			break
		}
	}
	return last, child, nil
}

// RunClosureBody runs b as a closure invocation: a fresh Closure-kind
// scope whose calling scope is the caller, consuming a Return stop flag
// as the closure's own result.
func (e *Engine) RunClosureBody(ctx context.Context, b *Block, defining, caller *scope.Scope) (value.Value, error) {
	last, child, err := e.RunBlock(ctx, b, defining, caller, scope.Closure)
	if err != nil {
		return nil, err
	}
	if st := child.StopFlag(); st.Kind == scope.StopReturn {
		return st.Value, nil
	}
	return last, nil
}
