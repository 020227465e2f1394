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
	"sync"

	"github.com/google/uuid"
)

// Registry is the thread registry every spawned stage or sub-job thread
// registers with, giving the engine ordered join semantics for clean
// shutdown.
type Registry struct {
	mu    sync.Mutex
	wg    sync.WaitGroup
	names []string
}

// NewRegistry returns an empty thread registry.
func NewRegistry() *Registry { return &Registry{} }

// Spawn starts fn on a new goroutine under name suffixed with a fresh
// uuid (so repeated stage names remain distinguishable in diagnostics),
// tracking it for Join. Satisfies command.ThreadPool.
func (r *Registry) Spawn(name string, fn func()) {
	id := name + "-" + uuid.NewString()
	r.mu.Lock()
	r.names = append(r.names, id)
	r.mu.Unlock()
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		fn()
	}()
}

// Join blocks until every thread spawned so far has returned.
func (r *Registry) Join() { r.wg.Wait() }

// Names returns every thread name registered so far, in spawn order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}
