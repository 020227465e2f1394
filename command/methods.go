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
	"sync"

	"golang.org/x/exp/maps"

	"github.com/liljencrantz/crush-sub002/value"
)

// MethodTable is an insertion-ordered name→Command mapping, one per
// value.Kind, supporting reproducible `help` listings.
type MethodTable struct {
	mu    sync.RWMutex
	order []string
	byName map[string]*Command
}

func newMethodTable() *MethodTable {
	return &MethodTable{byName: map[string]*Command{}}
}

// Register adds or replaces a method under name. Registering a name twice
// keeps its original position in Names' order.
func (t *MethodTable) Register(name string, c *Command) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.byName[name]; !ok {
		t.order = append(t.order, name)
	}
	t.byName[name] = c
}

// Lookup returns the method registered under name.
func (t *MethodTable) Lookup(name string) (*Command, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.byName[name]
	return c, ok
}

// Names returns every registered method name in registration order.
func (t *MethodTable) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Snapshot returns a defensive copy of the table's name→Command mapping,
// for callers (e.g. `dir`) that need to inspect membership without
// holding t's lock or risking a concurrent Register mutating their view.
func (t *MethodTable) Snapshot() map[string]*Command {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return maps.Clone(t.byName)
}

var (
	methodTablesMu sync.Mutex
	methodTables   = map[value.Kind]*MethodTable{}
)

// Methods returns the method table for k, creating it on first use. Safe
// for concurrent use; the registry itself is a process-wide singleton,
// populated at package init time by every builtin package that registers
// methods on a given kind.
func Methods(k value.Kind) *MethodTable {
	methodTablesMu.Lock()
	defer methodTablesMu.Unlock()
	t, ok := methodTables[k]
	if !ok {
		t = newMethodTable()
		methodTables[k] = t
	}
	return t
}

// RegisterMethod is the convenience form builtin packages call from an
// init() function: command.RegisterMethod(value.KindString, "upper", cmd).
func RegisterMethod(k value.Kind, name string, c *Command) {
	Methods(k).Register(name, c)
}

// Dispatch resolves a method call v.name(...) against v's dynamic type.
func Dispatch(v value.Value, name string) (*Command, bool) {
	return Methods(v.Type().Kind).Lookup(name)
}

var (
	functionsMu sync.Mutex
	functions   = newMethodTable()
)

// RegisterFunction registers a free (non-method) command under its
// qualified dotted name, e.g. "math.sum".
func RegisterFunction(c *Command) {
	functionsMu.Lock()
	defer functionsMu.Unlock()
	functions.Register(c.Name, c)
}

// LookupFunction resolves a free command by its qualified dotted name.
func LookupFunction(name string) (*Command, bool) {
	functionsMu.Lock()
	defer functionsMu.Unlock()
	return functions.Lookup(name)
}

// FunctionNames returns every registered free command's name, in
// registration order.
func FunctionNames() []string {
	functionsMu.Lock()
	defer functionsMu.Unlock()
	return functions.Names()
}
