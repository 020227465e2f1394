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

// Package scope implements the Scope component: the nested,
// parent-pointing, shared-by-identity name→value environment that every
// command invocation resolves identifiers against.
package scope

import (
	"sync"
	"unsafe"

	"github.com/liljencrantz/crush-sub002/value"
)

// Kind classifies why a scope was created,
type Kind int

const (
	Root Kind = iota
	Namespace
	Block
	Loop
	Conditional
	Closure
	Temporary
)

func (k Kind) String() string {
	switch k {
	case Root:
		return "root"
	case Namespace:
		return "namespace"
	case Block:
		return "block"
	case Loop:
		return "loop"
	case Conditional:
		return "conditional"
	case Closure:
		return "closure"
	case Temporary:
		return "temporary"
	default:
		return "scope"
	}
}

// StopKind is the stop-flag variant a scope carries between commands in a
// sequence.
type StopKind int

const (
	StopNone StopKind = iota
	StopBreak
	StopContinue
	StopReturn
)

// Stop is the stop flag's full value: a kind plus, for StopReturn, the
// value being returned.
type Stop struct {
	Kind  StopKind
	Value value.Value
}

// binding is one entry of a scope's locals map, kept in a slice so
// iteration order matches insertion order.
type binding struct {
	name string
	val  value.Value
}

// Scope is a shared, mutable name→value environment with a lexical parent
// pointer, a dynamic calling-scope pointer, an ordered `use` import list,
// and a cooperative stop flag. Scopes are reference types:
// copying a *Scope aliases the same node.
type Scope struct {
	mu sync.Mutex

	parent  *Scope
	calling *Scope
	uses    []*Scope
	order   []string
	locals  map[string]value.Value
	name    string
	kind    Kind
	ro      bool
	stop    Stop
}

// New creates a fresh root scope with no parent.
func New(name string, kind Kind) *Scope {
	return &Scope{
		name:   name,
		kind:   kind,
		locals: map[string]value.Value{},
	}
}

// CreateChild allocates a new scope whose lexical parent is s and whose
// dynamic calling scope is calling. calling may be nil.
func (s *Scope) CreateChild(calling *Scope, kind Kind) *Scope {
	return &Scope{
		parent:  s,
		calling: calling,
		kind:    kind,
		locals:  map[string]value.Value{},
	}
}

func (*Scope) Type() value.Type { return value.Scope }
func (s *Scope) Display() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.name != "" {
		return "scope:" + s.name
	}
	return "scope"
}
func (s *Scope) EqualValue(o value.Value) bool {
	os, ok := o.(*Scope)
	return ok && s == os
}

// Identity returns a stable identity for s, used by pup's identity-
// preserving encoder (see value.List.Identity). A Scope is already a
// reference type, so its own pointer serves directly.
func (s *Scope) Identity() uintptr { return uintptr(unsafe.Pointer(s)) }

// Name returns the scope's diagnostic name.
func (s *Scope) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

// Uses returns a snapshot of s's own `use` import list, in declaration order.
func (s *Scope) Uses() []*Scope {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Scope, len(s.uses))
	copy(out, s.uses)
	return out
}

// LocalEntries returns only s's own local bindings, in insertion order
// (unlike Dump, this does not walk Parent or `use`).
func (s *Scope) LocalEntries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.order))
	for i, name := range s.order {
		out[i] = Entry{Name: name, Value: s.locals[name]}
	}
	return out
}

// SetName sets the scope's diagnostic name post-construction (used when
// reconstructing a scope whose name is only known after allocating its id
// slot during decode).
func (s *Scope) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

// Kind returns the scope's creation kind.
func (s *Scope) Kind() Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kind
}

// Readonly reports whether the scope rejects Declare/Set.
func (s *Scope) Readonly() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ro
}

// SetReadonly marks the scope readonly or not.
func (s *Scope) SetReadonly(ro bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ro = ro
}

// Parent returns the lexical parent scope, or nil for a root scope.
func (s *Scope) Parent() *Scope {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.parent
}

// Calling returns the dynamic calling scope, or nil.
func (s *Scope) Calling() *Scope {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calling
}

// Use appends other to this scope's import list.
func (s *Scope) Use(other *Scope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uses = append(s.uses, other)
}

// Declare binds name to value locally. It fails if the scope is readonly,
// if name already exists locally, or if name collides with a `use`-visible
// binding and shadowing is forbidden. This implementation
// follows the "declare-time error" branch of the two policies the
// original sources mix (see DESIGN.md, open question).
func (s *Scope) Declare(name string, v value.Value) error {
	s.mu.Lock()
	if s.ro {
		s.mu.Unlock()
		return value.NewError(value.InvalidArgument, "cannot declare %q: scope is readonly", name)
	}
	if _, ok := s.locals[name]; ok {
		s.mu.Unlock()
		return value.NewError(value.InvalidArgument, "variable %q is already declared in this scope", name)
	}
	uses := s.uses
	s.mu.Unlock()

	if _, _, found := lookupUses(uses, name); found {
		return value.NewError(value.InvalidArgument, "declaration of %q shadows a name visible via `use`", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.locals[name]; ok {
		return value.NewError(value.InvalidArgument, "variable %q is already declared in this scope", name)
	}
	s.locals[name] = v
	s.order = append(s.order, name)
	return nil
}

// SetLocal installs a local binding directly, without Declare's already-
// declared or `use`-shadow checks. Used by pup's decoder to restore a
// scope's own bindings verbatim, including ones that could not have
// arisen through ordinary Declare calls (e.g. a name also visible via a
// `use` added later).
func (s *Scope) SetLocal(name string, v value.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.locals[name]; !ok {
		s.order = append(s.order, name)
	}
	s.locals[name] = v
}

// lookupUses searches a `use` list in declaration order, first match wins.
func lookupUses(uses []*Scope, name string) (*Scope, value.Value, bool) {
	for _, u := range uses {
		if v, ok := u.getLocal(name); ok {
			return u, v, true
		}
	}
	return nil, nil, false
}

func (s *Scope) getLocal(name string) (value.Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.locals[name]
	return v, ok
}

// Get resolves name: locally, then via the lexical parent chain, then via
// any scope in the `use` list in declaration order. It never walks
// Calling. Per deadlock-avoidance rule, the child's lock is
// released before the parent's is acquired.
func (s *Scope) Get(name string) (value.Value, bool) {
	cur := s
	for cur != nil {
		if v, ok := cur.getLocal(name); ok {
			return v, true
		}
		cur.mu.Lock()
		uses := cur.uses
		parent := cur.parent
		cur.mu.Unlock()
		if _, v, found := lookupUses(uses, name); found {
			return v, true
		}
		cur = parent
	}
	return nil, false
}

// GetLocal resolves name only within this scope's own locals, without
// walking parent or `use`.
func (s *Scope) GetLocal(name string) (value.Value, bool) {
	return s.getLocal(name)
}

// Set reassigns an already-declared name, walking locally first, then the
// parent chain, then the `use` list. It fails if the name is
// not found, if the holding scope is readonly, or if v's type is not
// assignable to the prior binding's type.
func (s *Scope) Set(name string, v value.Value) error {
	holder, prior := s.findHolder(name)
	if holder == nil {
		return value.NewError(value.InvalidArgument, "variable %q is not declared", name)
	}
	if !value.AssignableTo(v, prior.Type()) {
		return value.NewError(value.InvalidArgument,
			"cannot assign value of type %s to %q, which holds type %s", v.Type(), name, prior.Type())
	}
	holder.mu.Lock()
	defer holder.mu.Unlock()
	if holder.ro {
		return value.NewError(value.InvalidArgument, "cannot assign %q: scope is readonly", name)
	}
	holder.locals[name] = v
	return nil
}

// findHolder returns the scope that owns name's binding and its current
// value, or (nil, nil) if not found anywhere reachable.
func (s *Scope) findHolder(name string) (*Scope, value.Value) {
	cur := s
	for cur != nil {
		if v, ok := cur.getLocal(name); ok {
			return cur, v
		}
		cur.mu.Lock()
		uses := cur.uses
		parent := cur.parent
		cur.mu.Unlock()
		for _, u := range uses {
			if v, ok := u.getLocal(name); ok {
				return u, v
			}
		}
		cur = parent
	}
	return nil, nil
}

// Remove deletes a local binding. It does not traverse parents.
func (s *Scope) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.locals[name]; !ok {
		return value.NewError(value.InvalidArgument, "variable %q is not declared locally", name)
	}
	delete(s.locals, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Entry is one (name, value) pair produced by Dump.
type Entry struct {
	Name  string
	Value value.Value
}

// Dump flattens locals plus everything reachable via the parent and `use`
// chains into an insertion-ordered sequence, closest-scope bindings
// shadowing farther ones.
func (s *Scope) Dump() []Entry {
	seen := map[string]bool{}
	var out []Entry
	cur := s
	for cur != nil {
		cur.mu.Lock()
		local := make([]Entry, len(cur.order))
		for i, name := range cur.order {
			local[i] = Entry{Name: name, Value: cur.locals[name]}
		}
		uses := cur.uses
		parent := cur.parent
		cur.mu.Unlock()
		for _, e := range local {
			if seen[e.Name] {
				continue
			}
			seen[e.Name] = true
			out = append(out, e)
		}
		for _, u := range uses {
			for _, e := range u.Dump() {
				if seen[e.Name] {
					continue
				}
				seen[e.Name] = true
				out = append(out, e)
			}
		}
		cur = parent
	}
	return out
}

// Stop sets the stop flag.
func (s *Scope) SetStop(st Stop) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stop = st
}

// StopFlag returns the current stop flag: s's own flag if set, otherwise a
// StopReturn flag inherited from the calling-scope chain. Break/continue
// are never inherited this way — NearestLoop always lands on the
// innermost loop scope directly, so their flags only ever need to be read
// locally. A return set on some enclosing closure's scope, by contrast,
// must remain visible to every block and loop nested inside that closure
// so each one unwinds in turn instead of only the frame return was called
// from.
func (s *Scope) StopFlag() Stop {
	s.mu.Lock()
	local := s.stop
	calling := s.calling
	s.mu.Unlock()
	if local.Kind != StopNone {
		return local
	}
	if calling != nil {
		if st := calling.StopFlag(); st.Kind == StopReturn {
			return st
		}
	}
	return Stop{}
}

// ClearStop resets the stop flag to StopNone.
func (s *Scope) ClearStop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stop = Stop{}
}

// NearestLoop walks the calling-scope chain (not the lexical parent
// chain) looking for the nearest enclosing Loop scope, the propagation
// target for Break/Continue.
func (s *Scope) NearestLoop() *Scope {
	return s.nearestKind(Loop)
}

// NearestClosure walks the calling-scope chain for the nearest enclosing
// Closure scope, the propagation target for Return.
func (s *Scope) NearestClosure() *Scope {
	return s.nearestKind(Closure)
}

func (s *Scope) nearestKind(k Kind) *Scope {
	cur := s
	for cur != nil {
		cur.mu.Lock()
		kind := cur.kind
		calling := cur.calling
		cur.mu.Unlock()
		if kind == k {
			return cur
		}
		cur = calling
	}
	return nil
}
