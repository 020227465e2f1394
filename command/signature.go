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

// Package command implements the Command & Signature component: the
// parameter specification a Command carries, the argument-binding engine
// that matches caller-supplied arguments against it, and the per-type
// method dispatch table.
package command

import (
	"strings"

	"github.com/liljencrantz/crush-sub002/value"
)

// ParamKind is a parameter's binding strategy.
type ParamKind int

const (
	// Positional parameters consume the next unnamed argument in order.
	Positional ParamKind = iota
	// Named parameters consume a named argument matching their name.
	Named
	// UnnamedVarargs collects every remaining unnamed argument into a
	// list of the parameter's declared element type.
	UnnamedVarargs
	// NamedVarargs collects every remaining named argument into an
	// insertion-ordered string→value struct.
	NamedVarargs
)

// OneOf is the polymorphic union parameter type names
// (`one_of(t1, t2, …)`), ported from the original source's
// src/builtins/types/one_of.rs.
type OneOf struct {
	Types []value.Type
}

// Accepts reports whether v is assignable to any of the union's types.
func (o OneOf) Accepts(v value.Value) bool {
	for _, t := range o.Types {
		if value.AssignableTo(v, t) {
			return true
		}
	}
	return false
}

func (o OneOf) String() string {
	names := make([]string, len(o.Types))
	for i, t := range o.Types {
		names[i] = t.String()
	}
	return "one_of(" + strings.Join(names, ", ") + ")"
}

// Param is one entry of a Signature, in declaration order.
type Param struct {
	Kind ParamKind
	Name string

	// Type is the declared type. For UnnamedVarargs, Type is the element
	// type of the collected list.
	Type value.Type
	// OneOf, if non-nil, overrides Type with a polymorphic union.
	OneOf *OneOf

	// Default is the parameter's default value; nil means required.
	// Meaningless for the two varargs kinds.
	Default value.Value

	Doc string
}

// Accepts reports whether v satisfies this parameter's declared type.
func (p Param) Accepts(v value.Value) bool {
	if p.OneOf != nil {
		return p.OneOf.Accepts(v)
	}
	return value.AssignableTo(v, p.Type)
}

// TypeString renders the parameter's declared type for error messages.
func (p Param) TypeString() string {
	if p.OneOf != nil {
		return p.OneOf.String()
	}
	return p.Type.String()
}

// Signature is a Command's full ordered parameter list.
type Signature struct {
	Params []Param
}

// unnamedVarargsParam and namedVarargsParam return the signature's single
// varargs parameter of each kind, if any.
func (s Signature) unnamedVarargsParam() (Param, bool) {
	for _, p := range s.Params {
		if p.Kind == UnnamedVarargs {
			return p, true
		}
	}
	return Param{}, false
}

func (s Signature) namedVarargsParam() (Param, bool) {
	for _, p := range s.Params {
		if p.Kind == NamedVarargs {
			return p, true
		}
	}
	return Param{}, false
}
