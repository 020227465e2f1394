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
	"github.com/liljencrantz/crush-sub002/value"
)

// ArgKind tags one caller-supplied argument's shape before binding.
type ArgKind int

const (
	// ArgPositional is an unnamed argument.
	ArgPositional ArgKind = iota
	// ArgNamed is a `name=value` argument.
	ArgNamed
	// ArgList is a splatted ArgumentList: its elements become additional
	// unnamed arguments.
	ArgList
	// ArgDict is a splatted ArgumentDict: its entries become additional
	// named arguments.
	ArgDict
	// ArgThis is the receiver of a method call.
	ArgThis
)

// Argument is one entry of a call site's argument list, in source order.
type Argument struct {
	Kind  ArgKind
	Name  string
	Value value.Value
}

// Bound is the language-neutral record of an argument-binding's outcome,
// handed to a command's body.
type Bound struct {
	This   value.Value
	Values map[string]value.Value
	Order  []string
}

// Get returns the bound value for a parameter name.
func (b *Bound) Get(name string) (value.Value, bool) {
	v, ok := b.Values[name]
	return v, ok
}

func (b *Bound) set(name string, v value.Value) {
	if _, exists := b.Values[name]; !exists {
		b.Order = append(b.Order, name)
	}
	b.Values[name] = v
}

// Bind implements the argument-binding algorithm: splat expansion, This
// extraction, per-parameter matching in declaration order, and finally
// varargs collection. It returns a descriptive *value.Error of kind
// InvalidArgument on any mismatch.
func Bind(sig Signature, args []Argument) (*Bound, error) {
	expanded, err := expandSplats(args)
	if err != nil {
		return nil, err
	}

	bound := &Bound{Values: map[string]value.Value{}}
	var positional []value.Value
	named := map[string]value.Value{}
	var namedOrder []string

	for _, a := range expanded {
		switch a.Kind {
		case ArgThis:
			bound.This = a.Value
		case ArgNamed:
			if _, exists := named[a.Name]; !exists {
				namedOrder = append(namedOrder, a.Name)
			}
			named[a.Name] = a.Value
		default:
			positional = append(positional, a.Value)
		}
	}

	posIdx := 0
	usedNamed := map[string]bool{}
	for _, p := range sig.Params {
		switch p.Kind {
		case Positional:
			if posIdx < len(positional) {
				v := positional[posIdx]
				posIdx++
				if !p.Accepts(v) {
					return nil, mismatchError(p, v)
				}
				bound.set(p.Name, v)
				continue
			}
			if p.Default != nil {
				bound.set(p.Name, p.Default)
				continue
			}
			return nil, missingError(p)
		case Named:
			if v, ok := named[p.Name]; ok {
				usedNamed[p.Name] = true
				if !p.Accepts(v) {
					return nil, mismatchError(p, v)
				}
				bound.set(p.Name, v)
				continue
			}
			if p.Default != nil {
				bound.set(p.Name, p.Default)
				continue
			}
			return nil, missingError(p)
		}
	}

	if p, ok := sig.unnamedVarargsParam(); ok {
		rest := positional[posIdx:]
		elemType := p.Type
		items := make([]value.Value, 0, len(rest))
		for _, v := range rest {
			if !value.AssignableTo(v, elemType) {
				return nil, mismatchError(p, v)
			}
			items = append(items, v)
		}
		bound.set(p.Name, value.NewList(elemType, items))
		posIdx = len(positional)
	}
	if posIdx < len(positional) {
		return nil, value.NewError(value.InvalidArgument, "too many positional arguments")
	}

	if p, ok := sig.namedVarargsParam(); ok {
		var fields []value.Field
		for _, name := range namedOrder {
			if usedNamed[name] {
				continue
			}
			v := named[name]
			if !p.Accepts(v) {
				return nil, mismatchError(p, v)
			}
			fields = append(fields, value.Field{Name: name, Val: v})
			usedNamed[name] = true
		}
		bound.set(p.Name, value.NewStruct(nil, fields))
	}
	for name := range named {
		if !usedNamed[name] {
			return nil, value.NewError(value.InvalidArgument, "unexpected named argument %q", name)
		}
	}

	return bound, nil
}

func expandSplats(args []Argument) ([]Argument, error) {
	var out []Argument
	for _, a := range args {
		switch a.Kind {
		case ArgList:
			l, ok := a.Value.(value.List)
			if !ok {
				return nil, value.NewError(value.InvalidArgument, "argument splat expected a list, got %s", a.Value.Type())
			}
			for _, item := range l.Snapshot() {
				out = append(out, Argument{Kind: ArgPositional, Value: item})
			}
		case ArgDict:
			d, ok := a.Value.(value.Dict)
			if !ok {
				return nil, value.NewError(value.InvalidArgument, "named argument splat expected a dict, got %s", a.Value.Type())
			}
			for _, e := range d.Entries() {
				name, ok := e.Key().(value.String)
				if !ok {
					return nil, value.NewError(value.InvalidArgument, "named argument splat keys must be strings")
				}
				out = append(out, Argument{Kind: ArgNamed, Name: string(name), Value: e.Val()})
			}
		default:
			out = append(out, a)
		}
	}
	return out, nil
}

func missingError(p Param) error {
	return value.NewError(value.InvalidArgument, "missing required argument %q", p.Name)
}

func mismatchError(p Param, v value.Value) error {
	return value.NewError(value.InvalidArgument,
		"argument %q expected type %s, got %s", p.Name, p.TypeString(), v.Type())
}
