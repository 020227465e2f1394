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
	"strings"

	"github.com/liljencrantz/crush-sub002/scope"
	"github.com/liljencrantz/crush-sub002/value"
)

// OutputKind classifies what a Command promises about the type of the
// value it produces, before it runs.
type OutputKind int

const (
	// OutputUnknown: the declared type cannot be determined ahead of a
	// call (e.g. it depends on a runtime type argument).
	OutputUnknown OutputKind = iota
	// OutputKnown: the exact value.Type is fixed regardless of arguments.
	OutputKnown
	// OutputPassthrough: the output type equals the input row stream's
	// type (commands like `where`, `sort`, `uniq`).
	OutputPassthrough
)

// OutputType is a Command's declared result shape.
type OutputType struct {
	Kind OutputKind
	Type value.Type
}

// Body is the Go function a Command invokes once arguments are bound.
type Body func(ctx *ExecutionContext) error

// Command is one qualified, dotted-name callable: either a free function
// (e.g. "math.sum") or a per-type method (e.g. registered against
// value.KindString as "upper").
type Command struct {
	Name string

	ShortDoc string
	LongDoc  string
	Examples []string

	Output      OutputType
	CanBlock    bool
	IsCondition bool

	Signature Signature
	Run       Body
}

// Type and Display make *Command itself a value.Value of kind Command, so
// it can be declared into a scope like any other binding and passed
// around as a first-class closure.
func (*Command) Type() value.Type    { return value.Command }
func (c *Command) Display() string   { return "command:" + c.Name }

// Namespace returns the portion of a dotted Name before the last '.', or
// "" if Name is unqualified.
func (c *Command) Namespace() string {
	if i := strings.LastIndex(c.Name, "."); i >= 0 {
		return c.Name[:i]
	}
	return ""
}

// ShortName returns the portion of a dotted Name after the last '.'.
func (c *Command) ShortName() string {
	if i := strings.LastIndex(c.Name, "."); i >= 0 {
		return c.Name[i+1:]
	}
	return c.Name
}

// Invoke binds args against the command's signature and, on success, runs
// its body with a freshly-populated ExecutionContext derived from base
// (base's pipes/scope/global state are copied in; Args/This are replaced).
func (c *Command) Invoke(base *ExecutionContext, args []Argument) error {
	bound, err := Bind(c.Signature, args)
	if err != nil {
		return err
	}
	ctx := *base
	ctx.Args = bound
	if bound.This != nil {
		ctx.This = bound.This
	}
	return c.Run(&ctx)
}

// DeclareInto binds c into s under its full dotted name, the Go analogue
// of `scope.declare_command(path, ...)` external interface.
func DeclareInto(s *scope.Scope, c *Command) error {
	return s.Declare(c.Name, c)
}
