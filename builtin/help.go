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

package builtin

import (
	"sort"
	"strings"

	"github.com/liljencrantz/crush-sub002/command"
	"github.com/liljencrantz/crush-sub002/value"
)

func init() {
	command.RegisterFunction(helpCmd)
	command.RegisterFunction(dirCmd)
}

// memberNames returns the method names a value answers to (the same
// insertion-ordered per-Kind table dispatch resolves `x:m` against),
// sorted for reproducible listings rather than registration order, since
// registration order depends on package init order across builtin files.
func memberNames(v value.Value) []string {
	snap := command.Methods(v.Type().Kind).Snapshot()
	out := make([]string, 0, len(snap))
	for name := range snap {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func describeCommand(c *command.Command) string {
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteString("(")
	for i, p := range c.Signature.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Name)
		b.WriteString(": ")
		b.WriteString(p.TypeString())
		if p.Default != nil {
			b.WriteString(" = ")
			b.WriteString(p.Default.Display())
		}
	}
	b.WriteString(")")
	if c.ShortDoc != "" {
		b.WriteString("\n\n    ")
		b.WriteString(c.ShortDoc)
	}
	if c.LongDoc != "" {
		b.WriteString("\n\n")
		b.WriteString(c.LongDoc)
	}
	for _, ex := range c.Examples {
		b.WriteString("\n    ")
		b.WriteString(ex)
	}
	return b.String()
}

const helpWelcome = `Welcome to crush!

Call help with the name of any variable or command to get help about it,
e.g. "help help" or "help stream.where". Run "dir <value>" to list the
members of a value.`

var helpCmd = &command.Command{
	Name:     "help",
	ShortDoc: "Show help about the specified thing.",
	Examples: []string{"help help", "help $integer"},
	Signature: command.Signature{Params: []command.Param{
		{Kind: command.Positional, Name: "topic", Type: value.Any, Default: value.EmptyV(), Doc: "the topic to show help for"},
	}},
	Run: func(ctx *command.ExecutionContext) error {
		topic, _ := ctx.Args.Get("topic")
		if ctx.Global == nil || ctx.Global.Printer == nil {
			return nil
		}
		switch t := topic.(type) {
		case value.EmptyValue:
			ctx.Global.Printer.Line(helpWelcome)
		case value.String:
			name := string(t)
			if v, ok := ctx.Scope.Get(name); ok {
				if cmd, ok := v.(*command.Command); ok {
					ctx.Global.Printer.Line(describeCommand(cmd))
				} else {
					ctx.Global.Printer.Line(name + ": " + v.Type().String())
				}
				return nil
			}
			if cmd, ok := command.LookupFunction(name); ok {
				ctx.Global.Printer.Line(describeCommand(cmd))
				return nil
			}
			return ctx.Err(value.NewError(value.InvalidArgument, "unknown identifier %s", name))
		case *command.Command:
			ctx.Global.Printer.Line(describeCommand(t))
		default:
			ctx.Global.Printer.Line(t.Type().String() + "\n\nMembers: " + strings.Join(memberNames(t), ", "))
		}
		return nil
	},
}

var dirCmd = &command.Command{
	Name:     "dir",
	ShortDoc: "List the members of a value.",
	Examples: []string{"dir $integer"},
	Output:   command.OutputType{Kind: command.OutputKnown, Type: value.Type{Kind: value.KindList, Element: &value.StringType}},
	Signature: command.Signature{Params: []command.Param{
		{Kind: command.Positional, Name: "value", Type: value.Any, Doc: "the value to list members of"},
	}},
	Run: func(ctx *command.ExecutionContext) error {
		v, _ := ctx.Args.Get("value")
		names := memberNames(v)
		items := make([]value.Value, len(names))
		for i, n := range names {
			items[i] = value.String(n)
		}
		return emit(ctx, value.NewList(value.StringType, items))
	},
}
