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
	"github.com/liljencrantz/crush-sub002/command"
	"github.com/liljencrantz/crush-sub002/value"
)

func init() {
	command.RegisterFunction(timeNow)
	command.RegisterFunction(timeAdd)
}

var timeNow = &command.Command{
	Name:     "time.now",
	ShortDoc: "the current wall-clock time",
	Examples: []string{"time.now"},
	Output:   command.OutputType{Kind: command.OutputKnown, Type: value.TimeType},
	Run: func(ctx *command.ExecutionContext) error {
		return emit(ctx, value.NowTime())
	},
}

var timeAdd = &command.Command{
	Name:     "time.add",
	ShortDoc: "shift a time by a calendar span, e.g. \"1y6m15d\"",
	Examples: []string{`time.add (time.now) "1y6m15d"`},
	Output:   command.OutputType{Kind: command.OutputKnown, Type: value.TimeType},
	Signature: command.Signature{Params: []command.Param{
		{Kind: command.Positional, Name: "time", Type: value.TimeType, Doc: "the reference time"},
		{Kind: command.Positional, Name: "span", Type: value.StringType, Doc: "a calendar span, e.g. \"1y\", \"6m\", \"15d\", or any combination in that order"},
	}},
	Run: func(ctx *command.ExecutionContext) error {
		tv, _ := ctx.Args.Get("time")
		spanv, _ := ctx.Args.Get("span")
		span := string(spanv.(value.String))
		years, months, days, ok := value.ParseCalendarSpan(span)
		if !ok {
			return ctx.Err(value.NewError(value.InvalidArgument, "invalid calendar span %q", span))
		}
		return emit(ctx, tv.(value.Time).AddCalendar(years, months, days))
	},
}
