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

// Command crush is the minimal CLI surface around the invocation engine:
// an interactive prompt with a history file, and a --pup mode that lets
// the binary re-invoke itself across a privilege boundary (the pattern
// a `sudo` builtin would use).
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/liljencrantz/crush-sub002/command"
	"github.com/liljencrantz/crush-sub002/exec"
	"github.com/liljencrantz/crush-sub002/pup"
	"github.com/liljencrantz/crush-sub002/scope"
	"github.com/liljencrantz/crush-sub002/value"

	_ "github.com/liljencrantz/crush-sub002/builtin"
)

var dashPup bool

func init() {
	flag.BoolVar(&dashPup, "pup", false, "read a serialized command from stdin, execute it, and write the serialized result to stdout")
}

// stdioPrinter is the command.Printer wired to the interactive prompt:
// Line goes to stdout, Error to stderr, the same split the teacher's CLI
// commands (cmd/sneller's exit/exitf) use for output versus diagnostics.
type stdioPrinter struct{}

func (stdioPrinter) Line(s string)   { fmt.Println(s) }
func (stdioPrinter) Error(err error) { fmt.Fprintln(os.Stderr, err) }

func main() {
	flag.Parse()

	g := &command.GlobalState{Printer: stdioPrinter{}}
	e := exec.NewEngine(g)
	g.Pool = e.Registry

	if dashPup {
		if err := runPup(e); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}
	repl(e)
}

func historyPath() string {
	home := os.Getenv("HOME")
	if home == "" {
		return ""
	}
	return filepath.Join(home, ".crush_history")
}

func repl(e *exec.Engine) {
	hist := historyPath()
	var histFile *os.File
	if hist != "" {
		f, err := os.OpenFile(hist, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if err == nil {
			histFile = f
			defer histFile.Close()
		}
	}

	root := scope.New("root", scope.Root)
	in := bufio.NewScanner(os.Stdin)
	fmt.Print("crush> ")
	for in.Scan() {
		line := in.Text()
		if histFile != nil {
			fmt.Fprintln(histFile, line)
		}
		runLine(e, root, line)
		fmt.Print("crush> ")
	}
}

func runLine(e *exec.Engine, root *scope.Scope, line string) {
	job, err := splitLine(line)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	if job == nil {
		return
	}
	compiled := exec.Compile(job, root)
	v, err := e.Run(context.Background(), compiled).Recv()
	if err != nil {
		if err != value.ErrEOF {
			fmt.Fprintln(os.Stderr, err)
		}
		return
	}
	if v != nil {
		fmt.Println(v.Display())
	}
}

// runPup implements the --pup CLI surface: the sole input value is a
// Struct with a "command" string field and an "args" struct field whose
// fields become that command's named arguments, matching the wire shape
// a same-binary privilege-boundary callback would serialize. The result
// is re-encoded through the same pup codec and written to stdout.
func runPup(e *exec.Engine) error {
	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		return err
	}
	artifact, err := pup.Unmarshal(raw)
	if err != nil {
		return err
	}
	decoded, err := pup.Decode(artifact)
	if err != nil {
		return err
	}
	req, ok := decoded.(value.Struct)
	if !ok {
		return value.NewError(value.InvalidArgument, "expected a {command, args} struct, got %s", decoded.Type())
	}
	nameV, ok := req.Get("command")
	if !ok {
		return value.NewError(value.InvalidArgument, "missing \"command\" field")
	}
	name, ok := nameV.(value.String)
	if !ok {
		return value.NewError(value.InvalidArgument, "\"command\" must be a string")
	}
	var args []exec.ArgNode
	if argsV, ok := req.Get("args"); ok {
		argStruct, ok := argsV.(value.Struct)
		if !ok {
			return value.NewError(value.InvalidArgument, "\"args\" must be a struct")
		}
		for _, f := range argStruct.Fields() {
			args = append(args, exec.ArgNode{Name: f.Name, Expr: &exec.Literal{Val: f.Val}})
		}
	}

	root := scope.New("root", scope.Root)
	job := &exec.JobNode{Stages: []*exec.CallNode{{Name: string(name), Args: args}}}
	v, err := e.Run(context.Background(), exec.Compile(job, root)).Recv()
	if err != nil {
		return err
	}
	artifact, err = pup.Encode(v)
	if err != nil {
		return err
	}
	out, err := pup.Marshal(artifact, "")
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out)
	return err
}
