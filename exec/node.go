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

// Package exec implements the invocation engine: compiling
// a parser-supplied node tree into a launchable Job, spawning one thread
// per pipeline stage, wiring pipes between them, and propagating stop
// flags and errors. The lexer/parser that produces the node tree is out of
// scope; this package only defines the contract such a tree must satisfy.
package exec

import (
	"github.com/liljencrantz/crush-sub002/value"
)

// Node is the external contract a parser-produced tree must satisfy. Every
// node carries a source location threaded into diagnostics.
type Node interface {
	Loc() value.Location
}

// Literal is a value known at compile time.
type Literal struct {
	L   value.Location
	Val value.Value
}

func (n *Literal) Loc() value.Location { return n.L }

// Ident is a bare name resolved against the current scope at evaluation
// time.
type Ident struct {
	L    value.Location
	Name string
}

func (n *Ident) Loc() value.Location { return n.L }

// ListLit builds a list value from evaluated element expressions.
type ListLit struct {
	L        value.Location
	ElemType value.Type
	Elems    []Node
}

func (n *ListLit) Loc() value.Location { return n.L }

// DictLit builds a dict value from evaluated key/value expression pairs,
// in source order.
type DictLit struct {
	L               value.Location
	KeyType, ValType value.Type
	Keys, Vals      []Node
}

func (n *DictLit) Loc() value.Location { return n.L }

// ArgNode is one argument expression at a call site.
type ArgNode struct {
	// Name is non-empty for a named argument (`name=expr`).
	Name string
	// Splat marks expr as an ArgumentList/ArgumentDict/This splat rather
	// than a plain value argument.
	Splat SplatKind
	Expr  Node
}

// SplatKind tags an ArgNode's special binding behavior.
type SplatKind int

const (
	SplatNone SplatKind = iota
	SplatList
	SplatDict
	SplatThis
)

// CallNode is one pipeline stage: a command name (or, for method-style
// calls, a receiver expression and a method name) plus its argument
// expressions.
type CallNode struct {
	L value.Location
	// Receiver is non-nil for a method call (`x:m ...`); Name is always
	// the command or method name to resolve.
	Receiver Node
	Name     string
	Args     []ArgNode
}

func (n *CallNode) Loc() value.Location { return n.L }

// JobNode is a pipeline: a sequence of stages whose rows flow left to
// right.
type JobNode struct {
	L      value.Location
	Stages []*CallNode
}

func (n *JobNode) Loc() value.Location { return n.L }

// SubJob wraps a JobNode so it can appear as a value-producing expression
// (a parenthesised sub-job, ) rather than a top-level pipeline.
type SubJob struct {
	L   value.Location
	Job *JobNode
}

func (n *SubJob) Loc() value.Location { return n.L }

// Block is a brace-delimited sequence of jobs run in its own child scope,
// in order, checking the stop flag after each. `for`/`if`/
// `while`/`loop`/closure bodies are all Blocks.
type Block struct {
	L     value.Location
	Jobs  []*JobNode
}

func (n *Block) Loc() value.Location { return n.L }
