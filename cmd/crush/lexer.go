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

package main

import (
	"strconv"
	"strings"

	"github.com/liljencrantz/crush-sub002/exec"
	"github.com/liljencrantz/crush-sub002/value"
)

// splitLine turns one REPL line into a job tree of pipeline stages. This
// is deliberately not a language parser (the lexer/parser is explicitly
// out of scope of the core): it recognizes only "cmd arg arg name=arg |
// cmd2 ..." — whitespace-separated tokens, double-quoted strings, and a
// single '|' stage separator — just enough surface for the interactive
// prompt to drive the invocation engine end to end.
func splitLine(line string) (*exec.JobNode, error) {
	var stages []*exec.CallNode
	for _, stagePart := range strings.Split(line, "|") {
		toks, err := tokenize(stagePart)
		if err != nil {
			return nil, err
		}
		if len(toks) == 0 {
			continue
		}
		args := make([]exec.ArgNode, 0, len(toks)-1)
		for _, tok := range toks[1:] {
			if name, rest, ok := strings.Cut(tok, "="); ok && isIdent(name) {
				args = append(args, exec.ArgNode{Name: name, Expr: &exec.Literal{Val: parseLiteral(rest)}})
				continue
			}
			args = append(args, exec.ArgNode{Expr: &exec.Literal{Val: parseLiteral(tok)}})
		}
		stages = append(stages, &exec.CallNode{Name: toks[0], Args: args})
	}
	if len(stages) == 0 {
		return nil, nil
	}
	return &exec.JobNode{Stages: stages}, nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '.' || r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || (i > 0 && '0' <= r && r <= '9') {
			continue
		}
		return false
	}
	return true
}

// parseLiteral guesses a token's value type the same way a shell would:
// a double-quoted string, then int, then float, then bool, then a bare
// string.
func parseLiteral(tok string) value.Value {
	if q, ok := unquote(tok); ok {
		return value.String(q)
	}
	if n, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return value.NewInt(n)
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return value.Float(f)
	}
	if tok == "true" || tok == "false" {
		return value.Bool(tok == "true")
	}
	return value.String(tok)
}

func unquote(tok string) (string, bool) {
	if len(tok) >= 2 && tok[0] == '"' && tok[len(tok)-1] == '"' {
		return tok[1 : len(tok)-1], true
	}
	return "", false
}

// tokenize splits on whitespace, keeping double-quoted spans intact.
func tokenize(s string) ([]string, error) {
	var toks []string
	var cur strings.Builder
	inQuote := false
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			inQuote = !inQuote
			cur.WriteByte(c)
		case !inQuote && (c == ' ' || c == '\t'):
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	if inQuote {
		return nil, value.NewError(value.InvalidData, "unterminated quoted string")
	}
	flush()
	return toks, nil
}
