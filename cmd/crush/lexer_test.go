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
	"testing"

	"github.com/liljencrantz/crush-sub002/value"
)

func TestTokenizeSplitsOnWhitespaceKeepingQuotedSpans(t *testing.T) {
	toks, err := tokenize(`stream.seq from=0 to=3 "a b"`)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"stream.seq", "from=0", "to=3", `"a b"`}
	if len(toks) != len(want) {
		t.Fatalf("expected %v, got %v", want, toks)
	}
	for i := range want {
		if toks[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, toks)
		}
	}
}

func TestTokenizeRejectsUnterminatedQuote(t *testing.T) {
	if _, err := tokenize(`echo "unterminated`); err == nil {
		t.Fatal("expected an unterminated-quote error")
	}
}

func TestParseLiteralGuessesTypes(t *testing.T) {
	cases := []struct {
		tok  string
		want value.Value
	}{
		{"5", value.NewInt(5)},
		{"-3", value.NewInt(-3)},
		{"2.5", value.Float(2.5)},
		{"true", value.Bool(true)},
		{"false", value.Bool(false)},
		{`"quoted text"`, value.String("quoted text")},
		{"bareword", value.String("bareword")},
	}
	for _, c := range cases {
		got := parseLiteral(c.tok)
		if !value.Equals(got, c.want) {
			t.Fatalf("parseLiteral(%q): expected %v, got %v", c.tok, c.want, got)
		}
	}
}

func TestIsIdent(t *testing.T) {
	cases := []struct {
		s    string
		want bool
	}{
		{"from", true},
		{"stream.seq", true},
		{"_private", true},
		{"a1", true},
		{"1a", false},
		{"", false},
		{"-x", false},
	}
	for _, c := range cases {
		if got := isIdent(c.s); got != c.want {
			t.Fatalf("isIdent(%q): expected %v, got %v", c.s, c.want, got)
		}
	}
}

func TestSplitLineBuildsPipelineStages(t *testing.T) {
	job, err := splitLine(`stream.seq from=0 to=3 | stream.count`)
	if err != nil {
		t.Fatal(err)
	}
	if job == nil || len(job.Stages) != 2 {
		t.Fatalf("expected 2 stages, got %v", job)
	}
	if job.Stages[0].Name != "stream.seq" || job.Stages[1].Name != "stream.count" {
		t.Fatalf("unexpected stage names: %v, %v", job.Stages[0].Name, job.Stages[1].Name)
	}
	if len(job.Stages[0].Args) != 2 {
		t.Fatalf("expected 2 args on the first stage, got %d", len(job.Stages[0].Args))
	}
	for i, want := range []string{"from", "to"} {
		if job.Stages[0].Args[i].Name != want {
			t.Fatalf("arg %d: expected name %q, got %q", i, want, job.Stages[0].Args[i].Name)
		}
	}
}

func TestSplitLineOnBlankInputReturnsNoJob(t *testing.T) {
	job, err := splitLine("   ")
	if err != nil {
		t.Fatal(err)
	}
	if job != nil {
		t.Fatalf("expected a nil job for blank input, got %v", job)
	}
}
