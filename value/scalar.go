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

package value

import (
	"fmt"
	"math"
	"math/big"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Bool is the boolean scalar value.
type Bool bool

func (Bool) Type() Type           { return Type{Kind: KindBool} }
func (b Bool) Display() string    { return strconv.FormatBool(bool(b)) }
func (b Bool) HashValue() uint64  { return hashUint64(boolToUint64(bool(b))) }
func (b Bool) EqualValue(o Value) bool {
	ob, ok := o.(Bool)
	return ok && b == ob
}
func (b Bool) CompareValue(o Value) (int, bool) {
	ob, ok := o.(Bool)
	if !ok {
		return 0, false
	}
	if b == ob {
		return 0, true
	}
	if !bool(b) && bool(ob) {
		return -1, true
	}
	return 1, true
}

func boolToUint64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// Int is the signed 128-bit integer scalar value, represented
// with math/big.Int the way the ion package represents its
// BigInt datum variant (ion/datum.go).
type Int struct {
	v *big.Int
}

// NewInt wraps i64 as an Int value.
func NewInt(i64 int64) Int { return Int{v: big.NewInt(i64)} }

// NewBigInt wraps a big.Int as an Int value. bi is not retained by
// reference after the call; the caller retains ownership of its copy.
func NewBigInt(bi *big.Int) Int { return Int{v: new(big.Int).Set(bi)} }

// Big returns the underlying big.Int; callers must not mutate it.
func (i Int) Big() *big.Int { return i.v }

// Int64 returns the value truncated to an int64.
func (i Int) Int64() int64 { return i.v.Int64() }

func (Int) Type() Type        { return Type{Kind: KindInt} }
func (i Int) Display() string { return i.v.String() }
func (i Int) HashValue() uint64 {
	return hashBytes(i.v.Bytes())
}
func (i Int) EqualValue(o Value) bool {
	switch ov := o.(type) {
	case Int:
		return i.v.Cmp(ov.v) == 0
	}
	return false
}
func (i Int) CompareValue(o Value) (int, bool) {
	switch ov := o.(type) {
	case Int:
		return i.v.Cmp(ov.v), true
	case Float:
		f, _ := new(big.Float).SetInt(i.v).Float64()
		return compareFloat(f, float64(ov)), true
	}
	return 0, false
}

// Float is the IEEE-754 double scalar value.
type Float float64

func (Float) Type() Type        { return Type{Kind: KindFloat} }
func (f Float) Display() string { return strconv.FormatFloat(float64(f), 'g', -1, 64) }
func (f Float) HashValue() uint64 {
	return hashUint64(math.Float64bits(float64(f)))
}
func (f Float) EqualValue(o Value) bool {
	switch ov := o.(type) {
	case Float:
		return float64(f) == float64(ov) || (math.IsNaN(float64(f)) && math.IsNaN(float64(ov)))
	}
	return false
}
func (f Float) CompareValue(o Value) (int, bool) {
	switch ov := o.(type) {
	case Float:
		return compareFloat(float64(f), float64(ov)), true
	case Int:
		of, _ := new(big.Float).SetInt(ov.v).Float64()
		return compareFloat(float64(f), of), true
	}
	return 0, false
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// String is the UTF-8 string scalar value.
type String string

func (String) Type() Type        { return Type{Kind: KindString} }
func (s String) Display() string { return QuoteString(string(s)) }
func (s String) HashValue() uint64 {
	return hashString(string(s))
}
func (s String) EqualValue(o Value) bool {
	os, ok := o.(String)
	return ok && s == os
}
func (s String) CompareValue(o Value) (int, bool) {
	os, ok := o.(String)
	if !ok {
		return 0, false
	}
	switch {
	case s < os:
		return -1, true
	case s > os:
		return 1, true
	default:
		return 0, true
	}
}

// Binary is an immutable binary blob, shared by reference but compared by
// content.
type Binary struct {
	data []byte
}

// NewBinary copies b into a fresh Binary value.
func NewBinary(b []byte) Binary {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Binary{data: cp}
}

// Bytes returns the blob's bytes; callers must not mutate the slice.
func (b Binary) Bytes() []byte { return b.data }

func (Binary) Type() Type        { return Type{Kind: KindBinary} }
func (b Binary) Display() string { return fmt.Sprintf("binary(%d bytes)", len(b.data)) }
func (b Binary) HashValue() uint64 {
	return hashBytes(b.data)
}
func (b Binary) EqualValue(o Value) bool {
	ob, ok := o.(Binary)
	if !ok || len(b.data) != len(ob.data) {
		return false
	}
	for i := range b.data {
		if b.data[i] != ob.data[i] {
			return false
		}
	}
	return true
}

// FileRef is an absolute-path file reference.
type FileRef struct {
	Path string
}

// NewFileRef validates that path is absolute and returns a FileRef.
func NewFileRef(path string) (FileRef, error) {
	if !filepath.IsAbs(path) {
		return FileRef{}, NewError(InvalidArgument, "file reference %q is not an absolute path", path)
	}
	return FileRef{Path: filepath.Clean(path)}, nil
}

func (FileRef) Type() Type        { return Type{Kind: KindFile} }
func (f FileRef) Display() string { return f.Path }
func (f FileRef) HashValue() uint64 {
	return hashString(f.Path)
}
func (f FileRef) EqualValue(o Value) bool {
	of, ok := o.(FileRef)
	return ok && f.Path == of.Path
}
func (f FileRef) CompareValue(o Value) (int, bool) {
	of, ok := o.(FileRef)
	if !ok {
		return 0, false
	}
	switch {
	case f.Path < of.Path:
		return -1, true
	case f.Path > of.Path:
		return 1, true
	default:
		return 0, true
	}
}

// Duration is a signed, nanosecond-precision duration.
type Duration time.Duration

func (Duration) Type() Type        { return Type{Kind: KindDuration} }
func (d Duration) Display() string { return time.Duration(d).String() }
func (d Duration) HashValue() uint64 {
	return hashUint64(uint64(d))
}
func (d Duration) EqualValue(o Value) bool {
	od, ok := o.(Duration)
	return ok && d == od
}
func (d Duration) CompareValue(o Value) (int, bool) {
	od, ok := o.(Duration)
	if !ok {
		return 0, false
	}
	switch {
	case d < od:
		return -1, true
	case d > od:
		return 1, true
	default:
		return 0, true
	}
}

// Glob is a compiled glob pattern value. No glob-matching library appears
// anywhere in the retrieval pack, so the compiled form is a translation of
// the pattern into a standard library *regexp.Regexp (see DESIGN.md).
type Glob struct {
	Source   string
	compiled *regexp.Regexp
}

// NewGlob compiles pattern into a Glob value. `*` matches any run of
// characters except '/', `?` matches exactly one such character, and `**`
// matches any run of characters including '/'.
func NewGlob(pattern string) (Glob, error) {
	re, err := regexp.Compile(globToRegex(pattern))
	if err != nil {
		return Glob{}, NewError(InvalidArgument, "invalid glob pattern %q: %v", pattern, err)
	}
	return Glob{Source: pattern, compiled: re}, nil
}

func globToRegex(pattern string) string {
	var b strings.Builder
	b.WriteString("^")
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		switch r := runes[i]; r {
		case '*':
			if i+1 < len(runes) && runes[i+1] == '*' {
				b.WriteString(".*")
				i++
			} else {
				b.WriteString("[^/]*")
			}
		case '?':
			b.WriteString("[^/]")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return b.String()
}

// Match reports whether s matches the compiled pattern.
func (g Glob) Match(s string) bool { return g.compiled.MatchString(s) }

func (Glob) Type() Type        { return Type{Kind: KindGlob} }
func (g Glob) Display() string { return QuoteString(g.Source) }
func (g Glob) HashValue() uint64 {
	return hashString(g.Source)
}
func (g Glob) EqualValue(o Value) bool {
	og, ok := o.(Glob)
	return ok && g.Source == og.Source
}

// Regex is a source + compiled regular expression value.
type Regex struct {
	Source   string
	compiled *regexp.Regexp
}

// NewRegex compiles pattern into a Regex value.
func NewRegex(pattern string) (Regex, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Regex{}, NewError(InvalidArgument, "invalid regular expression %q: %v", pattern, err)
	}
	return Regex{Source: pattern, compiled: re}, nil
}

// Compiled returns the compiled *regexp.Regexp; callers must not mutate it.
func (r Regex) Compiled() *regexp.Regexp { return r.compiled }

func (Regex) Type() Type        { return Type{Kind: KindRegex} }
func (r Regex) Display() string { return QuoteString(r.Source) }
func (r Regex) HashValue() uint64 {
	return hashString(r.Source)
}
func (r Regex) EqualValue(o Value) bool {
	or, ok := o.(Regex)
	return ok && r.Source == or.Source
}

// TypeValue wraps a Type descriptor as a first-class value.
type TypeValue struct {
	T Type
}

func (TypeValue) Type() Type        { return Type{Kind: KindType} }
func (t TypeValue) Display() string { return t.T.String() }
func (t TypeValue) HashValue() uint64 {
	return hashString(t.T.String())
}
func (t TypeValue) EqualValue(o Value) bool {
	ot, ok := o.(TypeValue)
	return ok && t.T.Equal(ot.T)
}

// Empty is the sentinel no-value value.
type EmptyValue struct{}

func (EmptyValue) Type() Type        { return Type{Kind: KindEmpty} }
func (EmptyValue) Display() string   { return "" }
func (EmptyValue) HashValue() uint64 { return 0 }
func (EmptyValue) EqualValue(o Value) bool {
	_, ok := o.(EmptyValue)
	return ok
}

var theEmpty = EmptyValue{}

// EmptyV is the single Empty value instance.
func EmptyV() Value { return theEmpty }
