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

import "strings"

var scalarNames = map[string]Kind{
	"any":      KindAny,
	"empty":    KindEmpty,
	"bool":     KindBool,
	"integer":  KindInt,
	"float":    KindFloat,
	"string":   KindString,
	"binary":   KindBinary,
	"file":     KindFile,
	"duration": KindDuration,
	"time":     KindTime,
	"glob":     KindGlob,
	"regex":    KindRegex,
	"type":     KindType,
	"struct":   KindStruct,
	"scope":    KindScope,
	"command":  KindCommand,
}

// ParseType parses the textual type notation crush's original Rust source
// uses (src/data/cell_type_parser.rs): bare scalar names, and
// `list<elem>` / `dict<key, value>` for parameterized compounds. It is the
// inverse of Type.String for every type that notation can name (Table
// schemas have no textual form and are not accepted here).
func ParseType(s string) (Type, error) {
	t, rest, err := parseType(strings.TrimSpace(s))
	if err != nil {
		return Type{}, err
	}
	if strings.TrimSpace(rest) != "" {
		return Type{}, NewError(InvalidArgument, "unexpected trailing input in type expression %q", s)
	}
	return t, nil
}

func parseType(s string) (Type, string, error) {
	s = strings.TrimLeft(s, " ")
	name, rest := splitIdent(s)
	if name == "" {
		return Type{}, s, NewError(InvalidArgument, "expected a type name, got %q", s)
	}
	switch name {
	case "list":
		rest = strings.TrimLeft(rest, " ")
		rest, err := expect(rest, '<')
		if err != nil {
			return Type{}, s, err
		}
		elem, rest, err := parseType(rest)
		if err != nil {
			return Type{}, s, err
		}
		rest, err = expect(strings.TrimLeft(rest, " "), '>')
		if err != nil {
			return Type{}, s, err
		}
		return ListType(elem), rest, nil
	case "dict":
		rest = strings.TrimLeft(rest, " ")
		rest, err := expect(rest, '<')
		if err != nil {
			return Type{}, s, err
		}
		key, rest, err := parseType(rest)
		if err != nil {
			return Type{}, s, err
		}
		rest, err = expect(strings.TrimLeft(rest, " "), ',')
		if err != nil {
			return Type{}, s, err
		}
		val, rest, err := parseType(rest)
		if err != nil {
			return Type{}, s, err
		}
		rest, err = expect(strings.TrimLeft(rest, " "), '>')
		if err != nil {
			return Type{}, s, err
		}
		return DictType(key, val), rest, nil
	default:
		k, ok := scalarNames[name]
		if !ok {
			return Type{}, s, NewError(InvalidArgument, "unknown type name %q", name)
		}
		return Type{Kind: k}, rest, nil
	}
}

func splitIdent(s string) (ident, rest string) {
	i := 0
	for i < len(s) && (isAlnum(s[i]) || s[i] == '_') {
		i++
	}
	return s[:i], s[i:]
}

func isAlnum(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

func expect(s string, c byte) (string, error) {
	if len(s) == 0 || s[0] != c {
		return s, NewError(InvalidArgument, "expected %q", string(c))
	}
	return s[1:], nil
}
