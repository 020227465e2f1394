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
	"math/big"

	"github.com/liljencrantz/crush-sub002/command"
	"github.com/liljencrantz/crush-sub002/value"
)

// numberType is the int-or-float union every math/random parameter binds
// against, the Go equivalent of the original source's Number signature
// type (src/lib/signature/number.rs) that lets callers pass either kind
// of numeric literal without an explicit cast.
var numberType = &command.OneOf{Types: []value.Type{value.IntType, value.FloatType}}

// asFloat widens a bound Int-or-Float argument to float64, the common
// currency every math.* transcendental function and random.* generator
// operates in.
func asFloat(v value.Value) (float64, error) {
	switch n := v.(type) {
	case value.Int:
		f, _ := new(big.Float).SetInt(n.Big()).Float64()
		return f, nil
	case value.Float:
		return float64(n), nil
	default:
		return 0, value.NewError(value.InvalidArgument, "expected a number, got %s", v.Type())
	}
}
