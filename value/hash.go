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
	"encoding/binary"

	"github.com/dchest/siphash"
)

// k0, k1 key the siphash used throughout this package for string/binary
// content hashing, mirroring a fixed-key siphash approach used for
// its redaction hashes (expr/redact.go).
const (
	k0, k1 uint64 = 0, 1
)

func hashBytes(b []byte) uint64 {
	return siphash.Hash(k0, k1, b)
}

func hashUint64(u uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], u)
	return hashBytes(buf[:])
}

func hashString(s string) uint64 {
	return hashBytes([]byte(s))
}
