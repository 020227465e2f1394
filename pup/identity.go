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

package pup

import (
	"golang.org/x/crypto/blake2b"
)

// blobHash content-addresses a binary blob so that two Binary values
// sharing identical bytes collapse to the same element, the same way
// List/Dict/Struct/Table/Scope collapse by backing-store identity: a value
// encountered twice, whether by identity or by content, is written once.
// blake2b is cheap enough to hash every blob unconditionally.
func blobHash(b []byte) [32]byte {
	h, _ := blake2b.New256(nil)
	h.Write(b)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
