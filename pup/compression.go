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
	"fmt"
	"runtime"
	"unsafe"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
)

// compressor is what Marshal needs from a whole-artifact compression
// algorithm: the name stamped into the wire header, and an append-style
// Compress.
type compressor interface {
	name() string
	compress(src, dst []byte) []byte
}

// decompressor undoes a compressor's work. dst arrives pre-sized to the
// uncompressed length Marshal recorded in the header.
type decompressor interface {
	name() string
	decompress(src, dst []byte) error
}

type zstdCompressor struct {
	enc *zstd.Encoder
}

func (z zstdCompressor) compress(src, dst []byte) []byte { return z.enc.EncodeAll(src, dst) }
func (zstdCompressor) name() string                       { return "zstd" }

// zstdDecoder and zstdFastDecoder are shared across every Unmarshal call:
// constructing a zstd.Decoder is expensive enough that it isn't worth
// paying per artifact, and (*zstd.Decoder).DecodeAll is safe for
// concurrent use.
var (
	zstdDecoder     *zstd.Decoder
	zstdFastDecoder *zstd.Decoder
)

func init() {
	// the zstd default of min(4, GOMAXPROCS) concurrency undershoots on
	// wide machines; pup artifacts are decoded whole, so use every core.
	z, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(runtime.GOMAXPROCS(0)))
	if err != nil {
		panic(err)
	}
	zstdDecoder = z
	z, err = zstd.NewReader(nil, zstd.WithDecoderConcurrency(runtime.GOMAXPROCS(0)),
		zstd.IgnoreChecksum(true))
	if err != nil {
		panic(err)
	}
	zstdFastDecoder = z
}

type zstdDecompressor zstd.Decoder

func (*zstdDecompressor) name() string { return "zstd" }

func (z *zstdDecompressor) decompress(src, dst []byte) error {
	into := dst[:0:len(dst)]
	ret, err := (*zstd.Decoder)(z).DecodeAll(src, into)
	if err != nil {
		return err
	}
	if len(ret) != len(dst) {
		return fmt.Errorf("pup: expected %d decompressed bytes, got %d", len(dst), len(ret))
	}
	if &ret[0] != &dst[0] {
		return fmt.Errorf("pup: zstd decompress reallocated the output buffer")
	}
	return nil
}

type s2Compressor struct{}

func (s2Compressor) compress(src, dst []byte) []byte {
	tail := dst[len(dst):cap(dst)]
	// s2 requires non-overlapping src and dst
	if overlaps(src, tail) {
		tail = nil
	}
	got := s2.Encode(tail, src)
	if len(dst) == 0 {
		return got
	}
	if len(tail) > 0 && len(got) > 0 && &tail[0] == &got[0] {
		return dst[:len(dst)+len(got)]
	}
	return append(dst, got...)
}

func (s2Compressor) decompress(src, dst []byte) error {
	into := dst[:0:len(dst)]
	ret, err := s2.Decode(into, src)
	if err != nil {
		return err
	}
	if len(ret) != len(dst) {
		return fmt.Errorf("pup: expected %d decompressed bytes, got %d", len(dst), len(ret))
	}
	if &ret[0] != &dst[0] {
		return fmt.Errorf("pup: s2 decompress reallocated the output buffer")
	}
	return nil
}

func (s2Compressor) name() string { return "s2" }

// compressionByName resolves the algorithm name a Marshal caller passes
// ("s2", "zstd", "zstd-better") to the compressor that implements it, or
// nil if the name isn't recognized. The name is also what gets stamped
// into the artifact's wire header for Unmarshal to read back.
func compressionByName(name string) compressor {
	switch name {
	case "zstd-better":
		z, _ := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
			zstd.WithEncoderConcurrency(1))
		return zstdCompressor{z}
	case "zstd":
		z, _ := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
		return zstdCompressor{z}
	case "s2":
		return s2Compressor{}
	default:
		return nil
	}
}

// decompressionByName resolves the algorithm name read out of an
// artifact's wire header to the decompressor that undoes it.
// "zstd-nocrc" shares the wire format with "zstd" but skips checksum
// verification on the way in, for artifacts whose integrity is already
// checked by a surrounding layer.
func decompressionByName(name string) decompressor {
	switch name {
	case "zstd":
		return (*zstdDecompressor)(zstdDecoder)
	case "zstd-nocrc":
		return (*zstdDecompressor)(zstdFastDecoder)
	case "s2":
		return s2Compressor{}
	default:
		return nil
	}
}

func overlaps(a, b []byte) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	a0 := uintptr(unsafe.Pointer(&a[0]))
	a1 := a0 + uintptr(len(a))
	b0 := uintptr(unsafe.Pointer(&b[0]))
	b1 := b0 + uintptr(len(b))
	return a0 < b1 && b0 < a1
}
