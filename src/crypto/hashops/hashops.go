// MIT License
//
// Copyright (c) 2024 sphinx-core
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// go/src/crypto/hashops/hashops.go
package hashops

import (
	"encoding/binary"
	"fmt"

	"github.com/minio/sha256-simd"
	"github.com/sphinx-core/lamport/src/crypto/bitblock"
)

// Size is the digest length in bytes. Lamport blocks are exactly one digest
// long.
const Size = sha256.Size

// Block is one digest-sized unit of key material.
type Block [Size]byte

// Bytes returns the block as a slice backed by a fresh array.
func (b Block) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, b[:])
	return out
}

// Digest returns the SHA-256 digest of data.
func Digest(data []byte) Block {
	return sha256.Sum256(data)
}

// IndexedDigest returns Digest(data || big-endian uint32 index). It fans a
// single secret out into many unrelated-looking values.
func IndexedDigest(data []byte, index uint32) Block {
	h := sha256.New()
	h.Write(data)
	var idx [4]byte
	binary.BigEndian.PutUint32(idx[:], index)
	h.Write(idx[:])

	var out Block
	h.Sum(out[:0])
	return out
}

// DigestBlockwise replaces every blockSize-byte block of buf with its
// digest and returns the result; buf itself is untouched. blockSize must
// equal Size so the output keeps the input's length.
func DigestBlockwise(buf []byte, blockSize int) ([]byte, error) {
	if blockSize != Size || len(buf)%blockSize != 0 {
		return nil, fmt.Errorf("digest %d bytes in %d-byte blocks: %w",
			len(buf), blockSize, bitblock.ErrBlockSizeMismatch)
	}
	out := make([]byte, len(buf))
	for off := 0; off < len(buf); off += blockSize {
		d := sha256.Sum256(buf[off : off+blockSize])
		copy(out[off:], d[:])
	}
	return out, nil
}
