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

// go/src/crypto/bitblock/bitblock.go
//
// Package bitblock holds the bitwise primitives the Lamport code is built
// on. Every function works on plain byte slices and never mutates its
// inputs unless it is explicitly handed an output buffer.
//
// Bits are numbered most-significant first: bit 0 is the high bit of byte 0,
// bit 7 its low bit, bit 8 the high bit of byte 1 and so on.
package bitblock

import (
	"errors"
	"fmt"
	"math/bits"
)

var (
	ErrSizeMismatch      = errors.New("bitblock: buffers differ in length")
	ErrBlockSizeMismatch = errors.New("bitblock: buffer is not a whole number of blocks")
	ErrOutOfRange        = errors.New("bitblock: index out of range")
)

// Xor returns a ^ b.
func Xor(a, b []byte) ([]byte, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("xor %d/%d bytes: %w", len(a), len(b), ErrSizeMismatch)
	}
	res := make([]byte, len(a))
	for i := range a {
		res[i] = a[i] ^ b[i]
	}
	return res, nil
}

// And returns a & b.
func And(a, b []byte) ([]byte, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("and %d/%d bytes: %w", len(a), len(b), ErrSizeMismatch)
	}
	res := make([]byte, len(a))
	for i := range a {
		res[i] = a[i] & b[i]
	}
	return res, nil
}

// Or returns a | b.
func Or(a, b []byte) ([]byte, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("or %d/%d bytes: %w", len(a), len(b), ErrSizeMismatch)
	}
	res := make([]byte, len(a))
	for i := range a {
		res[i] = a[i] | b[i]
	}
	return res, nil
}

// Not returns the bitwise complement of a.
func Not(a []byte) []byte {
	res := make([]byte, len(a))
	for i := range a {
		res[i] = ^a[i]
	}
	return res
}

// Bit reports whether bit index of buf is set.
func Bit(buf []byte, index int) (bool, error) {
	if index < 0 || index >= 8*len(buf) {
		return false, fmt.Errorf("bit %d of %d-byte buffer: %w", index, len(buf), ErrOutOfRange)
	}
	return bit(buf, index), nil
}

// bit is Bit without the bounds check, for hot loops that already know
// index is valid.
func bit(buf []byte, index int) bool {
	return buf[index>>3]>>(7-uint(index&7))&1 == 1
}

// MustBit is Bit for callers that have already sized buf; it panics on an
// out of range index.
func MustBit(buf []byte, index int) bool {
	b, err := Bit(buf, index)
	if err != nil {
		panic(err)
	}
	return b
}

// Block returns a copy of the blockIndex-th blockSize-byte block of buf.
func Block(buf []byte, blockIndex, blockSize int) ([]byte, error) {
	if err := checkBlocks(buf, blockIndex, blockSize); err != nil {
		return nil, err
	}
	out := make([]byte, blockSize)
	copy(out, buf[blockIndex*blockSize:])
	return out, nil
}

// SetBlock overwrites the blockIndex-th block of buf with data. The block
// size is len(data).
func SetBlock(buf []byte, blockIndex int, data []byte) error {
	if err := checkBlocks(buf, blockIndex, len(data)); err != nil {
		return err
	}
	copy(buf[blockIndex*len(data):], data)
	return nil
}

// SetBlockSized is SetBlock with an explicit block size, failing when data
// is not exactly blockSize bytes long.
func SetBlockSized(buf []byte, blockIndex, blockSize int, data []byte) error {
	if len(data) != blockSize {
		return fmt.Errorf("block of %d bytes, want %d: %w", len(data), blockSize, ErrBlockSizeMismatch)
	}
	return SetBlock(buf, blockIndex, data)
}

func checkBlocks(buf []byte, blockIndex, blockSize int) error {
	if blockSize <= 0 || len(buf)%blockSize != 0 {
		return fmt.Errorf("%d-byte buffer, %d-byte blocks: %w", len(buf), blockSize, ErrBlockSizeMismatch)
	}
	if blockIndex < 0 || blockIndex >= len(buf)/blockSize {
		return fmt.Errorf("block %d of %d: %w", blockIndex, len(buf)/blockSize, ErrOutOfRange)
	}
	return nil
}

// IsZero reports whether every bit of buf is 0.
func IsZero(buf []byte) bool {
	for _, b := range buf {
		if b != 0 {
			return false
		}
	}
	return true
}

// CheckedMatch reports whether candidate agrees with prefix at every bit
// where mask is 0. Bits set in mask are wildcards.
func CheckedMatch(candidate, prefix, mask []byte) (bool, error) {
	if len(candidate) != len(prefix) || len(candidate) != len(mask) {
		return false, fmt.Errorf("match %d/%d/%d bytes: %w",
			len(candidate), len(prefix), len(mask), ErrSizeMismatch)
	}
	for i := range candidate {
		if (candidate[i]^prefix[i])&^mask[i] != 0 {
			return false, nil
		}
	}
	return true, nil
}

// CountSetBits returns the population count of buf.
func CountSetBits(buf []byte) int {
	n := 0
	for _, b := range buf {
		n += bits.OnesCount8(b)
	}
	return n
}
