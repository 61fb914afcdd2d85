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

// go/src/crypto/lamport/types.go
package lamport

import (
	"errors"

	"github.com/sphinx-core/lamport/src/crypto/hashops"
)

const (
	// BlockSize is the size of one key block, equal to the digest output.
	BlockSize = hashops.Size
	// Blocks is the number of blocks in a half key: one per digest bit.
	Blocks = 8 * BlockSize
	// HalfKeySize is the byte length of key0 or key1.
	HalfKeySize = Blocks * BlockSize
	// KeyPairSize is the serialized length of a key pair (key0 || key1).
	KeyPairSize = 2 * HalfKeySize
	// SignatureSize is the serialized length of a signature.
	SignatureSize = HalfKeySize
)

// Role says which operations a KeyPair is good for. Secret pairs sign,
// public pairs verify; the data layout is identical.
type Role uint8

const (
	Secret Role = iota
	Public
)

func (r Role) String() string {
	switch r {
	case Secret:
		return "secret"
	case Public:
		return "public"
	default:
		return "unknown"
	}
}

// Half selects key0 (revealed for 0 bits) or key1 (revealed for 1 bits).
type Half uint8

const (
	Zero Half = 0
	One  Half = 1
)

// KeyPair is one Lamport key: two half keys of Blocks blocks each. For a
// public pair every block is the digest of the matching secret block.
type KeyPair struct {
	role Role
	key0 [HalfKeySize]byte
	key1 [HalfKeySize]byte
}

// Signature is the Blocks revealed secret blocks, one per digest bit, in bit
// order.
type Signature [SignatureSize]byte

var (
	ErrInvalidKeyFormat       = errors.New("lamport: key pair must be 16384 bytes")
	ErrInvalidSignatureFormat = errors.New("lamport: signature must be 8192 bytes")
	ErrWrongRole              = errors.New("lamport: operation not valid for this key role")
	ErrInvalidHalf            = errors.New("lamport: half must be 0 or 1")
	ErrBlockIndex             = errors.New("lamport: block index out of range")
)
