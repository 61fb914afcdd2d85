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

// go/src/crypto/derive/derive.go
//
// Package derive expands one 32-byte secret into many Lamport secret keys.
//
// Key index k is built from two sub-secrets, H(root || k) for key0 and
// H(root || k+MaxKeys) for key1; block i of each half is H(sub || i). The
// offset keeps the two halves apart as long as k < MaxKeys.
package derive

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/sphinx-core/lamport/src/crypto/hashops"
	"github.com/sphinx-core/lamport/src/crypto/lamport"
)

// MaxKeys bounds the key index space: key1 sub-secrets start at this offset.
const MaxKeys = lamport.HalfKeySize / lamport.BlockSize

// RootSize is the length of the root secret.
const RootSize = hashops.Size

var (
	ErrIndexOverlap   = errors.New("derive: key index would overlap key1 derivation range")
	ErrInvalidRootLen = errors.New("derive: root secret must be 32 bytes")
)

// Root is the single secret every derived key comes from.
type Root struct {
	key [RootSize]byte
}

// NewRoot samples a root from crypto/rand.
func NewRoot() (*Root, error) {
	return NewRootFrom(rand.Reader)
}

// NewRootFrom samples a root from r.
func NewRootFrom(r io.Reader) (*Root, error) {
	root := new(Root)
	if _, err := io.ReadFull(r, root.key[:]); err != nil {
		return nil, fmt.Errorf("failed to read root secret: %w", err)
	}
	return root, nil
}

// RootFromBytes restores a root saved with Bytes.
func RootFromBytes(b []byte) (*Root, error) {
	if len(b) != RootSize {
		return nil, fmt.Errorf("got %d bytes: %w", len(b), ErrInvalidRootLen)
	}
	root := new(Root)
	copy(root.key[:], b)
	return root, nil
}

// Bytes returns a copy of the root secret.
func (r *Root) Bytes() []byte {
	return append([]byte(nil), r.key[:]...)
}

// SecretKey derives the secret key with the given index. The same (root,
// index) always yields the same key.
func (r *Root) SecretKey(index int) (*lamport.KeyPair, error) {
	if index < 0 || index >= MaxKeys {
		return nil, fmt.Errorf("index %d, limit %d: %w", index, MaxKeys, ErrIndexOverlap)
	}
	sub0 := hashops.IndexedDigest(r.key[:], uint32(index))
	sub1 := hashops.IndexedDigest(r.key[:], uint32(index+MaxKeys))

	key0 := make([]byte, lamport.HalfKeySize)
	key1 := make([]byte, lamport.HalfKeySize)
	for i := 0; i < lamport.Blocks; i++ {
		b0 := hashops.IndexedDigest(sub0[:], uint32(i))
		b1 := hashops.IndexedDigest(sub1[:], uint32(i))
		copy(key0[i*lamport.BlockSize:], b0[:])
		copy(key1[i*lamport.BlockSize:], b1[:])
	}
	return lamport.NewKeyPair(lamport.Secret, key0, key1)
}

// PublicKey derives the public key with the given index.
func (r *Root) PublicKey(index int) (*lamport.KeyPair, error) {
	sk, err := r.SecretKey(index)
	if err != nil {
		return nil, err
	}
	return sk.Public()
}
