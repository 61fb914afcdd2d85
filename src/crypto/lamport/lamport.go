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

// go/src/crypto/lamport/lamport.go
//
// Package lamport implements the Lamport one-time signature scheme over
// SHA-256.
//
// A secret key must sign at most one message. Every signature reveals, for
// each digest bit, one of the two secret blocks at that position; a second
// signature under the same key reveals the other block wherever the two
// digests differ, which is enough to forge signatures (see core/forgery).
package lamport

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/sphinx-core/lamport/src/crypto/bitblock"
	"github.com/sphinx-core/lamport/src/crypto/hashops"
)

// GenerateKey is GenerateKeyPair reading from crypto/rand.
func GenerateKey() (secret, public *KeyPair, err error) {
	return GenerateKeyPair(rand.Reader)
}

// GenerateKeyPair fills a secret key with 2*Blocks random blocks read from
// r and derives the matching public key.
func GenerateKeyPair(r io.Reader) (secret, public *KeyPair, err error) {
	secret = &KeyPair{role: Secret}
	if _, err = io.ReadFull(r, secret.key0[:]); err != nil {
		return nil, nil, fmt.Errorf("failed to read secret key0: %w", err)
	}
	if _, err = io.ReadFull(r, secret.key1[:]); err != nil {
		return nil, nil, fmt.Errorf("failed to read secret key1: %w", err)
	}
	public, err = secret.Public()
	if err != nil {
		return nil, nil, err
	}
	return secret, public, nil
}

// NewKeyPair builds a key pair from two half keys. Both halves are copied.
func NewKeyPair(role Role, key0, key1 []byte) (*KeyPair, error) {
	if len(key0) != HalfKeySize || len(key1) != HalfKeySize {
		return nil, fmt.Errorf("half keys of %d and %d bytes: %w", len(key0), len(key1), ErrInvalidKeyFormat)
	}
	kp := &KeyPair{role: role}
	copy(kp.key0[:], key0)
	copy(kp.key1[:], key1)
	return kp, nil
}

// Role reports whether kp is a secret or public key.
func (kp *KeyPair) Role() Role { return kp.role }

// Public derives the public key of a secret key by digesting every block.
func (kp *KeyPair) Public() (*KeyPair, error) {
	if kp.role != Secret {
		return nil, fmt.Errorf("derive public key from %s key: %w", kp.role, ErrWrongRole)
	}
	pub0, err := hashops.DigestBlockwise(kp.key0[:], BlockSize)
	if err != nil {
		return nil, err
	}
	pub1, err := hashops.DigestBlockwise(kp.key1[:], BlockSize)
	if err != nil {
		return nil, err
	}
	return NewKeyPair(Public, pub0, pub1)
}

func (kp *KeyPair) half(h Half) (*[HalfKeySize]byte, error) {
	switch h {
	case Zero:
		return &kp.key0, nil
	case One:
		return &kp.key1, nil
	default:
		return nil, ErrInvalidHalf
	}
}

// Block returns block i of half h.
func (kp *KeyPair) Block(h Half, i int) (hashops.Block, error) {
	var b hashops.Block
	key, err := kp.half(h)
	if err != nil {
		return b, err
	}
	if i < 0 || i >= Blocks {
		return b, fmt.Errorf("block %d: %w", i, ErrBlockIndex)
	}
	copy(b[:], key[i*BlockSize:])
	return b, nil
}

// SetBlock replaces block i of half h.
func (kp *KeyPair) SetBlock(h Half, i int, b hashops.Block) error {
	key, err := kp.half(h)
	if err != nil {
		return err
	}
	if i < 0 || i >= Blocks {
		return fmt.Errorf("block %d: %w", i, ErrBlockIndex)
	}
	return bitblock.SetBlock(key[:], i, b[:])
}

// Sign signs message with a secret key: block i of the signature is block i
// of key1 if bit i of the message digest is set, else block i of key0.
//
// Sign does not remember what it signed. Calling it twice on one key with
// different messages leaks key material.
func Sign(secret *KeyPair, message []byte) (*Signature, error) {
	if secret.role != Secret {
		return nil, fmt.Errorf("sign with %s key: %w", secret.role, ErrWrongRole)
	}
	return SignDigest(secret, hashops.Digest(message)), nil
}

// SignDigest signs an already computed message digest. It does not check
// the key's role.
func SignDigest(secret *KeyPair, digest hashops.Block) *Signature {
	sig := new(Signature)
	for i := 0; i < Blocks; i++ {
		src := secret.key0[:]
		if bitblock.MustBit(digest[:], i) {
			src = secret.key1[:]
		}
		copy(sig[i*BlockSize:(i+1)*BlockSize], src[i*BlockSize:(i+1)*BlockSize])
	}
	return sig
}

// Verify reports whether sig is a valid signature of message under the
// public key. A false result is an ordinary rejection, not an error; the
// error is only set when public is not a public key.
func Verify(public *KeyPair, message []byte, sig *Signature) (bool, error) {
	if public.role != Public {
		return false, fmt.Errorf("verify with %s key: %w", public.role, ErrWrongRole)
	}
	digest := hashops.Digest(message)
	hashed, err := hashops.DigestBlockwise(sig[:], BlockSize)
	if err != nil {
		return false, err
	}
	for i := 0; i < Blocks; i++ {
		want := public.key0[i*BlockSize : (i+1)*BlockSize]
		if bitblock.MustBit(digest[:], i) {
			want = public.key1[i*BlockSize : (i+1)*BlockSize]
		}
		got := hashed[i*BlockSize : (i+1)*BlockSize]
		for j := range got {
			if got[j] != want[j] {
				return false, nil
			}
		}
	}
	return true, nil
}

// Block returns block i of the signature.
func (s *Signature) Block(i int) (hashops.Block, error) {
	var b hashops.Block
	if i < 0 || i >= Blocks {
		return b, fmt.Errorf("signature block %d: %w", i, ErrBlockIndex)
	}
	copy(b[:], s[i*BlockSize:])
	return b, nil
}
