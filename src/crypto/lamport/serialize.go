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

// go/src/crypto/lamport/serialize.go
package lamport

import (
	"fmt"
	"io"

	"github.com/sphinx-core/lamport/src/crypto/hashops"
	"golang.org/x/crypto/chacha20"
)

// Bytes serializes the key pair as key0 || key1.
func (kp *KeyPair) Bytes() []byte {
	out := make([]byte, 0, KeyPairSize)
	out = append(out, kp.key0[:]...)
	return append(out, kp.key1[:]...)
}

// ParseKeyPair splits a serialized key pair at its midpoint. The input must
// be exactly KeyPairSize bytes; nothing is padded or truncated.
func ParseKeyPair(role Role, data []byte) (*KeyPair, error) {
	if len(data) != KeyPairSize {
		return nil, fmt.Errorf("got %d bytes: %w", len(data), ErrInvalidKeyFormat)
	}
	return NewKeyPair(role, data[:HalfKeySize], data[HalfKeySize:])
}

// Bytes serializes the signature.
func (s *Signature) Bytes() []byte {
	out := make([]byte, SignatureSize)
	copy(out, s[:])
	return out
}

// ParseSignature reads a serialized signature of exactly SignatureSize
// bytes.
func ParseSignature(data []byte) (*Signature, error) {
	if len(data) != SignatureSize {
		return nil, fmt.Errorf("got %d bytes: %w", len(data), ErrInvalidSignatureFormat)
	}
	sig := new(Signature)
	copy(sig[:], data)
	return sig, nil
}

type keystream struct {
	cipher *chacha20.Cipher
}

func (k *keystream) Read(b []byte) (int, error) {
	for i := range b {
		b[i] = 0
	}
	k.cipher.XORKeyStream(b, b)
	return len(b), nil
}

// NewDeterministicReader returns an endless ChaCha20 keystream keyed by the
// digest of seed. Keys generated from it are reproducible, so it is only fit
// for tests, fixtures and demos.
func NewDeterministicReader(seed []byte) (io.Reader, error) {
	key := hashops.Digest(seed)
	c, err := chacha20.NewUnauthenticatedCipher(key[:], make([]byte, chacha20.NonceSize))
	if err != nil {
		return nil, fmt.Errorf("failed to key chacha20: %w", err)
	}
	return &keystream{cipher: c}, nil
}
