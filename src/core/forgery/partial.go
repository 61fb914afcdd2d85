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

// go/src/core/forgery/partial.go
package forgery

import (
	"fmt"

	"github.com/sphinx-core/lamport/src/crypto/bitblock"
	"github.com/sphinx-core/lamport/src/crypto/hashops"
	"github.com/sphinx-core/lamport/src/crypto/lamport"
)

// PartialKey is a secret key rebuilt from observed signatures. Only the
// blocks some signature revealed are filled in.
type PartialKey struct {
	key   *lamport.KeyPair
	known [2][lamport.Blocks]bool
}

// ReconstructPartialKey places block j of signature i into key1 if bit j of
// digests[i] is set and into key0 otherwise. Later observations overwrite
// earlier ones; under honest signing they carry the same value.
func ReconstructPartialKey(digests []hashops.Block, sigs []*lamport.Signature) (*PartialKey, error) {
	if len(digests) != len(sigs) {
		return nil, fmt.Errorf("%d digests, %d signatures: %w", len(digests), len(sigs), ErrMismatchedObservations)
	}
	empty := make([]byte, lamport.HalfKeySize)
	key, err := lamport.NewKeyPair(lamport.Secret, empty, empty)
	if err != nil {
		return nil, err
	}
	p := &PartialKey{key: key}
	for i, digest := range digests {
		for j := 0; j < lamport.Blocks; j++ {
			h := lamport.Zero
			if bitblock.MustBit(digest[:], j) {
				h = lamport.One
			}
			b, err := sigs[i].Block(j)
			if err != nil {
				return nil, err
			}
			if err := p.key.SetBlock(h, j, b); err != nil {
				return nil, err
			}
			p.known[h][j] = true
		}
	}
	return p, nil
}

// Known reports whether block i of half h was revealed.
func (p *PartialKey) Known(h lamport.Half, i int) bool {
	if h > lamport.One || i < 0 || i >= lamport.Blocks {
		return false
	}
	return p.known[h][i]
}

// KnownBlocks counts revealed blocks over both halves.
func (p *PartialKey) KnownBlocks() int {
	n := 0
	for h := range p.known {
		for _, k := range p.known[h] {
			if k {
				n++
			}
		}
	}
	return n
}

// SignDigest signs digest if every block it selects is known.
func (p *PartialKey) SignDigest(digest hashops.Block) (*lamport.Signature, error) {
	for i := 0; i < lamport.Blocks; i++ {
		h := lamport.Zero
		if bitblock.MustBit(digest[:], i) {
			h = lamport.One
		}
		if !p.known[h][i] {
			return nil, fmt.Errorf("bit %d needs key%d block: %w", i, h, ErrUnknownBlock)
		}
	}
	return lamport.SignDigest(p.key, digest), nil
}
