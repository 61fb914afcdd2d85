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

// go/src/core/hashtree/hashtree.go
//
// Package hashtree commits to an ordered, power-of-two sized list of opaque
// byte payloads with a binary SHA-256 tree.
//
// Leaf hash = H(content); inner hash = H(child0 || child1). Leaves keep the
// order they were given in: the scheme layer addresses one-time keys by
// index, so the tree never sorts or rebalances. The tree is immutable once
// built.
package hashtree

import (
	"errors"
	"fmt"
	"math/bits"
	"runtime"

	"github.com/sphinx-core/lamport/src/crypto/hashops"
	"golang.org/x/sync/errgroup"
)

var (
	ErrInvalidDataSetSize = errors.New("hashtree: leaf count must be a non-zero power of two")
	ErrIndexOutOfRange    = errors.New("hashtree: leaf index out of range")
)

const noChild = -1

// node is one arena slot. Leaves have no children and point at their
// content; inner nodes point at two other slots.
type node struct {
	hash  hashops.Block
	child [2]int
	leaf  int
}

// HashTree is the built commitment.
type HashTree struct {
	nodes    []node
	root     int
	depth    int
	contents [][]byte
}

// NewHashTree builds a tree hashing leaves on every available CPU.
func NewHashTree(contents [][]byte) (*HashTree, error) {
	return Build(contents, runtime.NumCPU())
}

// Build builds a tree over contents, hashing leaves with at most workers
// goroutines. The result does not depend on workers.
func Build(contents [][]byte, workers int) (*HashTree, error) {
	n := len(contents)
	if n == 0 || n&(n-1) != 0 {
		return nil, fmt.Errorf("%d leaves: %w", n, ErrInvalidDataSetSize)
	}
	if workers < 1 {
		workers = 1
	}

	t := &HashTree{
		nodes:    make([]node, 2*n-1),
		depth:    bits.TrailingZeros(uint(n)),
		contents: make([][]byte, n),
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i := range contents {
		i := i
		g.Go(func() error {
			c := append([]byte(nil), contents[i]...)
			t.contents[i] = c
			t.nodes[i] = node{hash: hashops.Digest(c), child: [2]int{noChild, noChild}, leaf: i}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Each level occupies a contiguous run of slots directly after the one
	// below it; pairing neighbours bottom-up yields the same shape as
	// halving the list top-down.
	start, width, next := 0, n, n
	for width > 1 {
		for i := 0; i < width; i += 2 {
			l, r := start+i, start+i+1
			buf := make([]byte, 0, 2*hashops.Size)
			buf = append(buf, t.nodes[l].hash[:]...)
			buf = append(buf, t.nodes[r].hash[:]...)
			t.nodes[next] = node{hash: hashops.Digest(buf), child: [2]int{l, r}, leaf: noChild}
			next++
		}
		start += width
		width /= 2
	}
	t.root = len(t.nodes) - 1
	return t, nil
}

// Size returns the number of leaves.
func (t *HashTree) Size() int { return len(t.contents) }

// Depth returns log2(Size()).
func (t *HashTree) Depth() int { return t.depth }

// RootHash returns the commitment value.
func (t *HashTree) RootHash() hashops.Block { return t.nodes[t.root].hash }

// walk descends from the root to leaf index. At the level d steps above the
// leaves, bit d of index picks child0 (0) or child1 (1). visit receives each
// inner node on the way down and the branch taken.
func (t *HashTree) walk(index int, visit func(n node, branch int)) (node, error) {
	if index < 0 || index >= len(t.contents) {
		return node{}, fmt.Errorf("leaf %d of %d: %w", index, len(t.contents), ErrIndexOutOfRange)
	}
	cur := t.nodes[t.root]
	for level := t.depth - 1; level >= 0; level-- {
		branch := (index >> level) & 1
		if visit != nil {
			visit(cur, branch)
		}
		if cur.child[branch] == noChild {
			return node{}, fmt.Errorf("leaf %d: path ends early: %w", index, ErrIndexOutOfRange)
		}
		cur = t.nodes[cur.child[branch]]
	}
	if cur.leaf == noChild {
		return node{}, fmt.Errorf("leaf %d: path ends at inner node: %w", index, ErrIndexOutOfRange)
	}
	return cur, nil
}

// Get returns a copy of the content stored at leaf index.
func (t *HashTree) Get(index int) ([]byte, error) {
	leaf, err := t.walk(index, nil)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), t.contents[leaf.leaf]...), nil
}

// LeafHash returns H(content) of leaf index.
func (t *HashTree) LeafHash(index int) (hashops.Block, error) {
	leaf, err := t.walk(index, nil)
	if err != nil {
		return hashops.Block{}, err
	}
	return leaf.hash, nil
}

// HashChain returns the sibling hashes along the path to leaf index, the one
// nearest the leaf first. Together with the leaf hash they let RootFromChain
// recompute RootHash without the rest of the tree.
func (t *HashTree) HashChain(index int) ([]hashops.Block, error) {
	chain := make([]hashops.Block, t.depth)
	pos := t.depth - 1
	_, err := t.walk(index, func(n node, branch int) {
		chain[pos] = t.nodes[n.child[1-branch]].hash
		pos--
	})
	if err != nil {
		return nil, err
	}
	return chain, nil
}

// RootFromChain folds a leaf hash up through its chain. Bit l of index says
// whether the running hash is the left (0) or right (1) child at level l.
func RootFromChain(leafHash hashops.Block, index int, chain []hashops.Block) hashops.Block {
	h := leafHash
	buf := make([]byte, 2*hashops.Size)
	for level, sibling := range chain {
		if (index>>level)&1 == 0 {
			copy(buf, h[:])
			copy(buf[hashops.Size:], sibling[:])
		} else {
			copy(buf, sibling[:])
			copy(buf[hashops.Size:], h[:])
		}
		h = hashops.Digest(buf)
	}
	return h
}
