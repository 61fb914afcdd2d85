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

package hashtree

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/sphinx-core/lamport/src/crypto/hashops"
)

func containers(n int) [][]byte {
	out := make([][]byte, n)
	for i := range out {
		out[i] = []byte(fmt.Sprintf("container-%d", i))
	}
	return out
}

func TestRejectsBadSizes(t *testing.T) {
	for _, n := range []int{0, 3, 5, 6, 7, 12} {
		if _, err := NewHashTree(containers(n)); !errors.Is(err, ErrInvalidDataSetSize) {
			t.Errorf("%d leaves: err = %v", n, err)
		}
	}
}

func TestShape(t *testing.T) {
	for _, tt := range []struct{ size, depth int }{{1, 0}, {2, 1}, {8, 3}, {64, 6}} {
		tree, err := NewHashTree(containers(tt.size))
		if err != nil {
			t.Fatal(err)
		}
		if tree.Size() != tt.size || tree.Depth() != tt.depth {
			t.Errorf("size %d: got size %d depth %d", tt.size, tree.Size(), tree.Depth())
		}
		if tree.Size() != 1<<tree.Depth() {
			t.Errorf("size %d is not 2^depth", tree.Size())
		}
	}
}

func TestRootHashOfFourLeaves(t *testing.T) {
	c := containers(4)
	tree, err := NewHashTree(c)
	if err != nil {
		t.Fatal(err)
	}
	h := func(parts ...[]byte) hashops.Block { return hashops.Digest(bytes.Join(parts, nil)) }
	l0, l1, l2, l3 := h(c[0]), h(c[1]), h(c[2]), h(c[3])
	n01, n23 := h(l0[:], l1[:]), h(l2[:], l3[:])
	want := h(n01[:], n23[:])
	if tree.RootHash() != want {
		t.Fatalf("root = %x, want %x", tree.RootHash(), want)
	}
}

func TestRootStableAndSensitive(t *testing.T) {
	c := containers(8)
	a, _ := NewHashTree(c)
	b, _ := Build(c, 1)
	if a.RootHash() != b.RootHash() {
		t.Fatal("root depends on worker count or is not stable")
	}
	for i := range c {
		changed := containers(8)
		changed[i] = append(changed[i], '!')
		tree, _ := NewHashTree(changed)
		if tree.RootHash() == a.RootHash() {
			t.Errorf("changing container %d left the root unchanged", i)
		}
	}
	// Order matters.
	swapped := containers(8)
	swapped[0], swapped[1] = swapped[1], swapped[0]
	tree, _ := NewHashTree(swapped)
	if tree.RootHash() == a.RootHash() {
		t.Error("swapping leaves left the root unchanged")
	}
}

func TestGet(t *testing.T) {
	c := containers(8)
	tree, _ := NewHashTree(c)
	for i := range c {
		got, err := tree.Get(i)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(got, c[i]) {
			t.Errorf("Get(%d) = %q", i, got)
		}
	}
	for _, i := range []int{-1, 8, 1 << 20} {
		if _, err := tree.Get(i); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("Get(%d): err = %v", i, err)
		}
	}
}

func TestContentsAreCopied(t *testing.T) {
	c := containers(2)
	tree, _ := NewHashTree(c)
	root := tree.RootHash()
	c[0][0] = 'X'
	got, _ := tree.Get(0)
	if got[0] == 'X' || tree.RootHash() != root {
		t.Fatal("tree aliases caller's buffers")
	}
}

// TestHashChainRecombines folds every leaf's chain by hand and checks it
// lands on the root.
func TestHashChainRecombines(t *testing.T) {
	for _, size := range []int{1, 2, 8, 32} {
		c := containers(size)
		tree, _ := NewHashTree(c)
		for i := 0; i < size; i++ {
			chain, err := tree.HashChain(i)
			if err != nil {
				t.Fatal(err)
			}
			if len(chain) != tree.Depth() {
				t.Fatalf("chain length %d, depth %d", len(chain), tree.Depth())
			}
			h := hashops.Digest(c[i])
			for level, sib := range chain {
				if (i>>level)&1 == 0 {
					h = hashops.Digest(append(h[:], sib[:]...))
				} else {
					h = hashops.Digest(append(sib[:], h[:]...))
				}
			}
			if h != tree.RootHash() {
				t.Errorf("size %d leaf %d: recombined root differs", size, i)
			}
			if RootFromChain(hashops.Digest(c[i]), i, chain) != tree.RootHash() {
				t.Errorf("size %d leaf %d: RootFromChain differs", size, i)
			}
		}
	}
}

func TestHashChainWrongLeafFails(t *testing.T) {
	tree, _ := NewHashTree(containers(8))
	chain, _ := tree.HashChain(3)
	if RootFromChain(hashops.Digest([]byte("forged")), 3, chain) == tree.RootHash() {
		t.Fatal("foreign leaf recombined to the root")
	}
	if RootFromChain(hashops.Digest(containers(8)[3]), 2, chain) == tree.RootHash() {
		t.Fatal("wrong index recombined to the root")
	}
	if _, err := tree.HashChain(8); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("HashChain(8): err = %v", err)
	}
}

func BenchmarkBuild256(b *testing.B) {
	c := containers(256)
	for i := 0; i < b.N; i++ {
		if _, err := NewHashTree(c); err != nil {
			b.Fatal(err)
		}
	}
}
