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

package hashops

import (
	"bytes"
	stdsha256 "crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/sphinx-core/lamport/src/crypto/bitblock"
)

func TestDigestKnownVector(t *testing.T) {
	got := Digest([]byte("abc"))
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if hex.EncodeToString(got[:]) != want {
		t.Fatalf("Digest(abc) = %x", got)
	}
}

func TestIndexedDigest(t *testing.T) {
	data := []byte("root secret")
	got := IndexedDigest(data, 0x01020304)
	want := stdsha256.Sum256(append(append([]byte(nil), data...), 1, 2, 3, 4))
	if got != want {
		t.Fatalf("IndexedDigest = %x, want %x", got, want)
	}
	if IndexedDigest(data, 1) == IndexedDigest(data, 2) {
		t.Fatal("distinct indices collide")
	}
	if IndexedDigest(data, 7) != IndexedDigest(data, 7) {
		t.Fatal("not deterministic")
	}
}

func TestDigestBlockwise(t *testing.T) {
	buf := make([]byte, 3*Size)
	for i := range buf {
		buf[i] = byte(i)
	}
	out, err := DigestBlockwise(buf, Size)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != len(buf) {
		t.Fatalf("len = %d", len(out))
	}
	for i := 0; i < 3; i++ {
		want := Digest(buf[i*Size : (i+1)*Size])
		if !bytes.Equal(out[i*Size:(i+1)*Size], want[:]) {
			t.Errorf("block %d mismatch", i)
		}
	}

	if _, err := DigestBlockwise(buf[:Size+1], Size); !errors.Is(err, bitblock.ErrBlockSizeMismatch) {
		t.Errorf("ragged buffer: err = %v", err)
	}
}

func BenchmarkIndexedDigest(b *testing.B) {
	data := make([]byte, Size)
	for i := 0; i < b.N; i++ {
		IndexedDigest(data, uint32(i))
	}
}
