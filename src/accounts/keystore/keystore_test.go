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

package keystore

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sphinx-core/lamport/src/crypto/lamport"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

func testPair(t *testing.T, seed string) (*lamport.KeyPair, *lamport.KeyPair) {
	t.Helper()
	r, err := lamport.NewDeterministicReader([]byte(seed))
	if err != nil {
		t.Fatal(err)
	}
	secret, public, err := lamport.GenerateKeyPair(r)
	if err != nil {
		t.Fatal(err)
	}
	return secret, public
}

func memStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStorage(storage.NewMemStorage(), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestKeyPairFiles(t *testing.T) {
	dir := t.TempDir()
	secret, public := testPair(t, "files")

	skPath := filepath.Join(dir, "keys", "secret.key")
	pkPath := filepath.Join(dir, "keys", "public.key")
	if err := SaveKeyPair(skPath, secret); err != nil {
		t.Fatal(err)
	}
	if err := SaveKeyPair(pkPath, public); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(skPath)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != lamport.KeyPairSize {
		t.Fatalf("key file is %d bytes", info.Size())
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("secret key mode = %v", info.Mode().Perm())
	}

	gotSecret, err := LoadKeyPair(skPath, lamport.Secret)
	if err != nil {
		t.Fatal(err)
	}
	gotPublic, err := LoadKeyPair(pkPath, lamport.Public)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(gotSecret.Bytes(), secret.Bytes()) || !bytes.Equal(gotPublic.Bytes(), public.Bytes()) {
		t.Fatal("loaded keys differ from saved keys")
	}
}

func TestSignatureFiles(t *testing.T) {
	dir := t.TempDir()
	secret, public := testPair(t, "sig files")
	sig, _ := lamport.Sign(secret, []byte("hello"))

	path := filepath.Join(dir, "hello.sig")
	if err := SaveSignature(path, sig); err != nil {
		t.Fatal(err)
	}
	got, err := LoadSignature(path)
	if err != nil {
		t.Fatal(err)
	}
	if ok, _ := lamport.Verify(public, []byte("hello"), got); !ok {
		t.Fatal("loaded signature does not verify")
	}
}

func TestTruncatedFilesFail(t *testing.T) {
	dir := t.TempDir()
	short := filepath.Join(dir, "short")
	if err := os.WriteFile(short, make([]byte, 100), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadKeyPair(short, lamport.Public); !errors.Is(err, lamport.ErrInvalidKeyFormat) {
		t.Errorf("key: err = %v", err)
	}
	if _, err := LoadSignature(short); !errors.Is(err, lamport.ErrInvalidSignatureFormat) {
		t.Errorf("signature: err = %v", err)
	}
	if _, err := LoadSignature(filepath.Join(dir, "missing")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing: err = %v", err)
	}
}

func TestKeyID(t *testing.T) {
	s := memStore(t)
	_, public := testPair(t, "id")
	id := s.KeyID(public)
	if id != s.KeyID(public) {
		t.Fatal("key id not stable")
	}
	parsed, err := ParseKeyID(id.String())
	if err != nil {
		t.Fatal(err)
	}
	if parsed != id {
		t.Fatal("base58 round trip changed the id")
	}
	if _, err := ParseKeyID("abc"); !errors.Is(err, ErrInvalidKeyID) {
		t.Fatalf("err = %v", err)
	}
}

func TestStoreKeys(t *testing.T) {
	s := memStore(t)
	secret, public := testPair(t, "store")

	id, err := s.PutKeyPair(secret, public)
	if err != nil {
		t.Fatal(err)
	}
	gotPublic, err := s.PublicKey(id)
	if err != nil {
		t.Fatal(err)
	}
	gotSecret, err := s.SecretKey(id)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(gotPublic.Bytes(), public.Bytes()) || !bytes.Equal(gotSecret.Bytes(), secret.Bytes()) {
		t.Fatal("stored keys differ")
	}

	_, otherPublic := testPair(t, "public only")
	otherID, err := s.PutKeyPair(nil, otherPublic)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.SecretKey(otherID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("secret of public-only key: err = %v", err)
	}

	ids, err := s.Keys()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 {
		t.Fatalf("%d keys listed", len(ids))
	}

	if _, err := s.PutKeyPair(public, public); !errors.Is(err, lamport.ErrWrongRole) {
		t.Fatalf("public as secret: err = %v", err)
	}
}

func TestStoreSignatures(t *testing.T) {
	s := memStore(t)
	secret, public := testPair(t, "observations")
	id, err := s.PutKeyPair(secret, public)
	if err != nil {
		t.Fatal(err)
	}

	messages := []string{"attack at dawn", "attack at dusk", "attack at dawn"}
	for _, m := range messages {
		sig, _ := lamport.Sign(secret, []byte(m))
		if err := s.PutSignature(id, []byte(m), sig); err != nil {
			t.Fatal(err)
		}
	}
	obs, err := s.Signatures(id)
	if err != nil {
		t.Fatal(err)
	}
	if len(obs) != 2 {
		t.Fatalf("%d observations, want 2 distinct messages", len(obs))
	}
	for _, o := range obs {
		if ok, _ := lamport.Verify(public, o.Message, o.Signature); !ok {
			t.Errorf("observation %q does not verify", o.Message)
		}
	}

	if err := s.Delete(id); err != nil {
		t.Fatal(err)
	}
	if _, err := s.PublicKey(id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("after delete: err = %v", err)
	}
	if obs, _ := s.Signatures(id); len(obs) != 0 {
		t.Fatalf("%d observations survive delete", len(obs))
	}
}

func TestStoreReopenKeepsIDs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	_, public := testPair(t, "reopen")

	s, err := Open(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	id, err := s.PutKeyPair(nil, public)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = Open(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if s.KeyID(public) != id {
		t.Fatal("key id changed across reopen")
	}
	if _, err := s.PublicKey(id); err != nil {
		t.Fatal(err)
	}
}
