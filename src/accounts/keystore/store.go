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

// go/src/accounts/keystore/store.go
//
// Package keystore persists Lamport keys and the signatures made with them.
// Files hold the raw byte layouts; the LevelDB Store indexes keys by KeyID
// and keeps every observed (message, signature) pair per key.
package keystore

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"
	"sync"

	"github.com/btcsuite/btcutil/base58"
	"github.com/minio/highwayhash"
	"github.com/sphinx-core/lamport/src/crypto/hashops"
	"github.com/sphinx-core/lamport/src/crypto/lamport"
	logger "github.com/sphinx-core/lamport/src/log"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
	"go.uber.org/zap"
)

var (
	ErrNotFound     = errors.New("keystore: not found")
	ErrInvalidKeyID = errors.New("keystore: malformed key id")
)

var (
	prefixPublic    = []byte("pk:")
	prefixSecret    = []byte("sk:")
	prefixSignature = []byte("sig:")
	metaHashKey     = []byte("meta:highwayhash-key")
)

// KeyID names a public key inside one store: HighwayHash-256 of the public
// key bytes under the store's own hash key.
type KeyID [highwayhash.Size]byte

// String encodes the id in base58.
func (id KeyID) String() string {
	return base58.Encode(id[:])
}

// ParseKeyID decodes a base58 id.
func ParseKeyID(s string) (KeyID, error) {
	var id KeyID
	raw := base58.Decode(s)
	if len(raw) != len(id) {
		return id, fmt.Errorf("%q: %w", s, ErrInvalidKeyID)
	}
	copy(id[:], raw)
	return id, nil
}

// Observation is one message signed under a stored key.
type Observation struct {
	Message   []byte
	Signature *lamport.Signature
}

// Store is a LevelDB-backed keystore. It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	db      *leveldb.DB
	hashKey []byte
	log     *zap.Logger
}

// Open opens or creates a store in directory path.
func Open(path string, log *zap.Logger) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open LevelDB at %s: %w", path, err)
	}
	return newStore(db, log)
}

// OpenStorage opens a store on an explicit goleveldb storage, such as
// storage.NewMemStorage().
func OpenStorage(stor storage.Storage, log *zap.Logger) (*Store, error) {
	db, err := leveldb.Open(stor, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open LevelDB: %w", err)
	}
	return newStore(db, log)
}

func newStore(db *leveldb.DB, log *zap.Logger) (*Store, error) {
	s := &Store{db: db, log: logger.OrNop(log)}
	key, err := db.Get(metaHashKey, nil)
	switch {
	case err == nil:
	case errors.Is(err, leveldb.ErrNotFound):
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to generate hash key: %w", err)
		}
		if err := db.Put(metaHashKey, key, nil); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to store hash key: %w", err)
		}
	default:
		db.Close()
		return nil, fmt.Errorf("failed to read hash key: %w", err)
	}
	if len(key) != 32 {
		db.Close()
		return nil, fmt.Errorf("stored hash key has %d bytes", len(key))
	}
	s.hashKey = key
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// KeyID computes the id public would be stored under.
func (s *Store) KeyID(public *lamport.KeyPair) KeyID {
	return KeyID(highwayhash.Sum(public.Bytes(), s.hashKey))
}

func dbKey(prefix []byte, parts ...[]byte) []byte {
	return bytes.Join(append([][]byte{prefix}, parts...), nil)
}

// PutKeyPair stores public and, when non-nil, its secret key.
func (s *Store) PutKeyPair(secret, public *lamport.KeyPair) (KeyID, error) {
	if public == nil || public.Role() != lamport.Public {
		return KeyID{}, fmt.Errorf("store public key: %w", lamport.ErrWrongRole)
	}
	if secret != nil && secret.Role() != lamport.Secret {
		return KeyID{}, fmt.Errorf("store secret key: %w", lamport.ErrWrongRole)
	}
	id := s.KeyID(public)

	batch := new(leveldb.Batch)
	batch.Put(dbKey(prefixPublic, id[:]), public.Bytes())
	if secret != nil {
		batch.Put(dbKey(prefixSecret, id[:]), secret.Bytes())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.db.Write(batch, nil); err != nil {
		return KeyID{}, fmt.Errorf("failed to save key %s: %w", id, err)
	}
	s.log.Debug("stored key", zap.Stringer("id", id), zap.Bool("secret", secret != nil))
	return id, nil
}

func (s *Store) get(key []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, err := s.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	return v, err
}

// PublicKey loads the public key stored under id.
func (s *Store) PublicKey(id KeyID) (*lamport.KeyPair, error) {
	v, err := s.get(dbKey(prefixPublic, id[:]))
	if err != nil {
		return nil, fmt.Errorf("public key %s: %w", id, err)
	}
	return lamport.ParseKeyPair(lamport.Public, v)
}

// SecretKey loads the secret key stored under id.
func (s *Store) SecretKey(id KeyID) (*lamport.KeyPair, error) {
	v, err := s.get(dbKey(prefixSecret, id[:]))
	if err != nil {
		return nil, fmt.Errorf("secret key %s: %w", id, err)
	}
	return lamport.ParseKeyPair(lamport.Secret, v)
}

// Keys lists the ids of every stored public key.
func (s *Store) Keys() ([]KeyID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []KeyID
	iter := s.db.NewIterator(util.BytesPrefix(prefixPublic), nil)
	defer iter.Release()
	for iter.Next() {
		var id KeyID
		copy(id[:], iter.Key()[len(prefixPublic):])
		ids = append(ids, id)
	}
	return ids, iter.Error()
}

// PutSignature records that message was signed with sig under key id. The
// same message is recorded once.
func (s *Store) PutSignature(id KeyID, message []byte, sig *lamport.Signature) error {
	digest := hashops.Digest(message)
	value := append(sig.Bytes(), message...)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.db.Put(dbKey(prefixSignature, id[:], digest[:]), value, nil); err != nil {
		return fmt.Errorf("failed to save signature for %s: %w", id, err)
	}
	return nil
}

// Signatures returns every observation recorded for key id, ordered by
// message digest.
func (s *Store) Signatures(id KeyID) ([]Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Observation
	iter := s.db.NewIterator(util.BytesPrefix(dbKey(prefixSignature, id[:])), nil)
	defer iter.Release()
	for iter.Next() {
		v := iter.Value()
		if len(v) < lamport.SignatureSize {
			return nil, fmt.Errorf("signature record of %d bytes: %w", len(v), lamport.ErrInvalidSignatureFormat)
		}
		sig, err := lamport.ParseSignature(v[:lamport.SignatureSize])
		if err != nil {
			return nil, err
		}
		out = append(out, Observation{
			Message:   append([]byte(nil), v[lamport.SignatureSize:]...),
			Signature: sig,
		})
	}
	return out, iter.Error()
}

// Delete removes the key pair and every signature recorded under id.
func (s *Store) Delete(id KeyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := new(leveldb.Batch)
	batch.Delete(dbKey(prefixPublic, id[:]))
	batch.Delete(dbKey(prefixSecret, id[:]))
	iter := s.db.NewIterator(util.BytesPrefix(dbKey(prefixSignature, id[:])), nil)
	for iter.Next() {
		batch.Delete(append([]byte(nil), iter.Key()...))
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return err
	}
	return s.db.Write(batch, nil)
}
