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

// go/src/core/scheme/scheme.go
//
// Package scheme signs many messages from one 32-byte secret. It derives a
// batch of Lamport keys, commits to their public keys with a hash tree and
// hands out each key at most once.
package scheme

import (
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/sphinx-core/lamport/src/core/hashtree"
	"github.com/sphinx-core/lamport/src/crypto/derive"
	"github.com/sphinx-core/lamport/src/crypto/hashops"
	"github.com/sphinx-core/lamport/src/crypto/lamport"
	logger "github.com/sphinx-core/lamport/src/log"
	"github.com/sphinx-core/lamport/src/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrKeysExhausted = errors.New("scheme: every one-time key has been used")
	ErrInvalidAmount = errors.New("scheme: amount must be a power of two no larger than 256")
)

// SignedMessage is what Sign hands back: the signature, the one-time public
// key it verifies under and the hash chain tying that key to the root.
type SignedMessage struct {
	Index     int
	Signature *lamport.Signature
	PublicKey *lamport.KeyPair
	Chain     []hashops.Block
}

// Scheme owns the derivation root, the commitment over the derived public
// keys and the usage state of every key.
type Scheme struct {
	root    *derive.Root
	tree    *hashtree.HashTree
	publics []*lamport.KeyPair

	mu   sync.Mutex
	used *orderedmap.OrderedMap[int, bool]

	log     *zap.Logger
	metrics *metrics.Metrics
}

// New samples a fresh root and builds a scheme of amount keys.
func New(amount, workers int, log *zap.Logger, m *metrics.Metrics) (*Scheme, error) {
	root, err := derive.NewRoot()
	if err != nil {
		return nil, err
	}
	return NewWithRoot(root, amount, workers, log, m)
}

// NewWithRoot builds a scheme of amount keys from an existing root. Keys are
// derived with up to workers goroutines; the result only depends on root and
// amount.
func NewWithRoot(root *derive.Root, amount, workers int, log *zap.Logger, m *metrics.Metrics) (*Scheme, error) {
	if amount <= 0 || amount > derive.MaxKeys || amount&(amount-1) != 0 {
		return nil, fmt.Errorf("amount %d: %w", amount, ErrInvalidAmount)
	}
	if workers < 1 {
		workers = 1
	}

	s := &Scheme{
		root:    root,
		publics: make([]*lamport.KeyPair, amount),
		used:    orderedmap.NewOrderedMap[int, bool](),
		log:     logger.OrNop(log),
		metrics: m,
	}

	containers := make([][]byte, amount)
	var g errgroup.Group
	g.SetLimit(workers)
	for i := 0; i < amount; i++ {
		i := i
		g.Go(func() error {
			pk, err := root.PublicKey(i)
			if err != nil {
				return fmt.Errorf("derive key %d: %w", i, err)
			}
			s.publics[i] = pk
			containers[i] = pk.Bytes()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tree, err := hashtree.Build(containers, workers)
	if err != nil {
		return nil, err
	}
	s.tree = tree

	for i := 0; i < amount; i++ {
		s.used.Set(i, false)
	}

	rootHash := tree.RootHash()
	s.log.Info("committed one-time keys",
		zap.Int("amount", amount),
		zap.String("root", hex.EncodeToString(rootHash[:])))
	s.metrics.KeyGenerated(amount)
	s.metrics.SetRemaining(amount)
	return s, nil
}

// RootHash is the public commitment to every one-time key.
func (s *Scheme) RootHash() hashops.Block { return s.tree.RootHash() }

// Size is the number of one-time keys.
func (s *Scheme) Size() int { return len(s.publics) }

// Remaining counts keys not yet used.
func (s *Scheme) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remainingLocked()
}

func (s *Scheme) remainingLocked() int {
	n := 0
	for el := s.used.Front(); el != nil; el = el.Next() {
		if !el.Value {
			n++
		}
	}
	return n
}

// Used reports whether key index has been handed out.
func (s *Scheme) Used(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	used, _ := s.used.Get(index)
	return used
}

// PublicKey returns one-time public key index.
func (s *Scheme) PublicKey(index int) (*lamport.KeyPair, error) {
	if index < 0 || index >= len(s.publics) {
		return nil, fmt.Errorf("key %d of %d: %w", index, len(s.publics), hashtree.ErrIndexOutOfRange)
	}
	return s.publics[index], nil
}

// claim marks the lowest unused index used and returns it.
func (s *Scheme) claim() (index, remaining int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for el := s.used.Front(); el != nil; el = el.Next() {
		if !el.Value {
			s.used.Set(el.Key, true)
			return el.Key, s.remainingLocked(), nil
		}
	}
	return 0, 0, ErrKeysExhausted
}

// Sign signs message with the lowest unused key. A key is marked used before
// its secret is derived, so concurrent callers never share a key.
func (s *Scheme) Sign(message []byte) (*SignedMessage, error) {
	index, remaining, err := s.claim()
	if err != nil {
		return nil, err
	}

	secret, err := s.root.SecretKey(index)
	if err != nil {
		return nil, err
	}
	sig, err := lamport.Sign(secret, message)
	if err != nil {
		return nil, err
	}
	chain, err := s.tree.HashChain(index)
	if err != nil {
		return nil, err
	}

	s.log.Debug("issued one-time signature", zap.Int("index", index), zap.Int("remaining", remaining))
	s.metrics.SignatureIssued(remaining)
	return &SignedMessage{
		Index:     index,
		Signature: sig,
		PublicKey: s.publics[index],
		Chain:     chain,
	}, nil
}

// Verify checks sm against message and against this scheme's own root: the
// signature must verify under sm.PublicKey, and that key's leaf hash folded
// through sm.Chain must give RootHash.
func (s *Scheme) Verify(message []byte, sm *SignedMessage) (bool, error) {
	if sm == nil || sm.Signature == nil || sm.PublicKey == nil {
		return false, errors.New("scheme: incomplete signed message")
	}
	ok, err := lamport.Verify(sm.PublicKey, message, sm.Signature)
	if err != nil {
		return false, err
	}
	if ok {
		leaf := hashops.Digest(sm.PublicKey.Bytes())
		ok = len(sm.Chain) == s.tree.Depth() &&
			hashtree.RootFromChain(leaf, sm.Index, sm.Chain) == s.tree.RootHash()
	}
	s.metrics.Verified(ok)
	return ok, nil
}
