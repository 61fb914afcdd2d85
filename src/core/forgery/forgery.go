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

// go/src/core/forgery/forgery.go
//
// Package forgery forges Lamport signatures from a key that signed more than
// once.
//
// Every observed signature reveals, per digest bit, the secret block of the
// half that bit selected. Wherever two observed digests disagree both
// blocks are known, so any digest that agrees with the observations on the
// remaining bits can be signed. The engine salts a target message until its
// digest is such a digest.
package forgery

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/holiman/uint256"
	"github.com/sphinx-core/lamport/src/common"
	"github.com/sphinx-core/lamport/src/crypto/bitblock"
	"github.com/sphinx-core/lamport/src/crypto/hashops"
	"github.com/sphinx-core/lamport/src/crypto/lamport"
	logger "github.com/sphinx-core/lamport/src/log"
	"github.com/sphinx-core/lamport/src/metrics"
	"go.uber.org/zap"
)

var (
	ErrForgeryInconsistent      = errors.New("forgery: forged signature does not verify")
	ErrMismatchedObservations   = errors.New("forgery: message and signature counts differ")
	ErrInsufficientObservations = errors.New("forgery: need at least two signed messages")
	ErrInvalidObservation       = errors.New("forgery: observed signature does not verify under the public key")
	ErrUnknownBlock             = errors.New("forgery: partial key lacks a required block")
	ErrCancelled                = errors.New("forgery: brute force cancelled")
)

const defaultCheckInterval = 1 << 12

// Forgery is a successful forgery: a salted variant of the target message
// and a signature on it that verifies under the victim's public key.
type Forgery struct {
	Message   []byte
	Signature *lamport.Signature
	Mask      hashops.Block
	Prefix    hashops.Block
	Attempts  uint64
}

// Engine runs forgeries with one configuration.
type Engine struct {
	cfg     common.ForgeryConfig
	log     *zap.Logger
	metrics *metrics.Metrics
}

// NewEngine returns an engine. A zero CheckInterval is replaced by a default.
func NewEngine(cfg common.ForgeryConfig, log *zap.Logger, m *metrics.Metrics) *Engine {
	if cfg.CheckInterval == 0 {
		cfg.CheckInterval = defaultCheckInterval
	}
	return &Engine{cfg: cfg, log: logger.OrNop(log), metrics: m}
}

// MaskAndPrefix folds observed digests into a wildcard mask (bits where any
// two consecutive digests differ) and the prefix every digest shares on the
// remaining bits.
func MaskAndPrefix(digests []hashops.Block) (mask, prefix hashops.Block, err error) {
	if len(digests) == 0 {
		return mask, prefix, ErrInsufficientObservations
	}
	for i := 1; i < len(digests); i++ {
		diff, err := bitblock.Xor(digests[i][:], digests[i-1][:])
		if err != nil {
			return mask, prefix, err
		}
		m, err := bitblock.Or(mask[:], diff)
		if err != nil {
			return mask, prefix, err
		}
		copy(mask[:], m)
	}
	p, err := bitblock.And(bitblock.Not(mask[:]), digests[0][:])
	if err != nil {
		return mask, prefix, err
	}
	copy(prefix[:], p)
	return mask, prefix, nil
}

// ConstrainedBits is the number of digest bits a forged message must match.
// The expected brute-force cost is 2^ConstrainedBits(mask) attempts.
func ConstrainedBits(mask hashops.Block) int {
	return 8*hashops.Size - bitblock.CountSetBits(mask[:])
}

// BruteForce appends "<separator><salt>" to message for salt = 0, 1, 2, ...
// until the digest matches prefix at every bit mask leaves clear. It checks
// ctx every CheckInterval attempts and returns ErrCancelled wrapping the
// context error once ctx is done.
func (e *Engine) BruteForce(ctx context.Context, message []byte, prefix, mask hashops.Block) ([]byte, uint64, error) {
	base := append(append([]byte(nil), message...), e.cfg.Separator...)
	salt := new(uint256.Int)
	one := uint256.NewInt(1)
	constrained := ConstrainedBits(mask)

	var attempts uint64
	for {
		if attempts%e.cfg.CheckInterval == 0 {
			select {
			case <-ctx.Done():
				e.metrics.Attempts(attempts)
				return nil, attempts, fmt.Errorf("after %d attempts: %w: %w", attempts, ErrCancelled, ctx.Err())
			default:
			}
		}
		if e.cfg.ProgressInterval > 0 && attempts > 0 && attempts%e.cfg.ProgressInterval == 0 {
			e.log.Info("brute force progress",
				zap.Uint64("attempts", attempts),
				zap.Int("constrained_bits", constrained))
		}

		candidate := append(base[:len(base):len(base)], salt.Dec()...)
		digest := hashops.Digest(candidate)
		attempts++
		match, err := bitblock.CheckedMatch(digest[:], prefix[:], mask[:])
		if err != nil {
			return nil, attempts, err
		}
		if match {
			e.metrics.Attempts(attempts)
			return candidate, attempts, nil
		}
		salt.Add(salt, one)
	}
}

// Forge signs a salted variant of target under public, using only what
// signatures over messages revealed. Every observed signature must verify
// under public. The engine's Timeout, if set, bounds the brute force on top
// of ctx.
func (e *Engine) Forge(ctx context.Context, public *lamport.KeyPair, sigs []*lamport.Signature, messages [][]byte, target []byte) (*Forgery, error) {
	start := time.Now()
	f, err := e.forge(ctx, public, sigs, messages, target)
	switch {
	case err == nil:
		e.metrics.ForgeryDone("success", start)
		e.log.Info("forgery succeeded",
			zap.ByteString("message", f.Message),
			zap.Uint64("attempts", f.Attempts),
			zap.Duration("elapsed", time.Since(start)))
	case errors.Is(err, ErrCancelled):
		e.metrics.ForgeryDone("cancelled", start)
		e.log.Warn("forgery cancelled", zap.Error(err))
	default:
		e.metrics.ForgeryDone("failed", start)
		e.log.Error("forgery failed", zap.Error(err))
	}
	return f, err
}

func (e *Engine) forge(ctx context.Context, public *lamport.KeyPair, sigs []*lamport.Signature, messages [][]byte, target []byte) (*Forgery, error) {
	if len(sigs) != len(messages) {
		return nil, fmt.Errorf("%d messages, %d signatures: %w", len(messages), len(sigs), ErrMismatchedObservations)
	}
	if len(messages) < 2 {
		return nil, fmt.Errorf("got %d: %w", len(messages), ErrInsufficientObservations)
	}

	digests := make([]hashops.Block, len(messages))
	for i, msg := range messages {
		ok, err := lamport.Verify(public, msg, sigs[i])
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("observation %d: %w", i, ErrInvalidObservation)
		}
		digests[i] = hashops.Digest(msg)
	}

	mask, prefix, err := MaskAndPrefix(digests)
	if err != nil {
		return nil, err
	}
	partial, err := ReconstructPartialKey(digests, sigs)
	if err != nil {
		return nil, err
	}
	constrained := ConstrainedBits(mask)
	e.log.Info("reconstructed partial key",
		zap.Int("observations", len(messages)),
		zap.Int("known_blocks", partial.KnownBlocks()),
		zap.Int("constrained_bits", constrained),
		zap.String("expected_attempts", fmt.Sprintf("2^%d", constrained)),
		zap.String("mask", hex.EncodeToString(mask[:])))

	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(e.cfg.Timeout))
		defer cancel()
	}
	forged, attempts, err := e.BruteForce(ctx, target, prefix, mask)
	if err != nil {
		return nil, err
	}

	sig, err := partial.SignDigest(hashops.Digest(forged))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrForgeryInconsistent, err)
	}
	ok, err := lamport.Verify(public, forged, sig)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForgeryInconsistent
	}
	return &Forgery{
		Message:   forged,
		Signature: sig,
		Mask:      mask,
		Prefix:    prefix,
		Attempts:  attempts,
	}, nil
}
