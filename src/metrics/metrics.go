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

// go/src/metrics/metrics.go
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors shared by the signing and forgery code.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	KeysGenerated      prometheus.Counter
	SignaturesIssued   prometheus.Counter
	Verifications      *prometheus.CounterVec
	KeysRemaining      prometheus.Gauge
	BruteForceAttempts prometheus.Counter
	ForgeryDuration    *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered. Collectors already registered on reg are
// reused.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		KeysGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lamport_keys_generated_total",
			Help: "Number of Lamport key pairs generated or derived",
		}),
		SignaturesIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lamport_signatures_issued_total",
			Help: "Number of one-time signatures issued",
		}),
		Verifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lamport_verifications_total",
				Help: "Number of signature verifications",
			},
			[]string{"result"},
		),
		KeysRemaining: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lamport_keys_remaining",
			Help: "Unused one-time keys left in the committed scheme",
		}),
		BruteForceAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lamport_bruteforce_attempts_total",
			Help: "Salted digests tried while searching for a forgeable message",
		}),
		ForgeryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lamport_forgery_duration_seconds",
				Help:    "Wall time of forgery attempts",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{"outcome"},
		),
	}
	if reg == nil {
		return m
	}

	m.KeysGenerated = register(reg, m.KeysGenerated)
	m.SignaturesIssued = register(reg, m.SignaturesIssued)
	m.Verifications = register(reg, m.Verifications)
	m.KeysRemaining = register(reg, m.KeysRemaining)
	m.BruteForceAttempts = register(reg, m.BruteForceAttempts)
	m.ForgeryDuration = register(reg, m.ForgeryDuration)
	return m
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
	}
	return c
}

func (m *Metrics) KeyGenerated(n int) {
	if m == nil {
		return
	}
	m.KeysGenerated.Add(float64(n))
}

func (m *Metrics) SignatureIssued(remaining int) {
	if m == nil {
		return
	}
	m.SignaturesIssued.Inc()
	m.KeysRemaining.Set(float64(remaining))
}

func (m *Metrics) SetRemaining(remaining int) {
	if m == nil {
		return
	}
	m.KeysRemaining.Set(float64(remaining))
}

func (m *Metrics) Verified(ok bool) {
	if m == nil {
		return
	}
	result := "invalid"
	if ok {
		result = "valid"
	}
	m.Verifications.WithLabelValues(result).Inc()
}

func (m *Metrics) Attempts(n uint64) {
	if m == nil {
		return
	}
	m.BruteForceAttempts.Add(float64(n))
}

func (m *Metrics) ForgeryDone(outcome string, since time.Time) {
	if m == nil {
		return
	}
	m.ForgeryDuration.WithLabelValues(outcome).Observe(time.Since(since).Seconds())
}
