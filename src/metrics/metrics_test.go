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

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorders(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.KeyGenerated(4)
	m.SignatureIssued(3)
	m.Verified(true)
	m.Verified(false)
	m.Verified(true)
	m.Attempts(1000)
	m.ForgeryDone("success", time.Now())

	if got := testutil.ToFloat64(m.KeysGenerated); got != 4 {
		t.Errorf("keys generated = %v", got)
	}
	if got := testutil.ToFloat64(m.KeysRemaining); got != 3 {
		t.Errorf("keys remaining = %v", got)
	}
	if got := testutil.ToFloat64(m.Verifications.WithLabelValues("valid")); got != 2 {
		t.Errorf("valid verifications = %v", got)
	}
	if got := testutil.ToFloat64(m.BruteForceAttempts); got != 1000 {
		t.Errorf("attempts = %v", got)
	}
	if n := testutil.CollectAndCount(m.ForgeryDuration); n != 1 {
		t.Errorf("forgery duration series = %d", n)
	}
}

func TestReRegistrationReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := NewMetrics(reg)
	b := NewMetrics(reg)
	a.KeyGenerated(1)
	b.KeyGenerated(1)
	if got := testutil.ToFloat64(b.KeysGenerated); got != 2 {
		t.Fatalf("shared counter = %v, want 2", got)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.KeyGenerated(1)
	m.SignatureIssued(0)
	m.SetRemaining(0)
	m.Verified(true)
	m.Attempts(1)
	m.ForgeryDone("cancelled", time.Now())
}
