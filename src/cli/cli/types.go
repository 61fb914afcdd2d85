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

// go/src/cli/cli/types.go
package cli

import "strings"

// Config holds the global CLI flags.
type Config struct {
	configFile string
	dataDir    string
	logLevel   string
}

// messageList collects a repeatable -message flag.
type messageList []string

func (m *messageList) String() string { return strings.Join(*m, ",") }

func (m *messageList) Set(v string) error {
	*m = append(*m, v)
	return nil
}

// KeygenSummaryJSON is printed by keygen.
type KeygenSummaryJSON struct {
	KeyID       string `json:"key_id"`
	Fingerprint string `json:"fingerprint"`
	Exported    string `json:"exported,omitempty"`
}

// ForgerySummaryJSON is written by forge next to the forged signature.
type ForgerySummaryJSON struct {
	Timestamp       string `json:"timestamp"`
	KeyID           string `json:"key_id"`
	Observations    int    `json:"observations"`
	ConstrainedBits int    `json:"constrained_bits"`
	Attempts        uint64 `json:"attempts"`
	Message         string `json:"message"`
	SignaturePath   string `json:"signature_path"`
	Duration        string `json:"duration"`
}

// CommitSignatureJSON is one signed message in a commit summary.
type CommitSignatureJSON struct {
	Index    int      `json:"index"`
	Message  string   `json:"message"`
	Verified bool     `json:"verified"`
	Chain    []string `json:"hash_chain"`
}

// CommitSummaryJSON is written by commit.
type CommitSummaryJSON struct {
	Timestamp  string                `json:"timestamp"`
	Amount     int                   `json:"amount"`
	RootHash   string                `json:"root_hash"`
	Remaining  int                   `json:"remaining"`
	Signatures []CommitSignatureJSON `json:"signatures"`
}
