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

package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sphinx-core/lamport/src/common"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	if err := Run(args, &out); err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func keygen(t *testing.T, dir, seed string, extra ...string) KeygenSummaryJSON {
	t.Helper()
	args := append([]string{"-datadir", dir, "keygen", "-seed", seed}, extra...)
	var summary KeygenSummaryJSON
	if err := json.Unmarshal([]byte(run(t, args...)), &summary); err != nil {
		t.Fatal(err)
	}
	if err := common.ValidateFingerprint(summary.Fingerprint); err != nil {
		t.Fatal(err)
	}
	return summary
}

func TestUnknownAndMissingCommand(t *testing.T) {
	var out bytes.Buffer
	if err := Run(nil, &out); err == nil {
		t.Fatal("missing command accepted")
	}
	if err := Run([]string{"-datadir", t.TempDir(), "explode"}, &out); err == nil {
		t.Fatal("unknown command accepted")
	}
	if !strings.Contains(out.String(), "usage: lamport") {
		t.Fatalf("no usage printed:\n%s", out.String())
	}
}

func TestKeygenIsReproducibleWithSeed(t *testing.T) {
	a := keygen(t, t.TempDir(), "seed-1")
	b := keygen(t, t.TempDir(), "seed-1")
	c := keygen(t, t.TempDir(), "seed-2")
	if a.Fingerprint != b.Fingerprint {
		t.Fatal("same seed gave different keys")
	}
	if a.Fingerprint == c.Fingerprint {
		t.Fatal("different seeds gave the same key")
	}
}

func TestSignAndVerify(t *testing.T) {
	dir := t.TempDir()
	export := filepath.Join(dir, "export")
	k := keygen(t, dir, "sign-verify", "-export", export)

	sigPath := filepath.Join(dir, "hello.sig")
	run(t, "-datadir", dir, "sign", "-key", k.KeyID, "-message", "hello", "-out", sigPath)

	if got := run(t, "-datadir", dir, "verify", "-key", k.KeyID, "-message", "hello", "-sig", sigPath); strings.TrimSpace(got) != "valid" {
		t.Fatalf("verify by key id: %q", got)
	}
	pub := filepath.Join(export, "public.key")
	if got := run(t, "-datadir", dir, "verify", "-pub", pub, "-message", "hello", "-sig", sigPath); strings.TrimSpace(got) != "valid" {
		t.Fatalf("verify by file: %q", got)
	}

	var out bytes.Buffer
	err := Run([]string{"-datadir", dir, "verify", "-key", k.KeyID, "-message", "goodbye", "-sig", sigPath}, &out)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("wrong message: err = %v", err)
	}
}

func TestForgeAfterKeyReuse(t *testing.T) {
	dir := t.TempDir()
	k := keygen(t, dir, "reused key")
	for i := 0; i < 12; i++ {
		run(t, "-datadir", dir, "sign", "-key", k.KeyID, "-message", fmt.Sprintf("invoice %d", i))
	}

	out := run(t, "-datadir", dir, "forge", "-key", k.KeyID, "-target", "transfer funds", "-timeout", "2m")
	if !strings.Contains(out, "forged message: transfer funds ") {
		t.Fatalf("forge output:\n%s", out)
	}

	b, err := os.ReadFile(filepath.Join(dir, "output", "forgery.json"))
	if err != nil {
		t.Fatal(err)
	}
	var summary ForgerySummaryJSON
	if err := json.Unmarshal(b, &summary); err != nil {
		t.Fatal(err)
	}
	if summary.Observations != 12 || summary.KeyID != k.KeyID {
		t.Fatalf("summary = %+v", summary)
	}

	got := run(t, "-datadir", dir, "verify", "-key", k.KeyID, "-message", summary.Message, "-sig", summary.SignaturePath)
	if strings.TrimSpace(got) != "valid" {
		t.Fatalf("forged signature: %q", got)
	}
}

func TestCommit(t *testing.T) {
	dir := t.TempDir()
	out := run(t, "-datadir", dir, "commit", "-amount", "4", "-seed", "root", "-message", "one", "-message", "two")
	if !strings.Contains(out, "2 signed, 2 keys left") {
		t.Fatalf("commit output: %q", out)
	}

	b, err := os.ReadFile(filepath.Join(dir, "output", "commit.json"))
	if err != nil {
		t.Fatal(err)
	}
	var summary CommitSummaryJSON
	if err := json.Unmarshal(b, &summary); err != nil {
		t.Fatal(err)
	}
	if summary.Amount != 4 || len(summary.Signatures) != 2 {
		t.Fatalf("summary = %+v", summary)
	}
	for i, s := range summary.Signatures {
		if s.Index != i || !s.Verified || len(s.Chain) != 2 {
			t.Errorf("signature %d = %+v", i, s)
		}
	}

	var buf bytes.Buffer
	if err := Run([]string{"-datadir", dir, "commit", "-amount", "3"}, &buf); err == nil {
		t.Fatal("amount 3 accepted")
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := fmt.Sprintf(`{"data_dir": %q, "scheme": {"amount": 2, "workers": 1}}`, filepath.Join(dir, "data"))
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	out := run(t, "-config", path, "commit", "-message", "x")
	if !strings.Contains(out, "1 signed, 1 keys left") {
		t.Fatalf("commit output: %q", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "data", "output", "commit.json")); err != nil {
		t.Fatal(err)
	}
}
