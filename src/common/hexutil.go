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

// go/src/common/hexutil.go
package common

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Fingerprint returns a short, checksummed hex identifier for a public key
// or commitment root: the last 20 bytes of SHAKE256(data), with letters
// upper-cased wherever the SHAKE256 of the lower-case text has a nibble of
// 8 or more.
func Fingerprint(data []byte) string {
	h := make([]byte, 32)
	sha3.ShakeSum256(h, data)
	return "0x" + applyChecksum(hex.EncodeToString(h[12:]))
}

func applyChecksum(lowerHex string) string {
	lowerHex = strings.ToLower(lowerHex)

	hasher := sha3.NewShake256()
	hasher.Write([]byte(lowerHex))
	hash := make([]byte, 32)
	hasher.Read(hash)
	hashHex := hex.EncodeToString(hash)

	var out strings.Builder
	for i, char := range lowerHex {
		if char >= 'a' && char <= 'f' && hashHex[i%len(hashHex)] >= '8' {
			out.WriteRune(char - 32)
		} else {
			out.WriteRune(char)
		}
	}
	return out.String()
}

// ValidateFingerprint checks the prefix, length and checksum casing of a
// fingerprint.
func ValidateFingerprint(fp string) error {
	if !strings.HasPrefix(fp, "0x") {
		return fmt.Errorf("fingerprint must start with '0x'")
	}
	body := fp[2:]
	if len(body) != 40 {
		return fmt.Errorf("invalid fingerprint length: expected 40 characters, got %d", len(body))
	}
	if _, err := hex.DecodeString(body); err != nil {
		return fmt.Errorf("fingerprint must be hex: %w", err)
	}
	if expected := applyChecksum(body); body != expected {
		return fmt.Errorf("checksum mismatch: expected %s, got %s", expected, body)
	}
	return nil
}

func Bytes2Hex(b []byte) string {
	return hex.EncodeToString(b)
}

func Hex2Bytes(s string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(s, "0x"))
}

func FormatHash(hash []byte) string {
	return fmt.Sprintf("%064x", hash)
}
