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

// go/src/accounts/keystore/files.go
package keystore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sphinx-core/lamport/src/crypto/lamport"
)

// SaveKeyPair writes kp to path as key0 || key1. Secret keys are written
// owner-readable only.
func SaveKeyPair(path string, kp *lamport.KeyPair) error {
	perm := os.FileMode(0644)
	if kp.Role() == lamport.Secret {
		perm = 0600
	}
	return writeFile(path, kp.Bytes(), perm)
}

// LoadKeyPair reads a key pair file written by SaveKeyPair. The file must
// be exactly lamport.KeyPairSize bytes.
func LoadKeyPair(path string, role lamport.Role) (*lamport.KeyPair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file %s: %w", path, err)
	}
	kp, err := lamport.ParseKeyPair(role, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return kp, nil
}

// SaveSignature writes the signature blocks to path.
func SaveSignature(path string, sig *lamport.Signature) error {
	return writeFile(path, sig.Bytes(), 0644)
}

// LoadSignature reads a signature file of exactly lamport.SignatureSize
// bytes.
func LoadSignature(path string) (*lamport.Signature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read signature file %s: %w", path, err)
	}
	sig, err := lamport.ParseSignature(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sig, nil
}

func writeFile(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, perm); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
