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

// go/src/cli/cli/helper.go
package cli

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/sphinx-core/lamport/src/accounts/keystore"
	"github.com/sphinx-core/lamport/src/common"
	"github.com/sphinx-core/lamport/src/crypto/lamport"
	logger "github.com/sphinx-core/lamport/src/log"
)

// loadConfig merges the config file (if any) and the global flags.
func loadConfig(cfg *Config) (common.Config, error) {
	conf := common.DefaultConfig()
	if cfg.configFile != "" {
		var err error
		if conf, err = common.LoadConfig(cfg.configFile); err != nil {
			return conf, err
		}
	}
	if cfg.dataDir != "" {
		conf.DataDir = cfg.dataDir
	}
	if cfg.logLevel != "" {
		conf.LogLevel = cfg.logLevel
	}
	if err := conf.Validate(); err != nil {
		return conf, fmt.Errorf("invalid configuration: %w", err)
	}
	logger.SetLevel(logger.ParseLevel(conf.LogLevel))
	return conf, nil
}

// randomness returns crypto/rand, or a reproducible stream when seed is set.
func randomness(seed string) (io.Reader, error) {
	if seed == "" {
		return rand.Reader, nil
	}
	return lamport.NewDeterministicReader([]byte(seed))
}

// storedKey opens the keystore and resolves a base58 key id.
func storedKey(conf common.Config, id string) (*keystore.Store, keystore.KeyID, error) {
	if id == "" {
		return nil, keystore.KeyID{}, fmt.Errorf("-key is required")
	}
	keyID, err := keystore.ParseKeyID(id)
	if err != nil {
		return nil, keyID, err
	}
	store, err := keystore.Open(conf.KeystorePath(), logger.Named("keystore"))
	if err != nil {
		return nil, keyID, err
	}
	return store, keyID, nil
}
