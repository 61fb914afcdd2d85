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

// go/src/common/config.go
package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// DataDir is the default root for keys, signatures and CLI output.
	DataDir = "data"
	// KeystoreName is the default LevelDB directory under DataDir.
	KeystoreName = "keystore"
)

// ForgeryConfig tunes the brute-force search.
type ForgeryConfig struct {
	// Separator goes between the target message and the salt.
	Separator string `json:"separator"`
	// CheckInterval is how many salts are tried between cancellation checks.
	CheckInterval uint64 `json:"check_interval"`
	// ProgressInterval is how many salts are tried between progress lines.
	ProgressInterval uint64 `json:"progress_interval"`
	// Timeout bounds a whole forgery; zero means no bound.
	Timeout Duration `json:"timeout"`
}

// SchemeConfig sizes the committed multi-key scheme.
type SchemeConfig struct {
	Amount  int `json:"amount"`
	Workers int `json:"workers"`
}

// Config is the explicit configuration handed to the I/O boundary. Nothing
// in the library reads global paths.
type Config struct {
	DataDir      string        `json:"data_dir"`
	KeystoreName string        `json:"keystore_name"`
	LogLevel     string        `json:"log_level"`
	Forgery      ForgeryConfig `json:"forgery"`
	Scheme       SchemeConfig  `json:"scheme"`
}

// Duration is a time.Duration that reads and writes as a Go duration string
// ("30s") in JSON.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// DefaultConfig returns the settings used when no config file is given.
func DefaultConfig() Config {
	return Config{
		DataDir:      DataDir,
		KeystoreName: KeystoreName,
		LogLevel:     "INFO",
		Forgery: ForgeryConfig{
			Separator:        " ",
			CheckInterval:    1 << 12,
			ProgressInterval: 1 << 20,
		},
		Scheme: SchemeConfig{
			Amount:  16,
			Workers: 4,
		},
	}
}

// LoadConfig reads a JSON config file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings the library cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.DataDir == "" {
		errs = append(errs, errors.New("data_dir is empty"))
	}
	if c.KeystoreName == "" {
		errs = append(errs, errors.New("keystore_name is empty"))
	}
	if c.Forgery.CheckInterval == 0 {
		errs = append(errs, errors.New("forgery.check_interval must be positive"))
	}
	if c.Forgery.Timeout < 0 {
		errs = append(errs, errors.New("forgery.timeout is negative"))
	}
	if c.Scheme.Amount <= 0 || c.Scheme.Amount&(c.Scheme.Amount-1) != 0 {
		errs = append(errs, fmt.Errorf("scheme.amount %d is not a power of two", c.Scheme.Amount))
	}
	if c.Scheme.Workers < 1 {
		errs = append(errs, errors.New("scheme.workers must be at least 1"))
	}
	return errors.Join(errs...)
}

// KeystorePath is the LevelDB directory.
func (c Config) KeystorePath() string {
	return filepath.Join(c.DataDir, c.KeystoreName)
}

// OutputDir is where CLI summaries and exported files go.
func (c Config) OutputDir() string {
	return filepath.Join(c.DataDir, "output")
}

// WriteJSONToFile writes data as indented JSON to dir/filename, creating dir.
func WriteJSONToFile(data interface{}, dir, filename string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	filePath := filepath.Join(dir, filename)
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", filePath, err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}
