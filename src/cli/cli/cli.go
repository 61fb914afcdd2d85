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

// go/src/cli/cli/cli.go
package cli

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sphinx-core/lamport/src/accounts/keystore"
	"github.com/sphinx-core/lamport/src/common"
	"github.com/sphinx-core/lamport/src/core/forgery"
	"github.com/sphinx-core/lamport/src/core/scheme"
	"github.com/sphinx-core/lamport/src/crypto/derive"
	"github.com/sphinx-core/lamport/src/crypto/hashops"
	"github.com/sphinx-core/lamport/src/crypto/lamport"
	logger "github.com/sphinx-core/lamport/src/log"
	"github.com/sphinx-core/lamport/src/metrics"
	"go.uber.org/zap"
)

// ErrInvalidSignature is returned by verify when the signature is rejected.
var ErrInvalidSignature = errors.New("signature is not valid")

const usage = `usage: lamport [global flags] <command> [flags]

commands:
  keygen   generate a one-time key pair and store it
  sign     sign a message with a stored key
  verify   verify a signature file
  forge    forge a signature from every message a stored key has signed
  commit   derive a batch of keys, commit to them and sign messages
`

// Execute runs the CLI with the process arguments.
func Execute() error {
	return Run(os.Args[1:], os.Stdout)
}

// Run parses global flags, loads the configuration and dispatches to a
// command. Command output goes to stdout; logs go to the shared logger.
func Run(args []string, stdout io.Writer) error {
	cfg := &Config{}
	fs := flag.NewFlagSet("lamport", flag.ContinueOnError)
	fs.SetOutput(stdout)
	fs.StringVar(&cfg.configFile, "config", "", "Path to JSON configuration file")
	fs.StringVar(&cfg.dataDir, "datadir", "", "Directory for the keystore and output files")
	fs.StringVar(&cfg.logLevel, "loglevel", "", "Log level (DEBUG, INFO, WARN, ERROR)")
	fs.Usage = func() {
		fmt.Fprint(stdout, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("missing command")
	}

	conf, err := loadConfig(cfg)
	if err != nil {
		return err
	}
	m := metrics.NewMetrics(prometheus.NewRegistry())

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "keygen":
		return runKeygen(conf, rest, stdout, m)
	case "sign":
		return runSign(conf, rest, stdout)
	case "verify":
		return runVerify(conf, rest, stdout, m)
	case "forge":
		return runForge(conf, rest, stdout, m)
	case "commit":
		return runCommit(conf, rest, stdout, m)
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func runKeygen(conf common.Config, args []string, stdout io.Writer, m *metrics.Metrics) error {
	fs := flag.NewFlagSet("keygen", flag.ContinueOnError)
	fs.SetOutput(stdout)
	seed := fs.String("seed", "", "Derive the key from this seed instead of crypto/rand")
	export := fs.String("export", "", "Also write secret.key and public.key into this directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	r, err := randomness(*seed)
	if err != nil {
		return err
	}
	secret, public, err := lamport.GenerateKeyPair(r)
	if err != nil {
		return err
	}
	m.KeyGenerated(1)

	store, err := keystore.Open(conf.KeystorePath(), logger.Named("keystore"))
	if err != nil {
		return err
	}
	defer store.Close()
	id, err := store.PutKeyPair(secret, public)
	if err != nil {
		return err
	}

	summary := KeygenSummaryJSON{
		KeyID:       id.String(),
		Fingerprint: common.Fingerprint(public.Bytes()),
	}
	if *export != "" {
		if err := keystore.SaveKeyPair(filepath.Join(*export, "secret.key"), secret); err != nil {
			return err
		}
		if err := keystore.SaveKeyPair(filepath.Join(*export, "public.key"), public); err != nil {
			return err
		}
		summary.Exported = *export
	}
	logger.Infof("Generated key %s (%s)", summary.KeyID, summary.Fingerprint)

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}

func runSign(conf common.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("sign", flag.ContinueOnError)
	fs.SetOutput(stdout)
	keyID := fs.String("key", "", "Key id printed by keygen")
	message := fs.String("message", "", "Message to sign")
	out := fs.String("out", "", "Signature file (default: <datadir>/output/<key>-<digest>.sig)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, id, err := storedKey(conf, *keyID)
	if err != nil {
		return err
	}
	defer store.Close()

	secret, err := store.SecretKey(id)
	if err != nil {
		return err
	}
	previous, err := store.Signatures(id)
	if err != nil {
		return err
	}
	if len(previous) > 0 {
		logger.Warnf("Key %s already signed %d message(s); every further signature leaks more secret blocks", id, len(previous))
	}

	msg := []byte(*message)
	sig, err := lamport.Sign(secret, msg)
	if err != nil {
		return err
	}
	if err := store.PutSignature(id, msg, sig); err != nil {
		return err
	}

	path := *out
	if path == "" {
		digest := hashops.Digest(msg)
		path = filepath.Join(conf.OutputDir(), fmt.Sprintf("%s-%s.sig", id, hex.EncodeToString(digest[:4])))
	}
	if err := keystore.SaveSignature(path, sig); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "signature written to %s\n", path)
	return nil
}

func runVerify(conf common.Config, args []string, stdout io.Writer, m *metrics.Metrics) error {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(stdout)
	keyID := fs.String("key", "", "Key id of a stored public key")
	pubPath := fs.String("pub", "", "Public key file (instead of -key)")
	message := fs.String("message", "", "Signed message")
	sigPath := fs.String("sig", "", "Signature file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *sigPath == "" {
		return errors.New("-sig is required")
	}

	var public *lamport.KeyPair
	var err error
	if *pubPath != "" {
		public, err = keystore.LoadKeyPair(*pubPath, lamport.Public)
	} else {
		var store *keystore.Store
		var id keystore.KeyID
		store, id, err = storedKey(conf, *keyID)
		if err != nil {
			return err
		}
		public, err = store.PublicKey(id)
		store.Close()
	}
	if err != nil {
		return err
	}

	sig, err := keystore.LoadSignature(*sigPath)
	if err != nil {
		return err
	}
	ok, err := lamport.Verify(public, []byte(*message), sig)
	if err != nil {
		return err
	}
	m.Verified(ok)
	if !ok {
		fmt.Fprintln(stdout, "invalid")
		return ErrInvalidSignature
	}
	fmt.Fprintln(stdout, "valid")
	return nil
}

func runForge(conf common.Config, args []string, stdout io.Writer, m *metrics.Metrics) error {
	fs := flag.NewFlagSet("forge", flag.ContinueOnError)
	fs.SetOutput(stdout)
	keyID := fs.String("key", "", "Key id whose recorded signatures are used")
	target := fs.String("target", "", "Message to forge a signature for")
	timeout := fs.Duration("timeout", time.Duration(conf.Forgery.Timeout), "Give up after this long (0 = never)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, id, err := storedKey(conf, *keyID)
	if err != nil {
		return err
	}
	public, err := store.PublicKey(id)
	if err != nil {
		store.Close()
		return err
	}
	observations, err := store.Signatures(id)
	store.Close()
	if err != nil {
		return err
	}

	messages := make([][]byte, len(observations))
	sigs := make([]*lamport.Signature, len(observations))
	for i, o := range observations {
		messages[i], sigs[i] = o.Message, o.Signature
	}

	fc := conf.Forgery
	fc.Timeout = common.Duration(*timeout)
	engine := forgery.NewEngine(fc, logger.Named("forgery"), m)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	f, err := engine.Forge(ctx, public, sigs, messages, []byte(*target))
	if err != nil {
		return err
	}

	sigPath := filepath.Join(conf.OutputDir(), fmt.Sprintf("%s-forged.sig", id))
	if err := keystore.SaveSignature(sigPath, f.Signature); err != nil {
		return err
	}
	summary := ForgerySummaryJSON{
		Timestamp:       time.Now().Format(time.RFC3339),
		KeyID:           id.String(),
		Observations:    len(observations),
		ConstrainedBits: forgery.ConstrainedBits(f.Mask),
		Attempts:        f.Attempts,
		Message:         string(f.Message),
		SignaturePath:   sigPath,
		Duration:        time.Since(start).String(),
	}
	if err := common.WriteJSONToFile(summary, conf.OutputDir(), "forgery.json"); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "forged message: %s\nsignature written to %s\n", f.Message, sigPath)
	return nil
}

func runCommit(conf common.Config, args []string, stdout io.Writer, m *metrics.Metrics) error {
	fs := flag.NewFlagSet("commit", flag.ContinueOnError)
	fs.SetOutput(stdout)
	amount := fs.Int("amount", conf.Scheme.Amount, "Number of one-time keys (power of two, at most 256)")
	workers := fs.Int("workers", conf.Scheme.Workers, "Goroutines used for key derivation")
	seed := fs.String("seed", "", "Derive the root secret from this seed instead of crypto/rand")
	var messages messageList
	fs.Var(&messages, "message", "Message to sign (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	r, err := randomness(*seed)
	if err != nil {
		return err
	}
	root, err := derive.NewRootFrom(r)
	if err != nil {
		return err
	}
	s, err := scheme.NewWithRoot(root, *amount, *workers, logger.Named("scheme"), m)
	if err != nil {
		return err
	}

	rootHash := s.RootHash()
	summary := CommitSummaryJSON{
		Timestamp: time.Now().Format(time.RFC3339),
		Amount:    s.Size(),
		RootHash:  hex.EncodeToString(rootHash[:]),
	}
	for _, msg := range messages {
		sm, err := s.Sign([]byte(msg))
		if err != nil {
			return err
		}
		ok, err := s.Verify([]byte(msg), sm)
		if err != nil {
			return err
		}
		chain := make([]string, len(sm.Chain))
		for i, h := range sm.Chain {
			chain[i] = hex.EncodeToString(h[:])
		}
		summary.Signatures = append(summary.Signatures, CommitSignatureJSON{
			Index:    sm.Index,
			Message:  msg,
			Verified: ok,
			Chain:    chain,
		})
		logger.L().Debug("signed with committed key", zap.Int("index", sm.Index), zap.Bool("verified", ok))
	}
	summary.Remaining = s.Remaining()

	if err := common.WriteJSONToFile(summary, conf.OutputDir(), "commit.json"); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "root %s, %d signed, %d keys left\n", summary.RootHash, len(summary.Signatures), summary.Remaining)
	return nil
}
