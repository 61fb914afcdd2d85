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

// go/src/log/logger.go
package logger

import (
	"bytes"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel defines the severity level of the log message.
type LogLevel int

// Log level constants starting from 0 with iota.
const (
	DEBUG LogLevel = iota // Detailed debug information.
	INFO                  // General informational messages.
	WARN                  // Warnings about potential issues.
	ERROR                 // Error messages.
)

// levelNames associates LogLevel constants with string labels.
var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

// zapLevels maps LogLevel onto the zap backend.
var zapLevels = [...]zapcore.Level{zapcore.DebugLevel, zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel}

func (l LogLevel) String() string {
	if l < DEBUG || l > ERROR {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel maps a level name (as used in config files) to a LogLevel.
// Unknown names fall back to INFO.
func ParseLevel(name string) LogLevel {
	for i, n := range levelNames {
		if strings.EqualFold(n, name) {
			return LogLevel(i)
		}
	}
	return INFO
}

// LogBuffer is a thread-safe bytes.Buffer to store logs in memory.
type LogBuffer struct {
	mu  sync.Mutex   // protects buf
	buf bytes.Buffer // underlying buffer
}

// Write implements io.Writer interface for LogBuffer.
func (l *LogBuffer) Write(p []byte) (n int, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.Write(p)
}

// Sync lets LogBuffer act as a zapcore.WriteSyncer.
func (l *LogBuffer) Sync() error { return nil }

// String returns the current contents of the buffer as a string.
func (l *LogBuffer) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.String()
}

var (
	// buffer holds every line written since start-up.
	buffer = &LogBuffer{}

	// level is shared by every logger handed out by this package.
	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

	mu   sync.RWMutex
	base *zap.Logger
)

func init() {
	base = newLogger(os.Stdout)
}

// newLogger builds a console-encoded zap logger writing to out and to the
// in-memory buffer.
func newLogger(out io.Writer) *zap.Logger {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	sink := zapcore.NewMultiWriteSyncer(zapcore.AddSync(out), buffer)
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), sink, level)
	return zap.New(core)
}

// SetOutput redirects console output (the in-memory buffer always receives
// a copy). Passing io.Discard silences the console.
func SetOutput(out io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	base = newLogger(out)
}

// SetLevel sets the global logging level.
// Messages below this level will be ignored.
func SetLevel(lvl LogLevel) {
	if lvl < DEBUG || lvl > ERROR {
		lvl = INFO
	}
	level.SetLevel(zapLevels[lvl])
}

// L returns the shared structured logger. Components take it through their
// constructors.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Named returns a child of L tagged with a component name.
func Named(name string) *zap.Logger {
	return L().Named(name)
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

func sugar() *zap.SugaredLogger {
	return L().WithOptions(zap.AddCallerSkip(1)).Sugar()
}

// Debugf logs a formatted message at DEBUG level.
func Debugf(format string, args ...any) { sugar().Debugf(format, args...) }

// Infof logs a formatted message at INFO level.
func Infof(format string, args ...any) { sugar().Infof(format, args...) }

// Warnf logs a formatted message at WARN level.
func Warnf(format string, args ...any) { sugar().Warnf(format, args...) }

// Errorf logs a formatted message at ERROR level.
func Errorf(format string, args ...any) { sugar().Errorf(format, args...) }

// Fatalf logs a formatted message at ERROR level and then terminates the program.
func Fatalf(format string, args ...any) {
	sugar().Errorf(format, args...)
	_ = L().Sync()
	os.Exit(1)
}

// GetLogs returns the full log content accumulated in the in-memory buffer.
// Useful for retrieving all logs for inspection or testing.
func GetLogs() string {
	return buffer.String()
}
