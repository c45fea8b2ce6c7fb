// Package logging builds the shared zap logger and hands out named
// category loggers. Categories keep log output greppable per subsystem
// without each package carrying its own logger construction.
package logging

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category names used across the codebase.
const (
	CategoryLLM       = "llm"
	CategoryPrompt    = "prompt"
	CategoryParser    = "parser"
	CategoryChain     = "chain"
	CategoryEmbedding = "embedding"
	CategoryStore     = "store"
	CategorySession   = "session"
	CategoryConfig    = "config"
)

var (
	mu     sync.RWMutex
	logger = zap.NewNop()
)

// Init builds the process logger. Verbose switches the level to debug.
// Safe to call more than once; the last call wins.
func Init(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	mu.Lock()
	logger = l
	mu.Unlock()
	return l, nil
}

// SetLogger replaces the process logger. Tests use this with zaptest.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	mu.Lock()
	logger = l
	mu.Unlock()
}

// L returns the process logger.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// For returns a named logger for a category.
func For(category string) *zap.Logger {
	return L().Named(category)
}

// Sync flushes buffered log entries. Errors are ignored; stderr sync
// failures on some platforms are not actionable.
func Sync() {
	_ = L().Sync()
}
