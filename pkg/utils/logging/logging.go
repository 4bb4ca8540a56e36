package logging

import (
	"context"
	"log/slog"
	"os"
	"sync"
)

var (
	defaultLogger      = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	defaultLoggerMutex sync.RWMutex
)

// Default returns the process-wide logger configured at startup
func Default() *slog.Logger {
	defaultLoggerMutex.RLock()
	defer defaultLoggerMutex.RUnlock()
	return defaultLogger
}

// SetDefault replaces the process-wide logger. It is called once by the CLI
// after the logger flags are parsed.
func SetDefault(logger *slog.Logger) {
	defaultLoggerMutex.Lock()
	defer defaultLoggerMutex.Unlock()
	defaultLogger = logger
}

type ctxLoggerKey struct{}

// With returns a child context carrying logger
func With(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxLoggerKey{}, logger)
}

// From returns the logger carried by ctx, falling back to Default
func From(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(ctxLoggerKey{}).(*slog.Logger); ok && logger != nil {
			return logger
		}
	}
	return Default()
}
