// Package ctxlog threads a *slog.Logger through a context.Context so that
// every layer of the pipeline runtime — registrar, scheduler, source driver —
// logs through the same structured logger without a global.
package ctxlog

import (
	"context"
	"log/slog"
)

type key struct{}

var loggerKey = key{}

// WithLogger returns a new context carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts the logger embedded by WithLogger. A context that
// never passed through WithLogger is a programmer error, not a runtime one:
// every entry point into this module installs a logger before doing work.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	panic("ctxlog: logger missing from context")
}
