// Package ctxlog hands watch actions the logger of the sheet that fired
// them, already tagged with the watch and action names.
package ctxlog

import (
	"context"
	"log/slog"
)

type loggerKey struct{}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// ForAction returns a context for one action invocation. Its logger is
// base with "watch" and "action" attributes.
func ForAction(ctx context.Context, base *slog.Logger, watch, action string) context.Context {
	return WithLogger(ctx, base.With("watch", watch, "action", action))
}

// FromContext returns the stored logger, or slog.Default when ctx has none.
// Actions invoked outside a sheet, as in tests, still get a usable logger.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
