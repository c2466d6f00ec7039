package slogx

import (
	"context"
	"log/slog"
	"sync"
)

type ctxKey struct{}

// scope is the per-request logger. Attributes added with With are visible
// to every holder of the request context, including the access log line.
type scope struct {
	mu     sync.Mutex
	logger *slog.Logger
}

func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, &scope{logger: logger})
}

// FromContext returns the request logger, or slog.Default when none is attached.
func FromContext(ctx context.Context) *slog.Logger {
	s, ok := ctx.Value(ctxKey{}).(*scope)
	if !ok {
		return slog.Default()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logger
}

// With extends the request logger with args. Outside a request it
// returns ctx carrying slog.Default extended with args.
func With(ctx context.Context, args ...any) context.Context {
	s, ok := ctx.Value(ctxKey{}).(*scope)
	if !ok {
		return WithContext(ctx, slog.Default().With(args...))
	}
	s.mu.Lock()
	s.logger = s.logger.With(args...)
	s.mu.Unlock()
	return ctx
}
