package zapadapter

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey struct{}

// ContextWithLogger stores a request scoped logger in ctx.
func ContextWithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	if logger == nil {
		return ctx
	}

	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the request scoped logger of ctx, falling back to zap.L().
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := loggerFromContext(ctx); ok {
		return logger
	}

	return zap.L()
}

func loggerFromContext(ctx context.Context) (*zap.Logger, bool) {
	if ctx == nil {
		return nil, false
	}

	logger, ok := ctx.Value(ctxKey{}).(*zap.Logger)

	return logger, ok && logger != nil
}
