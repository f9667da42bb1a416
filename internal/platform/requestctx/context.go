package requestctx

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/text/language"
)

type contextKey string

const (
	loggerContextKey   contextKey = "github.com/bookshelf-ua/api/internal/platform/requestctx/logger"
	traceContextKey    contextKey = "github.com/bookshelf-ua/api/internal/platform/requestctx/trace"
	languageContextKey contextKey = "github.com/bookshelf-ua/api/internal/platform/requestctx/language"
)

var noopLogger = zap.NewNop()

// TraceInfo captures trace metadata propagated through request context.
type TraceInfo struct {
	TraceID string
	SpanID  string
	Sampled bool
}

// WithLogger stores the logger in context for downstream consumers.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = noopLogger
	}
	return context.WithValue(ctx, loggerContextKey, logger)
}

// Logger retrieves the zap logger from context or returns a no-op logger.
func Logger(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return noopLogger
	}
	if logger, ok := ctx.Value(loggerContextKey).(*zap.Logger); ok && logger != nil {
		return logger
	}
	return noopLogger
}

// NoopLogger exposes the shared noop logger instance.
func NoopLogger() *zap.Logger { return noopLogger }

// WithTrace stores the trace metadata on the context.
func WithTrace(ctx context.Context, info TraceInfo) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, traceContextKey, info)
}

// Trace retrieves the trace metadata from context when available.
func Trace(ctx context.Context) (TraceInfo, bool) {
	if ctx == nil {
		return TraceInfo{}, false
	}
	info, ok := ctx.Value(traceContextKey).(TraceInfo)
	return info, ok
}

// WithLanguage stores the negotiated response language.
func WithLanguage(ctx context.Context, tag language.Tag) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, languageContextKey, tag)
}

// Language returns the negotiated response language, or language.Und when none was set.
func Language(ctx context.Context) language.Tag {
	if ctx == nil {
		return language.Und
	}
	if tag, ok := ctx.Value(languageContextKey).(language.Tag); ok {
		return tag
	}
	return language.Und
}
