package log

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

type ctxMarkerLogger struct{}

var (
	ctxKeyLogger = &ctxMarkerLogger{}
	nullLogger   = zap.NewNop().Sugar()
)

type ctxLogger struct {
	mu     sync.Mutex
	logger *zap.SugaredLogger
	fields []interface{}
}

// AddFields adds zap fields to the logger stored in the context.
func AddFields(ctx context.Context, fields ...interface{}) {
	l, ok := ctx.Value(ctxKeyLogger).(*ctxLogger)
	if !ok || l == nil {
		return
	}
	l.mu.Lock()
	l.fields = append(l.fields, fields...)
	l.mu.Unlock()
}

// ExtractLogger returns the call-scoped logger with all the fields added so far.
// Without a scoped logger a no-op logger is returned.
func ExtractLogger(ctx context.Context) *zap.SugaredLogger {
	l, ok := ctx.Value(ctxKeyLogger).(*ctxLogger)
	if !ok || l == nil {
		return nullLogger
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.logger.With(l.fields...)
}

// ToContext adds the logger to the context for extraction later.
func ToContext(ctx context.Context, logger *zap.SugaredLogger) context.Context {
	l := &ctxLogger{logger: logger}
	return context.WithValue(ctx, ctxKeyLogger, l)
}

// FromContext is ExtractLogger falling back to the default logger.
func FromContext(ctx context.Context) *zap.SugaredLogger {
	if l, ok := ctx.Value(ctxKeyLogger).(*ctxLogger); ok && l != nil {
		return ExtractLogger(ctx)
	}
	return Default()
}
