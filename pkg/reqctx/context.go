package reqctx

import (
	"context"
	"log/slog"
	"time"
)

type ctxKey int

const keyRequestMeta ctxKey = iota

// Source values for RequestMeta.
const (
	SourceHTTP     = "http"
	SourceTelegram = "telegram"
)

// RequestMeta describes the inbound event being handled.
type RequestMeta struct {
	RequestID string
	Source    string
	// ChatID is set for bot updates.
	ChatID     int64
	ClientIP   string
	UserAgent  string
	ReceivedAt time.Time
}

func WithRequestMeta(ctx context.Context, meta *RequestMeta) context.Context {
	return context.WithValue(ctx, keyRequestMeta, meta)
}

// RequestMetaFromContext returns nil, false if no metadata was attached.
func RequestMetaFromContext(ctx context.Context) (*RequestMeta, bool) {
	meta, ok := ctx.Value(keyRequestMeta).(*RequestMeta)
	return meta, ok && meta != nil
}

func RequestIDFromContext(ctx context.Context) string {
	if meta, ok := RequestMetaFromContext(ctx); ok {
		return meta.RequestID
	}
	return ""
}

// Logger returns base annotated with the request fields found in ctx.
func Logger(ctx context.Context, base *slog.Logger) *slog.Logger {
	meta, ok := RequestMetaFromContext(ctx)
	if !ok {
		return base
	}
	attrs := []any{"request_id", meta.RequestID, "source", meta.Source}
	if meta.ChatID != 0 {
		attrs = append(attrs, "chat_id", meta.ChatID)
	}
	return base.With(attrs...)
}
