package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StartUpdateSpan opens a server span for one bot update. With no provider
// installed it is a no-op span.
func StartUpdateSpan(ctx context.Context, kind string, chatID int64) (context.Context, trace.Span) {
	return otel.Tracer(instrumentation).Start(ctx, "telegram "+kind,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("telegram.update_kind", kind),
			attribute.Int64("telegram.chat_id", chatID),
		))
}

// EndSpan records err on span before ending it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
