package reqctx

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestRequestMetaRoundTrip(t *testing.T) {
	ctx := context.Background()
	if _, ok := RequestMetaFromContext(ctx); ok {
		t.Fatal("expected no meta on empty context")
	}
	if RequestIDFromContext(ctx) != "" {
		t.Fatal("expected empty request id")
	}

	ctx = WithRequestMeta(ctx, &RequestMeta{RequestID: "abc", Source: SourceTelegram, ChatID: 42})
	if got := RequestIDFromContext(ctx); got != "abc" {
		t.Errorf("expected abc, got %q", got)
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	Logger(context.Background(), base).Info("plain")
	if strings.Contains(buf.String(), "request_id") {
		t.Errorf("unexpected request fields: %s", buf.String())
	}

	buf.Reset()
	ctx := WithRequestMeta(context.Background(), &RequestMeta{RequestID: "r1", Source: SourceTelegram, ChatID: 7})
	Logger(ctx, base).Info("annotated")
	for _, want := range []string{"request_id=r1", "source=telegram", "chat_id=7"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("expected %q in %s", want, buf.String())
		}
	}
}
