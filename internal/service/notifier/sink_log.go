package notifier

import (
	"context"
	"log/slog"
)

// LogSink records every export as a structured log line.
type LogSink struct {
	log *slog.Logger
}

func NewLogSink(log *slog.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Send(ctx context.Context, e Export) error {
	s.log.InfoContext(ctx, "test result",
		"session_id", e.SessionID,
		"category_id", e.CategoryID,
		"category", e.CategoryName,
		"score", e.Score,
		"name", e.Name,
		"username", e.Username,
	)
	return nil
}
