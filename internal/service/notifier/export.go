// Package notifier fans finished attempts out to side channels (Google
// Sheets, email, SMS, NATS, a Telegram chat, logs) without ever blocking
// the caller.
package notifier

import (
	"context"
	"time"
)

// Export is one completed attempt as seen by the sinks.
type Export struct {
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	Username     string    `json:"username,omitempty"`
	Score        int       `json:"score"`
	CategoryID   int64     `json:"category_id"`
	CategoryName string    `json:"category"`
	SessionID    int64     `json:"session_id"`
	CompletedAt  time.Time `json:"completed_at"`
}

type Sink interface {
	Name() string
	Send(ctx context.Context, e Export) error
}

// Notifier is what the engine depends on. Enqueue reports whether the
// export was accepted.
type Notifier interface {
	Enqueue(e Export) bool
}

// Discard accepts and drops every export.
type Discard struct{}

func (Discard) Enqueue(Export) bool { return true }
