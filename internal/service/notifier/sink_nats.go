package notifier

import (
	"context"
	"encoding/json"
	"fmt"
)

// Publisher is satisfied by *nats.Conn.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NatsSink publishes each export as JSON on <prefix>.result.completed.
type NatsSink struct {
	pub     Publisher
	subject string
}

func NewNatsSink(pub Publisher, prefix string) *NatsSink {
	if prefix == "" {
		prefix = "surveybot"
	}
	return &NatsSink{pub: pub, subject: prefix + ".result.completed"}
}

func (s *NatsSink) Name() string { return "nats" }

func (s *NatsSink) Send(ctx context.Context, e Export) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(e)
	if err != nil {
		return &PermanentError{Err: fmt.Errorf("encode export: %w", err)}
	}
	if err := s.pub.Publish(s.subject, data); err != nil {
		return fmt.Errorf("nats publish %s: %w", s.subject, err)
	}
	return nil
}
