package notifier

import (
	"context"

	"github.com/Alijeyrad/surveybot/pkg/email"
)

// Mailer is satisfied by *email.Client.
type Mailer interface {
	Send(ctx context.Context, m email.Message) error
}

type EmailSink struct {
	client Mailer
	to     []string
}

func NewEmailSink(client Mailer, to []string) *EmailSink {
	return &EmailSink{client: client, to: to}
}

func (s *EmailSink) Name() string { return "email" }

func (s *EmailSink) Send(ctx context.Context, e Export) error {
	msg := email.BuildResultEmail(s.to, email.ResultEmailData{
		Name:         e.Name,
		Phone:        e.Phone,
		Username:     e.Username,
		CategoryName: e.CategoryName,
		Score:        e.Score,
		SessionID:    e.SessionID,
		CompletedAt:  e.CompletedAt,
	})
	err := s.client.Send(ctx, msg)
	switch err.(type) {
	case email.ErrDisabled, email.ErrInvalidMessage:
		return &PermanentError{Err: err}
	}
	return err
}
