package notifier

import (
	"context"
	"strconv"
)

// TemplateSender is satisfied by *sms.Client.
type TemplateSender interface {
	SendTemplate(ctx context.Context, mobile, templateID string, params map[string]string) error
}

// SMSSink texts the administrator through an sms.ir template with the
// parameters name, category and score.
type SMSSink struct {
	client     TemplateSender
	mobile     string
	templateID string
}

func NewSMSSink(client TemplateSender, mobile, templateID string) *SMSSink {
	return &SMSSink{client: client, mobile: mobile, templateID: templateID}
}

func (s *SMSSink) Name() string { return "sms" }

func (s *SMSSink) Send(ctx context.Context, e Export) error {
	name := e.Name
	if name == "" {
		name = "-"
	}
	return s.client.SendTemplate(ctx, s.mobile, s.templateID, map[string]string{
		"name":     name,
		"category": e.CategoryName,
		"score":    strconv.Itoa(e.Score),
	})
}
