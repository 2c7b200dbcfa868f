package sms

import (
	"context"
	"fmt"
	"sort"

	"github.com/arsmn/go-smsir/smsir"

	"github.com/Alijeyrad/surveybot/config"
)

// Client sends template messages through sms.ir.
type Client struct {
	client  *smsir.Client
	enabled bool
}

// NewFromConfig returns a no-op client when SMS is disabled.
func NewFromConfig(cfg config.SMSConfig) (*Client, error) {
	if !cfg.Enabled {
		return &Client{enabled: false}, nil
	}

	if cfg.SMSIR.APIKey == "" {
		return nil, fmt.Errorf("sms.ir API key required when SMS enabled")
	}

	client := smsir.NewClient().WithAuthentication(cfg.SMSIR.APIKey, cfg.SMSIR.SecretKey)

	return &Client{
		client:  client,
		enabled: true,
	}, nil
}

// SendTemplate sends an UltraFast template message to mobile. Every key in
// params must exist as a parameter in the sms.ir template.
func (c *Client) SendTemplate(ctx context.Context, mobile, templateID string, params map[string]string) error {
	if !c.enabled {
		return nil
	}

	if mobile == "" {
		return fmt.Errorf("mobile number is required")
	}
	if templateID == "" {
		return fmt.Errorf("template ID is required")
	}
	if len(params) == 0 {
		return fmt.Errorf("at least one template parameter is required")
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	req := &smsir.UltraFastSendRequest{
		Mobile:     mobile,
		TemplateID: templateID,
	}
	for _, k := range keys {
		req.Parameters = append(req.Parameters, smsir.UltraFastParameter{Key: k, Value: params[k]})
	}

	if _, err := c.client.Verification.UltraFastSend(ctx, req); err != nil {
		return fmt.Errorf("sms.ir send failed: %w", err)
	}
	return nil
}

func (c *Client) IsEnabled() bool {
	return c.enabled
}
