package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SlackSink posts a Block Kit message to an incoming-webhook URL.
type SlackSink struct {
	URL    string
	Client *http.Client
}

func (s *SlackSink) Name() string { return "slack" }

func (s *SlackSink) Deliver(ctx context.Context, n Notification) error {
	payload := map[string]any{
		"text": "🎯 New Interested Email",
		"blocks": []map[string]any{
			{
				"type": "header",
				"text": map[string]any{
					"type": "plain_text",
					"text": "🎯 New Interested Email",
				},
			},
			{
				"type": "section",
				"fields": []map[string]any{
					{"type": "mrkdwn", "text": fmt.Sprintf("*From:*\n%s", n.From)},
					{"type": "mrkdwn", "text": fmt.Sprintf("*Subject:*\n%s", n.Subject)},
				},
			},
			{
				"type": "section",
				"text": map[string]any{
					"type": "mrkdwn",
					"text": fmt.Sprintf("*Preview:*\n%s", n.Preview),
				},
			},
		},
	}
	return postJSON(ctx, s.Client, s.URL, payload)
}

// WebhookSink posts a flat JSON event to an arbitrary HTTP endpoint.
type WebhookSink struct {
	URL    string
	Client *http.Client
}

func (s *WebhookSink) Name() string { return "webhook" }

func (s *WebhookSink) Deliver(ctx context.Context, n Notification) error {
	payload := map[string]any{
		"event":    "email_interested",
		"emailId":  n.EmailID,
		"from":     n.From,
		"subject":  n.Subject,
		"date":     n.ReceivedAt.Format(time.RFC3339),
		"category": string(n.Category),
	}
	return postJSON(ctx, s.Client, s.URL, payload)
}

func postJSON(ctx context.Context, client *http.Client, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("status %d: %s", resp.StatusCode, msg)
	}
	return nil
}
