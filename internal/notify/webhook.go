package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Webhook posts alert messages to Slack and Discord incoming-webhook
// URLs. Either URL may be empty, in which case that channel is skipped.
type Webhook struct {
	slackURL   string
	discordURL string
	client     *http.Client
}

func NewWebhook(slackURL, discordURL string) *Webhook {
	return &Webhook{
		slackURL:   slackURL,
		discordURL: discordURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type slackPayload struct {
	Text string `json:"text"`
}

type discordPayload struct {
	Content string `json:"content"`
}

// Notify fans the message out to every configured channel. The first
// failure is returned so the queue consumer can retry the delivery.
func (w *Webhook) Notify(ctx context.Context, message string) error {
	if w.slackURL != "" {
		if err := w.post(ctx, w.slackURL, slackPayload{Text: message}); err != nil {
			return fmt.Errorf("slack webhook: %w", err)
		}
	}
	if w.discordURL != "" {
		if err := w.post(ctx, w.discordURL, discordPayload{Content: message}); err != nil {
			return fmt.Errorf("discord webhook: %w", err)
		}
	}
	return nil
}

func (w *Webhook) post(ctx context.Context, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
