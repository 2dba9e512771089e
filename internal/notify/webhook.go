package notify

import (
	"context"
	"fmt"
	"time"

	"incubator_monitor/internal/models"

	"github.com/go-resty/resty/v2"
)

// Webhook POSTs alert events as JSON.
type Webhook struct {
	client *resty.Client
	url    string
}

func NewWebhook(url string, timeout time.Duration) *Webhook {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &Webhook{client: client, url: url}
}

func (w *Webhook) Notify(ctx context.Context, a models.AlertRecord) error {
	resp, err := w.client.R().
		SetContext(ctx).
		SetBody(newEvent(a)).
		Post(w.url)
	if err != nil {
		return fmt.Errorf("webhook post alert %s: %w", a.ID, err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook post alert %s: status %d", a.ID, resp.StatusCode())
	}
	return nil
}
