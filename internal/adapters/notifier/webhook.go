package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/lumen-gg/standing/internal/logging"
	"github.com/lumen-gg/standing/internal/ratelimiting"
	"github.com/lumen-gg/standing/internal/reporting"
)

type WebhookNotifier struct {
	webhookByChannel map[string]string
	httpClient       *http.Client
	limiter          ratelimiting.RateLimiter
}

// NewWebhookNotifier posts messages to the webhook URL configured per
// channel. Channels without a webhook are silently dropped. The limiter is
// keyed by channel so a noisy channel cannot starve the others.
func NewWebhookNotifier(webhookByChannel map[string]string, limiter ratelimiting.RateLimiter) *WebhookNotifier {
	return &WebhookNotifier{
		webhookByChannel: webhookByChannel,
		httpClient:       &http.Client{Timeout: 10 * time.Second},
		limiter:          limiter,
	}
}

type webhookPayload struct {
	Content string `json:"content"`
}

func (n *WebhookNotifier) Notify(ctx context.Context, channel Channel, message string) {
	logger := logging.FromContext(ctx)

	url, ok := n.webhookByChannel[string(channel)]
	if !ok || url == "" {
		logger.Debug("No webhook configured for channel", "channel", string(channel))
		return
	}

	if !n.limiter.Consume(fmt.Sprintf("channel: %s", channel)) {
		logger.Warn("Dropped notification due to rate limit", "channel", string(channel))
		return
	}

	// Delivery must not block or fail the calling operation.
	go n.deliver(context.WithoutCancel(ctx), channel, url, message)
}

func (n *WebhookNotifier) deliver(ctx context.Context, channel Channel, url, message string) {
	body, err := json.Marshal(webhookPayload{Content: message})
	if err != nil {
		err := fmt.Errorf("failed to marshal webhook payload: %w", err)
		reporting.Report(ctx, err, map[string]string{"channel": string(channel)})
		return
	}

	requestCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	request, err := http.NewRequestWithContext(requestCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		err := fmt.Errorf("failed to create webhook request: %w", err)
		reporting.Report(ctx, err, map[string]string{"channel": string(channel)})
		return
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := n.httpClient.Do(request)
	if err != nil {
		logging.FromContext(ctx).Error("Failed to deliver notification", "channel", string(channel), "error", err.Error())
		return
	}
	defer response.Body.Close()

	if response.StatusCode >= 400 {
		logging.FromContext(ctx).Error("Notification webhook returned error", "channel", string(channel), "statusCode", response.StatusCode)
	}
}
