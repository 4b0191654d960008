package notifier

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumen-gg/standing/internal/ratelimiting"
)

func TestWebhookNotifierDeliversToConfiguredChannel(t *testing.T) {
	t.Parallel()

	received := make(chan string, 10)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var payload webhookPayload
		require.NoError(t, json.Unmarshal(body, &payload))
		received <- payload.Content
	}))
	defer server.Close()

	n := NewWebhookNotifier(
		map[string]string{"cm": server.URL},
		ratelimiting.NewAllowAllRateLimiter(),
	)

	n.Notify(context.Background(), ChannelCM, "player restricted")

	select {
	case message := <-received:
		assert.Equal(t, "player restricted", message)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for webhook delivery")
	}

	// Channels without a webhook are dropped without error
	n.Notify(context.Background(), ChannelStaff, "never delivered")

	select {
	case message := <-received:
		t.Fatalf("unexpected delivery: %q", message)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWebhookNotifierRateLimitsPerChannel(t *testing.T) {
	t.Parallel()

	received := make(chan string, 10)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var payload webhookPayload
		require.NoError(t, json.Unmarshal(body, &payload))
		received <- payload.Content
	}))
	defer server.Close()

	limiter, stop := ratelimiting.NewTokenBucketRateLimiter(
		ratelimiting.RefillPerSecond(0),
		ratelimiting.BurstSize(1),
	)
	defer stop()

	n := NewWebhookNotifier(
		map[string]string{"cm": server.URL, "staff": server.URL},
		limiter,
	)

	n.Notify(context.Background(), ChannelCM, "first")
	n.Notify(context.Background(), ChannelCM, "second")

	select {
	case message := <-received:
		assert.Equal(t, "first", message)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for webhook delivery")
	}

	select {
	case message := <-received:
		t.Fatalf("unexpected delivery past the rate limit: %q", message)
	case <-time.After(100 * time.Millisecond):
	}

	// Other channels have their own bucket
	n.Notify(context.Background(), ChannelStaff, "staff message")
	select {
	case message := <-received:
		assert.Equal(t, "staff message", message)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for webhook delivery")
	}
}
