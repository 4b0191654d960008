package ratelimiting_test

import (
	"testing"

	"github.com/lumen-gg/standing/internal/ratelimiting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucketRateLimiter(t *testing.T) {
	t.Parallel()

	limiter, stop := ratelimiting.NewTokenBucketRateLimiter(
		ratelimiting.RefillPerSecond(1),
		ratelimiting.BurstSize(2),
	)
	defer stop()

	// Keys are limited independently
	assert.True(t, limiter.Consume("channel: cm"))
	assert.True(t, limiter.Consume("channel: cm"))
	assert.False(t, limiter.Consume("channel: cm"))

	assert.True(t, limiter.Consume("channel: staff"))
}

func TestAllowAllRateLimiter(t *testing.T) {
	t.Parallel()

	limiter := ratelimiting.NewAllowAllRateLimiter()
	for i := 0; i < 100; i++ {
		require.True(t, limiter.Consume("any"))
	}
}
