package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"parkspot/internal/ratelimiter"
)

func TestNewRateLimiter_FallsBackWhenRedisIsDown(t *testing.T) {
	rl := ratelimiter.Config{RequestsPerTimeFrame: 2, TimeFrame: time.Minute, Enabled: true}

	limiter, closeLimiter := newRateLimiter(rl, redisConfig{addr: "127.0.0.1:1"}, zap.NewNop().Sugar())
	defer closeLimiter()

	assert.IsType(t, &ratelimiter.FixedWindowRateLimiter{}, limiter)
	ok, _ := limiter.Allow(context.Background(), "10.0.0.1")
	assert.True(t, ok)
}

func TestNewRateLimiter_LocalWithoutRedis(t *testing.T) {
	rl := ratelimiter.Config{RequestsPerTimeFrame: 1, TimeFrame: time.Minute, Enabled: true}

	limiter, closeLimiter := newRateLimiter(rl, redisConfig{}, zap.NewNop().Sugar())
	defer closeLimiter()

	assert.IsType(t, &ratelimiter.FixedWindowRateLimiter{}, limiter)
}
