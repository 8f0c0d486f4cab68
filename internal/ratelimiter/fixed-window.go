package ratelimiter

import (
	"context"
	"sync"
	"time"
)

type FixedWindowRateLimiter struct {
	sync.Mutex
	clients map[string]*window
	limit   int
	window  time.Duration
	now     func() time.Time
}

type window struct {
	count   int
	resetAt time.Time
}

func NewFixedWindowLimiter(limit int, w time.Duration) *FixedWindowRateLimiter {
	return &FixedWindowRateLimiter{
		clients: make(map[string]*window),
		limit:   limit,
		window:  w,
		now:     time.Now,
	}
}

func (rl *FixedWindowRateLimiter) Allow(_ context.Context, key string) (bool, time.Duration) {
	rl.Lock()
	defer rl.Unlock()

	now := rl.now()
	rl.sweep(now)

	win, ok := rl.clients[key]
	if !ok {
		win = &window{resetAt: now.Add(rl.window)}
		rl.clients[key] = win
	}

	if win.count < rl.limit {
		win.count++
		return true, 0
	}

	return false, win.resetAt.Sub(now)
}

// sweep drops expired windows so idle clients do not accumulate.
func (rl *FixedWindowRateLimiter) sweep(now time.Time) {
	for k, w := range rl.clients {
		if !now.Before(w.resetAt) {
			delete(rl.clients, k)
		}
	}
}
