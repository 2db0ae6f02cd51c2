// Package ratelimit caps how many operations run per minute, used to
// keep broadcast sends under the messenger's flood limits.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

type Limiter struct {
	mu        sync.Mutex
	perMinute int
	window    time.Time
	used      int
}

func New(perMinute int) *Limiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	return &Limiter{perMinute: perMinute}
}

// Allow reports whether another operation fits in the current minute
// and consumes a slot when it does.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.window) >= time.Minute {
		l.window = now
		l.used = 0
	}
	if l.used >= l.perMinute {
		return false
	}
	l.used++
	return true
}

// Wait blocks until a slot is available or the context is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		if l.Allow() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
}
