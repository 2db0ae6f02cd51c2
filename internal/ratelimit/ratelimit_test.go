package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestAllowCapsPerMinute(t *testing.T) {
	l := New(3)

	for i := 0; i < 3; i++ {
		if !l.Allow() {
			t.Fatalf("call %d should be allowed", i+1)
		}
	}
	if l.Allow() {
		t.Error("fourth call within the minute should be denied")
	}
}

func TestWaitHonorsContext(t *testing.T) {
	l := New(1)
	if !l.Allow() {
		t.Fatal("first slot should be free")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx); err == nil {
		t.Error("Wait should fail once the context expires")
	}
}

func TestZeroLimitIsClamped(t *testing.T) {
	l := New(0)
	if !l.Allow() {
		t.Error("clamped limiter must allow at least one call")
	}
}
