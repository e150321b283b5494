package signal

import (
	"testing"
	"time"
)

func TestCreateRateLimiter(t *testing.T) {
	now := time.Unix(1000, 0)
	rl := NewCreateRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("first two attempts refused")
	}
	if rl.Allow("a") {
		t.Fatal("third attempt inside window allowed")
	}
	if !rl.Allow("b") {
		t.Fatal("limit leaked across peers")
	}

	now = now.Add(time.Minute + time.Second)
	if !rl.Allow("a") {
		t.Fatal("attempt after window refused")
	}
}

func TestCreateRateLimiterDisabled(t *testing.T) {
	rl := NewCreateRateLimiter(0, time.Minute)
	for range 10 {
		if !rl.Allow("a") {
			t.Fatal("disabled limiter refused")
		}
	}
}
