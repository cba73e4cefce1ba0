package signal

import (
	"testing"
	"time"
)

func TestSessionRateLimiterWindow(t *testing.T) {
	now := time.Unix(100, 0)
	rl := NewSessionRateLimiter(2, time.Second)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("first two should pass")
	}
	if rl.Allow("a") {
		t.Fatal("third within window should be limited")
	}
	if !rl.Allow("b") {
		t.Fatal("sessions are limited independently")
	}

	now = now.Add(1500 * time.Millisecond)
	if !rl.Allow("a") {
		t.Fatal("window should have slid")
	}

	rl.Forget("a")
	if _, ok := rl.history["a"]; ok {
		t.Fatal("history not forgotten")
	}
}
