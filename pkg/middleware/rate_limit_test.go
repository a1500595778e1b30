package middleware

import (
	"io"
	"testing"
	"time"

	"reservio/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: logger.ERROR, Output: io.Discard})
}

func TestRateLimiterAllowsUpToLimit(t *testing.T) {
	rl := NewClientRateLimiter(3, time.Minute, testLogger())
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Error("request over the limit should be rejected")
	}
}

func TestRateLimiterIsolatesClients(t *testing.T) {
	rl := NewClientRateLimiter(1, time.Minute, testLogger())
	defer rl.Stop()

	if !rl.Allow("1.2.3.4") {
		t.Fatal("first client should be allowed")
	}
	if !rl.Allow("5.6.7.8") {
		t.Error("second client has its own budget")
	}
}

func TestRateLimiterWindowSlides(t *testing.T) {
	rl := NewClientRateLimiter(1, 20*time.Millisecond, testLogger())
	defer rl.Stop()

	if !rl.Allow("1.2.3.4") {
		t.Fatal("first request should be allowed")
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("second request inside the window should be rejected")
	}

	time.Sleep(30 * time.Millisecond)
	if !rl.Allow("1.2.3.4") {
		t.Error("request after the window should be allowed")
	}
}
