package docent

import (
	"testing"
	"time"
)

func TestDescribeLimiterBlocksAfterMax(t *testing.T) {
	limiter := NewDescribeLimiter(2, 200*time.Millisecond)
	defer limiter.Stop()
	ip := "203.0.113.10"

	if !limiter.Allow(ip) {
		t.Fatalf("expected first request to be allowed")
	}
	if !limiter.Allow(ip) {
		t.Fatalf("expected second request to be allowed")
	}
	if limiter.Allow(ip) {
		t.Fatalf("expected third request to be blocked")
	}
}

func TestDescribeLimiterResetsAfterWindow(t *testing.T) {
	limiter := NewDescribeLimiter(1, 150*time.Millisecond)
	defer limiter.Stop()
	ip := "203.0.113.20"

	if !limiter.Allow(ip) {
		t.Fatalf("expected first request to be allowed")
	}
	if limiter.Allow(ip) {
		t.Fatalf("expected second request to be blocked")
	}

	time.Sleep(200 * time.Millisecond)
	if !limiter.Allow(ip) {
		t.Fatalf("expected request after window to be allowed")
	}
}

func TestDescribeLimiterIsPerIP(t *testing.T) {
	limiter := NewDescribeLimiter(1, 200*time.Millisecond)
	defer limiter.Stop()

	if !limiter.Allow("203.0.113.30") {
		t.Fatalf("expected first ip to be allowed")
	}
	if !limiter.Allow("203.0.113.31") {
		t.Fatalf("expected second ip to be allowed independently")
	}
	if limiter.Allow("203.0.113.30") {
		t.Fatalf("expected first ip to be blocked after max")
	}
}

func TestDescribeLimiterDisabled(t *testing.T) {
	limiter := NewDescribeLimiter(0, time.Minute)
	defer limiter.Stop()

	for i := 0; i < 50; i++ {
		if !limiter.Allow("203.0.113.50") {
			t.Fatalf("request %d blocked with limiting disabled", i)
		}
	}
}

func TestDescribeLimiterStopTwice(t *testing.T) {
	limiter := NewDescribeLimiter(1, time.Minute)
	limiter.Stop()
	limiter.Stop()
}
