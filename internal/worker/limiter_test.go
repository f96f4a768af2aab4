package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_AllowWithinBurst(t *testing.T) {
	limiter := NewLimiter(1, 3)

	for i := 0; i < 3; i++ {
		if !limiter.Allow("https://example.com/page") {
			t.Errorf("request %d within burst should be allowed", i)
		}
	}

	if limiter.Allow("https://example.com/page") {
		t.Error("request beyond burst should be denied")
	}
}

func TestLimiter_DomainsAreIndependent(t *testing.T) {
	limiter := NewLimiter(1, 1)

	if !limiter.Allow("https://a.example.com/") {
		t.Error("first request to a.example.com should be allowed")
	}
	if limiter.Allow("https://a.example.com/") {
		t.Error("second request to a.example.com should be denied")
	}
	if !limiter.Allow("https://b.example.com/") {
		t.Error("first request to b.example.com should be allowed")
	}
}

func TestLimiter_SetDomainRate(t *testing.T) {
	limiter := NewLimiter(1, 1)
	limiter.SetDomainRate("slow.example.com", 0.001, 1)

	if !limiter.Allow("https://slow.example.com/") {
		t.Error("burst request should be allowed")
	}
	if limiter.Allow("https://slow.example.com/") {
		t.Error("request beyond custom rate should be denied")
	}
}

func TestLimiter_WaitRespectsContext(t *testing.T) {
	limiter := NewLimiter(0.001, 1)

	// Exhaust the burst
	if err := limiter.Wait(context.Background(), "https://example.com/"); err != nil {
		t.Fatalf("first wait should succeed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(ctx, "https://example.com/"); err == nil {
		t.Error("expected wait to fail when context expires before clearance")
	}
}

func TestLimiter_InvalidURL(t *testing.T) {
	limiter := NewLimiter(1, 1)

	if limiter.Allow("://not-a-url") {
		t.Error("invalid URL should not be allowed")
	}
}
