package ratelimit

import (
	"testing"
	"time"

	"moneybook/internal/log"
)

func newTestLimiter(limit int, window time.Duration) (*Limiter, *time.Time) {
	l := New(limit, window, log.New(log.ComponentRateLimit, nil))
	t := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return t }
	return l, &t
}

func TestAllowWithinLimit(t *testing.T) {
	l, _ := newTestLimiter(3, time.Minute)
	defer l.Close()

	for i := 0; i < 3; i++ {
		if !l.Allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow("10.0.0.1") {
		t.Fatal("fourth request must be rejected")
	}
}

func TestClientsAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(1, time.Minute)
	defer l.Close()

	if !l.Allow("10.0.0.1") {
		t.Fatal("first client should be allowed")
	}
	if !l.Allow("10.0.0.2") {
		t.Fatal("second client should be allowed")
	}
}

func TestWindowSlides(t *testing.T) {
	l, now := newTestLimiter(1, time.Minute)
	defer l.Close()

	if !l.Allow("10.0.0.1") {
		t.Fatal("first request should be allowed")
	}
	if l.Allow("10.0.0.1") {
		t.Fatal("second request inside the window must be rejected")
	}

	*now = now.Add(61 * time.Second)
	if !l.Allow("10.0.0.1") {
		t.Fatal("request after the window must be allowed")
	}
}

func TestCleanupDropsIdleClients(t *testing.T) {
	l, now := newTestLimiter(5, time.Minute)
	defer l.Close()

	l.Allow("10.0.0.1")
	*now = now.Add(2 * time.Minute)
	l.cleanup()

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.requests) != 0 {
		t.Fatalf("idle clients must be dropped, got %d entries", len(l.requests))
	}
}
