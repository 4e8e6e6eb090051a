// Package ratelimit provides a per-client sliding window rate limiter for
// the HTTP API.
package ratelimit

import (
	"net/http"
	"sync"
	"time"

	"moneybook/internal/log"
	"moneybook/internal/middleware/trace"
)

// Limiter tracks request timestamps per client IP and rejects clients that
// exceed the configured rate.
type Limiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
	logger   *log.Logger
	now      func() time.Time
	stop     chan struct{}
}

func New(limit int, window time.Duration, logger *log.Logger) *Limiter {
	l := &Limiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		logger:   logger.WithComponent(log.ComponentRateLimit),
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

// Allow reports whether a request from client may proceed and records it.
func (l *Limiter) Allow(client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	kept := l.requests[client][:0]
	for _, ts := range l.requests[client] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= l.limit {
		l.requests[client] = kept
		return false
	}
	l.requests[client] = append(kept, now)
	return true
}

// Handler wraps next with rate limiting keyed on the client IP.
func (l *Limiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := trace.ClientIP(r)
		if !l.Allow(client) {
			l.logger.Warn("rate limit exceeded",
				log.FieldClientIP, client,
				log.FieldPath, r.URL.Path,
			)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Close stops the background cleanup goroutine.
func (l *Limiter) Close() {
	close(l.stop)
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.stop:
			return
		}
	}
}

func (l *Limiter) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.window)
	for client, stamps := range l.requests {
		kept := stamps[:0]
		for _, ts := range stamps {
			if ts.After(cutoff) {
				kept = append(kept, ts)
			}
		}
		if len(kept) == 0 {
			delete(l.requests, client)
		} else {
			l.requests[client] = kept
		}
	}
}
