package security

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// RateLimiter limits credential attempts per client using a fixed window
type RateLimiter struct {
	visitors map[string]*visitor
	mu       sync.Mutex
	rate     int           // attempts per window
	window   time.Duration // time window
	now      func() time.Time

	// trustProxy keys clients by X-Forwarded-For / X-Real-IP instead of
	// the socket address. Only safe behind a proxy that overwrites them.
	trustProxy bool
}

type visitor struct {
	tokens     int
	lastRefill time.Time
}

// NewRateLimiter creates a new rate limiter allowing rate attempts per window
func NewRateLimiter(rate int, window time.Duration, trustProxy bool) *RateLimiter {
	return &RateLimiter{
		visitors:   make(map[string]*visitor),
		rate:       rate,
		window:     window,
		now:        time.Now,
		trustProxy: trustProxy,
	}
}

// ClientKey returns the key r is limited under
func (rl *RateLimiter) ClientKey(r *http.Request) string {
	return GetClientIP(r, rl.trustProxy)
}

// Allow checks if an attempt from key should be allowed
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v, exists := rl.visitors[key]
	if !exists || now.Sub(v.lastRefill) >= rl.window {
		v = &visitor{tokens: rl.rate, lastRefill: now}
		rl.visitors[key] = v
	}

	if v.tokens > 0 {
		v.tokens--
		return true
	}
	return false
}

// Run removes idle visitors every interval until ctx is done
func (rl *RateLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.cleanup()
		}
	}
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, v := range rl.visitors {
		if now.Sub(v.lastRefill) > rl.window*2 {
			delete(rl.visitors, key)
		}
	}
}

// GetClientIP extracts the client IP from the request. Forwarding headers
// are client-controlled, so they are read only when trustProxy is set.
func GetClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			first, _, _ := strings.Cut(forwarded, ",")
			return strings.TrimSpace(first)
		}
		if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
			return realIP
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
