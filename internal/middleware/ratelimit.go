package middleware

import (
	"net/http"
	"sync"
	"time"
)

// windowEntry tracks one client's hits inside the current window
type windowEntry struct {
	count   int
	resetAt time.Time
}

// RateLimiter is a fixed-window per-client limiter. It is an explicitly
// owned component: construct once at startup and share via the middleware.
type RateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*windowEntry
	lastSweep time.Time

	max    int
	window time.Duration
	now    func() time.Time
}

// NewRateLimiter creates a limiter allowing max requests per window
func NewRateLimiter(max int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		clients:   make(map[string]*windowEntry),
		lastSweep: time.Now(),
		max:       max,
		window:    window,
		now:       time.Now,
	}
}

// Allow records a hit for the client and reports whether it is within the
// window budget
func (rl *RateLimiter) Allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.sweep(now)

	entry, ok := rl.clients[client]
	if !ok || now.After(entry.resetAt) {
		rl.clients[client] = &windowEntry{count: 1, resetAt: now.Add(rl.window)}
		return true
	}

	entry.count++
	return entry.count <= rl.max
}

// sweep drops expired windows so the client map does not grow without
// bound. At most one full scan per window. Caller holds the lock.
func (rl *RateLimiter) sweep(now time.Time) {
	if now.Sub(rl.lastSweep) < rl.window {
		return
	}

	for client, entry := range rl.clients {
		if now.After(entry.resetAt) {
			delete(rl.clients, client)
		}
	}
	rl.lastSweep = now
}

// RateLimit rejects clients exceeding the fixed-window budget with 429
func (m *Middleware) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := clientIP(r)

		if !m.limiter.Allow(client) {
			m.log.Warnf("rate limit exceeded for client %s", client)
			w.Header().Set("Retry-After", "60")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate limit exceeded"}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}
