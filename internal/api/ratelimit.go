package api

import (
	"net"
	"net/http"
	"sync"
	"time"
)

const (
	defaultRateLimit  = 100
	defaultRateWindow = 15 * time.Minute
)

type windowState struct {
	count int
	start time.Time
}

// rateLimiter applies a fixed-window per-IP request limit.
type rateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	clients map[string]windowState
	now     func() time.Time
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		limit:   limit,
		window:  window,
		clients: make(map[string]windowState),
		now:     time.Now,
	}
}

// allow records one request from ip and reports whether it is within limit.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	state, ok := rl.clients[ip]
	if !ok || now.Sub(state.start) > rl.window {
		rl.clients[ip] = windowState{count: 1, start: now}
		return true
	}

	state.count++
	rl.clients[ip] = state
	return state.count <= rl.limit
}

func (rl *rateLimiter) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if !rl.allow(ip) {
			respondError(w, http.StatusTooManyRequests, "Too many requests. Please try again later.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
