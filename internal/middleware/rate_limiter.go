package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fakhrymubarak/weather-text/internal/model"
	"golang.org/x/time/rate"
)

// visitor holds the rate limiter and last seen time for a specific IP address.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter applies a token bucket per client IP.
type RateLimiter struct {
	rate       rate.Limit
	burst      int
	staleAfter time.Duration

	mu       sync.Mutex
	visitors map[string]*visitor
}

// NewRateLimiter allows perSecond requests per second per IP with the given burst.
// Visitors idle for longer than staleAfter are dropped by Cleanup.
func NewRateLimiter(perSecond float64, burst int, staleAfter time.Duration) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	if staleAfter <= 0 {
		staleAfter = 3 * time.Minute
	}
	return &RateLimiter{
		rate:       rate.Limit(perSecond),
		burst:      burst,
		staleAfter: staleAfter,
		visitors:   make(map[string]*visitor),
	}
}

// getLimiter returns the rate limiter for the given IP address, creating one if it does not exist.
func (rl *RateLimiter) getLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	v, exists := rl.visitors[ip]
	if !exists {
		limiter := rate.NewLimiter(rl.rate, rl.burst)
		rl.visitors[ip] = &visitor{limiter, time.Now()}
		return limiter
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// cleanup removes visitors that have not been seen since the cutoff.
func (rl *RateLimiter) cleanup(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.staleAfter {
			delete(rl.visitors, ip)
		}
	}
}

// Cleanup prunes stale visitors every interval until ctx is done.
func (rl *RateLimiter) Cleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			rl.cleanup(now)
		}
	}
}

// Len reports the number of tracked visitors.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

// getIP extracts the client's IP address from the HTTP request, considering X-Forwarded-For headers.
func getIP(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr // fallback
	}
	return ip
}

// Middleware responds with 429 and a JSON error once a client exceeds its bucket.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.getLimiter(getIP(r)).Allow() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			errMsg := fmt.Sprintf("Rate limit exceeded: burst of %d per user/IP", rl.burst)
			resp := model.Response{
				Error:   &errMsg,
				Message: "Too Many Requests",
			}
			_ = json.NewEncoder(w).Encode(resp)
			return
		}
		next.ServeHTTP(w, r)
	})
}
