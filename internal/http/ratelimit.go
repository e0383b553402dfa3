package http

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterConfig bounds how often a single client may hit an endpoint.
type RateLimiterConfig struct {
	// Requests allowed per Window from one client address.
	Requests int
	Window   time.Duration
}

// DefaultMeRateLimit matches the moderate tier applied to session probes.
var DefaultMeRateLimit = RateLimiterConfig{Requests: 60, Window: time.Minute}

// RateLimiter tracks a token bucket per client address. Buckets idle past
// the window are evicted on the next sweep so the map does not grow without
// bound.
type RateLimiter struct {
	config RateLimiterConfig

	mu        sync.Mutex
	clients   map[string]*clientBucket
	lastSweep time.Time
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.Requests <= 0 {
		config.Requests = DefaultMeRateLimit.Requests
	}
	if config.Window <= 0 {
		config.Window = DefaultMeRateLimit.Window
	}
	return &RateLimiter{
		config:  config,
		clients: make(map[string]*clientBucket),
	}
}

// Allow consumes one token for the client and reports whether the request
// may proceed, along with the number of tokens left in the bucket.
func (l *RateLimiter) Allow(clientAddr string, now time.Time) (bool, int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweepLocked(now)

	bucket, ok := l.clients[clientAddr]
	if !ok {
		limit := rate.Every(l.config.Window / time.Duration(l.config.Requests))
		bucket = &clientBucket{limiter: rate.NewLimiter(limit, l.config.Requests)}
		l.clients[clientAddr] = bucket
	}
	bucket.lastSeen = now

	allowed := bucket.limiter.AllowN(now, 1)
	remaining := int(bucket.limiter.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}
	return allowed, remaining
}

func (l *RateLimiter) sweepLocked(now time.Time) {
	if now.Sub(l.lastSweep) < l.config.Window {
		return
	}
	l.lastSweep = now
	for addr, bucket := range l.clients {
		if now.Sub(bucket.lastSeen) > l.config.Window {
			delete(l.clients, addr)
		}
	}
}

// LimitByClient wraps a handler with the per-client limiter. Rejected
// requests receive 429; allowed ones carry X-RateLimit-Remaining.
func (l *RateLimiter) LimitByClient(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, remaining := l.Allow(clientAddress(r), time.Now())
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !allowed {
			responder := newResponder(nil)
			responder.writeJSON(r.Context(), w, http.StatusTooManyRequests, errorResponse{
				Error: "rate limit exceeded, try again later",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientAddress(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
