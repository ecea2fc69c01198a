// Package middleware contains the Gin middleware shared by the song-card API.
//
// This file implements the edge throttle: an in-process token bucket per
// client IP built on golang.org/x/time/rate. It caps raw request rate in
// front of every route and is independent of the per-action hourly windows
// that the workflow enforces against the store. Idle buckets are evicted
// opportunistically.
package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// KeyFunc maps a request to a bucket identity.
type KeyFunc func(*gin.Context) string

// KeyByClientIP keys buckets by gin's resolved client IP, which honours the
// engine's trusted proxy settings.
func KeyByClientIP() KeyFunc {
	return func(c *gin.Context) string { return "ip:" + c.ClientIP() }
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a per-key token bucket limiter, safe for concurrent use.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	keyFn KeyFunc

	mu       sync.Mutex
	visitors map[string]*visitor
	ttl      time.Duration
	lookups  uint64
	now      func() time.Time
}

// NewRateLimiter returns a limiter refilling rps tokens per second with the
// given burst (coerced to at least 1).
func NewRateLimiter(rps float64, burst int, keyFn KeyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	if keyFn == nil {
		keyFn = KeyByClientIP()
	}
	return &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		keyFn:    keyFn,
		visitors: make(map[string]*visitor),
		ttl:      10 * time.Minute,
		now:      time.Now,
	}
}

// bucket returns the limiter for key. Every 5000 lookups idle buckets are
// swept first, so a stale bucket is dropped even when it is the one asked for.
func (rl *RateLimiter) bucket(key string) *rate.Limiter {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.lookups++
	if rl.lookups >= 5000 {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) >= rl.ttl {
				delete(rl.visitors, k)
			}
		}
		rl.lookups = 0
	}

	if v, ok := rl.visitors[key]; ok {
		v.lastSeen = now
		return v.limiter
	}
	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.visitors[key] = &visitor{limiter: lim, lastSeen: now}
	return lim
}

// Handler enforces the buckets. Throttled requests get 429 with Retry-After
// and the standard error envelope.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsReplay(c) {
			c.Next()
			return
		}
		now := rl.now()
		r := rl.bucket(rl.keyFn(c)).ReserveN(now, 1)
		retry := "1"
		if r.OK() {
			delay := r.DelayFrom(now)
			if delay == 0 {
				c.Next()
				return
			}
			r.CancelAt(now)
			retry = strconv.Itoa(int(delay/time.Second) + 1)
		}
		c.Header("Retry-After", retry)
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": RequestIDFrom(c),
			"error":      "rate_limited",
			"message":    "too many requests",
		})
	}
}
