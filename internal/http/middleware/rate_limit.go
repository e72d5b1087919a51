package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hi-deen/PharmaTrack/internal/utils"
)

// RateLimiter counts requests per client IP within a rolling window.
// Counters live in process memory; under multi-process deployment the
// limit is approximate, which is acceptable for this service.
type RateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu    sync.Mutex
	items map[string]*rateEntry
}

type rateEntry struct {
	count int
	reset time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:  limit,
		window: window,
		now:    time.Now,
		items:  make(map[string]*rateEntry),
	}
}

// WithClock overrides the clock, for tests.
func (rl *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	rl.now = now
	return rl
}

// Allow records a request for key and reports whether it is within the
// limit, plus the remaining budget and when the window resets.
func (rl *RateLimiter) Allow(key string) (ok bool, remaining int, reset time.Time) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, exists := rl.items[key]
	if !exists || now.After(entry.reset) {
		entry = &rateEntry{count: 0, reset: now.Add(rl.window)}
		rl.items[key] = entry
	}
	entry.count++

	remaining = rl.limit - entry.count
	if remaining < 0 {
		remaining = 0
	}
	return entry.count <= rl.limit, remaining, entry.reset
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, remaining, reset := rl.Allow(c.ClientIP())

		retry := int(reset.Sub(rl.now()).Seconds())
		if retry < 0 {
			retry = 0
		}
		c.Header("RateLimit-Limit", fmt.Sprintf("%d", rl.limit))
		c.Header("RateLimit-Remaining", fmt.Sprintf("%d", remaining))
		c.Header("RateLimit-Reset", fmt.Sprintf("%d", retry))

		if !ok {
			c.Header("Retry-After", fmt.Sprintf("%d", retry))
			utils.RespondError(c, utils.NewAppError(http.StatusTooManyRequests, utils.CodeRateLimit, "too many requests, try again later", nil))
			c.Abort()
			return
		}

		c.Next()
	}
}
