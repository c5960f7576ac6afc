package ratelimit

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// window counts requests over a trailing period
type window struct {
	period time.Duration
	limit  int
	hits   []time.Time
}

func (w *window) prune(now time.Time) {
	cutoff := now.Add(-w.period)
	kept := w.hits[:0]
	for _, t := range w.hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	w.hits = kept
}

func (w *window) full() bool {
	return w.limit > 0 && len(w.hits) >= w.limit
}

func (w *window) remaining() int {
	return max(0, w.limit-len(w.hits))
}

// RateLimiter enforces per-minute, per-hour and per-day request limits.
// A limit of zero disables that window.
type RateLimiter struct {
	enabled bool
	now     func() time.Time

	mu     sync.Mutex
	minute window
	hour   window
	day    window
}

// NewRateLimiter creates a new rate limiter with the given limits
func NewRateLimiter(requestsPerMinute, requestsPerHour, requestsPerDay int, enabled bool) *RateLimiter {
	return &RateLimiter{
		enabled: enabled,
		now:     time.Now,
		minute:  window{period: time.Minute, limit: requestsPerMinute},
		hour:    window{period: time.Hour, limit: requestsPerHour},
		day:     window{period: 24 * time.Hour, limit: requestsPerDay},
	}
}

// AllowRequest records a request and reports whether it is within limits.
// Rejected requests are not recorded.
func (rl *RateLimiter) AllowRequest() bool {
	if !rl.enabled {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.cleanup(now)

	if rl.minute.full() || rl.hour.full() || rl.day.full() {
		return false
	}

	rl.minute.hits = append(rl.minute.hits, now)
	rl.hour.hits = append(rl.hour.hits, now)
	rl.day.hits = append(rl.day.hits, now)
	return true
}

func (rl *RateLimiter) cleanup(now time.Time) {
	rl.minute.prune(now)
	rl.hour.prune(now)
	rl.day.prune(now)
}

// Stats contains rate limiter statistics
type Stats struct {
	Enabled             bool `json:"enabled"`
	RequestsLastMinute  int  `json:"requests_last_minute"`
	RequestsLastHour    int  `json:"requests_last_hour"`
	RequestsLastDay     int  `json:"requests_last_day"`
	LimitPerMinute      int  `json:"limit_per_minute"`
	LimitPerHour        int  `json:"limit_per_hour"`
	LimitPerDay         int  `json:"limit_per_day"`
	RemainingThisMinute int  `json:"remaining_this_minute"`
	RemainingThisHour   int  `json:"remaining_this_hour"`
	RemainingThisDay    int  `json:"remaining_this_day"`
}

// GetStats returns current rate limiter statistics
func (rl *RateLimiter) GetStats() Stats {
	if !rl.enabled {
		return Stats{Enabled: false}
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.cleanup(rl.now())

	return Stats{
		Enabled:             true,
		RequestsLastMinute:  len(rl.minute.hits),
		RequestsLastHour:    len(rl.hour.hits),
		RequestsLastDay:     len(rl.day.hits),
		LimitPerMinute:      rl.minute.limit,
		LimitPerHour:        rl.hour.limit,
		LimitPerDay:         rl.day.limit,
		RemainingThisMinute: rl.minute.remaining(),
		RemainingThisHour:   rl.hour.remaining(),
		RemainingThisDay:    rl.day.remaining(),
	}
}

// Reset clears all tracked requests
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.minute.hits = nil
	rl.hour.hits = nil
	rl.day.hits = nil
}

// Middleware rejects requests over the limit with 429
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.AllowRequest() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"message": "Too many requests. Please try again later.",
				"stats":   rl.GetStats(),
			})
			return
		}
		c.Next()
	}
}
