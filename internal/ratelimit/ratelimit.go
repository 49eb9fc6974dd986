// Package ratelimit enforces sliding-window request limits per client.
package ratelimit

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// maxClients triggers pruning of idle clients
const maxClients = 4096

// Limits are the per-window caps; zero disables a window
type Limits struct {
	PerMinute int
	PerHour   int
	PerDay    int
}

// RateLimiter tracks and enforces request rate limits for each client key
type RateLimiter struct {
	limits  Limits
	enabled bool
	now     func() time.Time

	mu      sync.Mutex
	clients map[string]*windows
}

// windows holds the request times of one client
type windows struct {
	minute []time.Time
	hour   []time.Time
	day    []time.Time
}

// NewRateLimiter creates a new rate limiter with the given limits
func NewRateLimiter(limits Limits, enabled bool) *RateLimiter {
	return &RateLimiter{
		limits:  limits,
		enabled: enabled,
		now:     time.Now,
		clients: make(map[string]*windows),
	}
}

// AllowRequest checks if a request from key is allowed and records it when it is
func (rl *RateLimiter) AllowRequest(key string) bool {
	if !rl.enabled {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w := rl.clients[key]
	if w == nil {
		if len(rl.clients) >= maxClients {
			rl.pruneLocked(now)
		}
		w = &windows{}
		rl.clients[key] = w
	}
	w.cleanup(now)

	if exceeded(len(w.minute), rl.limits.PerMinute) ||
		exceeded(len(w.hour), rl.limits.PerHour) ||
		exceeded(len(w.day), rl.limits.PerDay) {
		return false
	}

	w.minute = append(w.minute, now)
	w.hour = append(w.hour, now)
	w.day = append(w.day, now)
	return true
}

func exceeded(count, limit int) bool {
	return limit > 0 && count >= limit
}

// cleanup removes expired entries from the time windows
func (w *windows) cleanup(now time.Time) {
	w.minute = filterTimes(w.minute, now.Add(-time.Minute))
	w.hour = filterTimes(w.hour, now.Add(-time.Hour))
	w.day = filterTimes(w.day, now.Add(-24*time.Hour))
}

// filterTimes keeps only times after the cutoff
func filterTimes(times []time.Time, cutoff time.Time) []time.Time {
	result := times[:0]
	for _, t := range times {
		if t.After(cutoff) {
			result = append(result, t)
		}
	}
	return result
}

// GetStats returns statistics for one client key
func (rl *RateLimiter) GetStats(key string) Stats {
	if !rl.enabled {
		return Stats{Enabled: false}
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w := rl.clients[key]
	if w == nil {
		w = &windows{}
	}
	w.cleanup(rl.now())

	return Stats{
		Enabled:             true,
		Clients:             len(rl.clients),
		RequestsLastMinute:  len(w.minute),
		RequestsLastHour:    len(w.hour),
		RequestsLastDay:     len(w.day),
		LimitPerMinute:      rl.limits.PerMinute,
		LimitPerHour:        rl.limits.PerHour,
		LimitPerDay:         rl.limits.PerDay,
		RemainingThisMinute: remaining(rl.limits.PerMinute, len(w.minute)),
		RemainingThisHour:   remaining(rl.limits.PerHour, len(w.hour)),
		RemainingThisDay:    remaining(rl.limits.PerDay, len(w.day)),
	}
}

// remaining returns -1 for an unlimited window
func remaining(limit, used int) int {
	if limit <= 0 {
		return -1
	}
	return max(0, limit-used)
}

// Stats contains rate limiter statistics
type Stats struct {
	Enabled             bool `json:"enabled"`
	Clients             int  `json:"clients"`
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

// Prune drops clients without requests in the last day
func (rl *RateLimiter) Prune() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.pruneLocked(rl.now())
}

func (rl *RateLimiter) pruneLocked(now time.Time) int {
	dropped := 0
	for key, w := range rl.clients {
		w.cleanup(now)
		if len(w.day) == 0 {
			delete(rl.clients, key)
			dropped++
		}
	}
	return dropped
}

// Reset clears all tracked requests
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.clients = make(map[string]*windows)
}

// Middleware rejects requests over the limit with 429, keyed by client IP
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if !rl.AllowRequest(key) {
			stats := rl.GetStats(key)
			log.WithField("client", key).Warn("RateLimit: request rejected")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Please try again later.",
				"stats": stats,
			})
			return
		}
		c.Next()
	}
}
