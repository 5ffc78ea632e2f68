package services

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type visitor struct {
	hits     []time.Time
	lastSeen time.Time
}

// IPRateLimiter allows at most limit requests per client address in any
// sliding window.
type IPRateLimiter struct {
	visitors map[string]*visitor
	mu       sync.Mutex
	limit    int
	window   time.Duration
	logger   *slog.Logger
	now      func() time.Time
	warn     rate.Sometimes
}

func NewIPRateLimiter(limit int, window time.Duration, logger *slog.Logger) *IPRateLimiter {
	return &IPRateLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		window:   window,
		logger:   logger,
		now:      time.Now,
		warn:     rate.Sometimes{Interval: 10 * time.Second},
	}
}

// PerMinute allows n requests in any 60 second window.
func PerMinute(n int, logger *slog.Logger) *IPRateLimiter {
	return NewIPRateLimiter(n, time.Minute, logger)
}

// Allow reports whether ip may proceed and records the request when it may.
// When it may not, the returned duration is the wait until the oldest
// request in the window expires.
func (i *IPRateLimiter) Allow(ip string) (bool, time.Duration) {
	i.mu.Lock()
	defer i.mu.Unlock()

	now := i.now()
	v, exists := i.visitors[ip]
	if !exists {
		v = &visitor{hits: make([]time.Time, 0, i.limit)}
		i.visitors[ip] = v
	}
	v.lastSeen = now

	cutoff := now.Add(-i.window)
	kept := v.hits[:0]
	for _, hit := range v.hits {
		if hit.After(cutoff) {
			kept = append(kept, hit)
		}
	}
	v.hits = kept

	if len(v.hits) >= i.limit {
		i.warn.Do(func() {
			i.logger.Warn("Rate limit exceeded", "ip", ip, "limit", i.limit, "window", i.window)
		})
		return false, v.hits[0].Add(i.window).Sub(now)
	}

	v.hits = append(v.hits, now)
	return true, 0
}

// RetryAfterSeconds rounds d up to whole seconds, at least one.
func RetryAfterSeconds(d time.Duration) int {
	return int(math.Max(1, math.Ceil(d.Seconds())))
}

// StartCleanup evicts visitors idle for longer than idle, checking every
// interval, until ctx is done.
func (i *IPRateLimiter) StartCleanup(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := i.evictIdle(idle); n > 0 {
				i.logger.Debug("Evicted idle rate limiter entries", "count", n)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (i *IPRateLimiter) evictIdle(idle time.Duration) int {
	i.mu.Lock()
	defer i.mu.Unlock()

	cutoff := i.now().Add(-idle)
	evicted := 0
	for ip, v := range i.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(i.visitors, ip)
			evicted++
		}
	}
	return evicted
}

func (i *IPRateLimiter) size() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.visitors)
}
