package api

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultLimiterSize 最多跟踪的 key 数量
const DefaultLimiterSize = 4096

// CooldownLimiter allows one call per key per window. A key is stamped only
// when a call is let through, so rejected calls do not extend the wait.
type CooldownLimiter struct {
	mu     sync.Mutex
	window time.Duration
	last   *lru.Cache[string, time.Time]
	now    func() time.Time
}

func NewCooldownLimiter(window time.Duration, size int) (*CooldownLimiter, error) {
	if size <= 0 {
		size = DefaultLimiterSize
	}
	cache, err := lru.New[string, time.Time](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create limiter cache: %w", err)
	}
	return &CooldownLimiter{
		window: window,
		last:   cache,
		now:    time.Now,
	}, nil
}

// Allow reports whether key may proceed; when it may not, the remaining wait is returned.
func (l *CooldownLimiter) Allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if last, ok := l.last.Get(key); ok {
		if elapsed := now.Sub(last); elapsed < l.window {
			return false, l.window - elapsed
		}
	}
	l.last.Add(key, now)
	return true, 0
}

func (l *CooldownLimiter) Window() time.Duration {
	return l.window
}

// LimitHeader renders the window the way clients see it, e.g. "1 per 1m".
func (l *CooldownLimiter) LimitHeader() string {
	return "1 per " + formatWindow(l.window)
}

func formatWindow(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return fmt.Sprintf("%dh", d/time.Hour)
	case d >= time.Minute && d%time.Minute == 0:
		return fmt.Sprintf("%dm", d/time.Minute)
	case d >= time.Second && d%time.Second == 0:
		return fmt.Sprintf("%ds", d/time.Second)
	default:
		return d.String()
	}
}

// retrySeconds 向上取整
func retrySeconds(d time.Duration) int64 {
	secs := int64(d / time.Second)
	if d%time.Second != 0 {
		secs++
	}
	return secs
}
