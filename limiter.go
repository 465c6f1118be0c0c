package docent

import (
	"sync"
	"time"
)

// DescribeLimiter rate-limits describe requests per IP address. Every request
// that reaches the model counts, successful or not.
type DescribeLimiter struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	max      int
	window   time.Duration
	stop     chan struct{}
	once     sync.Once
}

// NewDescribeLimiter creates a DescribeLimiter that allows max requests per
// window. A max below one disables limiting.
func NewDescribeLimiter(max int, window time.Duration) *DescribeLimiter {
	l := &DescribeLimiter{
		attempts: make(map[string][]time.Time),
		max:      max,
		window:   window,
		stop:     make(chan struct{}),
	}
	go l.cleanup()
	return l
}

func (l *DescribeLimiter) cleanup() {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
		}
		cutoff := time.Now().Add(-l.window)
		l.mu.Lock()
		for ip, hits := range l.attempts {
			kept := prune(hits, cutoff)
			if len(kept) == 0 {
				delete(l.attempts, ip)
			} else {
				l.attempts[ip] = kept
			}
		}
		l.mu.Unlock()
	}
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (l *DescribeLimiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}

// Allow checks the limit and records the request if it is allowed.
func (l *DescribeLimiter) Allow(ip string) bool {
	if l.max < 1 {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := prune(l.attempts[ip], time.Now().Add(-l.window))
	if len(kept) >= l.max {
		l.attempts[ip] = kept
		return false
	}
	l.attempts[ip] = append(kept, time.Now())
	return true
}

func prune(hits []time.Time, cutoff time.Time) []time.Time {
	kept := hits[:0]
	for _, t := range hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}
