package fetch

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter rate-limits outbound requests per data source. Sources share a
// default rate unless given their own.
type Limiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a limiter with the given default rate.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  rate.Limit(requestsPerSecond),
		defaultBurst: burst,
	}
}

// Wait blocks until the source's limiter clears a request or ctx is done.
func (l *Limiter) Wait(ctx context.Context, source string) error {
	return l.limiterFor(source).Wait(ctx)
}

// SetSourceRate overrides the rate for one source.
func (l *Limiter) SetSourceRate(source string, requestsPerSecond float64, burst int) {
	if burst <= 0 {
		burst = l.defaultBurst
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.limiters[source] = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

func (l *Limiter) limiterFor(source string) *rate.Limiter {
	l.mu.RLock()
	limiter, ok := l.limiters[source]
	l.mu.RUnlock()
	if ok {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if limiter, ok := l.limiters[source]; ok {
		return limiter
	}
	limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[source] = limiter
	return limiter
}
