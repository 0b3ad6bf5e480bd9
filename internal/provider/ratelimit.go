package provider

import (
	"sync"

	"golang.org/x/time/rate"
)

// Limiters is a shared registry of per-provider-PREFIX rate limiters,
// keyed the same way a scheduler's rateLimiters map[string]*rate.Limiter is.
// One Limiters instance is constructed at process start and passed to every
// adapter constructor so that concurrent feeds sharing a PREFIX (e.g. two
// Reddit feeds running in the same --parallel group) throttle against the
// same budget.
type Limiters struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewLimiters() *Limiters {
	return &Limiters{limiters: make(map[string]*rate.Limiter)}
}

// For returns the limiter for prefix, creating it on first use with the
// given steady-state rate (events/sec) and burst size.
func (l *Limiters) For(prefix string, perSecond float64, burst int) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok := l.limiters[prefix]; ok {
		return lim
	}
	lim := rate.NewLimiter(rate.Limit(perSecond), burst)
	l.limiters[prefix] = lim
	return lim
}
