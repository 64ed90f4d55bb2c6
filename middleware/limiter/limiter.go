package limiter

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/sweetpotato0/voyager/middleware"
)

// ErrRateLimitExceeded indicates rate limit has been exceeded
var ErrRateLimitExceeded = middleware.ErrRateLimitExceeded

// RateLimiter limits turns per conversation with a token bucket each.
type RateLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
	now      func() time.Time
}

// NewRateLimiter allows perMinute turns per conversation with the given
// burst.
func NewRateLimiter(perMinute float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limit:    rate.Limit(perMinute / 60),
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
		now:      time.Now,
	}
}

// Name returns the middleware name
func (m *RateLimiter) Name() string {
	return "RateLimiter"
}

// Execute checks rate limit
func (m *RateLimiter) Execute(ctx *middleware.Context, next middleware.Handler) error {
	if !m.limiterFor(ctx.ConversationID).AllowN(m.now(), 1) {
		return fmt.Errorf("%w: conversation %s", ErrRateLimitExceeded, ctx.ConversationID)
	}
	return next(ctx)
}

// Reset forgets the bucket of one conversation
func (m *RateLimiter) Reset(conversationID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.limiters, conversationID)
}

// Tracked returns how many conversations currently hold a bucket
func (m *RateLimiter) Tracked() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.limiters)
}

func (m *RateLimiter) limiterFor(id string) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.limiters[id]
	if !ok {
		l = rate.NewLimiter(m.limit, m.burst)
		m.limiters[id] = l
	}
	return l
}
