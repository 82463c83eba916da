package otp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRateLimited signals that another code may not be requested yet.
var ErrRateLimited = errors.New("too many otp requests")

// Limiter throttles code issuance per email and purpose using Redis. A nil
// client disables limiting (dev mode), and cache failures fail open so an
// unavailable Redis never blocks account recovery.
type Limiter struct {
	cache       *redis.Client
	window      time.Duration
	maxInWindow int
	cooldown    time.Duration
}

// NewLimiter builds a limiter enforcing a per-request cooldown and a maximum
// number of requests per window.
func NewLimiter(cache *redis.Client, window time.Duration, maxInWindow int, cooldown time.Duration) *Limiter {
	if maxInWindow <= 0 {
		maxInWindow = 5
	}
	return &Limiter{cache: cache, window: window, maxInWindow: maxInWindow, cooldown: cooldown}
}

// CanRequest reports whether the email may be issued another code for purpose.
func (l *Limiter) CanRequest(ctx context.Context, email string, purpose Purpose) error {
	if l == nil || l.cache == nil {
		return nil
	}

	lastKey := fmt.Sprintf("otp:last:%s:%s", email, purpose)
	countKey := fmt.Sprintf("otp:count:%s:%s", email, purpose)

	if ttl, err := l.cache.TTL(ctx, lastKey).Result(); err == nil && ttl > 0 {
		return fmt.Errorf("%w: wait %d seconds before requesting another code", ErrRateLimited, int(ttl.Seconds())+1)
	}

	cnt, err := l.cache.Incr(ctx, countKey).Result()
	if err != nil {
		return nil // fail open on cache errors
	}
	if cnt == 1 {
		l.cache.Expire(ctx, countKey, l.window)
	}
	if int(cnt) > l.maxInWindow {
		return fmt.Errorf("%w: limit of %d per %s reached", ErrRateLimited, l.maxInWindow, l.window)
	}

	if l.cooldown > 0 {
		l.cache.Set(ctx, lastKey, "1", l.cooldown)
	}

	return nil
}
