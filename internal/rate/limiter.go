package rate

import (
	"context"
	"sync"
	"time"
)

// Config defines the outbound request budget for the upstream API.
type Config struct {
	RequestsPerSecond int
	Burst             int
}

// Limiter implements a token bucket rate limiter. A nil *Limiter never blocks.
type Limiter struct {
	mu     sync.Mutex
	tokens float64
	last   time.Time
	rate   float64
	burst  float64
	now    func() time.Time
}

// New creates a limiter, or returns nil when RequestsPerSecond is not positive.
func New(cfg Config) *Limiter {
	if cfg.RequestsPerSecond <= 0 {
		return nil
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		tokens: float64(burst),
		last:   time.Now(),
		rate:   float64(cfg.RequestsPerSecond),
		burst:  float64(burst),
		now:    time.Now,
	}
}

// Allow takes a token if one is available.
func (l *Limiter) Allow() bool {
	if l == nil {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.tokens += now.Sub(l.last).Seconds() * l.rate
	l.last = now
	if l.tokens > l.burst {
		l.tokens = l.burst
	}

	if l.tokens >= 1 {
		l.tokens--
		return true
	}
	return false
}

// Wait blocks until a token becomes available or ctx is canceled.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	for {
		if l.Allow() {
			return nil
		}
		select {
		case <-time.After(l.pause()):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// pause is the time until roughly one token has refilled, capped at 50ms.
func (l *Limiter) pause() time.Duration {
	d := time.Duration(float64(time.Second) / l.rate)
	if d > 50*time.Millisecond {
		return 50 * time.Millisecond
	}
	return d
}
