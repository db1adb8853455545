package fetcher

import (
	"context"
	"sync"
	"time"
)

type RateLimiter struct {
	maxConcurrent  int
	rpm            int
	minDelay       time.Duration
	hostSemaphores map[string]*hostLimiter
	mu             sync.Mutex
}

type hostLimiter struct {
	sem         chan struct{} // Semaphore for concurrency
	windowStart time.Time
	requests    int
	lastRequest time.Time
	mu          sync.Mutex
}

// NewRateLimiter: maxConcurrent запросов к хосту одновременно, не больше rpm в минуту
// и не чаще одного раза в minDelay.
func NewRateLimiter(maxConcurrent, rpm int, minDelay time.Duration) *RateLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &RateLimiter{
		maxConcurrent:  maxConcurrent,
		rpm:            rpm,
		minDelay:       minDelay,
		hostSemaphores: make(map[string]*hostLimiter),
	}
}

func (rl *RateLimiter) limiter(host string) *hostLimiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.hostSemaphores[host]
	if !exists {
		limiter = &hostLimiter{
			sem: make(chan struct{}, rl.maxConcurrent),
		}
		rl.hostSemaphores[host] = limiter
	}
	return limiter
}

// Acquire занимает слот хоста. release нужно вызвать после завершения запроса.
func (rl *RateLimiter) Acquire(ctx context.Context, host string) (release func(), err error) {
	limiter := rl.limiter(host)

	// Acquire semaphore (concurrency control)
	select {
	case limiter.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	release = func() { <-limiter.sem }

	if err := rl.throttle(ctx, limiter); err != nil {
		release()
		return nil, err
	}
	return release, nil
}

// Wait - Acquire без удержания слота.
func (rl *RateLimiter) Wait(ctx context.Context, host string) error {
	release, err := rl.Acquire(ctx, host)
	if err != nil {
		return err
	}
	release()
	return nil
}

func (rl *RateLimiter) throttle(ctx context.Context, limiter *hostLimiter) error {
	for {
		limiter.mu.Lock()
		now := time.Now()

		// Reset counters if minute has passed
		if now.Sub(limiter.windowStart) > time.Minute {
			limiter.requests = 0
			limiter.windowStart = now
		}

		var wait time.Duration
		if rl.rpm > 0 && limiter.requests >= rl.rpm {
			wait = time.Minute - now.Sub(limiter.windowStart)
		}
		if next := limiter.lastRequest.Add(rl.minDelay); next.After(now) && next.Sub(now) > wait {
			wait = next.Sub(now)
		}

		if wait <= 0 {
			limiter.requests++
			limiter.lastRequest = now
			limiter.mu.Unlock()
			return nil
		}
		limiter.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}
