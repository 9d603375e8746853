package fetcher

import (
	"context"
	"math/rand"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LimiterRegistry hands out one rate limiter per host so that fetches
// against different merchants never throttle each other. A small random
// jitter is added on top of each wait to avoid lockstep request timing.
type LimiterRegistry struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      float64
}

func NewLimiterRegistry(requestsPerSecond float64) *LimiterRegistry {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return &LimiterRegistry{
		limiters: make(map[string]*rate.Limiter),
		rps:      requestsPerSecond,
	}
}

// Wait blocks until the host's limiter admits a request, then sleeps an
// extra 0–100ms of jitter.
func (r *LimiterRegistry) Wait(ctx context.Context, rawURL string) error {
	host := hostOf(rawURL)
	if host == "" {
		return nil
	}

	r.mu.Lock()
	limiter, ok := r.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(r.rps), 1)
		r.limiters[host] = limiter
	}
	r.mu.Unlock()

	if err := limiter.Wait(ctx); err != nil {
		return err
	}
	return sleepCtx(ctx, time.Duration(rand.Intn(100))*time.Millisecond)
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
