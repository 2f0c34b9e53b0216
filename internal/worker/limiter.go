package worker

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// defaultBurst applies when NewLimiter is given a non-positive burst
const defaultBurst = 5

// Limiter paces requests per backend host. Endpoints on one host share a
// token bucket.
type Limiter struct {
	limit rate.Limit
	burst int
	hosts sync.Map // host -> *rate.Limiter
}

// NewLimiter allows requestsPerSecond per host with the given burst. A
// non-positive rate disables pacing.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = defaultBurst
	}
	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}
	return &Limiter{limit: limit, burst: burst}
}

// Wait blocks until a request to endpoint may proceed or ctx is done
func (l *Limiter) Wait(ctx context.Context, endpoint string) error {
	if l.limit == rate.Inf {
		return ctx.Err()
	}
	return l.bucket(hostOf(endpoint)).Wait(ctx)
}

func (l *Limiter) bucket(host string) *rate.Limiter {
	if b, ok := l.hosts.Load(host); ok {
		return b.(*rate.Limiter)
	}
	b, _ := l.hosts.LoadOrStore(host, rate.NewLimiter(l.limit, l.burst))
	return b.(*rate.Limiter)
}

// hostOf returns the host of an endpoint URL. Bare provider names such as
// "openai", and anything unparsable, are used as they are.
func hostOf(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return endpoint
	}
	return u.Host
}
