package util

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// HostLimiter rate-limits per origin key (a hostname, or "search" for the shared search API).
type HostLimiter struct {
	mu sync.Mutex
	m  map[string]*rate.Limiter
	r  rate.Limit
	b  int
}

// NewIntervalLimiter allows one request per interval per key. interval <= 0 disables pacing.
func NewIntervalLimiter(interval time.Duration) *HostLimiter {
	r := rate.Inf
	if interval > 0 {
		r = rate.Every(interval)
	}
	return &HostLimiter{m: make(map[string]*rate.Limiter), r: r, b: 1}
}

func (hl *HostLimiter) limiterFor(key string) *rate.Limiter {
	hl.mu.Lock()
	defer hl.mu.Unlock()

	if lim, ok := hl.m[key]; ok {
		return lim
	}
	lim := rate.NewLimiter(hl.r, hl.b)
	hl.m[key] = lim
	return lim
}

func (hl *HostLimiter) Wait(ctx context.Context, key string) error {
	return hl.limiterFor(key).Wait(ctx)
}

// HostGate serializes calls per origin key and spaces them by the limiter's
// interval. Different keys proceed in parallel.
type HostGate struct {
	limiter *HostLimiter

	mu   sync.Mutex
	sems map[string]*semaphore.Weighted
}

func NewHostGate(interval time.Duration) *HostGate {
	return &HostGate{
		limiter: NewIntervalLimiter(interval),
		sems:    make(map[string]*semaphore.Weighted),
	}
}

func (g *HostGate) semFor(key string) *semaphore.Weighted {
	g.mu.Lock()
	defer g.mu.Unlock()

	if s, ok := g.sems[key]; ok {
		return s
	}
	s := semaphore.NewWeighted(1)
	g.sems[key] = s
	return s
}

// Do runs fn while holding key's slot. It returns ctx.Err() if the context
// ends while waiting; fn is then not called.
func (g *HostGate) Do(ctx context.Context, key string, fn func(context.Context) error) error {
	sem := g.semFor(key)
	if err := sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer sem.Release(1)

	if err := g.limiter.Wait(ctx, key); err != nil {
		return err
	}
	return fn(ctx)
}

// DoURL is Do keyed by the URL's host.
func (g *HostGate) DoURL(ctx context.Context, raw string, fn func(context.Context) error) error {
	return g.Do(ctx, HostKey(raw), fn)
}

// HostKey returns the lower-cased host of raw, or "_" when it has none.
func HostKey(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return "_"
	}
	return strings.ToLower(u.Hostname())
}
