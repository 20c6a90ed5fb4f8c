package fetch

import (
	"context"
	"time"

	"go.uber.org/zap"

	"signalsdr-engine/internal/scrape/util"
)

// Fetcher is what the extractors and the orchestrator depend on.
type Fetcher interface {
	FetchText(ctx context.Context, rawURL string) (Page, error)
}

// Gated paces calls per host through a HostGate and retries once after a
// backoff when the origin answers with a rate-limit response.
type Gated struct {
	Inner   Fetcher
	Gate    *util.HostGate
	Backoff time.Duration
	Log     *zap.Logger
}

func NewGated(inner Fetcher, gate *util.HostGate, backoff time.Duration, log *zap.Logger) *Gated {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gated{Inner: inner, Gate: gate, Backoff: backoff, Log: log}
}

func (g *Gated) FetchText(ctx context.Context, rawURL string) (Page, error) {
	page, err := g.once(ctx, rawURL)
	wait, limited := IsRateLimited(err)
	if !limited {
		return page, err
	}

	if wait < g.Backoff {
		wait = g.Backoff
	}
	g.Log.Info("rate limited, retrying once",
		zap.String("url", rawURL),
		zap.Duration("backoff", wait),
	)

	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return Page{}, ctx.Err()
	case <-t.C:
	}
	return g.once(ctx, rawURL)
}

func (g *Gated) once(ctx context.Context, rawURL string) (Page, error) {
	if g.Gate == nil {
		return g.Inner.FetchText(ctx, rawURL)
	}
	var page Page
	err := g.Gate.DoURL(ctx, rawURL, func(ctx context.Context) error {
		var ferr error
		page, ferr = g.Inner.FetchText(ctx, rawURL)
		return ferr
	})
	return page, err
}

// GatedJSON paces GetJSON calls through the gate, keyed by the API host.
// Board clients page through APIs whose host differs from the careers URL
// Gated already holds, so each page waits its turn here.
type GatedJSON struct {
	Inner JSONGetter
	Gate  *util.HostGate
}

func (g GatedJSON) GetJSON(ctx context.Context, rawURL string, dst any) error {
	if g.Gate == nil {
		return g.Inner.GetJSON(ctx, rawURL, dst)
	}
	return g.Gate.DoURL(ctx, rawURL, func(ctx context.Context) error {
		return g.Inner.GetJSON(ctx, rawURL, dst)
	})
}
