package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

type Task func(ctx context.Context) error

// Every runs task immediately and then on every tick until ctx ends. A tick
// that arrives while the previous run is still going is skipped.
func Every(ctx context.Context, interval time.Duration, name string, log *zap.Logger, task Task) {
	if log == nil {
		log = zap.NewNop()
	}
	var running atomic.Bool

	run := func() {
		if !running.CompareAndSwap(false, true) {
			log.Info("previous run still in progress, skipping tick", zap.String("task", name))
			return
		}
		defer running.Store(false)
		if err := task(ctx); err != nil && ctx.Err() == nil {
			log.Error("scheduled task failed", zap.String("task", name), zap.Error(err))
		}
	}

	t := time.NewTicker(interval)
	defer t.Stop()

	// run immediately
	go run()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			go run()
		}
	}
}
