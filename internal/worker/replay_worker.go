// Package worker drives periodic replay of the offline write queue.
package worker

import (
	"context"
	"time"

	"famspend/internal/ledger"
	applog "famspend/internal/log"
)

type ReplayWorker struct {
	svc      *ledger.Service
	interval time.Duration
	logger   *applog.Logger
}

func NewReplayWorker(svc *ledger.Service, interval time.Duration, logger *applog.Logger) *ReplayWorker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &ReplayWorker{
		svc:      svc,
		interval: interval,
		logger:   logger.WithComponent(applog.ComponentWorker),
	}
}

// Run replays once at startup, then on every tick until ctx ends. Replay
// errors are logged and retried on the next tick; only ctx cancellation
// stops the loop.
func (w *ReplayWorker) Run(ctx context.Context) error {
	w.replayOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "Replay worker stopping", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			w.replayOnce(ctx)
		}
	}
}

// ReplayNow triggers an immediate replay pass, used when a connectivity
// restored event arrives.
func (w *ReplayWorker) ReplayNow(ctx context.Context) {
	w.replayOnce(ctx)
}

func (w *ReplayWorker) replayOnce(ctx context.Context) {
	synced, err := w.svc.Replay(ctx)
	if err != nil {
		w.logger.WarnContext(ctx, "Replay pass failed",
			applog.FieldError, err)
		return
	}
	if synced > 0 {
		w.logger.InfoContext(ctx, ledger.SyncedMessage(synced),
			applog.FieldSyncedCount, synced)
	}
}
