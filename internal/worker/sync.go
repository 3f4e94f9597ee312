package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gamehub-points/internal/config"
	"github.com/gamehub-points/internal/postgres"
	"github.com/gamehub-points/internal/redis"
)

// SyncWorker periodically rebuilds the Redis leaderboard cache from the
// authoritative balances in PostgreSQL, correcting any drift the incremental
// cache updates accumulated.
type SyncWorker struct {
	cache   *redis.Leaderboard
	store   *postgres.Repository
	config  *config.SyncConfig
	logger  *slog.Logger
	stopCh  chan struct{}
	doneCh  chan struct{}
	mu      sync.Mutex
	running bool
}

// NewSyncWorker creates a new sync worker
func NewSyncWorker(
	cache *redis.Leaderboard,
	store *postgres.Repository,
	cfg *config.SyncConfig,
	logger *slog.Logger,
) *SyncWorker {
	return &SyncWorker{
		cache:  cache,
		store:  store,
		config: cfg,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start begins the background rebuild process
func (w *SyncWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info("sync worker started", "interval", w.config.Interval)

	go w.run(ctx)
	return nil
}

// Stop stops the background rebuild process
func (w *SyncWorker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("sync worker stopped")
	return nil
}

// run is the main worker loop
func (w *SyncWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			if err := w.RebuildLeaderboard(ctx); err != nil {
				w.logger.Error("failed to rebuild leaderboard cache", "error", err)
			}
		}
	}
}

// RebuildLeaderboard loads every account balance from PostgreSQL into the
// Redis leaderboard. Also used at startup for recovery after a cache loss.
func (w *SyncWorker) RebuildLeaderboard(ctx context.Context) error {
	startTime := time.Now()

	accounts, err := w.store.AllAccounts(ctx)
	if err != nil {
		return err
	}

	if len(accounts) == 0 {
		w.logger.Debug("no accounts to sync")
		return nil
	}

	// Process in batches to avoid oversized pipelines
	batchSize := w.config.BatchSize
	if batchSize == 0 {
		batchSize = 1000
	}

	for start := 0; start < len(accounts); start += batchSize {
		end := start + batchSize
		if end > len(accounts) {
			end = len(accounts)
		}
		if err := w.cache.BatchSetBalances(ctx, accounts[start:end]); err != nil {
			return err
		}
	}

	w.logger.Info("leaderboard cache rebuilt",
		"accounts", len(accounts),
		"duration", time.Since(startTime),
	)
	return nil
}

// IsRunning returns whether the worker is currently running
func (w *SyncWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// RunOnce runs a single rebuild cycle (useful for manual triggers)
func (w *SyncWorker) RunOnce(ctx context.Context) {
	if err := w.RebuildLeaderboard(ctx); err != nil {
		w.logger.Error("failed to rebuild leaderboard cache", "error", err)
	}
}
