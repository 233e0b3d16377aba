package worker

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/shiplog-dev/shiplog/pkg/domain/interfaces"
	"github.com/shiplog-dev/shiplog/pkg/usecase"
	"github.com/shiplog-dev/shiplog/pkg/utils/errutil"
	"github.com/shiplog-dev/shiplog/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentSyncs bounds how many organizations sync at once per cycle
const maxConcurrentSyncs = 4

// AutoSyncWorker periodically syncs releases for every organization that
// opted into auto sync.
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
// - Per-organization exclusion is handled by the sync status claim, so an
//   overlapping manual trigger is rejected, not duplicated
type AutoSyncWorker struct {
	repo     interfaces.Repository
	sync     *usecase.SyncUseCase
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewAutoSyncWorker creates a new worker for unattended release sync
func NewAutoSyncWorker(repo interfaces.Repository, syncUC *usecase.SyncUseCase, interval time.Duration) *AutoSyncWorker {
	return &AutoSyncWorker{
		repo:     repo,
		sync:     syncUC,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background sync loop. Does not block server startup.
func (w *AutoSyncWorker) Start(ctx context.Context) error {
	logging.Default().Info("Auto sync worker starting",
		"interval", w.interval.String())

	go w.run(ctx)

	return nil
}

// Stop signals the worker to stop and waits for completion
func (w *AutoSyncWorker) Stop() {
	logging.Default().Info("Auto sync worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("Auto sync worker stopped")
}

// run is the main worker loop (runs in goroutine)
func (w *AutoSyncWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.cycle(ctx); err != nil {
				logging.Default().Error("Auto sync cycle failed (will retry next interval)",
					"error", err.Error())
			}

		case <-w.stopCh:
			logging.Default().Info("Auto sync worker received stop signal")
			return

		case <-ctx.Done():
			logging.Default().Info("Auto sync worker context cancelled")
			return
		}
	}
}

// cycle runs one sync pass over all opted-in organizations. A failing
// organization does not abort the cycle; its failure is recorded on its own
// connection and the cycle moves on.
func (w *AutoSyncWorker) cycle(ctx context.Context) error {
	startTime := time.Now()

	conns, err := w.repo.Connection().List(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to list connections")
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(maxConcurrentSyncs)

	var synced int
	for _, conn := range conns {
		if !conn.AutoSyncEnabled || !conn.Configured() {
			continue
		}
		synced++

		eg.Go(func() error {
			if _, err := w.sync.Trigger(ctx, conn.OrgID); err != nil {
				// A manual sync already holds the slot; skip this cycle
				if errors.Is(err, usecase.ErrSyncInProgress) {
					logging.Default().Info("Auto sync skipped, sync in progress",
						"org_id", conn.OrgID)
					return nil
				}
				_ = errutil.Handle(ctx, err, "auto sync failed for organization")
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return goerr.Wrap(err, "auto sync cycle aborted")
	}

	logging.Default().Info("Auto sync cycle completed",
		"organizations", synced,
		"duration", time.Since(startTime).String())

	return nil
}
