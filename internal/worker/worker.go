package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"reelsmith/internal/config"
	"reelsmith/internal/jobqueue"
	"reelsmith/internal/logging"
	"reelsmith/internal/notifications"
	"reelsmith/internal/pipeline"
)

const lockFileName = "worker.lock"

// Worker owns one workspace at a time, enforced with a file lock, so queue
// claims need no cross-process coordination.
type Worker struct {
	cfg      *config.Config
	store    *jobqueue.Store
	deps     pipeline.Deps
	notifier notifications.Service
	logger   *slog.Logger

	pollInterval      time.Duration
	heartbeatInterval time.Duration
	heartbeatTimeout  time.Duration

	lock     *flock.Flock
	lockPath string

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running atomic.Bool
}

// New builds a worker with the notification service derived from cfg.
func New(cfg *config.Config, store *jobqueue.Store, deps pipeline.Deps, logger *slog.Logger) *Worker {
	return NewWithNotifier(cfg, store, deps, notifications.NewService(cfg), logger)
}

// NewWithNotifier builds a worker with an explicit notification service.
func NewWithNotifier(cfg *config.Config, store *jobqueue.Store, deps pipeline.Deps, notifier notifications.Service, logger *slog.Logger) *Worker {
	lockPath := filepath.Join(cfg.Paths.WorkspaceDir, lockFileName)
	return &Worker{
		cfg:               cfg,
		store:             store,
		deps:              deps,
		notifier:          notifier,
		logger:            logging.NewComponentLogger(logger, "worker"),
		pollInterval:      secondsOrDefault(cfg.Queue.PollInterval, 5),
		heartbeatInterval: secondsOrDefault(cfg.Queue.HeartbeatInterval, 15),
		heartbeatTimeout:  secondsOrDefault(cfg.Queue.HeartbeatTimeout, 120),
		lock:              flock.New(lockPath),
		lockPath:          lockPath,
	}
}

func secondsOrDefault(seconds, fallback int) time.Duration {
	if seconds <= 0 {
		seconds = fallback
	}
	return time.Duration(seconds) * time.Second
}

// Start acquires the workspace lock, requeues jobs orphaned by a previous
// crash, and launches the poll loop. It fails when another worker already
// holds the workspace.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running.Load() {
		return fmt.Errorf("worker already running")
	}
	if err := w.cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("prepare workspace: %w", err)
	}
	locked, err := w.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire worker lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another worker already holds %s", w.lockPath)
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	if reset, err := w.store.ResetStuck(runCtx); err != nil {
		w.logger.Warn("could not reset stuck jobs", logging.Error(err))
	} else if reset > 0 {
		w.logger.Info("requeued jobs stuck in processing", logging.Int64("count", reset))
	}

	w.running.Store(true)
	w.wg.Add(1)
	go w.run(runCtx)

	w.logger.Info("worker started",
		logging.String("lock_path", w.lockPath),
		logging.Duration("poll_interval", w.pollInterval))
	return nil
}

// Stop cancels the poll loop, waits for the in-flight job to wind down, and
// releases the workspace lock.
func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running.Load() {
		return
	}
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.wg.Wait()
	if err := w.lock.Unlock(); err != nil {
		w.logger.Warn("could not release worker lock", logging.Error(err))
	}
	w.running.Store(false)
	w.logger.Info("worker stopped")
}

// Running reports whether the poll loop is active.
func (w *Worker) Running() bool {
	return w.running.Load()
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		w.reclaimStale(ctx)

		item, err := w.store.NextReady(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("could not fetch next job", logging.Error(err))
			w.sleep(ctx, w.pollInterval)
			continue
		}
		if item == nil {
			w.sleep(ctx, w.pollInterval)
			continue
		}
		if err := w.processJob(ctx, item); errors.Is(err, context.Canceled) {
			return
		}
	}
}

// reclaimStale requeues jobs whose heartbeat went silent for longer than the
// configured timeout. Those belong to a worker that died without cleaning up.
func (w *Worker) reclaimStale(ctx context.Context) {
	if w.heartbeatTimeout <= 0 {
		return
	}
	cutoff := time.Now().UTC().Add(-w.heartbeatTimeout)
	reclaimed, err := w.store.ReclaimStale(ctx, cutoff)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Warn("could not reclaim stale jobs", logging.Error(err))
		}
		return
	}
	if reclaimed == 0 {
		return
	}
	w.logger.Info("reclaimed stale jobs",
		logging.Int64("count", reclaimed),
		logging.String(logging.FieldEventType, "queue_reclaim"))
	if err := w.notifier.QueueStalled(ctx, int(reclaimed)); err != nil && ctx.Err() == nil {
		w.logger.Debug("stall notification failed", logging.Error(err))
	}
}

func (w *Worker) sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
