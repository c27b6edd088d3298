package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"reelsmith/internal/jobqueue"
	"reelsmith/internal/logging"
	"reelsmith/internal/pipeline"
	"reelsmith/internal/recipe"
	"reelsmith/internal/services"
)

// stepSequence is the display order of the production graph, used to map a
// single step's progress onto the job's overall percent.
var stepSequence = []string{
	recipe.StepValidateInputs,
	recipe.StepGenerateSubtitles,
	recipe.StepGenerateNarration,
	recipe.StepPrepareMedia,
	recipe.StepComposeTimeline,
	recipe.StepGenerateThumbnail,
	recipe.StepQualityCheck,
	recipe.StepExportOutputs,
}

// processJob runs one queue item through the production pipeline. The
// returned error is context.Canceled when shutdown interrupted the job,
// which stops the poll loop.
func (w *Worker) processJob(ctx context.Context, item *jobqueue.Item) error {
	// Step and stage logs downstream derive their job and correlation
	// fields from this context.
	ctx = services.WithJobID(ctx, item.ID)
	ctx = services.WithRequestID(ctx, item.Token)
	logger := w.logger.With(
		logging.Int64(logging.FieldJobID, item.ID),
		logging.String("title", item.Title),
	)

	rec, err := w.loadRecipe(item)
	if err != nil {
		logger.Error("job cannot start", logging.Error(err))
		w.failJob(ctx, logger, item, err)
		return err
	}

	now := time.Now().UTC()
	item.Status = jobqueue.StatusProducing
	item.ErrorMessage = ""
	item.LastHeartbeat = &now
	item.SetProgress("Producing", "production started", 0)
	if err := w.store.Update(ctx, item); err != nil {
		logger.Error("could not claim job", logging.Error(err))
		return err
	}

	logger.Info("production started",
		logging.String(logging.FieldEventType, "job_start"),
		logging.String(logging.FieldRecipeID, rec.ID),
		logging.Int("attempt", item.Attempts+1))

	started := time.Now()
	outputs, runErr := w.produce(ctx, item, rec)

	if encoded, err := rec.Encode(); err == nil {
		item.RecipeJSON = encoded
	}

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			w.requeueInterrupted(item)
			logger.Info("production interrupted by shutdown",
				logging.String(logging.FieldEventType, "job_interrupted"))
			return runErr
		}
		logging.ErrorWithContext(logger, "production failed", "job_failed",
			logging.Error(runErr),
			logging.Duration("elapsed", time.Since(started)),
			logging.String(logging.FieldErrorHint, "see the job log; rerun failed jobs with 'reelsmith queue retry'"))
		w.failJob(ctx, logger, item, runErr)
		return runErr
	}

	item.Status = jobqueue.StatusCompleted
	item.LastHeartbeat = nil
	item.SetProgressComplete("Completed", fmt.Sprintf("%d output(s) produced", outputs))
	if err := w.store.Update(ctx, item); err != nil {
		logger.Error("could not persist completion", logging.Error(err))
		return err
	}

	elapsed := time.Since(started)
	logger.Info("production completed",
		logging.String(logging.FieldEventType, "job_complete"),
		logging.Int("outputs", outputs),
		logging.Duration("elapsed", elapsed))

	if err := w.notifier.ProductionCompleted(ctx, item.Title, outputs, elapsed); err != nil && ctx.Err() == nil {
		logger.Debug("completion notification failed", logging.Error(err))
	}
	return nil
}

// loadRecipe materializes the job's recipe. A stored recipe document wins;
// otherwise the script file is read and framed with the configured video
// defaults. Jobs always produce from scratch, so stored step records are
// reset.
func (w *Worker) loadRecipe(item *jobqueue.Item) (*recipe.Recipe, error) {
	if strings.TrimSpace(item.RecipeJSON) != "" {
		rec, err := recipe.Parse(item.RecipeJSON)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "worker", "load_recipe",
				fmt.Sprintf("job %d carries an unreadable recipe", item.ID), err)
		}
		rec.ResetSteps()
		return rec, nil
	}

	script, err := os.ReadFile(item.ScriptPath)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "worker", "load_recipe",
			fmt.Sprintf("script %s is not readable", item.ScriptPath), err)
	}
	return recipe.New(item.Title, string(script), recipe.VideoConfigFrom(w.cfg)), nil
}

// produce materializes the job's work directory and drives the pipeline. A
// heartbeat goroutine keeps the queue row fresh while steps run.
func (w *Worker) produce(ctx context.Context, item *jobqueue.Item, rec *recipe.Recipe) (int, error) {
	workDir := filepath.Join(w.cfg.Paths.WorkspaceDir, "jobs", item.Token)
	run := pipeline.NewRun(rec, workDir)

	exec := &pipeline.Executor{
		Logger:    w.logger,
		Observers: pipeline.NewObservers(w.progressObserver(ctx, item, rec)),
	}

	hbCtx, hbCancel := context.WithCancel(ctx)
	var hbWG sync.WaitGroup
	hbWG.Add(1)
	go func() {
		defer hbWG.Done()
		w.heartbeatLoop(hbCtx, item.ID)
	}()

	err := exec.Run(ctx, run, pipeline.ProductionSteps(w.deps))
	hbCancel()
	hbWG.Wait()

	if err != nil {
		return 0, err
	}
	return len(run.Outputs()), nil
}

// progressObserver mirrors step events onto the queue row so list and status
// commands see live progress. The export step flips the visible status to
// rendering. The mutex orders updates; observers may be called concurrently.
func (w *Worker) progressObserver(ctx context.Context, item *jobqueue.Item, rec *recipe.Recipe) pipeline.Observer {
	var mu sync.Mutex
	return pipeline.ObserverFunc(func(event pipeline.Event) {
		mu.Lock()
		defer mu.Unlock()
		switch event.Type {
		case pipeline.EventStepStarted:
			if event.StepID == recipe.StepExportOutputs {
				item.Status = jobqueue.StatusRendering
			}
			item.SetProgress(stageFor(rec, event.StepID), "", jobPercent(event.StepID, 0))
		case pipeline.EventStepProgress:
			item.SetProgress(stageFor(rec, event.StepID), event.Message, jobPercent(event.StepID, event.Progress))
		case pipeline.EventStepCompleted:
			item.SetProgress(stageFor(rec, event.StepID), "", jobPercent(event.StepID, 100))
		default:
			return
		}
		if err := w.store.Update(ctx, item); err != nil && ctx.Err() == nil {
			w.logger.Debug("progress update failed", logging.Error(err))
		}
	})
}

func stageFor(rec *recipe.Recipe, stepID string) string {
	if step := rec.StepByID(stepID); step != nil && step.Name != "" {
		return step.Name
	}
	return stepID
}

// jobPercent maps one step's progress onto the whole job's 0-100 scale, each
// step owning an equal slice of the bar.
func jobPercent(stepID string, stepPct int) float64 {
	index := slices.Index(stepSequence, stepID)
	if index < 0 {
		return float64(stepPct)
	}
	stepPct = min(max(stepPct, 0), 100)
	span := 100.0 / float64(len(stepSequence))
	return span * (float64(index) + float64(stepPct)/100)
}

// heartbeatLoop refreshes the job's heartbeat column until cancelled, so a
// surviving worker can tell live jobs from abandoned ones.
func (w *Worker) heartbeatLoop(ctx context.Context, id int64) {
	if w.heartbeatInterval <= 0 {
		return
	}
	ticker := time.NewTicker(w.heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.store.UpdateHeartbeat(ctx, id); err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				w.logger.Warn("heartbeat update failed",
					logging.Int64(logging.FieldJobID, id),
					logging.Error(err))
			}
		}
	}
}

// failJob persists the failure and notifies when the job is permanently
// failed. MarkFailed chooses between a backoff retry and failed.
func (w *Worker) failJob(ctx context.Context, logger *slog.Logger, item *jobqueue.Item, cause error) {
	if err := w.store.MarkFailed(ctx, item, cause); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("shutdown interrupted failure persistence; job resets on next start")
		} else {
			logger.Error("could not persist job failure", logging.Error(err))
		}
		return
	}
	if item.Status == jobqueue.StatusQueued {
		logger.Info("job requeued for retry",
			logging.String(logging.FieldEventType, "job_retry"),
			logging.Int("attempt", item.Attempts),
			logging.String("next_attempt_at", item.NextAttemptAt.Format(time.RFC3339)))
		return
	}
	if err := w.notifier.ProductionFailed(ctx, item.Title, cause); err != nil && ctx.Err() == nil {
		logger.Debug("failure notification failed", logging.Error(err))
	}
}

// requeueInterrupted returns a job cut off by shutdown to the queue without
// charging an attempt. The poll loop's context is already gone, so
// persistence runs on a short fresh one.
func (w *Worker) requeueInterrupted(item *jobqueue.Item) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	item.Status = jobqueue.StatusQueued
	item.LastHeartbeat = nil
	item.NextAttemptAt = time.Time{}
	item.SetProgress("Interrupted", "worker stopped; job returned to queue", 0)
	if err := w.store.Update(ctx, item); err != nil {
		w.logger.Warn("could not requeue interrupted job",
			logging.Int64(logging.FieldJobID, item.ID),
			logging.Error(err))
	}
}
