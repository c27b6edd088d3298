package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"reelsmith/internal/logging"
	"reelsmith/internal/recipe"
	"reelsmith/internal/services"
)

// Executor walks a step graph in dependency order. A Parallelism of one or
// less executes the topological order strictly sequentially; higher values
// dispatch steps whose dependencies have completed concurrently, bounded by
// the limit.
// Either way the first step error stops scheduling: steps that have not
// started stay pending and the returned error names the failing step.
type Executor struct {
	Logger      *slog.Logger
	Observers   *Observers
	Parallelism int
}

func (e *Executor) logger() *slog.Logger {
	if e.Logger == nil {
		return logging.NewNop()
	}
	return e.Logger
}

func (e *Executor) notify(event Event) {
	if e.Observers != nil {
		event.At = time.Now().UTC()
		e.Observers.Notify(event)
	}
}

// Run executes the steps against the run's recipe. Step lifecycle is
// persisted onto the recipe's step records; a record is created for any step
// the recipe does not know yet.
func (e *Executor) Run(ctx context.Context, run *Run, steps []Step) error {
	ordered, err := Order(steps)
	if err != nil {
		return err
	}

	rec := run.Recipe
	for _, step := range ordered {
		if rec.StepByID(step.ID()) == nil {
			rec.Steps = append(rec.Steps, &recipe.Step{
				ID:        step.ID(),
				Name:      step.ID(),
				Status:    recipe.StepPending,
				DependsOn: append([]string(nil), step.Dependencies()...),
			})
		}
	}

	var mu sync.Mutex
	run.setReporter(func(stepID string, percent int, message string) {
		mu.Lock()
		if record := rec.StepByID(stepID); record != nil && record.Status == recipe.StepRunning {
			record.Progress = percent
		}
		mu.Unlock()
		e.notify(Event{
			Type:     EventStepProgress,
			RecipeID: rec.ID,
			StepID:   stepID,
			Progress: percent,
			Message:  message,
		})
	})
	defer run.setReporter(nil)

	logger := e.logger().With(logging.String(logging.FieldRecipeID, rec.ID))
	logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.Int("steps", len(ordered)))
	e.notify(Event{Type: EventRunStarted, RecipeID: rec.ID})

	if e.Parallelism > 1 {
		err = e.runParallel(ctx, run, ordered, &mu, logger)
	} else {
		err = e.runSequential(ctx, run, ordered, &mu, logger)
	}
	if err != nil {
		logger.Error("run failed",
			logging.String(logging.FieldEventType, "run_failure"),
			logging.Error(err))
		e.notify(Event{Type: EventRunFailed, RecipeID: rec.ID, Err: err, Message: err.Error()})
		return err
	}

	logger.Info("run completed", logging.String(logging.FieldEventType, "run_complete"))
	e.notify(Event{Type: EventRunCompleted, RecipeID: rec.ID, Progress: 100})
	return nil
}

func (e *Executor) runSequential(ctx context.Context, run *Run, ordered []Step, mu *sync.Mutex, logger *slog.Logger) error {
	for _, step := range ordered {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.executeStep(ctx, run, step, mu, logger); err != nil {
			return err
		}
	}
	return nil
}

type stepResult struct {
	step Step
	err  error
}

func (e *Executor) runParallel(ctx context.Context, run *Run, ordered []Step, mu *sync.Mutex, logger *slog.Logger) error {
	completed := make(map[string]bool, len(ordered))
	pending := append([]Step(nil), ordered...)
	results := make(chan stepResult)

	running := 0
	var firstErr error
	for len(pending) > 0 || running > 0 {
		// Dispatch every ready step while slots remain, preserving the
		// topological order among ready steps.
		if firstErr == nil {
			remaining := pending[:0]
			for _, step := range pending {
				if running < e.Parallelism && dependenciesMet(step, completed) && ctx.Err() == nil {
					running++
					go func(step Step) {
						results <- stepResult{step: step, err: e.executeStep(ctx, run, step, mu, logger)}
					}(step)
					continue
				}
				remaining = append(remaining, step)
			}
			pending = remaining
		}

		if running == 0 {
			if firstErr != nil {
				return firstErr
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			// No runnable step and nothing in flight: the graph cannot make
			// progress, which Order should have prevented.
			return services.Wrap(services.ErrValidation, "pipeline", "execute",
				"no runnable steps remain", nil)
		}

		result := <-results
		running--
		if result.err != nil {
			if firstErr == nil {
				firstErr = result.err
			}
			continue
		}
		completed[result.step.ID()] = true
	}
	return firstErr
}

func dependenciesMet(step Step, completed map[string]bool) bool {
	for _, dep := range step.Dependencies() {
		if !completed[dep] {
			return false
		}
	}
	return true
}

func (e *Executor) executeStep(ctx context.Context, run *Run, step Step, mu *sync.Mutex, logger *slog.Logger) error {
	rec := run.Recipe
	record := rec.StepByID(step.ID())

	stepCtx := services.WithStep(ctx, step.ID())
	stepLogger := logging.WithContext(stepCtx, logger)

	mu.Lock()
	record.Status = recipe.StepRunning
	record.Progress = 0
	record.ErrorMessage = ""
	rec.Touch()
	mu.Unlock()

	stepLogger.Info("step started", logging.String(logging.FieldEventType, "step_start"))
	e.notify(Event{Type: EventStepStarted, RecipeID: rec.ID, StepID: step.ID()})

	started := time.Now()
	err := step.Run(stepCtx, run)
	elapsed := time.Since(started).Seconds()

	mu.Lock()
	record.Duration = &elapsed
	mu.Unlock()

	if err != nil {
		mu.Lock()
		record.Status = recipe.StepError
		record.ErrorMessage = err.Error()
		rec.Touch()
		mu.Unlock()

		stepLogger.Error("step failed",
			logging.String(logging.FieldEventType, "step_failure"),
			logging.Error(err))
		e.notify(Event{
			Type:     EventStepFailed,
			RecipeID: rec.ID,
			StepID:   step.ID(),
			Message:  err.Error(),
			Err:      err,
		})
		return fmt.Errorf("step %s: %w", step.ID(), err)
	}

	mu.Lock()
	record.Status = recipe.StepCompleted
	record.Progress = 100
	rec.Touch()
	mu.Unlock()

	stepLogger.Info("step completed",
		logging.String(logging.FieldEventType, "step_complete"),
		logging.Float64("seconds", elapsed))
	e.notify(Event{Type: EventStepCompleted, RecipeID: rec.ID, StepID: step.ID(), Progress: 100})
	return nil
}
