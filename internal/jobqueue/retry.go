package jobqueue

import (
	"context"
	"errors"
	"time"

	"reelsmith/internal/config"
	"reelsmith/internal/services"
)

// RetryPolicy computes backoff delays for failed production jobs.
type RetryPolicy struct {
	MaxAttempts int
	MinDelay    time.Duration
	MaxDelay    time.Duration
	Factor      float64
}

// NewRetryPolicy builds a policy from queue configuration, normalizing values
// that would stall or runaway the schedule.
func NewRetryPolicy(cfg config.Queue) RetryPolicy {
	policy := RetryPolicy{
		MaxAttempts: cfg.MaxAttempts,
		MinDelay:    time.Duration(cfg.BackoffMinSeconds) * time.Second,
		MaxDelay:    time.Duration(cfg.BackoffMaxSeconds) * time.Second,
		Factor:      cfg.BackoffFactor,
	}
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.MinDelay <= 0 {
		policy.MinDelay = time.Second
	}
	if policy.MaxDelay < policy.MinDelay {
		policy.MaxDelay = policy.MinDelay
	}
	if policy.Factor < 1 {
		policy.Factor = 1
	}
	return policy
}

// Delay returns the wait before the given attempt runs again. The first retry
// waits MinDelay; each further retry multiplies the previous wait by Factor,
// clamped to MaxDelay.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	delay := float64(p.MinDelay)
	for i := 1; i < attempt; i++ {
		delay *= p.Factor
		if delay >= float64(p.MaxDelay) {
			return p.MaxDelay
		}
	}
	if delay > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(delay)
}

// MarkFailed records a production failure on the job and schedules the retry.
// Deterministic failures (validation, configuration, missing inputs) and jobs
// out of attempts go straight to failed; everything else returns to the queue
// with an exponential backoff.
func (s *Store) MarkFailed(ctx context.Context, item *Item, cause error) error {
	if item == nil {
		return errors.New("item is nil")
	}

	message := "production failed"
	if cause != nil {
		message = cause.Error()
	}

	item.Attempts++
	item.ErrorMessage = message
	item.LastHeartbeat = nil
	item.ProgressPercent = 0
	item.ProgressMessage = message

	if item.Attempts < s.retry.MaxAttempts && services.Retryable(cause) {
		item.Status = StatusQueued
		item.NextAttemptAt = time.Now().UTC().Add(s.retry.Delay(item.Attempts))
		item.ProgressStage = "Waiting to retry"
	} else {
		item.Status = StatusFailed
		item.NextAttemptAt = time.Time{}
		item.ProgressStage = "Failed"
	}

	return s.Update(ctx, item)
}
