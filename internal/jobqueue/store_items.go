package jobqueue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Enqueue inserts a new production job at the tail of the queue. Either a
// script path or a serialized recipe must be provided; the schema rejects
// jobs with neither.
func (s *Store) Enqueue(ctx context.Context, title, scriptPath, recipeJSON string, priority int) (*Item, error) {
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO production_jobs (
            token, title, script_path, status, attempts, priority,
            progress_stage, progress_percent, progress_message, recipe_json,
            created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(),
		nullableString(strings.TrimSpace(title)),
		nullableString(scriptPath),
		StatusQueued,
		0,
		priority,
		nil,
		0.0,
		nil,
		nullableString(recipeJSON),
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches a production job by identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM production_jobs WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return item, nil
}

// FindByToken returns the job matching a token.
func (s *Store) FindByToken(ctx context.Context, token string) (*Item, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+itemColumns+` FROM production_jobs WHERE token = ? LIMIT 1`,
		token,
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by token: %w", err)
	}
	return item, nil
}

// Update persists changes to an existing production job.
func (s *Store) Update(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	item.UpdatedAt = time.Now().UTC()
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE production_jobs
         SET token = ?, title = ?, script_path = ?, status = ?, attempts = ?,
             priority = ?, progress_stage = ?, progress_percent = ?,
             progress_message = ?, error_message = ?, recipe_json = ?,
             next_attempt_at = ?, last_heartbeat = ?, updated_at = ?
         WHERE id = ?`,
		item.Token,
		item.Title,
		nullableString(item.ScriptPath),
		item.Status,
		item.Attempts,
		item.Priority,
		nullableString(item.ProgressStage),
		item.ProgressPercent,
		nullableString(item.ProgressMessage),
		nullableString(item.ErrorMessage),
		nullableString(item.RecipeJSON),
		nullableTime(&item.NextAttemptAt),
		nullableTime(item.LastHeartbeat),
		item.UpdatedAt.Format(time.RFC3339Nano),
		item.ID,
	); err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

// List returns jobs filtered by status set (or all jobs when no status is
// provided).
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Item, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + itemColumns + ` FROM production_jobs`
	orderClause := ` ORDER BY created_at, id`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// NextReady returns the queued job that should run next. Higher priority wins;
// equal priorities run in insertion order. Jobs waiting out a retry backoff
// are skipped until their next attempt time passes.
func (s *Store) NextReady(ctx context.Context) (*Item, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	query := `SELECT ` + itemColumns + ` FROM production_jobs
        WHERE status = ? AND (next_attempt_at IS NULL OR next_attempt_at <= ?)
        ORDER BY priority DESC, created_at, id LIMIT 1`
	row := s.db.QueryRowContext(ctx, query, StatusQueued, now)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Remove deletes a job by identifier.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM production_jobs WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ClearCompleted removes only completed jobs from the queue.
func (s *Store) ClearCompleted(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM production_jobs WHERE status = ?`, StatusCompleted)
	if err != nil {
		return 0, fmt.Errorf("clear completed: %w", err)
	}
	return res.RowsAffected()
}

// ClearFailed removes only failed jobs from the queue.
func (s *Store) ClearFailed(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM production_jobs WHERE status = ?`, StatusFailed)
	if err != nil {
		return 0, fmt.Errorf("clear failed: %w", err)
	}
	return res.RowsAffected()
}

// Clear removes all jobs from the queue.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM production_jobs`)
	if err != nil {
		return 0, fmt.Errorf("clear queue: %w", err)
	}
	return res.RowsAffected()
}
