package jobqueue

import (
	"database/sql"
	"errors"
	"time"
)

const itemColumns = "id, token, title, script_path, status, attempts, priority, progress_stage, progress_percent, progress_message, error_message, recipe_json, next_attempt_at, last_heartbeat, created_at, updated_at"

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		id               int64
		token            string
		title            string
		scriptPath       sql.NullString
		statusStr        string
		attempts         int64
		priority         int64
		progressStage    sql.NullString
		progressPercent  sql.NullFloat64
		progressMessage  sql.NullString
		errorMessage     sql.NullString
		recipeJSON       sql.NullString
		nextAttemptRaw   sql.NullString
		lastHeartbeatRaw sql.NullString
		createdRaw       sql.NullString
		updatedRaw       sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&token,
		&title,
		&scriptPath,
		&statusStr,
		&attempts,
		&priority,
		&progressStage,
		&progressPercent,
		&progressMessage,
		&errorMessage,
		&recipeJSON,
		&nextAttemptRaw,
		&lastHeartbeatRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	item := &Item{
		ID:              id,
		Token:           token,
		Title:           title,
		ScriptPath:      scriptPath.String,
		Status:          Status(statusStr),
		Attempts:        int(attempts),
		Priority:        int(priority),
		ProgressStage:   progressStage.String,
		ProgressPercent: progressPercent.Float64,
		ProgressMessage: progressMessage.String,
		ErrorMessage:    errorMessage.String,
		RecipeJSON:      recipeJSON.String,
	}

	if nextAttemptRaw.Valid {
		if next, err := parseTimeString(nextAttemptRaw.String); err == nil {
			item.NextAttemptAt = next
		}
	}
	if lastHeartbeatRaw.Valid {
		if heartbeat, err := parseTimeString(lastHeartbeatRaw.String); err == nil {
			item.LastHeartbeat = &heartbeat
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	return item, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil || value.IsZero() {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
