package jobqueue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a production job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusProducing Status = "producing"
	StatusRendering Status = "rendering"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

var allStatuses = []Status{
	StatusQueued,
	StatusProducing,
	StatusRendering,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusProducing: {},
	StatusRendering: {},
}

// Item represents a production job persisted in SQLite.
type Item struct {
	ID              int64
	Token           string
	Title           string
	ScriptPath      string
	Status          Status
	Attempts        int
	Priority        int
	ProgressStage   string
	ProgressMessage string
	ProgressPercent float64
	ErrorMessage    string
	RecipeJSON      string
	NextAttemptAt   time.Time
	LastHeartbeat   *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessing returns true when the job is held by a worker.
func (i Item) IsProcessing() bool {
	return IsProcessingStatus(i.Status)
}

// IsProcessingStatus reports whether a status reflects an in-flight job.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// Ready reports whether a queued job may run at the given time. Jobs waiting
// out a retry backoff are not ready until NextAttemptAt passes.
func (i Item) Ready(now time.Time) bool {
	if i.Status != StatusQueued {
		return false
	}
	return i.NextAttemptAt.IsZero() || !now.Before(i.NextAttemptAt)
}

// SetProgress updates all three progress fields together. Use this instead of
// setting ProgressStage, ProgressPercent, and ProgressMessage individually.
func (i *Item) SetProgress(stage, message string, percent float64) {
	i.ProgressStage = stage
	i.ProgressMessage = message
	i.ProgressPercent = percent
}

// SetProgressComplete sets progress to 100% with the given stage and message.
func (i *Item) SetProgressComplete(stage, message string) {
	i.SetProgress(stage, message, 100)
}

// HealthSummary describes aggregated queue counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Queued     int
	Processing int
	Failed     int
	Completed  int
}

// DatabaseHealth captures diagnostic information about the queue database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    string
	TableExists      bool
	ColumnsPresent   []string
	MissingColumns   []string
	IntegrityCheck   bool
	TotalItems       int
	Error            string
}
