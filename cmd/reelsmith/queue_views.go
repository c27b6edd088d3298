package main

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"reelsmith/internal/jobqueue"
)

func buildQueueStatusRows(stats map[jobqueue.Status]int) [][]string {
	if len(stats) == 0 {
		return nil
	}
	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, string(key))
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{formatStatusLabel(key), fmt.Sprintf("%d", stats[jobqueue.Status(key)])})
	}
	return rows
}

func buildQueueListRows(items []*jobqueue.Item) [][]string {
	if len(items) == 0 {
		return nil
	}
	sorted := make([]*jobqueue.Item, len(items))
	copy(sorted, items)

	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].ID > sorted[j].ID
		}
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	rows := make([][]string, 0, len(sorted))
	for _, item := range sorted {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			source := strings.TrimSpace(item.ScriptPath)
			if source != "" {
				title = filepath.Base(source)
			} else {
				title = "Untitled"
			}
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", item.ID),
			title,
			formatStatusLabel(string(item.Status)),
			formatDisplayTime(item.CreatedAt),
			formatItemProgress(item),
		})
	}
	return rows
}

func formatStatusLabel(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return ""
	}
	parts := strings.Split(status, "_")
	for i, part := range parts {
		lower := strings.ToLower(part)
		if lower == "" {
			continue
		}
		parts[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(parts, " ")
}

func formatDisplayTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format("2006-01-02 15:04")
}

func formatItemProgress(item *jobqueue.Item) string {
	if !item.IsProcessing() {
		return "-"
	}
	stage := strings.TrimSpace(item.ProgressStage)
	if stage == "" {
		return fmt.Sprintf("%.0f%%", item.ProgressPercent)
	}
	return fmt.Sprintf("%.0f%% (%s)", item.ProgressPercent, stage)
}

// printQueueItem writes the full record of one item, skipping empty fields.
func printQueueItem(out io.Writer, item *jobqueue.Item) {
	fmt.Fprintf(out, "Item %d: %s\n", item.ID, formatStatusLabel(string(item.Status)))
	row := func(label, value string) {
		if strings.TrimSpace(value) == "" {
			return
		}
		fmt.Fprintf(out, "  %-10s %s\n", label+":", value)
	}
	row("Title", item.Title)
	row("Token", item.Token)
	row("Script", item.ScriptPath)
	row("Priority", fmt.Sprintf("%d", item.Priority))
	row("Attempts", fmt.Sprintf("%d", item.Attempts))
	if item.IsProcessing() {
		row("Progress", formatItemProgress(item))
		row("Activity", item.ProgressMessage)
	}
	row("Error", item.ErrorMessage)
	if item.Status == jobqueue.StatusQueued && !item.NextAttemptAt.IsZero() {
		row("Next run", formatDisplayTime(item.NextAttemptAt))
	}
	if item.LastHeartbeat != nil {
		row("Heartbeat", formatDisplayTime(*item.LastHeartbeat))
	}
	row("Created", formatDisplayTime(item.CreatedAt))
	row("Updated", formatDisplayTime(item.UpdatedAt))
}
