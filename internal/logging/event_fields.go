package logging

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

type eventDetail struct {
	label string
	value string
}

const eventDetailLimit = 8

// detailHighlightKeys are surfaced first, in this order, when present.
var detailHighlightKeys = []string{
	FieldEventType,
	"error",
	FieldErrorHint,
	FieldImpact,
	FieldProgressPercent,
	FieldProgressMessage,
	FieldRecipeID,
	"title",
	"command",
	"voice",
	"input",
	"output",
	"outputs",
	"attempt",
	"next_attempt_at",
	"segments",
	"frames",
	"clips",
	"elapsed",
}

// selectEventDetails picks up to limit attrs worth showing as label/value
// details. Promoted keys and noisy internals are skipped; limit <= 0 keeps
// everything that survives the filters.
func selectEventDetails(attrs []kv, limit int) []eventDetail {
	if len(attrs) == 0 {
		return nil
	}
	details := make([]eventDetail, 0, eventDetailLimit)
	used := make([]bool, len(attrs))

	take := func(idx int) bool {
		attr := attrs[idx]
		used[idx] = true
		if hideDetailKey(attr.key) {
			return false
		}
		value := detailValue(attr.key, attr.value)
		if hideDetailValue(attr.key, value) {
			return false
		}
		details = append(details, eventDetail{label: detailLabel(attr.key), value: value})
		return true
	}

	for _, key := range detailHighlightKeys {
		if limit > 0 && len(details) >= limit {
			return details
		}
		for idx, attr := range attrs {
			if !used[idx] && attr.key == key {
				take(idx)
				break
			}
		}
	}

	for idx := range attrs {
		if limit > 0 && len(details) >= limit {
			break
		}
		if !used[idx] {
			take(idx)
		}
	}
	return details
}

// hideDetailKey filters keys that are promoted to typed event fields or that
// only matter when reading the raw log file.
func hideDetailKey(key string) bool {
	switch key {
	case "", FieldJobID, FieldStep, FieldStage, FieldComponent, FieldCorrelationID, FieldSessionID:
		return true
	}
	if strings.HasSuffix(key, "_path") || strings.HasSuffix(key, "_dir") {
		return true
	}
	return strings.Contains(key, "correlation")
}

func hideDetailValue(key, value string) bool {
	if strings.TrimSpace(value) == "" {
		return true
	}
	switch key {
	case "error", "command":
		return false
	}
	return len(value) > 120
}

// detailValue renders an attr value, humanizing sizes, durations, and
// percentages.
func detailValue(key string, v slog.Value) string {
	v = v.Resolve()
	switch {
	case v.Kind() == slog.KindDuration:
		return humanDuration(v.Duration())
	case v.Kind() == slog.KindInt64 && isByteSizeKey(key):
		return humanBytes(v.Int64())
	case v.Kind() == slog.KindUint64 && isByteSizeKey(key):
		return humanBytes(int64(v.Uint64()))
	case v.Kind() == slog.KindFloat64 && isPercentKey(key):
		return fmt.Sprintf("%.1f%%", v.Float64())
	case v.Kind() == slog.KindBool:
		if v.Bool() {
			return "yes"
		}
		return "no"
	}
	value := attrString(v)
	if key == "error" && len(value) > 200 {
		value = value[:200] + "…"
	}
	return value
}

func isByteSizeKey(key string) bool {
	return strings.HasSuffix(key, "_bytes") || strings.HasSuffix(key, "_size") || key == "size"
}

func isPercentKey(key string) bool {
	return strings.HasSuffix(key, "_percent") || key == "percent"
}

func detailLabel(key string) string {
	switch key {
	case FieldEventType:
		return "Event"
	case FieldErrorHint:
		return "Hint"
	case FieldImpact:
		return "Impact"
	case FieldRecipeID:
		return "Recipe"
	case FieldProgressPercent:
		return "Progress"
	case FieldProgressMessage:
		return "Progress Message"
	case "error":
		return "Error"
	case "next_attempt_at":
		return "Next Attempt"
	default:
		return titleizeKey(key)
	}
}

// titleizeKey turns snake_case or kebab-case keys into spaced title labels.
func titleizeKey(key string) string {
	parts := strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == '-'
	})
	for i, part := range parts {
		lower := strings.ToLower(part)
		parts[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(parts, " ")
}

func humanBytes(value int64) string {
	const (
		kiB = 1024
		miB = kiB * 1024
		giB = miB * 1024
	)
	switch {
	case value >= giB:
		return fmt.Sprintf("%.2f GiB", float64(value)/float64(giB))
	case value >= miB:
		return fmt.Sprintf("%.2f MiB", float64(value)/float64(miB))
	case value >= kiB:
		return fmt.Sprintf("%.2f KiB", float64(value)/float64(kiB))
	default:
		return fmt.Sprintf("%d B", value)
	}
}

func humanDuration(d time.Duration) string {
	if d >= time.Second {
		return d.Round(time.Second).String()
	}
	return d.Round(time.Millisecond).String()
}
