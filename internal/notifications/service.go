package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reelsmith/internal/config"
)

const userAgent = "Reelsmith/0.1.0"

// Service defines the notification surface exposed to the worker and CLI.
type Service interface {
	ProductionCompleted(ctx context.Context, title string, outputs int, duration time.Duration) error
	RenderCompleted(ctx context.Context, title, mode string, duration time.Duration) error
	ProductionFailed(ctx context.Context, title string, cause error) error
	QueueStalled(ctx context.Context, reclaimed int) error
	Test(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:   topic,
		client:     &http.Client{Timeout: timeout},
		production: cfg.Notifications.Production,
		render:     cfg.Notifications.Render,
		errors:     cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint   string
	client     *http.Client
	production bool
	render     bool
	errors     bool
}

func (n *ntfyService) ProductionCompleted(ctx context.Context, title string, outputs int, duration time.Duration) error {
	if !n.production {
		return nil
	}
	title = strings.TrimSpace(title)
	data := payload{
		title:   "Reelsmith - Production Complete",
		message: fmt.Sprintf("🎬 Produced %s: %d output(s) in %s", title, outputs, duration.Round(time.Second)),
		tags:    []string{"reelsmith", "production", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) RenderCompleted(ctx context.Context, title, mode string, duration time.Duration) error {
	if !n.render {
		return nil
	}
	title = strings.TrimSpace(title)
	if mode = strings.TrimSpace(mode); mode == "" {
		mode = "full"
	}
	data := payload{
		title:   "Reelsmith - Render Complete",
		message: fmt.Sprintf("🎞️ Rendered %s (%s pass) in %s", title, mode, duration.Round(time.Second)),
		tags:    []string{"reelsmith", "render", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) ProductionFailed(ctx context.Context, title string, cause error) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("❌ Production failed")
	if title = strings.TrimSpace(title); title != "" {
		builder.WriteString(" for ")
		builder.WriteString(title)
	}
	builder.WriteString(": ")
	if cause != nil {
		builder.WriteString(strings.TrimSpace(cause.Error()))
	} else {
		builder.WriteString("unknown")
	}
	data := payload{
		title:    "Reelsmith - Error",
		message:  builder.String(),
		tags:     []string{"reelsmith", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) QueueStalled(ctx context.Context, reclaimed int) error {
	if !n.errors {
		return nil
	}
	data := payload{
		title:    "Reelsmith - Queue Stalled",
		message:  fmt.Sprintf("⚠️ Reclaimed %d job(s) from a stalled worker", reclaimed),
		tags:     []string{"reelsmith", "queue", "stalled"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) Test(ctx context.Context) error {
	data := payload{
		title:    "Reelsmith - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"reelsmith", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

type noopService struct{}

func (noopService) ProductionCompleted(context.Context, string, int, time.Duration) error { return nil }
func (noopService) RenderCompleted(context.Context, string, string, time.Duration) error  { return nil }
func (noopService) ProductionFailed(context.Context, string, error) error                 { return nil }
func (noopService) QueueStalled(context.Context, int) error                               { return nil }
func (noopService) Test(context.Context) error                                            { return nil }
