package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"reelsmith/internal/notifications"
	"reelsmith/internal/testsupport"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	svc := notifications.NewService(cfg)
	if err := svc.ProductionCompleted(context.Background(), "Example", 5, time.Minute); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if err := svc.Test(context.Background()); err != nil {
		t.Fatalf("expected noop test to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		send           func(svc notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "production completed",
			send: func(svc notifications.Service) error {
				return svc.ProductionCompleted(context.Background(), "Morning Brief", 5, 90*time.Second)
			},
			expectTitle:   "Reelsmith - Production Complete",
			expectMessage: "🎬 Produced Morning Brief: 5 output(s) in 1m30s",
			expectTags:    "reelsmith,production,completed",
		},
		{
			name: "render completed",
			send: func(svc notifications.Service) error {
				return svc.RenderCompleted(context.Background(), "Morning Brief", "effects", 42*time.Second)
			},
			expectTitle:   "Reelsmith - Render Complete",
			expectMessage: "🎞️ Rendered Morning Brief (effects pass) in 42s",
			expectTags:    "reelsmith,render,completed",
		},
		{
			name: "production failed",
			send: func(svc notifications.Service) error {
				return svc.ProductionFailed(context.Background(), "Morning Brief", errors.New("encoder exited 1"))
			},
			expectTitle:    "Reelsmith - Error",
			expectMessage:  "❌ Production failed for Morning Brief: encoder exited 1",
			expectTags:     "reelsmith,error,alert",
			expectPriority: "high",
		},
		{
			name: "queue stalled",
			send: func(svc notifications.Service) error {
				return svc.QueueStalled(context.Background(), 2)
			},
			expectTitle:    "Reelsmith - Queue Stalled",
			expectMessage:  "⚠️ Reclaimed 2 job(s) from a stalled worker",
			expectTags:     "reelsmith,queue,stalled",
			expectPriority: "high",
		},
		{
			name: "test",
			send: func(svc notifications.Service) error {
				return svc.Test(context.Background())
			},
			expectTitle:    "Reelsmith - Test",
			expectMessage:  "🧪 Notification system test",
			expectTags:     "reelsmith,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Fatalf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Fatalf("read body: %v", err)
				}
				captured.body = string(body)
				_ = r.Body.Close()
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := testsupport.NewConfig(t, testsupport.WithNtfyTopic(server.URL))
			svc := notifications.NewService(cfg)
			if err := tc.send(svc); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceHonorsConfigToggles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected call for disabled event: %s", r.Header.Get("Title"))
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithNtfyTopic(server.URL))
	cfg.Notifications.Production = false
	cfg.Notifications.Render = false
	cfg.Notifications.Errors = false

	svc := notifications.NewService(cfg)
	ctx := context.Background()
	if err := svc.ProductionCompleted(ctx, "Quiet", 1, time.Second); err != nil {
		t.Fatalf("expected disabled completion to be silent, got %v", err)
	}
	if err := svc.RenderCompleted(ctx, "Quiet", "full", time.Second); err != nil {
		t.Fatalf("expected disabled render to be silent, got %v", err)
	}
	if err := svc.ProductionFailed(ctx, "Quiet", errors.New("boom")); err != nil {
		t.Fatalf("expected disabled failure to be silent, got %v", err)
	}
	if err := svc.QueueStalled(ctx, 1); err != nil {
		t.Fatalf("expected disabled stall to be silent, got %v", err)
	}
}

func TestNtfyServiceSurfacesHTTPFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic over quota", http.StatusTooManyRequests)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithNtfyTopic(server.URL))
	svc := notifications.NewService(cfg)
	if err := svc.Test(context.Background()); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}
