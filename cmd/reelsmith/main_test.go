package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"reelsmith/internal/config"
	"reelsmith/internal/jobqueue"
	"reelsmith/internal/logging"
	"reelsmith/internal/subtitle"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.WorkspaceDir = filepath.Join(base, "workspace")
	cfgVal.Paths.MaterialsDir = filepath.Join(base, "materials")
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfg := &cfgVal

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\nworkspace_dir = %q\nmaterials_dir = %q\noutput_dir = %q\nlog_dir = %q\n",
		cfg.Paths.WorkspaceDir,
		cfg.Paths.MaterialsDir,
		cfg.Paths.OutputDir,
		cfg.Paths.LogDir,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func openTestStore(t *testing.T, env *cliTestEnv) *jobqueue.Store {
	t.Helper()
	store, err := jobqueue.Open(env.cfg)
	if err != nil {
		t.Fatalf("jobqueue.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCLIQueueCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	store := openTestStore(t, env)
	ctx := context.Background()

	if _, err := store.Enqueue(ctx, "Alpha", "/tmp/alpha.txt", "", 0); err != nil {
		t.Fatalf("enqueue alpha: %v", err)
	}
	failed, err := store.Enqueue(ctx, "Beta", "/tmp/beta.txt", "", 0)
	if err != nil {
		t.Fatalf("enqueue beta: %v", err)
	}
	failed.Status = jobqueue.StatusFailed
	if err := store.Update(ctx, failed); err != nil {
		t.Fatalf("update failed item: %v", err)
	}

	out, _, err := runCLI(t, []string{"queue", "status"}, env.configPath)
	if err != nil {
		t.Fatalf("queue status: %v", err)
	}
	if !strings.Contains(out, "Queued") || !strings.Contains(out, "Failed") {
		t.Fatalf("unexpected queue status output: %q", out)
	}

	out, _, err = runCLI(t, []string{"queue", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	if !strings.Contains(out, "Alpha") || !strings.Contains(out, "Beta") {
		t.Fatalf("queue list missing items: %q", out)
	}

	out, _, err = runCLI(t, []string{"queue", "retry"}, env.configPath)
	if err != nil {
		t.Fatalf("queue retry: %v", err)
	}
	if !strings.Contains(out, "Retried 1 failed items") {
		t.Fatalf("unexpected retry output: %q", out)
	}
	retried, err := store.GetByID(ctx, failed.ID)
	if err != nil {
		t.Fatalf("GetByID after retry: %v", err)
	}
	if retried.Status != jobqueue.StatusQueued {
		t.Fatalf("expected retried item queued, got %s", retried.Status)
	}

	retried.Status = jobqueue.StatusFailed
	if err := store.Update(ctx, retried); err != nil {
		t.Fatalf("reset failed status: %v", err)
	}

	out, _, err = runCLI(t, []string{"queue", "clear", "--failed"}, env.configPath)
	if err != nil {
		t.Fatalf("queue clear --failed: %v", err)
	}
	if !strings.Contains(out, "Cleared 1 failed items") {
		t.Fatalf("unexpected clear failed output: %q", out)
	}

	out, _, err = runCLI(t, []string{"queue", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("queue clear: %v", err)
	}
	if !strings.Contains(out, "Cleared 1 queue items") {
		t.Fatalf("unexpected clear output: %q", out)
	}

	out, _, err = runCLI(t, []string{"queue", "status"}, env.configPath)
	if err != nil {
		t.Fatalf("queue status after clear: %v", err)
	}
	if !strings.Contains(out, "Queue is empty") {
		t.Fatalf("expected empty queue message, got %q", out)
	}
}

func TestCLIQueueAddAndRemove(t *testing.T) {
	env := setupCLITestEnv(t)

	scriptPath := filepath.Join(env.baseDir, "script.txt")
	if err := os.WriteFile(scriptPath, []byte("こんにちは。今日は良い天気です。"), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}

	out, _, err := runCLI(t, []string{"queue", "add", "--script", scriptPath, "--title", "My Reel"}, env.configPath)
	if err != nil {
		t.Fatalf("queue add: %v", err)
	}
	if !strings.Contains(out, "Queued item") {
		t.Fatalf("unexpected add output: %q", out)
	}

	store := openTestStore(t, env)
	items, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("list after add: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Title != "My Reel" || items[0].Status != jobqueue.StatusQueued {
		t.Fatalf("unexpected item state: %+v", items[0])
	}

	out, _, err = runCLI(t, []string{"queue", "remove", fmt.Sprintf("%d", items[0].ID)}, env.configPath)
	if err != nil {
		t.Fatalf("queue remove: %v", err)
	}
	if !strings.Contains(out, fmt.Sprintf("Removed item %d", items[0].ID)) {
		t.Fatalf("unexpected remove output: %q", out)
	}

	out, _, err = runCLI(t, []string{"queue", "remove", "9999"}, env.configPath)
	if err != nil {
		t.Fatalf("queue remove missing: %v", err)
	}
	if !strings.Contains(out, "Item 9999 not found") {
		t.Fatalf("unexpected remove-missing output: %q", out)
	}

	if _, _, err := runCLI(t, []string{"queue", "add", "--script", scriptPath}, env.configPath); err != nil {
		t.Fatalf("queue add without title: %v", err)
	}
	items, err = store.List(context.Background())
	if err != nil {
		t.Fatalf("list after titleless add: %v", err)
	}
	if len(items) != 1 || items[0].Title != "script" {
		t.Fatalf("expected filename-derived title, got %+v", items)
	}

	if _, _, err := runCLI(t, []string{"queue", "add", "--script", filepath.Join(env.baseDir, "absent.txt")}, env.configPath); err == nil {
		t.Fatal("expected error for missing script file")
	}
}

func TestCLIQueueShow(t *testing.T) {
	env := setupCLITestEnv(t)
	store := openTestStore(t, env)
	ctx := context.Background()

	item, err := store.Enqueue(ctx, "Gamma", "/tmp/gamma.txt", "", 2)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	out, _, err := runCLI(t, []string{"queue", "show", fmt.Sprintf("%d", item.ID)}, env.configPath)
	if err != nil {
		t.Fatalf("queue show by id: %v", err)
	}
	for _, want := range []string{
		fmt.Sprintf("Item %d: Queued", item.ID),
		"Gamma",
		item.Token,
		"/tmp/gamma.txt",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("show output missing %q: %q", want, out)
		}
	}

	out, _, err = runCLI(t, []string{"queue", "show", item.Token}, env.configPath)
	if err != nil {
		t.Fatalf("queue show by token: %v", err)
	}
	if !strings.Contains(out, fmt.Sprintf("Item %d", item.ID)) {
		t.Fatalf("token lookup missed the item: %q", out)
	}

	out, _, err = runCLI(t, []string{"queue", "show", "no-such-token"}, env.configPath)
	if err != nil {
		t.Fatalf("queue show missing: %v", err)
	}
	if !strings.Contains(out, "not found") {
		t.Fatalf("unexpected missing-item output: %q", out)
	}

	_, _, err = runCLI(t, []string{"queue", "list", "--status", "bogus"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "expected one of") {
		t.Fatalf("list with unknown status = %v, want error naming the valid set", err)
	}
}

func TestCLIQueueHealth(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"queue", "health"}, env.configPath)
	if err != nil {
		t.Fatalf("queue health: %v", err)
	}
	for _, want := range []string{
		"Database path:",
		"production_jobs table present: yes",
		"Integrity check: yes",
		"Total items: 0",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("health output missing %q: %q", want, out)
		}
	}
}

func TestCLIConfigInitAndShow(t *testing.T) {
	env := setupCLITestEnv(t)

	target := filepath.Join(env.baseDir, "cfg", "config.toml")
	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, "Wrote sample configuration to "+target) {
		t.Fatalf("unexpected init output: %q", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config missing: %v", err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected error when config already exists")
	} else if !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("unexpected init error: %v", err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	out, _, err = runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "Config path: "+env.configPath) {
		t.Fatalf("show output missing config path: %q", out)
	}
	if !strings.Contains(out, "Workspace: "+env.cfg.Paths.WorkspaceDir) {
		t.Fatalf("show output missing workspace: %q", out)
	}
	if !strings.Contains(out, "Configuration valid") {
		t.Fatalf("show output missing validity line: %q", out)
	}
}

func TestCLIVoicesCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"voices", "--language", "ja", "--gender", "female"}, env.configPath)
	if err != nil {
		t.Fatalf("voices: %v", err)
	}
	if !strings.Contains(out, "ja+f1") {
		t.Fatalf("expected ja+f1 in output: %q", out)
	}
	if strings.Contains(out, "en-us") {
		t.Fatalf("unexpected en-us voice in ja filter: %q", out)
	}
	if strings.Contains(out, "ja+m1") {
		t.Fatalf("unexpected male voice in female filter: %q", out)
	}

	if _, _, err := runCLI(t, []string{"voices", "--gender", "robot"}, env.configPath); err == nil {
		t.Fatal("expected error for unknown gender")
	}
}

func TestCLISubtitlesFormat(t *testing.T) {
	env := setupCLITestEnv(t)

	text := "吾輩は猫である。名前はまだ無い。どこで生れたかとんと見当がつかぬ。"
	inputPath := filepath.Join(env.baseDir, "input.txt")
	if err := os.WriteFile(inputPath, []byte(text+"\n"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	out, _, err := runCLI(t, []string{"subtitles", "format", inputPath, "--width", "10"}, env.configPath)
	if err != nil {
		t.Fatalf("subtitles format: %v", err)
	}

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) < 2 {
		t.Fatalf("expected wrapped output, got %q", out)
	}
	if joined := strings.Join(lines, ""); joined != text {
		t.Fatalf("joined lines differ from input:\n%q\n%q", joined, text)
	}
	rules := subtitle.DefaultRules()
	for _, line := range lines {
		if w := subtitle.TextWidth(line); w > 10+rules.MaxOverflow {
			t.Fatalf("line %q too wide: %.1f", line, w)
		}
	}
}

func TestCLISubtitlesCheck(t *testing.T) {
	env := setupCLITestEnv(t)

	srt := "1\n00:00:00,000 --> 00:00:02,000\nこんにちは\n\n2\n00:00:02,500 --> 00:00:04,000\nテスト\n"
	srtPath := filepath.Join(env.baseDir, "cues.srt")
	if err := os.WriteFile(srtPath, []byte(srt), 0o644); err != nil {
		t.Fatalf("write srt: %v", err)
	}

	out, _, err := runCLI(t, []string{"subtitles", "check", srtPath}, env.configPath)
	if err != nil {
		t.Fatalf("subtitles check: %v", err)
	}
	for _, want := range []string{"Cues: 2", "Runtime: 00:00:04,000", "Overlapping cues: 0"} {
		if !strings.Contains(out, want) {
			t.Fatalf("check output missing %q: %q", want, out)
		}
	}
}

func TestCLIVersionCommand(t *testing.T) {
	out, _, err := runCLI(t, []string{"version"}, "")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "reelsmith dev") {
		t.Fatalf("unexpected version output: %q", out)
	}
}

func TestCLIProduceRequiresScript(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"produce"}, env.configPath); err == nil {
		t.Fatal("expected error without --script")
	} else if !strings.Contains(err.Error(), "--script is required") {
		t.Fatalf("unexpected produce error: %v", err)
	}
}

func TestCLIRenderRejectsMissingRecipe(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"render", "--recipe", filepath.Join(env.baseDir, "absent.json")}, env.configPath); err == nil {
		t.Fatal("expected error for missing recipe file")
	} else if !strings.Contains(err.Error(), "read recipe") {
		t.Fatalf("unexpected render error: %v", err)
	}
}

func TestCLILogsCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := runCLI(t, []string{"logs"}, env.configPath)
	if err != nil {
		t.Fatalf("logs without file failed: %v", err)
	}
	if !strings.Contains(stdout, "No log entries available") {
		t.Fatalf("expected empty-log notice, got %q", stdout)
	}

	if err := os.MkdirAll(env.cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatalf("create log dir: %v", err)
	}
	logPath := filepath.Join(env.cfg.Paths.LogDir, "reelsmith.log")
	if err := os.WriteFile(logPath, []byte("first\nsecond\nthird\n"), 0o644); err != nil {
		t.Fatalf("write log file: %v", err)
	}

	stdout, _, err = runCLI(t, []string{"logs", "--lines", "2"}, env.configPath)
	if err != nil {
		t.Fatalf("logs failed: %v", err)
	}
	if strings.Contains(stdout, "first") {
		t.Fatalf("expected only the last two lines, got %q", stdout)
	}
	if !strings.Contains(stdout, "second") || !strings.Contains(stdout, "third") {
		t.Fatalf("expected trailing lines, got %q", stdout)
	}

	stdout, _, err = runCLI(t, []string{"logs", "--lines", "0"}, env.configPath)
	if err != nil {
		t.Fatalf("logs --lines 0 failed: %v", err)
	}
	if !strings.Contains(stdout, "first") {
		t.Fatalf("expected full log output, got %q", stdout)
	}
}

func TestCLILogsEventsCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := runCLI(t, []string{"logs", "--events"}, env.configPath)
	if err != nil {
		t.Fatalf("logs --events without archives failed: %v", err)
	}
	if !strings.Contains(stdout, "No event archives available") {
		t.Fatalf("expected missing-archive notice, got %q", stdout)
	}

	archivePath := filepath.Join(env.cfg.Paths.LogDir, "reelsmith-20260314T093000.000Z.events")
	arch, err := logging.NewEventArchive(archivePath)
	if err != nil {
		t.Fatalf("create archive: %v", err)
	}
	stamp := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	arch.Append(logging.LogEvent{Sequence: 1, Timestamp: stamp, Level: "INFO", Message: "worker started", Component: "worker"})
	arch.Append(logging.LogEvent{
		Sequence:  2,
		Timestamp: stamp.Add(time.Second),
		Level:     "INFO",
		Message:   "step completed",
		JobID:     7,
		Step:      "generate-narration",
		Details:   []logging.DetailField{{Label: "Event", Value: "step_completed"}},
	})
	if err := arch.Close(); err != nil {
		t.Fatalf("close archive: %v", err)
	}

	stdout, _, err = runCLI(t, []string{"logs", "--events"}, env.configPath)
	if err != nil {
		t.Fatalf("logs --events failed: %v", err)
	}
	if !strings.Contains(stdout, "[worker] - worker started") {
		t.Fatalf("expected component line, got %q", stdout)
	}
	if !strings.Contains(stdout, "job #7 (generate-narration) - step completed") {
		t.Fatalf("expected job subject line, got %q", stdout)
	}
	if !strings.Contains(stdout, "- Event: step_completed") {
		t.Fatalf("expected detail bullet, got %q", stdout)
	}

	stdout, _, err = runCLI(t, []string{"logs", "--events", "--lines", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("logs --events --lines 1 failed: %v", err)
	}
	if strings.Contains(stdout, "worker started") {
		t.Fatalf("expected only the newest event, got %q", stdout)
	}
	if !strings.Contains(stdout, "step completed") {
		t.Fatalf("expected newest event, got %q", stdout)
	}
}

func TestCLIDoctorCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	for _, dir := range []string{env.cfg.Paths.WorkspaceDir, env.cfg.Paths.MaterialsDir, env.cfg.Paths.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}

	binDir := filepath.Join(env.baseDir, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir bin: %v", err)
	}
	script := []byte("#!/bin/sh\nexit 0\n")
	for _, name := range []string{"ffmpeg", "ffprobe"} {
		if err := os.WriteFile(filepath.Join(binDir, name), script, 0o755); err != nil {
			t.Fatalf("write stub: %v", err)
		}
	}
	t.Setenv("PATH", binDir)

	stdout, _, err := runCLI(t, []string{"doctor"}, env.configPath)
	if err != nil {
		t.Fatalf("doctor failed: %v", err)
	}
	if !strings.Contains(stdout, "== Directories ==") || !strings.Contains(stdout, "== Tools ==") {
		t.Fatalf("expected section headers, got %q", stdout)
	}
	if !strings.Contains(stdout, "Workspace:") || !strings.Contains(stdout, "[OK]") {
		t.Fatalf("expected workspace check to pass, got %q", stdout)
	}
	if !strings.Contains(stdout, "Logs:") || !strings.Contains(stdout, "does not exist") {
		t.Fatalf("expected missing log dir to be reported, got %q", stdout)
	}
	if !strings.Contains(stdout, "FFmpeg:") || !strings.Contains(stdout, "Ready") {
		t.Fatalf("expected ffmpeg stub to be ready, got %q", stdout)
	}
	if !strings.Contains(stdout, "Speech synthesizer:") || !strings.Contains(stdout, "[WARN]") {
		t.Fatalf("expected speech warn, got %q", stdout)
	}
	if !strings.Contains(stdout, "== Queue ==") {
		t.Fatalf("expected queue section, got %q", stdout)
	}
	if !strings.Contains(stdout, "Queue database:") || !strings.Contains(stdout, "0 items") {
		t.Fatalf("expected empty queue summary, got %q", stdout)
	}
}

func TestCLITestNotify(t *testing.T) {
	var gotTitle string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTitle = r.Header.Get("Title")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	env := setupCLITestEnv(t)
	topicLine := fmt.Sprintf("\n[notifications]\nntfy_topic = %q\n", server.URL)
	appendToFile(t, env.configPath, topicLine)

	stdout, _, err := runCLI(t, []string{"test-notify"}, env.configPath)
	if err != nil {
		t.Fatalf("test-notify failed: %v", err)
	}
	if !strings.Contains(stdout, "Test notification sent") {
		t.Fatalf("unexpected output %q", stdout)
	}
	if gotTitle != "Reelsmith - Test" {
		t.Fatalf("notification title = %q", gotTitle)
	}
}

func TestCLITestNotifyDisabled(t *testing.T) {
	env := setupCLITestEnv(t)
	stdout, _, err := runCLI(t, []string{"test-notify"}, env.configPath)
	if err != nil {
		t.Fatalf("test-notify failed: %v", err)
	}
	if !strings.Contains(stdout, "disabled") {
		t.Fatalf("expected disabled notice, got %q", stdout)
	}
}

func appendToFile(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("append to %s: %v", path, err)
	}
}
