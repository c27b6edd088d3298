package render

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"reelsmith/internal/recipe"
	"reelsmith/internal/services"
)

func TestNewOutputDescribesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "final.mp4")
	if err := os.WriteFile(path, []byte("fake video"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	out, err := newOutput(OutputVideo, path)
	if err != nil {
		t.Fatalf("newOutput() error = %v", err)
	}
	if out.ID == "" {
		t.Fatal("newOutput() did not assign an ID")
	}
	if out.Filename != "final.mp4" || out.Type != OutputVideo {
		t.Fatalf("output = %+v", out)
	}
	if out.MIME != "video/mp4" {
		t.Fatalf("MIME = %q, want video/mp4", out.MIME)
	}
	if out.Size != int64(len("fake video")) {
		t.Fatalf("Size = %d, want %d", out.Size, len("fake video"))
	}
}

func TestNewOutputMissingFile(t *testing.T) {
	_, err := newOutput(OutputVideo, filepath.Join(t.TempDir(), "absent.mp4"))
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("newOutput(absent) error = %v, want external tool error", err)
	}
}

func TestWriteManifest(t *testing.T) {
	job := NewJob("recipe-7", t.TempDir())
	job.addOutput(Output{ID: "out-1", Type: OutputVideo, Filename: "final.mp4", MIME: "video/mp4", Size: 42})
	job.addOutput(Output{ID: "out-2", Type: OutputSubtitle, Filename: "final.srt", Size: 7})
	tl := &Timeline{
		Width:      1080,
		Height:     1920,
		FrameRate:  30,
		Duration:   12.5,
		Background: BackgroundLayer{Kind: recipe.BackgroundSolid},
	}

	path := filepath.Join(job.WorkDir, "manifest.json")
	if err := writeManifest(path, job, tl, "Morning Brief"); err != nil {
		t.Fatalf("writeManifest() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	var doc manifest
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if doc.JobID != job.ID || doc.RecipeID != "recipe-7" || doc.Title != "Morning Brief" {
		t.Fatalf("manifest header = %+v", doc)
	}
	if doc.Width != 1080 || doc.Height != 1920 || doc.FrameRate != 30 || doc.Duration != 12.5 {
		t.Fatalf("manifest geometry = %+v", doc)
	}
	if doc.CreatedAt.IsZero() {
		t.Fatal("manifest CreatedAt is zero")
	}
	if len(doc.Outputs) != 2 || doc.Outputs[0].ID != "out-1" || doc.Outputs[1].Type != "subtitle" {
		t.Fatalf("manifest outputs = %+v", doc.Outputs)
	}
}
