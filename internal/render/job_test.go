package render

import (
	"errors"
	"strings"
	"testing"
)

func TestJobLifecycle(t *testing.T) {
	job := NewJob("recipe-1", t.TempDir())
	if job.ID == "" {
		t.Fatal("NewJob() did not assign an ID")
	}
	if got := job.Status(); got != JobPending {
		t.Fatalf("Status() = %s, want %s", got, JobPending)
	}

	job.begin()
	if got := job.Status(); got != JobRunning {
		t.Fatalf("Status() = %s, want %s", got, JobRunning)
	}

	job.startStage(CheckpointSurface)
	if got := job.Stage(); got != CheckpointSurface {
		t.Fatalf("Stage() = %s, want %s", got, CheckpointSurface)
	}
	job.completeStage(CheckpointSurface)
	if got := job.LastCheckpoint(); got != CheckpointSurface {
		t.Fatalf("LastCheckpoint() = %s, want %s", got, CheckpointSurface)
	}
	if got := job.Progress(); got != 5 {
		t.Fatalf("Progress() = %d, want 5", got)
	}

	job.setStageProgress(CheckpointFrameRender, 0.5)
	if got := job.Progress(); got != 28 {
		t.Fatalf("Progress() = %d, want 28", got)
	}

	job.complete()
	if got, p := job.Status(), job.Progress(); got != JobCompleted || p != 100 {
		t.Fatalf("Status() = %s with progress %d, want %s at 100", got, p, JobCompleted)
	}
}

func TestJobFailAndReset(t *testing.T) {
	job := NewJob("recipe-1", t.TempDir())
	job.begin()
	job.completeStage(CheckpointSurface)
	job.fail("synthesis exploded")

	if got := job.Status(); got != JobError {
		t.Fatalf("Status() = %s, want %s", got, JobError)
	}
	if got := job.Err(); got != "synthesis exploded" {
		t.Fatalf("Err() = %q", got)
	}
	if got := job.Stage(); got != CheckpointSurface {
		t.Fatalf("Stage() after failure = %s, want the last checkpoint", got)
	}

	job.reset()
	if got := job.LastCheckpoint(); got != CheckpointNone {
		t.Fatalf("LastCheckpoint() after reset = %q, want none", got)
	}
	if job.Progress() != 0 || job.Err() != "" || len(job.Outputs()) != 0 {
		t.Fatalf("reset left progress %d, err %q, %d outputs",
			job.Progress(), job.Err(), len(job.Outputs()))
	}
}

func TestJobAddOutputReplacesSameArtifact(t *testing.T) {
	job := NewJob("recipe-1", t.TempDir())
	job.addOutput(Output{ID: "a", Type: OutputVideo, Filename: "final.mp4", Size: 10})
	job.addOutput(Output{ID: "b", Type: OutputVideo, Filename: "final.mp4", Size: 20})
	job.addOutput(Output{ID: "c", Type: OutputThumbnail, Filename: "final.png", Size: 5})

	outputs := job.Outputs()
	if len(outputs) != 2 {
		t.Fatalf("got %d outputs, want 2", len(outputs))
	}
	if outputs[0].ID != "b" || outputs[0].Size != 20 {
		t.Fatalf("re-run did not refresh the artifact in place: %+v", outputs[0])
	}
}

func TestJobResourceHooksRunOnce(t *testing.T) {
	job := NewJob("recipe-1", t.TempDir())
	intermediates, products := 0, 0
	job.AddIntermediate(func() error { intermediates++; return nil })
	job.AddProduct(func() error { products++; return nil })

	if err := job.cleanupIntermediates(); err != nil {
		t.Fatalf("cleanupIntermediates() error = %v", err)
	}
	if intermediates != 1 || products != 0 {
		t.Fatalf("cleanup ran intermediates=%d products=%d, want 1 and 0", intermediates, products)
	}

	if err := job.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if intermediates != 1 || products != 1 {
		t.Fatalf("release ran intermediates=%d products=%d, want 1 and 1", intermediates, products)
	}

	if err := job.Release(); err != nil {
		t.Fatalf("second Release() error = %v", err)
	}
	if intermediates != 1 || products != 1 {
		t.Fatalf("second release re-ran hooks: intermediates=%d products=%d", intermediates, products)
	}
}

func TestJobReleaseJoinsHookErrors(t *testing.T) {
	job := NewJob("recipe-1", t.TempDir())
	job.AddIntermediate(func() error { return errors.New("first failed") })
	job.AddProduct(func() error { return errors.New("second failed") })

	err := job.Release()
	if err == nil {
		t.Fatal("Release() error = nil, want joined hook failures")
	}
	for _, fragment := range []string{"first failed", "second failed"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("Release() error %q missing %q", err, fragment)
		}
	}
}
