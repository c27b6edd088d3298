package testsupport

import (
	"context"
	"testing"

	"reelsmith/internal/config"
	"reelsmith/internal/jobqueue"
)

// MustOpenStore opens a jobqueue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *jobqueue.Store {
	t.Helper()

	store, err := jobqueue.Open(cfg)
	if err != nil {
		t.Fatalf("jobqueue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewJob enqueues a script-backed production job for tests.
func NewJob(t testing.TB, store *jobqueue.Store, title, scriptPath string) *jobqueue.Item {
	t.Helper()

	item, err := store.Enqueue(context.Background(), title, scriptPath, "", 0)
	if err != nil {
		t.Fatalf("store.Enqueue: %v", err)
	}
	return item
}
