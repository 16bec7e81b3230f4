package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "cache.db")

	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_LoadMissing(t *testing.T) {
	store := setupTestStore(t)

	snap, err := store.Load(context.Background(), "no-such-guid")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if snap != nil {
		t.Errorf("Load() = %v, want nil", snap)
	}
}

func TestStore_SaveLoad(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	saved := Snapshot{
		GUID:      "abc123",
		Content:   "hello world",
		ETag:      `"v1"`,
		Timestamp: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := store.Save(ctx, saved); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Load(ctx, "abc123")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got == nil {
		t.Fatal("Load() = nil, want snapshot")
	}
	if got.Content != saved.Content {
		t.Errorf("Content = %q, want %q", got.Content, saved.Content)
	}
	if got.ETag != saved.ETag {
		t.Errorf("ETag = %q, want %q", got.ETag, saved.ETag)
	}
	if !got.Timestamp.Equal(saved.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, saved.Timestamp)
	}
}

func TestStore_SaveOverwrites(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	first := Snapshot{GUID: "abc123", Content: "old", ETag: `"v1"`, Timestamp: time.Now()}
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	second := Snapshot{GUID: "abc123", Content: "new", ETag: `"v2"`, Timestamp: time.Now()}
	if err := store.Save(ctx, second); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Load(ctx, "abc123")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Content != "new" {
		t.Errorf("Content = %q, want %q", got.Content, "new")
	}
	if got.ETag != `"v2"` {
		t.Errorf("ETag = %q, want %q", got.ETag, `"v2"`)
	}
}

func TestStore_Prune(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for _, guid := range []string{"keep-1", "keep-2", "stale-1", "stale-2"} {
		snap := Snapshot{GUID: guid, Content: guid, Timestamp: time.Now()}
		if err := store.Save(ctx, snap); err != nil {
			t.Fatalf("Save(%s) error = %v", guid, err)
		}
	}

	pruned, err := store.Prune(ctx, []string{"keep-1", "keep-2"})
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if pruned != 2 {
		t.Errorf("Prune() = %d, want 2", pruned)
	}

	for guid, want := range map[string]bool{"keep-1": true, "keep-2": true, "stale-1": false, "stale-2": false} {
		snap, err := store.Load(ctx, guid)
		if err != nil {
			t.Fatalf("Load(%s) error = %v", guid, err)
		}
		if (snap != nil) != want {
			t.Errorf("Load(%s) present = %v, want %v", guid, snap != nil, want)
		}
	}
}

func TestStore_PruneAll(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, Snapshot{GUID: "only", Content: "x", Timestamp: time.Now()}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	pruned, err := store.Prune(ctx, nil)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if pruned != 1 {
		t.Errorf("Prune() = %d, want 1", pruned)
	}
}
