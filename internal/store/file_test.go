package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/harborapp/harbor/internal/inbox"
)

func TestFileStore_MissingFileLoadsEmpty(t *testing.T) {
	fs := NewFileStore(filepath.Join(t.TempDir(), "inbox.json"))
	items, err := fs.Load(context.Background())
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected empty, got %d items", len(items))
	}
}

func TestFileStore_CorruptFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inbox.json")
	os.WriteFile(path, []byte("{broken"), 0o644)

	_, err := NewFileStore(path).Load(context.Background())
	if err == nil {
		t.Fatal("expected decode error")
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "inbox.json")
	fs := NewFileStore(path)
	ctx := context.Background()

	want := []inbox.Item{
		{
			ID:        "item-1",
			Source:    "claude",
			Content:   "привет",
			Status:    inbox.StatusNew,
			Tags:      []string{"код"},
			CreatedAt: time.Unix(1700000000, 0).UTC(),
			History: []inbox.HistoryEntry{
				{ID: "h1", Type: inbox.EntryCreated, ToStatus: inbox.StatusNew, At: time.Unix(1700000000, 0).UTC()},
			},
		},
	}
	if err := fs.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := fs.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 || got[0].ID != "item-1" || got[0].Content != "привет" {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got[0].History[0].Type != inbox.EntryCreated {
		t.Errorf("history lost: %+v", got[0].History)
	}
}

func TestFileStore_SaveReplacesAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inbox.json")
	fs := NewFileStore(path)
	ctx := context.Background()

	fs.Save(ctx, []inbox.Item{{ID: "a"}, {ID: "b"}})
	fs.Save(ctx, []inbox.Item{{ID: "c"}})

	got, err := fs.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 || got[0].ID != "c" {
		t.Errorf("save should replace, got %+v", got)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file left behind")
	}
}
