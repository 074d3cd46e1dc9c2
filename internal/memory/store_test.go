package memory

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func newQuietLogger() *log.Logger {
	return log.New(io.Discard)
}

func TestFileStore_LoadSave(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "dev-memory.json")
	if err := os.WriteFile(path, []byte(sampleDocument), 0o644); err != nil {
		t.Fatal(err)
	}

	store := NewFileStore(path, newQuietLogger())
	defer store.Close()

	doc, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	if doc.Knowledge.Len() != 4 {
		t.Fatalf("expected 4 entries, got %d", doc.Knowledge.Len())
	}

	if err := store.Save(ctx, doc); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "{\n  \"knowledge\": {\n    \"patterns\": [\n") {
		t.Errorf("expected two-space indented output, got:\n%s", data)
	}

	reloaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("failed to reload: %v", err)
	}
	if got := strings.Join(reloaded.Knowledge.Categories(), ","); got != "patterns,testing,empty" {
		t.Errorf("expected category order preserved, got %s", got)
	}
}

func TestFileStore_MissingFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")
	store := NewFileStore(path, newQuietLogger())

	doc, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("expected no error for a missing file, got %v", err)
	}
	if doc.Knowledge.Len() != 0 {
		t.Errorf("expected empty document, got %d entries", doc.Knowledge.Len())
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("loading should not create the file")
	}
}

func TestFileStore_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte(`{"knowledge": {`), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := NewFileStore(path, newQuietLogger()).Load(context.Background())
	if err == nil {
		t.Fatal("expected an error for a malformed document")
	}
	if !strings.Contains(err.Error(), "failed to parse knowledge base") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFileStore_AddThenQueryEndToEnd(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kb.json")
	store := NewFileStore(path, newQuietLogger())

	kb, err := Open(ctx, store, WithLogger(newQuietLogger()))
	if err != nil {
		t.Fatalf("failed to open: %v", err)
	}
	if _, err := kb.Add(ctx, "testing", &Entry{ID: "test-1", Tags: []string{"mock"}}); err != nil {
		t.Fatalf("failed to add: %v", err)
	}

	for i := 0; i < 2; i++ {
		kb, err := Open(ctx, store)
		if err != nil {
			t.Fatalf("failed to reopen: %v", err)
		}
		results, err := kb.Query(ctx, "tags:mock")
		if err != nil {
			t.Fatalf("query failed: %v", err)
		}
		if len(results) != 1 || results[0].Entry.AccessedCount != i {
			t.Fatalf("run %d: expected one result seen %d times before, got %+v", i, i, results)
		}
	}

	kb, err = Open(ctx, store)
	if err != nil {
		t.Fatalf("failed to reopen: %v", err)
	}
	if got := findEntry(kb.Document(), "test-1").AccessedCount; got != 2 {
		t.Errorf("expected persisted access count 2, got %d", got)
	}
	if kb.Document().TotalEntries != 1 {
		t.Errorf("expected total_entries 1, got %d", kb.Document().TotalEntries)
	}
}
