package memory

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

// mockStore is an in-memory Store that records every save.
type mockStore struct {
	doc       *Document
	saves     int
	lastSaved []byte
	loadError error
	saveError error
}

func (m *mockStore) Load(ctx context.Context) (*Document, error) {
	if m.loadError != nil {
		return nil, m.loadError
	}
	if m.doc == nil {
		m.doc = NewDocument()
	}
	return m.doc, nil
}

func (m *mockStore) Save(ctx context.Context, doc *Document) error {
	if m.saveError != nil {
		return m.saveError
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	m.saves++
	m.lastSaved = data
	return nil
}

func (m *mockStore) Close() error {
	return nil
}

var errStore = errors.New("store unavailable")

var testNow = time.Date(2025, 3, 14, 9, 26, 53, 589_000_000, time.UTC)

// sampleDocument is a small knowledge base used across tests.
const sampleDocument = `{
  "knowledge": {
    "patterns": [
      {
        "id": "patt-123",
        "created": "2025-01-02T03:04:05.000Z",
        "tags": ["authentication", "session", "middleware"],
        "context": "Session middleware validates the auth cookie",
        "solution": "Wrap handlers with requireSession",
        "accessed_count": 2,
        "last_accessed": null
      },
      {
        "id": "patt-456",
        "tags": ["database", "pooling"],
        "context": "Reuse the database connection pool",
        "examples": ["pgxpool.New(ctx, url)"]
      }
    ],
    "testing": [
      {
        "id": "test-001",
        "tags": ["mock", "unit-test"],
        "context": "Mock the store interface in unit tests"
      },
      {
        "id": "test-002",
        "tags": ["integration"],
        "context": "Spin up sqlite in memory",
        "solution": "Use :memory: with a single connection"
      }
    ],
    "empty": []
  },
  "total_entries": 4,
  "last_updated": "2025-01-02T03:04:05.000Z"
}`

func loadSample(t *testing.T) *Document {
	t.Helper()
	var doc Document
	if err := json.Unmarshal([]byte(sampleDocument), &doc); err != nil {
		t.Fatalf("failed to parse sample document: %v", err)
	}
	return &doc
}

func newTestKB(t *testing.T, store *mockStore) *KnowledgeBase {
	t.Helper()
	kb, err := Open(context.Background(), store, WithClock(func() time.Time { return testNow }))
	if err != nil {
		t.Fatalf("failed to open knowledge base: %v", err)
	}
	return kb
}

func findEntry(doc *Document, id string) *Entry {
	var found *Entry
	doc.Knowledge.Each(func(_ string, e *Entry) bool {
		if e.ID == id {
			found = e
			return false
		}
		return true
	})
	return found
}
