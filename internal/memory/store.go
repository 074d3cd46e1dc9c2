package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/charmbracelet/log"
)

// Store defines the contract for loading and saving the knowledge base.
// Every save overwrites the whole document; there is no locking, so
// concurrent writers race and the last one wins.
type Store interface {
	// Load reads the whole document into memory.
	Load(ctx context.Context) (*Document, error)

	// Save replaces the stored document with doc.
	Save(ctx context.Context, doc *Document) error

	// Close releases any resources held by the store.
	Close() error
}

// FileStore keeps the knowledge base in a single pretty-printed JSON file.
type FileStore struct {
	path   string
	logger *log.Logger
}

// NewFileStore creates a store backed by the JSON file at path. A nil logger
// falls back to the package default.
func NewFileStore(path string, logger *log.Logger) *FileStore {
	if logger == nil {
		logger = log.Default()
	}
	return &FileStore{path: path, logger: logger}
}

// Path returns the file the store reads and writes.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads and decodes the document. A missing file yields an empty
// document so the first add can create the knowledge base.
func (s *FileStore) Load(ctx context.Context) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Info("knowledge base not found, starting empty", "path", s.path)
		return NewDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge base: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse knowledge base %s: %w", s.path, err)
	}

	s.logger.Debug("loaded knowledge base", "path", s.path, "entries", doc.Knowledge.Len())
	return &doc, nil
}

// Save writes the document with two-space indentation, replacing the file.
func (s *FileStore) Save(ctx context.Context, doc *Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode knowledge base: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write knowledge base: %w", err)
	}

	s.logger.Debug("saved knowledge base", "path", s.path, "bytes", len(data))
	return nil
}

// Close is a no-op; the file is not held open between calls.
func (s *FileStore) Close() error {
	return nil
}

var _ Store = (*FileStore)(nil)
