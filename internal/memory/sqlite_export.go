package memory

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteExporter snapshots the knowledge base into a SQLite database.
type SQLiteExporter struct {
	db *sql.DB
}

// NewSQLiteExporter opens the SQLite database at dbPath (a file path or
// ":memory:") and verifies connectivity with a ping.
func NewSQLiteExporter(ctx context.Context, dbPath string) (*SQLiteExporter, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases from splitting per conn.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteExporter{db: db}, nil
}

// InitSchema creates the snapshot tables if they don't exist.
func (s *SQLiteExporter) InitSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS entries (
			category TEXT NOT NULL,
			position INTEGER NOT NULL,
			id TEXT,
			created TEXT,
			context TEXT,
			solution TEXT,
			examples TEXT,
			accessed_count INTEGER DEFAULT 0,
			last_accessed TEXT,
			PRIMARY KEY (category, position)
		);

		CREATE INDEX IF NOT EXISTS idx_entries_id ON entries(id);

		CREATE TABLE IF NOT EXISTS entry_tags (
			category TEXT NOT NULL,
			position INTEGER NOT NULL,
			tag TEXT NOT NULL,
			PRIMARY KEY (category, position, tag),
			FOREIGN KEY (category, position) REFERENCES entries(category, position) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_entry_tags_tag ON entry_tags(tag);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Export replaces the snapshot tables with the document's entries in one
// transaction.
func (s *SQLiteExporter) Export(ctx context.Context, doc *Document) error {
	if err := s.InitSchema(ctx); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin export: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entry_tags`); err != nil {
		return fmt.Errorf("failed to clear tags: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM entries`); err != nil {
		return fmt.Errorf("failed to clear entries: %w", err)
	}

	insertEntry := `
		INSERT INTO entries (category, position, id, created, context, solution, examples, accessed_count, last_accessed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	insertTag := `INSERT INTO entry_tags (category, position, tag) VALUES (?, ?, ?)`

	for _, row := range exportRows(doc) {
		_, err := tx.ExecContext(ctx, insertEntry,
			row.Category, row.Position, row.ID,
			sqliteTime(row.Created), row.Context, row.Solution, row.Examples,
			row.AccessedCount, sqliteTime(row.LastAccessed),
		)
		if err != nil {
			return fmt.Errorf("failed to export entry %s/%d: %w", row.Category, row.Position, err)
		}
		for _, tag := range row.Tags {
			if _, err := tx.ExecContext(ctx, insertTag, row.Category, row.Position, tag); err != nil {
				return fmt.Errorf("failed to export tag %q: %w", tag, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit export: %w", err)
	}
	return nil
}

// Close releases the database connection.
func (s *SQLiteExporter) Close() error {
	return s.db.Close()
}

// sqliteTime stores timestamps as ISO-8601 TEXT, or NULL when unset.
func sqliteTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

var _ Exporter = (*SQLiteExporter)(nil)
