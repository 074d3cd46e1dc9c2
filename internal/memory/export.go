package memory

import (
	"context"
	"encoding/json"
	"time"
)

// Exporter writes a one-way relational snapshot of the document. The JSON
// document stays authoritative; nothing is ever read back from an export.
type Exporter interface {
	// Export replaces the snapshot with the contents of doc.
	Export(ctx context.Context, doc *Document) error

	// Close releases the database connection.
	Close() error
}

// exportRow is one entry flattened for insertion.
type exportRow struct {
	Category      string
	Position      int
	ID            string
	Created       *time.Time
	Context       string
	Solution      string
	Examples      string
	AccessedCount int
	LastAccessed  *time.Time
	Tags          []string
}

// exportRows flattens the document in category order, then entry order.
// Duplicate tags on one entry are collapsed.
func exportRows(doc *Document) []exportRow {
	var rows []exportRow
	for _, category := range doc.Knowledge.Categories() {
		for i, e := range doc.Knowledge.Entries(category) {
			row := exportRow{
				Category:      category,
				Position:      i,
				ID:            e.ID,
				Context:       e.Context,
				Solution:      e.Solution,
				Examples:      "[]",
				AccessedCount: e.AccessedCount,
				LastAccessed:  e.LastAccessed,
			}
			if !e.Created.IsZero() {
				created := e.Created
				row.Created = &created
			}
			if len(e.Examples) > 0 {
				if b, err := json.Marshal(e.Examples); err == nil {
					row.Examples = string(b)
				}
			}

			seen := make(map[string]struct{}, len(e.Tags))
			for _, tag := range e.Tags {
				if _, dup := seen[tag]; dup {
					continue
				}
				seen[tag] = struct{}{}
				row.Tags = append(row.Tags, tag)
			}
			rows = append(rows, row)
		}
	}
	return rows
}
