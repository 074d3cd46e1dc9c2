// Package memory provides the knowledge base document model, its file store,
// the tag index and suggestion engine, and the query language used to search
// entries.
package memory

import (
	"encoding/json"
	"time"
)

// Entry is one knowledge-base record. Optional fields use their zero value
// when absent; the matcher treats absent text as an empty string and absent
// lists as empty.
type Entry struct {
	ID            string
	Created       time.Time
	Tags          []string
	Context       string
	Examples      []string
	Solution      string
	AccessedCount int
	LastAccessed  *time.Time

	// keys holds the entry's JSON keys in document order so a rewrite keeps
	// the layout the entry was written with.
	keys  []string
	extra map[string]json.RawMessage

	// timestamps as read from the file, written back while unchanged
	created      rawTime
	lastAccessed rawTime
}

// Document is the whole knowledge base as stored on disk.
type Document struct {
	Knowledge    *Knowledge
	TotalEntries int
	LastUpdated  time.Time

	keys        []string
	extra       map[string]json.RawMessage
	lastUpdated rawTime
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{
		Knowledge: NewKnowledge(),
		keys:      []string{"knowledge", "total_entries", "last_updated"},
	}
}

// Knowledge maps category names to their entries, keeping categories in the
// order they were first seen.
type Knowledge struct {
	categories []string
	entries    map[string][]*Entry
}

// NewKnowledge returns an empty category mapping.
func NewKnowledge() *Knowledge {
	return &Knowledge{entries: make(map[string][]*Entry)}
}

// Categories returns the category names in document order.
func (k *Knowledge) Categories() []string {
	out := make([]string, len(k.categories))
	copy(out, k.categories)
	return out
}

// Entries returns the entries of a category, or nil if it does not exist.
func (k *Knowledge) Entries(category string) []*Entry {
	return k.entries[category]
}

// Has reports whether the category exists, even if it has no entries.
func (k *Knowledge) Has(category string) bool {
	_, ok := k.entries[category]
	return ok
}

// Ensure creates an empty category if it does not exist yet.
func (k *Knowledge) Ensure(category string) {
	if _, ok := k.entries[category]; ok {
		return
	}
	k.categories = append(k.categories, category)
	k.entries[category] = nil
}

// Append adds an entry to the end of a category, creating it if needed.
func (k *Knowledge) Append(category string, e *Entry) {
	k.Ensure(category)
	k.entries[category] = append(k.entries[category], e)
}

// Len returns the number of entries across all categories.
func (k *Knowledge) Len() int {
	n := 0
	for _, c := range k.categories {
		n += len(k.entries[c])
	}
	return n
}

// Each calls fn for every entry in category order, then entry order.
// Iteration stops early when fn returns false.
func (k *Knowledge) Each(fn func(category string, e *Entry) bool) {
	for _, c := range k.categories {
		for _, e := range k.entries[c] {
			if !fn(c, e) {
				return
			}
		}
	}
}

// QueryResult is a snapshot of a matching entry with its category attached.
type QueryResult struct {
	Entry    Entry
	Category string
}

// Suggestion lists existing tags that resemble a proposed tag.
type Suggestion struct {
	Proposed       string   `json:"proposed" yaml:"proposed"`
	Existing       []string `json:"existing" yaml:"existing"`
	Recommendation string   `json:"recommendation" yaml:"recommendation"`
}

// TagCount pairs a tag with the number of entries carrying it.
type TagCount struct {
	Tag   string `json:"tag" yaml:"tag"`
	Count int    `json:"count" yaml:"count"`
}

// TagIndex is a read-only view of tag usage across the knowledge base.
type TagIndex struct {
	All         []string
	Counts      map[string]int
	ByCategory  map[string][]string
	MostUsed    []TagCount
	TotalUnique int

	// order of first appearance, used for stable tie-breaking and for
	// rendering Counts and ByCategory in document order.
	seen       []string
	categories []string
}
