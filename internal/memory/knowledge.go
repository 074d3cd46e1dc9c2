package memory

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
)

var (
	// ErrDuplicateID is returned when an added entry reuses an existing id.
	ErrDuplicateID = errors.New("entry id already exists")

	// ErrEmptyCategory is returned when an entry is added without a category.
	ErrEmptyCategory = errors.New("category must not be empty")

	// ErrTagSuggestions is returned by AddChecked when the entry's tags look
	// like existing ones and the add was not forced.
	ErrTagSuggestions = errors.New("similar tags already exist")
)

// idPrefixLen is the number of category runes used to build generated ids.
const idPrefixLen = 4

// KnowledgeBase is the in-memory knowledge base for one invocation. It is
// loaded once from its store and written back in full after every mutation.
// It is not safe for concurrent use.
type KnowledgeBase struct {
	store  Store
	doc    *Document
	logger *log.Logger
	now    func() time.Time
}

// Option configures a KnowledgeBase.
type Option func(*KnowledgeBase)

// WithLogger sets the logger used for operational messages.
func WithLogger(logger *log.Logger) Option {
	return func(kb *KnowledgeBase) { kb.logger = logger }
}

// WithClock overrides the time source used for timestamps and ids.
func WithClock(now func() time.Time) Option {
	return func(kb *KnowledgeBase) { kb.now = now }
}

// Open loads the document from store.
func Open(ctx context.Context, store Store, opts ...Option) (*KnowledgeBase, error) {
	kb := &KnowledgeBase{
		store:  store,
		logger: log.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(kb)
	}

	doc, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load knowledge base: %w", err)
	}
	kb.doc = doc
	return kb, nil
}

// Document exposes the loaded document.
func (kb *KnowledgeBase) Document() *Document {
	return kb.doc
}

// Close releases the underlying store.
func (kb *KnowledgeBase) Close() error {
	return kb.store.Close()
}

// Query returns a snapshot of every entry matching queryString, tagged with
// its category. Each match has its access counter bumped afterwards and the
// document is saved once the scan completes, so repeating a query keeps
// increasing the counters. No match is not an error.
func (kb *KnowledgeBase) Query(ctx context.Context, queryString string) ([]QueryResult, error) {
	q := ParseQuery(queryString)
	now := kb.now()

	results := []QueryResult{}
	kb.doc.Knowledge.Each(func(category string, e *Entry) bool {
		if !q.Matches(e, category) {
			return true
		}
		results = append(results, QueryResult{Entry: *e, Category: category})

		accessed := now
		e.AccessedCount++
		e.LastAccessed = &accessed
		e.touch("accessed_count", "last_accessed")
		return true
	})

	kb.logger.Debug("query evaluated", "query", queryString, "operator", q.Operator, "matches", len(results))

	if err := kb.store.Save(ctx, kb.doc); err != nil {
		return nil, fmt.Errorf("failed to save access counts: %w", err)
	}
	return results, nil
}

// Add appends entry to category, filling in the id and creation time when
// absent and resetting its access statistics, then saves the document.
func (kb *KnowledgeBase) Add(ctx context.Context, category string, entry *Entry) (*Entry, error) {
	if category == "" {
		return nil, ErrEmptyCategory
	}

	now := kb.now()
	if entry.ID == "" {
		entry.ID = kb.generateID(category, now)
	} else if kb.hasID(entry.ID) {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateID, entry.ID)
	}
	if entry.Created.IsZero() && !entry.created.present() {
		entry.Created = now
	}
	entry.AccessedCount = 0
	entry.LastAccessed = nil
	entry.lastAccessed = rawTime{}
	entry.touch("id", "created", "accessed_count", "last_accessed")

	kb.doc.Knowledge.Append(category, entry)
	kb.doc.TotalEntries = kb.doc.Knowledge.Len()
	kb.doc.LastUpdated = now
	kb.doc.keys = addKey(addKey(kb.doc.keys, "total_entries"), "last_updated")

	if err := kb.store.Save(ctx, kb.doc); err != nil {
		return nil, fmt.Errorf("failed to save entry: %w", err)
	}

	kb.logger.Debug("entry added", "category", category, "id", entry.ID)
	return entry, nil
}

// AddChecked runs CheckTags before Add. Any suggestion aborts the add with
// ErrTagSuggestions unless force is set. Suggestions are returned either way.
func (kb *KnowledgeBase) AddChecked(ctx context.Context, category string, entry *Entry, force bool) (*Entry, []Suggestion, error) {
	suggestions := kb.CheckTags(entry)
	if len(suggestions) > 0 && !force {
		kb.logger.Warn("tag suggestions block add", "category", category, "suggestions", len(suggestions))
		return nil, suggestions, ErrTagSuggestions
	}

	added, err := kb.Add(ctx, category, entry)
	if err != nil {
		return nil, suggestions, err
	}
	return added, suggestions, nil
}

// Tags builds the tag index over the current document.
func (kb *KnowledgeBase) Tags() *TagIndex {
	return BuildTagIndex(kb.doc)
}

// SuggestTags compares proposed tags against the existing vocabulary.
func (kb *KnowledgeBase) SuggestTags(proposed []string) []Suggestion {
	return SuggestTags(kb.Tags(), proposed)
}

// CheckTags runs the pre-add tag check for entry. Entries without tags pass.
func (kb *KnowledgeBase) CheckTags(entry *Entry) []Suggestion {
	if len(entry.Tags) == 0 {
		return nil
	}
	return kb.SuggestTags(entry.Tags)
}

func (kb *KnowledgeBase) hasID(id string) bool {
	found := false
	kb.doc.Knowledge.Each(func(_ string, e *Entry) bool {
		found = e.ID == id
		return !found
	})
	return found
}

// generateID builds "<category prefix>-<last three digits of unix ms>",
// widening the suffix when that id is already taken.
func (kb *KnowledgeBase) generateID(category string, now time.Time) string {
	prefix := category
	if runes := []rune(category); len(runes) > idPrefixLen {
		prefix = string(runes[:idPrefixLen])
	}

	ms := strconv.FormatInt(now.UnixMilli(), 10)
	id := prefix + "-" + ms[max(0, len(ms)-3):]
	if !kb.hasID(id) {
		return id
	}

	id = prefix + "-" + ms
	for n := 2; kb.hasID(id); n++ {
		id = fmt.Sprintf("%s-%s-%d", prefix, ms, n)
	}
	return id
}
