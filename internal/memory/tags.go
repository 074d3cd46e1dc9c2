package memory

import (
	"fmt"
	"sort"
	"strings"
)

// mostUsedLimit caps TagIndex.MostUsed.
const mostUsedLimit = 10

// BuildTagIndex aggregates tag usage across the document. An entry counts at
// most once towards each of its tags.
func BuildTagIndex(doc *Document) *TagIndex {
	idx := &TagIndex{
		Counts:     make(map[string]int),
		ByCategory: make(map[string][]string),
	}

	for _, category := range doc.Knowledge.Categories() {
		idx.categories = append(idx.categories, category)
		inCategory := make(map[string]struct{})

		for _, e := range doc.Knowledge.Entries(category) {
			onEntry := make(map[string]struct{}, len(e.Tags))
			for _, tag := range e.Tags {
				inCategory[tag] = struct{}{}
				if _, dup := onEntry[tag]; dup {
					continue
				}
				onEntry[tag] = struct{}{}
				if _, ok := idx.Counts[tag]; !ok {
					idx.seen = append(idx.seen, tag)
				}
				idx.Counts[tag]++
			}
		}

		tags := make([]string, 0, len(inCategory))
		for tag := range inCategory {
			tags = append(tags, tag)
		}
		sort.Strings(tags)
		idx.ByCategory[category] = tags
	}

	idx.All = make([]string, len(idx.seen))
	copy(idx.All, idx.seen)
	sort.Strings(idx.All)
	idx.TotalUnique = len(idx.All)

	ranked := make([]TagCount, 0, len(idx.seen))
	for _, tag := range idx.seen {
		ranked = append(ranked, TagCount{Tag: tag, Count: idx.Counts[tag]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	if len(ranked) > mostUsedLimit {
		ranked = ranked[:mostUsedLimit]
	}
	idx.MostUsed = ranked

	return idx
}

// Categories returns the indexed categories in document order.
func (idx *TagIndex) Categories() []string {
	return idx.categories
}

// CountsInOrder returns the tag counts in order of first appearance.
func (idx *TagIndex) CountsInOrder() []TagCount {
	out := make([]TagCount, 0, len(idx.seen))
	for _, tag := range idx.seen {
		out = append(out, TagCount{Tag: tag, Count: idx.Counts[tag]})
	}
	return out
}

// SuggestTags returns, for each proposed tag that resembles any existing
// tag, the existing tags it resembles. Proposed tags with no match are
// omitted.
func SuggestTags(idx *TagIndex, proposed []string) []Suggestion {
	var suggestions []Suggestion
	for _, p := range proposed {
		var similar []string
		for _, existing := range idx.All {
			if SimilarTags(existing, p) {
				similar = append(similar, existing)
			}
		}
		if len(similar) == 0 {
			continue
		}
		suggestions = append(suggestions, Suggestion{
			Proposed:       p,
			Existing:       similar,
			Recommendation: recommend(similar),
		})
	}
	return suggestions
}

func recommend(similar []string) string {
	if len(similar) == 1 {
		return fmt.Sprintf("Consider using existing tag: %s", similar[0])
	}
	return fmt.Sprintf("Similar tags exist: %s", strings.Join(similar, ", "))
}
