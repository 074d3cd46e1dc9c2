package memory

import (
	"regexp"
	"strings"
)

// Operator combines the conditions of a query.
type Operator string

const (
	OpAnd Operator = "AND"
	OpOr  Operator = "OR"
)

// Query fields understood by the matcher. Any other field name is matched
// as full text.
const (
	FieldTags     = "tags"
	FieldCategory = "category"
	FieldContext  = "context"
	FieldID       = "id"
	FieldFulltext = "fulltext"
)

var (
	andPattern    = regexp.MustCompile(`(?i)\sAND\s`)
	clausePattern = regexp.MustCompile(`(?i)\s+AND\s+|\s+OR\s+`)
)

// Condition is a single field:value test.
type Condition struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// Query is a flat list of conditions joined by one operator. The operator is
// chosen for the whole query string: a single AND anywhere makes every
// clause required, even if OR also appears.
type Query struct {
	Operator   Operator    `json:"operator"`
	Conditions []Condition `json:"conditions"`
}

// ParseQuery turns a query string such as "category:testing AND tags:mock"
// into a Query. Clauses without a colon search full text.
func ParseQuery(s string) Query {
	q := Query{Operator: OpOr}
	if andPattern.MatchString(s) {
		q.Operator = OpAnd
	}

	for _, clause := range clausePattern.Split(s, -1) {
		field, value, ok := strings.Cut(clause, ":")
		if !ok {
			q.Conditions = append(q.Conditions, Condition{
				Field: FieldFulltext,
				Value: strings.TrimSpace(clause),
			})
			continue
		}
		q.Conditions = append(q.Conditions, Condition{
			Field: strings.TrimSpace(field),
			Value: strings.TrimSpace(value),
		})
	}
	return q
}

// Matches evaluates the query against an entry belonging to category.
func (q Query) Matches(e *Entry, category string) bool {
	if q.Operator == OpAnd {
		for _, c := range q.Conditions {
			if !c.Matches(e, category) {
				return false
			}
		}
		return true
	}

	for _, c := range q.Conditions {
		if c.Matches(e, category) {
			return true
		}
	}
	return false
}

// Matches evaluates a single condition. Comparisons are case-insensitive
// substring checks except for id, which must match exactly.
func (c Condition) Matches(e *Entry, category string) bool {
	value := strings.ToLower(c.Value)

	switch c.Field {
	case FieldTags:
		for _, tag := range e.Tags {
			if strings.Contains(strings.ToLower(tag), value) {
				return true
			}
		}
		return false
	case FieldCategory:
		return strings.Contains(strings.ToLower(category), value)
	case FieldContext:
		return e.Context != "" && strings.Contains(strings.ToLower(e.Context), value)
	case FieldID:
		return e.ID == c.Value
	default:
		return strings.Contains(fulltext(e), value)
	}
}

// fulltext joins the searchable text of an entry into one lowercase string.
func fulltext(e *Entry) string {
	return strings.ToLower(strings.Join([]string{
		e.Context,
		strings.Join(e.Tags, " "),
		strings.Join(e.Examples, " "),
		e.Solution,
	}, " "))
}
