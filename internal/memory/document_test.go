package memory

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDocument_PreservesOrderAndUnknownFields(t *testing.T) {
	input := `{"version":2,"knowledge":{"zeta":[{"solution":"s","id":"z-1","priority":"high","tags":[]}],` +
		`"alpha":[]},"total_entries":1}`

	var doc Document
	if err := json.Unmarshal([]byte(input), &doc); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}

	if diff := cmp.Diff([]string{"zeta", "alpha"}, doc.Knowledge.Categories()); diff != "" {
		t.Errorf("category order mismatch (-want +got):\n%s", diff)
	}

	out, err := json.Marshal(&doc)
	if err != nil {
		t.Fatalf("failed to encode: %v", err)
	}
	if string(out) != input {
		t.Errorf("expected byte-identical rewrite\nwant: %s\ngot:  %s", input, out)
	}
}

func TestDocument_TimestampsAndNulls(t *testing.T) {
	input := `{"knowledge":{"notes":[{"id":"n-1","created":"2025-01-02T03:04:05.678Z",` +
		`"accessed_count":3,"last_accessed":null}]},"total_entries":1,"last_updated":"2025-01-02T03:04:05.000Z"}`

	var doc Document
	if err := json.Unmarshal([]byte(input), &doc); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}

	e := doc.Knowledge.Entries("notes")[0]
	want := time.Date(2025, 1, 2, 3, 4, 5, 678_000_000, time.UTC)
	if !e.Created.Equal(want) {
		t.Errorf("expected created %v, got %v", want, e.Created)
	}
	if e.LastAccessed != nil {
		t.Errorf("expected nil last_accessed, got %v", e.LastAccessed)
	}
	if e.AccessedCount != 3 {
		t.Errorf("expected accessed_count 3, got %d", e.AccessedCount)
	}

	out, err := json.Marshal(&doc)
	if err != nil {
		t.Fatalf("failed to encode: %v", err)
	}
	if string(out) != input {
		t.Errorf("expected byte-identical rewrite\nwant: %s\ngot:  %s", input, out)
	}
}

func TestDocument_DecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not json", `{"knowledge":`},
		{"knowledge not an object", `{"knowledge":[1,2]}`},
		{"entries not a list", `{"knowledge":{"a":{"id":"x"}}}`},
		{"null entry", `{"knowledge":{"a":[{"id":"a-1"},null]}}`},
		{"tags not strings", `{"knowledge":{"a":[{"tags":[1]}]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var doc Document
			if err := json.Unmarshal([]byte(tt.input), &doc); err == nil {
				t.Errorf("expected an error decoding %s", tt.input)
			}
		})
	}
}

func TestDocument_NullEntry(t *testing.T) {
	var doc Document
	err := json.Unmarshal([]byte(`{"knowledge":{"notes":[{"id":"n-1"},null]}}`), &doc)
	if err == nil {
		t.Fatal("expected an error for a null entry")
	}
	if !strings.Contains(err.Error(), `category "notes": entry 1 is null`) {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestDocument_TimestampsKeepTheirSpelling(t *testing.T) {
	tests := []struct {
		name    string
		created string
		want    time.Time
	}{
		{"date only", `"2024-01-15"`, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"offset", `"2024-01-15T10:30:00+02:00"`, time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC)},
		{"no milliseconds", `"2024-01-15T10:30:00Z"`, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{"unparsable", `"yesterday"`, time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := `{"knowledge":{"notes":[{"id":"n-1","created":` + tt.created +
				`,"last_accessed":` + tt.created + `}]},"last_updated":` + tt.created + `}`

			var doc Document
			if err := json.Unmarshal([]byte(input), &doc); err != nil {
				t.Fatalf("failed to decode: %v", err)
			}

			e := doc.Knowledge.Entries("notes")[0]
			if !e.Created.Equal(tt.want) {
				t.Errorf("expected created %v, got %v", tt.want, e.Created)
			}
			if !doc.LastUpdated.Equal(tt.want) {
				t.Errorf("expected last_updated %v, got %v", tt.want, doc.LastUpdated)
			}

			out, err := json.Marshal(&doc)
			if err != nil {
				t.Fatalf("failed to encode: %v", err)
			}
			if string(out) != input {
				t.Errorf("expected byte-identical rewrite\nwant: %s\ngot:  %s", input, out)
			}
		})
	}
}

func TestDocument_ChangedTimestampsAreReformatted(t *testing.T) {
	input := `{"knowledge":{"notes":[{"id":"n-1","created":"2024-01-15T10:30:00+02:00","last_accessed":"2024-01-15"}]}}`

	var doc Document
	if err := json.Unmarshal([]byte(input), &doc); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}

	e := doc.Knowledge.Entries("notes")[0]
	accessed := time.Date(2025, 3, 14, 9, 26, 53, 589_000_000, time.UTC)
	e.LastAccessed = &accessed

	out, err := json.Marshal(&doc)
	if err != nil {
		t.Fatalf("failed to encode: %v", err)
	}
	want := `{"knowledge":{"notes":[{"id":"n-1","created":"2024-01-15T10:30:00+02:00","last_accessed":"2025-03-14T09:26:53.589Z"}]}}`
	if string(out) != want {
		t.Errorf("unexpected encoding\nwant: %s\ngot:  %s", want, out)
	}
}

func TestDocument_MissingKnowledge(t *testing.T) {
	var doc Document
	if err := json.Unmarshal([]byte(`{"knowledge":null}`), &doc); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if doc.Knowledge == nil || doc.Knowledge.Len() != 0 {
		t.Errorf("expected empty knowledge, got %+v", doc.Knowledge)
	}
}

func TestQueryResult_MarshalJSON(t *testing.T) {
	entry, err := ParseEntry([]byte(`{"tags":["a"],"id":"x-1","category":"stale"}`))
	if err != nil {
		t.Fatalf("failed to parse entry: %v", err)
	}

	out, err := json.Marshal([]QueryResult{{Entry: *entry, Category: "notes"}})
	if err != nil {
		t.Fatalf("failed to encode: %v", err)
	}

	want := `[{"tags":["a"],"id":"x-1","category":"notes"}]`
	if string(out) != want {
		t.Errorf("expected %s, got %s", want, out)
	}
}

func TestParseEntry_RejectsNonObjects(t *testing.T) {
	for _, input := range []string{`[]`, `"text"`, `{"tags":`} {
		if _, err := ParseEntry([]byte(input)); err == nil {
			t.Errorf("expected error for %s", input)
		} else if !strings.Contains(err.Error(), "failed to parse entry") {
			t.Errorf("expected wrapped parse error, got %v", err)
		}
	}
}
