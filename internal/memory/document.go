package memory

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/tidwall/gjson"
)

// timeLayout matches the millisecond ISO-8601 timestamps the knowledge base
// has always been written with.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

var entryFieldOrder = []string{
	"id", "created", "tags", "context", "examples", "solution", "accessed_count", "last_accessed",
}

var documentFieldOrder = []string{"knowledge", "total_entries", "last_updated"}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// rawTime keeps a timestamp exactly as it appeared in the file next to its
// parsed value. A value that does not parse keeps a zero time and is still
// written back verbatim.
type rawTime struct {
	raw json.RawMessage
	at  time.Time
}

func decodeTime(raw []byte) rawTime {
	rt := rawTime{raw: json.RawMessage(bytes.Clone(raw))}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return rt
	}
	for _, layout := range []string{time.RFC3339Nano, time.DateTime, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			rt.at = t
			break
		}
	}
	return rt
}

// present reports whether the file held something other than null or an
// empty string.
func (rt rawTime) present() bool {
	v := string(bytes.TrimSpace(rt.raw))
	return v != "" && v != "null" && v != `""`
}

// encode returns the original text while t still holds the value read from
// the file, and a freshly formatted timestamp otherwise.
func (rt rawTime) encode(t *time.Time) any {
	unchanged := (t == nil && rt.at.IsZero()) || (t != nil && t.Equal(rt.at))
	if rt.raw != nil && unchanged {
		return rt.raw
	}
	if t == nil || t.IsZero() {
		return nil
	}
	return formatTime(*t)
}

// eachField walks the members of a JSON object in document order.
func eachField(data []byte, fn func(key string, raw []byte) error) error {
	if !gjson.ValidBytes(data) {
		return errors.New("invalid JSON")
	}
	res := gjson.ParseBytes(data)
	if !res.IsObject() {
		return fmt.Errorf("expected a JSON object, got %s", res.Type)
	}

	var err error
	res.ForEach(func(key, value gjson.Result) bool {
		err = fn(key.String(), []byte(value.Raw))
		return err == nil
	})
	return err
}

func addKey(keys []string, key string) []string {
	if slices.Contains(keys, key) {
		return keys
	}
	return append(keys, key)
}

// writeObject encodes known fields and extras, honouring the original key
// order first and appending newly set known fields after it.
func writeObject(buf *bytes.Buffer, keys, known []string, extra map[string]json.RawMessage,
	isSet func(string) bool, value func(string) any, skip func(string) bool) error {
	first := true
	write := func(key string, v []byte) {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		k, _ := json.Marshal(key)
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}

	emit := func(key string) error {
		if skip != nil && skip(key) {
			return nil
		}
		if slices.Contains(known, key) {
			v, err := json.Marshal(value(key))
			if err != nil {
				return fmt.Errorf("failed to encode %q: %w", key, err)
			}
			write(key, v)
			return nil
		}
		if raw, ok := extra[key]; ok {
			write(key, raw)
		}
		return nil
	}

	for _, key := range keys {
		if err := emit(key); err != nil {
			return err
		}
	}
	for _, key := range known {
		if slices.Contains(keys, key) || !isSet(key) {
			continue
		}
		if err := emit(key); err != nil {
			return err
		}
	}
	return nil
}

// ParseEntry decodes a single entry from JSON.
func ParseEntry(data []byte) (*Entry, error) {
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to parse entry: %w", err)
	}
	return &e, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Entry) UnmarshalJSON(data []byte) error {
	*e = Entry{}
	return eachField(data, func(key string, raw []byte) error {
		e.keys = addKey(e.keys, key)

		var err error
		switch key {
		case "id":
			err = json.Unmarshal(raw, &e.ID)
		case "created":
			e.created = decodeTime(raw)
			e.Created = e.created.at
		case "tags":
			err = json.Unmarshal(raw, &e.Tags)
		case "context":
			err = json.Unmarshal(raw, &e.Context)
		case "examples":
			err = json.Unmarshal(raw, &e.Examples)
		case "solution":
			err = json.Unmarshal(raw, &e.Solution)
		case "accessed_count":
			err = json.Unmarshal(raw, &e.AccessedCount)
		case "last_accessed":
			e.lastAccessed = decodeTime(raw)
			if t := e.lastAccessed.at; !t.IsZero() {
				e.LastAccessed = &t
			}
		default:
			if e.extra == nil {
				e.extra = make(map[string]json.RawMessage)
			}
			e.extra[key] = json.RawMessage(bytes.Clone(raw))
		}
		if err != nil {
			return fmt.Errorf("entry field %q: %w", key, err)
		}
		return nil
	})
}

// MarshalJSON implements json.Marshaler.
func (e Entry) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := e.writeFields(&buf, nil); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (e *Entry) writeFields(buf *bytes.Buffer, skip func(string) bool) error {
	return writeObject(buf, e.keys, entryFieldOrder, e.extra, e.isSet, e.fieldValue, skip)
}

// touch marks a known field as present so it is written even when zero.
// Entries built in code start from the canonical field order.
func (e *Entry) touch(keys ...string) {
	if e.keys == nil {
		for _, k := range entryFieldOrder {
			if e.isSet(k) {
				e.keys = append(e.keys, k)
			}
		}
	}
	for _, k := range keys {
		e.keys = addKey(e.keys, k)
	}
}

func (e *Entry) isSet(key string) bool {
	switch key {
	case "id":
		return e.ID != ""
	case "created":
		return !e.Created.IsZero() || e.created.raw != nil
	case "tags":
		return e.Tags != nil
	case "context":
		return e.Context != ""
	case "examples":
		return e.Examples != nil
	case "solution":
		return e.Solution != ""
	case "accessed_count":
		return e.AccessedCount != 0
	case "last_accessed":
		return e.LastAccessed != nil
	}
	return false
}

func (e *Entry) fieldValue(key string) any {
	switch key {
	case "id":
		return e.ID
	case "created":
		return e.created.encode(&e.Created)
	case "tags":
		return e.Tags
	case "context":
		return e.Context
	case "examples":
		return e.Examples
	case "solution":
		return e.Solution
	case "accessed_count":
		return e.AccessedCount
	case "last_accessed":
		return e.lastAccessed.encode(e.LastAccessed)
	}
	return nil
}

// MarshalJSON writes the entry's fields followed by its category.
func (r QueryResult) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	err := r.Entry.writeFields(&buf, func(key string) bool { return key == "category" })
	if err != nil {
		return nil, err
	}
	if buf.Len() > 1 {
		buf.WriteByte(',')
	}
	c, _ := json.Marshal(r.Category)
	buf.WriteString(`"category":`)
	buf.Write(c)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (k *Knowledge) UnmarshalJSON(data []byte) error {
	*k = *NewKnowledge()
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	return eachField(data, func(category string, raw []byte) error {
		var entries []*Entry
		if err := json.Unmarshal(raw, &entries); err != nil {
			return fmt.Errorf("category %q: %w", category, err)
		}
		for i, e := range entries {
			if e == nil {
				return fmt.Errorf("category %q: entry %d is null", category, i)
			}
		}
		k.Ensure(category)
		k.entries[category] = entries
		return nil
	})
}

// MarshalJSON implements json.Marshaler.
func (k *Knowledge) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range k.categories {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, _ := json.Marshal(c)
		entries := k.entries[c]
		if entries == nil {
			entries = []*Entry{}
		}
		list, err := json.Marshal(entries)
		if err != nil {
			return nil, fmt.Errorf("category %q: %w", c, err)
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(list)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Document) UnmarshalJSON(data []byte) error {
	*d = Document{}
	err := eachField(data, func(key string, raw []byte) error {
		d.keys = addKey(d.keys, key)

		var err error
		switch key {
		case "knowledge":
			d.Knowledge = NewKnowledge()
			err = json.Unmarshal(raw, d.Knowledge)
		case "total_entries":
			err = json.Unmarshal(raw, &d.TotalEntries)
		case "last_updated":
			d.lastUpdated = decodeTime(raw)
			d.LastUpdated = d.lastUpdated.at
		default:
			if d.extra == nil {
				d.extra = make(map[string]json.RawMessage)
			}
			d.extra[key] = json.RawMessage(bytes.Clone(raw))
		}
		if err != nil {
			return fmt.Errorf("document field %q: %w", key, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if d.Knowledge == nil {
		d.Knowledge = NewKnowledge()
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	isSet := func(key string) bool {
		if key == "last_updated" {
			return !d.LastUpdated.IsZero() || d.lastUpdated.raw != nil
		}
		return true
	}
	value := func(key string) any {
		switch key {
		case "knowledge":
			return d.Knowledge
		case "total_entries":
			return d.TotalEntries
		case "last_updated":
			return d.lastUpdated.encode(&d.LastUpdated)
		}
		return nil
	}
	if err := writeObject(&buf, d.keys, documentFieldOrder, d.extra, isSet, value, nil); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
