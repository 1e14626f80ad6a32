package drinks

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

var ErrNotObject = errors.New("drink document is not a JSON object")

// Entry is one record of the cache document in the flat API schema
// (strDrink, strIngredient1..15, strMeasure1..15, ...).
type Entry struct {
	ID     string
	Fields map[string]any
}

func (e Entry) str(key string) string {
	s, _ := e.Fields[key].(string)
	return s
}

// Drink converts the flat record into a fixed-shape Drink.
func (e Entry) Drink() Drink {
	d := Drink{
		ID:           e.ID,
		Name:         e.str("strDrink"),
		Thumb:        e.str("strDrinkThumb"),
		Instructions: e.str("strInstructions"),
	}
	if tag, ok := e.Fields["strength"].(string); ok {
		d.Strength = Strength(tag)
	}
	for i := 1; i <= MaxSlots; i++ {
		name := e.str("strIngredient" + strconv.Itoa(i))
		if name == "" {
			continue
		}
		d.Ingredients = append(d.Ingredients, Ingredient{
			Slot:    i,
			Name:    name,
			Measure: e.str("strMeasure" + strconv.Itoa(i)),
		})
	}
	return d
}

// DecodeEntries parses a cache document, keeping the document's key order.
// Null records are skipped; a repeated key replaces the earlier record in place.
func DecodeEntries(data []byte) ([]Entry, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read document start: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, ErrNotObject
	}

	var entries []Entry
	seen := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read drink key: %w", err)
		}
		id, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}

		var fields map[string]any
		if err := dec.Decode(&fields); err != nil {
			return nil, fmt.Errorf("decode drink %q: %w", id, err)
		}
		if fields == nil {
			continue
		}

		if idx, dup := seen[id]; dup {
			entries[idx].Fields = fields
			continue
		}
		seen[id] = len(entries)
		entries = append(entries, Entry{ID: id, Fields: fields})
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read document end: %w", err)
	}
	return entries, nil
}

// EncodeEntries renders entries as an indented JSON object in slice order.
func EncodeEntries(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, e := range entries {
		key, err := json.Marshal(e.ID)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", e.ID, err)
		}
		val, err := json.MarshalIndent(e.Fields, "  ", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal drink %q: %w", e.ID, err)
		}
		buf.WriteString("  ")
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(val)
		if i < len(entries)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

// MergeEntries overlays fetched records on the existing cache. Existing order
// is kept and new records are appended. An explicit strength tag survives a
// refresh that does not carry one.
func MergeEntries(existing, fetched []Entry) []Entry {
	out := make([]Entry, len(existing))
	copy(out, existing)

	index := make(map[string]int, len(out))
	for i, e := range out {
		index[e.ID] = i
	}

	for _, f := range fetched {
		i, ok := index[f.ID]
		if !ok {
			index[f.ID] = len(out)
			out = append(out, f)
			continue
		}
		merged := make(map[string]any, len(f.Fields)+1)
		for k, v := range f.Fields {
			merged[k] = v
		}
		if tag, ok := out[i].Fields["strength"]; ok {
			if _, has := merged["strength"]; !has {
				merged["strength"] = tag
			}
		}
		out[i] = Entry{ID: f.ID, Fields: merged}
	}
	return out
}
