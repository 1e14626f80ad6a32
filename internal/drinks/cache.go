package drinks

import (
	"fmt"
	"os"
	"path/filepath"
)

// Status tells whether a load produced real data or fell back to defaults.
type Status int

const (
	StatusLoaded Status = iota
	StatusDefaulted
)

func (s Status) String() string {
	if s == StatusLoaded {
		return "loaded"
	}
	return "defaulted"
}

// LoadResult is the outcome of reading the drink cache. Drinks is never nil.
type LoadResult struct {
	Drinks *Collection
	Status Status
	Err    error
}

// LoadFile reads the local drink cache. A missing or unparseable document
// yields an empty collection with StatusDefaulted and the cause in Err.
func LoadFile(path string) LoadResult {
	entries, err := ReadEntries(path)
	if err != nil {
		return LoadResult{Drinks: NewCollection(nil), Status: StatusDefaulted, Err: err}
	}
	return LoadResult{Drinks: FromEntries(entries), Status: StatusLoaded}
}

// ReadEntries returns the raw records of the cache document.
func ReadEntries(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("drink cache not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read drink cache: %w", err)
	}

	entries, err := DecodeEntries(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse drink cache: %w", err)
	}
	return entries, nil
}

// WriteCache replaces the cache document atomically (temp file + rename).
func WriteCache(path string, entries []Entry) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	data, err := EncodeEntries(entries)
	if err != nil {
		return fmt.Errorf("failed to encode drink cache: %w", err)
	}

	tmpFile := path + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary cache file: %w", err)
	}

	if err := os.Rename(tmpFile, path); err != nil {
		_ = os.Remove(tmpFile)
		return fmt.Errorf("failed to rename cache file: %w", err)
	}

	return nil
}
