package sheet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// JSONStore keeps the columns in a JSON document keyed by column name.
type JSONStore struct {
	path string
}

var _ Store = (*JSONStore)(nil)

func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

func (s *JSONStore) Path() string { return s.path }

func (s *JSONStore) Read(ctx context.Context) (Columns, error) {
	if err := ctx.Err(); err != nil {
		return Columns{}, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Columns{}, fmt.Errorf("state file not found: %s", s.path)
		}
		return Columns{}, fmt.Errorf("failed to read state file: %w", err)
	}
	return DecodeColumns(bytes.NewReader(data))
}

// Write stores the padded columns atomically (temp file + rename).
func (s *JSONStore) Write(ctx context.Context, cols Columns) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(cols.Pad(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state data: %w", err)
	}

	tmpFile := s.path + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary state file: %w", err)
	}
	if err := os.Rename(tmpFile, s.path); err != nil {
		_ = os.Remove(tmpFile)
		return fmt.Errorf("failed to rename state file: %w", err)
	}
	return nil
}
