package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Store persists the whole session->record document. Load is called once
// at startup and Save rewrites the document wholesale on each flush.
type Store interface {
	Load(ctx context.Context) (map[string]*Record, error)
	Save(ctx context.Context, records map[string]*Record) error
}

// FileStore keeps long-term memory in a single JSON file.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load(_ context.Context) (map[string]*Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return make(map[string]*Record), nil
		}
		return nil, fmt.Errorf("read memory file: %w", err)
	}

	records := make(map[string]*Record)
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse memory file: %w", err)
	}
	for _, r := range records {
		if r.FrequentQueries == nil {
			r.FrequentQueries = make(map[string]int)
		}
	}
	return records, nil
}

func (s *FileStore) Save(_ context.Context, records map[string]*Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode memory file: %w", err)
	}

	// Write-then-rename so a crash mid-flush never truncates the
	// previous snapshot.
	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create memory dir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write memory file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace memory file: %w", err)
	}
	return nil
}
