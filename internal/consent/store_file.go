package consent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"nestsync/pkg/domain"
	"nestsync/pkg/platform/sentinel"
)

// FileStore persists the consent snapshot as a JSON file on device storage.
// SaveAll writes to a temp file in the same directory and renames it over the
// target, so a crash mid-write retains the prior snapshot.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) LoadAll(_ context.Context) (map[domain.ConsentType]ConsentRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[domain.ConsentType]ConsentRecord{}, nil
		}
		return nil, fmt.Errorf("read consent file: %w", err)
	}

	var records map[domain.ConsentType]ConsentRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode consent file: %w", sentinel.ErrCorrupt)
	}
	return records, nil
}

func (s *FileStore) SaveAll(_ context.Context, records map[domain.ConsentType]ConsentRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode consent snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".consent-*.json")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("swap consent snapshot: %w", err)
	}
	return nil
}
