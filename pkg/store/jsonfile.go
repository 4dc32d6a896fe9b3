package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
	"github.com/mcclellann/loanbook/pkg/models"
)

// JSONFileStore keeps the document in a single pretty-printed JSON file,
// the same layout as the data.json files of the earlier service.
type JSONFileStore struct {
	path string
}

// NewJSONFileStore creates a store backed by the file at path. The parent
// directory is created if needed; the file itself is created on first Save.
func NewJSONFileStore(path string) (*JSONFileStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("could not create data directory: %w", err)
		}
	}
	return &JSONFileStore{path: path}, nil
}

// Path returns the file the store reads and writes.
func (s *JSONFileStore) Path() string {
	return s.path
}

// Load reads and decodes the document file.
func (s *JSONFileStore) Load() (*models.Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	doc := models.NewDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", s.path, err)
	}
	return doc, nil
}

// Save writes the document to a temporary file next to the target, syncs it
// and renames it into place.
func (s *JSONFileStore) Save(doc *models.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	if err := renameio.WriteFile(s.path, data, 0o644, renameio.WithTempDir(filepath.Dir(s.path))); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.path, err)
	}
	return nil
}

// Close is a no-op; the file is not held open between calls.
func (s *JSONFileStore) Close() error {
	return nil
}
