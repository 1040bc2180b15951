package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jiaming2012/mockbroker/src/mockbroker/models"
)

// JSONFileStateStore keeps one account document per file. A missing file
// loads as no state.
type JSONFileStateStore struct {
	path string
}

func (s *JSONFileStateStore) Path() string {
	return s.path
}

func (s *JSONFileStateStore) Load(ctx context.Context) (*models.PersistedState, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, models.NewPersistenceError("load", s.path, err)
	}

	var state models.PersistedState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, models.NewPersistenceError("load", s.path, fmt.Errorf("failed to decode: %w", err))
	}

	return &state, nil
}

// Save writes to a temporary file first so a failed write never truncates the
// previous document.
func (s *JSONFileStateStore) Save(ctx context.Context, state *models.PersistedState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return models.NewPersistenceError("save", s.path, fmt.Errorf("failed to encode: %w", err))
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return models.NewPersistenceError("save", s.path, err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return models.NewPersistenceError("save", s.path, err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return models.NewPersistenceError("save", s.path, err)
	}

	return nil
}

func NewJSONFileStateStore(path string) *JSONFileStateStore {
	return &JSONFileStateStore{
		path: path,
	}
}

// StatePath returns the document path for an account inside dir.
func StatePath(dir, accountID string) string {
	return filepath.Join(dir, accountID+".json")
}
