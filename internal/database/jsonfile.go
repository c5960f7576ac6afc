package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"property-listing/internal/logging"
	"property-listing/internal/models"
)

// JSONStore keeps properties in memory and mirrors them to a single JSON
// file that is rewritten in full after every mutation.
type JSONStore struct {
	path   string
	strict bool

	mu         sync.RWMutex
	properties []models.Property
}

// NewJSONStore loads path (if present) and returns the store. A file that
// cannot be read or parsed is logged and treated as empty.
// With strict set, persist failures are returned from Create and Delete
// instead of only being logged.
func NewJSONStore(path string, strict bool) *JSONStore {
	s := &JSONStore{path: path, strict: strict}
	s.properties = s.load()
	return s
}

func (s *JSONStore) load() []models.Property {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logging.Logger.WithError(err).WithField("path", s.path).Error("Error reading properties file")
		}
		return []models.Property{}
	}

	var stored []models.StoredProperty
	if err := json.Unmarshal(data, &stored); err != nil {
		logging.Logger.WithError(err).WithField("path", s.path).Error("Error parsing properties file")
		return []models.Property{}
	}
	properties := make([]models.Property, 0, len(stored))
	for _, sp := range stored {
		properties = append(properties, sp.Property())
	}

	logging.Logger.WithFields(logrus.Fields{
		"path":  s.path,
		"count": len(properties),
	}).Info("Loaded properties")
	return properties
}

// persist overwrites the backing file with the current sequence.
// Caller must hold s.mu.
func (s *JSONStore) persist() error {
	data, err := json.MarshalIndent(s.properties, "", "  ")
	if err != nil {
		return s.persistFailed(err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return s.persistFailed(err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return s.persistFailed(err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return s.persistFailed(err)
	}
	return nil
}

func (s *JSONStore) persistFailed(err error) error {
	logging.Logger.WithError(err).WithField("path", s.path).Error("Error writing properties file")
	if s.strict {
		return fmt.Errorf("failed to write properties file: %w", err)
	}
	return nil
}

// List returns a copy of all properties in insertion order
func (s *JSONStore) List(ctx context.Context) ([]models.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Property, len(s.properties))
	copy(out, s.properties)
	return out, nil
}

// Get returns the first property with the given id
func (s *JSONStore) Get(ctx context.Context, id int) (*models.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return nil, ErrNotFound
	}
	p := s.properties[idx]
	return &p, nil
}

// Create assigns the next id, appends p and persists
func (s *JSONStore) Create(ctx context.Context, p *models.Property) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = s.nextID()
	s.properties = append(s.properties, *p)
	return s.persist()
}

// Delete removes the first property with the given id and persists
func (s *JSONStore) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return ErrNotFound
	}
	s.properties = append(s.properties[:idx], s.properties[idx+1:]...)
	return s.persist()
}

// Count returns the number of stored properties
func (s *JSONStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.properties)), nil
}

// Close is a no-op; every mutation is already on disk
func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) indexOf(id int) int {
	for i := range s.properties {
		if s.properties[i].ID == id {
			return i
		}
	}
	return -1
}

// nextID is one past the largest id in use, so ids are never reused
// while the record holding them is alive.
func (s *JSONStore) nextID() int {
	maxID := 0
	for _, p := range s.properties {
		if p.ID > maxID {
			maxID = p.ID
		}
	}
	return maxID + 1
}
