package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Vishwas721/Prism/models"
)

var ErrProviderNotFound = errors.New("provider not found")

// ProviderStore is the flat-file store for referring providers. Read-only for
// the pipeline; the file is maintained by hand or by the seed tool.
type ProviderStore struct {
	path string
	mu   sync.Mutex
}

// NewProviderStore uses path as the backing JSON file.
func NewProviderStore(path string) *ProviderStore {
	return &ProviderStore{path: path}
}

// List returns all providers. A missing file yields an empty list.
func (s *ProviderStore) List() ([]models.Provider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return readList[models.Provider](s.path)
}

// Seed replaces the backing file with the given providers.
func (s *ProviderStore) Seed(providers []models.Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeList(s.path, providers)
}

// GetByID returns the provider with the given id, or ErrProviderNotFound.
func (s *ProviderStore) GetByID(id string) (*models.Provider, error) {
	providers, err := s.List()
	if err != nil {
		return nil, err
	}
	for i := range providers {
		if providers[i].ID == id {
			return &providers[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrProviderNotFound, id)
}
