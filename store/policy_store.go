package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Vishwas721/Prism/models"
)

var (
	ErrPolicyNotFound = errors.New("policy not found")
	ErrPolicyExists   = errors.New("policy already exists")
)

// PolicyStore is the flat-file store for adjudication policies. All access to
// the backing file is serialized behind the mutex.
type PolicyStore struct {
	path string
	mu   sync.Mutex
}

// NewPolicyStore uses path as the backing JSON file.
func NewPolicyStore(path string) *PolicyStore {
	return &PolicyStore{path: path}
}

// List returns all policies. A missing file yields an empty list.
func (s *PolicyStore) List() ([]models.Policy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return readList[models.Policy](s.path)
}

// GetByID returns the policy with the given id, or ErrPolicyNotFound.
func (s *PolicyStore) GetByID(id string) (*models.Policy, error) {
	policies, err := s.List()
	if err != nil {
		return nil, err
	}
	for i := range policies {
		if policies[i].ID == id {
			return &policies[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrPolicyNotFound, id)
}

// GetText returns the adjudication body for a policy.
func (s *PolicyStore) GetText(id string) (string, error) {
	policy, err := s.GetByID(id)
	if err != nil {
		return "", err
	}
	return policy.Text, nil
}

// Add appends a new policy. When the id is empty it is derived from the name.
// Duplicate ids are rejected.
func (s *PolicyStore) Add(policy models.Policy) (*models.Policy, error) {
	if policy.ID == "" {
		policy.ID = strings.ReplaceAll(strings.ToLower(policy.Name), " ", "-")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	policies, err := readList[models.Policy](s.path)
	if err != nil {
		return nil, err
	}
	for i := range policies {
		if policies[i].ID == policy.ID {
			return nil, fmt.Errorf("%w: %q", ErrPolicyExists, policy.ID)
		}
	}
	policies = append(policies, policy)
	if err := writeList(s.path, policies); err != nil {
		return nil, err
	}
	return &policy, nil
}
