package store

import (
	"context"
	"sync"

	"guestpass/internal/credential/models"
)

// InMemoryStore implements Store with a mutex-guarded map. Used in unit
// tests and single-process deployments; production uses PostgresStore.
type InMemoryStore struct {
	mu    sync.RWMutex
	creds map[string]models.Credential
}

// NewInMemory creates an empty in-memory credential store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{creds: make(map[string]models.Credential)}
}

func (s *InMemoryStore) Save(ctx context.Context, cred models.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.creds[cred.Code]; exists {
		return ErrCodeTaken
	}
	s.creds[cred.Code] = cred
	return nil
}

func (s *InMemoryStore) FindByCode(ctx context.Context, code string) (*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cred, ok := s.creds[code]
	if !ok {
		return nil, nil
	}
	copied := cred
	return &copied, nil
}

func (s *InMemoryStore) ListByOwner(ctx context.Context, ownerRef string) ([]*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Credential
	for _, cred := range s.creds {
		if cred.OwnerRef == ownerRef {
			copied := cred
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *InMemoryStore) Delete(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.creds, code)
	return nil
}
