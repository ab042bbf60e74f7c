package template

import (
	"context"
	"sync"

	"guestpass/internal/card/models"
)

// InMemoryStore implements Store with a mutex-guarded map.
type InMemoryStore struct {
	mu        sync.RWMutex
	templates map[string]models.Template
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{templates: make(map[string]models.Template)}
}

func (s *InMemoryStore) Save(ctx context.Context, tmpl models.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[tmpl.EventRef] = tmpl
	return nil
}

func (s *InMemoryStore) Get(ctx context.Context, eventRef string) (*models.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tmpl, ok := s.templates[eventRef]
	if !ok {
		return nil, nil
	}
	copied := tmpl
	return &copied, nil
}
