package rendered

import (
	"context"
	"sync"

	"guestpass/internal/card/models"
)

// InMemoryStore implements Store with a mutex-guarded slice per credential.
type InMemoryStore struct {
	mu    sync.RWMutex
	cards map[string][]models.RenderedCard
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{cards: make(map[string][]models.RenderedCard)}
}

func (s *InMemoryStore) Add(ctx context.Context, card models.RenderedCard) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cards[card.CredentialCode] = append(s.cards[card.CredentialCode], card)
	return nil
}

func (s *InMemoryStore) ListByCredential(ctx context.Context, code string) ([]models.RenderedCard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.RenderedCard(nil), s.cards[code]...), nil
}

func (s *InMemoryStore) Remove(ctx context.Context, artifactPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for code, cards := range s.cards {
		kept := cards[:0]
		for _, c := range cards {
			if c.ArtifactPath != artifactPath {
				kept = append(kept, c)
			}
		}
		if len(kept) == 0 {
			delete(s.cards, code)
		} else {
			s.cards[code] = kept
		}
	}
	return nil
}
