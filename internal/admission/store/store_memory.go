package store

import (
	"context"
	"sync"
	"time"

	"guestpass/internal/admission/models"
)

// InMemoryStore implements Store with one lock per credential code, so
// concurrent scans of the same code serialize while scans of different
// codes proceed independently. The outer mutex only guards the map.
type InMemoryStore struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	mu     sync.Mutex
	record models.RedemptionRecord
}

// NewInMemory creates an empty in-memory redemption store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{entries: make(map[string]*entry)}
}

func (s *InMemoryStore) Redeem(ctx context.Context, code string, capacity int, scannedBy string, at time.Time) (*models.RedemptionRecord, bool, error) {
	e := s.getOrCreate(code, capacity)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.record.ScanCount >= e.record.Capacity {
		copied := e.record
		return &copied, false, nil
	}

	e.record.ScanCount++
	e.record.LastScannedBy = scannedBy
	e.record.LastScannedAt = at
	if e.record.ScanCount >= e.record.Capacity {
		e.record.Status = models.StatusRedeemed
	}

	copied := e.record
	return &copied, true, nil
}

func (s *InMemoryStore) Get(ctx context.Context, code string) (*models.RedemptionRecord, error) {
	s.mu.Lock()
	e, ok := s.entries[code]
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	copied := e.record
	return &copied, nil
}

func (s *InMemoryStore) getOrCreate(code string, capacity int) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[code]; ok {
		return e
	}
	e := &entry{record: models.RedemptionRecord{
		CredentialCode: code,
		Capacity:       capacity,
		Status:         models.StatusNotRedeemed,
	}}
	s.entries[code] = e
	return e
}
