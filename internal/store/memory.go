package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/roastlens/roastlens/internal/types"
)

// MemoryStore is an in-process Store used by tests and dry runs.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]map[string]Record // collection -> id -> record
	nextID int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string]Record)}
}

func (s *MemoryStore) Get(_ context.Context, collection, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.data[collection][id]
	if !ok {
		return nil, &types.StoreError{Backend: "memory", Op: "get", Err: types.ErrNotFound}
	}
	return cloneRecord(rec), nil
}

func (s *MemoryStore) ListByField(_ context.Context, collection, field string, value any) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Record
	for _, rec := range s.data[collection] {
		if rec[field] == value {
			out = append(out, cloneRecord(rec))
		}
	}
	return out, nil
}

func (s *MemoryStore) Insert(_ context.Context, collection string, rec Record) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data[collection] == nil {
		s.data[collection] = make(map[string]Record)
	}
	s.nextID++
	id := fmt.Sprintf("%s-%d", collection, s.nextID)

	stored := cloneRecord(rec)
	delete(stored, "_id")
	stored["id"] = id
	s.data[collection][id] = stored
	return id, nil
}

func (s *MemoryStore) Update(_ context.Context, collection, id string, partial Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.data[collection][id]
	if !ok {
		return &types.StoreError{Backend: "memory", Op: "update", Err: types.ErrNotFound}
	}
	for k, v := range partial {
		rec[k] = v
	}
	return nil
}

func (s *MemoryStore) DeleteWhere(_ context.Context, collection, field string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, rec := range s.data[collection] {
		if rec[field] == value {
			delete(s.data[collection], id)
		}
	}
	return nil
}

func (s *MemoryStore) Close(context.Context) error { return nil }

func cloneRecord(rec Record) Record {
	out := make(Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}
