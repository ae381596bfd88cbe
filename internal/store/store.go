// Package store holds the in-memory set of customer records the resolver
// and tree builder operate on.
package store

import (
	"sync"

	"github.com/crimson-sun/orgtree/internal/model"
)

// Store is an id-keyed collection of customer records that remembers the
// order in which ids were first inserted. Safe for concurrent use; the
// records it hands out are not, and belong to whoever is resolving.
type Store struct {
	mu      sync.RWMutex
	records map[string]*model.CustomerRecord
	order   []string
}

// New creates an empty Store.
func New() *Store {
	return &Store{records: make(map[string]*model.CustomerRecord)}
}

// FromRecords creates a Store populated with recs in order. Later records
// overwrite earlier ones with the same id.
func FromRecords(recs []model.CustomerRecord) *Store {
	s := New()
	for _, r := range recs {
		s.Upsert(r)
	}
	return s
}

// Upsert inserts rec, or overwrites the existing record with the same id.
// An overwrite keeps the id's original position.
func (s *Store) Upsert(rec model.CustomerRecord) *model.CustomerRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := rec
	if stored.Children != nil {
		stored.Children = append([]string(nil), rec.Children...)
	}
	if _, ok := s.records[rec.ID]; !ok {
		s.order = append(s.order, rec.ID)
	}
	s.records[rec.ID] = &stored
	return &stored
}

// Get returns the record for id.
func (s *Store) Get(id string) (*model.CustomerRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	return r, ok
}

// All returns every record in insertion order.
func (s *Store) All() []*model.CustomerRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.CustomerRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id])
	}
	return out
}

// IDs returns a snapshot of the ids in insertion order.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
