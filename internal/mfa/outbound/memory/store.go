package memory

import (
	"sync"

	"github.com/shandysiswandi/safex/internal/mfa/entity"
)

// Store is the process-lifetime challenge table. A single mutex serializes
// every operation, so a read-modify-write done through Update is atomic for
// the subject and for the table as a whole. Nothing here is persisted.
type Store struct {
	mu      sync.Mutex
	entries map[string]entity.Challenge
}

func NewStore() *Store {
	return &Store{entries: make(map[string]entity.Challenge)}
}

func (s *Store) Get(subjectID string) (entity.Challenge, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.entries[subjectID]
	return c, ok
}

// Put stores c for subjectID, replacing any existing entry.
func (s *Store) Put(subjectID string, c entity.Challenge) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.SubjectID = subjectID
	s.entries[subjectID] = c
}

func (s *Store) Delete(subjectID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, subjectID)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

// Range calls fn for a snapshot of the entries; fn runs without the lock
// held and may call back into the store. Returning false stops the walk.
func (s *Store) Range(fn func(entity.Challenge) bool) {
	s.mu.Lock()
	snapshot := make([]entity.Challenge, 0, len(s.entries))
	for _, c := range s.entries {
		snapshot = append(snapshot, c)
	}
	s.mu.Unlock()

	for _, c := range snapshot {
		if !fn(c) {
			return
		}
	}
}

// Update runs fn on the current entry for subjectID inside the critical
// section and applies the returned operation. fn must not block.
func (s *Store) Update(subjectID string, fn func(cur entity.Challenge, ok bool) (entity.Challenge, entity.StoreOp)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.entries[subjectID]
	next, op := fn(cur, ok)

	switch op {
	case entity.OpPut:
		next.SubjectID = subjectID
		s.entries[subjectID] = next
	case entity.OpDelete:
		delete(s.entries, subjectID)
	}
}

// DeleteIf removes every entry matching fn under one lock and returns how
// many were removed.
func (s *Store) DeleteIf(fn func(entity.Challenge) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, c := range s.entries {
		if fn(c) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}
