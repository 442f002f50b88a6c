package session

import (
	"sort"
	"sync"

	"github.com/hupe1980/moa/core"
)

// InMemoryStore is a thread-safe in-memory implementation of
// core.SessionStore. It stores and returns clones so callers never share
// mutable state with the store.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*core.Session
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*core.Session)}
}

// Load returns a clone of the stored session or a fresh default session.
func (s *InMemoryStore) Load(id string) (*core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sess, ok := s.sessions[id]; ok {
		return sess.Clone(), nil
	}
	return core.NewSession(id), nil
}

// Save stores a snapshot of sess.
func (s *InMemoryStore) Save(sess *core.Session) error {
	if err := validateID(sess.ID); err != nil {
		return err
	}
	snapshot := sess.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[snapshot.ID] = snapshot
	return nil
}

// Delete removes a stored session. Unknown ids yield core.ErrSessionNotFound.
func (s *InMemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return core.ErrSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}

// List returns the ids of all stored sessions, sorted.
func (s *InMemoryStore) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
