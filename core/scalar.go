package core

import "sync"

// SharedScalar is a float64 cell guarded by a mutex. The elapsed-time timer
// writes it while the turn controller reads it.
type SharedScalar struct {
	mu    sync.Mutex
	value float64
}

// NewSharedScalar creates a cell holding initial.
func NewSharedScalar(initial float64) *SharedScalar {
	return &SharedScalar{value: initial}
}

// Set overwrites the stored value.
func (s *SharedScalar) Set(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.value = v
}

// Get returns the most recently stored value.
func (s *SharedScalar) Get() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.value
}
