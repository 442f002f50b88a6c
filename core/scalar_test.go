package core

import (
	"sync"
	"testing"
)

func TestSharedScalar(t *testing.T) {
	s := NewSharedScalar(1.5)
	if got := s.Get(); got != 1.5 {
		t.Fatalf("expected initial 1.5, got %v", got)
	}

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(2)
		go func(v float64) {
			defer wg.Done()
			s.Set(v)
		}(float64(i))
		go func() {
			defer wg.Done()
			_ = s.Get()
		}()
	}
	wg.Wait()

	if got := s.Get(); got < 1 || got > 50 {
		t.Errorf("value %v was never written", got)
	}

	s.Set(3)
	if got := s.Get(); got != 3 {
		t.Errorf("expected 3 after Set, got %v", got)
	}
}
