package core

import (
	"errors"
	"math"
	"slices"
	"sync"
	"testing"
)

func TestParams_WorkingSet(t *testing.T) {
	tests := []struct {
		name       string
		refs       []string
		aggregator string
		want       []string
	}{
		{"aggregator excluded", []string{"M1", "M2", "M3"}, "M3", []string{"M1", "M2"}},
		{"aggregator not selected", []string{"M1", "M2"}, "M3", []string{"M1", "M2"}},
		{"fallback to aggregator", []string{"M1"}, "M1", []string{"M1"}},
		{"duplicates collapse", []string{"M1", "M1", "M2"}, "M3", []string{"M1", "M2"}},
		{"duplicate aggregator only", []string{"M1", "M1"}, "M1", []string{"M1"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := Params{ReferenceModels: tc.refs, AggregatorModel: tc.aggregator}
			if got := p.WorkingSet(); !slices.Equal(got, tc.want) {
				t.Errorf("WorkingSet() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestParams_Validate(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("default params invalid: %v", err)
	}

	bad := []Params{
		{Temperature: 1.5, MaxTokens: 1, AggregatorModel: "a", ReferenceModels: []string{"a"}},
		{Temperature: 0.5, MaxTokens: 0, AggregatorModel: "a", ReferenceModels: []string{"a"}},
		{Temperature: 0.5, MaxTokens: 1, ReferenceModels: []string{"a"}},
		{Temperature: 0.5, MaxTokens: 1, AggregatorModel: "a"},
		{Temperature: 0.5, MaxTokens: 1, AggregatorModel: "a", ReferenceModels: []string{"a"}, Rounds: -1},
		{Temperature: math.NaN(), MaxTokens: 1, AggregatorModel: "a", ReferenceModels: []string{"a"}},
	}
	for i, p := range bad {
		if err := p.Validate(); !errors.Is(err, ErrConfiguration) {
			t.Errorf("case %d: expected ErrConfiguration, got %v", i, err)
		}
	}

	if (Params{}).RoundCount() != 1 {
		t.Error("zero rounds should count as one")
	}
}

func TestValidateConversation(t *testing.T) {
	if err := ValidateConversation(nil); !errors.Is(err, ErrInvalidConversation) {
		t.Errorf("empty conversation: %v", err)
	}
	if err := ValidateConversation([]Message{UserMessage("x")}); !errors.Is(err, ErrInvalidConversation) {
		t.Errorf("missing system message: %v", err)
	}
	twoSystems := []Message{SystemMessage("a"), UserMessage("b"), SystemMessage("c")}
	if err := ValidateConversation(twoSystems); !errors.Is(err, ErrInvalidConversation) {
		t.Errorf("second system message: %v", err)
	}
	if err := ValidateConversation([]Message{SystemMessage("a"), UserMessage("b")}); err != nil {
		t.Errorf("valid conversation rejected: %v", err)
	}
}

func TestSharedScalar_ConcurrentAccess(t *testing.T) {
	s := NewSharedScalar(0)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v float64) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Set(v)
				_ = s.Get()
			}
		}(float64(i))
	}
	wg.Wait()

	s.Set(42)
	if s.Get() != 42 {
		t.Errorf("Get() = %v, want 42", s.Get())
	}
}
