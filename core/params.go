package core

import (
	"fmt"
	"math"
)

// Params are the read-only generation inputs of a single turn.
type Params struct {
	Temperature     float64  `json:"temperature" yaml:"temperature"`
	MaxTokens       int      `json:"max_tokens" yaml:"max_tokens"`
	AggregatorModel string   `json:"aggregator_model" yaml:"aggregator_model"`
	ReferenceModels []string `json:"reference_models" yaml:"reference_models"`
	// Rounds is the number of reference layers executed before aggregation.
	// Zero is treated as one.
	Rounds int `json:"rounds,omitempty" yaml:"rounds,omitempty"`
}

// DefaultParams mirrors the defaults of the chat surface: temperature 0.5,
// 2048 tokens, the first default model aggregating all default models.
func DefaultParams() Params {
	return Params{
		Temperature:     DefaultTemperature,
		MaxTokens:       DefaultMaxTokens,
		AggregatorModel: DefaultReferenceModels[0],
		ReferenceModels: append([]string(nil), DefaultReferenceModels...),
		Rounds:          1,
	}
}

// Validate reports parameters that can not drive a turn.
func (p Params) Validate() error {
	if math.IsNaN(p.Temperature) || p.Temperature < 0 || p.Temperature > 1 {
		return fmt.Errorf("%w: temperature %.2f outside [0,1]", ErrConfiguration, p.Temperature)
	}
	if p.MaxTokens <= 0 {
		return fmt.Errorf("%w: max tokens must be positive, got %d", ErrConfiguration, p.MaxTokens)
	}
	if p.AggregatorModel == "" {
		return fmt.Errorf("%w: aggregator model is required", ErrConfiguration)
	}
	if len(p.ReferenceModels) == 0 {
		return fmt.Errorf("%w: at least one reference model is required", ErrConfiguration)
	}
	if p.Rounds < 0 {
		return fmt.Errorf("%w: rounds must not be negative, got %d", ErrConfiguration, p.Rounds)
	}
	return nil
}

// RoundCount returns the effective number of reference rounds.
func (p Params) RoundCount() int {
	if p.Rounds < 1 {
		return 1
	}
	return p.Rounds
}

// WorkingSet returns the reference models used for fan-out: the configured
// models minus the aggregator, de-duplicated in configured order. When nothing
// is left the aggregator itself becomes the only reference model.
func (p Params) WorkingSet() []string {
	seen := make(map[string]struct{}, len(p.ReferenceModels))
	out := make([]string, 0, len(p.ReferenceModels))
	for _, m := range p.ReferenceModels {
		if m == "" || m == p.AggregatorModel {
			continue
		}
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	if len(out) == 0 && p.AggregatorModel != "" {
		out = append(out, p.AggregatorModel)
	}
	return out
}
