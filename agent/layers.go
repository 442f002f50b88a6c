package agent

import (
	"context"

	"github.com/hupe1980/moa/core"
)

// RoundHook observes the references produced by each finished round.
type RoundHook func(round int, refs core.References)

// Layers runs several reference rounds on top of a FanOut. The first round
// sends the raw conversation; every later round sends the conversation with
// the previous round's outputs injected by Builder, so the reference models
// refine each other's answers.
type Layers struct {
	FanOut  *FanOut
	Builder *PromptBuilder
	Rounds  int
	OnRound RoundHook
}

// Run executes the configured rounds and returns the references of the last
// one. With Rounds <= 1 this is exactly one plain fan-out.
func (l *Layers) Run(
	ctx context.Context,
	messages []core.Message,
	models []string,
	temperature float64,
	maxTokens int,
) (core.References, error) {
	rounds := l.Rounds
	if rounds < 1 {
		rounds = 1
	}
	builder := l.Builder
	if builder == nil {
		builder = DefaultPromptBuilder()
	}

	var refs core.References
	for round := 1; round <= rounds; round++ {
		input, err := builder.Build(messages, refs)
		if err != nil {
			return nil, err
		}
		refs, err = l.FanOut.RunRound(ctx, round, input, models, temperature, maxTokens)
		if err != nil {
			return nil, err
		}
		if l.OnRound != nil {
			l.OnRound(round, refs)
		}
	}
	return refs, nil
}
