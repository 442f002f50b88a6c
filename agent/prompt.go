package agent

import (
	"fmt"
	"text/template"

	"github.com/hupe1980/moa/core"
	"github.com/hupe1980/moa/internal/util"
)

// DefaultAggregationPrompt is the synthesis instruction handed to the
// aggregator. The template receives .References (core.References) and
// renders each output as a numbered entry.
const DefaultAggregationPrompt = `You have been provided with a set of responses from various open-source models to the latest user query. Your task is to synthesize these responses into a single, high-quality response. It is crucial to critically evaluate the information provided in these responses, recognizing that some of it may be biased or incorrect. Your response should not simply replicate the given answers but should offer a refined, accurate, and comprehensive reply to the instruction. Ensure your response is well-structured, coherent, and adheres to the highest standards of accuracy and reliability.

Responses from models:{{range $i, $r := .References}}
{{inc $i}}. {{$r.Text}}{{end}}`

var defaultPromptBuilder = func() *PromptBuilder {
	b, err := NewPromptBuilder(DefaultAggregationPrompt)
	if err != nil {
		panic(err)
	}
	return b
}()

// PromptBuilder injects reference outputs into a conversation.
type PromptBuilder struct {
	tmpl *template.Template
}

// NewPromptBuilder parses text as the synthesis template.
func NewPromptBuilder(text string) (*PromptBuilder, error) {
	tmpl, err := util.ParseTemplate("aggregation", text)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid aggregation prompt: %v", core.ErrConfiguration, err)
	}
	return &PromptBuilder{tmpl: tmpl}, nil
}

// DefaultPromptBuilder returns the builder for DefaultAggregationPrompt.
func DefaultPromptBuilder() *PromptBuilder { return defaultPromptBuilder }

// Build returns a copy of messages whose system message carries the
// rendered synthesis instruction. The instruction is appended to an existing
// system message at index 0 (separated by a blank line) or prepended as a new
// system message. Without references the copy is returned unchanged.
func (b *PromptBuilder) Build(messages []core.Message, refs core.References) ([]core.Message, error) {
	out := core.CloneMessages(messages)
	if len(refs) == 0 {
		return out, nil
	}

	system, err := util.RenderTemplate(b.tmpl, struct{ References core.References }{refs})
	if err != nil {
		return nil, fmt.Errorf("render aggregation prompt: %w", err)
	}

	if len(out) > 0 && out[0].Role == core.RoleSystem {
		out[0].Content = out[0].Content + "\n\n" + system
		return out, nil
	}
	return append([]core.Message{core.SystemMessage(system)}, out...), nil
}

// BuildAggregationMessages injects refs into messages with the default
// synthesis instruction.
func BuildAggregationMessages(messages []core.Message, refs core.References) ([]core.Message, error) {
	return defaultPromptBuilder.Build(messages, refs)
}
