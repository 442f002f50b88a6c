package testutil

import (
	"github.com/hupe1980/moa/core"
)

// SessionBuilder helps construct sessions with fluent chaining for tests.
// Example:
//
//	sess := NewSessionBuilder("user-1").System("be brief").User("hi").Assistant("hello").Build()
type SessionBuilder struct {
	id       string
	system   *string
	messages []core.Message
	models   []string
}

// NewSessionBuilder creates a new builder for a session with the given id.
// Use chainable methods then call Build.
func NewSessionBuilder(id string) *SessionBuilder {
	return &SessionBuilder{id: id}
}

// System replaces the default system prompt (chainable).
func (b *SessionBuilder) System(prompt string) *SessionBuilder {
	b.system = &prompt
	return b
}

// User appends a user message (chainable).
func (b *SessionBuilder) User(content string) *SessionBuilder {
	b.messages = append(b.messages, core.UserMessage(content))
	return b
}

// Assistant appends an assistant message (chainable).
func (b *SessionBuilder) Assistant(content string) *SessionBuilder {
	b.messages = append(b.messages, core.AssistantMessage(content))
	return b
}

// Models sets the selected reference models (chainable).
func (b *SessionBuilder) Models(models ...string) *SessionBuilder {
	b.models = models
	return b
}

// Build returns a *core.Session with the pre-populated conversation.
func (b *SessionBuilder) Build() *core.Session {
	s := core.NewSession(b.id)

	if b.system != nil {
		s.Messages[0].Content = *b.system
	}
	for _, m := range b.messages {
		s.AppendMessage(m)
	}
	if b.models != nil {
		s.SetSelectedModels(b.models)
	}

	return s
}

// Params returns generation parameters with the given aggregator and
// reference models and defaults for everything else.
func Params(aggregator string, references ...string) core.Params {
	p := core.DefaultParams()
	p.AggregatorModel = aggregator
	p.ReferenceModels = references
	return p
}
