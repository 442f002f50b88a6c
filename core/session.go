package core

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
)

// ConversationRecord remembers a conversation by its first question so it can
// be restored later.
type ConversationRecord struct {
	FirstQuestion string    `json:"first_question"`
	Messages      []Message `json:"messages"`
}

// Session is the explicit per-user state a turn operates on: the running
// conversation plus the user's settings and previous conversations. It is
// safe for concurrent access.
//
// Contract:
//   - Messages always starts with exactly one system message
//   - Messages / Conversations return defensive copies
//   - Mutations update the Updated timestamp
//   - Clone performs deep copies for safe divergence
type Session struct {
	ID               string               `json:"id"`
	Messages         []Message            `json:"messages"`
	UserSystemPrompt string               `json:"user_system_prompt"`
	SelectedModels   []string             `json:"selected_models"`
	Conversations    []ConversationRecord `json:"conversations"`
	Created          time.Time            `json:"created"`
	Updated          time.Time            `json:"updated"`
	mu               sync.RWMutex
}

// NewSession creates a session with the default system prompt and the default
// reference model selection.
func NewSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:             id,
		Messages:       NewConversation(DefaultSystemPrompt),
		SelectedModels: slices.Clone(DefaultReferenceModels),
		Conversations:  []ConversationRecord{},
		Created:        now,
		Updated:        now,
	}
}

// History returns a copy of the current conversation.
func (s *Session) History() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return CloneMessages(s.Messages)
}

// Len returns the number of messages in the current conversation.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.Messages)
}

// AppendMessage extends the conversation. The first user message of a
// conversation is also remembered in Conversations.
func (s *Session) AppendMessage(m Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Messages = append(s.Messages, m)
	if m.Role == RoleUser && len(s.Messages) == 2 {
		s.Conversations = append(s.Conversations, ConversationRecord{
			FirstQuestion: m.Content,
			Messages:      CloneMessages(s.Messages),
		})
	}
	s.Updated = time.Now()
}

// SystemPrompt returns the content of the leading system message.
func (s *Session) SystemPrompt() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.Messages) == 0 {
		return ""
	}
	return s.Messages[0].Content
}

// UpdateSystemInstructions stores extra user instructions and rewrites the
// system message as the default prompt plus those instructions.
func (s *Session) UpdateSystemInstructions(extra string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.UserSystemPrompt = extra
	prompt := CombinedSystemPrompt(DefaultSystemPrompt, extra)
	if len(s.Messages) == 0 || s.Messages[0].Role != RoleSystem {
		s.Messages = append([]Message{SystemMessage(prompt)}, s.Messages...)
	} else {
		s.Messages[0].Content = prompt
	}
	s.Updated = time.Now()
}

// NewConversation starts over, keeping the current system message.
func (s *Session) NewConversation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	system := DefaultSystemPrompt
	if len(s.Messages) > 0 && s.Messages[0].Role == RoleSystem {
		system = s.Messages[0].Content
	}
	s.Messages = NewConversation(system)
	s.Updated = time.Now()
}

// ConversationRecords returns a copy of the remembered conversations.
func (s *Session) ConversationRecords() []ConversationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ConversationRecord, len(s.Conversations))
	for i, c := range s.Conversations {
		out[i] = ConversationRecord{FirstQuestion: c.FirstQuestion, Messages: CloneMessages(c.Messages)}
	}
	return out
}

// RestoreConversation replaces the current conversation with the i-th
// remembered one (zero based).
func (s *Session) RestoreConversation(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.Conversations) {
		return fmt.Errorf("conversation %d out of range [0,%d)", i, len(s.Conversations))
	}
	s.Messages = CloneMessages(s.Conversations[i].Messages)
	s.Updated = time.Now()
	return nil
}

// Models returns a copy of the selected reference models.
func (s *Session) Models() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.SelectedModels)
}

// SetSelectedModels replaces the reference model selection.
func (s *Session) SetSelectedModels(models []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SelectedModels = slices.Clone(models)
	s.Updated = time.Now()
}

// ToggleModel adds model to the selection or removes it when already
// selected. It reports whether the model is selected afterwards.
func (s *Session) ToggleModel(model string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Updated = time.Now()
	if i := slices.Index(s.SelectedModels, model); i >= 0 {
		s.SelectedModels = slices.Delete(s.SelectedModels, i, i+1)
		return false
	}
	s.SelectedModels = append(s.SelectedModels, model)
	return true
}

// Transcript renders the conversation as "role: content" lines, skipping the
// system message.
func (s *Session) Transcript() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lines := make([]string, 0, len(s.Messages))
	for _, m := range s.Messages {
		if m.Role == RoleSystem {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", m.Role, m.Content))
	}
	return strings.Join(lines, "\n")
}

// Clone returns a deep copy of the session safe for independent mutation.
func (s *Session) Clone() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clone := &Session{
		ID:               s.ID,
		Messages:         CloneMessages(s.Messages),
		UserSystemPrompt: s.UserSystemPrompt,
		SelectedModels:   slices.Clone(s.SelectedModels),
		Conversations:    make([]ConversationRecord, len(s.Conversations)),
		Created:          s.Created,
		Updated:          s.Updated,
	}
	for i, c := range s.Conversations {
		clone.Conversations[i] = ConversationRecord{FirstQuestion: c.FirstQuestion, Messages: CloneMessages(c.Messages)}
	}
	return clone
}

// SessionStore persists sessions keyed by user identifier.
type SessionStore interface {
	// Load returns the stored session or a fresh default one.
	Load(id string) (*Session, error)
	// Save stores a snapshot of the session.
	Save(s *Session) error
}
