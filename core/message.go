package core

import "fmt"

// Role identifies the author of a conversation message.
type Role string

const (
	// RoleSystem carries the instructions that frame the conversation.
	RoleSystem Role = "system"
	// RoleUser marks messages typed by the human participant.
	RoleUser Role = "user"
	// RoleAssistant marks messages produced by the pipeline.
	RoleAssistant Role = "assistant"
)

// Message is a single role tagged conversation entry.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// SystemMessage creates a system message.
func SystemMessage(content string) Message { return Message{Role: RoleSystem, Content: content} }

// UserMessage creates a user message.
func UserMessage(content string) Message { return Message{Role: RoleUser, Content: content} }

// AssistantMessage creates an assistant message.
func AssistantMessage(content string) Message { return Message{Role: RoleAssistant, Content: content} }

// NewConversation starts a conversation holding only the system message.
func NewConversation(systemPrompt string) []Message {
	return []Message{SystemMessage(systemPrompt)}
}

// CloneMessages returns an independent copy of msgs.
func CloneMessages(msgs []Message) []Message {
	if msgs == nil {
		return nil
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}

// ValidateConversation checks that msgs holds exactly one system message and
// that it sits at index 0.
func ValidateConversation(msgs []Message) error {
	if len(msgs) == 0 {
		return fmt.Errorf("%w: empty conversation", ErrInvalidConversation)
	}
	if msgs[0].Role != RoleSystem {
		return fmt.Errorf("%w: first message has role %q, want %q", ErrInvalidConversation, msgs[0].Role, RoleSystem)
	}
	for i, m := range msgs[1:] {
		switch m.Role {
		case RoleUser, RoleAssistant:
		case RoleSystem:
			return fmt.Errorf("%w: additional system message at index %d", ErrInvalidConversation, i+1)
		default:
			return fmt.Errorf("%w: unknown role %q at index %d", ErrInvalidConversation, m.Role, i+1)
		}
	}
	return nil
}
