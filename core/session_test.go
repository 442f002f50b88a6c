package core

import (
	"strings"
	"testing"
)

func TestSession_NewSessionDefaults(t *testing.T) {
	s := NewSession("alice@example.com")
	if err := ValidateConversation(s.History()); err != nil {
		t.Fatalf("new session conversation invalid: %v", err)
	}
	if s.SystemPrompt() != DefaultSystemPrompt {
		t.Errorf("unexpected system prompt %q", s.SystemPrompt())
	}
	if len(s.Models()) != len(DefaultReferenceModels) {
		t.Errorf("expected %d default models, got %d", len(DefaultReferenceModels), len(s.Models()))
	}
}

func TestSession_AppendRecordsFirstQuestion(t *testing.T) {
	s := NewSession("u")
	s.AppendMessage(UserMessage("first"))
	s.AppendMessage(AssistantMessage("answer"))
	s.AppendMessage(UserMessage("second"))

	recs := s.ConversationRecords()
	if len(recs) != 1 {
		t.Fatalf("expected 1 conversation record, got %d", len(recs))
	}
	if recs[0].FirstQuestion != "first" || len(recs[0].Messages) != 2 {
		t.Fatalf("unexpected record %+v", recs[0])
	}

	s.NewConversation()
	if s.Len() != 1 {
		t.Fatalf("new conversation should keep only the system message, got %d", s.Len())
	}
	if err := s.RestoreConversation(0); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if s.Len() != 2 {
		t.Errorf("restored conversation should have 2 messages, got %d", s.Len())
	}
	if err := s.RestoreConversation(3); err == nil {
		t.Error("expected out of range error")
	}
}

func TestSession_UpdateSystemInstructions(t *testing.T) {
	s := NewSession("u")
	s.AppendMessage(UserMessage("hi"))
	s.UpdateSystemInstructions("Answer in French.")

	want := DefaultSystemPrompt + "\n\nAdditional instructions: Answer in French."
	if s.SystemPrompt() != want {
		t.Fatalf("system prompt = %q", s.SystemPrompt())
	}
	if err := ValidateConversation(s.History()); err != nil {
		t.Fatalf("conversation invalid after update: %v", err)
	}

	s.NewConversation()
	if s.SystemPrompt() != want {
		t.Error("new conversation should keep the updated system prompt")
	}
}

func TestSession_ToggleModel(t *testing.T) {
	s := NewSession("u")
	s.SetSelectedModels([]string{"a", "b"})

	if s.ToggleModel("a") {
		t.Error("toggling a selected model should deselect it")
	}
	if !s.ToggleModel("c") {
		t.Error("toggling an unselected model should select it")
	}
	got := strings.Join(s.Models(), ",")
	if got != "b,c" {
		t.Errorf("selection = %s, want b,c", got)
	}
}

func TestSession_TranscriptSkipsSystem(t *testing.T) {
	s := NewSession("u")
	s.AppendMessage(UserMessage("Hello"))
	s.AppendMessage(AssistantMessage("Hello!"))

	if got := s.Transcript(); got != "user: Hello\nassistant: Hello!" {
		t.Errorf("transcript = %q", got)
	}
}

func TestSession_CloneIsIndependent(t *testing.T) {
	s := NewSession("u")
	s.AppendMessage(UserMessage("q"))

	clone := s.Clone()
	if clone == s {
		t.Fatal("Clone should be a different pointer")
	}
	clone.AppendMessage(AssistantMessage("a"))
	clone.ToggleModel("extra")

	if s.Len() != 2 {
		t.Errorf("original should be unchanged, has %d messages", s.Len())
	}
	for _, m := range s.Models() {
		if m == "extra" {
			t.Error("original should not see clone's model selection")
		}
	}
}
