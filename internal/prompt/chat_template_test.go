package prompt

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestChatTemplate_Format(t *testing.T) {
	ct, err := NewChatTemplate(
		Segment{Role: RoleSystem, Text: "You are a helpful {domain} expert"},
		Segment{Role: RoleUser, Text: "Explain in simple terms, what is {topic}"},
	)
	if err != nil {
		t.Fatalf("NewChatTemplate: %v", err)
	}

	got, err := ct.Format(map[string]string{"domain": "cricket", "topic": "Dusra"})
	if err != nil {
		t.Fatalf("Format: %v", err)
	}

	want := []Message{
		{Role: RoleSystem, Content: "You are a helpful cricket expert"},
		{Role: RoleUser, Content: "Explain in simple terms, what is Dusra"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestChatTemplate_InputVariables(t *testing.T) {
	ct, err := NewChatTemplate(
		Segment{Role: RoleSystem, Text: "You are a {tone} assistant"},
		Segment{Role: RoleUser, Text: "{question} (answer in {tone} tone)"},
	)
	if err != nil {
		t.Fatalf("NewChatTemplate: %v", err)
	}

	want := []string{"question", "tone"}
	if diff := cmp.Diff(want, ct.InputVariables()); diff != "" {
		t.Fatalf("variables mismatch (-want +got):\n%s", diff)
	}
}

func TestChatTemplate_SharedVariable(t *testing.T) {
	ct, err := NewChatTemplate(
		Segment{Role: RoleSystem, Text: "Speak like a {persona}"},
		Segment{Role: RoleUser, Text: "As a {persona}, greet me"},
	)
	if err != nil {
		t.Fatalf("NewChatTemplate: %v", err)
	}

	msgs, err := ct.Format(map[string]string{"persona": "pirate"})
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if msgs[0].Content != "Speak like a pirate" || msgs[1].Content != "As a pirate, greet me" {
		t.Fatalf("shared variable not applied to both segments: %v", msgs)
	}
}

func TestChatTemplate_MissingValue(t *testing.T) {
	ct, _ := NewChatTemplate(Segment{Role: RoleUser, Text: "Explain {topic}"})
	if _, err := ct.Format(map[string]string{}); err == nil {
		t.Fatal("expected error for missing value")
	}
}

func TestChatTemplate_UnknownRole(t *testing.T) {
	_, err := NewChatTemplate(Segment{Role: "narrator", Text: "hello"})
	if err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestChatTemplate_Empty(t *testing.T) {
	if _, err := NewChatTemplate(); err == nil {
		t.Fatal("expected error for empty chat template")
	}
}
