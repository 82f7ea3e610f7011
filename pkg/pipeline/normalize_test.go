package pipeline

import (
	"errors"
	"testing"
	"testing/quick"

	"mindroute/pkg/conversation"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "  I Feel SAD today  ", want: "i feel sad today"},
		{input: "\tWhat is 2+2?\n", want: "what is 2+2?"},
		{input: "already normal", want: "already normal"},
		{input: "   ", want: ""},
	}

	for _, tt := range tests {
		if got := NormalizeText(tt.input); got != tt.want {
			t.Fatalf("NormalizeText(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeTextIdempotent(t *testing.T) {
	idempotent := func(s string) bool {
		once := NormalizeText(s)
		return NormalizeText(once) == once
	}
	if err := quick.Check(idempotent, nil); err != nil {
		t.Fatal(err)
	}
}

func TestNormalizerAppendsEcho(t *testing.T) {
	state := conversation.New()
	state.Append(conversation.RoleUser, "  Hello THERE ")

	msg, err := Normalizer{}.Normalize(state)
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if msg.Role != conversation.RoleAssistant {
		t.Fatalf("echo role = %q, want %q", msg.Role, conversation.RoleAssistant)
	}
	if msg.Content != "hello there" {
		t.Fatalf("echo content = %q, want %q", msg.Content, "hello there")
	}
	if state.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", state.Len())
	}
}

func TestNormalizerEchoRole(t *testing.T) {
	state := conversation.New()
	state.Append(conversation.RoleUser, "Hi")

	msg, err := Normalizer{EchoRole: conversation.RoleUser}.Normalize(state)
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if msg.Role != conversation.RoleUser {
		t.Fatalf("echo role = %q, want %q", msg.Role, conversation.RoleUser)
	}
}

func TestNormalizerEmptyHistory(t *testing.T) {
	state := conversation.New()

	_, err := Normalizer{}.Normalize(state)
	if !errors.Is(err, ErrEmptyHistory) {
		t.Fatalf("error = %v, want %v", err, ErrEmptyHistory)
	}
	if state.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", state.Len())
	}
}
