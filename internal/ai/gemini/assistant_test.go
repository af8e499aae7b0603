package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
)

type stubChat struct {
	answer      string
	err         error
	lastMessage string
}

func (s *stubChat) Send(_ context.Context, message string) (string, error) {
	s.lastMessage = message
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

func TestAssistantIncludesContext(t *testing.T) {
	chat := &stubChat{answer: "Acme matches the Green Tax Credit."}
	assistant := newAssistant(chat, zap.NewNop(), 0)

	answer, err := assistant.Answer(context.Background(), "Which incentives match Acme?", "Companies:\n- [1] Acme")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if answer != "Acme matches the Green Tax Credit." {
		t.Fatalf("unexpected answer: %q", answer)
	}

	if !strings.Contains(chat.lastMessage, "Database context:") {
		t.Fatalf("expected context block in message, got: %q", chat.lastMessage)
	}

	if !strings.Contains(chat.lastMessage, "Question: Which incentives match Acme?") {
		t.Fatalf("expected question in message, got: %q", chat.lastMessage)
	}
}

func TestAssistantWithoutContextSendsQuestionOnly(t *testing.T) {
	chat := &stubChat{answer: "ok"}
	assistant := newAssistant(chat, zap.NewNop(), 0)

	if _, err := assistant.Answer(context.Background(), "hello", "  "); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if chat.lastMessage != "hello" {
		t.Fatalf("expected bare question, got: %q", chat.lastMessage)
	}
}

func TestAssistantRejectsEmptyQuestion(t *testing.T) {
	assistant := newAssistant(&stubChat{}, zap.NewNop(), 0)

	if _, err := assistant.Answer(context.Background(), "   ", "context"); err == nil {
		t.Fatal("expected error for empty question")
	}
}

func TestAssistantPropagatesError(t *testing.T) {
	chat := &stubChat{err: errors.New("boom")}
	assistant := newAssistant(chat, zap.NewNop(), 0)

	if _, err := assistant.Answer(context.Background(), "hello", ""); err == nil {
		t.Fatal("expected error to propagate")
	}
}
