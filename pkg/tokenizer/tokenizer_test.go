package tokenizer

import (
	"testing"

	"github.com/sweetpotato0/voyager/message"
)

func TestWordCounter(t *testing.T) {
	if got := (WordCounter{}).CountTokens("  a beach  trip\nto goa "); got != 5 {
		t.Errorf("expected 5 tokens, got %d", got)
	}
}

func TestFitMessages(t *testing.T) {
	msgs := []*message.Message{
		message.NewMessage(message.RoleUser, "one two three"),
		message.NewMessage(message.RoleAssistant, "four five"),
		message.NewMessage(message.RoleUser, "six"),
	}

	t.Run("keeps newest suffix within budget", func(t *testing.T) {
		got := FitMessages(WordCounter{}, msgs, 3)
		if len(got) != 2 || got[0].Content != "four five" {
			t.Errorf("unexpected fit: %d messages", len(got))
		}
	})

	t.Run("always keeps the newest message", func(t *testing.T) {
		big := []*message.Message{message.NewMessage(message.RoleUser, "a b c d e f")}
		if got := FitMessages(WordCounter{}, big, 2); len(got) != 1 {
			t.Errorf("expected newest message to survive, got %d", len(got))
		}
	})

	t.Run("non-positive budget disables trimming", func(t *testing.T) {
		if got := FitMessages(nil, msgs, 0); len(got) != 3 {
			t.Errorf("expected all messages, got %d", len(got))
		}
	})
}
